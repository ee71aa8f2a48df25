package request

import (
	"fmt"
	"maps"
	"strings"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength   = 1000
	DefaultTopK      = 5
	MaxTopK          = 20
	DefaultThreshold = 0.7
)

// Request is a validated search query.
type Request struct {
	query        string
	topK         int
	threshold    float64
	thresholdSet bool
	useQuantum   bool
	filter       map[string]string
}

// New validates and normalizes search parameters.
// A nil threshold means "use the configured default"; a nil useQuantum means true.
// topK <= 0 falls back to DefaultTopK, values over MaxTopK are clamped.
func New(
	query string,
	topK int,
	threshold *float64,
	useQuantum *bool,
	filter map[string]string,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	r := Request{
		query:      query,
		topK:       topK,
		threshold:  DefaultThreshold,
		useQuantum: true,
	}
	if threshold != nil {
		if *threshold < 0 || *threshold > 1 {
			return Request{}, fmt.Errorf("similarity_threshold must be between 0 and 1")
		}
		r.threshold = *threshold
		r.thresholdSet = true
	}
	if useQuantum != nil {
		r.useQuantum = *useQuantum
	}
	for k := range filter {
		if k == "" {
			return Request{}, fmt.Errorf("filter keys must be non-empty")
		}
	}
	if len(filter) > 0 {
		r.filter = maps.Clone(filter)
	}
	return r, nil
}

// WithDefaultThreshold returns a copy using def when no threshold was given explicitly.
func (r Request) WithDefaultThreshold(def float64) Request {
	if !r.thresholdSet {
		r.threshold = def
	}
	return r
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

// Threshold returns the similarity cutoff used to mark documents for amplification.
func (r *Request) Threshold() float64 { return r.threshold }

// ThresholdSet reports whether the caller supplied a threshold.
func (r *Request) ThresholdSet() bool { return r.thresholdSet }

// UseQuantum reports whether quantum-enhanced search was requested.
func (r *Request) UseQuantum() bool { return r.useQuantum }

// Filter returns the metadata pre-filter (nil when absent).
func (r *Request) Filter() map[string]string { return r.filter }
