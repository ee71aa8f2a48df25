package document

import (
	"fmt"
	"maps"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// Limits for stored records.
const (
	MaxIDLength = 256
	// MaxTextSize is the maximum size of a single chunk of text in bytes.
	MaxTextSize = 163840
)

// Record is a stored text chunk with its embedding (immutable value object).
// The retrieval core receives records by value and never mutates them.
type Record struct {
	id        string
	text      string
	embedding []float32
	metadata  map[string]string
}

// New validates and creates a Record.
func New(id, text string, embedding []float32, metadata map[string]string) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return Record{}, fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Record{}, fmt.Errorf("document ID %q contains invalid characters", id)
	}
	if text == "" {
		return Record{}, fmt.Errorf("text is required")
	}
	if len(text) > MaxTextSize {
		return Record{}, fmt.Errorf("text too large (max %d bytes)", MaxTextSize)
	}
	if len(embedding) == 0 {
		return Record{}, fmt.Errorf("embedding is required")
	}

	return Record{
		id:        id,
		text:      text,
		embedding: embedding,
		metadata:  maps.Clone(metadata),
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id, text string, embedding []float32, metadata map[string]string) Record {
	return Record{id: id, text: text, embedding: embedding, metadata: metadata}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Text returns the chunk text.
func (r *Record) Text() string { return r.text }

// Embedding returns the embedding vector.
func (r *Record) Embedding() []float32 { return r.embedding }

// Metadata returns the string metadata.
func (r *Record) Metadata() map[string]string { return r.metadata }

// MetadataValue returns a single metadata value ("" when absent).
func (r *Record) MetadataValue(key string) string { return r.metadata[key] }

// Embeddings extracts the vectors of a pool in pool order.
func Embeddings(pool []Record) [][]float32 {
	out := make([][]float32, len(pool))
	for i := range pool {
		out[i] = pool[i].embedding
	}
	return out
}
