package document

import (
	"fmt"
	"strings"
)

// Chunking defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators in order of preference. A cut is placed right after the separator.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text into overlapping windows measured in runes.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window settings.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split cuts text into chunks of at most size runes. Cuts prefer paragraph,
// line, sentence and word boundaries found in the back half of the window;
// consecutive chunks share up to overlap runes. Blank chunks are dropped.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	var out []string

	for start := 0; start < len(runes); {
		if len(runes)-start <= c.size {
			out = appendChunk(out, runes[start:])
			break
		}

		end := start + c.size
		cut := breakPoint(runes, start+c.size/2, end)
		out = appendChunk(out, runes[start:cut])

		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}

// breakPoint returns the position just past the best separator in runes[lo:hi],
// or hi when none occurs.
func breakPoint(runes []rune, lo, hi int) int {
	window := string(runes[lo:hi])
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return lo + len([]rune(window[:i+len(sep)]))
		}
	}
	return hi
}

func appendChunk(out []string, r []rune) []string {
	if s := strings.TrimSpace(string(r)); s != "" {
		return append(out, s)
	}
	return out
}
