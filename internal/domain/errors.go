package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSessionNotFound signals a chat session without history.
	ErrSessionNotFound = errors.New("session not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidRequest signals a request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmptyStore signals a search against a store with no documents.
	ErrEmptyStore = errors.New("no documents in store")
	// ErrPayloadTooLarge signals an ingestion payload over the configured limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrChatProviderError signals a chat model failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrChatNotConfigured signals that no chat model is configured.
	ErrChatNotConfigured = errors.New("chat model not configured")

	// ErrSimulationFailed signals that a circuit could not be built or simulated.
	ErrSimulationFailed = errors.New("quantum simulation failed")
)

// DimensionError wraps ErrVectorDimMismatch with the offending sizes.
type DimensionError struct {
	Expected int
	Got      int
	Index    int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: vector %d has %d dimensions, expected %d",
		ErrVectorDimMismatch.Error(), e.Index, e.Got, e.Expected)
}

func (e *DimensionError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionError creates a dimension mismatch error for the vector at index.
func NewDimensionError(expected, got, index int) error {
	return &DimensionError{Expected: expected, Got: got, Index: index}
}
