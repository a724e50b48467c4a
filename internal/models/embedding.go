// ABOUTME: Embedding models for the retrieval collaborator
// ABOUTME: Defines stored passages and similarity search results
package models

import (
	"fmt"
	"time"
)

// Embedding is a stored passage with its vector.
type Embedding struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id,omitempty"`
	Content   string    `json:"content"`
	Vector    []float64 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateDimension checks the vector is non-empty and has the expected size.
func (e Embedding) ValidateDimension(expected int) error {
	if len(e.Vector) == 0 {
		return fmt.Errorf("%w: embedding vector cannot be empty", ErrValidation)
	}
	if expected > 0 && len(e.Vector) != expected {
		return fmt.Errorf("%w: embedding dimension mismatch: expected %d, got %d", ErrValidation, expected, len(e.Vector))
	}
	return nil
}

// SearchResult is one hit from a similarity search.
type SearchResult struct {
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	SourceID string  `json:"source_id,omitempty"`
}
