// ABOUTME: Retriever performs vector similarity search over stored passages
// ABOUTME: Indexes passages through an Embedder and ranks them by cosine similarity to a query
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/topicseg/internal/models"
	"github.com/harper/topicseg/internal/storage/sqlite"
)

// Embedder turns text into a vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// Retriever returns the passages closest to a query.
type Retriever struct {
	embedder Embedder
	store    *sqlite.EmbeddingStore
}

// NewRetriever creates a Retriever with the given embedder and passage store
func NewRetriever(embedder Embedder, store *sqlite.EmbeddingStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// SimilaritySearch returns up to k passages ordered by descending score.
func (r *Retriever) SimilaritySearch(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", models.ErrValidation)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrValidation, k)
	}

	vector, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", models.ErrOracle, err)
	}

	results, err := r.store.SearchSimilar(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}

// Index embeds content and stores it as passage id, replacing any passage with the same id.
func (r *Retriever) Index(ctx context.Context, id, sourceID, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: passage %s is empty", models.ErrValidation, id)
	}
	vector, err := r.embedder.GenerateEmbedding(ctx, content)
	if err != nil {
		return fmt.Errorf("%w: embed passage %s: %w", models.ErrOracle, id, err)
	}
	return r.store.Save(ctx, models.Embedding{
		ID:       id,
		SourceID: sourceID,
		Content:  content,
		Vector:   vector,
	})
}
