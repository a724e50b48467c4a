// ABOUTME: Embedding storage operations for SQLite
// ABOUTME: Stores retrieval passages as BLOB vectors and runs cosine similarity search
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/harper/topicseg/internal/models"
)

// EmbeddingStore handles embedding persistence
type EmbeddingStore struct {
	db *DB
}

// NewEmbeddingStore creates a new EmbeddingStore
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// Save stores a passage and its vector, replacing any passage with the same id
func (s *EmbeddingStore) Save(ctx context.Context, emb models.Embedding) error {
	if strings.TrimSpace(emb.ID) == "" {
		return fmt.Errorf("%w: embedding id is required", models.ErrValidation)
	}
	if err := emb.ValidateDimension(0); err != nil {
		return err
	}
	createdAt := emb.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO embeddings (id, source_id, content, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			content = excluded.content,
			vector = excluded.vector
	`, emb.ID, nullString(emb.SourceID), emb.Content, vectorToBlob(emb.Vector), createdAt)
	if err != nil {
		return fmt.Errorf("save embedding: %w", classify(err))
	}
	return nil
}

// SearchSimilar returns the maxResults passages most similar to queryVector
func (s *EmbeddingStore) SearchSimilar(ctx context.Context, queryVector []float64, maxResults int) ([]models.SearchResult, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w: max results must be positive, got %d", models.ErrValidation, maxResults)
	}

	rows, err := s.db.conn.QueryContext(ctx, `SELECT source_id, content, vector FROM embeddings`)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var results []models.SearchResult
	for rows.Next() {
		var (
			sourceID sql.NullString
			content  string
			blob     []byte
		)
		if err := rows.Scan(&sourceID, &content, &blob); err != nil {
			return nil, err
		}
		results = append(results, models.SearchResult{
			Content:  content,
			Score:    CosineSimilarity(queryVector, blobToVector(blob)),
			SourceID: sourceID.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// Count returns the number of stored passages
func (s *EmbeddingStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM embeddings`); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// vectorToBlob converts a float64 slice to binary blob
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float64 slice
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return vector
}

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// nullString converts an empty string to sql.NullString
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
