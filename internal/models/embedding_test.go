// ABOUTME: Tests for Embedding model and dimension validation
// ABOUTME: Verifies vector dimension checking for embedding consistency
package models

import (
	"errors"
	"strings"
	"testing"
)

func TestEmbedding_ValidateDimension(t *testing.T) {
	tests := []struct {
		name        string
		vector      []float64
		expectedDim int
		errContains string
	}{
		{"valid dimension match", []float64{0.1, 0.2, 0.3, 0.4}, 4, ""},
		{"any dimension accepted", []float64{0.1}, 0, ""},
		{"empty vector", []float64{}, 4, "cannot be empty"},
		{"nil vector", nil, 4, "cannot be empty"},
		{"too short", []float64{0.1, 0.2}, 4, "dimension mismatch"},
		{"too long", []float64{0.1, 0.2, 0.3, 0.4, 0.5}, 4, "dimension mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Embedding{ID: "emb_1", Vector: tt.vector}.ValidateDimension(tt.expectedDim)
			if tt.errContains == "" {
				if err != nil {
					t.Fatalf("ValidateDimension() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateDimension() expected error, got nil")
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("error should wrap ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want it to contain %q", err, tt.errContains)
			}
		})
	}
}
