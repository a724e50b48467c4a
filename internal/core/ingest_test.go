// ABOUTME: Tests for the segment ingestion pipeline
// ABOUTME: Verifies stored layout and what survives oracle and store failures
package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/harper/topicseg/internal/models"
)

func TestIngestor_StoresSegments(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t, "city")

	oracle := &scriptedOracle{replies: []string{"True", "True", "True", "False", "True"}}
	seg, err := NewSegmenter(oracle)
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}
	ing, err := NewIngestor(seg, store.Sentences)
	if err != nil {
		t.Fatalf("NewIngestor() error = %v", err)
	}

	res, err := ing.Ingest(ctx, []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if len(res.SegmentIDs) != 2 {
		t.Fatalf("SegmentIDs = %v, want 2 ids", res.SegmentIDs)
	}

	got, err := NewSampler(store).AllSegments(ctx)
	if err != nil {
		t.Fatalf("AllSegments() error = %v", err)
	}
	if want := [][]string{{"a", "b", "c"}, {"d", "e"}}; !reflect.DeepEqual(texts(got), want) {
		t.Errorf("stored segments = %v, want %v", texts(got), want)
	}
	if !reflect.DeepEqual(res.Result.Segments(), texts(got)) {
		t.Errorf("Result.Segments() = %v, stored = %v", res.Result.Segments(), texts(got))
	}
}

func TestIngestor_FailureKeepsClosedSegments(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t, "city")

	// a | b c | d fails
	oracle := &scriptedOracle{replies: []string{"True", "False", "True"}, errAt: 3}
	seg, err := NewSegmenter(oracle)
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}
	ing, err := NewIngestor(seg, store.Sentences)
	if err != nil {
		t.Fatalf("NewIngestor() error = %v", err)
	}

	res, err := ing.Ingest(ctx, []string{"a", "b", "c", "d"})
	if !errors.Is(err, models.ErrOracle) {
		t.Fatalf("Ingest() error = %v, want ErrOracle", err)
	}
	if !reflect.DeepEqual(res.Pending, []string{"b", "c"}) {
		t.Errorf("Pending = %v, want [b c]", res.Pending)
	}

	got, err := NewSampler(store).AllSegments(ctx)
	if err != nil {
		t.Fatalf("AllSegments() error = %v", err)
	}
	if want := [][]string{{"a"}}; !reflect.DeepEqual(texts(got), want) {
		t.Errorf("stored segments = %v, want %v", texts(got), want)
	}
}

func TestIngestor_StoreFailureKeepsBoundarySentence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := newTestStorage(t, "city")

	// The oracle opens a segment at "b" and cancels the run, so storing [a] fails.
	calls := 0
	oracle := OracleFunc(func(context.Context, string) (string, error) {
		calls++
		if calls == 2 {
			cancel()
			return "False", nil
		}
		return "True", nil
	})
	seg, err := NewSegmenter(oracle)
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}
	ing, err := NewIngestor(seg, store.Sentences)
	if err != nil {
		t.Fatalf("NewIngestor() error = %v", err)
	}

	res, err := ing.Ingest(ctx, []string{"a", "b", "c"})
	if err == nil {
		t.Fatal("Ingest() error = nil, want store failure")
	}
	if !reflect.DeepEqual(res.Pending, []string{"a", "b"}) {
		t.Errorf("Pending = %v, want [a b]", res.Pending)
	}
	if len(res.SegmentIDs) != 0 {
		t.Errorf("SegmentIDs = %v, want none", res.SegmentIDs)
	}

	got, err := NewSampler(store).AllSegments(context.Background())
	if err != nil {
		t.Fatalf("AllSegments() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("stored segments = %v, want none", texts(got))
	}
}

func TestIngestor_Validation(t *testing.T) {
	store := newTestStorage(t, "city")
	seg, err := NewSegmenter(constOracle("True"))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}
	if _, err := NewIngestor(nil, store.Sentences); !errors.Is(err, models.ErrValidation) {
		t.Errorf("NewIngestor(nil) error = %v, want ErrValidation", err)
	}
	ing, err := NewIngestor(seg, store.Sentences)
	if err != nil {
		t.Fatalf("NewIngestor() error = %v", err)
	}
	if _, err := ing.Ingest(context.Background(), nil); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Ingest(nil) error = %v, want ErrValidation", err)
	}
}
