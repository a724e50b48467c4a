// ABOUTME: Tests for sentence storage operations
// ABOUTME: Verifies segment insertion layout, capped segment reads, and validation
package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/topicseg/internal/models"
)

func newSentenceStore(t *testing.T, db *DB, dataset string) *SentenceStore {
	t.Helper()
	store, err := NewSentenceStore(context.Background(), db, dataset, VariantBase)
	if err != nil {
		t.Fatalf("NewSentenceStore() error = %v", err)
	}
	return store
}

func TestSentenceStore_InsertSegmentLayout(t *testing.T) {
	ctx := context.Background()
	store := newSentenceStore(t, newTestDB(t), "city")

	texts := []string{"Paris is the capital.", "It sits on the Seine.", "It has many museums."}
	targetID, err := store.InsertSegment(ctx, texts)
	if err != nil {
		t.Fatalf("InsertSegment() error = %v", err)
	}

	seg, err := store.Segment(ctx, targetID, DefaultMaxSegmentSize)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(seg) != len(texts) {
		t.Fatalf("Segment() returned %d rows, want %d", len(seg), len(texts))
	}

	for i, s := range seg {
		if s.Text != texts[i] {
			t.Errorf("row %d text = %q, want %q", i, s.Text, texts[i])
		}
		if s.Sequence != i {
			t.Errorf("row %d sequence = %d, want %d", i, s.Sequence, i)
		}
		if i == 0 {
			if !s.IsTarget || s.ParentID != nil || s.ID != targetID {
				t.Errorf("first row should be the target with no parent, got %+v", s)
			}
			continue
		}
		if s.IsTarget {
			t.Errorf("row %d should not be a target", i)
		}
		if s.ParentID == nil || *s.ParentID != targetID {
			t.Errorf("row %d parent = %v, want %d", i, s.ParentID, targetID)
		}
	}
}

func TestSentenceStore_InsertSegmentSingleSentence(t *testing.T) {
	ctx := context.Background()
	store := newSentenceStore(t, newTestDB(t), "choi")

	id, err := store.InsertSegment(ctx, []string{"only"})
	if err != nil {
		t.Fatalf("InsertSegment() error = %v", err)
	}
	seg, err := store.Segment(ctx, id, 5)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(seg) != 1 || !seg[0].IsTarget {
		t.Errorf("Segment() = %+v, want single target row", seg)
	}
}

func TestSentenceStore_InsertSegmentValidation(t *testing.T) {
	ctx := context.Background()
	store := newSentenceStore(t, newTestDB(t), "choi")

	for _, texts := range [][]string{nil, {}, {"a", " "}} {
		id, err := store.InsertSegment(ctx, texts)
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("InsertSegment(%q) error = %v, want ErrValidation", texts, err)
		}
		if id != 0 {
			t.Errorf("InsertSegment(%q) id = %d, want 0", texts, id)
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d after rejected inserts, want 0", n)
	}
}

func TestSentenceStore_SegmentCapped(t *testing.T) {
	ctx := context.Background()
	store := newSentenceStore(t, newTestDB(t), "disease")

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = string(rune('a' + i))
	}
	id, err := store.InsertSegment(ctx, texts)
	if err != nil {
		t.Fatalf("InsertSegment() error = %v", err)
	}

	for _, maxSize := range []int{1, 4, 12, 50} {
		seg, err := store.Segment(ctx, id, maxSize)
		if err != nil {
			t.Fatalf("Segment(%d) error = %v", maxSize, err)
		}
		want := min(maxSize, len(texts))
		if len(seg) != want {
			t.Errorf("Segment(%d) returned %d rows, want %d", maxSize, len(seg), want)
		}
		for i := 1; i < len(seg); i++ {
			if seg[i].Sequence <= seg[i-1].Sequence {
				t.Errorf("Segment(%d) not ordered by sequence at %d", maxSize, i)
			}
		}
		if !seg[0].IsTarget {
			t.Errorf("Segment(%d) first row is not the target", maxSize)
		}
	}

	if _, err := store.Segment(ctx, id, 0); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Segment(0) error = %v, want ErrValidation", err)
	}
}

func TestSentenceStore_SegmentUnknownID(t *testing.T) {
	store := newSentenceStore(t, newTestDB(t), "choi")

	seg, err := store.Segment(context.Background(), 999, 10)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(seg) != 0 {
		t.Errorf("Segment() of unknown id = %+v, want empty", seg)
	}
}

func TestSentenceStore_Insert(t *testing.T) {
	ctx := context.Background()
	store := newSentenceStore(t, newTestDB(t), "choi")

	targetID, err := store.Insert(ctx, "head", true, nil, 0)
	if err != nil {
		t.Fatalf("Insert(target) error = %v", err)
	}
	childID, err := store.Insert(ctx, "tail", false, &targetID, 1)
	if err != nil {
		t.Fatalf("Insert(child) error = %v", err)
	}

	tests := []struct {
		name     string
		text     string
		isTarget bool
		parent   *int64
		sequence int
		want     error
	}{
		{"empty text", "", true, nil, 0, models.ErrValidation},
		{"negative sequence", "x", true, nil, -1, models.ErrValidation},
		{"target with parent", "x", true, &targetID, 0, models.ErrValidation},
		{"dependent without parent", "x", false, nil, 1, models.ErrValidation},
		{"parent is not a target", "x", false, &childID, 2, models.ErrValidation},
		{"target with nonzero sequence", "x", true, nil, 3, models.ErrValidation},
		{"dependent with sequence zero", "x", false, &targetID, 0, models.ErrValidation},
		{"parent missing", "x", false, ptr(int64(777)), 1, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Insert(ctx, tt.text, tt.isTarget, tt.parent, tt.sequence)
			if !errors.Is(err, tt.want) {
				t.Errorf("Insert() error = %v, want %v", err, tt.want)
			}
		})
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2 after rejected inserts", count)
	}

	got, err := store.Get(ctx, childID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.SegmentID() != targetID {
		t.Errorf("SegmentID() = %d, want %d", got.SegmentID(), targetID)
	}
}

func TestSentenceStore_CountsAndTargets(t *testing.T) {
	ctx := context.Background()
	store := newSentenceStore(t, newTestDB(t), "choi")

	for _, seg := range [][]string{{"a", "b", "c"}, {"d", "e"}, {"f"}} {
		if _, err := store.InsertSegment(ctx, seg); err != nil {
			t.Fatalf("InsertSegment() error = %v", err)
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 6 {
		t.Errorf("Count() = %d, want 6", n)
	}

	targets, err := store.CountTargets(ctx)
	if err != nil {
		t.Fatalf("CountTargets() error = %v", err)
	}
	if targets != 3 {
		t.Errorf("CountTargets() = %d, want 3", targets)
	}

	rows, err := store.Targets(ctx)
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	want := []string{"a", "d", "f"}
	for i, r := range rows {
		if r.Text != want[i] {
			t.Errorf("Targets()[%d] = %q, want %q", i, r.Text, want[i])
		}
	}

	ids, err := store.TargetIDs(ctx)
	if err != nil {
		t.Fatalf("TargetIDs() error = %v", err)
	}
	if len(ids) != 3 || ids[0] != rows[0].ID {
		t.Errorf("TargetIDs() = %v, want ids of %v", ids, rows)
	}
}

func TestSentenceStore_GetMissing(t *testing.T) {
	store := newSentenceStore(t, newTestDB(t), "choi")

	_, err := store.Get(context.Background(), 42)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestNewSentenceStore_RejectsNonSentenceVariant(t *testing.T) {
	_, err := NewSentenceStore(context.Background(), newTestDB(t), "choi", VariantTrainTest)
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("NewSentenceStore(train_test) error = %v, want ErrValidation", err)
	}
}

func ptr[T any](v T) *T { return &v }
