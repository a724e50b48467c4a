// ABOUTME: Sentence, Segment, and split assignment models for segmentation datasets
// ABOUTME: Field tags map directly onto the per-dataset SQLite tables
package models

import (
	"fmt"
	"strings"
)

// SplitLabel names the partition a target sentence belongs to.
type SplitLabel string

const (
	SplitTrain      SplitLabel = "train"
	SplitTest       SplitLabel = "test"
	SplitValidation SplitLabel = "validation"
)

// Valid reports whether the label is one of the known partitions.
func (l SplitLabel) Valid() bool {
	switch l {
	case SplitTrain, SplitTest, SplitValidation:
		return true
	}
	return false
}

// ParseSplitLabels parses a "first,second" label pair such as "train,test"
// or "test,validation". An empty string yields train and test.
func ParseSplitLabels(s string) (SplitLabel, SplitLabel, error) {
	if strings.TrimSpace(s) == "" {
		return SplitTrain, SplitTest, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: split labels must be two comma-separated names, got %q", ErrValidation, s)
	}
	first := SplitLabel(strings.ToLower(strings.TrimSpace(parts[0])))
	second := SplitLabel(strings.ToLower(strings.TrimSpace(parts[1])))
	for _, l := range []SplitLabel{first, second} {
		if !l.Valid() {
			return "", "", fmt.Errorf("%w: unknown split label %q", ErrValidation, l)
		}
	}
	if first == second {
		return "", "", fmt.Errorf("%w: split labels must differ", ErrValidation)
	}
	return first, second, nil
}

// Sentence is a single stored unit of text.
// A target sentence opens a segment: IsTarget is true, ParentID is nil and Sequence is 0.
type Sentence struct {
	ID       int64  `db:"id" json:"id" yaml:"id"`
	Text     string `db:"sentence" json:"sentence" yaml:"sentence"`
	IsTarget bool   `db:"target" json:"target" yaml:"target"`
	ParentID *int64 `db:"parent" json:"parent,omitempty" yaml:"parent,omitempty"`
	Sequence int    `db:"sequence" json:"sequence" yaml:"sequence"`
}

// SegmentID returns the id of the target sentence this sentence belongs to.
func (s Sentence) SegmentID() int64 {
	if s.IsTarget || s.ParentID == nil {
		return s.ID
	}
	return *s.ParentID
}

// Segment is a target sentence followed by its dependents ordered by sequence.
type Segment []Sentence

// Target returns the anchoring sentence, or false when the segment has none.
func (s Segment) Target() (Sentence, bool) {
	if len(s) == 0 || !s[0].IsTarget {
		return Sentence{}, false
	}
	return s[0], true
}

// Texts returns the sentence texts in order.
func (s Segment) Texts() []string {
	texts := make([]string, len(s))
	for i, sent := range s {
		texts[i] = sent.Text
	}
	return texts
}

// Labels returns the target flag of every sentence in order.
func (s Segment) Labels() []bool {
	labels := make([]bool, len(s))
	for i, sent := range s {
		labels[i] = sent.IsTarget
	}
	return labels
}

// String joins the segment texts with newlines.
func (s Segment) String() string {
	return strings.Join(s.Texts(), "\n")
}

// AugmentedSentence is a model-generated alternative of a stored sentence.
type AugmentedSentence struct {
	ID         int64  `db:"id" json:"id" yaml:"id"`
	Text       string `db:"augmented_sentence" json:"augmented_sentence" yaml:"augmented_sentence"`
	IsTarget   bool   `db:"target" json:"target" yaml:"target"`
	SentenceID int64  `db:"sentence_id" json:"sentence_id" yaml:"sentence_id"`
	Sequence   int    `db:"sequence" json:"sequence" yaml:"sequence"`
}

// SplitAssignment maps a target sentence to its partition.
type SplitAssignment struct {
	ID        int64      `db:"id" json:"id" yaml:"id"`
	SegmentID int64      `db:"segment_id" json:"segment_id" yaml:"segment_id"`
	Label     SplitLabel `db:"type" json:"type" yaml:"type"`
}
