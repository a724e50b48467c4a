// ABOUTME: Tests for Sentence and Segment helpers
// ABOUTME: Verifies segment ids, target lookup, label extraction, and split label parsing
package models

import (
	"errors"
	"reflect"
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }

func TestSentence_SegmentID(t *testing.T) {
	tests := []struct {
		name     string
		sentence Sentence
		want     int64
	}{
		{"target", Sentence{ID: 7, IsTarget: true}, 7},
		{"dependent", Sentence{ID: 9, ParentID: int64Ptr(7), Sequence: 2}, 7},
		{"orphan", Sentence{ID: 3}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sentence.SegmentID(); got != tt.want {
				t.Errorf("SegmentID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSegment_Helpers(t *testing.T) {
	seg := Segment{
		{ID: 1, Text: "a", IsTarget: true},
		{ID: 2, Text: "b", ParentID: int64Ptr(1), Sequence: 1},
		{ID: 3, Text: "c", ParentID: int64Ptr(1), Sequence: 2},
	}

	target, ok := seg.Target()
	if !ok || target.ID != 1 {
		t.Errorf("Target() = %+v, %v; want id 1", target, ok)
	}
	if got := seg.Texts(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Texts() = %v", got)
	}
	if got := seg.Labels(); !reflect.DeepEqual(got, []bool{true, false, false}) {
		t.Errorf("Labels() = %v", got)
	}
	if got := seg.String(); got != "a\nb\nc" {
		t.Errorf("String() = %q", got)
	}
}

func TestSegment_TargetMissing(t *testing.T) {
	if _, ok := (Segment{}).Target(); ok {
		t.Error("empty segment should have no target")
	}
	if _, ok := (Segment{{ID: 4, Text: "orphan"}}).Target(); ok {
		t.Error("segment starting with a non-target should have no target")
	}
}

func TestSplitLabel_Valid(t *testing.T) {
	for _, l := range []SplitLabel{SplitTrain, SplitTest, SplitValidation} {
		if !l.Valid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if SplitLabel("holdout").Valid() {
		t.Error("unknown label should be invalid")
	}
}

func TestParseSplitLabels(t *testing.T) {
	tests := []struct {
		input         string
		first, second SplitLabel
		wantErr       bool
	}{
		{"", SplitTrain, SplitTest, false},
		{"train,test", SplitTrain, SplitTest, false},
		{" Test , Validation ", SplitTest, SplitValidation, false},
		{"train", "", "", true},
		{"train,test,validation", "", "", true},
		{"train,holdout", "", "", true},
		{"test,test", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			first, second, err := ParseSplitLabels(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseSplitLabels(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSplitLabels(%q) error = %v", tt.input, err)
			}
			if first != tt.first || second != tt.second {
				t.Errorf("ParseSplitLabels(%q) = %q, %q, want %q, %q", tt.input, first, second, tt.first, tt.second)
			}
		})
	}
}
