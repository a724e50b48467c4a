// ABOUTME: Tests for the sliding-window segmentation loop
// ABOUTME: Verifies answer classification, window contents, and failure handling
package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/harper/topicseg/internal/models"
)

// scriptedOracle replies from a fixed list and records every prompt.
type scriptedOracle struct {
	replies []string
	errAt   int
	prompts []string
}

func (o *scriptedOracle) Invoke(_ context.Context, prompt string) (string, error) {
	o.prompts = append(o.prompts, prompt)
	i := len(o.prompts) - 1
	if o.errAt > 0 && i == o.errAt {
		return "", errors.New("model unavailable")
	}
	if len(o.replies) == 0 {
		return "", errors.New("no reply scripted")
	}
	if i >= len(o.replies) {
		return o.replies[len(o.replies)-1], nil
	}
	return o.replies[i], nil
}

func constOracle(reply string) Oracle {
	return OracleFunc(func(context.Context, string) (string, error) { return reply, nil })
}

// contextPrompt exposes the rendered context verbatim.
var contextPrompt = PromptTemplate{Name: "raw", Text: "{context}|{sentence}"}

func sentences(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("s%d", i+1)
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		response string
		want     Answer
	}{
		{"True", AnswerContinue},
		{"  TRUE.  ", AnswerContinue},
		{"False", AnswerBoundary},
		{"false", AnswerBoundary},
		{"true and false", AnswerBoundary},
		{"It is False, not True", AnswerBoundary},
		{"", AnswerAmbiguous},
		{"maybe", AnswerAmbiguous},
		{"yes", AnswerAmbiguous},
	}
	for _, tt := range tests {
		if got := Classify(tt.response); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.response, got, tt.want)
		}
	}
}

func TestNewSegmenter_Validation(t *testing.T) {
	if _, err := NewSegmenter(nil); !errors.Is(err, models.ErrValidation) {
		t.Errorf("NewSegmenter(nil) error = %v, want ErrValidation", err)
	}
	if _, err := NewSegmenter(constOracle("true"), WithWindowSize(0)); !errors.Is(err, models.ErrValidation) {
		t.Errorf("NewSegmenter(window 0) error = %v, want ErrValidation", err)
	}
	if _, err := NewSegmenter(constOracle("true"), WithPrompt(PromptTemplate{Name: "bad", Text: "{context}"})); !errors.Is(err, models.ErrValidation) {
		t.Errorf("NewSegmenter(bad prompt) error = %v, want ErrValidation", err)
	}

	seg, err := NewSegmenter(constOracle("true"))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}
	if seg.WindowSize() != DefaultWindowSize {
		t.Errorf("WindowSize() = %d, want %d", seg.WindowSize(), DefaultWindowSize)
	}
}

func TestPredict_AlwaysFalseFragments(t *testing.T) {
	seg, err := NewSegmenter(constOracle("False"))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	res, err := seg.Predict(context.Background(), sentences(6))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i, b := range res.Boundaries() {
		if !b {
			t.Errorf("Boundaries()[%d] = false, want true", i)
		}
	}
	if len(res.Segments()) != 6 {
		t.Errorf("Segments() = %v, want 6 singleton segments", res.Segments())
	}
}

func TestPredict_AlwaysTrueSingleSegment(t *testing.T) {
	seg, err := NewSegmenter(constOracle("True"))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	res, err := seg.Predict(context.Background(), sentences(6))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i, b := range res.Boundaries() {
		if b {
			t.Errorf("Boundaries()[%d] = true, want false", i)
		}
	}
	if got := res.Segments(); len(got) != 1 || len(got[0]) != 6 {
		t.Errorf("Segments() = %v, want one segment of 6", got)
	}
}

func TestPredict_BothWordsIsBoundary(t *testing.T) {
	seg, err := NewSegmenter(constOracle("true and false"))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	res, err := seg.Predict(context.Background(), sentences(3))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if want := []bool{true, true}; !reflect.DeepEqual(res.Boundaries(), want) {
		t.Errorf("Boundaries() = %v, want %v", res.Boundaries(), want)
	}
	for _, d := range res.Decisions {
		if d.Ambiguous {
			t.Error("a response containing false is not ambiguous")
		}
	}
}

func TestPredict_AmbiguousIsFlaggedBoundary(t *testing.T) {
	seg, err := NewSegmenter(constOracle("I cannot tell"))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	res, err := seg.Predict(context.Background(), sentences(2))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	d := res.Decisions[1]
	if !d.Boundary() || !d.Ambiguous {
		t.Errorf("decision = %+v, want ambiguous boundary", d)
	}
}

func TestPredict_LabelsPrefixImplicitBoundary(t *testing.T) {
	// The oracle says "continue" for the first sentence; its label is still true.
	seg, err := NewSegmenter(constOracle("True"))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	res, err := seg.Predict(context.Background(), sentences(3))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := res.Boundaries(); len(got) != 2 {
		t.Errorf("Boundaries() has %d entries, want 2", len(got))
	}
	if want := []bool{true, false, false}; !reflect.DeepEqual(res.Labels(), want) {
		t.Errorf("Labels() = %v, want %v", res.Labels(), want)
	}
}

func TestPredict_WindowHoldsLastFive(t *testing.T) {
	oracle := &scriptedOracle{replies: []string{"True"}}
	seg, err := NewSegmenter(oracle, WithPrompt(contextPrompt))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	if _, err := seg.Predict(context.Background(), sentences(8)); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if got := oracle.prompts[0]; got != "|s1" {
		t.Errorf("first prompt = %q, want empty context", got)
	}
	want := "s3\ns4\ns5\ns6\ns7|s8"
	if got := oracle.prompts[7]; got != want {
		t.Errorf("prompt for s8 = %q, want %q", got, want)
	}
}

func TestPredict_BoundaryResetsContext(t *testing.T) {
	oracle := &scriptedOracle{replies: []string{"True", "True", "False", "True"}}
	seg, err := NewSegmenter(oracle, WithPrompt(contextPrompt))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	if _, err := seg.Predict(context.Background(), sentences(4)); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := oracle.prompts[3]; got != "s3|s4" {
		t.Errorf("prompt after boundary = %q, want %q", got, "s3|s4")
	}
	if got := seg.Context(); !reflect.DeepEqual(got, []string{"s3", "s4"}) {
		t.Errorf("Context() = %v", got)
	}
}

func TestPredict_ABCExample(t *testing.T) {
	// Sentence A is asked against an empty context, B is rejected, C continues B.
	oracle := &scriptedOracle{replies: []string{"True", "False", "True"}}
	seg, err := NewSegmenter(oracle)
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	res, err := seg.Predict(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if want := []bool{true, true, false}; !reflect.DeepEqual(res.Labels(), want) {
		t.Errorf("Labels() = %v, want %v", res.Labels(), want)
	}
	if want := [][]string{{"A"}, {"B", "C"}}; !reflect.DeepEqual(res.Segments(), want) {
		t.Errorf("Segments() = %v, want %v", res.Segments(), want)
	}
}

func TestDecide_OracleErrorLeavesContext(t *testing.T) {
	oracle := &scriptedOracle{replies: []string{"True"}, errAt: 2}
	seg, err := NewSegmenter(oracle)
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	res, err := seg.Predict(context.Background(), sentences(4))
	if !errors.Is(err, models.ErrOracle) {
		t.Fatalf("Predict() error = %v, want ErrOracle", err)
	}
	if !strings.Contains(err.Error(), "sentence 2") {
		t.Errorf("error should name the failing sentence: %v", err)
	}
	if len(res.Decisions) != 2 {
		t.Errorf("partial result has %d decisions, want 2", len(res.Decisions))
	}
	if got := seg.Context(); !reflect.DeepEqual(got, []string{"s1", "s2"}) {
		t.Errorf("Context() after failure = %v, want [s1 s2]", got)
	}
}

func TestDecide_RejectsEmptySentence(t *testing.T) {
	oracle := &scriptedOracle{replies: []string{"True"}}
	seg, err := NewSegmenter(oracle)
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}
	if _, err := seg.Decide(context.Background(), "  "); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Decide(\"\") error = %v, want ErrValidation", err)
	}
	if len(oracle.prompts) != 0 {
		t.Error("oracle should not be called for an empty sentence")
	}
}

func TestPredict_CancelledContext(t *testing.T) {
	seg, err := NewSegmenter(constOracle("True"))
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := seg.Predict(ctx, sentences(3))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Predict() error = %v, want context.Canceled", err)
	}
	if len(res.Decisions) != 0 {
		t.Errorf("cancelled run made %d decisions", len(res.Decisions))
	}
}

func TestPromptTemplates(t *testing.T) {
	p, err := PromptByName("meeting")
	if err != nil {
		t.Fatalf("PromptByName() error = %v", err)
	}
	out := p.Render("Alice: hi", "Bob: hello")
	if !strings.Contains(out, "meeting transcript") || !strings.Contains(out, "Alice: hi") || !strings.Contains(out, "Bob: hello") {
		t.Errorf("Render() = %q", out)
	}

	if p, _ := PromptByName(""); p.Name != ParagraphPrompt.Name {
		t.Errorf("PromptByName(\"\") = %q, want paragraph", p.Name)
	}
	if _, err := PromptByName("haiku"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("PromptByName(haiku) error = %v, want ErrValidation", err)
	}
}
