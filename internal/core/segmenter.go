// ABOUTME: Segmenter runs the sliding-window continuation loop over a sentence sequence
// ABOUTME: Each sentence either extends the open segment or starts a new one
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harper/topicseg/internal/models"
)

// Oracle answers a free-text continuation question. One request per call.
type Oracle interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

// Invoke calls f.
func (f OracleFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Answer is the classification of a raw oracle response.
type Answer int

const (
	// AnswerBoundary means the response contained "false".
	AnswerBoundary Answer = iota
	// AnswerContinue means the response contained "true" and not "false".
	AnswerContinue
	// AnswerAmbiguous means the response contained neither.
	AnswerAmbiguous
)

func (a Answer) String() string {
	switch a {
	case AnswerBoundary:
		return "boundary"
	case AnswerContinue:
		return "continue"
	case AnswerAmbiguous:
		return "ambiguous"
	}
	return fmt.Sprintf("Answer(%d)", int(a))
}

// Classify maps a raw response onto an Answer by case-insensitive substring match.
// "false" anywhere wins over "true".
func Classify(response string) Answer {
	normalized := strings.ToLower(strings.TrimSpace(response))
	switch {
	case strings.Contains(normalized, "false"):
		return AnswerBoundary
	case strings.Contains(normalized, "true"):
		return AnswerContinue
	}
	return AnswerAmbiguous
}

// Decision records the outcome for one sentence.
type Decision struct {
	Sentence  string `json:"sentence"`
	Context   string `json:"context"`
	Response  string `json:"response"`
	Continues bool   `json:"continues"`
	// Ambiguous is set when the response matched neither answer.
	// The sentence is still treated as a boundary.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// Boundary reports whether the sentence starts a new segment.
func (d Decision) Boundary() bool {
	return !d.Continues
}

// Result is the output of a full run over a sentence sequence.
type Result struct {
	Decisions []Decision `json:"decisions"`
}

// Boundaries returns the boundary flags for sentences 2..n.
// The oracle's answer for the first sentence is not included.
func (r Result) Boundaries() []bool {
	if len(r.Decisions) < 2 {
		return []bool{}
	}
	out := make([]bool, 0, len(r.Decisions)-1)
	for _, d := range r.Decisions[1:] {
		out = append(out, d.Boundary())
	}
	return out
}

// Labels returns one flag per sentence with the first forced to true.
func (r Result) Labels() []bool {
	if len(r.Decisions) == 0 {
		return []bool{}
	}
	return append([]bool{true}, r.Boundaries()...)
}

// Segments groups the processed sentences by Labels.
func (r Result) Segments() [][]string {
	var segments [][]string
	for i, label := range r.Labels() {
		if label {
			segments = append(segments, nil)
		}
		last := len(segments) - 1
		segments[last] = append(segments[last], r.Decisions[i].Sentence)
	}
	return segments
}

// Segmenter owns the rolling context for a single run. It is not safe for concurrent use.
type Segmenter struct {
	oracle  Oracle
	window  int
	prompt  PromptTemplate
	logger  *slog.Logger
	context []string
}

// NewSegmenter creates a Segmenter backed by oracle.
func NewSegmenter(oracle Oracle, opts ...Option) (*Segmenter, error) {
	cfg := newConfig(opts)
	if oracle == nil {
		return nil, fmt.Errorf("%w: oracle is required", models.ErrValidation)
	}
	if cfg.windowSize < 1 {
		return nil, fmt.Errorf("%w: window size must be at least 1, got %d", models.ErrValidation, cfg.windowSize)
	}
	if !strings.Contains(cfg.prompt.Text, "{sentence}") {
		return nil, fmt.Errorf("%w: prompt %q has no {sentence} placeholder", models.ErrValidation, cfg.prompt.Name)
	}
	return &Segmenter{
		oracle: oracle,
		window: cfg.windowSize,
		prompt: cfg.prompt,
		logger: cfg.logger,
	}, nil
}

// WindowSize returns the number of trailing sentences sent as context.
func (s *Segmenter) WindowSize() int { return s.window }

// Context returns a copy of the current rolling context.
func (s *Segmenter) Context() []string {
	return append([]string(nil), s.context...)
}

// Reset clears the rolling context.
func (s *Segmenter) Reset() {
	s.context = nil
}

// Decide asks the oracle whether sentence continues the rolling context and
// updates the context. On error the context is left unchanged.
func (s *Segmenter) Decide(ctx context.Context, sentence string) (Decision, error) {
	if strings.TrimSpace(sentence) == "" {
		return Decision{}, fmt.Errorf("%w: sentence is empty", models.ErrValidation)
	}

	window := s.context
	if len(window) > s.window {
		window = window[len(window)-s.window:]
	}
	contextText := strings.Join(window, "\n")

	response, err := s.oracle.Invoke(ctx, s.prompt.Render(contextText, sentence))
	if err != nil {
		if errors.Is(err, models.ErrOracle) {
			return Decision{}, err
		}
		return Decision{}, fmt.Errorf("%w: %w", models.ErrOracle, err)
	}

	answer := Classify(response)
	d := Decision{
		Sentence:  sentence,
		Context:   contextText,
		Response:  response,
		Continues: answer == AnswerContinue,
		Ambiguous: answer == AnswerAmbiguous,
	}

	if d.Continues {
		s.context = append(s.context, sentence)
		if len(s.context) > s.window {
			s.context = append([]string(nil), s.context[len(s.context)-s.window:]...)
		}
	} else {
		s.context = []string{sentence}
	}

	if d.Ambiguous {
		s.logger.Warn("ambiguous oracle response treated as boundary",
			"response", response, "sentence", sentence)
	}
	s.logger.Debug("segmentation decision",
		"answer", answer.String(), "context_len", len(window))

	return d, nil
}

// Predict resets the context and decides every sentence in order.
// On failure it returns the decisions made so far together with the error.
func (s *Segmenter) Predict(ctx context.Context, sentences []string) (Result, error) {
	s.Reset()
	result := Result{Decisions: make([]Decision, 0, len(sentences))}
	for i, sentence := range sentences {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sentence %d: %w", i, err)
		}
		d, err := s.Decide(ctx, sentence)
		if err != nil {
			return result, fmt.Errorf("sentence %d: %w", i, err)
		}
		result.Decisions = append(result.Decisions, d)
	}
	return result, nil
}
