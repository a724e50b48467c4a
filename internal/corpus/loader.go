// ABOUTME: Loads ordered sentence lists from text, JSON Lines and PDF files
// ABOUTME: JSON Lines records may carry gold target flags for evaluation
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/models"
	"github.com/ledongthuc/pdf"
)

// Document is an ordered sentence list read from one source.
type Document struct {
	Source    string
	Sentences []string
	// Labels holds one gold boundary flag per sentence when the source carries them.
	Labels []bool
}

// Labeled reports whether every sentence has a gold flag.
func (d Document) Labeled() bool {
	return len(d.Labels) > 0 && len(d.Labels) == len(d.Sentences)
}

// Segments groups the sentences by their gold labels.
func (d Document) Segments() [][]string {
	if !d.Labeled() {
		return nil
	}
	var segments [][]string
	for i, s := range d.Sentences {
		if d.Labels[i] || len(segments) == 0 {
			segments = append(segments, nil)
		}
		segments[len(segments)-1] = append(segments[len(segments)-1], s)
	}
	return segments
}

type record struct {
	Sentence string `json:"sentence"`
	Target   *bool  `json:"target,omitempty"`
}

// Load reads path according to its extension: .jsonl, .pdf, or free text.
func Load(path string) (Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	case ".jsonl", ".ndjson":
		f, err := os.Open(path) // #nosec G304
		if err != nil {
			return Document{}, fmt.Errorf("open corpus: %w", err)
		}
		defer func() { _ = f.Close() }()
		doc, err := ReadJSONL(f)
		doc.Source = path
		return doc, err
	}
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return Document{}, fmt.Errorf("read corpus: %w", err)
	}
	doc, err := ReadText(bytes.NewReader(data))
	doc.Source = path
	return doc, err
}

// ReadText splits free text into sentences. Text with several lines and no
// blank-line paragraphs is read as one sentence per line; anything else is
// split into paragraphs and then on sentence terminators.
func ReadText(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read text: %w", err)
	}
	text := string(data)
	if core.LineOriented(text) {
		return newTextDocument(core.SplitLines(text))
	}
	return newTextDocument(core.SplitSentences(text))
}

func newTextDocument(sentences []string) (Document, error) {
	if len(sentences) == 0 {
		return Document{}, fmt.Errorf("%w: no sentences found", models.ErrValidation)
	}
	return Document{Sentences: sentences}, nil
}

// ReadJSONL reads one {"sentence": ..., "target": ...} record per line.
// Labels are kept only when every record has a target flag.
func ReadJSONL(r io.Reader) (Document, error) {
	var doc Document
	labeled := true
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return Document{}, fmt.Errorf("%w: line %d: %w", models.ErrValidation, line, err)
		}
		if strings.TrimSpace(rec.Sentence) == "" {
			return Document{}, fmt.Errorf("%w: line %d: empty sentence", models.ErrValidation, line)
		}
		doc.Sentences = append(doc.Sentences, rec.Sentence)
		if rec.Target == nil {
			labeled = false
			continue
		}
		doc.Labels = append(doc.Labels, *rec.Target)
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("scan records: %w", err)
	}
	if len(doc.Sentences) == 0 {
		return Document{}, fmt.Errorf("%w: no sentences found", models.ErrValidation)
	}
	if !labeled {
		doc.Labels = nil
	}
	return doc, nil
}

type augmentedRecord struct {
	Sentence   string `json:"augmented_sentence"`
	SentenceID int64  `json:"sentence_id"`
	Target     bool   `json:"target"`
	Sequence   int    `json:"sequence"`
}

// ReadAugmentedJSONL reads one {"augmented_sentence", "sentence_id", "target",
// "sequence"} record per line. sentence_id names the base sentence the row augments.
func ReadAugmentedJSONL(r io.Reader) ([]models.AugmentedSentence, error) {
	var rows []models.AugmentedSentence
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec augmentedRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", models.ErrValidation, line, err)
		}
		if strings.TrimSpace(rec.Sentence) == "" {
			return nil, fmt.Errorf("%w: line %d: empty augmented_sentence", models.ErrValidation, line)
		}
		if rec.SentenceID <= 0 {
			return nil, fmt.Errorf("%w: line %d: sentence_id must be positive", models.ErrValidation, line)
		}
		rows = append(rows, models.AugmentedSentence{
			Text:       rec.Sentence,
			SentenceID: rec.SentenceID,
			IsTarget:   rec.Target,
			Sequence:   rec.Sequence,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no augmented sentences found", models.ErrValidation)
	}
	return rows, nil
}

// LoadAugmented reads a JSON Lines file of augmented sentences.
func LoadAugmented(path string) ([]models.AugmentedSentence, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadAugmentedJSONL(f)
}

func loadPDF(path string) (Document, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	b, err := rdr.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("read pdf text: %w", err)
	}
	data, err := io.ReadAll(b)
	if err != nil {
		return Document{}, fmt.Errorf("read pdf text: %w", err)
	}
	// PDF lines are layout wraps, never sentence boundaries.
	doc, err := newTextDocument(core.SplitSentences(string(data)))
	doc.Source = path
	return doc, err
}
