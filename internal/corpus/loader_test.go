// ABOUTME: Tests for corpus loading
// ABOUTME: Verifies text splitting, JSON Lines labels, augmented records, and error cases
package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/harper/topicseg/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_Text(t *testing.T) {
	path := writeFile(t, "climate.txt",
		"Climate change is a pressing issue. Rising temperatures melt ice.\n\nThe stock market fell today.")

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{
		"Climate change is a pressing issue.",
		"Rising temperatures melt ice.",
		"The stock market fell today.",
	}
	if !reflect.DeepEqual(doc.Sentences, want) {
		t.Errorf("Sentences = %q, want %q", doc.Sentences, want)
	}
	if doc.Labeled() {
		t.Error("free text should not be labeled")
	}
	if doc.Source != path {
		t.Errorf("Source = %q", doc.Source)
	}
}

func TestLoad_TextOneSentencePerLine(t *testing.T) {
	path := writeFile(t, "lines.txt",
		"The city lies on the river\nIts population grew after the war\nThe climate is temperate\n")

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{
		"The city lies on the river",
		"Its population grew after the war",
		"The climate is temperate",
	}
	if !reflect.DeepEqual(doc.Sentences, want) {
		t.Errorf("Sentences = %q, want %q", doc.Sentences, want)
	}
}

func TestReadText_WrappedParagraphsStayProse(t *testing.T) {
	doc, err := ReadText(strings.NewReader("The first sentence is\nwrapped across lines.\n\nA second paragraph."))
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	want := []string{"The first sentence is wrapped across lines.", "A second paragraph."}
	if !reflect.DeepEqual(doc.Sentences, want) {
		t.Errorf("Sentences = %q, want %q", doc.Sentences, want)
	}
}

func TestLoad_JSONLWithLabels(t *testing.T) {
	path := writeFile(t, "city.jsonl", strings.Join([]string{
		`{"sentence": "Paris is the capital of France.", "target": true}`,
		`{"sentence": "It lies on the Seine.", "target": false}`,
		``,
		`{"sentence": "The economy is diverse.", "target": true}`,
	}, "\n"))

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !doc.Labeled() {
		t.Fatal("document should be labeled")
	}
	want := [][]string{
		{"Paris is the capital of France.", "It lies on the Seine."},
		{"The economy is diverse."},
	}
	if !reflect.DeepEqual(doc.Segments(), want) {
		t.Errorf("Segments() = %q, want %q", doc.Segments(), want)
	}
}

func TestReadJSONL_PartialLabelsDropped(t *testing.T) {
	doc, err := ReadJSONL(strings.NewReader(`{"sentence":"a","target":true}
{"sentence":"b"}`))
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	if doc.Labels != nil || doc.Segments() != nil {
		t.Errorf("labels should be dropped when incomplete, got %v", doc.Labels)
	}
	if len(doc.Sentences) != 2 {
		t.Errorf("Sentences = %v", doc.Sentences)
	}
}

func TestReadJSONL_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"sentence": `},
		{"empty sentence", `{"sentence": "  "}`},
		{"no records", "\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSONL(strings.NewReader(tt.input)); !errors.Is(err, models.ErrValidation) {
				t.Errorf("ReadJSONL() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLoadAugmented(t *testing.T) {
	path := writeFile(t, "committee_gta1.jsonl", strings.Join([]string{
		`{"augmented_sentence": "Welcome, everyone.", "sentence_id": 1, "target": true, "sequence": 0}`,
		``,
		`{"augmented_sentence": "Let us start.", "sentence_id": 1, "sequence": 1}`,
	}, "\n"))

	rows, err := LoadAugmented(path)
	if err != nil {
		t.Fatalf("LoadAugmented() error = %v", err)
	}
	want := []models.AugmentedSentence{
		{Text: "Welcome, everyone.", SentenceID: 1, IsTarget: true, Sequence: 0},
		{Text: "Let us start.", SentenceID: 1, Sequence: 1},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("LoadAugmented() = %+v, want %+v", rows, want)
	}
}

func TestReadAugmentedJSONL_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"augmented_sentence": `},
		{"empty text", `{"augmented_sentence": " ", "sentence_id": 1}`},
		{"missing sentence id", `{"augmented_sentence": "text"}`},
		{"no records", "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadAugmentedJSONL(strings.NewReader(tt.input)); !errors.Is(err, models.ErrValidation) {
				t.Errorf("ReadAugmentedJSONL() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
	if _, err := Load(writeFile(t, "empty.txt", "   \n")); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Load() of empty text error = %v, want ErrValidation", err)
	}
	if _, err := Load(writeFile(t, "broken.pdf", "not a pdf")); err == nil {
		t.Error("Load() of an invalid PDF should fail")
	}
}
