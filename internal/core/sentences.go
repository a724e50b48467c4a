// ABOUTME: Splits free text into an ordered sentence list
// ABOUTME: Paragraphs split on blank lines, sentences on terminal punctuation
package core

import (
	"strings"
	"unicode"
)

// SplitSentences splits text into paragraphs and each paragraph into sentences.
// A sentence ends at '.', '!' or '?' followed by whitespace or end of text.
func SplitSentences(text string) []string {
	var result []string
	for _, para := range splitParagraphs(text) {
		result = append(result, splitSentences(para)...)
	}
	return result
}

// SplitLines treats every non-empty line as the start of a new sentence.
// A line holding several punctuated sentences is still split on terminators.
func SplitLines(text string) []string {
	var result []string
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			result = append(result, splitSentences(line)...)
		}
	}
	return result
}

// LineOriented reports whether text has several non-empty lines and no
// blank line separating paragraphs, the layout of one-sentence-per-line corpora.
func LineOriented(text string) bool {
	lines := strings.Split(strings.TrimSpace(normalizeNewlines(text)), "\n")
	if len(lines) < 2 {
		return false
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			return false
		}
	}
	return true
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// splitParagraphs splits text by blank lines
func splitParagraphs(text string) []string {
	text = normalizeNewlines(text)
	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.Join(strings.Fields(para), " ")
		if para != "" {
			paragraphs = append(paragraphs, para)
		}
	}
	return paragraphs
}

func splitSentences(para string) []string {
	var (
		result []string
		start  int
	)
	runes := []rune(para)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if sent := strings.TrimSpace(string(runes[start : i+1])); sent != "" {
			result = append(result, sent)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		result = append(result, tail)
	}
	return result
}
