// ABOUTME: Continuation prompt templates sent to the decision oracle
// ABOUTME: Paragraph prose and meeting transcripts use different wording
package core

import (
	"fmt"
	"strings"

	"github.com/harper/topicseg/internal/models"
)

// PromptTemplate renders the yes/no continuation question for one sentence.
// Text holds {context} and {sentence} placeholders.
type PromptTemplate struct {
	Name string
	Text string
}

// ParagraphPrompt asks whether a sentence continues a paragraph of prose.
var ParagraphPrompt = PromptTemplate{
	Name: "paragraph",
	Text: `Given the following paragraph:

{context}

Does the following sentence continue the paragraph?

{sentence}

If it does, output "True". If they are not, output "False". Do not provide any explanation. Ensure your answer is limited to "True" or "False".`,
}

// MeetingPrompt asks whether an utterance continues a meeting dialogue.
var MeetingPrompt = PromptTemplate{
	Name: "meeting",
	Text: `Given the following meeting transcript:

{context}

Does the following sentence continue the same dialogue?

{sentence}

If it does, output "True". If they are not, output "False". Do not provide any explanation. Ensure your answer is limited to "True" or "False".`,
}

// Render fills the template with the joined context and the candidate sentence.
func (p PromptTemplate) Render(context, sentence string) string {
	return strings.NewReplacer("{context}", context, "{sentence}", sentence).Replace(p.Text)
}

// PromptByName looks up a built-in template.
func PromptByName(name string) (PromptTemplate, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ParagraphPrompt.Name:
		return ParagraphPrompt, nil
	case MeetingPrompt.Name:
		return MeetingPrompt, nil
	}
	return PromptTemplate{}, fmt.Errorf("%w: unknown prompt %q", models.ErrValidation, name)
}
