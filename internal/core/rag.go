// ABOUTME: RetrievalOracle prepends retrieved passages to every prompt
// ABOUTME: Decorates any Oracle with retrieval-augmented context
package core

import (
	"context"
	"fmt"
	"strings"
)

const ragTemplate = `Answer the question based on the context provided:

%s

---

Answer the question based on the above context: %s`

// RetrievalOracle looks up the k passages closest to each prompt and asks
// the wrapped oracle with those passages as context.
type RetrievalOracle struct {
	next      Oracle
	retriever *Retriever
	k         int
}

// NewRetrievalOracle wraps next. k is the number of passages per prompt.
func NewRetrievalOracle(next Oracle, retriever *Retriever, k int) *RetrievalOracle {
	return &RetrievalOracle{next: next, retriever: retriever, k: k}
}

// Invoke retrieves passages for prompt and forwards the augmented prompt.
func (o *RetrievalOracle) Invoke(ctx context.Context, prompt string) (string, error) {
	results, err := o.retriever.SimilaritySearch(ctx, prompt, o.k)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	passages := make([]string, 0, len(results))
	for _, r := range results {
		passages = append(passages, r.Content)
	}
	return o.next.Invoke(ctx, fmt.Sprintf(ragTemplate, strings.Join(passages, "\n\n---\n\n"), prompt))
}
