package ai

import (
	"fmt"
	"strings"

	"github.com/teamkb/teamkb/internal/document"
)

const (
	fallbackResults = 5
	fallbackExcerpt = 150
	// FallbackReason annotates every positional fallback hit.
	FallbackReason = "Relevant document based on semantic analysis"
)

// PositionalFallback is the ranking served when the model errors or replies
// with something unparseable: the first five documents in the given order,
// scored 1.0, 0.9, 0.8 and so on.
func PositionalFallback(docs []*document.Document) []Ranking {
	n := len(docs)
	if n > fallbackResults {
		n = fallbackResults
	}
	out := make([]Ranking, 0, n)
	for i, d := range docs[:n] {
		out = append(out, Ranking{
			DocumentID:     d.ID,
			Title:          d.Title,
			RelevanceScore: ClampScore(1.0 - float64(i)*0.1),
			MatchedContent: excerpt(d.Content, fallbackExcerpt) + "...",
			Reason:         FallbackReason,
		})
	}
	return out
}

// FallbackAnswer is served when the model cannot answer. It names up to five
// of the documents the answer would have been drawn from.
func FallbackAnswer(question string, docs []*document.Document) string {
	titles := make([]string, 0, fallbackResults)
	for _, d := range docs {
		if len(titles) == fallbackResults {
			break
		}
		titles = append(titles, fmt.Sprintf("%q", d.Title))
	}
	return fmt.Sprintf("The AI assistant is currently unavailable, so %q could not be answered automatically. "+
		"These documents may help: %s.", question, strings.Join(titles, ", "))
}

// ClampScore bounds a relevance score to [0, 1].
func ClampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
