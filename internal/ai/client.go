// Package ai binds the knowledge base to a large language model. Summaries and
// tags feed document creation; rankings and answers feed search, which
// degrades to the named fallbacks in fallback.go when the model fails.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/document"
)

var (
	// ErrUnparseable is returned by Rank when the model reply is not a JSON
	// array of rankings.
	ErrUnparseable = fmt.Errorf("%w: unparseable model output", apperrors.ErrUpstream)
	// ErrNotConfigured is returned by every call of Unavailable.
	ErrNotConfigured = fmt.Errorf("%w: AI provider not configured", apperrors.ErrUpstream)
	errEmptyReply    = errors.New("model returned no choices")
)

// Client is the LLM collaborator. Every method fails with an error wrapping
// apperrors.ErrUpstream.
type Client interface {
	Summarize(ctx context.Context, text string) (string, error)
	Tags(ctx context.Context, text string) ([]string, error)
	Rank(ctx context.Context, query string, docs []*document.Document) ([]Ranking, error)
	Answer(ctx context.Context, question string, docs []*document.Document) (string, error)
}

// Ranking is one semantic search hit as reported by the model.
type Ranking struct {
	DocumentID     string  `json:"documentId"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevanceScore"`
	MatchedContent string  `json:"matchedContent"`
	Reason         string  `json:"reason"`
}

// Unavailable is the Client used when no API key is configured.
type Unavailable struct{}

func (Unavailable) Summarize(context.Context, string) (string, error) { return "", ErrNotConfigured }
func (Unavailable) Tags(context.Context, string) ([]string, error)    { return nil, ErrNotConfigured }
func (Unavailable) Rank(context.Context, string, []*document.Document) ([]Ranking, error) {
	return nil, ErrNotConfigured
}
func (Unavailable) Answer(context.Context, string, []*document.Document) (string, error) {
	return "", ErrNotConfigured
}

var (
	_ Client = Unavailable{}
	_ Client = (*OpenAIClient)(nil)
)
