package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teamkb/teamkb/internal/ai"
	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/internal/document/repository"
	"github.com/teamkb/teamkb/pkg/logger"
	"github.com/teamkb/teamkb/pkg/metrics"
)

var log = logger.Named("documents")

// SearchResult is a semantic search hit enriched with the current document.
// Document is nil when the ranked id does not resolve.
type SearchResult struct {
	ai.Ranking
	Document *document.Document `json:"document"`
}

// SemanticResults is the response of SemanticSearch.
type SemanticResults struct {
	Query        string          `json:"query"`
	TotalResults int             `json:"totalResults"`
	Results      []*SearchResult `json:"results"`
	Fallback     bool            `json:"fallback"`
}

// Answer is the response of Answer. Fallback marks a deterministic answer
// served because the model was unavailable.
type Answer struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	DocumentsUsed int    `json:"documentsUsed"`
	Fallback      bool   `json:"fallback"`
}

// Service is the read side of the Document Store plus the AI-backed queries.
type Service struct {
	repo repository.Repository
	ai   ai.Client
}

func New(repo repository.Repository, client ai.Client) *Service {
	return &Service{repo: repo, ai: client}
}

func (s *Service) List(ctx context.Context) ([]*document.Document, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*document.Document, error) {
	return s.repo.Get(ctx, id)
}

// Search matches query literally and case-insensitively against title and content.
func (s *Service) Search(ctx context.Context, query string) ([]*document.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", apperrors.ErrInvalidInput)
	}
	return s.repo.Search(ctx, query)
}

// SemanticSearch asks the model to rank every document against query. When
// the model fails the PositionalFallback ranking is served instead.
func (s *Service) SemanticSearch(ctx context.Context, query string) (*SemanticResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", apperrors.ErrInvalidInput)
	}
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	res := &SemanticResults{Query: query, Results: []*SearchResult{}}
	if len(docs) == 0 {
		return res, nil
	}

	rankings, err := s.ai.Rank(ctx, query, docs)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUpstream) {
			return nil, err
		}
		log.Warnf("semantic search falling back to positional ranking: %v", err)
		metrics.AIFallbacks.WithLabelValues("rank").Inc()
		rankings = ai.PositionalFallback(docs)
		res.Fallback = true
	}

	byID := make(map[string]*document.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	for _, r := range rankings {
		r.RelevanceScore = ai.ClampScore(r.RelevanceScore)
		d := byID[r.DocumentID]
		if d != nil && r.Title == "" {
			r.Title = d.Title
		}
		res.Results = append(res.Results, &SearchResult{Ranking: r, Document: d})
	}
	res.TotalResults = len(res.Results)
	return res, nil
}

// Answer answers question from the content of all documents. With no
// documents there is nothing to answer from and the result is NotFound.
func (s *Service) Answer(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", apperrors.ErrInvalidInput)
	}
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents found to answer the question", apperrors.ErrNotFound)
	}

	out := &Answer{Question: question, DocumentsUsed: len(docs)}
	text, err := s.ai.Answer(ctx, question, docs)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUpstream) {
			return nil, err
		}
		log.Warnf("answer falling back to document listing: %v", err)
		metrics.AIFallbacks.WithLabelValues("answer").Inc()
		text = ai.FallbackAnswer(question, docs)
		out.Fallback = true
	}
	out.Answer = text
	return out, nil
}
