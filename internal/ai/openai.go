package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/config"
	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/pkg/logger"
	"github.com/teamkb/teamkb/pkg/metrics"
)

const systemPrompt = "You are the assistant of a team knowledge base. Answer concisely and follow the requested output format exactly."

var log = logger.Named("ai")

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	rankModel string
	timeout   time.Duration
}

// NewOpenAIClient returns Unavailable when no API key is configured.
func NewOpenAIClient(cfg config.AIConfig) Client {
	if cfg.APIKey == "" {
		log.Warnf("AI_API_KEY not set, document creation will fail and search will use fallbacks")
		return Unavailable{}
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	c := &OpenAIClient{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		rankModel: cfg.RankModel,
		timeout:   cfg.Timeout,
	}
	if c.model == "" {
		c.model = openai.GPT4oMini
	}
	if c.rankModel == "" {
		c.rankModel = c.model
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	log.Infof("initialised OpenAI client (model=%s rank_model=%s)", c.model, c.rankModel)
	return c
}

func (o *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	out, err := o.complete(ctx, "summarize", o.model, summaryPrompt(text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) Tags(ctx context.Context, text string) ([]string, error) {
	out, err := o.complete(ctx, "tags", o.model, tagsPrompt(text))
	if err != nil {
		return nil, err
	}
	return ParseTags(out), nil
}

func (o *OpenAIClient) Rank(ctx context.Context, query string, docs []*document.Document) ([]Ranking, error) {
	out, err := o.complete(ctx, "rank", o.rankModel, rankPrompt(query, docs))
	if err != nil {
		return nil, err
	}
	rankings, err := ParseRankings(out)
	if err != nil {
		metrics.AIRequests.WithLabelValues("rank", "unparseable").Inc()
		log.Debugf("unparseable rank reply: %.200s", out)
		return nil, err
	}
	return rankings, nil
}

func (o *OpenAIClient) Answer(ctx context.Context, question string, docs []*document.Document) (string, error) {
	out, err := o.complete(ctx, "answer", o.model, answerPrompt(question, docs))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// complete runs one chat completion under the configured timeout.
func (o *OpenAIClient) complete(ctx context.Context, operation, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.AIRequests.WithLabelValues(operation, outcome).Inc()
		log.Warnf("%s request failed: %v", operation, err)
		return "", fmt.Errorf("%w: %s: %w", apperrors.ErrUpstream, operation, err)
	}
	if len(resp.Choices) == 0 {
		metrics.AIRequests.WithLabelValues(operation, "error").Inc()
		return "", fmt.Errorf("%w: %s: %w", apperrors.ErrUpstream, operation, errEmptyReply)
	}
	metrics.AIRequests.WithLabelValues(operation, "ok").Inc()
	return resp.Choices[0].Message.Content, nil
}
