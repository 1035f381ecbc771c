package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/config"
	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/pkg/metrics"
)

// fakeProvider is an OpenAI-compatible chat completion endpoint that replies
// with a canned message and records the prompts it receives.
type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	status  int
	delay   time.Duration
	prompts []string
	models  []string
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.models = append(f.models, req.Model)
	if n := len(req.Messages); n > 0 {
		f.prompts = append(f.prompts, req.Messages[n-1].Content)
	}
	reply, status, delay := f.reply, f.status, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": reply},
		}},
	})
}

func (f *fakeProvider) last() (prompt, model string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1], f.models[len(f.models)-1]
}

func newTestClient(t *testing.T, f *fakeProvider) Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(config.AIConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL + "/v1",
		Model:     "chat-model",
		RankModel: "rank-model",
		Timeout:   200 * time.Millisecond,
	})
}

func sampleDocs() []*document.Document {
	return []*document.Document{
		{ID: "d1", Title: "Redis runbook", Content: "How to fail over the cache cluster."},
		{ID: "d2", Title: "Onboarding", Content: "Laptop setup and accounts."},
	}
}

func TestNewOpenAIClient_NoKeyIsUnavailable(t *testing.T) {
	c := NewOpenAIClient(config.AIConfig{})
	_, ok := c.(Unavailable)
	require.True(t, ok)

	_, err := c.Summarize(context.Background(), "text")
	require.ErrorIs(t, err, apperrors.ErrUpstream)
	_, err = c.Rank(context.Background(), "q", sampleDocs())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSummarize(t *testing.T) {
	f := &fakeProvider{reply: "  A short summary.\n"}
	c := newTestClient(t, f)
	before := testutil.ToFloat64(metrics.AIRequests.WithLabelValues("summarize", "ok"))

	got, err := c.Summarize(context.Background(), "Long body")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", got)
	prompt, model := f.last()
	assert.Contains(t, prompt, "Long body")
	assert.Equal(t, "chat-model", model)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AIRequests.WithLabelValues("summarize", "ok")))
}

func TestTags(t *testing.T) {
	c := newTestClient(t, &fakeProvider{reply: "#redis, #cache,#ops\n#Redis, #failover, #runbook, #extra"})
	tags, err := c.Tags(context.Background(), "body")
	require.NoError(t, err)
	assert.Equal(t, []string{"redis", "cache", "ops", "failover", "runbook"}, tags)
}

func TestRank_UsesRankModelAndParsesFencedJSON(t *testing.T) {
	reply := "```json\n[{\"documentId\":\"d2\",\"title\":\"Onboarding\",\"relevanceScore\":1.7,\"matchedContent\":\"Laptop\",\"reason\":\"setup\"}]\n```"
	f := &fakeProvider{reply: reply}
	c := newTestClient(t, f)

	got, err := c.Rank(context.Background(), "laptop", sampleDocs())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d2", got[0].DocumentID)
	assert.Equal(t, 1.0, got[0].RelevanceScore)
	prompt, model := f.last()
	assert.Equal(t, "rank-model", model)
	assert.Contains(t, prompt, "ID:d1, Title:Redis runbook")
	assert.Contains(t, prompt, `"laptop"`)
}

func TestRank_Unparseable(t *testing.T) {
	c := newTestClient(t, &fakeProvider{reply: "I think the second document fits best."})
	_, err := c.Rank(context.Background(), "laptop", sampleDocs())
	require.ErrorIs(t, err, ErrUnparseable)
	require.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestAnswer_SendsDocumentContext(t *testing.T) {
	f := &fakeProvider{reply: "Fail over with the runbook."}
	c := newTestClient(t, f)
	got, err := c.Answer(context.Background(), "How do I fail over?", sampleDocs())
	require.NoError(t, err)
	assert.Equal(t, "Fail over with the runbook.", got)
	prompt, _ := f.last()
	assert.Contains(t, prompt, "Question: How do I fail over?")
	assert.Contains(t, prompt, `"title":"Onboarding"`)
}

func TestProviderErrorsAreUpstream(t *testing.T) {
	c := newTestClient(t, &fakeProvider{status: http.StatusInternalServerError})
	_, err := c.Summarize(context.Background(), "x")
	require.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, 500, apperrors.Status(err))
}

func TestTimeout(t *testing.T) {
	before := testutil.ToFloat64(metrics.AIRequests.WithLabelValues("answer", "timeout"))
	c := newTestClient(t, &fakeProvider{reply: "late", delay: 2 * time.Second})

	start := time.Now()
	_, err := c.Answer(context.Background(), "q", sampleDocs())
	require.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AIRequests.WithLabelValues("answer", "timeout")))
}

func TestParseRankings(t *testing.T) {
	got, err := ParseRankings(`Here you go: [{"documentId":"a","relevanceScore":-3}] hope it helps`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0].RelevanceScore)

	_, err = ParseRankings("null")
	require.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseRankings("```\nnot json\n```")
	require.ErrorIs(t, err, ErrUnparseable)
}

func TestPositionalFallback(t *testing.T) {
	docs := make([]*document.Document, 0, 7)
	for i := 0; i < 7; i++ {
		docs = append(docs, &document.Document{ID: string(rune('a' + i)), Title: "T", Content: strings.Repeat("é", 200)})
	}
	got := PositionalFallback(docs)
	require.Len(t, got, 5)
	for i, r := range got {
		assert.Equal(t, docs[i].ID, r.DocumentID)
		assert.InDelta(t, 1.0-float64(i)*0.1, r.RelevanceScore, 1e-9)
		assert.Equal(t, FallbackReason, r.Reason)
		assert.Equal(t, strings.Repeat("é", 150)+"...", r.MatchedContent)
	}
	assert.Empty(t, PositionalFallback(nil))
}

func TestFallbackAnswer(t *testing.T) {
	got := FallbackAnswer("Where is the runbook?", sampleDocs())
	assert.Contains(t, got, `"Redis runbook"`)
	assert.Contains(t, got, `"Onboarding"`)
	assert.Contains(t, got, "Where is the runbook?")
}
