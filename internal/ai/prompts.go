package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teamkb/teamkb/internal/document"
)

const (
	maxTags = 5
	// characters of content sent per document
	rankExcerpt   = 500
	answerExcerpt = 2000
)

func summaryPrompt(text string) string {
	return "Summarize the following document in 3-4 sentences:\n\n" + text
}

func tagsPrompt(text string) string {
	return "Generate 5 short tags for this document. Reply with the tags only, comma separated, " +
		"each prefixed with the # symbol.\n\n" + text
}

func rankPrompt(query string, docs []*document.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a semantic search engine. Given this query: %q, analyze the following documents "+
		"and return a JSON array of the top 5 most relevant documents.\n\n", query)
	b.WriteString("For each document provide: documentId (the document ID), title, relevanceScore (0.0 to 1.0), " +
		"matchedContent (a brief snippet of the most relevant content) and reason (why it is relevant).\n\n")
	b.WriteString("Documents to analyze:\n")
	for _, d := range docs {
		fmt.Fprintf(&b, "ID:%s, Title:%s, Content:%s...\n\n", d.ID, d.Title, excerpt(d.Content, rankExcerpt))
	}
	b.WriteString(`Return ONLY a valid JSON array like this:
[{"documentId":"id_here","title":"Document Title","relevanceScore":0.95,"matchedContent":"Relevant content snippet...","reason":"Why this document is relevant"}]`)
	return b.String()
}

type answerContext struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Content string   `json:"content"`
}

func answerPrompt(question string, docs []*document.Document) string {
	ctxDocs := make([]answerContext, 0, len(docs))
	for _, d := range docs {
		ctxDocs = append(ctxDocs, answerContext{
			ID: d.ID, Title: d.Title, Summary: d.Summary, Tags: d.Tags,
			Content: excerpt(d.Content, answerExcerpt),
		})
	}
	b, _ := json.Marshal(ctxDocs)
	return "Answer the following question using only the context from these documents:\n" +
		string(b) + "\n\nQuestion: " + question
}

// ParseTags turns a model reply like "#go, #redis\n#cache" into at most five
// distinct tags without the leading '#'.
func ParseTags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	seen := map[string]bool{}
	tags := []string{}
	for _, f := range fields {
		t := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(f), "#*- "))
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

// ParseRankings decodes a ranking reply, tolerating markdown code fences and
// prose around the array. Scores are clamped to [0, 1].
func ParseRankings(raw string) ([]Ranking, error) {
	s := stripFences(raw)
	if i, j := strings.Index(s, "["), strings.LastIndex(s, "]"); i >= 0 && j > i {
		s = s[i : j+1]
	}
	var out []Ranking
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, errors.New("null ranking"))
	}
	for i := range out {
		out[i].RelevanceScore = ClampScore(out[i].RelevanceScore)
	}
	return out, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// excerpt returns the first n runes of s.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
