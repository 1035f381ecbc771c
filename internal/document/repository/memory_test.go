package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/document"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := &document.Document{Title: "Spec", Content: "hello", CreatedBy: "u1"}
	require.NoError(t, r.Create(ctx, d))
	require.NotEmpty(t, d.ID)
	require.False(t, d.CreatedAt.IsZero())
	require.Equal(t, []string{}, d.Tags)

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got.Content = "new"
	got.CreatedBy = "someone-else"
	require.NoError(t, r.Save(ctx, got))
	require.Equal(t, "u1", got.CreatedBy, "owner is never rewritten")

	got2, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "new", got2.Content)
	require.Equal(t, "u1", got2.CreatedBy)

	require.NoError(t, r.Delete(ctx, d.ID))
	_, err = r.Get(ctx, d.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
	require.True(t, errors.Is(r.Delete(ctx, d.ID), apperrors.ErrNotFound))
	require.True(t, errors.Is(r.Save(ctx, got), apperrors.ErrNotFound))
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := &document.Document{Title: "a", Content: "b", Tags: []string{"x"}}
	require.NoError(t, r.Create(ctx, d))

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Tags[0] = "mutated"

	again, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "a", again.Title)
	require.Equal(t, []string{"x"}, again.Tags)
}

func TestMemoryRepoSearch(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	require.NoError(t, r.Create(ctx, &document.Document{Title: "Onboarding Guide", Content: "Welcome aboard"}))
	require.NoError(t, r.Create(ctx, &document.Document{Title: "Deploy", Content: "Run the GUIDE script (v1.2)"}))
	require.NoError(t, r.Create(ctx, &document.Document{Title: "Other", Content: "nothing here"}))

	docs, err := r.Search(ctx, "guide")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	docs, err = r.Search(ctx, "(v1.2)")
	require.NoError(t, err)
	require.Len(t, docs, 1, "query is matched literally")
	require.Equal(t, "Deploy", docs[0].Title)

	docs, err = r.Search(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	first := &document.Document{Title: "first", Content: "1"}
	second := &document.Document{Title: "second", Content: "2"}
	require.NoError(t, r.Create(ctx, first))
	require.NoError(t, r.Create(ctx, second))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"second", "first"}, []string{list[0].Title, list[1].Title})
}
