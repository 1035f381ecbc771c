package repository

import (
	"context"
	"fmt"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/document"
)

var (
	ErrNotFound = fmt.Errorf("document %w", apperrors.ErrNotFound)
)

// Repository is the Document Store. Implementations return copies, so callers
// may mutate what they receive without affecting stored state.
type Repository interface {
	// Create assigns ID and timestamps when unset and persists d.
	Create(ctx context.Context, d *document.Document) error
	Get(ctx context.Context, id string) (*document.Document, error)
	// List returns every document, newest first.
	List(ctx context.Context) ([]*document.Document, error)
	// Search is a case-insensitive literal substring match on title or content.
	Search(ctx context.Context, query string) ([]*document.Document, error)
	// Save persists the versioned fields of d and bumps UpdatedAt.
	// Owner and creation time are never written.
	Save(ctx context.Context, d *document.Document) error
	Delete(ctx context.Context, id string) error
}

var (
	_ Repository = (*MemoryRepo)(nil)
	_ Repository = (*MongoRepo)(nil)
)
