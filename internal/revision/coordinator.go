// Package revision ties document mutations to the version ledger and the
// activity log.
//
// Every update appends the document's PRE-update state to the ledger and
// records an "update" activity. Creation records "create", deletion records
// "delete" before the document is removed. Restoring a version rewrites the
// document from the ledger without producing a version or an activity.
package revision

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/teamkb/teamkb/internal/activity"
	"github.com/teamkb/teamkb/internal/ai"
	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/internal/document/repository"
	"github.com/teamkb/teamkb/internal/models"
	"github.com/teamkb/teamkb/internal/versions"
	"github.com/teamkb/teamkb/pkg/logger"
)

var log = logger.Named("revision")

// Coordinator runs document mutations.
type Coordinator struct {
	docs     repository.Repository
	ledger   *versions.Ledger
	activity *activity.Service
	ai       ai.Client
}

func NewCoordinator(docs repository.Repository, ledger *versions.Ledger, act *activity.Service, aiClient ai.Client) *Coordinator {
	return &Coordinator{docs: docs, ledger: ledger, activity: act, ai: aiClient}
}

// Create persists a new document owned by actor. Summary and tags come from
// the AI collaborator; if either fails nothing is written.
func (c *Coordinator) Create(ctx context.Context, actor models.Identity, title, content string) (*document.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", apperrors.ErrInvalidInput)
	}

	var (
		summary string
		tags    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = c.ai.Summarize(gctx, content)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = c.ai.Tags(gctx, content)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("derive summary and tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}

	d := &document.Document{Title: title, Content: content, Summary: summary, Tags: tags, CreatedBy: actor.ID}
	if err := c.docs.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	if _, err := c.activity.Record(ctx, activity.ActionCreate, d.ID, actor.ID); err != nil {
		return nil, fmt.Errorf("record create of %s: %w", d.ID, err)
	}
	log.Infof("document %s created by %s", d.ID, actor.ID)
	return d, nil
}

// Update applies the fields present in p. The state the document had before
// the update is appended to the ledger ahead of the write, so a failed write
// can leave an extra version but never loses the previous state.
func (c *Coordinator) Update(ctx context.Context, actor models.Identity, id string, p document.Patch) (*document.Document, error) {
	d, err := c.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := d.Snapshot()

	p.Apply(d)
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Content) == "" {
		return nil, fmt.Errorf("%w: title and content cannot be empty", apperrors.ErrInvalidInput)
	}

	v, err := c.ledger.Append(ctx, id, before, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := c.docs.Save(ctx, d); err != nil {
		log.Errorf("version %d of %s written but document save failed: %v", v.VersionNumber, id, err)
		return nil, fmt.Errorf("save document %s: %w", id, err)
	}
	if _, err := c.activity.Record(ctx, activity.ActionUpdate, id, actor.ID); err != nil {
		return nil, fmt.Errorf("record update of %s: %w", id, err)
	}
	return d, nil
}

// Delete removes a document. Only its owner or an admin may delete it. The
// activity is recorded while the document still exists.
func (c *Coordinator) Delete(ctx context.Context, actor models.Identity, id string) error {
	d, err := c.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanDelete(actor, d) {
		return fmt.Errorf("%w: only the owner or an admin can delete this document", apperrors.ErrForbidden)
	}
	if _, err := c.activity.Record(ctx, activity.ActionDelete, id, actor.ID); err != nil {
		return fmt.Errorf("record delete of %s: %w", id, err)
	}
	if err := c.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	log.Infof("document %s deleted by %s", id, actor.ID)
	return nil
}

// Restore overwrites the document's title, content, summary and tags with
// the given version. Identity and owner are kept. No version or activity is
// written for the restore itself.
func (c *Coordinator) Restore(ctx context.Context, actor models.Identity, versionID string) (*document.Document, error) {
	v, err := c.ledger.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	d, err := c.docs.Get(ctx, v.DocumentID)
	if err != nil {
		return nil, err
	}
	d.Restore(v.Snapshot)
	if err := c.docs.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("restore document %s: %w", d.ID, err)
	}
	c.ledger.Invalidate(ctx, d.ID)
	log.Infof("document %s restored to version %d by %s", d.ID, v.VersionNumber, actor.ID)
	return d, nil
}

// CanDelete reports whether actor may delete d.
func CanDelete(actor models.Identity, d *document.Document) bool {
	return actor.IsAdmin() || (actor.ID != "" && d.CreatedBy == actor.ID)
}
