package versions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/internal/models"
	"github.com/teamkb/teamkb/pkg/logger"
	"github.com/teamkb/teamkb/pkg/metrics"
)

// maxAppendAttempts bounds the retries of a lost "max + 1" race.
const maxAppendAttempts = 8

// listTimeout bounds a history read shared between callers.
const listTimeout = 10 * time.Second

var log = logger.Named("versions")

// UserLookup resolves editors for display.
type UserLookup interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// Ledger is the append-only version history of documents.
type Ledger struct {
	repo  Repository
	cache HistoryCache
	users UserLookup
	now   func() time.Time
	group singleflight.Group
}

// NewLedger wires a ledger. cache may be nil (no caching); users may be nil
// (editors are not resolved).
func NewLedger(repo Repository, cache HistoryCache, users UserLookup) *Ledger {
	if cache == nil {
		cache = NopCache{}
	}
	return &Ledger{repo: repo, cache: cache, users: users, now: func() time.Time { return time.Now().UTC() }}
}

// Append records snap as the next version of documentID. The caller must pass
// the state the document had BEFORE the update being recorded; the ledger
// trusts that documentID exists.
func (l *Ledger) Append(ctx context.Context, documentID string, snap document.Snapshot, editedBy string) (*Version, error) {
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		latest, err := l.repo.LatestNumber(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("append version: %w", err)
		}
		v := &Version{
			ID:            uuid.NewString(),
			DocumentID:    documentID,
			VersionNumber: latest + 1,
			Snapshot:      snap,
			EditedBy:      editedBy,
			CreatedAt:     l.now(),
		}
		if v.Tags == nil {
			v.Tags = []string{}
		}
		err = l.repo.Insert(ctx, v)
		if err == nil {
			metrics.VersionsAppended.Inc()
			l.Invalidate(ctx, documentID)
			return v, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("append version: %w", err)
		}
		metrics.VersionConflicts.Inc()
		log.Debugf("version %d of %s already taken, retrying (attempt %d)", v.VersionNumber, documentID, attempt)
	}
	return nil, fmt.Errorf("append version of %s after %d attempts: %w", documentID, maxAppendAttempts, ErrConflict)
}

// List returns the versions of documentID, highest number first. It never
// fails for an unknown document; the result is simply empty.
func (l *Ledger) List(ctx context.Context, documentID string) ([]*Version, error) {
	list, ok, err := l.cache.Get(ctx, documentID)
	switch {
	case err != nil:
		metrics.HistoryCacheRequests.WithLabelValues("error").Inc()
		log.Warnf("history cache read for %s failed: %v", documentID, err)
	case ok:
		metrics.HistoryCacheRequests.WithLabelValues("hit").Inc()
		return list, nil
	default:
		metrics.HistoryCacheRequests.WithLabelValues("miss").Inc()
	}

	ch := l.group.DoChan(documentID, func() (interface{}, error) {
		// shared by every caller that joins; one caller leaving must not cancel it
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()
		return l.load(qctx, documentID)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list versions of %s: %w", documentID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("list versions of %s: %w", documentID, res.Err)
		}
		return res.Val.([]*Version), nil
	}
}

// load reads the history from the store and caches it under the generation
// observed before the read.
func (l *Ledger) load(ctx context.Context, documentID string) ([]*Version, error) {
	gen, genErr := l.cache.Generation(ctx, documentID)
	if genErr != nil {
		log.Warnf("history cache generation for %s unavailable: %v", documentID, genErr)
	}
	list, err := l.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return list, nil
	}
	stored, err := l.cache.Set(ctx, documentID, gen, list)
	switch {
	case err != nil:
		log.Warnf("history cache write for %s failed: %v", documentID, err)
	case !stored:
		log.Debugf("history of %s changed during read, not caching", documentID)
	}
	return list, nil
}

// Get returns a single ledger entry or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, versionID string) (*Version, error) {
	return l.repo.Get(ctx, versionID)
}

// History is List with editors resolved.
func (l *Ledger) History(ctx context.Context, documentID string) ([]*VersionView, error) {
	list, err := l.List(ctx, documentID)
	if err != nil {
		return nil, err
	}
	resolve := l.editorResolver(ctx)
	out := make([]*VersionView, 0, len(list))
	for _, v := range list {
		out = append(out, &VersionView{Version: v, EditedBy: resolve(v.EditedBy)})
	}
	return out, nil
}

// View returns one entry with its editor resolved.
func (l *Ledger) View(ctx context.Context, versionID string) (*VersionView, error) {
	v, err := l.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return &VersionView{Version: v, EditedBy: l.editorResolver(ctx)(v.EditedBy)}, nil
}

// Invalidate drops the cached history of documentID and detaches any read in
// flight, so later callers query the store again. Failures are logged only;
// the cache entry expires on its own.
func (l *Ledger) Invalidate(ctx context.Context, documentID string) {
	if err := l.cache.Invalidate(ctx, documentID); err != nil {
		log.Warnf("history cache invalidation for %s failed: %v", documentID, err)
	}
	l.group.Forget(documentID)
}

func (l *Ledger) editorResolver(ctx context.Context) func(id string) *models.UserRef {
	seen := map[string]*models.UserRef{}
	return func(id string) *models.UserRef {
		if l.users == nil || id == "" {
			return nil
		}
		if ref, ok := seen[id]; ok {
			return ref
		}
		u, err := l.users.Get(ctx, id)
		if err != nil {
			u = nil
		}
		seen[id] = u.Ref()
		return seen[id]
	}
}
