package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/internal/models"
	"github.com/teamkb/teamkb/pkg/logger"
	"github.com/teamkb/teamkb/pkg/metrics"
)

// DefaultLimit applies to the team feed and recent edits when no limit is given.
const DefaultLimit = 5

var log = logger.Named("activity")

// DocumentLookup resolves document references.
type DocumentLookup interface {
	Get(ctx context.Context, id string) (*document.Document, error)
}

// UserLookup resolves user references.
type UserLookup interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// Service records and reads the activity log.
type Service struct {
	repo  Repository
	docs  DocumentLookup
	users UserLookup
	now   func() time.Time
}

func NewService(repo Repository, docs DocumentLookup, users UserLookup) *Service {
	return &Service{repo: repo, docs: docs, users: users, now: func() time.Time { return time.Now().UTC() }}
}

// Record appends an activity. Only storage failures and unknown actions fail.
func (s *Service) Record(ctx context.Context, action Action, documentID, userID string) (*Activity, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown activity action %q", apperrors.ErrInvalidInput, action)
	}
	a := &Activity{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Action:    action,
		Document:  documentID,
		User:      userID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, err
	}
	metrics.ActivitiesRecorded.WithLabelValues(string(action)).Inc()
	return a, nil
}

// TeamFeed returns the newest activities of the whole team.
func (s *Service) TeamFeed(ctx context.Context, limit int) ([]*View, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.views(ctx, Query{Limit: limit})
}

func (s *Service) ForUser(ctx context.Context, userID string) ([]*View, error) {
	return s.views(ctx, Query{UserID: userID})
}

func (s *Service) ForDocument(ctx context.Context, documentID string) ([]*View, error) {
	return s.views(ctx, Query{DocumentID: documentID})
}

// RecentlyEdited scans the newest limit update activities and returns the
// distinct documents they touch, each annotated with its latest edit. The scan
// is capped at limit activities, so fewer than limit documents may come back.
// Documents that no longer exist are skipped.
func (s *Service) RecentlyEdited(ctx context.Context, limit int) ([]*EditedDocument, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	list, err := s.repo.Find(ctx, Query{Action: ActionUpdate, Limit: limit})
	if err != nil {
		return nil, err
	}
	r := s.resolver(ctx)
	seen := map[string]bool{}
	out := []*EditedDocument{}
	for _, a := range list {
		if seen[a.Document] {
			continue
		}
		seen[a.Document] = true
		d, err := r.document(a.Document)
		if err != nil {
			return nil, err
		}
		if d == nil {
			continue
		}
		ref, err := r.user(a.User)
		if err != nil {
			return nil, err
		}
		out = append(out, &EditedDocument{Document: d, LastEditedBy: ref, LastEditedAt: a.CreatedAt})
	}
	return out, nil
}

func (s *Service) views(ctx context.Context, q Query) ([]*View, error) {
	list, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	r := s.resolver(ctx)
	out := make([]*View, 0, len(list))
	for _, a := range list {
		v := &View{ID: a.ID, Action: a.Action, DocumentID: a.Document, CreatedAt: a.CreatedAt}
		d, err := r.document(a.Document)
		if err != nil {
			return nil, err
		}
		if d != nil {
			v.Document = &models.DocumentRef{ID: d.ID, Title: d.Title}
		}
		if v.User, err = r.user(a.User); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// resolver memoises lookups for one read; a missing reference resolves to nil.
type resolver struct {
	ctx   context.Context
	s     *Service
	docs  map[string]*document.Document
	users map[string]*models.UserRef
}

func (s *Service) resolver(ctx context.Context) *resolver {
	return &resolver{ctx: ctx, s: s, docs: map[string]*document.Document{}, users: map[string]*models.UserRef{}}
}

func (r *resolver) document(id string) (*document.Document, error) {
	if id == "" || r.s.docs == nil {
		return nil, nil
	}
	if d, ok := r.docs[id]; ok {
		return d, nil
	}
	d, err := r.s.docs.Get(r.ctx, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("resolve document %s: %w", id, err)
		}
		d = nil
	}
	r.docs[id] = d
	return d, nil
}

func (r *resolver) user(id string) (*models.UserRef, error) {
	if id == "" || r.s.users == nil {
		return nil, nil
	}
	if ref, ok := r.users[id]; ok {
		return ref, nil
	}
	u, err := r.s.users.Get(r.ctx, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("resolve user %s: %w", id, err)
		}
		log.Debugf("activity references missing user %s", id)
		u = nil
	}
	r.users[id] = u.Ref()
	return r.users[id], nil
}
