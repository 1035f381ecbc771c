package versions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/teamkb/teamkb/internal/apperrors"
)

var (
	ErrNotFound = fmt.Errorf("version %w", apperrors.ErrNotFound)
	// ErrConflict is returned by Insert when the (documentId, versionNumber)
	// pair is already taken.
	ErrConflict = errors.New("version number already assigned")
)

// Repository persists ledger entries. Entries are never updated in place.
type Repository interface {
	// LatestNumber returns the highest version number of documentID, 0 if none.
	LatestNumber(ctx context.Context, documentID string) (int, error)
	Insert(ctx context.Context, v *Version) error
	// ListByDocument returns entries newest version first.
	ListByDocument(ctx context.Context, documentID string) ([]*Version, error)
	Get(ctx context.Context, id string) (*Version, error)
}

// MemoryRepo keeps the ledger in process memory.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]*Version
	byDoc map[string][]*Version
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]*Version{}, byDoc: map[string][]*Version{}}
}

func (m *MemoryRepo) LatestNumber(_ context.Context, documentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	max := 0
	for _, v := range m.byDoc[documentID] {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max, nil
}

func (m *MemoryRepo) Insert(_ context.Context, v *Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byDoc[v.DocumentID] {
		if existing.VersionNumber == v.VersionNumber {
			return ErrConflict
		}
	}
	c := clone(v)
	m.byID[c.ID] = c
	m.byDoc[c.DocumentID] = append(m.byDoc[c.DocumentID], c)
	return nil
}

func (m *MemoryRepo) ListByDocument(_ context.Context, documentID string) ([]*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.byDoc[documentID]
	out := make([]*Version, 0, len(src))
	for _, v := range src {
		out = append(out, clone(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func clone(v *Version) *Version {
	c := *v
	c.Tags = append([]string(nil), v.Tags...)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}

var (
	_ Repository = (*MemoryRepo)(nil)
	_ Repository = (*MongoRepo)(nil)
)
