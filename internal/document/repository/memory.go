package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamkb/teamkb/internal/document"
)

// MemoryRepo is an in-memory Document Store used in development and unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document), now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the timestamp source, for tests that need a stable order.
func (m *MemoryRepo) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryRepo) Create(_ context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	d.CreatedAt = m.now()
	d.UpdatedAt = d.CreatedAt
	m.store[d.ID] = d.Clone()
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(*document.Document) bool { return true }), nil
}

func (m *MemoryRepo) Search(_ context.Context, query string) ([]*document.Document, error) {
	q := strings.ToLower(query)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(d *document.Document) bool {
		return strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Content), q)
	}), nil
}

// collect returns matching clones, newest first. Caller holds the lock.
func (m *MemoryRepo) collect(match func(*document.Document) bool) []*document.Document {
	out := make([]*document.Document, 0, len(m.store))
	for _, d := range m.store {
		if match(d) {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryRepo) Save(_ context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[d.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Restore(d.Snapshot())
	cur.UpdatedAt = m.now()
	d.UpdatedAt = cur.UpdatedAt
	d.CreatedBy = cur.CreatedBy
	d.CreatedAt = cur.CreatedAt
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
