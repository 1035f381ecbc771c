package activity

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Query selects activities. Zero fields do not filter; Limit <= 0 is unlimited.
// Results are always newest first.
type Query struct {
	Action     Action
	UserID     string
	DocumentID string
	Limit      int
}

func (q Query) match(a *Activity) bool {
	return (q.Action == "" || a.Action == q.Action) &&
		(q.UserID == "" || a.User == q.UserID) &&
		(q.DocumentID == "" || a.Document == q.DocumentID)
}

// Repository is the append-only activity store.
type Repository interface {
	Insert(ctx context.Context, a *Activity) error
	Find(ctx context.Context, q Query) ([]*Activity, error)
}

type memoryEntry struct {
	seq int
	a   Activity
}

// MemoryRepo keeps activities in process memory.
type MemoryRepo struct {
	mu      sync.RWMutex
	entries []memoryEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (m *MemoryRepo) Insert(_ context.Context, a *Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, memoryEntry{seq: len(m.entries), a: *a})
	return nil
}

func (m *MemoryRepo) Find(_ context.Context, q Query) ([]*Activity, error) {
	m.mu.RLock()
	matched := make([]memoryEntry, 0)
	for _, e := range m.entries {
		if q.match(&e.a) {
			matched = append(matched, e)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].a.CreatedAt.Equal(matched[j].a.CreatedAt) {
			return matched[i].a.CreatedAt.After(matched[j].a.CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	out := make([]*Activity, len(matched))
	for i := range matched {
		a := matched[i].a
		out[i] = &a
	}
	return out, nil
}

// MongoRepo stores activities in the activities collection. Ids are UUIDv7 so
// the _id tie-break follows insertion order.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "document", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := m.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("activities indexes: %w", err)
	}
	return nil
}

func (m *MongoRepo) Insert(ctx context.Context, a *Activity) error {
	if _, err := m.col.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (m *MongoRepo) Find(ctx context.Context, q Query) ([]*Activity, error) {
	filter := bson.M{}
	if q.Action != "" {
		filter["action"] = q.Action
	}
	if q.UserID != "" {
		filter["user"] = q.UserID
	}
	if q.DocumentID != "" {
		filter["document"] = q.DocumentID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find activities: %w", err)
	}
	defer cur.Close(ctx)
	out := []*Activity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	return out, nil
}

var (
	_ Repository = (*MemoryRepo)(nil)
	_ Repository = (*MongoRepo)(nil)
)
