package versions

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores ledger entries in the document_versions collection.
// A unique index on (documentId, versionNumber) turns a lost race on
// "max + 1" into a duplicate-key error that the Ledger retries.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes must run before the ledger accepts writes.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "documentId", Value: 1}, {Key: "versionNumber", Value: -1}},
		Options: options.Index().SetUnique(true).SetName("documentId_versionNumber_unique"),
	}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("versions index: %w", err)
	}
	return nil
}

func (m *MongoRepo) LatestNumber(ctx context.Context, documentID string) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "versionNumber", Value: -1}}).
		SetProjection(bson.M{"versionNumber": 1})
	var latest struct {
		VersionNumber int `bson:"versionNumber"`
	}
	err := m.col.FindOne(ctx, bson.M{"documentId": documentID}, opts).Decode(&latest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("latest version of %s: %w", documentID, err)
	}
	return latest.VersionNumber, nil
}

func (m *MongoRepo) Insert(ctx context.Context, v *Version) error {
	if _, err := m.col.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func (m *MongoRepo) ListByDocument(ctx context.Context, documentID string) ([]*Version, error) {
	opts := options.Find().SetSort(bson.D{{Key: "versionNumber", Value: -1}})
	cur, err := m.col.Find(ctx, bson.M{"documentId": documentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find versions of %s: %w", documentID, err)
	}
	defer cur.Close(ctx)
	out := []*Version{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode versions of %s: %w", documentID, err)
	}
	return out, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*Version, error) {
	var v Version
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find version %s: %w", id, err)
	}
	return &v, nil
}
