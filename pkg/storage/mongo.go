package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// CollectionSnapshots is the MongoDB collection holding snapshots.
const CollectionSnapshots = "snapshots"

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// MongoStore persists snapshots in MongoDB.
type MongoStore struct {
	client *mongo.Client // nil when built from a collection
	coll   *mongo.Collection
}

type snapshotDoc struct {
	ID       string         `bson:"_id"`
	Registry string         `bson:"registry"`
	Package  string         `bson:"package"`
	Period   string         `bson:"period"`
	TakenAt  time.Time      `bson:"taken_at"`
	Total    int64          `bson:"total"`
	Analysis trend.Analysis `bson:"analysis"`
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures the
// history index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(CollectionSnapshots),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close does not
// disconnect the collection's client.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "registry", Value: 1},
			{Key: "package", Value: 1},
			{Key: "taken_at", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, snap *Snapshot) error {
	prepare(snap)
	doc := snapshotDoc{
		ID:       snap.ID.String(),
		Registry: snap.Registry,
		Package:  snap.Package,
		Period:   string(snap.Period),
		TakenAt:  snap.TakenAt,
		Total:    snap.Total,
		Analysis: snap.Analysis,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) History(ctx context.Context, registry, pkg string, limit int) ([]Snapshot, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "taken_at", Value: -1}}).
		SetLimit(int64(historyLimit(limit)))

	cur, err := s.coll.Find(ctx, bson.M{"registry": registry, "package": pkg}, opts)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	var docs []snapshotDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	out := make([]Snapshot, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", d.ID, err)
		}
		out = append(out, Snapshot{
			ID:       id,
			Registry: d.Registry,
			Package:  d.Package,
			Period:   downloads.Period(d.Period),
			TakenAt:  d.TakenAt.UTC(),
			Total:    d.Total,
			Analysis: d.Analysis,
		})
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
