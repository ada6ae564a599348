package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// MongoStorage upserts posts into a MongoDB collection, one document per
// post keyed by its identifier. Re-analyzing a profile refreshes the counts
// of posts already stored.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage creates a new MongoDB storage backend.
func NewMongoStorage(uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storageErr("mongodb", fmt.Errorf("mongodb connect: %w", err))
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr("mongodb", fmt.Errorf("mongodb ping: %w", err))
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(posts []*types.Post) error {
	if len(posts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	models := make([]mongo.WriteModel, len(posts))
	for i, post := range posts {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: post.URN}}).
			SetReplacement(postDocument(post)).
			SetUpsert(true)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return storageErr("mongodb", fmt.Errorf("mongodb upsert: %w", err))
	}

	s.count += len(posts)
	s.logger.Debug("posts stored in mongodb",
		"count", len(posts),
		"inserted", res.UpsertedCount,
		"updated", res.ModifiedCount,
		"total", s.count,
	)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_posts", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return storageErr("mongodb", s.client.Disconnect(ctx))
}

// postDocument renders the populated fields of post in column order. The
// publish time is stored as a BSON date.
func postDocument(post *types.Post) bson.D {
	doc := bson.D{{Key: "_id", Value: post.URN}}
	for _, f := range post.Fields() {
		var val any
		if f == types.FieldTime {
			if post.Time.IsZero() {
				continue
			}
			val = post.Time
		} else {
			val = post.Value(f)
		}
		doc = append(doc, bson.E{Key: f.String(), Value: val})
	}
	return doc
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes posts to multiple backends simultaneously.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

func (s *MultiStorage) Store(posts []*types.Post) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(posts); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
