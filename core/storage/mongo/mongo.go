// Package mongo persists timeline snapshots in a MongoDB collection,
// one document per session keyed by the timeline id.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/TitzMcgie/Metavern/core/timeline"
)

const (
	defaultDatabase   = "metavern"
	defaultCollection = "sessions"

	connectTimeout = 10 * time.Second
)

type Store struct {
	client     *mongo.Client
	database   string
	collection string
}

type Option func(*Store)

func WithDatabase(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.database = name
		}
	}
}

func WithCollection(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.collection = name
		}
	}
}

// Connect dials the MongoDB deployment at uri and verifies the
// connection with a ping before returning the store.
func Connect(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongodb uri is required")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	store := &Store{
		client:     client,
		database:   defaultDatabase,
		collection: defaultCollection,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

func (s *Store) sessions() *mongo.Collection {
	return s.client.Database(s.database).Collection(s.collection)
}

// Save upserts the snapshot, replacing any previously stored document
// with the same session id.
func (s *Store) Save(ctx context.Context, history timeline.History) error {
	_, err := s.sessions().ReplaceOne(ctx,
		bson.M{"_id": history.ID}, history,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (timeline.History, error) {
	history := timeline.History{}
	err := s.sessions().FindOne(ctx, bson.M{"_id": id}).Decode(&history)
	if err != nil {
		return timeline.History{}, fmt.Errorf("load session: %w", err)
	}
	return history, nil
}

// List returns the ids of every stored session.
func (s *Store) List(ctx context.Context) ([]string, error) {
	cursor, err := s.sessions().Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	ids := []string{}
	for cursor.Next(ctx) {
		doc := struct {
			ID string `bson:"_id"`
		}{}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode session id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return ids, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect from mongodb: %w", err)
	}
	return nil
}
