package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// sessionEntry is one key of the session stored as a document.
type sessionEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore persists the session in a MongoDB collection.
type MongoStore struct {
	Collection *mongo.Collection
	client     *mongo.Client
}

// NewMongoStore connects to uri and uses the "sessions" collection of dbName.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &MongoStore{
		Collection: client.Database(dbName).Collection("sessions"),
		client:     client,
	}, nil
}

// Get finds the value stored under key.
func (s *MongoStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.Collection == nil {
		return "", false, fmt.Errorf("mongo collection is nil")
	}

	var entry sessionEntry
	err := s.Collection.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

// Put upserts the value stored under key.
func (s *MongoStore) Put(ctx context.Context, key, value string) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}

	entry := sessionEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	_, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": key}, entry, options.Replace().SetUpsert(true))
	return err
}

// Delete removes key. Missing keys are not an error.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}

	_, err := s.Collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects the client opened by NewMongoStore.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
