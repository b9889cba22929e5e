package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AnTengye/formrelay/config"
	"github.com/AnTengye/formrelay/model"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLeadStore writes leads to a MongoDB collection.
type MongoLeadStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoLeadStore(ctx context.Context, cfg *config.MongoConfig) (*MongoLeadStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoLeadStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// EnsureIndexes creates the lookup indexes used by lead reporting.
func (s *MongoLeadStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "lead_type", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create lead indexes: %w", err)
	}
	return nil
}

func (s *MongoLeadStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	if _, err := s.collection.InsertOne(ctx, lead); err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// CountByType returns how many leads of a type have been logged.
func (s *MongoLeadStore) CountByType(ctx context.Context, leadType string) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{"lead_type": leadType})
}

func (s *MongoLeadStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
