package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"payment-offers-api/internal/models"
)

// MongoStore persists offers in a MongoDB collection, matching the
// document layout of the upstream partner integration.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB and ensures the unique index on
// adjustmentId. The index is the authoritative guarantee against
// duplicate records under concurrent ingestion.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "adjustmentId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create adjustmentId index: %w", err)
	}

	return &MongoStore{client: client, collection: coll}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// FindByAdjustmentID returns the offer with the given identifier.
func (s *MongoStore) FindByAdjustmentID(ctx context.Context, adjustmentID string) (*models.Offer, error) {
	var offer models.Offer
	err := s.collection.FindOne(ctx, bson.M{"adjustmentId": adjustmentID}).Decode(&offer)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	return &offer, nil
}

// FindEligible returns offers matching the bank/instrument/minimum-order
// constraints. The instrument clause is omitted when instrument is empty.
func (s *MongoStore) FindEligible(ctx context.Context, bank, instrument string, amount float64) ([]models.Offer, error) {
	filter := bson.M{
		"banks":         bank,
		"minOrderValue": bson.M{"$lte": amount},
	}
	if instrument != "" {
		filter["paymentInstruments"] = instrument
	}

	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible offers: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []models.Offer
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}

	return offers, nil
}

// Insert stores a new offer. A duplicate-key error on the adjustmentId
// index maps to ErrDuplicate.
func (s *MongoStore) Insert(ctx context.Context, offer models.Offer) error {
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}

	_, err := s.collection.InsertOne(ctx, offer)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert offer: %w", err)
	}

	return nil
}

// Count returns the total number of stored offers.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return count, nil
}
