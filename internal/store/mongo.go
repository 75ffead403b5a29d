package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// MongoStore backs the load/clear commands and the enrichment passes.
type MongoStore struct {
	client   *mongo.Client
	products *mongo.Collection
	reviews  *mongo.Collection
	logger   *slog.Logger
}

// NewMongoStore connects and pings the deployment.
func NewMongoStore(cfg config.MongoConfig, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	db := client.Database(cfg.Database)
	return &MongoStore{
		client:   client,
		products: db.Collection(cfg.ProductsCollection),
		reviews:  db.Collection(cfg.ReviewsCollection),
		logger:   logger.With("component", "mongo_store"),
	}, nil
}

// ReplaceProducts clears the products collection and bulk-inserts the
// cleaned products, then ensures indexes.
func (s *MongoStore) ReplaceProducts(ctx context.Context, products []types.CleanedProduct) (int, error) {
	if _, err := s.products.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("clear products: %w", err)}
	}
	if len(products) == 0 {
		return 0, nil
	}

	docs := make([]any, len(products))
	for i, p := range products {
		docs[i] = p
	}
	res, err := s.products.InsertMany(ctx, docs)
	if err != nil {
		return 0, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("insert products: %w", err)}
	}
	s.logger.Info("products loaded", "count", len(res.InsertedIDs))
	return len(res.InsertedIDs), nil
}

// ReplaceReviews clears the reviews collection and bulk-inserts.
func (s *MongoStore) ReplaceReviews(ctx context.Context, reviews []types.Review) (int, error) {
	if _, err := s.reviews.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("clear reviews: %w", err)}
	}
	if len(reviews) == 0 {
		return 0, nil
	}

	docs := make([]any, len(reviews))
	for i, r := range reviews {
		docs[i] = r
	}
	res, err := s.reviews.InsertMany(ctx, docs)
	if err != nil {
		return 0, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("insert reviews: %w", err)}
	}
	s.logger.Info("reviews loaded", "count", len(res.InsertedIDs))
	return len(res.InsertedIDs), nil
}

// EnsureIndexes creates the access-path indexes: unique product_id on
// products, and product_url/reviewer lookups on reviews.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("products index: %w", err)}
	}

	_, err = s.reviews.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_url", Value: 1}}},
		{Keys: bson.D{{Key: "reviewer", Value: 1}}},
	})
	if err != nil {
		return &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("reviews indexes: %w", err)}
	}

	s.logger.Info("indexes ensured")
	return nil
}

// Counts returns document counts for the run-end report.
func (s *MongoStore) Counts(ctx context.Context) (products, reviews int64, err error) {
	products, err = s.products.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, 0, &types.StoreError{Backend: "mongodb", Err: err}
	}
	reviews, err = s.reviews.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, 0, &types.StoreError{Backend: "mongodb", Err: err}
	}
	return products, reviews, nil
}

// Clear drops both collections.
func (s *MongoStore) Clear(ctx context.Context) error {
	if err := s.products.Drop(ctx); err != nil {
		return &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("drop products: %w", err)}
	}
	if err := s.reviews.Drop(ctx); err != nil {
		return &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("drop reviews: %w", err)}
	}
	s.logger.Info("collections dropped")
	return nil
}

// UnenrichedReviews returns reviews that are missing the given
// enrichment field, for skip-processed batch passes.
func (s *MongoStore) UnenrichedReviews(ctx context.Context, missingField string) ([]types.Review, error) {
	filter := bson.M{missingField: bson.M{"$exists": false}}
	cur, err := s.reviews.Find(ctx, filter)
	if err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: err}
	}
	defer cur.Close(ctx)

	var reviews []types.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: err}
	}
	return reviews, nil
}

// AllReviews returns the full review collection.
func (s *MongoStore) AllReviews(ctx context.Context) ([]types.Review, error) {
	cur, err := s.reviews.Find(ctx, bson.D{})
	if err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: err}
	}
	defer cur.Close(ctx)

	var reviews []types.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: err}
	}
	return reviews, nil
}

// UpdateReviewFields applies a $set of derived fields to one review,
// addressed by its (product_url, review_id) identity. The additive-
// update contract: enrichment only ever adds fields, the core
// extraction fields are never part of the update document.
func (s *MongoStore) UpdateReviewFields(ctx context.Context, productURL, reviewID string, fields bson.M) error {
	res, err := s.reviews.UpdateOne(ctx,
		bson.M{"product_url": productURL, "review_id": reviewID},
		bson.M{"$set": fields},
	)
	if err != nil {
		return &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("update review %s: %w", reviewID, err)}
	}
	if res.MatchedCount == 0 {
		return &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("review %s not found", reviewID)}
	}
	return nil
}

// Close disconnects from the deployment.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
