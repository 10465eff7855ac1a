package repository

import (
	"context"
	"fmt"
	"time"

	"signature-gateway/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VerificationLogMongoRepository implements VerificationLogRepository using MongoDB
type VerificationLogMongoRepository struct {
	collection *mongo.Collection
}

// NewVerificationLogMongoRepository creates a new MongoDB verification log repository
func NewVerificationLogMongoRepository(collection *mongo.Collection) VerificationLogRepository {
	return &VerificationLogMongoRepository{
		collection: collection,
	}
}

// EnsureVerificationLogIndexes 按 client_id + created_at 查询日志
func EnsureVerificationLogIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create verification log indexes: %w", err)
	}
	return nil
}

// Create creates a new verification log entry
func (r *VerificationLogMongoRepository) Create(ctx context.Context, log *model.VerificationLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to create verification log: %w", err)
	}

	return nil
}

// GetByClientID retrieves verification logs for a specific client id, newest first
func (r *VerificationLogMongoRepository) GetByClientID(ctx context.Context, clientID string, offset, limit int) ([]*model.VerificationLog, error) {
	opts := options.Find()
	opts.SetSkip(int64(offset))
	opts.SetLimit(int64(limit))
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get verification logs by client ID: %w", err)
	}
	defer cursor.Close(ctx)

	logs := make([]*model.VerificationLog, 0, limit)
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode verification logs: %w", err)
	}

	return logs, nil
}

// CountByOutcome returns the number of accepted and rejected verifications
func (r *VerificationLogMongoRepository) CountByOutcome(ctx context.Context) (int64, int64, error) {
	accepted, err := r.collection.CountDocuments(ctx, bson.M{"verified": true})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count accepted verifications: %w", err)
	}
	rejected, err := r.collection.CountDocuments(ctx, bson.M{"verified": false})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count rejected verifications: %w", err)
	}
	return accepted, rejected, nil
}
