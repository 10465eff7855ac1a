package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signature-gateway/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClientMongoRepository implements ClientRepository using MongoDB
type ClientMongoRepository struct {
	collection *mongo.Collection
}

// NewClientMongoRepository creates a new MongoDB client repository
func NewClientMongoRepository(collection *mongo.Collection) ClientRepository {
	return &ClientMongoRepository{
		collection: collection,
	}
}

// EnsureClientIndexes client_id 唯一索引
func EnsureClientIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "client_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_client_id"),
	})
	if err != nil {
		return fmt.Errorf("failed to create client indexes: %w", err)
	}
	return nil
}

// Create creates a new client
func (r *ClientMongoRepository) Create(ctx context.Context, client *model.Client) error {
	if client.ID.IsZero() {
		client.ID = primitive.NewObjectID()
	}

	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt

	_, err := r.collection.InsertOne(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetByID retrieves a client by ID
func (r *ClientMongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Client, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByClientID retrieves a client by its signing client id
func (r *ClientMongoRepository) GetByClientID(ctx context.Context, clientID string) (*model.Client, error) {
	return r.findOne(ctx, bson.M{"client_id": clientID})
}

func (r *ClientMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Client, error) {
	var client model.Client

	err := r.collection.FindOne(ctx, filter).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("client %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return &client, nil
}

// UpdateStatus enables or disables a client
func (r *ClientMongoRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status int) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update client status: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("client %w", ErrNotFound)
	}

	return nil
}

// List retrieves all clients with pagination
func (r *ClientMongoRepository) List(ctx context.Context, offset, limit int) ([]*model.Client, error) {
	opts := options.Find()
	opts.SetSkip(int64(offset))
	opts.SetLimit(int64(limit))
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer cursor.Close(ctx)

	var clients []*model.Client
	for cursor.Next(ctx) {
		var client model.Client
		if err := cursor.Decode(&client); err != nil {
			return nil, fmt.Errorf("failed to decode client: %w", err)
		}
		clients = append(clients, &client)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return clients, nil
}

// CountByStatus 按状态聚合客户数量
func (r *ClientMongoRepository) CountByStatus(ctx context.Context) (map[int]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status int   `bson:"_id"`
		Count  int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode client counts: %w", err)
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Delete deletes a client by ID
func (r *ClientMongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("client %w", ErrNotFound)
	}

	return nil
}
