package repository

import (
	"context"
	"errors"

	"signature-gateway/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	// Create creates a new client
	Create(ctx context.Context, client *model.Client) error

	// GetByID retrieves a client by ID
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Client, error)

	// GetByClientID retrieves a client by its signing client id
	GetByClientID(ctx context.Context, clientID string) (*model.Client, error)

	// UpdateStatus enables or disables a client
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status int) error

	// List retrieves all clients with pagination
	List(ctx context.Context, offset, limit int) ([]*model.Client, error)

	// CountByStatus returns the number of clients per status
	CountByStatus(ctx context.Context) (map[int]int64, error)

	// Delete deletes a client by ID
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// VerificationLogRepository defines the interface for verification log operations
type VerificationLogRepository interface {
	// Create creates a new verification log entry
	Create(ctx context.Context, log *model.VerificationLog) error

	// GetByClientID retrieves verification logs for a specific client id
	GetByClientID(ctx context.Context, clientID string, offset, limit int) ([]*model.VerificationLog, error)

	// CountByOutcome returns the number of accepted and rejected verifications
	CountByOutcome(ctx context.Context) (accepted, rejected int64, err error)
}
