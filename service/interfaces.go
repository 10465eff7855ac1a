package service

import (
	"context"

	"signature-gateway/model"
	"signature-gateway/pkg/signature"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientServiceInterface defines the interface for client service operations
type ClientServiceInterface interface {
	CreateClient(ctx context.Context, name, version, algorithm string) (*model.Client, error)
	GetClientByClientID(ctx context.Context, clientID string) (*model.Client, error)
	GetClientByID(ctx context.Context, id primitive.ObjectID) (*model.Client, error)
	ListClients(ctx context.Context, offset, limit int) ([]*model.Client, error)
	UpdateClientStatus(ctx context.Context, id primitive.ObjectID, status int) error
	DeleteClient(ctx context.Context, id primitive.ObjectID) error
	LogVerification(ctx context.Context, log *model.VerificationLog) error
	GetClientVerificationLogs(ctx context.Context, id primitive.ObjectID, offset, limit int) ([]*model.VerificationLog, error)
	GetStats(ctx context.Context) (*Stats, error)
}

// SignatureServiceInterface verifies signed requests on behalf of stored clients
type SignatureServiceInterface interface {
	Verify(ctx context.Context, headers signature.Headers, payload signature.Payload) (*model.Client, signature.Result, error)
}

var (
	_ ClientServiceInterface    = (*ClientService)(nil)
	_ SignatureServiceInterface = (*SignatureService)(nil)
)
