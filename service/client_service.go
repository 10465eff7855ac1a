package service

import (
	"context"
	"errors"
	"fmt"

	"signature-gateway/model"
	"signature-gateway/pkg/signature"
	"signature-gateway/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 凭证冲突时的重试次数
const provisionAttempts = 3

// Stats 客户与校验统计
type Stats struct {
	TotalClients    int64 `json:"total_clients"`
	ActiveClients   int64 `json:"active_clients"`
	DisabledClients int64 `json:"disabled_clients"`
	Accepted        int64 `json:"accepted"`
	Rejected        int64 `json:"rejected"`
}

// ClientService provides business logic for client operations
type ClientService struct {
	clientRepo repository.ClientRepository
	logRepo    repository.VerificationLogRepository
	provision  func() (signature.Credential, error)
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository, logRepo repository.VerificationLogRepository) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		logRepo:    logRepo,
		provision:  signature.Provision,
	}
}

// CreateClient provisions a credential and stores it. The returned client is
// the only place the secret is exposed. An empty algorithm is stored as is so
// the client follows the gateway default.
func (s *ClientService) CreateClient(ctx context.Context, name, version, algorithm string) (*model.Client, error) {
	var alg signature.Algorithm
	if algorithm != "" {
		parsed, err := signature.ParseAlgorithm(algorithm)
		if err != nil {
			return nil, err
		}
		alg = parsed
	}

	for attempt := 0; attempt < provisionAttempts; attempt++ {
		credential, err := s.provision()
		if err != nil {
			return nil, fmt.Errorf("failed to provision credential: %w", err)
		}

		// client id 冲突概率极低，冲突时重新生成
		existing, err := s.clientRepo.GetByClientID(ctx, credential.ClientID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to check client id: %w", err)
		}
		if existing != nil {
			continue
		}

		client := model.NewClient(name, version, alg, credential)
		if err := s.clientRepo.Create(ctx, client); err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		return client, nil
	}

	return nil, fmt.Errorf("failed to provision a unique client id after %d attempts", provisionAttempts)
}

// GetClientByClientID retrieves a client by its signing client id
func (s *ClientService) GetClientByClientID(ctx context.Context, clientID string) (*model.Client, error) {
	return s.clientRepo.GetByClientID(ctx, clientID)
}

// GetClientByID retrieves a client by ID
func (s *ClientService) GetClientByID(ctx context.Context, id primitive.ObjectID) (*model.Client, error) {
	return s.clientRepo.GetByID(ctx, id)
}

// ListClients retrieves all clients with pagination
func (s *ClientService) ListClients(ctx context.Context, offset, limit int) ([]*model.Client, error) {
	return s.clientRepo.List(ctx, offset, limit)
}

// UpdateClientStatus updates the status of a client
func (s *ClientService) UpdateClientStatus(ctx context.Context, id primitive.ObjectID, status int) error {
	if status != model.ClientStatusActive && status != model.ClientStatusDisabled {
		return fmt.Errorf("invalid client status %d", status)
	}
	return s.clientRepo.UpdateStatus(ctx, id, status)
}

// DeleteClient deletes a client
func (s *ClientService) DeleteClient(ctx context.Context, id primitive.ObjectID) error {
	return s.clientRepo.Delete(ctx, id)
}

// LogVerification stores the outcome of one verified request
func (s *ClientService) LogVerification(ctx context.Context, log *model.VerificationLog) error {
	return s.logRepo.Create(ctx, log)
}

// GetClientVerificationLogs retrieves verification logs for a client
func (s *ClientService) GetClientVerificationLogs(ctx context.Context, id primitive.ObjectID, offset, limit int) ([]*model.VerificationLog, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.logRepo.GetByClientID(ctx, client.ClientID, offset, limit)
}

// GetStats 汇总客户状态与校验结果
func (s *ClientService) GetStats(ctx context.Context) (*Stats, error) {
	counts, err := s.clientRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	accepted, rejected, err := s.logRepo.CountByOutcome(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		ActiveClients:   counts[model.ClientStatusActive],
		DisabledClients: counts[model.ClientStatusDisabled],
		Accepted:        accepted,
		Rejected:        rejected,
	}
	for _, n := range counts {
		stats.TotalClients += n
	}
	return stats, nil
}
