package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signature-gateway/config"
	"signature-gateway/model"
	"signature-gateway/pkg/logger"
	"signature-gateway/pkg/signature"
	"signature-gateway/repository"
)

// SignatureService 按 X-Client-Id 查找客户密钥并校验签名
type SignatureService struct {
	clientRepo repository.ClientRepository
	algorithm  signature.Algorithm
	options    []signature.Option
}

// NewSignatureService creates a signature service from the gateway settings.
// nonces may be nil, which disables replay detection.
func NewSignatureService(clientRepo repository.ClientRepository, cfg config.SignatureConfig, nonces signature.NonceStore) (*SignatureService, error) {
	alg, err := signature.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	opts := []signature.Option{
		signature.WithWindow(time.Duration(cfg.TimeWindow) * time.Second),
		signature.WithFutureSkew(time.Duration(cfg.FutureSkew) * time.Second),
	}
	if nonces != nil {
		opts = append(opts, signature.WithNonceStore(nonces))
	}

	return &SignatureService{
		clientRepo: clientRepo,
		algorithm:  alg,
		options:    opts,
	}, nil
}

// Verify looks the caller up and checks its signature. An unknown client id
// is verified with an empty secret, which yields the configuration failure.
// The returned client is nil when the id is unknown. A non-nil error means
// the client store itself failed.
func (s *SignatureService) Verify(ctx context.Context, headers signature.Headers, payload signature.Payload) (*model.Client, signature.Result, error) {
	var (
		client *model.Client
		secret string
	)

	if clientID := headers.Get(signature.HeaderClientID); clientID != "" {
		found, err := s.clientRepo.GetByClientID(ctx, clientID)
		switch {
		case err == nil:
			client = found
			secret = found.Secret
		case errors.Is(err, repository.ErrNotFound):
			logger.WithContext(ctx).Infof("Unknown client id %s", clientID)
		default:
			return nil, signature.Result{}, fmt.Errorf("failed to look up client: %w", err)
		}
	}

	return client, s.serviceFor(client, secret).Verify(ctx, headers, payload), nil
}

func (s *SignatureService) serviceFor(client *model.Client, secret string) *signature.Service {
	alg := s.algorithm
	if client != nil && client.Algorithm != "" {
		if parsed, err := signature.ParseAlgorithm(client.Algorithm); err == nil {
			alg = parsed
		}
	}

	opts := make([]signature.Option, 0, len(s.options)+1)
	opts = append(opts, s.options...)
	opts = append(opts, signature.WithAlgorithm(alg))
	return signature.NewService(secret, opts...)
}
