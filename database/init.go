package database

import (
	"context"
	"time"

	"signature-gateway/config"
	"signature-gateway/pkg/logger"
	"signature-gateway/pkg/nonce"
	"signature-gateway/pkg/signature"
	"signature-gateway/repository"
)

const (
	clientCollection          = "sig_clients"
	verificationLogCollection = "sig_verification_logs"
)

// DatabaseManager manages storage connections and repositories
type DatabaseManager struct {
	MongoDB             *MongoDB
	ClientRepo          repository.ClientRepository
	VerificationLogRepo repository.VerificationLogRepository
	NonceStore          signature.NonceStore

	redisStore *nonce.RedisStore
}

// NewDatabaseManager connects the configured stores. Without database.url the
// repositories are kept in memory.
func NewDatabaseManager(cfg *config.Config) (*DatabaseManager, error) {
	dm := &DatabaseManager{}

	if cfg.Database.URL == "" {
		logger.Info("No database configured, using in-memory repositories")
		dm.ClientRepo = repository.NewClientMemoryRepository()
		dm.VerificationLogRepo = repository.NewVerificationLogMemoryRepository()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Infof("Connecting to MongoDB: %s", cfg.Database.DB)
		mongoDB, err := NewMongoDB(ctx, cfg.Database.URL, cfg.Database.DB)
		if err != nil {
			return nil, err
		}
		logger.Info("MongoDB connection established successfully")
		dm.MongoDB = mongoDB

		clients := mongoDB.GetCollection(clientCollection)
		logs := mongoDB.GetCollection(verificationLogCollection)
		if err := repository.EnsureClientIndexes(ctx, clients); err != nil {
			dm.Close(context.Background())
			return nil, err
		}
		if err := repository.EnsureVerificationLogIndexes(ctx, logs); err != nil {
			dm.Close(context.Background())
			return nil, err
		}

		dm.ClientRepo = repository.NewClientMongoRepository(clients)
		dm.VerificationLogRepo = repository.NewVerificationLogMongoRepository(logs)
	}

	store, err := dm.newNonceStore(cfg)
	if err != nil {
		dm.Close(context.Background())
		return nil, err
	}
	dm.NonceStore = store

	return dm, nil
}

// newNonceStore 根据 replay_protection 创建 nonce 存储，off 时返回 nil
func (dm *DatabaseManager) newNonceStore(cfg *config.Config) (signature.NonceStore, error) {
	ttl := time.Duration(cfg.Signature.TimeWindow+cfg.Signature.FutureSkew) * time.Second

	switch cfg.Signature.ReplayProtection {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		store, err := nonce.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Signature.NoncePrefix)
		if err != nil {
			return nil, err
		}
		logger.Infof("Replay protection enabled (redis %s)", cfg.Redis.Addr)
		dm.redisStore = store
		return store, nil
	case "memory":
		store, err := nonce.NewMemoryStore(ttl)
		if err != nil {
			return nil, err
		}
		logger.Info("Replay protection enabled (memory)")
		return store, nil
	default:
		logger.Info("Replay protection disabled")
		return nil, nil
	}
}

// Close closes all storage connections
func (dm *DatabaseManager) Close(ctx context.Context) error {
	logger.Info("Closing database connections...")

	var firstErr error
	if dm.redisStore != nil {
		if err := dm.redisStore.Close(); err != nil {
			logger.Errorf("Error closing Redis connection: %v", err)
			firstErr = err
		}
	}
	if dm.MongoDB != nil {
		if err := dm.MongoDB.Close(ctx); err != nil {
			logger.Errorf("Error closing MongoDB connection: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr == nil {
		logger.Info("Database connections closed successfully")
	}
	return firstErr
}

// Stats 连接池状态，用于健康检查
func (dm *DatabaseManager) Stats() map[string]any {
	stats := map[string]any{
		"mongodb": dm.MongoDB != nil,
	}
	if dm.redisStore != nil {
		stats["redis"] = dm.redisStore.Stats()
	}
	return stats
}
