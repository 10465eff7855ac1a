package database

import (
	"context"
	"os"
	"testing"
	"time"

	"signature-gateway/config"
	"signature-gateway/pkg/nonce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabaseManagerInMemory(t *testing.T) {
	tests := []struct {
		mode      string
		wantStore bool
	}{
		{"off", false},
		{"memory", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg, err := config.Parse([]byte("signature:\n  replay_protection: \"" + tt.mode + "\"\n"))
			require.NoError(t, err)

			dm, err := NewDatabaseManager(cfg)
			require.NoError(t, err)
			defer dm.Close(context.Background())

			assert.Nil(t, dm.MongoDB)
			assert.NotNil(t, dm.ClientRepo)
			assert.NotNil(t, dm.VerificationLogRepo)
			assert.Equal(t, tt.wantStore, dm.NonceStore != nil)
			if tt.wantStore {
				assert.IsType(t, &nonce.MemoryStore{}, dm.NonceStore)
			}
			assert.Equal(t, false, dm.Stats()["mongodb"])
		})
	}
}

func TestNewDatabaseManagerExternal(t *testing.T) {
	mongoURL, redisAddr := os.Getenv("MONGO_URL"), os.Getenv("REDIS_ADDR")
	if mongoURL == "" || redisAddr == "" {
		t.Skip("MONGO_URL and REDIS_ADDR not set")
	}

	cfg := &config.Config{
		Database:  config.DatabaseConfig{URL: mongoURL, DB: "signature_gateway_test"},
		Redis:     config.RedisConfig{Addr: redisAddr},
		Signature: config.SignatureConfig{Algorithm: "sha256", TimeWindow: 60, ReplayProtection: "redis"},
	}
	dm, err := NewDatabaseManager(cfg)
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = dm.MongoDB.Database.Drop(ctx)
		_ = dm.Close(ctx)
	}()

	assert.IsType(t, &nonce.RedisStore{}, dm.NonceStore)
	assert.Contains(t, dm.Stats(), "redis")
}
