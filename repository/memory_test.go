package repository

import (
	"context"
	"errors"
	"testing"

	"signature-gateway/model"
	"signature-gateway/pkg/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestClientMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewClientMemoryRepository()

	client := model.NewClient("acme", "v1", "", signature.Credential{ClientID: "cid", SecretKey: "secret"})
	require.NoError(t, repo.Create(ctx, client))
	assert.Error(t, repo.Create(ctx, model.NewClient("dup", "v1", "", signature.Credential{ClientID: "cid"})))

	got, err := repo.GetByClientID(ctx, "cid")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Secret)

	got.Secret = "mutated"
	again, err := repo.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", again.Secret, "callers must not alias stored clients")

	require.NoError(t, repo.UpdateStatus(ctx, client.ID, model.ClientStatusDisabled))
	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{model.ClientStatusDisabled: 1}, counts)

	_, err = repo.GetByClientID(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, primitive.NewObjectID()), ErrNotFound))
	require.NoError(t, repo.Delete(ctx, client.ID))

	list, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVerificationLogMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewVerificationLogMemoryRepository()

	for i, ok := range []bool{true, false, true} {
		require.NoError(t, repo.Create(ctx, model.NewVerificationLog("cid", "t", "GET", "/api/x", ok, nil, 200+i, 1)))
	}
	require.NoError(t, repo.Create(ctx, model.NewVerificationLog("other", "t", "GET", "/api/x", true, nil, 200, 1)))

	logs, err := repo.GetByClientID(ctx, "cid", 0, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 202, logs[0].Status, "newest first")

	logs, err = repo.GetByClientID(ctx, "cid", 5, 2)
	require.NoError(t, err)
	assert.Empty(t, logs)

	accepted, rejected, err := repo.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), accepted)
	assert.Equal(t, int64(1), rejected)
}
