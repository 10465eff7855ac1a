package model

import (
	"testing"

	"signature-gateway/pkg/signature"

	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	cred := signature.Credential{ClientID: "cid", SecretKey: "secret"}
	c := NewClient("acme", "v1", signature.AlgorithmSHA512, cred)

	assert.True(t, c.IsActive())
	assert.Equal(t, "cid", c.ClientID)
	assert.Equal(t, "sha512", c.Algorithm)
	assert.Equal(t, cred, c.Credential())
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)

	c.Status = ClientStatusDisabled
	assert.False(t, c.IsActive())
}
