package model

import (
	"time"

	"signature-gateway/pkg/signature"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client 签名客户端，持有一对 client id / secret 凭证
type Client struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	ClientID  string             `json:"client_id" bson:"client_id"`
	Secret    string             `json:"-" bson:"secret"` // 签名密钥，不返回给客户端
	Algorithm string             `json:"algorithm" bson:"algorithm"`
	Version   string             `json:"version" bson:"version"` // 绑定的上游版本
	Status    int                `json:"status" bson:"status"`   // 0:禁用 1:正常
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// ClientStatus constants
const (
	ClientStatusDisabled = 0 // 禁用
	ClientStatusActive   = 1 // 正常
)

// NewClient creates an active client from a freshly provisioned credential.
// An empty algorithm means the client follows the gateway default.
func NewClient(name, version string, algorithm signature.Algorithm, credential signature.Credential) *Client {
	now := time.Now()
	return &Client{
		Name:      name,
		ClientID:  credential.ClientID,
		Secret:    credential.SecretKey,
		Algorithm: string(algorithm),
		Version:   version,
		Status:    ClientStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive returns true if the client is active
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive
}

// Credential returns the signing credential of the client.
func (c *Client) Credential() signature.Credential {
	return signature.Credential{ClientID: c.ClientID, SecretKey: c.Secret}
}
