package nonce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
)

// DefaultPrefix namespaces nonce keys.
const DefaultPrefix = "signature:nonce:"

// MemoryStore keeps nonces in process memory. Only suitable for a single
// gateway instance.
type MemoryStore struct {
	mu    sync.Mutex
	cache *collection.Cache
}

// NewMemoryStore creates an in-memory store whose entries expire after at
// most maxTTL.
func NewMemoryStore(maxTTL time.Duration) (*MemoryStore, error) {
	cache, err := collection.NewCache(maxTTL, collection.WithName("nonce"))
	if err != nil {
		return nil, fmt.Errorf("failed to create nonce cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Claim reports whether key was free, and marks it used for ttl.
func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache.Get(key); ok {
		return false, nil
	}
	s.cache.SetWithExpire(key, struct{}{}, ttl)
	return true, nil
}
