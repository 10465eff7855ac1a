package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"signature-gateway/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientMemoryRepository 内存实现，未配置 MongoDB 时使用，重启后数据丢失
type ClientMemoryRepository struct {
	mu      sync.RWMutex
	clients map[primitive.ObjectID]*model.Client
}

// NewClientMemoryRepository creates an empty in-memory client repository
func NewClientMemoryRepository() *ClientMemoryRepository {
	return &ClientMemoryRepository{clients: make(map[primitive.ObjectID]*model.Client)}
}

func (r *ClientMemoryRepository) Create(_ context.Context, client *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		if c.ClientID == client.ClientID {
			return fmt.Errorf("failed to create client: duplicate client_id %s", client.ClientID)
		}
	}
	if client.ID.IsZero() {
		client.ID = primitive.NewObjectID()
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt

	stored := *client
	r.clients[client.ID] = &stored
	return nil
}

func (r *ClientMemoryRepository) GetByID(_ context.Context, id primitive.ObjectID) (*model.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %w", ErrNotFound)
	}
	out := *c
	return &out, nil
}

func (r *ClientMemoryRepository) GetByClientID(_ context.Context, clientID string) (*model.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		if c.ClientID == clientID {
			out := *c
			return &out, nil
		}
	}
	return nil, fmt.Errorf("client %w", ErrNotFound)
}

func (r *ClientMemoryRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, status int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return fmt.Errorf("client %w", ErrNotFound)
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	return nil
}

func (r *ClientMemoryRepository) List(_ context.Context, offset, limit int) ([]*model.Client, error) {
	r.mu.RLock()
	all := make([]*model.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out := *c
		all = append(all, &out)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, offset, limit), nil
}

func (r *ClientMemoryRepository) CountByStatus(_ context.Context) (map[int]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[int]int64)
	for _, c := range r.clients {
		counts[c.Status]++
	}
	return counts, nil
}

func (r *ClientMemoryRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return fmt.Errorf("client %w", ErrNotFound)
	}
	delete(r.clients, id)
	return nil
}

// VerificationLogMemoryRepository 内存实现
type VerificationLogMemoryRepository struct {
	mu   sync.RWMutex
	logs []*model.VerificationLog
}

// NewVerificationLogMemoryRepository creates an empty in-memory log repository
func NewVerificationLogMemoryRepository() *VerificationLogMemoryRepository {
	return &VerificationLogMemoryRepository{}
}

func (r *VerificationLogMemoryRepository) Create(_ context.Context, log *model.VerificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	stored := *log
	r.logs = append(r.logs, &stored)
	return nil
}

func (r *VerificationLogMemoryRepository) GetByClientID(_ context.Context, clientID string, offset, limit int) ([]*model.VerificationLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.VerificationLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].ClientID == clientID {
			out := *r.logs[i]
			matched = append(matched, &out)
		}
	}
	return page(matched, offset, limit), nil
}

func (r *VerificationLogMemoryRepository) CountByOutcome(_ context.Context) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var accepted, rejected int64
	for _, l := range r.logs {
		if l.Verified {
			accepted++
		} else {
			rejected++
		}
	}
	return accepted, rejected, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

var (
	_ ClientRepository          = (*ClientMemoryRepository)(nil)
	_ VerificationLogRepository = (*VerificationLogMemoryRepository)(nil)
)
