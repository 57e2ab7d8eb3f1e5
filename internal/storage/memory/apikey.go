package memory

import (
	"context"
	"sync"

	"github.com/xenking/summit-checkout/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository is an in-memory auth.Repository keyed by key hash.
type APIKeyRepository struct {
	mu   sync.RWMutex
	keys map[string]*auth.Key
}

// NewAPIKeyRepository creates a repository preloaded with the given keys.
func NewAPIKeyRepository(keys ...*auth.Key) *APIKeyRepository {
	r := &APIKeyRepository{keys: make(map[string]*auth.Key, len(keys))}
	for _, k := range keys {
		r.keys[k.KeyHash] = k
	}
	return r
}

// Add registers a key.
func (r *APIKeyRepository) Add(info *auth.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[info.KeyHash] = info
}

// FindByHash looks up a key by its HMAC hash.
func (r *APIKeyRepository) FindByHash(_ context.Context, hash string) (*auth.Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.keys[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	cp := *info
	return &cp, nil
}
