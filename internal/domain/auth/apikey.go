// Package auth defines API-key identities used to guard the admin surface.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned by repositories when no key matches a hash.
var ErrKeyNotFound = errors.New("api key not found")

// Key is a provisioned API key. Only the HMAC hash of the secret is stored;
// the secret itself is shown once at provisioning time.
type Key struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key grants the named scope.
func (k *Key) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Key, error)
}
