package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/summit-checkout/internal/domain/auth"
)

const findKeySQL = `SELECT id, key_hash, name, scopes FROM api_keys WHERE key_hash = $1`

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository resolves admin API keys stored in PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash resolves a key by the HMAC-SHA256 hash of its secret.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Key, error) {
	rows, err := r.pool.Query(ctx, findKeySQL, hash)
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}

	key, err := pgx.CollectExactlyOneRow(rows, scanAPIKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrKeyNotFound
		}
		return nil, fmt.Errorf("scanning api key: %w", err)
	}
	return &key, nil
}

func scanAPIKey(row pgx.CollectableRow) (auth.Key, error) {
	var k auth.Key
	err := row.Scan(&k.ID, &k.KeyHash, &k.Name, &k.Scopes)
	return k, err
}
