package postgres

import (
	"context"
	"database/sql"
	"errors"

	nodes "nodewatch/internal/nodes/domain"
)

// ApiKeyRepository resolves api keys to their row ids.
type ApiKeyRepository struct {
	db *sql.DB
}

// NewApiKeyRepository constructs a repository.
func NewApiKeyRepository(db *sql.DB) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

// FindKeyID looks up an api key, returning nodes.ErrKeyNotFound when the key
// is not provisioned.
func (r *ApiKeyRepository) FindKeyID(ctx context.Context, key string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("api key repo: nil db")
	}
	if key == "" {
		return 0, nodes.ErrKeyNotFound
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id FROM api_keys WHERE api_key = $1
LIMIT 1`, key)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nodes.ErrKeyNotFound
		}
		return 0, err
	}
	return id, nil
}
