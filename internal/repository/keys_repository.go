package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/postbridge/internal/models"
)

// ApiKeyRepository stores API keys by hash. The plaintext key is never persisted.
type ApiKeyRepository interface {
	Create(ctx context.Context, key *models.ApiKey) error
	ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	TouchByHash(ctx context.Context, hash string) (int64, error)
	Remove(ctx context.Context, userID, keyID int64) error
}

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *models.ApiKey) error {
	query := `
		INSERT INTO api_keys (user_id, key_prefix, key_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, key.UserID, key.Prefix, key.KeyHash).Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	query := `
		SELECT id, user_id, key_prefix, last_used_at, created_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var keys []*models.ApiKey
	for rows.Next() {
		var (
			key      models.ApiKey
			lastUsed sql.NullTime
		)
		if err := rows.Scan(&key.ID, &key.UserID, &key.Prefix, &lastUsed, &key.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			key.LastUsedAt = &t
		}
		keys = append(keys, &key)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return keys, nil
}

// TouchByHash records a use of the key and returns its owner, or ErrNotFound.
func (r *apiKeyRepository) TouchByHash(ctx context.Context, hash string) (int64, error) {
	query := `UPDATE api_keys SET last_used_at = NOW() WHERE key_hash = $1 RETURNING user_id`
	var userID int64
	err := r.db.QueryRowContext(ctx, query, hash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return userID, nil
}

// Remove deletes a key owned by userID. Keys of other tenants report ErrNotFound.
func (r *apiKeyRepository) Remove(ctx context.Context, userID, keyID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, keyID, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
