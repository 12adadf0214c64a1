package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postbridge/internal/models"
)

type ProviderConfigRepository interface {
	Upsert(ctx context.Context, cfg *models.ProviderConfig) (int64, error)
	GetByUserAndType(ctx context.Context, userID int64, providerType string) (*models.ProviderConfig, error)
	GetDefault(ctx context.Context, userID int64, preferred string) (*models.ProviderConfig, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ProviderConfig, error)
	ListActiveUserIDs(ctx context.Context) ([]int64, error)
	Deactivate(ctx context.Context, userID int64, providerType string) error
}

type providerConfigRepository struct {
	db *sql.DB
}

func NewProviderConfigRepository(db *sql.DB) ProviderConfigRepository {
	return &providerConfigRepository{db: db}
}

const providerConfigColumns = `id, user_id, provider_type, access_token, refresh_token, profile_key,
	organization_id, token_expires_at, is_active, created_at, updated_at`

func scanProviderConfig(row rowScanner) (*models.ProviderConfig, error) {
	var (
		cfg          models.ProviderConfig
		refreshToken sql.NullString
		profileKey   sql.NullString
		orgID        sql.NullString
		expiresAt    sql.NullTime
	)
	err := row.Scan(&cfg.ID, &cfg.UserID, &cfg.ProviderType, &cfg.AccessToken, &refreshToken, &profileKey,
		&orgID, &expiresAt, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cfg.RefreshToken = refreshToken.String
	cfg.ProfileKey = profileKey.String
	cfg.OrganizationID = orgID.String
	if expiresAt.Valid {
		t := expiresAt.Time
		cfg.TokenExpiresAt = &t
	}
	return &cfg, nil
}

// Upsert keeps one row per (user, provider type).
func (r *providerConfigRepository) Upsert(ctx context.Context, cfg *models.ProviderConfig) (int64, error) {
	query := `
		INSERT INTO provider_configs (user_id, provider_type, access_token, refresh_token, profile_key, organization_id, token_expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, provider_type) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			profile_key = EXCLUDED.profile_key,
			organization_id = EXCLUDED.organization_id,
			token_expires_at = EXCLUDED.token_expires_at,
			is_active = EXCLUDED.is_active,
			updated_at = $9
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		cfg.UserID,
		cfg.ProviderType,
		cfg.AccessToken,
		nullString(cfg.RefreshToken),
		nullString(cfg.ProfileKey),
		nullString(cfg.OrganizationID),
		cfg.TokenExpiresAt,
		cfg.IsActive,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *providerConfigRepository) GetByUserAndType(ctx context.Context, userID int64, providerType string) (*models.ProviderConfig, error) {
	query := `SELECT ` + providerConfigColumns + ` FROM provider_configs WHERE user_id = $1 AND provider_type = $2`

	cfg, err := scanProviderConfig(r.db.QueryRowContext(ctx, query, userID, providerType))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return cfg, nil
}

// GetDefault returns the tenant's active config of the preferred type, or the
// most recently updated active config when that type is not configured.
func (r *providerConfigRepository) GetDefault(ctx context.Context, userID int64, preferred string) (*models.ProviderConfig, error) {
	query := `SELECT ` + providerConfigColumns + ` FROM provider_configs
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY (provider_type = $2) DESC, updated_at DESC
		LIMIT 1`

	cfg, err := scanProviderConfig(r.db.QueryRowContext(ctx, query, userID, preferred))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return cfg, nil
}

func (r *providerConfigRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ProviderConfig, error) {
	query := `SELECT ` + providerConfigColumns + ` FROM provider_configs WHERE user_id = $1 ORDER BY provider_type`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var configs []*models.ProviderConfig
	for rows.Next() {
		cfg, err := scanProviderConfig(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return configs, nil
}

// ListActiveUserIDs returns every tenant with at least one active provider.
func (r *providerConfigRepository) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT user_id FROM provider_configs WHERE is_active = TRUE ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return ids, nil
}

func (r *providerConfigRepository) Deactivate(ctx context.Context, userID int64, providerType string) error {
	query := `
		UPDATE provider_configs
		SET is_active = FALSE,
			updated_at = $1
		WHERE user_id = $2 AND provider_type = $3
	`
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID, providerType)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
