package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postbridge/internal/models"
)

type SocialAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.SocialAccount, error)
	CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error)
	UpdateProviderProfile(ctx context.Context, id int64, profileID, status string) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Remove(ctx context.Context, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `sa.id, sa.user_id, sa.platform, sa.account_name, sa.account_handle, sa.status,
	sa.provider_profile_id, sa.access_token, sa.refresh_token, sa.token_expires_at, sa.is_primary,
	sa.created_at, sa.updated_at`

func scanSocialAccount(row rowScanner) (*models.SocialAccount, error) {
	var (
		sa           models.SocialAccount
		profileID    sql.NullString
		accessToken  sql.NullString
		refreshToken sql.NullString
		expiresAt    sql.NullTime
	)
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountName, &sa.AccountHandle, &sa.Status,
		&profileID, &accessToken, &refreshToken, &expiresAt, &sa.IsPrimary, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sa.ProviderProfileID = profileID.String
	sa.AccessToken = accessToken.String
	sa.RefreshToken = refreshToken.String
	if expiresAt.Valid {
		t := expiresAt.Time
		sa.TokenExpiresAt = &t
	}
	return &sa, nil
}

func (r *socialAccountRepository) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	var err error
	var id int64

	var insertQuery = `
			INSERT INTO social_accounts(
				user_id,
				platform,
				account_name,
				account_handle,
				status,
				provider_profile_id,
				access_token,
				refresh_token,
				token_expires_at,
				is_primary
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`

	status := sa.Status
	if status == "" {
		status = models.AccountStatusActive
	}
	args := []any{
		sa.UserID,
		sa.Platform,
		sa.AccountName,
		sa.AccountHandle,
		status,
		nullString(sa.ProviderProfileID),
		nullString(sa.AccessToken),
		nullString(sa.RefreshToken),
		sa.TokenExpiresAt,
		sa.IsPrimary,
	}

	if tx != nil {
		err = tx.QueryRowContext(ctx, insertQuery, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, insertQuery, args...).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts sa WHERE sa.id = $1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts sa WHERE sa.user_id = $1 ORDER BY sa.id`
	return r.list(ctx, query, userID)
}

// ListByPostID returns the accounts a post was created for.
func (r *socialAccountRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts sa
		JOIN selected_accounts sel ON sel.account_id = sa.id
		WHERE sel.post_id = $1
		ORDER BY sa.id`
	return r.list(ctx, query, postID)
}

func (r *socialAccountRepository) list(ctx context.Context, query string, args ...any) ([]*models.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	query := "SELECT 1 FROM social_accounts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *socialAccountRepository) UpdateProviderProfile(ctx context.Context, id int64, profileID, status string) error {
	query := `
		UPDATE social_accounts
		SET provider_profile_id = $1,
			status = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, nullString(profileID), status, time.Now().UTC(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE social_accounts SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
