package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/postbridge/internal/models"
)

// UserRepository stores tenants. A tenant is identified by its Google account.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpsertByGoogleID(ctx context.Context, user *models.User) error
	Remove(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, google_id, email, name, profile_picture, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.ProfilePicture, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID returns ErrNotFound when no tenant has the id.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return user, nil
}

// UpsertByGoogleID creates the tenant on first login and refreshes its Google
// profile fields on later ones. user is filled with the stored row.
func (r *userRepository) UpsertByGoogleID(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (google_id, email, name, profile_picture)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (google_id) DO UPDATE
		SET email = EXCLUDED.email,
			name = EXCLUDED.name,
			profile_picture = EXCLUDED.profile_picture,
			updated_at = NOW()
		RETURNING ` + userColumns

	stored, err := scanUser(r.db.QueryRowContext(ctx, query, user.GoogleID, user.Email, user.Name, user.ProfilePicture))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	*user = *stored
	return nil
}

// Remove deletes the tenant and, through foreign keys, everything it owns.
func (r *userRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
