package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postbridge/internal/models"
)

// PostEventRepository is append-only; events are never updated or removed
// except through the posts FK cascade.
type PostEventRepository interface {
	Create(ctx context.Context, ev *models.PostEvent) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostEvent, error)
}

type postEventRepository struct {
	db *sql.DB
}

func NewPostEventRepository(db *sql.DB) PostEventRepository {
	return &postEventRepository{db: db}
}

func (r *postEventRepository) Create(ctx context.Context, ev *models.PostEvent) (int64, error) {
	query := `
		INSERT INTO post_events (post_id, user_id, kind, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, ev.PostID, ev.UserID, ev.Kind, nullString(ev.Detail)).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return ev.ID, nil
}

func (r *postEventRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostEvent, error) {
	query := `SELECT id, post_id, user_id, kind, detail, created_at FROM post_events WHERE post_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var events []*models.PostEvent
	for rows.Next() {
		var ev models.PostEvent
		var detail sql.NullString
		err := rows.Scan(&ev.ID, &ev.PostID, &ev.UserID, &ev.Kind, &detail, &ev.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ev.Detail = detail.String
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return events, nil
}
