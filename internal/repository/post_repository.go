package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
	"github.com/maheshrc27/postbridge/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	ListByScheduledRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error)
	ListPublishedSince(ctx context.Context, userID int64, since time.Time) ([]*models.Post, error)
	ListDue(ctx context.Context, before time.Time, limit int) ([]*models.Post, error)
	ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]*models.Post, error)
	UpdateState(ctx context.Context, post *models.Post, expectedStatus string) error
	UpdateContent(ctx context.Context, post *models.Post, expectedStatus string) error
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, campaign_id, post_type, title, content, media_urls, link, platforms,
	scheduled_time, published_time, status, provider_type, provider_post_ids, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post          models.Post
		campaignID    sql.NullInt64
		publishedTime sql.NullTime
		link          sql.NullString
		providerType  sql.NullString
		errorMessage  sql.NullString
		providerIDs   []byte
	)
	err := row.Scan(&post.ID, &post.UserID, &campaignID, &post.PostType, &post.Title, &post.Content,
		pq.Array(&post.MediaURLs), &link, pq.Array(&post.Platforms), &post.ScheduledTime, &publishedTime,
		&post.Status, &providerType, &providerIDs, &errorMessage, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if campaignID.Valid {
		post.CampaignID = &campaignID.Int64
	}
	if publishedTime.Valid {
		t := publishedTime.Time
		post.PublishedTime = &t
	}
	post.Link = link.String
	post.ProviderType = providerType.String
	post.ErrorMessage = errorMessage.String

	post.ProviderPostIDs = map[string]string{}
	if len(providerIDs) > 0 {
		if err := json.Unmarshal(providerIDs, &post.ProviderPostIDs); err != nil {
			return nil, err
		}
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, campaign_id, post_type, title, content, media_urls, link, platforms, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	status := post.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	args := []any{
		post.UserID, post.CampaignID, post.PostType, post.Title, post.Content,
		pq.Array(post.MediaURLs), nullString(post.Link), pq.Array(post.Platforms), post.ScheduledTime, status,
	}

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY scheduled_time DESC`
	return r.list(ctx, query, userID)
}

func (r *postRepository) ListByScheduledRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1 AND scheduled_time BETWEEN $2 AND $3
		ORDER BY scheduled_time ASC`
	return r.list(ctx, query, userID, start, end)
}

func (r *postRepository) ListPublishedSince(ctx context.Context, userID int64, since time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1 AND status = $2 AND published_time >= $3
		ORDER BY published_time DESC`
	return r.list(ctx, query, userID, models.PostStatusPublished, since)
}

// ListDue returns scheduled posts of every tenant whose time has passed.
func (r *postRepository) ListDue(ctx context.Context, before time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time ASC
		LIMIT $3`
	return r.list(ctx, query, models.PostStatusScheduled, before, limit)
}

func (r *postRepository) ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE campaign_id = $1
		ORDER BY scheduled_time DESC, id DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, campaignID, limit, offset)
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// UpdateState writes the lifecycle fields of post only if the stored status
// still equals expectedStatus.
func (r *postRepository) UpdateState(ctx context.Context, post *models.Post, expectedStatus string) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_time = $2,
			provider_type = $3,
			provider_post_ids = $4,
			error_message = $5,
			updated_at = $6
		WHERE id = $7 AND status = $8
	`

	ids := post.ProviderPostIDs
	if ids == nil {
		ids = map[string]string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		post.Status,
		post.PublishedTime,
		nullString(post.ProviderType),
		encoded,
		nullString(post.ErrorMessage),
		now,
		post.ID,
		expectedStatus,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrStaleState
	}

	post.UpdatedAt = now
	return nil
}

// UpdateContent writes the editable fields of post under the same status guard
// as UpdateState.
func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post, expectedStatus string) error {
	query := `
		UPDATE posts
		SET title = $1,
			content = $2,
			media_urls = $3,
			link = $4,
			post_type = $5,
			scheduled_time = $6,
			updated_at = $7
		WHERE id = $8 AND status = $9
	`

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		post.Title,
		post.Content,
		pq.Array(post.MediaURLs),
		nullString(post.Link),
		post.PostType,
		post.ScheduledTime,
		now,
		post.ID,
		expectedStatus,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrStaleState
	}

	post.UpdatedAt = now
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
