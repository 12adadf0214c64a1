package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/maheshrc27/postbridge/internal/models"
)

// AnalyticsRepository stores insert-only snapshots.
type AnalyticsRepository interface {
	Create(ctx context.Context, rec *models.AnalyticsRecord) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.AnalyticsRecord, error)
	Summary(ctx context.Context, userID int64, start, end *time.Time) (*models.AnalyticsSummary, error)
	CampaignSummary(ctx context.Context, campaignID int64) (*models.AnalyticsSummary, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Create(ctx context.Context, rec *models.AnalyticsRecord) (int64, error) {
	query := `
		INSERT INTO post_analytics (post_id, account_id, user_id, platform, provider_post_id,
			likes, comments, shares, clicks, reach, impressions, engagement_rate, collected_at, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	raw := rec.RawData
	if raw == nil {
		raw = map[string]any{}
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		rec.PostID, rec.AccountID, rec.UserID, rec.Platform, rec.ProviderPostID,
		rec.Likes, rec.Comments, rec.Shares, rec.Clicks, rec.Reach, rec.Impressions,
		rec.EngagementRate, rec.CollectedAt, encoded,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *analyticsRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.AnalyticsRecord, error) {
	query := `
		SELECT id, post_id, account_id, user_id, platform, provider_post_id,
			likes, comments, shares, clicks, reach, impressions, engagement_rate, collected_at, raw_data
		FROM post_analytics
		WHERE post_id = $1
		ORDER BY collected_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.AnalyticsRecord
	for rows.Next() {
		var rec models.AnalyticsRecord
		var raw []byte
		err := rows.Scan(&rec.ID, &rec.PostID, &rec.AccountID, &rec.UserID, &rec.Platform, &rec.ProviderPostID,
			&rec.Likes, &rec.Comments, &rec.Shares, &rec.Clicks, &rec.Reach, &rec.Impressions,
			&rec.EngagementRate, &rec.CollectedAt, &raw)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rec.RawData); err != nil {
				slog.Info(err.Error())
				return nil, err
			}
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return records, nil
}

const summaryTotals = `
		SELECT COUNT(*),
			COUNT(DISTINCT post_id),
			COALESCE(SUM(likes), 0),
			COALESCE(SUM(comments), 0),
			COALESCE(SUM(shares), 0),
			COALESCE(SUM(clicks), 0),
			COALESCE(SUM(reach), 0),
			COALESCE(SUM(impressions), 0),
			COALESCE(ROUND(AVG(engagement_rate)::numeric, 2), 0)
		FROM latest
`

// Summary aggregates the latest snapshot of every (post, account) pair
// collected inside the optional window.
func (r *analyticsRepository) Summary(ctx context.Context, userID int64, start, end *time.Time) (*models.AnalyticsSummary, error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (post_id, account_id) *
			FROM post_analytics
			WHERE user_id = $1
				AND ($2::timestamptz IS NULL OR collected_at >= $2)
				AND ($3::timestamptz IS NULL OR collected_at <= $3)
			ORDER BY post_id, account_id, collected_at DESC, id DESC
		)` + summaryTotals
	return r.summary(ctx, query, userID, nullTime(start), nullTime(end))
}

// CampaignSummary aggregates the latest snapshots of the campaign's posts.
func (r *analyticsRepository) CampaignSummary(ctx context.Context, campaignID int64) (*models.AnalyticsSummary, error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (a.post_id, a.account_id) a.*
			FROM post_analytics a
			JOIN posts p ON p.id = a.post_id
			WHERE p.campaign_id = $1
			ORDER BY a.post_id, a.account_id, a.collected_at DESC, a.id DESC
		)` + summaryTotals
	return r.summary(ctx, query, campaignID)
}

func (r *analyticsRepository) summary(ctx context.Context, query string, args ...any) (*models.AnalyticsSummary, error) {
	var s models.AnalyticsSummary
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&s.Records, &s.Posts, &s.Likes, &s.Comments, &s.Shares, &s.Clicks, &s.Reach, &s.Impressions,
		&s.AverageEngagementRate,
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
