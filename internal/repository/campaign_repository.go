package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
	"github.com/maheshrc27/postbridge/internal/models"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	ListByUserID(ctx context.Context, userID int64, filter models.CampaignFilter) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Remove(ctx context.Context, userID, id int64) error
	CountPostsByStatus(ctx context.Context, campaignID int64) (map[string]int64, error)
}

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, user_id, name, description, campaign_type, status, start_date, end_date,
	target_platforms, goals, tags, created_at, updated_at`

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var (
		c           models.Campaign
		description sql.NullString
		start, end  sql.NullTime
		goals       []byte
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &description, &c.CampaignType, &c.Status, &start, &end,
		pq.Array(&c.TargetPlatforms), &goals, pq.Array(&c.Tags), &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	if start.Valid {
		t := start.Time
		c.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		c.EndDate = &t
	}
	if len(goals) > 0 {
		if err := json.Unmarshal(goals, &c.Goals); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func encodeGoals(goals map[string]any) ([]byte, error) {
	if goals == nil {
		goals = map[string]any{}
	}
	return json.Marshal(goals)
}

func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (user_id, name, description, campaign_type, status, start_date, end_date,
			target_platforms, goals, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	goals, err := encodeGoals(campaign.Goals)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	err = r.db.QueryRowContext(ctx, query,
		campaign.UserID, campaign.Name, nullString(campaign.Description), campaign.CampaignType, campaign.Status,
		campaign.StartDate, campaign.EndDate, pq.Array(campaign.TargetPlatforms), goals, pq.Array(campaign.Tags),
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// GetByID returns ErrNotFound when the campaign does not exist.
func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return campaign, nil
}

// ListByUserID returns the newest campaigns first. Empty filter fields match all.
func (r *campaignRepository) ListByUserID(ctx context.Context, userID int64, filter models.CampaignFilter) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE user_id = $1
			AND ($2::text = '' OR status = $2)
			AND ($3::text = '' OR campaign_type = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.QueryContext(ctx, query, userID, filter.Status, filter.CampaignType, filter.Limit, filter.Offset)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return campaigns, nil
}

func (r *campaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $1,
			description = $2,
			campaign_type = $3,
			status = $4,
			start_date = $5,
			end_date = $6,
			target_platforms = $7,
			goals = $8,
			tags = $9,
			updated_at = $10
		WHERE id = $11 AND user_id = $12
	`
	goals, err := encodeGoals(campaign.Goals)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		campaign.Name, nullString(campaign.Description), campaign.CampaignType, campaign.Status,
		campaign.StartDate, campaign.EndDate, pq.Array(campaign.TargetPlatforms), goals, pq.Array(campaign.Tags),
		now, campaign.ID, campaign.UserID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	campaign.UpdatedAt = now
	return nil
}

// Remove deletes the campaign. Its posts stay and lose the reference.
func (r *campaignRepository) Remove(ctx context.Context, userID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *campaignRepository) CountPostsByStatus(ctx context.Context, campaignID int64) (map[string]int64, error) {
	query := `SELECT status, COUNT(*) FROM posts WHERE campaign_id = $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return counts, nil
}
