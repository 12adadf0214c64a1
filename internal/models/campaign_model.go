package models

import "time"

// Campaign groups posts of one tenant under a shared goal.
type Campaign struct {
	ID              int64          `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description,omitempty"`
	CampaignType    string         `db:"campaign_type" json:"campaign_type"`
	Status          string         `db:"status" json:"status"`
	StartDate       *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate         *time.Time     `db:"end_date" json:"end_date,omitempty"`
	TargetPlatforms []string       `db:"target_platforms" json:"target_platforms"`
	Goals           map[string]any `db:"goals" json:"goals,omitempty"`
	Tags            []string       `db:"tags" json:"tags"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
)

const (
	CampaignTypeAwareness   = "awareness"
	CampaignTypeFundraising = "fundraising"
	CampaignTypeEvent       = "event"
	CampaignTypeGeneral     = "general"
)

type CampaignFilter struct {
	Status       string
	CampaignType string
	Limit        int
	Offset       int
}

// CampaignAnalytics is the latest-snapshot rollup of a campaign's posts.
type CampaignAnalytics struct {
	CampaignID int64            `json:"campaign_id"`
	PostCounts map[string]int64 `json:"post_counts"`
	Summary    AnalyticsSummary `json:"summary"`
}
