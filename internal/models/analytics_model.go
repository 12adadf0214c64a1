package models

import "time"

// AnalyticsRecord is an immutable metrics snapshot for one (post, account) pair.
type AnalyticsRecord struct {
	ID             int64          `db:"id" json:"id"`
	PostID         int64          `db:"post_id" json:"post_id"`
	AccountID      int64          `db:"account_id" json:"account_id"`
	UserID         int64          `db:"user_id" json:"user_id"`
	Platform       string         `db:"platform" json:"platform"`
	ProviderPostID string         `db:"provider_post_id" json:"provider_post_id"`
	Likes          int64          `db:"likes" json:"likes"`
	Comments       int64          `db:"comments" json:"comments"`
	Shares         int64          `db:"shares" json:"shares"`
	Clicks         int64          `db:"clicks" json:"clicks"`
	Reach          int64          `db:"reach" json:"reach"`
	Impressions    int64          `db:"impressions" json:"impressions"`
	EngagementRate float64        `db:"engagement_rate" json:"engagement_rate"`
	CollectedAt    time.Time      `db:"collected_at" json:"collected_at"`
	RawData        map[string]any `db:"raw_data" json:"raw_data,omitempty"`
}

type AnalyticsSummary struct {
	Records               int64   `json:"records"`
	Posts                 int64   `json:"posts"`
	Likes                 int64   `json:"likes"`
	Comments              int64   `json:"comments"`
	Shares                int64   `json:"shares"`
	Clicks                int64   `json:"clicks"`
	Reach                 int64   `json:"reach"`
	Impressions           int64   `json:"impressions"`
	AverageEngagementRate float64 `json:"average_engagement_rate"`
}
