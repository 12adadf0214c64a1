package provider

import (
	"context"
	"time"
)

// Adapter is the vendor-neutral contract every provider implements.
type Adapter interface {
	Name() string
	Authenticate(ctx context.Context) (*AccountInfo, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	// CreatePost publishes immediately when scheduledAt is nil.
	CreatePost(ctx context.Context, profileIDs []string, text string, media *Media, scheduledAt *time.Time, opts PostOptions) (*PostResult, error)
	UpdatePost(ctx context.Context, providerID string, fields PostUpdate) (*PostResult, error)
	DeletePost(ctx context.Context, providerID string) (*Ack, error)
	GetPostAnalytics(ctx context.Context, providerID string) (*AnalyticsSnapshot, error)
	// TestConnection never fails; any authentication error reports false.
	TestConnection(ctx context.Context) bool
}

// StatusChecker is implemented by adapters that can report the remote state
// of a post.
type StatusChecker interface {
	GetPostStatus(ctx context.Context, providerID string) (*PostResult, error)
}

type HistoryLister interface {
	History(ctx context.Context, lastDays int, platform string) ([]PostResult, error)
}

type ProfileAnalyticsReader interface {
	GetProfileAnalytics(ctx context.Context, profileID string) (map[string]any, error)
}

type Credentials struct {
	Token      string
	ProfileKey string
}

type AccountInfo struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	RawMetadata map[string]any `json:"raw_metadata,omitempty"`
}

type Profile struct {
	ID          string         `json:"id"`
	Platform    string         `json:"platform"`
	Handle      string         `json:"handle"`
	DisplayName string         `json:"display_name"`
	IsActive    bool           `json:"is_active"`
	RawMetadata map[string]any `json:"raw_metadata,omitempty"`
}

type Media struct {
	Photos    []string `json:"photos,omitempty"`
	Videos    []string `json:"videos,omitempty"`
	Link      string   `json:"link,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty"`
}

func (m *Media) Empty() bool {
	return m == nil || (len(m.Photos) == 0 && len(m.Videos) == 0 && m.Link == "" && m.Thumbnail == "")
}

type PostOptions struct {
	Shorten bool
	Title   string
}

type PostUpdate struct {
	Text        *string
	Media       *Media
	ScheduledAt *time.Time
}

const (
	ResultScheduled = "scheduled"
	ResultPublished = "published"
	ResultDraft     = "draft"
	ResultFailed    = "failed"
)

// PostResult is the normalized outcome of a create, update or status call.
// Profiles maps each requested profile id to the remote post id created for it.
type PostResult struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	Profiles    map[string]string `json:"profiles"`
	RawMetadata map[string]any    `json:"raw_metadata,omitempty"`
}

type Ack struct {
	ID          string         `json:"id"`
	Deleted     bool           `json:"deleted"`
	RawMetadata map[string]any `json:"raw_metadata,omitempty"`
}

type AnalyticsSnapshot struct {
	PostID         string         `json:"post_id"`
	Likes          int64          `json:"likes"`
	Comments       int64          `json:"comments"`
	Shares         int64          `json:"shares"`
	Clicks         int64          `json:"clicks"`
	Reach          int64          `json:"reach"`
	Impressions    int64          `json:"impressions"`
	EngagementRate float64        `json:"engagement_rate"`
	RetrievedAt    time.Time      `json:"retrieved_at"`
	Raw            map[string]any `json:"raw,omitempty"`
}
