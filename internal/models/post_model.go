package models

import "time"

type Post struct {
	ID              int64             `db:"id" json:"id"`
	UserID          int64             `db:"user_id" json:"user_id"`
	CampaignID      *int64            `db:"campaign_id" json:"campaign_id,omitempty"`
	PostType        string            `db:"post_type" json:"post_type"`
	Title           string            `db:"title" json:"title"`
	Content         string            `db:"content" json:"content"`
	MediaURLs       []string          `db:"media_urls" json:"media_urls"`
	Link            string            `db:"link" json:"link,omitempty"`
	Platforms       []string          `db:"platforms" json:"platforms"`
	ScheduledTime   time.Time         `db:"scheduled_time" json:"scheduled_time"`
	PublishedTime   *time.Time        `db:"published_time" json:"published_time"`
	Status          string            `db:"status" json:"status"` // draft, scheduled, published, failed, cancelled
	ProviderType    string            `db:"provider_type" json:"provider_type,omitempty"`
	ProviderPostIDs map[string]string `db:"provider_post_ids" json:"provider_post_ids"`
	ErrorMessage    string            `db:"error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`

	Accounts []*SocialAccount `db:"-" json:"accounts,omitempty"`
	Events   []*PostEvent     `db:"-" json:"events,omitempty"`
}

type MediaAsset struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileType     string    `db:"file_type" json:"file_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	FileURL      string    `db:"file_url" json:"file_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
	PostStatusCancelled = "cancelled"
)

const (
	PostTypeText     = "text"
	PostTypeImage    = "image"
	PostTypeVideo    = "video"
	PostTypeLink     = "link"
	PostTypeCarousel = "carousel"
)

// ProviderPostIDList returns the distinct remote ids recorded for the post.
// Ayrshare maps every account to the same id, Buffer creates one per profile.
func (p *Post) ProviderPostIDList() []string {
	seen := make(map[string]struct{}, len(p.ProviderPostIDs))
	var ids []string
	for _, id := range p.ProviderPostIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (p *Post) Clone() *Post {
	cp := *p
	cp.MediaURLs = append([]string(nil), p.MediaURLs...)
	cp.Platforms = append([]string(nil), p.Platforms...)
	if p.ProviderPostIDs != nil {
		cp.ProviderPostIDs = make(map[string]string, len(p.ProviderPostIDs))
		for k, v := range p.ProviderPostIDs {
			cp.ProviderPostIDs[k] = v
		}
	}
	if p.PublishedTime != nil {
		t := *p.PublishedTime
		cp.PublishedTime = &t
	}
	return &cp
}
