package transfer

import "time"

type PostCreation struct {
	Title         string    `json:"title" validate:"max=200"`
	Content       string    `json:"content" validate:"required,max=5000"`
	PostType      string    `json:"post_type" validate:"omitempty,oneof=text image video link carousel"`
	MediaURLs     []string  `json:"media_urls" validate:"omitempty,max=10,dive,url"`
	Link          string    `json:"link" validate:"omitempty,url"`
	Platforms     []string  `json:"platforms" validate:"omitempty,dive,oneof=facebook twitter instagram linkedin tiktok youtube"`
	ScheduledTime time.Time `json:"scheduled_time" validate:"required"`
	CampaignID    *int64    `json:"campaign_id,omitempty"`
	AccountIDs    []int64   `json:"account_ids" validate:"required,min=1,dive,gt=0"`
}

type BulkPostRequest struct {
	Posts     []*PostCreation `json:"posts" validate:"required,min=1,max=100"`
	Immediate bool            `json:"schedule_immediately"`
}

type IDRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// PostEdit changes only the fields that are set.
type PostEdit struct {
	Title         *string    `json:"title" validate:"omitempty,max=200"`
	Content       *string    `json:"content" validate:"omitempty,min=1,max=5000"`
	MediaURLs     []string   `json:"media_urls" validate:"omitempty,max=10,dive,url"`
	Link          *string    `json:"link" validate:"omitempty,url"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

func (e *PostEdit) Empty() bool {
	return e == nil || (e.Title == nil && e.Content == nil && e.MediaURLs == nil && e.Link == nil && e.ScheduledTime == nil)
}
