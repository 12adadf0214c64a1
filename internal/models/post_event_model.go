package models

import "time"

// PostEvent is one entry of a post's append-only audit log.
type PostEvent struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Kind      string    `db:"kind" json:"kind"`
	Detail    string    `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	EventScheduleAttempt = "schedule_attempt"
	EventScheduled       = "scheduled"
	EventPublishAttempt  = "publish_attempt"
	EventPublished       = "published"
	EventFailed          = "failed"
	EventCancelAttempt   = "cancel_attempt"
	EventCancelled       = "cancelled"
	EventCancelFailed    = "cancel_failed"
	EventConfirmed       = "confirmed"
	EventRemoteRollback  = "remote_rollback"
	EventEdited          = "edited"
	EventEditFailed      = "edit_failed"
)
