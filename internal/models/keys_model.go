package models

import "time"

// ApiKey is stored as a hash. Key carries the plaintext only in the response
// that creates it.
type ApiKey struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Prefix     string     `db:"key_prefix" json:"prefix"`
	KeyHash    string     `db:"key_hash" json:"-"`
	Key        string     `db:"-" json:"key,omitempty"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
