package models

import (
	"strings"
	"time"
)

type SocialAccount struct {
	ID                int64      `db:"id" json:"id"`
	UserID            int64      `db:"user_id" json:"user_id"`
	Platform          string     `db:"platform" json:"platform"`
	AccountName       string     `db:"account_name" json:"account_name"`
	AccountHandle     string     `db:"account_handle" json:"account_handle"`
	Status            string     `db:"status" json:"status"`
	ProviderProfileID string     `db:"provider_profile_id" json:"provider_profile_id,omitempty"`
	AccessToken       string     `db:"access_token" json:"-"`
	RefreshToken      string     `db:"refresh_token" json:"-"`
	TokenExpiresAt    *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	IsPrimary         bool       `db:"is_primary" json:"is_primary"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

type SelectedAccount struct {
	PostID    int64     `db:"post_id" json:"post_id"`
	AccountID int64     `db:"account_id" json:"account_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	AccountStatusActive       = "active"
	AccountStatusInactive     = "inactive"
	AccountStatusDisconnected = "disconnected"
	AccountStatusError        = "error"
)

const (
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
	PlatformLinkedIn  = "linkedin"
	PlatformTikTok    = "tiktok"
	PlatformYouTube   = "youtube"
)

var Platforms = []string{
	PlatformFacebook,
	PlatformTwitter,
	PlatformInstagram,
	PlatformLinkedIn,
	PlatformTikTok,
	PlatformYouTube,
}

// NormalizePlatform lowercases a vendor platform token and folds known aliases.
func NormalizePlatform(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "x", "x.com":
		return PlatformTwitter
	case "fb":
		return PlatformFacebook
	case "ig":
		return PlatformInstagram
	}
	return p
}

func IsSupportedPlatform(p string) bool {
	for _, v := range Platforms {
		if v == p {
			return true
		}
	}
	return false
}
