package transfer

import "time"

type AccountCreation struct {
	Platform          string     `json:"platform" validate:"required,oneof=facebook twitter instagram linkedin tiktok youtube x"`
	AccountName       string     `json:"account_name" validate:"required,max=255"`
	AccountHandle     string     `json:"account_handle" validate:"required,max=255"`
	ProviderProfileID string     `json:"provider_profile_id"`
	AccessToken       string     `json:"access_token"`
	RefreshToken      string     `json:"refresh_token"`
	TokenExpiresAt    *time.Time `json:"token_expires_at"`
	IsPrimary         bool       `json:"is_primary"`
}

type AccountSyncRequest struct {
	ProviderType string `json:"provider_type"`
}

type AccountSyncResult struct {
	Profiles     int     `json:"profiles"`
	Matched      []int64 `json:"matched"`
	Disconnected []int64 `json:"disconnected"`
}
