package transfer

import "time"

type ProviderConfigInput struct {
	ProviderType   string     `json:"provider_type" validate:"required"`
	AccessToken    string     `json:"access_token" validate:"required"`
	RefreshToken   string     `json:"refresh_token"`
	ProfileKey     string     `json:"profile_key"`
	OrganizationID string     `json:"organization_id"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`
}

type ConnectionStatus struct {
	ProviderType string `json:"provider_type"`
	Connected    bool   `json:"connected"`
}
