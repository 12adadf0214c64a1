package transfer

import "time"

type CampaignCreation struct {
	Name            string         `json:"name" validate:"required,max=200"`
	Description     string         `json:"description" validate:"max=2000"`
	CampaignType    string         `json:"campaign_type" validate:"omitempty,oneof=awareness fundraising event general"`
	StartDate       *time.Time     `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"`
	TargetPlatforms []string       `json:"target_platforms" validate:"omitempty,dive,oneof=facebook twitter instagram linkedin tiktok youtube"`
	Goals           map[string]any `json:"goals"`
	Tags            []string       `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// CampaignUpdate changes only the fields that are set.
type CampaignUpdate struct {
	Name            *string        `json:"name" validate:"omitempty,min=1,max=200"`
	Description     *string        `json:"description" validate:"omitempty,max=2000"`
	CampaignType    *string        `json:"campaign_type" validate:"omitempty,oneof=awareness fundraising event general"`
	Status          *string        `json:"status" validate:"omitempty,oneof=draft active completed cancelled"`
	StartDate       *time.Time     `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"`
	TargetPlatforms []string       `json:"target_platforms" validate:"omitempty,dive,oneof=facebook twitter instagram linkedin tiktok youtube"`
	Goals           map[string]any `json:"goals"`
	Tags            []string       `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}
