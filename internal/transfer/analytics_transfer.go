package transfer

type AnalyticsSyncRequest struct {
	LookbackDays int `json:"lookback_days" validate:"omitempty,gt=0,lte=365"`
}

type AnalyticsIngest struct {
	PostID         int64          `json:"post_id" validate:"required,gt=0"`
	AccountID      int64          `json:"account_id" validate:"required,gt=0"`
	Likes          int64          `json:"likes" validate:"gte=0"`
	Comments       int64          `json:"comments" validate:"gte=0"`
	Shares         int64          `json:"shares" validate:"gte=0"`
	Clicks         int64          `json:"clicks" validate:"gte=0"`
	Reach          int64          `json:"reach" validate:"gte=0"`
	Impressions    int64          `json:"impressions" validate:"gte=0"`
	EngagementRate float64        `json:"engagement_rate" validate:"gte=0"`
	RawData        map[string]any `json:"raw_data"`
}
