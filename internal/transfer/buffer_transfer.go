package transfer

type BufferMedia struct {
	Photo     string `json:"photo,omitempty"`
	Link      string `json:"link,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type BufferCreateUpdate struct {
	ProfileIDs  []string     `json:"profile_ids"`
	Text        string       `json:"text"`
	Shorten     bool         `json:"shorten"`
	Now         bool         `json:"now"`
	Media       *BufferMedia `json:"media,omitempty"`
	ScheduledAt int64        `json:"scheduled_at,omitempty"`
}

type BufferEditUpdate struct {
	Text        string       `json:"text,omitempty"`
	Media       *BufferMedia `json:"media,omitempty"`
	ScheduledAt int64        `json:"scheduled_at,omitempty"`
}
