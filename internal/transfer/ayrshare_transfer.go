package transfer

type AyrsharePost struct {
	Post         string   `json:"post"`
	Platforms    []string `json:"platforms"`
	MediaURLs    []string `json:"mediaUrls,omitempty"`
	IsVideo      bool     `json:"isVideo,omitempty"`
	ScheduleDate string   `json:"scheduleDate,omitempty"`
	ShortenLinks bool     `json:"shortenLinks"`
	Title        string   `json:"title,omitempty"`
}

type AyrshareUpdate struct {
	ID           string   `json:"id"`
	Post         string   `json:"post,omitempty"`
	MediaURLs    []string `json:"mediaUrls,omitempty"`
	ScheduleDate string   `json:"scheduleDate,omitempty"`
}
