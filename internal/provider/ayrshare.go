package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

const (
	AyrshareName       = "ayrshare"
	DefaultAyrshareURL = "https://app.ayrshare.com/api"
)

// AyrshareAdapter addresses profiles by platform name, so one Ayrshare post id
// covers every requested profile.
type AyrshareAdapter struct {
	client *Client
}

var (
	_ Adapter       = (*AyrshareAdapter)(nil)
	_ StatusChecker = (*AyrshareAdapter)(nil)
	_ HistoryLister = (*AyrshareAdapter)(nil)
)

func NewAyrshareAdapter(creds Credentials, opts ClientOptions) (*AyrshareAdapter, error) {
	if creds.Token == "" {
		return nil, fmt.Errorf("%s: %w", AyrshareName, ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAyrshareURL
	}
	apiKey, profileKey := creds.Token, creds.ProfileKey
	client := NewClient(AyrshareName, opts, func(r *resty.Request) {
		r.SetAuthToken(apiKey)
		if profileKey != "" {
			r.SetHeader("Profile-Key", profileKey)
		}
	})
	return &AyrshareAdapter{client: client}, nil
}

func (a *AyrshareAdapter) Name() string { return AyrshareName }

func (a *AyrshareAdapter) Authenticate(ctx context.Context) (*AccountInfo, error) {
	obj, err := a.client.Object(ctx, http.MethodGet, "/user", nil, nil)
	if err != nil {
		return nil, err
	}
	return &AccountInfo{
		ID:          str(obj, "refId", "id", "email"),
		Name:        str(obj, "displayName", "title", "email"),
		RawMetadata: obj,
	}, nil
}

func (a *AyrshareAdapter) TestConnection(ctx context.Context) bool {
	if _, err := a.Authenticate(ctx); err != nil {
		slog.Warn("ayrshare connection test failed", "error", err)
		return false
	}
	return true
}

func (a *AyrshareAdapter) ListProfiles(ctx context.Context) ([]Profile, error) {
	items, err := a.client.List(ctx, http.MethodGet, "/profiles", nil, "profiles")
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(items))
	for _, item := range items {
		profiles = append(profiles, ayrshareProfile(item))
	}
	return profiles, nil
}

func ayrshareProfile(m map[string]any) Profile {
	platform := models.NormalizePlatform(str(m, "platform", "type"))
	id := str(m, "id", "profileKey")
	if id == "" {
		id = platform
	}
	return Profile{
		ID:          id,
		Platform:    platform,
		Handle:      str(m, "handle", "username"),
		DisplayName: str(m, "displayName", "name", "title"),
		IsActive:    boolean(m, true, "active", "isActive"),
		RawMetadata: rawMetadata(m, "id", "profileKey", "platform", "type", "active", "isActive"),
	}
}

func ayrshareMedia(text string, media *Media) (string, []string, bool) {
	if media.Empty() {
		return text, nil, false
	}
	urls := append([]string{}, media.Photos...)
	urls = append(urls, media.Videos...)
	if media.Link != "" && !strings.Contains(text, media.Link) {
		text = strings.TrimSpace(text + "\n\n" + media.Link)
	}
	if media.Thumbnail != "" {
		slog.Warn("ayrshare does not accept a thumbnail, dropping")
	}
	return text, urls, len(media.Videos) > 0
}

func (a *AyrshareAdapter) CreatePost(ctx context.Context, profileIDs []string, text string, media *Media, scheduledAt *time.Time, opts PostOptions) (*PostResult, error) {
	body, urls, isVideo := ayrshareMedia(text, media)
	req := transfer.AyrsharePost{
		Post:         body,
		Platforms:    profileIDs,
		MediaURLs:    urls,
		IsVideo:      isVideo,
		ShortenLinks: opts.Shorten,
		Title:        opts.Title,
	}
	if scheduledAt != nil {
		req.ScheduleDate = scheduledAt.UTC().Format(time.RFC3339)
	}

	raw, err := a.client.Request(ctx, http.MethodPost, "/post", req, nil)
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(AyrshareName, raw)
	if err != nil {
		return nil, err
	}

	id := str(obj, "id", "postId")
	status := strings.ToLower(str(obj, "status"))
	if id == "" {
		if status == "error" {
			return nil, newResponseError(AyrshareName, http.StatusOK, obj, raw)
		}
		return nil, &ProviderError{
			Provider:    AyrshareName,
			Message:     "response did not include a post id",
			StatusCode:  http.StatusOK,
			RawResponse: string(raw),
			Kind:        KindValidation,
		}
	}

	// Platforms Ayrshare rejected are reported in errors[] or as errored postIds.
	rejected := map[string]struct{}{}
	for _, e := range objectsAt(obj, "errors") {
		if p := models.NormalizePlatform(str(e, "platform")); p != "" {
			rejected[p] = struct{}{}
		}
	}
	for _, p := range objectsAt(obj, "postIds") {
		if strings.EqualFold(str(p, "status"), "error") {
			rejected[models.NormalizePlatform(str(p, "platform"))] = struct{}{}
		}
	}

	result := &PostResult{
		ID:          id,
		ScheduledAt: scheduledAt,
		Profiles:    make(map[string]string, len(profileIDs)),
		RawMetadata: rawMetadata(obj, "id", "postId", "status"),
	}
	for _, pid := range profileIDs {
		if _, bad := rejected[models.NormalizePlatform(pid)]; bad {
			continue
		}
		result.Profiles[pid] = id
	}

	switch {
	case status == "scheduled" || scheduledAt != nil:
		result.Status = ResultScheduled
	default:
		result.Status = ResultPublished
	}
	return result, nil
}

func (a *AyrshareAdapter) UpdatePost(ctx context.Context, providerID string, fields PostUpdate) (*PostResult, error) {
	req := transfer.AyrshareUpdate{ID: providerID}
	if fields.Text != nil {
		req.Post = *fields.Text
	}
	if !fields.Media.Empty() {
		req.MediaURLs = append(append([]string{}, fields.Media.Photos...), fields.Media.Videos...)
	}
	if fields.ScheduledAt != nil {
		req.ScheduleDate = fields.ScheduledAt.UTC().Format(time.RFC3339)
	}

	obj, err := a.client.Object(ctx, http.MethodPut, "/post", req, nil)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(str(obj, "status"), "error") {
		return nil, newResponseError(AyrshareName, http.StatusOK, obj, nil)
	}
	result := ayrshareResult(providerID, obj)
	if result.ScheduledAt == nil {
		result.ScheduledAt = fields.ScheduledAt
	}
	return result, nil
}

func ayrshareResult(providerID string, obj map[string]any) *PostResult {
	id := str(obj, "id", "postId")
	if id == "" {
		id = providerID
	}
	result := &PostResult{
		ID:          id,
		Status:      ayrshareStatus(str(obj, "status")),
		ScheduledAt: timestamp(obj, "scheduleDate", "scheduledDate"),
		Profiles:    map[string]string{},
		RawMetadata: rawMetadata(obj, "id", "postId", "status"),
	}
	if platforms, ok := obj["platforms"].([]any); ok {
		for _, p := range platforms {
			if s, ok := p.(string); ok && s != "" {
				result.Profiles[s] = id
			}
		}
	}
	return result
}

func ayrshareStatus(s string) string {
	switch strings.ToLower(s) {
	case "success", "published", "posted":
		return ResultPublished
	case "error", "failed", "deleted":
		return ResultFailed
	case "draft":
		return ResultDraft
	default:
		return ResultScheduled
	}
}

func (a *AyrshareAdapter) DeletePost(ctx context.Context, providerID string) (*Ack, error) {
	obj, err := a.client.Object(ctx, http.MethodDelete, "/post/"+url.PathEscape(providerID), nil, nil)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(str(obj, "status"), "error") {
		return nil, newResponseError(AyrshareName, http.StatusOK, obj, nil)
	}
	return &Ack{ID: providerID, Deleted: true, RawMetadata: obj}, nil
}

func (a *AyrshareAdapter) GetPostStatus(ctx context.Context, providerID string) (*PostResult, error) {
	obj, err := a.client.Object(ctx, http.MethodGet, "/post/"+url.PathEscape(providerID), nil, nil)
	if err != nil {
		return nil, err
	}
	return ayrshareResult(providerID, obj), nil
}

func (a *AyrshareAdapter) GetPostAnalytics(ctx context.Context, providerID string) (*AnalyticsSnapshot, error) {
	obj, err := a.client.Object(ctx, http.MethodGet, "/analytics/post", nil, url.Values{"id": {providerID}})
	if err != nil {
		return nil, err
	}

	snap := &AnalyticsSnapshot{PostID: providerID, RetrievedAt: time.Now().UTC(), Raw: obj}
	var supplied float64
	if flat := objectAt(obj, "analytics"); flat != nil {
		supplied = addAyrshareCounters(snap, flat)
	} else {
		// Per-platform shape: {"twitter": {"analytics": {...}}, ...}
		var rates []float64
		for _, v := range obj {
			platform, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if counters := objectAt(platform, "analytics"); counters != nil {
				if r := addAyrshareCounters(snap, counters); r > 0 {
					rates = append(rates, r)
				}
			}
		}
		for _, r := range rates {
			supplied += r
		}
		if len(rates) > 0 {
			supplied /= float64(len(rates))
		}
	}
	snap.EngagementRate = engagementRate(supplied, snap)
	return snap, nil
}

func addAyrshareCounters(s *AnalyticsSnapshot, m map[string]any) float64 {
	s.Likes += integer(m, "likes", "likeCount", "favoriteCount", "reactions")
	s.Comments += integer(m, "comments", "commentCount", "commentsCount", "replyCount")
	s.Shares += integer(m, "shares", "shareCount", "sharesCount", "retweetCount")
	s.Clicks += integer(m, "clicks", "clickCount", "linkClicks")
	s.Reach += integer(m, "reach", "reachCount")
	s.Impressions += integer(m, "impressions", "impressionCount", "impressionsCount", "viewCount", "views")
	return float(m, "engagementRate", "engagement_rate")
}

func (a *AyrshareAdapter) History(ctx context.Context, lastDays int, platform string) ([]PostResult, error) {
	query := url.Values{}
	if lastDays > 0 {
		query.Set("lastDays", strconv.Itoa(lastDays))
	}
	if platform != "" {
		query.Set("platform", platform)
	}
	items, err := a.client.List(ctx, http.MethodGet, "/history", query, "history", "posts")
	if err != nil {
		return nil, err
	}
	results := make([]PostResult, 0, len(items))
	for _, item := range items {
		results = append(results, *ayrshareResult("", item))
	}
	return results, nil
}
