package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

const (
	BufferName       = "buffer"
	DefaultBufferURL = "https://api.bufferapp.com/1"
)

type BufferAdapter struct {
	client *Client
}

var (
	_ Adapter                = (*BufferAdapter)(nil)
	_ StatusChecker          = (*BufferAdapter)(nil)
	_ ProfileAnalyticsReader = (*BufferAdapter)(nil)
)

func NewBufferAdapter(creds Credentials, opts ClientOptions) (*BufferAdapter, error) {
	if creds.Token == "" {
		return nil, fmt.Errorf("%s: %w", BufferName, ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBufferURL
	}
	token := creds.Token
	client := NewClient(BufferName, opts, func(r *resty.Request) {
		r.SetQueryParam("access_token", token)
	})
	return &BufferAdapter{client: client}, nil
}

func (a *BufferAdapter) Name() string { return BufferName }

func (a *BufferAdapter) Authenticate(ctx context.Context) (*AccountInfo, error) {
	obj, err := a.client.Object(ctx, http.MethodGet, "/user.json", nil, nil)
	if err != nil {
		return nil, err
	}
	return &AccountInfo{
		ID:          str(obj, "id", "_id"),
		Name:        str(obj, "name", "email"),
		RawMetadata: obj,
	}, nil
}

func (a *BufferAdapter) TestConnection(ctx context.Context) bool {
	if _, err := a.Authenticate(ctx); err != nil {
		slog.Warn("buffer connection test failed", "error", err)
		return false
	}
	return true
}

func (a *BufferAdapter) ListProfiles(ctx context.Context) ([]Profile, error) {
	items, err := a.client.List(ctx, http.MethodGet, "/profiles.json", nil, "profiles")
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(items))
	for _, item := range items {
		profiles = append(profiles, bufferProfile(item))
	}
	return profiles, nil
}

func bufferProfile(m map[string]any) Profile {
	return Profile{
		ID:          str(m, "id", "_id"),
		Platform:    models.NormalizePlatform(str(m, "service")),
		Handle:      str(m, "service_username", "username", "formatted_username"),
		DisplayName: str(m, "formatted_service", "service_username", "formatted_username"),
		IsActive:    !boolean(m, false, "disabled"),
		RawMetadata: rawMetadata(m, "id", "_id", "service", "disabled"),
	}
}

// bufferMedia keeps the single photo, link and thumbnail Buffer accepts.
func bufferMedia(media *Media) *transfer.BufferMedia {
	if media.Empty() {
		return nil
	}
	out := &transfer.BufferMedia{Link: media.Link, Thumbnail: media.Thumbnail}
	if len(media.Photos) > 0 {
		out.Photo = media.Photos[0]
		if len(media.Photos) > 1 {
			slog.Warn("buffer accepts one photo per update, dropping the rest", "dropped", len(media.Photos)-1)
		}
	}
	if len(media.Videos) > 0 {
		slog.Warn("buffer does not accept video media, dropping", "dropped", len(media.Videos))
	}
	if out.Photo == "" && out.Link == "" && out.Thumbnail == "" {
		return nil
	}
	return out
}

func (a *BufferAdapter) CreatePost(ctx context.Context, profileIDs []string, text string, media *Media, scheduledAt *time.Time, opts PostOptions) (*PostResult, error) {
	req := transfer.BufferCreateUpdate{
		ProfileIDs: profileIDs,
		Text:       text,
		Shorten:    opts.Shorten,
		Now:        scheduledAt == nil,
		Media:      bufferMedia(media),
	}
	if scheduledAt != nil {
		req.ScheduledAt = scheduledAt.Unix()
	}

	raw, err := a.client.Request(ctx, http.MethodPost, "/updates/create.json", req, nil)
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(BufferName, raw)
	if err != nil {
		return nil, err
	}
	if !boolean(obj, true, "success") {
		return nil, newResponseError(BufferName, http.StatusOK, obj, raw)
	}

	requested := stringSet(profileIDs)
	updates := objectsAt(obj, "updates")
	result := &PostResult{
		Profiles:    make(map[string]string, len(profileIDs)),
		ScheduledAt: scheduledAt,
		RawMetadata: rawMetadata(obj, "success"),
	}
	for i, u := range updates {
		id := str(u, "id", "_id")
		pid := str(u, "profile_id")
		if pid == "" && i < len(profileIDs) {
			pid = profileIDs[i]
		}
		if _, ok := requested[pid]; !ok || id == "" {
			continue
		}
		result.Profiles[pid] = id
		if result.ID == "" {
			result.ID = id
		}
	}
	if result.ID == "" {
		result.ID = str(obj, "id", "_id")
		if result.ID != "" && len(updates) == 0 {
			for _, pid := range profileIDs {
				result.Profiles[pid] = result.ID
			}
		}
	}
	if result.ID == "" {
		return nil, &ProviderError{
			Provider:    BufferName,
			Message:     "response did not include an update id",
			StatusCode:  http.StatusOK,
			RawResponse: string(raw),
			Kind:        KindValidation,
		}
	}

	if scheduledAt == nil {
		result.Status = ResultPublished
	} else {
		result.Status = ResultScheduled
	}
	return result, nil
}

func (a *BufferAdapter) UpdatePost(ctx context.Context, providerID string, fields PostUpdate) (*PostResult, error) {
	req := transfer.BufferEditUpdate{Media: bufferMedia(fields.Media)}
	if fields.Text != nil {
		req.Text = *fields.Text
	}
	if fields.ScheduledAt != nil {
		req.ScheduledAt = fields.ScheduledAt.Unix()
	}

	path := fmt.Sprintf("/updates/%s/update.json", url.PathEscape(providerID))
	raw, err := a.client.Request(ctx, http.MethodPost, path, req, nil)
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(BufferName, raw)
	if err != nil {
		return nil, err
	}
	if !boolean(obj, true, "success") {
		return nil, newResponseError(BufferName, http.StatusOK, obj, raw)
	}

	update := objectAt(obj, "update")
	if update == nil {
		update = obj
	}
	return bufferResult(providerID, update, fields.ScheduledAt), nil
}

func bufferResult(providerID string, update map[string]any, fallback *time.Time) *PostResult {
	id := str(update, "id", "_id")
	if id == "" {
		id = providerID
	}
	result := &PostResult{
		ID:          id,
		Status:      bufferStatus(str(update, "status")),
		ScheduledAt: timestamp(update, "due_at", "scheduled_at"),
		Profiles:    map[string]string{},
		RawMetadata: rawMetadata(update, "id", "_id", "status"),
	}
	if result.ScheduledAt == nil {
		result.ScheduledAt = fallback
	}
	if pid := str(update, "profile_id"); pid != "" {
		result.Profiles[pid] = id
	}
	return result
}

func bufferStatus(s string) string {
	switch s {
	case "sent", "service":
		return ResultPublished
	case "error", "failed":
		return ResultFailed
	case "draft":
		return ResultDraft
	default:
		return ResultScheduled
	}
}

func (a *BufferAdapter) DeletePost(ctx context.Context, providerID string) (*Ack, error) {
	path := fmt.Sprintf("/updates/%s/destroy.json", url.PathEscape(providerID))
	raw, err := a.client.Request(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject(BufferName, raw)
	if err != nil {
		return nil, err
	}
	if !boolean(obj, true, "success") {
		return nil, newResponseError(BufferName, http.StatusOK, obj, raw)
	}
	return &Ack{ID: providerID, Deleted: true, RawMetadata: obj}, nil
}

func (a *BufferAdapter) GetPostStatus(ctx context.Context, providerID string) (*PostResult, error) {
	obj, err := a.client.Object(ctx, http.MethodGet, fmt.Sprintf("/updates/%s.json", url.PathEscape(providerID)), nil, nil)
	if err != nil {
		return nil, err
	}
	return bufferResult(providerID, obj, nil), nil
}

func (a *BufferAdapter) GetPostAnalytics(ctx context.Context, providerID string) (*AnalyticsSnapshot, error) {
	obj, err := a.client.Object(ctx, http.MethodGet, fmt.Sprintf("/updates/%s.json", url.PathEscape(providerID)), nil, nil)
	if err != nil {
		return nil, err
	}
	stats := objectAt(obj, "statistics")
	if stats == nil {
		stats = map[string]any{}
	}
	snap := &AnalyticsSnapshot{
		PostID:      providerID,
		Likes:       integer(stats, "likes", "favorites"),
		Comments:    integer(stats, "comments", "replies", "mentions"),
		Shares:      integer(stats, "shares", "retweets", "reshares", "repins"),
		Clicks:      integer(stats, "clicks"),
		Reach:       integer(stats, "reach"),
		Impressions: integer(stats, "impressions"),
		RetrievedAt: time.Now().UTC(),
		Raw:         obj,
	}
	snap.EngagementRate = engagementRate(float(stats, "engagement_rate", "engagementRate"), snap)
	return snap, nil
}

func (a *BufferAdapter) GetProfileAnalytics(ctx context.Context, profileID string) (map[string]any, error) {
	return a.client.Object(ctx, http.MethodGet, fmt.Sprintf("/profiles/%s/analytics.json", url.PathEscape(profileID)), nil, nil)
}
