package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/maheshrc27/postbridge/internal/metrics"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/internal/transfer"
	"golang.org/x/sync/errgroup"
)

const defaultLookbackDays = 7

// AnalyticsService pulls provider metrics for published posts and appends
// them as immutable snapshots.
type AnalyticsService interface {
	SyncOne(ctx context.Context, userID, postID int64) ([]*models.AnalyticsRecord, error)
	SyncBulk(ctx context.Context, userID int64, lookbackDays int) (*SyncResult, error)
	SyncAll(ctx context.Context, lookbackDays int) error
	Ingest(ctx context.Context, userID int64, in *transfer.AnalyticsIngest) (*models.AnalyticsRecord, error)
	ListForPost(ctx context.Context, userID, postID int64) ([]*models.AnalyticsRecord, error)
	Summary(ctx context.Context, userID int64, start, end *time.Time) (*models.AnalyticsSummary, error)
	ProfileAnalytics(ctx context.Context, userID, accountID int64, providerType string) (*ProfileAnalytics, error)
	History(ctx context.Context, userID int64, providerType string, lastDays int, platform string) ([]provider.PostResult, error)
}

// ProfileAnalytics is the provider's account-level view of one social account.
type ProfileAnalytics struct {
	AccountID int64          `json:"account_id"`
	Platform  string         `json:"platform"`
	Provider  string         `json:"provider"`
	Metrics   map[string]any `json:"metrics"`
}

type SyncFailure struct {
	PostID  int64  `json:"post_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type SyncResult struct {
	Posts    int           `json:"posts"`
	Synced   int           `json:"synced"`
	Records  int           `json:"records"`
	Failures []SyncFailure `json:"failures"`
}

type AnalyticsOptions struct {
	ProviderTimeout time.Duration
	Concurrency     int
	LookbackDays    int
	Now             func() time.Time
}

type analyticsService struct {
	posts     repository.PostRepository
	accounts  repository.SocialAccountRepository
	records   repository.AnalyticsRepository
	configs   repository.ProviderConfigRepository
	providers ProviderConfigService
	opts      AnalyticsOptions
}

func NewAnalyticsService(
	posts repository.PostRepository,
	accounts repository.SocialAccountRepository,
	records repository.AnalyticsRepository,
	configs repository.ProviderConfigRepository,
	providers ProviderConfigService,
	opts AnalyticsOptions) AnalyticsService {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = provider.DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = defaultLookbackDays
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &analyticsService{
		posts:     posts,
		accounts:  accounts,
		records:   records,
		configs:   configs,
		providers: providers,
		opts:      opts,
	}
}

func (s *analyticsService) ownedPost(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("loading post %d: %w", postID, err)
	}
	if post == nil || post.UserID != userID {
		return nil, notFound("post %d not found", postID)
	}
	return post, nil
}

// SyncOne appends one record per (post, account) pair. Posts that are not
// published, or have no remote ids, have no analytics and yield nil without error.
func (s *analyticsService) SyncOne(ctx context.Context, userID, postID int64) ([]*models.AnalyticsRecord, error) {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	remoteIDs := post.ProviderPostIDList()
	if post.Status != models.PostStatusPublished || len(remoteIDs) == 0 {
		return nil, nil
	}

	accounts, err := s.accounts.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	platforms := make(map[string]string, len(accounts))
	for _, a := range accounts {
		platforms[strconv.FormatInt(a.ID, 10)] = a.Platform
	}

	adapter, err := s.providers.Resolve(ctx, userID, post.ProviderType)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*provider.AnalyticsSnapshot, len(remoteIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, id := range remoteIDs {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.opts.ProviderTimeout)
			defer cancel()
			snap, err := adapter.GetPostAnalytics(callCtx, id)
			if err != nil {
				return err
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, classify(err)
	}

	byRemote := make(map[string]*provider.AnalyticsSnapshot, len(remoteIDs))
	for i, id := range remoteIDs {
		byRemote[id] = snapshots[i]
	}

	accountKeys := make([]string, 0, len(post.ProviderPostIDs))
	for k := range post.ProviderPostIDs {
		accountKeys = append(accountKeys, k)
	}
	sort.Strings(accountKeys)

	collectedAt := s.opts.Now()
	records := make([]*models.AnalyticsRecord, 0, len(accountKeys))
	for _, key := range accountKeys {
		remoteID := post.ProviderPostIDs[key]
		snap := byRemote[remoteID]
		if snap == nil {
			continue
		}
		accountID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			slog.Warn("skipping malformed account key", "post_id", post.ID, "key", key)
			continue
		}

		rec := &models.AnalyticsRecord{
			PostID:         post.ID,
			AccountID:      accountID,
			UserID:         post.UserID,
			Platform:       platforms[key],
			ProviderPostID: remoteID,
			Likes:          snap.Likes,
			Comments:       snap.Comments,
			Shares:         snap.Shares,
			Clicks:         snap.Clicks,
			Reach:          snap.Reach,
			Impressions:    snap.Impressions,
			EngagementRate: snap.EngagementRate,
			CollectedAt:    collectedAt,
			RawData:        snap.Raw,
		}
		id, err := s.records.Create(ctx, rec)
		if err != nil {
			return records, fmt.Errorf("saving analytics for post %d: %w", post.ID, err)
		}
		rec.ID = id
		metrics.AnalyticsRecords.Inc()
		records = append(records, rec)
	}

	slog.Info("analytics synced", "post_id", post.ID, "provider", adapter.Name(), "records", len(records))
	return records, nil
}

// SyncBulk syncs every post published inside the lookback window. A failed
// post is reported in the result and never stops the batch.
func (s *analyticsService) SyncBulk(ctx context.Context, userID int64, lookbackDays int) (*SyncResult, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if lookbackDays <= 0 {
		lookbackDays = s.opts.LookbackDays
	}

	since := s.opts.Now().AddDate(0, 0, -lookbackDays)
	posts, err := s.posts.ListPublishedSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("listing published posts: %w", err)
	}

	result := &SyncResult{Posts: len(posts), Failures: []SyncFailure{}}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for _, p := range posts {
		g.Go(func() error {
			recs, err := s.SyncOne(ctx, userID, p.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				oe := classify(err)
				metrics.AnalyticsSyncFailures.Inc()
				slog.Warn("analytics sync failed", "post_id", p.ID, "kind", oe.Kind, "error", oe.Message)
				result.Failures = append(result.Failures, SyncFailure{PostID: p.ID, Kind: oe.Kind, Message: oe.Message})
				return nil
			}
			result.Synced++
			result.Records += len(recs)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].PostID < result.Failures[j].PostID })
	slog.Info("bulk analytics sync finished", "user_id", userID, "posts", result.Posts, "records", result.Records, "failures", len(result.Failures))
	return result, nil
}

// SyncAll runs SyncBulk for every tenant with an active provider.
func (s *analyticsService) SyncAll(ctx context.Context, lookbackDays int) error {
	userIDs, err := s.configs.ListActiveUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.SyncBulk(ctx, userID, lookbackDays); err != nil {
			slog.Warn("tenant analytics sync failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

// Ingest appends a record from counters supplied by the caller, for platforms
// whose metrics are not available through the provider.
func (s *analyticsService) Ingest(ctx context.Context, userID int64, in *transfer.AnalyticsIngest) (*models.AnalyticsRecord, error) {
	if in == nil {
		return nil, validationError("analytics data is empty")
	}
	post, err := s.ownedPost(ctx, userID, in.PostID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	var account *models.SocialAccount
	for _, a := range accounts {
		if a.ID == in.AccountID {
			account = a
			break
		}
	}
	if account == nil {
		return nil, validationError("account %d is not a target of post %d", in.AccountID, post.ID)
	}

	rec := &models.AnalyticsRecord{
		PostID:         post.ID,
		AccountID:      account.ID,
		UserID:         userID,
		Platform:       account.Platform,
		ProviderPostID: post.ProviderPostIDs[strconv.FormatInt(account.ID, 10)],
		Likes:          in.Likes,
		Comments:       in.Comments,
		Shares:         in.Shares,
		Clicks:         in.Clicks,
		Reach:          in.Reach,
		Impressions:    in.Impressions,
		EngagementRate: in.EngagementRate,
		CollectedAt:    s.opts.Now(),
		RawData:        in.RawData,
	}
	if rec.EngagementRate == 0 && rec.Impressions > 0 {
		interactions := rec.Likes + rec.Comments + rec.Shares + rec.Clicks
		rec.EngagementRate = math.Round(float64(interactions)/float64(rec.Impressions)*100*100) / 100
	}

	rec.ID, err = s.records.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("saving analytics: %w", err)
	}
	metrics.AnalyticsRecords.Inc()
	return rec, nil
}

func (s *analyticsService) ListForPost(ctx context.Context, userID, postID int64) ([]*models.AnalyticsRecord, error) {
	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.records.ListByPostID(ctx, postID)
}

func (s *analyticsService) Summary(ctx context.Context, userID int64, start, end *time.Time) (*models.AnalyticsSummary, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, validationError("end must not be before start")
	}
	return s.records.Summary(ctx, userID, start, end)
}

// ProfileAnalytics reads account-level metrics for an owned social account
// from providers that expose them.
func (s *analyticsService) ProfileAnalytics(ctx context.Context, userID, accountID int64, providerType string) (*ProfileAnalytics, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading account %d: %w", accountID, err)
	}
	if account == nil || account.UserID != userID {
		return nil, notFound("account %d not found", accountID)
	}
	if account.ProviderProfileID == "" {
		return nil, validationError("account %d is not linked to a provider profile", accountID)
	}

	adapter, err := s.providers.Resolve(ctx, userID, providerType)
	if err != nil {
		return nil, err
	}
	reader, ok := adapter.(provider.ProfileAnalyticsReader)
	if !ok {
		return nil, validationError("%s does not report profile analytics", adapter.Name())
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()
	data, err := reader.GetProfileAnalytics(callCtx, account.ProviderProfileID)
	if err != nil {
		return nil, classify(err)
	}
	return &ProfileAnalytics{AccountID: account.ID, Platform: account.Platform, Provider: adapter.Name(), Metrics: data}, nil
}

// History lists posts the provider knows about, including ones created
// outside this service.
func (s *analyticsService) History(ctx context.Context, userID int64, providerType string, lastDays int, platform string) ([]provider.PostResult, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if lastDays <= 0 {
		lastDays = s.opts.LookbackDays
	}
	if lastDays > 365 {
		return nil, validationError("days must not exceed 365")
	}
	if platform != "" {
		platform = models.NormalizePlatform(platform)
	}

	adapter, err := s.providers.Resolve(ctx, userID, providerType)
	if err != nil {
		return nil, err
	}
	lister, ok := adapter.(provider.HistoryLister)
	if !ok {
		return nil, validationError("%s does not list post history", adapter.Name())
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()
	history, err := lister.History(callCtx, lastDays, platform)
	if err != nil {
		return nil, classify(err)
	}
	return history, nil
}
