package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

type fakePostRepo struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[int64]*models.Post{}}
}

func (r *fakePostRepo) add(p *models.Post) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	if p.ProviderPostIDs == nil {
		p.ProviderPostIDs = map[string]string{}
	}
	r.posts[p.ID] = p.Clone()
	return p
}

func (r *fakePostRepo) get(id int64) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[id].Clone()
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return r.add(post).ID, nil
}

func (r *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.UserID == userID }), nil
}

func (r *fakePostRepo) ListByScheduledRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool {
		return p.UserID == userID && !p.ScheduledTime.Before(start) && !p.ScheduledTime.After(end)
	}), nil
}

func (r *fakePostRepo) ListPublishedSince(ctx context.Context, userID int64, since time.Time) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool {
		return p.UserID == userID && p.Status == models.PostStatusPublished && p.PublishedTime != nil && !p.PublishedTime.Before(since)
	}), nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, before time.Time, limit int) ([]*models.Post, error) {
	out := r.filter(func(p *models.Post) bool {
		return p.Status == models.PostStatusScheduled && p.ScheduledTime.Before(before)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) UpdateState(ctx context.Context, post *models.Post, expectedStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.posts[post.ID]
	if !ok || cur.Status != expectedStatus {
		return repository.ErrStaleState
	}
	stored := post.Clone()
	stored.Accounts = nil
	stored.Events = nil
	r.posts[post.ID] = stored
	return nil
}

func (r *fakePostRepo) UpdateContent(ctx context.Context, post *models.Post, expectedStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.posts[post.ID]
	if !ok || cur.Status != expectedStatus {
		return repository.ErrStaleState
	}
	cur.Title = post.Title
	cur.Content = post.Content
	cur.MediaURLs = append([]string(nil), post.MediaURLs...)
	cur.Link = post.Link
	cur.PostType = post.PostType
	cur.ScheduledTime = post.ScheduledTime
	return nil
}

func (r *fakePostRepo) ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]*models.Post, error) {
	out := r.filter(func(p *models.Post) bool { return p.CampaignID != nil && *p.CampaignID == campaignID })
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.After(out[j].ScheduledTime) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) filter(keep func(*models.Post) bool) []*models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.SocialAccount
	selected map[int64][]int64
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[int64]*models.SocialAccount{}, selected: map[int64][]int64{}}
}

func (r *fakeAccountRepo) add(a *models.SocialAccount) *models.SocialAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	cp := *a
	r.accounts[a.ID] = &cp
	return a
}

func (r *fakeAccountRepo) link(postID int64, accountIDs ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected[postID] = append(r.selected[postID], accountIDs...)
}

func (r *fakeAccountRepo) get(id int64) *models.SocialAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.accounts[id]
	return &cp
}

func (r *fakeAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	return r.add(sa).ID, nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAccountRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, id := range r.selected[postID] {
		if a, ok := r.accounts[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	return ok && a.UserID == userID, nil
}

func (r *fakeAccountRepo) UpdateProviderProfile(ctx context.Context, id int64, profileID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.ProviderProfileID = profileID
		a.Status = status
	}
	return nil
}

func (r *fakeAccountRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.Status = status
	}
	return nil
}

func (r *fakeAccountRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*models.PostEvent
}

func (r *fakeEventRepo) Create(ctx context.Context, ev *models.PostEvent) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ev
	cp.ID = int64(len(r.events) + 1)
	r.events = append(r.events, &cp)
	return cp.ID, nil
}

func (r *fakeEventRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PostEvent
	for _, ev := range r.events {
		if ev.PostID == postID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) kinds(postID int64) []string {
	evs, _ := r.ListByPostID(context.Background(), postID)
	kinds := make([]string, 0, len(evs))
	for _, ev := range evs {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

type fakeProviderConfigRepo struct {
	mu      sync.Mutex
	nextID  int64
	configs map[int64]map[string]*models.ProviderConfig
}

func newFakeProviderConfigRepo() *fakeProviderConfigRepo {
	return &fakeProviderConfigRepo{configs: map[int64]map[string]*models.ProviderConfig{}}
}

func (r *fakeProviderConfigRepo) Upsert(ctx context.Context, cfg *models.ProviderConfig) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byType, ok := r.configs[cfg.UserID]
	if !ok {
		byType = map[string]*models.ProviderConfig{}
		r.configs[cfg.UserID] = byType
	}
	cp := *cfg
	if existing, ok := byType[cfg.ProviderType]; ok {
		cp.ID = existing.ID
	} else {
		r.nextID++
		cp.ID = r.nextID
	}
	cp.UpdatedAt = time.Now()
	byType[cfg.ProviderType] = &cp
	return cp.ID, nil
}

func (r *fakeProviderConfigRepo) GetByUserAndType(ctx context.Context, userID int64, providerType string) (*models.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[userID][providerType]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (r *fakeProviderConfigRepo) GetDefault(ctx context.Context, userID int64, preferred string) (*models.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.ProviderConfig
	for _, cfg := range r.configs[userID] {
		if !cfg.IsActive {
			continue
		}
		if cfg.ProviderType == preferred {
			best = cfg
			break
		}
		if best == nil || cfg.UpdatedAt.After(best.UpdatedAt) {
			best = cfg
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeProviderConfigRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProviderConfig
	for _, cfg := range r.configs[userID] {
		cp := *cfg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderType < out[j].ProviderType })
	return out, nil
}

func (r *fakeProviderConfigRepo) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for userID, byType := range r.configs {
		for _, cfg := range byType {
			if cfg.IsActive {
				ids = append(ids, userID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeProviderConfigRepo) Deactivate(ctx context.Context, userID int64, providerType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.configs[userID][providerType]; ok {
		cfg.IsActive = false
	}
	return nil
}

type fakeAnalyticsRepo struct {
	mu      sync.Mutex
	records []*models.AnalyticsRecord
	// campaigns maps post ids to their campaign for CampaignSummary.
	campaigns map[int64]int64
}

func (r *fakeAnalyticsRepo) Create(ctx context.Context, rec *models.AnalyticsRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	cp.ID = int64(len(r.records) + 1)
	r.records = append(r.records, &cp)
	return cp.ID, nil
}

func (r *fakeAnalyticsRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.AnalyticsRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AnalyticsRecord
	for _, rec := range r.records {
		if rec.PostID == postID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAnalyticsRepo) Summary(ctx context.Context, userID int64, start, end *time.Time) (*models.AnalyticsSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := &models.AnalyticsSummary{}
	for _, rec := range r.records {
		if rec.UserID == userID {
			sum.Records++
			sum.Likes += rec.Likes
		}
	}
	return sum, nil
}

func (r *fakeAnalyticsRepo) CampaignSummary(ctx context.Context, campaignID int64) (*models.AnalyticsSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := &models.AnalyticsSummary{}
	for _, rec := range r.records {
		if r.campaigns[rec.PostID] == campaignID {
			sum.Records++
			sum.Likes += rec.Likes
		}
	}
	return sum, nil
}

type fakeCampaignRepo struct {
	mu        sync.Mutex
	nextID    int64
	campaigns map[int64]*models.Campaign
	posts     *fakePostRepo
}

func newFakeCampaignRepo(posts *fakePostRepo) *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: map[int64]*models.Campaign{}, posts: posts}
}

func (r *fakeCampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = fixedNow.Add(time.Duration(c.ID) * time.Minute)
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) ListByUserID(ctx context.Context, userID int64, filter models.CampaignFilter) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if c.UserID != userID ||
			(filter.Status != "" && c.Status != filter.Status) ||
			(filter.CampaignType != "" && c.CampaignType != filter.CampaignType) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.campaigns[c.ID]
	if !ok || cur.UserID != c.UserID {
		return repository.ErrNotFound
	}
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) Remove(ctx context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.campaigns[id]
	if !ok || cur.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.campaigns, id)
	return nil
}

func (r *fakeCampaignRepo) CountPostsByStatus(ctx context.Context, campaignID int64) (map[string]int64, error) {
	counts := map[string]int64{}
	posts, _ := r.posts.ListByCampaign(ctx, campaignID, 1000, 0)
	for _, p := range posts {
		counts[p.Status]++
	}
	return counts, nil
}

type updateCall struct {
	id     string
	fields provider.PostUpdate
}

type createCall struct {
	profileIDs  []string
	text        string
	media       *provider.Media
	scheduledAt *time.Time
}

// fakeAdapter records calls and answers from its func fields. Nil funcs fall
// back to a successful response.
type fakeAdapter struct {
	mu        sync.Mutex
	creates   []createCall
	deletes   []string
	updates   []updateCall
	analytics []string

	createFn    func(profileIDs []string, text string) (*provider.PostResult, error)
	deleteFn    func(id string) error
	updateFn    func(id string) error
	statusFn    func(id string) (*provider.PostResult, error)
	analyticsFn func(id string) (*provider.AnalyticsSnapshot, error)
	profilesFn  func() ([]provider.Profile, error)
}

func (a *fakeAdapter) Name() string { return "fake" }

func (a *fakeAdapter) Authenticate(ctx context.Context) (*provider.AccountInfo, error) {
	return &provider.AccountInfo{ID: "acct", Name: "fake"}, nil
}

func (a *fakeAdapter) ListProfiles(ctx context.Context) ([]provider.Profile, error) {
	if a.profilesFn != nil {
		return a.profilesFn()
	}
	return nil, nil
}

func (a *fakeAdapter) CreatePost(ctx context.Context, profileIDs []string, text string, media *provider.Media, scheduledAt *time.Time, opts provider.PostOptions) (*provider.PostResult, error) {
	a.mu.Lock()
	a.creates = append(a.creates, createCall{profileIDs: profileIDs, text: text, media: media, scheduledAt: scheduledAt})
	a.mu.Unlock()
	if a.createFn != nil {
		return a.createFn(profileIDs, text)
	}
	res := &provider.PostResult{ID: "remote", Status: provider.ResultScheduled, Profiles: map[string]string{}}
	for _, id := range profileIDs {
		res.Profiles[id] = "remote-" + id
	}
	return res, nil
}

func (a *fakeAdapter) UpdatePost(ctx context.Context, providerID string, fields provider.PostUpdate) (*provider.PostResult, error) {
	a.mu.Lock()
	a.updates = append(a.updates, updateCall{id: providerID, fields: fields})
	a.mu.Unlock()
	if a.updateFn != nil {
		if err := a.updateFn(providerID); err != nil {
			return nil, err
		}
	}
	return &provider.PostResult{ID: providerID, Status: provider.ResultScheduled}, nil
}

func (a *fakeAdapter) DeletePost(ctx context.Context, providerID string) (*provider.Ack, error) {
	a.mu.Lock()
	a.deletes = append(a.deletes, providerID)
	a.mu.Unlock()
	if a.deleteFn != nil {
		if err := a.deleteFn(providerID); err != nil {
			return nil, err
		}
	}
	return &provider.Ack{ID: providerID, Deleted: true}, nil
}

func (a *fakeAdapter) GetPostAnalytics(ctx context.Context, providerID string) (*provider.AnalyticsSnapshot, error) {
	a.mu.Lock()
	a.analytics = append(a.analytics, providerID)
	a.mu.Unlock()
	if a.analyticsFn != nil {
		return a.analyticsFn(providerID)
	}
	return &provider.AnalyticsSnapshot{PostID: providerID, Likes: 10, Impressions: 100}, nil
}

func (a *fakeAdapter) GetPostStatus(ctx context.Context, providerID string) (*provider.PostResult, error) {
	if a.statusFn != nil {
		return a.statusFn(providerID)
	}
	return &provider.PostResult{ID: providerID, Status: provider.ResultScheduled}, nil
}

func (a *fakeAdapter) TestConnection(ctx context.Context) bool { return true }

func (a *fakeAdapter) createCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.creates)
}

func (a *fakeAdapter) lastCreate() createCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creates[len(a.creates)-1]
}

func (a *fakeAdapter) updated() []updateCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]updateCall(nil), a.updates...)
}

// fakeInsightsAdapter adds the optional profile analytics and history
// capabilities to fakeAdapter.
type fakeInsightsAdapter struct {
	*fakeAdapter
	profileFn func(profileID string) (map[string]any, error)
	history   []provider.PostResult
	lastDays  int
	platform  string
}

func (a *fakeInsightsAdapter) GetProfileAnalytics(ctx context.Context, profileID string) (map[string]any, error) {
	if a.profileFn != nil {
		return a.profileFn(profileID)
	}
	return map[string]any{"profile": profileID, "followers": float64(120)}, nil
}

func (a *fakeInsightsAdapter) History(ctx context.Context, lastDays int, platform string) ([]provider.PostResult, error) {
	a.mu.Lock()
	a.lastDays, a.platform = lastDays, platform
	a.mu.Unlock()
	return a.history, nil
}

func (a *fakeAdapter) deleted() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.deletes...)
}

func fakeRegistry(adapter provider.Adapter) *provider.Registry {
	r := provider.NewRegistry("fake")
	_ = r.Register("fake", func(creds provider.Credentials) (provider.Adapter, error) {
		if creds.Token == "" {
			return nil, provider.ErrMissingCredentials
		}
		return adapter, nil
	})
	return r
}

// fakeCreator stores drafts straight into the fake repositories.
type fakeCreator struct {
	posts    *fakePostRepo
	accounts *fakeAccountRepo
}

func (c *fakeCreator) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if pc.Content == "" {
		return nil, validationError("Content must satisfy required")
	}
	if len(pc.AccountIDs) == 0 {
		return nil, validationError("AccountIDs must satisfy min=1")
	}
	post := c.posts.add(&models.Post{
		UserID:        userID,
		Content:       pc.Content,
		MediaURLs:     pc.MediaURLs,
		ScheduledTime: pc.ScheduledTime,
		Status:        models.PostStatusDraft,
	})
	c.accounts.link(post.ID, pc.AccountIDs...)
	return post, nil
}
