package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/postbridge/internal/lock"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser int64 = 7

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	posts     *fakePostRepo
	accounts  *fakeAccountRepo
	events    *fakeEventRepo
	configs   *fakeProviderConfigRepo
	adapter   *fakeAdapter
	providers ProviderConfigService
	orch      Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		posts:    newFakePostRepo(),
		accounts: newFakeAccountRepo(),
		events:   &fakeEventRepo{},
		configs:  newFakeProviderConfigRepo(),
		adapter:  &fakeAdapter{},
	}
	h.providers = NewProviderConfigService(h.configs, fakeRegistry(h.adapter), "test-secret")
	h.orch = NewOrchestrator(h.posts, h.accounts, h.events, h.providers,
		&fakeCreator{posts: h.posts, accounts: h.accounts},
		lock.NewMemoryLocker(),
		OrchestratorOptions{ProviderTimeout: time.Second, Concurrency: 4, Now: func() time.Time { return fixedNow }})
	return h
}

func (h *harness) configure(t *testing.T) {
	t.Helper()
	_, err := h.providers.Save(context.Background(), testUser, &transfer.ProviderConfigInput{ProviderType: "fake", AccessToken: "tok"})
	require.NoError(t, err)
}

func (h *harness) account(profileID, platform string) *models.SocialAccount {
	return h.accounts.add(&models.SocialAccount{
		UserID:            testUser,
		Platform:          platform,
		AccountHandle:     "handle-" + profileID,
		Status:            models.AccountStatusActive,
		ProviderProfileID: profileID,
	})
}

func (h *harness) draft(accounts ...*models.SocialAccount) *models.Post {
	post := h.posts.add(&models.Post{
		UserID:        testUser,
		Content:       "hello",
		MediaURLs:     []string{"https://cdn.example.com/a.jpg"},
		ScheduledTime: fixedNow.Add(time.Hour),
		Status:        models.PostStatusDraft,
	})
	for _, a := range accounts {
		h.accounts.link(post.ID, a.ID)
	}
	return post
}

func requireKind(t *testing.T, err error, kind string) *OrchestrationError {
	t.Helper()
	var oe *OrchestrationError
	require.True(t, errors.As(err, &oe), "expected OrchestrationError, got %v", err)
	assert.Equal(t, kind, oe.Kind)
	return oe
}

func TestScheduleStoresProviderIDs(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	a1, a2 := h.account("p1", "twitter"), h.account("p2", "facebook")
	post := h.draft(a1, a2)

	got, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusScheduled, got.Status)
	assert.Nil(t, got.PublishedTime)
	assert.Equal(t, "fake", got.ProviderType)
	assert.Equal(t, map[string]string{"1": "remote-p1", "2": "remote-p2"}, got.ProviderPostIDs)

	stored := h.posts.get(post.ID)
	assert.Equal(t, models.PostStatusScheduled, stored.Status)
	assert.Equal(t, got.ProviderPostIDs, stored.ProviderPostIDs)

	call := h.adapter.lastCreate()
	assert.ElementsMatch(t, []string{"p1", "p2"}, call.profileIDs)
	require.NotNil(t, call.scheduledAt)
	assert.True(t, post.ScheduledTime.Equal(*call.scheduledAt))
	require.NotNil(t, call.media)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, call.media.Photos)

	assert.Equal(t, []string{models.EventScheduleAttempt, models.EventScheduled}, h.events.kinds(post.ID))
}

func TestScheduleIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))

	first, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	second, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, h.adapter.createCount())
	assert.Equal(t, first.ProviderPostIDs, second.ProviderPostIDs)
	assert.Equal(t, models.PostStatusScheduled, second.Status)
}

func TestConcurrentScheduleCallsProviderOnce(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.adapter.createCount())
	assert.Equal(t, models.PostStatusScheduled, h.posts.get(post.ID).Status)
}

func TestPublishNowSetsPublishedTime(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))

	got, err := h.orch.PublishNow(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPublished, got.Status)
	require.NotNil(t, got.PublishedTime)
	assert.True(t, fixedNow.Equal(*got.PublishedTime))
	assert.Nil(t, h.adapter.lastCreate().scheduledAt)

	again, err := h.orch.PublishNow(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, again.Status)
	assert.Equal(t, 1, h.adapter.createCount())
}

func TestPublishNowOnScheduledPostConflicts(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))
	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	_, err = h.orch.PublishNow(context.Background(), testUser, post.ID)
	requireKind(t, err, KindStateConflict)
	assert.Equal(t, 1, h.adapter.createCount())
}

func TestScheduleProviderRejectionMarksFailed(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	h.adapter.createFn = func([]string, string) (*provider.PostResult, error) {
		return nil, &provider.ProviderError{Provider: "fake", Message: "text too long", StatusCode: http.StatusBadRequest, Kind: provider.KindValidation}
	}
	post := h.draft(h.account("p1", "twitter"))

	got, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	oe := requireKind(t, err, KindProviderValidation)
	assert.False(t, oe.Retriable)

	assert.Equal(t, models.PostStatusFailed, got.Status)
	stored := h.posts.get(post.ID)
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "text too long")
	assert.Empty(t, stored.ProviderPostIDs)
	assert.Nil(t, stored.PublishedTime)
	assert.Contains(t, h.events.kinds(post.ID), models.EventFailed)
}

func TestTransientFailureCanBeRetried(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	calls := 0
	h.adapter.createFn = func(ids []string, _ string) (*provider.PostResult, error) {
		calls++
		if calls == 1 {
			return nil, &provider.ProviderError{Provider: "fake", Message: "unavailable", StatusCode: http.StatusServiceUnavailable, Kind: provider.KindTransient}
		}
		return &provider.PostResult{ID: "r", Profiles: map[string]string{ids[0]: "r-ok"}}, nil
	}
	post := h.draft(h.account("p1", "twitter"))

	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	oe := requireKind(t, err, KindProviderTransient)
	assert.True(t, oe.Retriable)
	assert.Equal(t, models.PostStatusFailed, h.posts.get(post.ID).Status)

	got, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, got.Status)
	assert.Empty(t, got.ErrorMessage)
	assert.Equal(t, "r-ok", got.ProviderPostIDs["1"])
}

func TestPartialResultIsRolledBack(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	h.adapter.createFn = func([]string, string) (*provider.PostResult, error) {
		return &provider.PostResult{ID: "r1", Profiles: map[string]string{"p1": "r1"}}, nil
	}
	post := h.draft(h.account("p1", "twitter"), h.account("p2", "facebook"))

	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	oe := requireKind(t, err, KindProviderValidation)
	assert.Contains(t, oe.Message, "p2")

	assert.Equal(t, []string{"r1"}, h.adapter.deleted())
	stored := h.posts.get(post.ID)
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	assert.Empty(t, stored.ProviderPostIDs)
	assert.Contains(t, h.events.kinds(post.ID), models.EventRemoteRollback)
}

func TestCancelledContextLeavesPostUntouched(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orch.Schedule(ctx, testUser, post.ID)
	oe := requireKind(t, err, KindProviderTransient)
	assert.True(t, oe.Retriable)
	assert.Equal(t, 0, h.adapter.createCount())
	assert.Equal(t, models.PostStatusDraft, h.posts.get(post.ID).Status)
}

func TestScheduleWithoutProviderConfig(t *testing.T) {
	h := newHarness(t)
	post := h.draft(h.account("p1", "twitter"))

	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	requireKind(t, err, KindConfiguration)
	assert.Equal(t, 0, h.adapter.createCount())
	assert.Equal(t, models.PostStatusFailed, h.posts.get(post.ID).Status)
}

func TestScheduleRequiresLinkedAccounts(t *testing.T) {
	h := newHarness(t)
	h.configure(t)

	unlinked := h.accounts.add(&models.SocialAccount{UserID: testUser, Platform: "twitter", Status: models.AccountStatusActive})
	post := h.draft(unlinked)
	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	oe := requireKind(t, err, KindValidation)
	assert.Contains(t, oe.Message, "twitter")

	empty := h.draft()
	_, err = h.orch.Schedule(context.Background(), testUser, empty.ID)
	requireKind(t, err, KindValidation)

	assert.Equal(t, 0, h.adapter.createCount())
}

func TestScheduleOtherTenantsPost(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))

	_, err := h.orch.Schedule(context.Background(), testUser+1, post.ID)
	requireKind(t, err, KindNotFound)
	assert.Equal(t, models.PostStatusDraft, h.posts.get(post.ID).Status)
}

func TestCancelScheduledPost(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"), h.account("p2", "facebook"))
	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	got, err := h.orch.Cancel(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusCancelled, got.Status)
	assert.ElementsMatch(t, []string{"remote-p1", "remote-p2"}, h.adapter.deleted())
	assert.Equal(t, models.PostStatusCancelled, h.posts.get(post.ID).Status)
	assert.Contains(t, h.events.kinds(post.ID), models.EventCancelled)
}

func TestCancelRemoteFailureKeepsScheduled(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"), h.account("p2", "facebook"))
	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	h.adapter.deleteFn = func(id string) error {
		if id == "remote-p2" {
			return &provider.ProviderError{Provider: "fake", Message: "gateway timeout", StatusCode: http.StatusGatewayTimeout, Kind: provider.KindTransient}
		}
		return nil
	}

	got, err := h.orch.Cancel(context.Background(), testUser, post.ID)
	oe := requireKind(t, err, KindProviderTransient)
	assert.True(t, oe.Retriable)

	assert.Equal(t, models.PostStatusScheduled, got.Status)
	stored := h.posts.get(post.ID)
	assert.Equal(t, models.PostStatusScheduled, stored.Status)
	assert.Equal(t, map[string]string{"2": "remote-p2"}, stored.ProviderPostIDs)
	assert.Contains(t, h.events.kinds(post.ID), models.EventCancelFailed)

	h.adapter.deleteFn = nil
	got, err = h.orch.Cancel(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusCancelled, got.Status)
}

func TestCancelRequiresScheduled(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))

	_, err := h.orch.Cancel(context.Background(), testUser, post.ID)
	requireKind(t, err, KindStateConflict)
	assert.Empty(t, h.adapter.deleted())
}

func TestBulkScheduleIsolatesItems(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	acc := h.account("p1", "twitter")
	h.adapter.createFn = func(ids []string, text string) (*provider.PostResult, error) {
		if strings.Contains(text, "reject") {
			return nil, &provider.ProviderError{Provider: "fake", Message: "duplicate post", StatusCode: http.StatusBadRequest, Kind: provider.KindValidation}
		}
		return &provider.PostResult{ID: "r", Profiles: map[string]string{ids[0]: "r-" + text}}, nil
	}

	when := fixedNow.Add(2 * time.Hour)
	items := []*transfer.PostCreation{
		{Content: "first", ScheduledTime: when, AccountIDs: []int64{acc.ID}},
		{Content: "", ScheduledTime: when, AccountIDs: []int64{acc.ID}},
		{Content: "please reject", ScheduledTime: when, AccountIDs: []int64{acc.ID}},
	}

	res, err := h.orch.BulkSchedule(context.Background(), testUser, items, true)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, res.Failed)

	assert.Nil(t, res.Items[0].Error)
	assert.Equal(t, models.PostStatusScheduled, res.Items[0].Post.Status)

	require.NotNil(t, res.Items[1].Error)
	assert.Equal(t, KindValidation, res.Items[1].Error.Kind)
	assert.Nil(t, res.Items[1].Post)

	require.NotNil(t, res.Items[2].Error)
	assert.Equal(t, KindProviderValidation, res.Items[2].Error.Kind)
	assert.Equal(t, models.PostStatusFailed, res.Items[2].Post.Status)

	for i, item := range res.Items {
		assert.Equal(t, i, item.Index)
	}
}

func TestBulkCreateOnlyLeavesDrafts(t *testing.T) {
	h := newHarness(t)
	acc := h.account("p1", "twitter")

	res, err := h.orch.BulkSchedule(context.Background(), testUser, []*transfer.PostCreation{
		{Content: "one", ScheduledTime: fixedNow, AccountIDs: []int64{acc.ID}},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, models.PostStatusDraft, res.Items[0].Post.Status)
	assert.Equal(t, 0, h.adapter.createCount())

	_, err = h.orch.BulkSchedule(context.Background(), testUser, nil, true)
	requireKind(t, err, KindValidation)
}

func TestConfirmPublished(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))
	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	got, err := h.orch.ConfirmPublished(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, got.Status)

	h.adapter.statusFn = func(id string) (*provider.PostResult, error) {
		return &provider.PostResult{ID: id, Status: provider.ResultPublished}, nil
	}
	got, err = h.orch.ConfirmPublished(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, got.Status)
	require.NotNil(t, got.PublishedTime)
	assert.Contains(t, h.events.kinds(post.ID), models.EventConfirmed)
}

func TestConfirmDueFailsRejectedPosts(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"))
	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	h.adapter.statusFn = func(id string) (*provider.PostResult, error) {
		return &provider.PostResult{ID: id, Status: provider.ResultFailed}, nil
	}

	results, err := h.orch.ConfirmDue(context.Background(), fixedNow.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Error)
	assert.Equal(t, KindProviderValidation, results[0].Error.Kind)
	assert.Equal(t, models.PostStatusFailed, h.posts.get(post.ID).Status)

	results, err = h.orch.ConfirmDue(context.Background(), fixedNow, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConfirmFailureRemovesUnsentRemotePosts(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"), h.account("p2", "facebook"))
	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	h.adapter.statusFn = func(id string) (*provider.PostResult, error) {
		if id == "remote-p1" {
			return &provider.PostResult{ID: id, Status: provider.ResultFailed}, nil
		}
		return &provider.PostResult{ID: id, Status: provider.ResultScheduled}, nil
	}

	got, err := h.orch.ConfirmPublished(context.Background(), testUser, post.ID)
	oe := requireKind(t, err, KindProviderValidation)
	assert.Contains(t, oe.Message, "remote-p1")
	assert.Equal(t, models.PostStatusFailed, got.Status)

	stored := h.posts.get(post.ID)
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	assert.Empty(t, stored.ProviderPostIDs)
	assert.ElementsMatch(t, []string{"remote-p1", "remote-p2"}, h.adapter.deleted())
	assert.Contains(t, h.events.kinds(post.ID), models.EventRemoteRollback)

	h.adapter.statusFn = nil
	retried, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, h.adapter.createCount())
	assert.ElementsMatch(t, []string{"p1", "p2"}, h.adapter.lastCreate().profileIDs)
	assert.Equal(t, map[string]string{"1": "remote-p1", "2": "remote-p2"}, retried.ProviderPostIDs)
}

func TestRetryAfterConfirmFailureSkipsPublishedAccounts(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	post := h.draft(h.account("p1", "twitter"), h.account("p2", "facebook"), h.account("p3", "linkedin"))
	_, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)

	h.adapter.statusFn = func(id string) (*provider.PostResult, error) {
		switch id {
		case "remote-p1":
			return &provider.PostResult{ID: id, Status: provider.ResultPublished}, nil
		case "remote-p2":
			return &provider.PostResult{ID: id, Status: provider.ResultFailed}, nil
		}
		return &provider.PostResult{ID: id, Status: provider.ResultScheduled}, nil
	}
	h.adapter.deleteFn = func(id string) error {
		if id == "remote-p3" {
			return &provider.ProviderError{Provider: "fake", Message: "unavailable", StatusCode: http.StatusServiceUnavailable, Kind: provider.KindTransient}
		}
		return nil
	}

	_, err = h.orch.ConfirmPublished(context.Background(), testUser, post.ID)
	requireKind(t, err, KindProviderValidation)

	// remote-p1 went out and remote-p3 could not be withdrawn, so both stay live.
	stored := h.posts.get(post.ID)
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	assert.Equal(t, map[string]string{"1": "remote-p1", "3": "remote-p3"}, stored.ProviderPostIDs)
	assert.NotContains(t, h.adapter.deleted(), "remote-p1")

	h.adapter.statusFn = nil
	h.adapter.deleteFn = nil
	retried, err := h.orch.Schedule(context.Background(), testUser, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, h.adapter.lastCreate().profileIDs)
	assert.Equal(t, map[string]string{"1": "remote-p1", "2": "remote-p2", "3": "remote-p3"}, retried.ProviderPostIDs)
	assert.Equal(t, models.PostStatusScheduled, retried.Status)
}

func TestPostMediaSplitsVideos(t *testing.T) {
	media := postMedia(&models.Post{MediaURLs: []string{"https://x/a.mp4?sig=1", "https://x/b.png"}, Link: "https://example.com"})
	require.NotNil(t, media)
	assert.Equal(t, []string{"https://x/a.mp4?sig=1"}, media.Videos)
	assert.Equal(t, []string{"https://x/b.png"}, media.Photos)
	assert.Equal(t, "https://example.com", media.Link)

	assert.Nil(t, postMedia(&models.Post{}))
}
