package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type campaignHarness struct {
	posts     *fakePostRepo
	campaigns *fakeCampaignRepo
	records   *fakeAnalyticsRepo
	svc       CampaignService
}

func newCampaignHarness() *campaignHarness {
	posts := newFakePostRepo()
	campaigns := newFakeCampaignRepo(posts)
	records := &fakeAnalyticsRepo{campaigns: map[int64]int64{}}
	return &campaignHarness{
		posts:     posts,
		campaigns: campaigns,
		records:   records,
		svc:       NewCampaignService(campaigns, posts, records, validator.New()),
	}
}

func (h *campaignHarness) create(t *testing.T, userID int64, name string) *models.Campaign {
	t.Helper()
	c, err := h.svc.Create(context.Background(), userID, &transfer.CampaignCreation{Name: name, CampaignType: models.CampaignTypeEvent})
	require.NoError(t, err)
	return c
}

func TestCampaignCreateDefaults(t *testing.T) {
	h := newCampaignHarness()

	c, err := h.svc.Create(context.Background(), testUser, &transfer.CampaignCreation{Name: "launch", Tags: []string{"q3"}})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusDraft, c.Status)
	assert.Equal(t, models.CampaignTypeGeneral, c.CampaignType)
	assert.Equal(t, []string{"q3"}, c.Tags)
	assert.NotZero(t, c.ID)

	_, err = h.svc.Create(context.Background(), testUser, &transfer.CampaignCreation{CampaignType: "viral"})
	requireKind(t, err, KindValidation)

	start := fixedNow
	end := fixedNow.Add(-time.Hour)
	_, err = h.svc.Create(context.Background(), testUser, &transfer.CampaignCreation{Name: "x", StartDate: &start, EndDate: &end})
	requireKind(t, err, KindValidation)
}

func TestCampaignsAreTenantScoped(t *testing.T) {
	h := newCampaignHarness()
	c := h.create(t, testUser, "mine")

	_, err := h.svc.Get(context.Background(), testUser+1, c.ID)
	requireKind(t, err, KindNotFound)

	err = h.svc.Remove(context.Background(), testUser+1, c.ID)
	requireKind(t, err, KindNotFound)

	_, err = h.svc.Update(context.Background(), testUser+1, c.ID, &transfer.CampaignUpdate{Name: strPtr("stolen")})
	requireKind(t, err, KindNotFound)

	got, err := h.svc.Get(context.Background(), testUser, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Name)
}

func TestCampaignUpdateIsPartial(t *testing.T) {
	h := newCampaignHarness()
	c := h.create(t, testUser, "spring")

	got, err := h.svc.Update(context.Background(), testUser, c.ID, &transfer.CampaignUpdate{Status: strPtr(models.CampaignStatusActive)})
	require.NoError(t, err)
	assert.Equal(t, "spring", got.Name)
	assert.Equal(t, models.CampaignTypeEvent, got.CampaignType)
	assert.Equal(t, models.CampaignStatusActive, got.Status)

	_, err = h.svc.Update(context.Background(), testUser, c.ID, &transfer.CampaignUpdate{Status: strPtr("paused")})
	requireKind(t, err, KindValidation)
}

func TestCampaignListFiltersAndPages(t *testing.T) {
	h := newCampaignHarness()
	h.create(t, testUser, "a")
	b := h.create(t, testUser, "b")
	h.create(t, testUser, "c")
	h.create(t, testUser+1, "other")
	_, err := h.svc.Update(context.Background(), testUser, b.ID, &transfer.CampaignUpdate{Status: strPtr(models.CampaignStatusActive)})
	require.NoError(t, err)

	all, err := h.svc.List(context.Background(), testUser, models.CampaignFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Name)

	active, err := h.svc.List(context.Background(), testUser, models.CampaignFilter{Status: models.CampaignStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].Name)

	paged, err := h.svc.List(context.Background(), testUser, models.CampaignFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "b", paged[0].Name)

	_, err = h.svc.List(context.Background(), testUser, models.CampaignFilter{CampaignType: "viral"})
	requireKind(t, err, KindValidation)
}

func TestCampaignPostsAndAnalytics(t *testing.T) {
	h := newCampaignHarness()
	c := h.create(t, testUser, "summer")

	first := h.posts.add(&models.Post{UserID: testUser, CampaignID: &c.ID, Content: "one", ScheduledTime: fixedNow, Status: models.PostStatusPublished})
	h.posts.add(&models.Post{UserID: testUser, CampaignID: &c.ID, Content: "two", ScheduledTime: fixedNow.Add(time.Hour), Status: models.PostStatusScheduled})
	h.posts.add(&models.Post{UserID: testUser, Content: "loose", ScheduledTime: fixedNow, Status: models.PostStatusDraft})

	h.records.campaigns[first.ID] = c.ID
	_, err := h.records.Create(context.Background(), &models.AnalyticsRecord{PostID: first.ID, AccountID: 1, UserID: testUser, Likes: 5})
	require.NoError(t, err)

	posts, err := h.svc.Posts(context.Background(), testUser, c.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "two", posts[0].Content)

	stats, err := h.svc.Analytics(context.Background(), testUser, c.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{models.PostStatusPublished: 1, models.PostStatusScheduled: 1}, stats.PostCounts)
	assert.Equal(t, int64(5), stats.Summary.Likes)

	_, err = h.svc.Analytics(context.Background(), testUser+1, c.ID)
	requireKind(t, err, KindNotFound)
}

func TestCampaignRemoveKeepsItGone(t *testing.T) {
	h := newCampaignHarness()
	c := h.create(t, testUser, "gone")

	require.NoError(t, h.svc.Remove(context.Background(), testUser, c.ID))
	_, err := h.svc.Get(context.Background(), testUser, c.ID)
	requireKind(t, err, KindNotFound)
}

func TestOwnedCampaign(t *testing.T) {
	h := newCampaignHarness()
	theirs := h.create(t, testUser+1, "theirs")
	missing := int64(99)

	assert.NoError(t, ownedCampaign(context.Background(), h.campaigns, testUser, nil))
	requireKind(t, ownedCampaign(context.Background(), h.campaigns, testUser, &theirs.ID), KindValidation)
	requireKind(t, ownedCampaign(context.Background(), h.campaigns, testUser, &missing), KindValidation)

	mine := h.create(t, testUser, "mine")
	assert.NoError(t, ownedCampaign(context.Background(), h.campaigns, testUser, &mine.ID))
}
