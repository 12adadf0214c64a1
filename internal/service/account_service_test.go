package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountNormalizesInput(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.accounts, h.providers, "test-secret")

	acc, err := svc.Create(context.Background(), testUser, &transfer.AccountCreation{
		Platform:      "X",
		AccountName:   "Brand",
		AccountHandle: " @brand ",
		AccessToken:   "secret-token",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlatformTwitter, acc.Platform)
	assert.Equal(t, "brand", acc.AccountHandle)
	assert.Equal(t, models.AccountStatusActive, acc.Status)
	assert.NotEqual(t, "secret-token", h.accounts.get(acc.ID).AccessToken)

	_, err = svc.Create(context.Background(), testUser, &transfer.AccountCreation{Platform: "myspace", AccountName: "a", AccountHandle: "a"})
	requireKind(t, err, KindValidation)
}

func TestDeleteAccountChecksOwner(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.accounts, h.providers, "test-secret")
	acc := h.account("p1", "twitter")

	err := svc.Delete(context.Background(), testUser+1, acc.ID)
	requireKind(t, err, KindNotFound)

	require.NoError(t, svc.Delete(context.Background(), testUser, acc.ID))
	got, err := h.accounts.GetByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSyncProfilesLinksAccounts(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	svc := NewAccountService(h.accounts, h.providers, "test-secret")

	byID := h.account("p1", "twitter")
	byHandle := h.accounts.add(&models.SocialAccount{UserID: testUser, Platform: "instagram", AccountHandle: "Brand", Status: models.AccountStatusActive})
	gone := h.account("p9", "facebook")
	untouched := h.accounts.add(&models.SocialAccount{UserID: testUser, Platform: "linkedin", AccountHandle: "nobody", Status: models.AccountStatusActive})

	h.adapter.profilesFn = func() ([]provider.Profile, error) {
		return []provider.Profile{
			{ID: "p1", Platform: "twitter", Handle: "handle-p1", IsActive: true},
			{ID: "p5", Platform: "ig", Handle: "@brand", IsActive: false},
		}, nil
	}

	res, err := svc.SyncProfiles(context.Background(), testUser, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Profiles)
	assert.ElementsMatch(t, []int64{byID.ID, byHandle.ID}, res.Matched)
	assert.Equal(t, []int64{gone.ID}, res.Disconnected)

	linked := h.accounts.get(byHandle.ID)
	assert.Equal(t, "p5", linked.ProviderProfileID)
	assert.Equal(t, models.AccountStatusInactive, linked.Status)
	assert.Equal(t, models.AccountStatusDisconnected, h.accounts.get(gone.ID).Status)
	assert.Equal(t, models.AccountStatusActive, h.accounts.get(untouched.ID).Status)
}

func TestSyncProfilesAuthFailureFlagsAccounts(t *testing.T) {
	h := newHarness(t)
	h.configure(t)
	svc := NewAccountService(h.accounts, h.providers, "test-secret")
	acc := h.account("p1", "twitter")

	h.adapter.profilesFn = func() ([]provider.Profile, error) {
		return nil, &provider.ProviderError{Provider: "fake", Message: "revoked", StatusCode: http.StatusUnauthorized, Kind: provider.KindAuth}
	}

	_, err := svc.SyncProfiles(context.Background(), testUser, "fake")
	requireKind(t, err, KindProviderAuth)
	assert.Equal(t, models.AccountStatusError, h.accounts.get(acc.ID).Status)
}
