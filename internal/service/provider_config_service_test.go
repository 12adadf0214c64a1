package service

import (
	"context"
	"testing"

	"github.com/maheshrc27/postbridge/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveEncryptsCredentials(t *testing.T) {
	h := newHarness(t)

	cfg, err := h.providers.Save(context.Background(), testUser, &transfer.ProviderConfigInput{
		ProviderType: " FAKE ",
		AccessToken:  "plain-token",
		ProfileKey:   "plain-profile",
	})
	require.NoError(t, err)
	assert.Equal(t, "fake", cfg.ProviderType)
	assert.True(t, cfg.IsActive)

	stored, err := h.configs.GetByUserAndType(context.Background(), testUser, "fake")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "plain-token", stored.AccessToken)
	assert.NotEqual(t, "plain-profile", stored.ProfileKey)

	ok, err := h.providers.TestConnection(context.Background(), testUser, "fake")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveRejectsUnknownProvider(t *testing.T) {
	h := newHarness(t)

	_, err := h.providers.Save(context.Background(), testUser, &transfer.ProviderConfigInput{ProviderType: "hootsuite", AccessToken: "x"})
	oe := requireKind(t, err, KindConfiguration)
	assert.Contains(t, oe.Message, "fake")

	_, err = h.providers.Save(context.Background(), testUser, &transfer.ProviderConfigInput{ProviderType: "fake"})
	requireKind(t, err, KindValidation)
}

func TestResolveFailsClosed(t *testing.T) {
	h := newHarness(t)

	_, err := h.providers.Resolve(context.Background(), testUser, "")
	requireKind(t, err, KindConfiguration)

	_, err = h.providers.Resolve(context.Background(), testUser, "unknown")
	requireKind(t, err, KindConfiguration)

	h.configure(t)
	adapter, err := h.providers.Resolve(context.Background(), testUser, "")
	require.NoError(t, err)
	assert.Equal(t, "fake", adapter.Name())

	require.NoError(t, h.providers.Deactivate(context.Background(), testUser, "fake"))
	_, err = h.providers.Resolve(context.Background(), testUser, "fake")
	requireKind(t, err, KindConfiguration)

	err = h.providers.Deactivate(context.Background(), testUser+1, "fake")
	requireKind(t, err, KindNotFound)
}

func TestResolveUndecryptableCredentials(t *testing.T) {
	h := newHarness(t)
	h.configure(t)

	other := NewProviderConfigService(h.configs, fakeRegistry(h.adapter), "another-secret")
	_, err := other.Resolve(context.Background(), testUser, "fake")
	requireKind(t, err, KindConfiguration)
}
