package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/internal/transfer"
	"github.com/maheshrc27/postbridge/pkg/utils"
)

// AccountService manages the tenant's social accounts and links them to
// provider profiles. It is the only writer of profile ids and credentials.
type AccountService interface {
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Create(ctx context.Context, userID int64, in *transfer.AccountCreation) (*models.SocialAccount, error)
	Delete(ctx context.Context, userID, accountID int64) error
	SyncProfiles(ctx context.Context, userID int64, providerType string) (*transfer.AccountSyncResult, error)
}

type accountService struct {
	sa        repository.SocialAccountRepository
	providers ProviderConfigService
	sealer    *utils.Cipher
}

func NewAccountService(sa repository.SocialAccountRepository, providers ProviderConfigService, secretKey string) AccountService {
	return &accountService{
		sa:        sa,
		providers: providers,
		sealer:    utils.MustCipher(secretKey),
	}
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	var err error

	if userID == 0 {
		err = validationError("user is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts: %w", err)
	}

	return accounts, nil
}

func (s *accountService) Create(ctx context.Context, userID int64, in *transfer.AccountCreation) (*models.SocialAccount, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if in == nil {
		return nil, validationError("account data is empty")
	}

	platform := models.NormalizePlatform(in.Platform)
	if !models.IsSupportedPlatform(platform) {
		err := validationError("unsupported platform %q", in.Platform)
		slog.Info(err.Error())
		return nil, err
	}

	account := &models.SocialAccount{
		UserID:            userID,
		Platform:          platform,
		AccountName:       in.AccountName,
		AccountHandle:     strings.TrimPrefix(strings.TrimSpace(in.AccountHandle), "@"),
		Status:            models.AccountStatusActive,
		ProviderProfileID: in.ProviderProfileID,
		TokenExpiresAt:    in.TokenExpiresAt,
		IsPrimary:         in.IsPrimary,
	}

	var err error
	if in.AccessToken != "" {
		if account.AccessToken, err = s.sealer.Seal(in.AccessToken); err != nil {
			return nil, fmt.Errorf("encrypting access token: %w", err)
		}
	}
	if in.RefreshToken != "" {
		if account.RefreshToken, err = s.sealer.Seal(in.RefreshToken); err != nil {
			return nil, fmt.Errorf("encrypting refresh token: %w", err)
		}
	}

	account.ID, err = s.sa.Create(ctx, nil, account)
	if err != nil {
		return nil, fmt.Errorf("error saving social account: %w", err)
	}
	return account, nil
}

func (s *accountService) Delete(ctx context.Context, userID, accountID int64) error {
	var err error

	if userID == 0 {
		err = validationError("user is not valid")
		slog.Info(err.Error())
		return err
	}

	if accountID == 0 {
		err = validationError("account id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = notFound("social account %d not found", accountID)
		slog.Info(err.Error())
		return err
	}

	err = s.sa.Remove(ctx, accountID)
	if err != nil {
		return fmt.Errorf("error removing social account: %w", err)
	}

	return nil
}

func handleKey(platform, handle string) string {
	return models.NormalizePlatform(platform) + "/" + strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// SyncProfiles links local accounts to the provider's profiles. Accounts are
// matched by their stored profile id, then by platform and handle. Linked
// accounts the provider no longer lists become disconnected.
func (s *accountService) SyncProfiles(ctx context.Context, userID int64, providerType string) (*transfer.AccountSyncResult, error) {
	accounts, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.providers.Resolve(ctx, userID, providerType)
	if err != nil {
		return nil, err
	}

	profiles, err := adapter.ListProfiles(ctx)
	if err != nil {
		var pe *provider.ProviderError
		if errors.As(err, &pe) && pe.Kind == provider.KindAuth {
			for _, a := range accounts {
				if a.ProviderProfileID == "" {
					continue
				}
				if uerr := s.sa.UpdateStatus(ctx, a.ID, models.AccountStatusError); uerr != nil {
					slog.Warn("could not flag account", "account_id", a.ID, "error", uerr)
				}
			}
		}
		return nil, classify(err)
	}

	byID := make(map[string]provider.Profile, len(profiles))
	byHandle := make(map[string]provider.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
		if p.Handle != "" {
			byHandle[handleKey(p.Platform, p.Handle)] = p
		}
	}

	result := &transfer.AccountSyncResult{Profiles: len(profiles), Matched: []int64{}, Disconnected: []int64{}}
	for _, a := range accounts {
		profile, ok := byID[a.ProviderProfileID]
		if !ok || a.ProviderProfileID == "" {
			profile, ok = byHandle[handleKey(a.Platform, a.AccountHandle)]
		}

		if ok {
			status := models.AccountStatusActive
			if !profile.IsActive {
				status = models.AccountStatusInactive
			}
			if err := s.sa.UpdateProviderProfile(ctx, a.ID, profile.ID, status); err != nil {
				return result, fmt.Errorf("updating account %d: %w", a.ID, err)
			}
			result.Matched = append(result.Matched, a.ID)
			continue
		}

		if a.ProviderProfileID != "" {
			if err := s.sa.UpdateStatus(ctx, a.ID, models.AccountStatusDisconnected); err != nil {
				return result, fmt.Errorf("updating account %d: %w", a.ID, err)
			}
			result.Disconnected = append(result.Disconnected, a.ID)
		}
	}

	slog.Info("accounts synced", "user_id", userID, "provider", adapter.Name(), "profiles", len(profiles), "matched", len(result.Matched), "disconnected", len(result.Disconnected))
	return result, nil
}
