package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/internal/transfer"
	"github.com/maheshrc27/postbridge/pkg/utils"
)

// ProviderConfigService stores per-tenant provider credentials and turns them
// into live adapters.
type ProviderConfigService interface {
	Save(ctx context.Context, userID int64, in *transfer.ProviderConfigInput) (*models.ProviderConfig, error)
	Get(ctx context.Context, userID int64, providerType string) (*models.ProviderConfig, error)
	List(ctx context.Context, userID int64) ([]*models.ProviderConfig, error)
	Deactivate(ctx context.Context, userID int64, providerType string) error
	Resolve(ctx context.Context, userID int64, providerType string) (provider.Adapter, error)
	TestConnection(ctx context.Context, userID int64, providerType string) (bool, error)
	ListProfiles(ctx context.Context, userID int64, providerType string) ([]provider.Profile, error)
	Types() []string
}

type providerConfigService struct {
	repo        repository.ProviderConfigRepository
	registry    *provider.Registry
	sealer      *utils.Cipher
	defaultType string
}

func NewProviderConfigService(repo repository.ProviderConfigRepository, registry *provider.Registry, secretKey string) ProviderConfigService {
	return &providerConfigService{
		repo:        repo,
		registry:    registry,
		sealer:      utils.MustCipher(secretKey),
		defaultType: registry.Default(),
	}
}

func (s *providerConfigService) Types() []string {
	return s.registry.Types()
}

func (s *providerConfigService) Save(ctx context.Context, userID int64, in *transfer.ProviderConfigInput) (*models.ProviderConfig, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if in == nil {
		return nil, validationError("provider configuration is empty")
	}

	providerType := strings.ToLower(strings.TrimSpace(in.ProviderType))
	if !s.registry.Has(providerType) {
		err := classify(&provider.UnsupportedProviderError{Type: providerType, Available: s.registry.Types()})
		slog.Info(err.Error())
		return nil, err
	}
	if in.AccessToken == "" {
		return nil, validationError("access token is required")
	}

	cfg := &models.ProviderConfig{
		UserID:         userID,
		ProviderType:   providerType,
		OrganizationID: in.OrganizationID,
		TokenExpiresAt: in.TokenExpiresAt,
		IsActive:       true,
	}

	var err error
	if cfg.AccessToken, err = s.sealer.Seal(in.AccessToken); err != nil {
		return nil, fmt.Errorf("encrypting access token: %w", err)
	}
	if in.RefreshToken != "" {
		if cfg.RefreshToken, err = s.sealer.Seal(in.RefreshToken); err != nil {
			return nil, fmt.Errorf("encrypting refresh token: %w", err)
		}
	}
	if in.ProfileKey != "" {
		if cfg.ProfileKey, err = s.sealer.Seal(in.ProfileKey); err != nil {
			return nil, fmt.Errorf("encrypting profile key: %w", err)
		}
	}

	id, err := s.repo.Upsert(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("saving provider configuration: %w", err)
	}
	cfg.ID = id

	slog.Info("provider configuration saved", "user_id", userID, "provider", providerType)
	return cfg, nil
}

func (s *providerConfigService) Get(ctx context.Context, userID int64, providerType string) (*models.ProviderConfig, error) {
	var (
		cfg *models.ProviderConfig
		err error
	)
	if providerType == "" {
		cfg, err = s.repo.GetDefault(ctx, userID, s.defaultType)
	} else {
		cfg, err = s.repo.GetByUserAndType(ctx, userID, providerType)
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, notFound("no configuration for provider %q", providerType)
	}
	return cfg, nil
}

func (s *providerConfigService) List(ctx context.Context, userID int64) ([]*models.ProviderConfig, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	return s.repo.ListByUserID(ctx, userID)
}

func (s *providerConfigService) Deactivate(ctx context.Context, userID int64, providerType string) error {
	cfg, err := s.repo.GetByUserAndType(ctx, userID, providerType)
	if err != nil {
		return err
	}
	if cfg == nil {
		return notFound("no configuration for provider %q", providerType)
	}
	if err := s.repo.Deactivate(ctx, userID, providerType); err != nil {
		return err
	}
	slog.Info("provider configuration deactivated", "user_id", userID, "provider", providerType)
	return nil
}

// Resolve builds an adapter from the tenant's active configuration. An empty
// providerType selects the tenant default. A missing or inactive configuration
// fails closed with a configuration error.
func (s *providerConfigService) Resolve(ctx context.Context, userID int64, providerType string) (provider.Adapter, error) {
	if providerType != "" && !s.registry.Has(providerType) {
		return nil, classify(&provider.UnsupportedProviderError{Type: providerType, Available: s.registry.Types()})
	}

	var (
		cfg *models.ProviderConfig
		err error
	)
	if providerType == "" {
		cfg, err = s.repo.GetDefault(ctx, userID, s.defaultType)
	} else {
		cfg, err = s.repo.GetByUserAndType(ctx, userID, providerType)
	}
	if err != nil {
		return nil, fmt.Errorf("loading provider configuration: %w", err)
	}
	if cfg == nil || !cfg.IsActive {
		name := providerType
		if name == "" {
			name = "any"
		}
		err := configurationError("no active %s provider configuration for user %d", name, userID)
		slog.Info(err.Error())
		return nil, err
	}

	creds, err := s.credentials(cfg)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Resolve(cfg.ProviderType, creds)
	if err != nil {
		return nil, classify(err)
	}
	return adapter, nil
}

func (s *providerConfigService) credentials(cfg *models.ProviderConfig) (provider.Credentials, error) {
	token, err := s.sealer.Open(cfg.AccessToken)
	if err != nil {
		return provider.Credentials{}, &OrchestrationError{
			Kind:    KindConfiguration,
			Message: fmt.Sprintf("stored %s credentials cannot be decrypted", cfg.ProviderType),
			Err:     err,
		}
	}
	creds := provider.Credentials{Token: token}
	if cfg.ProfileKey != "" {
		if creds.ProfileKey, err = s.sealer.Open(cfg.ProfileKey); err != nil {
			return provider.Credentials{}, &OrchestrationError{
				Kind:    KindConfiguration,
				Message: fmt.Sprintf("stored %s profile key cannot be decrypted", cfg.ProviderType),
				Err:     err,
			}
		}
	}
	return creds, nil
}

func (s *providerConfigService) TestConnection(ctx context.Context, userID int64, providerType string) (bool, error) {
	adapter, err := s.Resolve(ctx, userID, providerType)
	if err != nil {
		return false, err
	}
	return adapter.TestConnection(ctx), nil
}

func (s *providerConfigService) ListProfiles(ctx context.Context, userID int64, providerType string) ([]provider.Profile, error) {
	adapter, err := s.Resolve(ctx, userID, providerType)
	if err != nil {
		return nil, err
	}
	profiles, err := adapter.ListProfiles(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return profiles, nil
}
