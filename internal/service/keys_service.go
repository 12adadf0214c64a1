package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/pkg/utils"
)

const maxApiKeys = 5

// ApiKeyService issues the keys automation clients use instead of the
// session cookie.
type ApiKeyService interface {
	Create(ctx context.Context, userID int64) (*models.ApiKey, error)
	List(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	GetUserID(ctx context.Context, apiKey string) (int64, error)
	RemoveAPIKey(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

// Create issues a key. The plaintext is only present on the returned value.
func (s *apiKeyService) Create(ctx context.Context, userID int64) (*models.ApiKey, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}

	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(keys) >= maxApiKeys {
		err := validationError("only %d API keys can be created", maxApiKeys)
		slog.Info(err.Error())
		return nil, err
	}

	key, prefix, hash, err := utils.NewAPIKey()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error generating API key: %w", err)
	}

	apiKey := &models.ApiKey{UserID: userID, Prefix: prefix, KeyHash: hash}
	if err := s.k.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("error saving API key: %w", err)
	}
	apiKey.Key = key
	return apiKey, nil
}

func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (int64, error) {
	if apiKey == "" {
		return 0, validationError("api key is empty")
	}

	userID, err := s.k.TouchByHash(ctx, utils.HashAPIKey(apiKey))
	if errors.Is(err, repository.ErrNotFound) {
		return 0, notFound("api key doesn't exist")
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *apiKeyService) List(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	apiKeys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting API keys: %w", err)
	}
	return apiKeys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, userID, keyID int64) error {
	if userID == 0 {
		return validationError("user is not valid")
	}
	if keyID == 0 {
		return validationError("key id is not valid")
	}

	err := s.k.Remove(ctx, userID, keyID)
	if errors.Is(err, repository.ErrNotFound) {
		err = notFound("api key %d doesn't exist", keyID)
		slog.Info(err.Error())
		return err
	}
	return err
}
