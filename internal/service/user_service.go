package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.u.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		err = notFound("user %d doesn't exist", id)
		slog.Info(err.Error())
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user info: %w", err)
	}
	return user, nil
}

// RemoveUser deletes the tenant. Posts, accounts and provider configs go with
// it through the foreign keys.
func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	if userID == 0 {
		return validationError("user is not valid")
	}
	err := s.u.Remove(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("user %d doesn't exist", userID)
	}
	return err
}
