package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Calendar(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db       *sql.DB
	pr       repository.PostRepository
	sa       repository.SelectedAccountRepository
	ac       repository.SocialAccountRepository
	ev       repository.PostEventRepository
	cr       repository.CampaignRepository
	validate *validator.Validate
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	sa repository.SelectedAccountRepository,
	ac repository.SocialAccountRepository,
	ev repository.PostEventRepository,
	cr repository.CampaignRepository,
	validate *validator.Validate) PostService {
	return &postService{
		db:       db,
		pr:       pr,
		sa:       sa,
		ac:       ac,
		ev:       ev,
		cr:       cr,
		validate: validate,
	}
}

// ValidationMessage flattens validator errors into one readable line.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// Create stores a draft post and its target accounts in one transaction.
func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if pc == nil {
		err := validationError("post creation data is nil")
		slog.Info(err.Error())
		return nil, err
	}
	if err := s.validate.Struct(pc); err != nil {
		verr := validationError("%s", ValidationMessage(err))
		slog.Info(verr.Error())
		return nil, verr
	}

	accounts, err := s.ownedAccounts(ctx, userID, pc.AccountIDs)
	if err != nil {
		return nil, err
	}
	if err := ownedCampaign(ctx, s.cr, userID, pc.CampaignID); err != nil {
		return nil, err
	}

	var post models.Post
	if err := copier.Copy(&post, pc); err != nil {
		return nil, fmt.Errorf("copying post data: %w", err)
	}
	post.UserID = userID
	post.Status = models.PostStatusDraft
	post.ScheduledTime = pc.ScheduledTime.UTC()
	post.ProviderPostIDs = map[string]string{}
	if post.PostType == "" {
		post.PostType = inferPostType(&post)
	}
	post.Platforms = targetPlatforms(pc.Platforms, accounts)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post.ID, err = s.pr.Create(ctx, tx, &post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	for _, a := range accounts {
		if err = s.sa.Create(ctx, tx, &models.SelectedAccount{PostID: post.ID, AccountID: a.ID}); err != nil {
			return nil, fmt.Errorf("error saving selected account %d: %w", a.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	post.Accounts = accounts
	slog.Info("post created", "post_id", post.ID, "user_id", userID, "accounts", len(accounts))
	return &post, nil
}

func (s *postService) ownedAccounts(ctx context.Context, userID int64, ids []int64) ([]*models.SocialAccount, error) {
	seen := make(map[int64]struct{}, len(ids))
	accounts := make([]*models.SocialAccount, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		account, err := s.ac.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error checking social account %d: %w", id, err)
		}
		if account == nil || account.UserID != userID {
			err := validationError("social account %d does not exist", id)
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func inferPostType(p *models.Post) string {
	media := postMedia(p)
	switch {
	case media != nil && len(media.Videos) > 0:
		return models.PostTypeVideo
	case media != nil && len(media.Photos) > 1:
		return models.PostTypeCarousel
	case media != nil && len(media.Photos) == 1:
		return models.PostTypeImage
	case p.Link != "":
		return models.PostTypeLink
	default:
		return models.PostTypeText
	}
}

// targetPlatforms keeps explicitly requested platforms, else derives them
// from the selected accounts.
func targetPlatforms(requested []string, accounts []*models.SocialAccount) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(p string) {
		p = models.NormalizePlatform(p)
		if _, ok := seen[p]; ok || p == "" {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range requested {
		add(p)
	}
	if len(out) == 0 {
		for _, a := range accounts {
			add(a.Platform)
		}
	}
	return out
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	var err error

	if userID == 0 {
		err = validationError("user is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	if postID == 0 {
		err = validationError("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil || post.UserID != userID {
		err = notFound("post %d not found", postID)
		slog.Info(err.Error())
		return nil, err
	}

	if post.Accounts, err = s.ac.ListByPostID(ctx, postID); err != nil {
		return nil, fmt.Errorf("error getting post accounts: %w", err)
	}
	if post.Events, err = s.ev.ListByPostID(ctx, postID); err != nil {
		return nil, fmt.Errorf("error getting post events: %w", err)
	}

	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting posts: %w", err)
	}
	return posts, nil
}

// Calendar returns the posts scheduled inside [start, end], oldest first.
func (s *postService) Calendar(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if start.IsZero() || end.IsZero() {
		return nil, validationError("start and end are required")
	}
	if end.Before(start) {
		return nil, validationError("end must not be before start")
	}

	posts, err := s.pr.ListByScheduledRange(ctx, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("error getting calendar: %w", err)
	}
	return posts, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	var err error

	if userID == 0 {
		err = validationError("user is not valid")
		slog.Info(err.Error())
		return err
	}

	if postID == 0 {
		err = validationError("post_id is not valid")
		slog.Info(err.Error())
		return err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.UserID != userID {
		err = notFound("post %d not found", postID)
		slog.Info(err.Error())
		return err
	}
	if post.Status == models.PostStatusScheduled {
		return stateConflict("post %d is scheduled with the provider, cancel it before removing", postID)
	}

	if err = s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}

	return nil
}
