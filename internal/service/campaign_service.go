package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/repository"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type CampaignService interface {
	Create(ctx context.Context, userID int64, cc *transfer.CampaignCreation) (*models.Campaign, error)
	Get(ctx context.Context, userID, campaignID int64) (*models.Campaign, error)
	List(ctx context.Context, userID int64, filter models.CampaignFilter) ([]*models.Campaign, error)
	Update(ctx context.Context, userID, campaignID int64, cu *transfer.CampaignUpdate) (*models.Campaign, error)
	Remove(ctx context.Context, userID, campaignID int64) error
	Posts(ctx context.Context, userID, campaignID int64, limit, offset int) ([]*models.Post, error)
	Analytics(ctx context.Context, userID, campaignID int64) (*models.CampaignAnalytics, error)
}

type campaignService struct {
	cr       repository.CampaignRepository
	pr       repository.PostRepository
	ar       repository.AnalyticsRepository
	validate *validator.Validate
}

func NewCampaignService(
	cr repository.CampaignRepository,
	pr repository.PostRepository,
	ar repository.AnalyticsRepository,
	validate *validator.Validate) CampaignService {
	return &campaignService{cr: cr, pr: pr, ar: ar, validate: validate}
}

func (s *campaignService) Create(ctx context.Context, userID int64, cc *transfer.CampaignCreation) (*models.Campaign, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if cc == nil {
		return nil, validationError("campaign data is nil")
	}
	if err := s.validate.Struct(cc); err != nil {
		verr := validationError("%s", ValidationMessage(err))
		slog.Info(verr.Error())
		return nil, verr
	}

	var campaign models.Campaign
	if err := copier.Copy(&campaign, cc); err != nil {
		return nil, fmt.Errorf("copying campaign data: %w", err)
	}
	campaign.UserID = userID
	campaign.Status = models.CampaignStatusDraft
	if campaign.CampaignType == "" {
		campaign.CampaignType = models.CampaignTypeGeneral
	}
	if err := checkCampaignDates(&campaign); err != nil {
		return nil, err
	}

	if err := s.cr.Create(ctx, &campaign); err != nil {
		return nil, fmt.Errorf("error creating campaign: %w", err)
	}
	slog.Info("campaign created", "campaign_id", campaign.ID, "user_id", userID)
	return &campaign, nil
}

// Get reports campaigns of other tenants as not found.
func (s *campaignService) Get(ctx context.Context, userID, campaignID int64) (*models.Campaign, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	campaign, err := s.cr.GetByID(ctx, campaignID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && campaign.UserID != userID) {
		err := notFound("campaign %d not found", campaignID)
		slog.Info(err.Error())
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("error getting campaign: %w", err)
	}
	return campaign, nil
}

func (s *campaignService) List(ctx context.Context, userID int64, filter models.CampaignFilter) ([]*models.Campaign, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if filter.Status != "" && !validCampaignStatus(filter.Status) {
		return nil, validationError("unknown campaign status %q", filter.Status)
	}
	if filter.CampaignType != "" && !validCampaignType(filter.CampaignType) {
		return nil, validationError("unknown campaign type %q", filter.CampaignType)
	}
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)

	campaigns, err := s.cr.ListByUserID(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *campaignService) Update(ctx context.Context, userID, campaignID int64, cu *transfer.CampaignUpdate) (*models.Campaign, error) {
	if cu == nil {
		return nil, validationError("campaign data is nil")
	}
	if err := s.validate.Struct(cu); err != nil {
		verr := validationError("%s", ValidationMessage(err))
		slog.Info(verr.Error())
		return nil, verr
	}

	campaign, err := s.Get(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	applyCampaignUpdate(campaign, cu)
	if err := checkCampaignDates(campaign); err != nil {
		return nil, err
	}

	if err := s.cr.Update(ctx, campaign); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("campaign %d not found", campaignID)
		}
		return nil, fmt.Errorf("error updating campaign: %w", err)
	}
	return campaign, nil
}

// Remove deletes the campaign and keeps its posts unassigned.
func (s *campaignService) Remove(ctx context.Context, userID, campaignID int64) error {
	if userID == 0 {
		return validationError("user is not valid")
	}
	err := s.cr.Remove(ctx, userID, campaignID)
	if errors.Is(err, repository.ErrNotFound) {
		err := notFound("campaign %d not found", campaignID)
		slog.Info(err.Error())
		return err
	}
	if err != nil {
		return fmt.Errorf("error removing campaign: %w", err)
	}
	slog.Info("campaign removed", "campaign_id", campaignID, "user_id", userID)
	return nil
}

// Posts lists the campaign's posts, latest scheduled time first.
func (s *campaignService) Posts(ctx context.Context, userID, campaignID int64, limit, offset int) ([]*models.Post, error) {
	if _, err := s.Get(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	limit, offset = page(limit, offset)
	posts, err := s.pr.ListByCampaign(ctx, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing campaign posts: %w", err)
	}
	return posts, nil
}

func (s *campaignService) Analytics(ctx context.Context, userID, campaignID int64) (*models.CampaignAnalytics, error) {
	if _, err := s.Get(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	counts, err := s.cr.CountPostsByStatus(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("error counting campaign posts: %w", err)
	}
	summary, err := s.ar.CampaignSummary(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("error summarizing campaign analytics: %w", err)
	}
	return &models.CampaignAnalytics{CampaignID: campaignID, PostCounts: counts, Summary: *summary}, nil
}

// ownedCampaign checks that a post may reference campaignID.
func ownedCampaign(ctx context.Context, cr repository.CampaignRepository, userID int64, campaignID *int64) error {
	if campaignID == nil {
		return nil
	}
	campaign, err := cr.GetByID(ctx, *campaignID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && campaign.UserID != userID) {
		err := validationError("campaign %d does not belong to the user", *campaignID)
		slog.Info(err.Error())
		return err
	}
	if err != nil {
		return fmt.Errorf("error getting campaign: %w", err)
	}
	return nil
}

func applyCampaignUpdate(c *models.Campaign, cu *transfer.CampaignUpdate) {
	if cu.Name != nil {
		c.Name = *cu.Name
	}
	if cu.Description != nil {
		c.Description = *cu.Description
	}
	if cu.CampaignType != nil {
		c.CampaignType = *cu.CampaignType
	}
	if cu.Status != nil {
		c.Status = *cu.Status
	}
	if cu.StartDate != nil {
		c.StartDate = cu.StartDate
	}
	if cu.EndDate != nil {
		c.EndDate = cu.EndDate
	}
	if cu.TargetPlatforms != nil {
		c.TargetPlatforms = cu.TargetPlatforms
	}
	if cu.Goals != nil {
		c.Goals = cu.Goals
	}
	if cu.Tags != nil {
		c.Tags = cu.Tags
	}
}

func checkCampaignDates(c *models.Campaign) error {
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return validationError("end_date must not be before start_date")
	}
	return nil
}

func validCampaignStatus(status string) bool {
	switch status {
	case models.CampaignStatusDraft, models.CampaignStatusActive,
		models.CampaignStatusCompleted, models.CampaignStatusCancelled:
		return true
	}
	return false
}

func validCampaignType(t string) bool {
	switch t {
	case models.CampaignTypeAwareness, models.CampaignTypeFundraising,
		models.CampaignTypeEvent, models.CampaignTypeGeneral:
		return true
	}
	return false
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
