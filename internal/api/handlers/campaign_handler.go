package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/service"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

type CampaignHandler struct {
	s        service.CampaignService
	validate *validator.Validate
}

func NewCampaignHandler(service service.CampaignService, validate *validator.Validate) *CampaignHandler {
	return &CampaignHandler{s: service, validate: validate}
}

func (h *CampaignHandler) Create(c *fiber.Ctx) error {
	var cc transfer.CampaignCreation
	if err := validateBody(c, h.validate, &cc); err != nil {
		return writeError(c, err, nil)
	}

	campaign, err := h.s.Create(c.Context(), GetUserID(c), &cc)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusCreated).JSON(campaign)
}

func (h *CampaignHandler) List(c *fiber.Ctx) error {
	campaigns, err := h.s.List(c.Context(), GetUserID(c), models.CampaignFilter{
		Status:       c.Query("status"),
		CampaignType: c.Query("type"),
		Limit:        c.QueryInt("limit", 0),
		Offset:       c.QueryInt("offset", 0),
	})
	if err != nil {
		return writeError(c, err, nil)
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	return c.Status(fiber.StatusOK).JSON(campaigns)
}

func (h *CampaignHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	campaign, err := h.s.Get(c.Context(), GetUserID(c), id)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(campaign)
}

func (h *CampaignHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	var cu transfer.CampaignUpdate
	if err := validateBody(c, h.validate, &cu); err != nil {
		return writeError(c, err, nil)
	}

	campaign, err := h.s.Update(c.Context(), GetUserID(c), id, &cu)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(campaign)
}

func (h *CampaignHandler) Remove(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	if err := h.s.Remove(c.Context(), GetUserID(c), id); err != nil {
		return writeError(c, err, nil)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *CampaignHandler) Posts(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	posts, err := h.s.Posts(c.Context(), GetUserID(c), id, c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return writeError(c, err, nil)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *CampaignHandler) Analytics(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	stats, err := h.s.Analytics(c.Context(), GetUserID(c), id)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}
