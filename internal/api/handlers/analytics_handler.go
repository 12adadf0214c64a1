package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/service"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

type AnalyticsHandler struct {
	s        service.AnalyticsService
	validate *validator.Validate
}

func NewAnalyticsHandler(service service.AnalyticsService, validate *validator.Validate) *AnalyticsHandler {
	return &AnalyticsHandler{s: service, validate: validate}
}

func (h *AnalyticsHandler) SyncBulk(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.AnalyticsSyncRequest
	if len(c.Body()) > 0 {
		if err := validateBody(c, h.validate, &req); err != nil {
			return writeError(c, err, nil)
		}
	}

	result, err := h.s.SyncBulk(c.Context(), userID, req.LookbackDays)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AnalyticsHandler) SyncPost(c *fiber.Ctx) error {
	postID, err := paramID(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	records, err := h.s.SyncOne(c.Context(), GetUserID(c), postID)
	if err != nil {
		return writeError(c, err, nil)
	}
	if records == nil {
		records = []*models.AnalyticsRecord{}
	}
	return c.Status(fiber.StatusOK).JSON(records)
}

func (h *AnalyticsHandler) ListForPost(c *fiber.Ctx) error {
	postID, err := paramID(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	records, err := h.s.ListForPost(c.Context(), GetUserID(c), postID)
	if err != nil {
		return writeError(c, err, nil)
	}
	if records == nil {
		records = []*models.AnalyticsRecord{}
	}
	return c.Status(fiber.StatusOK).JSON(records)
}

func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	start, err := queryTime(c, "start")
	if err != nil {
		return writeError(c, err, nil)
	}
	end, err := queryTime(c, "end")
	if err != nil {
		return writeError(c, err, nil)
	}

	summary, err := h.s.Summary(c.Context(), GetUserID(c), start, end)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *AnalyticsHandler) Ingest(c *fiber.Ctx) error {
	var in transfer.AnalyticsIngest
	if err := validateBody(c, h.validate, &in); err != nil {
		return writeError(c, err, nil)
	}

	record, err := h.s.Ingest(c.Context(), GetUserID(c), &in)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *AnalyticsHandler) ProfileAnalytics(c *fiber.Ctx) error {
	accountID, err := paramID(c)
	if err != nil {
		return writeError(c, err, nil)
	}

	result, err := h.s.ProfileAnalytics(c.Context(), GetUserID(c), accountID, c.Query("provider"))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AnalyticsHandler) History(c *fiber.Ctx) error {
	history, err := h.s.History(c.Context(), GetUserID(c), c.Query("provider"), c.QueryInt("days", 0), c.Query("platform"))
	if err != nil {
		return writeError(c, err, nil)
	}
	if history == nil {
		history = []provider.PostResult{}
	}
	return c.Status(fiber.StatusOK).JSON(history)
}
