package handlers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/service"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

type ProviderHandler struct {
	s        service.ProviderConfigService
	validate *validator.Validate
}

func NewProviderHandler(service service.ProviderConfigService, validate *validator.Validate) *ProviderHandler {
	return &ProviderHandler{s: service, validate: validate}
}

func (h *ProviderHandler) List(c *fiber.Ctx) error {
	configs, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err, nil)
	}
	if configs == nil {
		configs = []*models.ProviderConfig{}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"available": h.s.Types(),
		"configs":   configs,
	})
}

func (h *ProviderHandler) Save(c *fiber.Ctx) error {
	var in transfer.ProviderConfigInput
	if err := validateBody(c, h.validate, &in); err != nil {
		return writeError(c, err, nil)
	}

	cfg, err := h.s.Save(c.Context(), GetUserID(c), &in)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(cfg)
}

func providerType(c *fiber.Ctx) string {
	return strings.ToLower(c.Params("type"))
}

func (h *ProviderHandler) TestConnection(c *fiber.Ctx) error {
	pt := providerType(c)
	ok, err := h.s.TestConnection(c.Context(), GetUserID(c), pt)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(transfer.ConnectionStatus{ProviderType: pt, Connected: ok})
}

func (h *ProviderHandler) ListProfiles(c *fiber.Ctx) error {
	profiles, err := h.s.ListProfiles(c.Context(), GetUserID(c), providerType(c))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(profiles)
}

func (h *ProviderHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.s.Deactivate(c.Context(), GetUserID(c), providerType(c)); err != nil {
		return writeError(c, err, nil)
	}
	return c.SendStatus(fiber.StatusOK)
}
