package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/service"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

type AccountHandler struct {
	s        service.AccountService
	validate *validator.Validate
}

func NewAccountHandler(service service.AccountService, validate *validator.Validate) *AccountHandler {
	return &AccountHandler{s: service, validate: validate}
}

func (h *AccountHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err, nil)
	}
	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) CreateSocialAccount(c *fiber.Ctx) error {
	var in transfer.AccountCreation
	if err := validateBody(c, h.validate, &in); err != nil {
		return writeError(c, err, nil)
	}

	account, err := h.s.Create(c.Context(), GetUserID(c), &in)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	accountID := c.QueryInt("id", 0)

	if err := h.s.Delete(c.Context(), GetUserID(c), int64(accountID)); err != nil {
		return writeError(c, err, nil)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) SyncProfiles(c *fiber.Ctx) error {
	var req transfer.AccountSyncRequest
	if len(c.Body()) > 0 {
		if err := validateBody(c, h.validate, &req); err != nil {
			return writeError(c, err, nil)
		}
	}

	result, err := h.s.SyncProfiles(c.Context(), GetUserID(c), req.ProviderType)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
