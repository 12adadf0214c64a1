package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postbridge/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		slog.Info(err.Error())
		return badRequest(c, "unable to parse form")
	}

	assets, err := h.s.Upload(c.Context(), GetUserID(c), form.File["files"])
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(assets)
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	assets, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusOK).JSON(assets)
}
