package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

func statusFor(kind string) int {
	switch kind {
	case service.KindConfiguration, service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindStateConflict:
		return fiber.StatusConflict
	case service.KindProviderAuth:
		return fiber.StatusFailedDependency
	case service.KindProviderValidation:
		return fiber.StatusUnprocessableEntity
	case service.KindProviderTransient:
		return fiber.StatusServiceUnavailable
	case service.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as {"error": {kind, message, retriable}}. A post left
// behind by a failed attempt is attached so clients see its new status.
func writeError(c *fiber.Ctx, err error, post *models.Post) error {
	var oe *service.OrchestrationError
	if !errors.As(err, &oe) {
		slog.Error(err.Error(), "path", c.Path())
		oe = &service.OrchestrationError{Kind: service.KindInternal, Message: "something went wrong"}
	}

	body := fiber.Map{"error": oe}
	if post != nil {
		body["post"] = post
	}
	return c.Status(statusFor(oe.Kind)).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return writeError(c, &service.OrchestrationError{Kind: service.KindValidation, Message: message}, nil)
}

// validateBody parses the JSON body into out and runs its validate tags.
func validateBody(c *fiber.Ctx, validate *validator.Validate, out any) error {
	if err := c.BodyParser(out); err != nil {
		slog.Info(err.Error())
		return &service.OrchestrationError{Kind: service.KindValidation, Message: "invalid request body"}
	}
	if err := validate.Struct(out); err != nil {
		return &service.OrchestrationError{Kind: service.KindValidation, Message: service.ValidationMessage(err)}
	}
	return nil
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.OrchestrationError{Kind: service.KindValidation, Message: "id must be a positive integer"}
	}
	return id, nil
}

// queryTime parses an RFC 3339 query value. An absent value yields nil.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &service.OrchestrationError{Kind: service.KindValidation, Message: key + " must be an RFC 3339 timestamp"}
	}
	t = t.UTC()
	return &t, nil
}
