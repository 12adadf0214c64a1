package handlers

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/service"
	"github.com/maheshrc27/postbridge/internal/transfer"
)

type PostHandler struct {
	s        service.PostService
	orch     service.Orchestrator
	validate *validator.Validate
}

func NewPostHandler(service service.PostService, orch service.Orchestrator, validate *validator.Validate) *PostHandler {
	return &PostHandler{s: service, orch: orch, validate: validate}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "invalid request body")
	}

	post, err := h.s.Create(c.Context(), userID, &pc)
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userId := GetUserID(c)
	postId := c.QueryInt("id", 0)

	if postId != 0 {
		post, err := h.s.PostInfo(c.Context(), int64(postId), userId)
		if err != nil {
			return writeError(c, err, nil)
		}

		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), userId)
	if err != nil {
		return writeError(c, err, nil)
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postId := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(postId))
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.SendStatus(fiber.StatusOK)
}

type postAction func(c *fiber.Ctx, userID, postID int64) (*models.Post, error)

func (h *PostHandler) transition(action postAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		postID, err := paramID(c)
		if err != nil {
			return writeError(c, err, nil)
		}

		post, err := action(c, GetUserID(c), postID)
		if err != nil {
			return writeError(c, err, post)
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}
}

func (h *PostHandler) SchedulePost() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, userID, postID int64) (*models.Post, error) {
		return h.orch.Schedule(c.Context(), userID, postID)
	})
}

func (h *PostHandler) PublishPost() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, userID, postID int64) (*models.Post, error) {
		return h.orch.PublishNow(c.Context(), userID, postID)
	})
}

func (h *PostHandler) CancelPost() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, userID, postID int64) (*models.Post, error) {
		return h.orch.Cancel(c.Context(), userID, postID)
	})
}

func (h *PostHandler) ConfirmPost() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, userID, postID int64) (*models.Post, error) {
		return h.orch.ConfirmPublished(c.Context(), userID, postID)
	})
}

// BulkSchedule validates only the envelope. Items are validated one by one so
// a bad item fails alone.
func (h *PostHandler) BulkSchedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.BulkPostRequest
	if err := validateBody(c, h.validate, &req); err != nil {
		return writeError(c, err, nil)
	}

	result, err := h.orch.BulkSchedule(c.Context(), userID, req.Posts, req.Immediate)
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) Calendar(c *fiber.Ctx) error {
	userID := GetUserID(c)

	start, err := queryTime(c, "start")
	if err != nil {
		return writeError(c, err, nil)
	}
	end, err := queryTime(c, "end")
	if err != nil {
		return writeError(c, err, nil)
	}
	if start == nil || end == nil {
		return badRequest(c, "start and end are required")
	}

	posts, err := h.s.Calendar(c.Context(), userID, *start, *end)
	if err != nil {
		return writeError(c, err, nil)
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost() fiber.Handler {
	return h.transition(func(c *fiber.Ctx, userID, postID int64) (*models.Post, error) {
		var edit transfer.PostEdit
		if err := validateBody(c, h.validate, &edit); err != nil {
			return nil, err
		}
		return h.orch.Update(c.Context(), userID, postID, &edit)
	})
}
