package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/middleware"
	"github.com/peerflow/gamify-api/internal/service"
	"github.com/peerflow/gamify-api/internal/utils"
)

// ArtifactReviewHandler wires review lifecycle routes.
type ArtifactReviewHandler struct {
	service service.ArtifactReviewService
	logger  zerolog.Logger
}

// NewArtifactReviewHandler constructs the handler.
func NewArtifactReviewHandler(service service.ArtifactReviewService, logger zerolog.Logger) *ArtifactReviewHandler {
	return &ArtifactReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "artifact_review_handler").Logger(),
	}
}

// Register attaches review endpoints to the router group.
func (h *ArtifactReviewHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Put("/:id", h.submit)
	router.Post("/:id/reopen", middleware.WithAuth(h.reopen, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
}

func (h *ArtifactReviewHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	review, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "review not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "review retrieved", review)
}

func (h *ArtifactReviewHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	var reviewerRegistrationID uint
	if raw := strings.TrimSpace(c.Query("registration_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid registration_id")
		}
		reviewerRegistrationID = uint(parsed)
	}

	review, err := h.service.Submit(c.Context(), id, reviewerRegistrationID, payload)
	if err != nil {
		var validationErrors validator.ValidationErrors
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "review not found")
		case errors.Is(err, service.ErrNotReviewOwner):
			return utils.SendError(c, fiber.StatusForbidden, "review belongs to another reviewer")
		case errors.Is(err, service.ErrSurveyNotConfigured):
			return utils.SendError(c, fiber.StatusConflict, "feedback survey not configured for assignment")
		case errors.Is(err, service.ErrQuestionOptionNotFound):
			return utils.SendError(c, fiber.StatusBadRequest, "answer references unknown question option")
		case errors.As(err, &validationErrors):
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "review submitted", review)
}

func (h *ArtifactReviewHandler) reopen(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	review, err := h.service.Reopen(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "review not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "review reopened", review)
}

func (h *ArtifactReviewHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
