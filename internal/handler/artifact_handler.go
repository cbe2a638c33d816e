package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/middleware"
	"github.com/peerflow/gamify-api/internal/service"
	"github.com/peerflow/gamify-api/internal/utils"
)

// ArtifactHandler wires artifact submission and reviewer assignment routes.
type ArtifactHandler struct {
	service   service.ArtifactService
	validator *validator.Validate
	maxBytes  int64
	logger    zerolog.Logger
}

// NewArtifactHandler constructs the handler.
func NewArtifactHandler(service service.ArtifactService, validate *validator.Validate, maxBytes int64, logger zerolog.Logger) *ArtifactHandler {
	return &ArtifactHandler{
		service:   service,
		validator: validate,
		maxBytes:  maxBytes,
		logger:    logger.With().Str("component", "artifact_handler").Logger(),
	}
}

// Register attaches artifact endpoints to the router group.
func (h *ArtifactHandler) Register(router fiber.Router) {
	router.Post("/assignment/:assignmentId", h.upload)
	router.Post("/:id/reviewers", middleware.RequireRole("instructor", "ta"), h.assignReviewers)
}

func (h *ArtifactHandler) upload(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	registrationID, err := strconv.ParseUint(c.FormValue("registration_id"), 10, 64)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "registration_id required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds upload size limit")
	}

	artifact, err := h.service.Upload(c.Context(), assignmentID, uint(registrationID), file)
	if err != nil {
		if errors.Is(err, service.ErrArtifactTypeNotAllowed) {
			return utils.SendError(c, fiber.StatusUnsupportedMediaType, "artifact must be a pdf")
		}
		return h.internalError(c, err)
	}

	return utils.SendCreated(c, "artifact uploaded", artifact)
}

func (h *ArtifactHandler) assignReviewers(c *fiber.Ctx) error {
	artifactID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignReviewersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	reviews, err := h.service.AssignReviewers(c.Context(), artifactID, payload.ReviewerRegistrationIDs)
	if err != nil {
		if errors.Is(err, service.ErrArtifactNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "artifact not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendCreated(c, "reviewers assigned", reviews)
}

func (h *ArtifactHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
