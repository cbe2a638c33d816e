package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/service"
	"github.com/peerflow/gamify-api/internal/utils"
)

// ProgressHandler wires the progress tracking routes. Constraint URLs can
// contain slashes, so the routes match a wildcard instead of a named param.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches progress endpoints to the router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/*", h.get)
	router.Put("/*", h.track)
	router.Delete("/*", h.delete)
}

func constraintURLFromPath(c *fiber.Ctx) string {
	return strings.Trim(c.Params("*"), "/")
}

func (h *ProgressHandler) get(c *fiber.Ctx) error {
	url := constraintURLFromPath(c)
	if url == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "constraint url required")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	progress, err := h.service.Get(c.Context(), userID, url)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConstraintNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "constraint not found")
		case errors.Is(err, service.ErrProgressNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "progress not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}

// track applies one progress update. A body carrying cur_point ratchets the
// stored maximum; an empty body increments the counter by one.
func (h *ProgressHandler) track(c *fiber.Ctx) error {
	url := constraintURLFromPath(c)
	if url == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "constraint url required")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	mode := service.TrackModeIncrement
	value := 1.0

	if len(c.Body()) > 0 {
		var payload dto.ProgressUpdateRequest
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
		if payload.CurPoint != nil {
			if *payload.CurPoint < 0 {
				return utils.SendError(c, fiber.StatusBadRequest, "cur_point must not be negative")
			}
			mode = service.TrackModeMax
			value = *payload.CurPoint
		}
	}

	progress, err := h.service.Track(c.Context(), userID, url, mode, value)
	if err != nil {
		if errors.Is(err, service.ErrConstraintNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "constraint not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "progress updated", progress)
}

func (h *ProgressHandler) delete(c *fiber.Ctx) error {
	url := constraintURLFromPath(c)
	if url == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "constraint url required")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.service.Delete(c.Context(), userID, url); err != nil {
		switch {
		case errors.Is(err, service.ErrConstraintNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "constraint not found")
		case errors.Is(err, service.ErrProgressNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "progress not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "progress deleted", fiber.Map{"constraint_url": url})
}

func (h *ProgressHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
