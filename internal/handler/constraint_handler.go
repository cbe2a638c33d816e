package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/middleware"
	"github.com/peerflow/gamify-api/internal/service"
	"github.com/peerflow/gamify-api/internal/utils"
)

// ConstraintHandler wires constraint HTTP routes.
type ConstraintHandler struct {
	service service.ConstraintService
	logger  zerolog.Logger
}

// NewConstraintHandler constructs the handler.
func NewConstraintHandler(service service.ConstraintService, logger zerolog.Logger) *ConstraintHandler {
	return &ConstraintHandler{
		service: service,
		logger:  logger.With().Str("component", "constraint_handler").Logger(),
	}
}

// Register attaches constraint endpoints to the router group.
func (h *ConstraintHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole("instructor", "ta")

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", staff, h.create)
	router.Put("/:id", staff, h.update)
	router.Delete("/:id", staff, h.delete)
}

func (h *ConstraintHandler) list(c *fiber.Ctx) error {
	constraints, err := h.service.List(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "constraints retrieved", constraints)
}

func (h *ConstraintHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	constraint, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrConstraintNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "constraint not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "constraint retrieved", constraint)
}

func (h *ConstraintHandler) create(c *fiber.Ctx) error {
	var payload dto.ConstraintCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	constraint, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "constraint created", constraint)
}

func (h *ConstraintHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ConstraintUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	constraint, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "constraint updated", constraint)
}

func (h *ConstraintHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrConstraintNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "constraint not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "constraint deleted", fiber.Map{"id": id})
}

func (h *ConstraintHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrConstraintNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "constraint not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *ConstraintHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
