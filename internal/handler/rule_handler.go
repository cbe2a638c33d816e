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

// RuleHandler wires rule HTTP routes.
type RuleHandler struct {
	service service.RuleService
	logger  zerolog.Logger
}

// NewRuleHandler constructs the handler.
func NewRuleHandler(service service.RuleService, logger zerolog.Logger) *RuleHandler {
	return &RuleHandler{
		service: service,
		logger:  logger.With().Str("component", "rule_handler").Logger(),
	}
}

// Register attaches rule endpoints to the router group.
func (h *RuleHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole("instructor", "ta")

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", staff, h.create)
	router.Put("/:id", staff, h.update)
	router.Delete("/:id", staff, h.delete)
	router.Post("/:id/constraints", staff, h.attachConstraint)
	router.Delete("/:id/constraints/:constraintId", staff, h.detachConstraint)
}

func (h *RuleHandler) list(c *fiber.Ctx) error {
	rules, err := h.service.List(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "rules retrieved", rules)
}

func (h *RuleHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rule, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "rule not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "rule retrieved", rule)
}

func (h *RuleHandler) create(c *fiber.Ctx) error {
	var payload dto.RuleCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rule, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "rule created", rule)
}

func (h *RuleHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RuleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rule, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rule updated", rule)
}

func (h *RuleHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "rule not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "rule deleted", fiber.Map{"id": id})
}

func (h *RuleHandler) attachConstraint(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RuleAttachConstraintRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rule, err := h.service.AttachConstraint(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRuleNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "rule not found")
		case errors.Is(err, service.ErrConstraintNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "constraint not found")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "constraint attached", rule)
}

func (h *RuleHandler) detachConstraint(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	constraintID, err := parseUintParam(c, "constraintId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DetachConstraint(c.Context(), id, constraintID); err != nil {
		switch {
		case errors.Is(err, service.ErrRuleNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "rule not found")
		case errors.Is(err, service.ErrRuleConstraintNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "constraint not attached to rule")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "constraint detached", fiber.Map{"rule_id": id, "constraint_id": constraintID})
}

func (h *RuleHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrRuleNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "rule not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *RuleHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
