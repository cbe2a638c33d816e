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

// RewardHandler wires reward store HTTP routes.
type RewardHandler struct {
	service service.RewardService
	logger  zerolog.Logger
}

// NewRewardHandler constructs the handler.
func NewRewardHandler(service service.RewardService, logger zerolog.Logger) *RewardHandler {
	return &RewardHandler{
		service: service,
		logger:  logger.With().Str("component", "reward_handler").Logger(),
	}
}

// Register attaches reward endpoints to the router group.
func (h *RewardHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole("instructor", "ta")

	router.Get("/course/:courseId", h.listByCourse)
	router.Post("", staff, h.create)
	router.Post("/:id/purchase", h.purchase)
	router.Patch("/grants/:id/fulfill", staff, h.fulfill)
}

func (h *RewardHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rewards, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "rewards retrieved", rewards)
}

func (h *RewardHandler) create(c *fiber.Ctx) error {
	var payload dto.RewardCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	reward, err := h.service.Create(c.Context(), payload)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		}
		return h.internalError(c, err)
	}

	return utils.SendCreated(c, "reward created", reward)
}

func (h *RewardHandler) purchase(c *fiber.Ctx) error {
	rewardID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	grant, err := h.service.Purchase(c.Context(), rewardID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRewardNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "reward not found")
		case errors.Is(err, service.ErrRewardInactive):
			return utils.SendError(c, fiber.StatusConflict, "reward is not active")
		case errors.Is(err, service.ErrRewardSoldOut):
			return utils.SendError(c, fiber.StatusConflict, "reward is sold out")
		case errors.Is(err, service.ErrRewardAlreadyOwned):
			return utils.SendError(c, fiber.StatusConflict, "reward already owned")
		case errors.Is(err, service.ErrInsufficientPoints):
			return utils.SendError(c, fiber.StatusPaymentRequired, "insufficient experience points")
		}
		return h.internalError(c, err)
	}

	return utils.SendCreated(c, "reward purchased", grant)
}

func (h *RewardHandler) fulfill(c *fiber.Ctx) error {
	grantID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	grant, err := h.service.Fulfill(c.Context(), grantID)
	if err != nil {
		if errors.Is(err, service.ErrUserRewardNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "user reward not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "reward fulfilled", grant)
}

func (h *RewardHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
