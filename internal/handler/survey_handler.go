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

// SurveyHandler wires survey authoring routes under the assignments group.
type SurveyHandler struct {
	service service.SurveyService
	logger  zerolog.Logger
}

// NewSurveyHandler constructs the handler.
func NewSurveyHandler(service service.SurveyService, logger zerolog.Logger) *SurveyHandler {
	return &SurveyHandler{
		service: service,
		logger:  logger.With().Str("component", "survey_handler").Logger(),
	}
}

// Register attaches survey endpoints to the assignments router group.
func (h *SurveyHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole("instructor", "ta")

	router.Get("/:assignmentId/survey", h.get)
	router.Post("/:assignmentId/survey", staff, h.create)
	router.Post("/:assignmentId/survey/import", staff, h.importTemplate)
}

func (h *SurveyHandler) get(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	survey, err := h.service.Get(c.Context(), assignmentID)
	if err != nil {
		if errors.Is(err, service.ErrSurveyNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "survey not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "survey retrieved", survey)
}

func (h *SurveyHandler) create(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SurveyCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	survey, err := h.service.Create(c.Context(), assignmentID, payload)
	if err != nil {
		var validationErrors validator.ValidationErrors
		switch {
		case errors.Is(err, service.ErrSurveyAlreadyExists):
			return utils.SendError(c, fiber.StatusConflict, "survey already exists for assignment")
		case errors.As(err, &validationErrors):
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		}
		return h.internalError(c, err)
	}

	return utils.SendCreated(c, "survey created", survey)
}

func (h *SurveyHandler) importTemplate(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	survey, err := h.service.Import(c.Context(), assignmentID, c.Body())
	if err != nil {
		if errors.Is(err, service.ErrInvalidSurveyTemplate) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return h.internalError(c, err)
	}

	return utils.SendCreated(c, "survey template imported", survey)
}

func (h *SurveyHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
