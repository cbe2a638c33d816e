package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peerflow/gamify-api/internal/service"
	"github.com/peerflow/gamify-api/internal/utils"
)

// ReportHandler wires the artifact report route.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches report endpoints to the router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/artifact/:artifactId", h.artifactReport)
}

func (h *ReportHandler) artifactReport(c *fiber.Ctx) error {
	artifactID, err := parseUintParam(c, "artifactId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.Generate(c.Context(), artifactID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArtifactNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "artifact not found")
		case errors.Is(err, service.ErrQuestionOptionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "question option not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "report generated", report)
}

func (h *ReportHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
