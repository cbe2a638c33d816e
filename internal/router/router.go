package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/peerflow/gamify-api/internal/config"
	"github.com/peerflow/gamify-api/internal/handler"
	"github.com/peerflow/gamify-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ConstraintHandler     *handler.ConstraintHandler
	RuleHandler           *handler.RuleHandler
	ProgressHandler       *handler.ProgressHandler
	RewardHandler         *handler.RewardHandler
	SurveyHandler         *handler.SurveyHandler
	ArtifactHandler       *handler.ArtifactHandler
	ArtifactReviewHandler *handler.ArtifactReviewHandler
	ReportHandler         *handler.ReportHandler
	NotificationHandler   *handler.NotificationHandler
	CourseHandler         *handler.CourseHandler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	protected := app.Group("/api/v1", jwtMiddleware)

	if deps.ConstraintHandler != nil {
		deps.ConstraintHandler.Register(protected.Group("/constraints"))
	}

	if deps.RuleHandler != nil {
		deps.RuleHandler.Register(protected.Group("/rules"))
	}

	if deps.ProgressHandler != nil {
		// Progress tracking is driven by page hits, so it gets a per-user limit.
		deps.ProgressHandler.Register(protected.Group("/progress", middleware.RateLimit("progress", 120, time.Minute)))
	}

	if deps.RewardHandler != nil {
		deps.RewardHandler.Register(protected.Group("/rewards"))
	}

	if deps.SurveyHandler != nil {
		deps.SurveyHandler.Register(protected.Group("/assignments"))
	}

	if deps.ArtifactHandler != nil {
		deps.ArtifactHandler.Register(protected.Group("/artifacts"))
	}

	if deps.ArtifactReviewHandler != nil {
		deps.ArtifactReviewHandler.Register(protected.Group("/reviews"))
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(protected.Group("/reports"))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(protected.Group("/notifications"))
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(protected.Group("/courses"))
		deps.CourseHandler.RegisterRegistrations(protected.Group("/registrations"))
	}
}
