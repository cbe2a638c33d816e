package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peerflow/gamify-api/internal/config"
	"github.com/peerflow/gamify-api/internal/database"
	"github.com/peerflow/gamify-api/internal/handler"
	"github.com/peerflow/gamify-api/internal/middleware"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/observability"
	"github.com/peerflow/gamify-api/internal/repository"
	"github.com/peerflow/gamify-api/internal/router"
	"github.com/peerflow/gamify-api/internal/service"
	cloud "github.com/peerflow/gamify-api/pkg/cloudinary"
	"github.com/peerflow/gamify-api/pkg/keywords"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Registration{},
		&models.Team{},
		&models.Membership{},
		&models.Constraint{},
		&models.Progress{},
		&models.Rule{},
		&models.RuleConstraint{},
		&models.Achievement{},
		&models.RewardType{},
		&models.Reward{},
		&models.UserReward{},
		&models.Assignment{},
		&models.Artifact{},
		&models.ArtifactReview{},
		&models.FeedbackSurvey{},
		&models.SurveySection{},
		&models.Question{},
		&models.OptionChoice{},
		&models.QuestionOption{},
		&models.Answer{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, notifications stay node-local")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	storage, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var extractor keywords.Extractor
	if cfg.OpenAIAPIKey != "" {
		openaiExtractor, err := keywords.NewOpenAIExtractor(keywords.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.KeywordModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create keyword extractor: %v", err)
		}
		extractor = openaiExtractor
	} else {
		logger.Warn().Msg("openai api key missing, reports ship without keywords")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	engineRepo := repository.NewEngineRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	reviewRepo := repository.NewArtifactReviewRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventChannelBase, natsConn, validate, logger)

	constraintService := service.NewConstraintService(constraintRepo, validate, logger)
	ruleService := service.NewRuleService(ruleRepo, constraintRepo, validate, logger)
	progressService := service.NewProgressService(engineRepo, notificationService, logger)
	rewardService := service.NewRewardService(rewardRepo, notificationService, validate, logger)
	surveyService, err := service.NewSurveyService(surveyRepo, validate, logger)
	if err != nil {
		log.Fatalf("failed to create survey service: %v", err)
	}
	reportService := service.NewReportService(reviewRepo, surveyRepo, redisClient, cfg.ReportCacheTTL, extractor, logger)
	reviewService := service.NewArtifactReviewService(reviewRepo, surveyRepo, reportService, notificationService, validate, logger)
	artifactService := service.NewArtifactService(reviewRepo, storage, logger)
	courseService := service.NewCourseService(courseRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes),
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())

	router.Register(app, cfg, router.Dependencies{
		ConstraintHandler:     handler.NewConstraintHandler(constraintService, logger),
		RuleHandler:           handler.NewRuleHandler(ruleService, logger),
		ProgressHandler:       handler.NewProgressHandler(progressService, logger),
		RewardHandler:         handler.NewRewardHandler(rewardService, logger),
		SurveyHandler:         handler.NewSurveyHandler(surveyService, logger),
		ArtifactHandler:       handler.NewArtifactHandler(artifactService, validate, cfg.UploadMaxBytes, logger),
		ArtifactReviewHandler: handler.NewArtifactReviewHandler(reviewService, logger),
		ReportHandler:         handler.NewReportHandler(reportService, logger),
		NotificationHandler:   handler.NewNotificationHandler(notificationService, logger),
		CourseHandler:         handler.NewCourseHandler(courseService, logger),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	runCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(runCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
