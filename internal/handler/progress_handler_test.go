package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/config"
	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/handler"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
	"github.com/peerflow/gamify-api/internal/router"
	"github.com/peerflow/gamify-api/internal/service"
)

func setupEngineApp(t *testing.T, name, role string) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Registration{},
		&models.Constraint{},
		&models.Progress{},
		&models.Rule{},
		&models.RuleConstraint{},
		&models.Achievement{},
		&models.RewardType{},
		&models.Reward{},
		&models.UserReward{},
	))

	user := models.User{ID: 1, AndrewID: "handler", Name: "Handler Test", Email: "handler@example.edu"}
	require.NoError(t, db.Create(&user).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	constraintService := service.NewConstraintService(repository.NewConstraintRepository(db), validate, logger)
	progressService := service.NewProgressService(repository.NewEngineRepository(db), nil, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		ConstraintHandler: handler.NewConstraintHandler(constraintService, logger),
		ProgressHandler:   handler.NewProgressHandler(progressService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return app
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func TestProgressHandlerTrackFlow(t *testing.T) {
	app := setupEngineApp(t, "handler_track", "instructor")

	createBody, err := json.Marshal(dto.ConstraintCreateRequest{URL: "course/view", Threshold: 2})
	require.NoError(t, err)
	createReq := httptest.NewRequest("POST", "/api/v1/constraints", bytes.NewReader(createBody))
	createReq.Header.Set("Content-Type", "application/json")
	createResp, err := app.Test(createReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, createResp.StatusCode)
	require.NoError(t, createResp.Body.Close())

	// An empty PUT body counts one occurrence.
	trackResp, err := app.Test(httptest.NewRequest("PUT", "/api/v1/progress/course/view", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, trackResp.StatusCode)

	var tracked struct {
		Success bool                 `json:"success"`
		Data    dto.ProgressResponse `json:"data"`
		Message string               `json:"message"`
	}
	decodeBody(t, trackResp, &tracked)
	require.True(t, tracked.Success)
	require.Equal(t, "progress updated", tracked.Message)
	require.Equal(t, 1.0, tracked.Data.CurPoint)
	require.False(t, tracked.Data.Met)

	trackResp, err = app.Test(httptest.NewRequest("PUT", "/api/v1/progress/course/view", nil))
	require.NoError(t, err)
	decodeBody(t, trackResp, &tracked)
	require.Equal(t, 2.0, tracked.Data.CurPoint)
	require.True(t, tracked.Data.Met)

	getResp, err := app.Test(httptest.NewRequest("GET", "/api/v1/progress/course/view", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, getResp.StatusCode)
	decodeBody(t, getResp, &tracked)
	require.Equal(t, "course/view", tracked.Data.Constraint.URL)

	deleteResp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/progress/course/view", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, deleteResp.StatusCode)
	require.NoError(t, deleteResp.Body.Close())

	missingResp, err := app.Test(httptest.NewRequest("GET", "/api/v1/progress/course/view", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, missingResp.StatusCode)
	require.NoError(t, missingResp.Body.Close())
}

func TestConstraintWritesRequireStaffRole(t *testing.T) {
	app := setupEngineApp(t, "handler_roles", "student")

	createBody, err := json.Marshal(dto.ConstraintCreateRequest{URL: "course/view", Threshold: 2})
	require.NoError(t, err)
	createReq := httptest.NewRequest("POST", "/api/v1/constraints", bytes.NewReader(createBody))
	createReq.Header.Set("Content-Type", "application/json")
	createResp, err := app.Test(createReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, createResp.StatusCode)
	require.NoError(t, createResp.Body.Close())

	// Reads stay open to every authenticated user.
	listResp, err := app.Test(httptest.NewRequest("GET", "/api/v1/constraints", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)
	require.NoError(t, listResp.Body.Close())

	deleteResp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/constraints/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, deleteResp.StatusCode)
	require.NoError(t, deleteResp.Body.Close())
}

func TestProgressHandlerMaxModeBody(t *testing.T) {
	app := setupEngineApp(t, "handler_max", "instructor")

	createBody, err := json.Marshal(dto.ConstraintCreateRequest{URL: "assignment/grade", Threshold: 80, Kind: "point"})
	require.NoError(t, err)
	createReq := httptest.NewRequest("POST", "/api/v1/constraints", bytes.NewReader(createBody))
	createReq.Header.Set("Content-Type", "application/json")
	createResp, err := app.Test(createReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, createResp.StatusCode)
	require.NoError(t, createResp.Body.Close())

	trackReq := httptest.NewRequest("PUT", "/api/v1/progress/assignment/grade", bytes.NewReader([]byte(`{"cur_point": 55}`)))
	trackReq.Header.Set("Content-Type", "application/json")
	trackResp, err := app.Test(trackReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, trackResp.StatusCode)

	var tracked struct {
		Success bool                 `json:"success"`
		Data    dto.ProgressResponse `json:"data"`
	}
	decodeBody(t, trackResp, &tracked)
	require.Equal(t, 55.0, tracked.Data.CurPoint)

	negativeReq := httptest.NewRequest("PUT", "/api/v1/progress/assignment/grade", bytes.NewReader([]byte(`{"cur_point": -3}`)))
	negativeReq.Header.Set("Content-Type", "application/json")
	negativeResp, err := app.Test(negativeReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, negativeResp.StatusCode)
	require.NoError(t, negativeResp.Body.Close())

	unknownResp, err := app.Test(httptest.NewRequest("PUT", "/api/v1/progress/does/not/exist", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, unknownResp.StatusCode)
	require.NoError(t, unknownResp.Body.Close())
}
