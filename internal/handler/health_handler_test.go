package handler_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/peerflow/gamify-api/internal/config"
	"github.com/peerflow/gamify-api/internal/handler"
	"github.com/peerflow/gamify-api/internal/router"
)

func TestHealthEndpoint(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "gamify-api", AppEnv: "test"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "gamify-api", resp.Header.Get("X-Application"))

	var body struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeBody(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "ok", body.Data.Status)
	require.Equal(t, "test", body.Data.Environment)
}
