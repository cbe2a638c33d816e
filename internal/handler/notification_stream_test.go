package handler_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/handler"
	"github.com/peerflow/gamify-api/internal/models"
)

type stubNotificationService struct{}

func (s *stubNotificationService) Publish(_ context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{ID: 1, UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

func (s *stubNotificationService) List(_ context.Context, userID string, _, _ int) ([]dto.NotificationResponse, error) {
	return []dto.NotificationResponse{{ID: 1, UserID: userID, Type: "reward_granted", Message: "You earned a badge"}}, nil
}

func (s *stubNotificationService) MarkRead(_ context.Context, id uint, userID string) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{ID: id, UserID: userID, Read: true}, nil
}

func (s *stubNotificationService) Subscribe(userID string) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse, 1)
	ch <- dto.NotificationResponse{ID: 99, UserID: userID, Type: "review_reopened", Message: "A review was reopened", CreatedAt: time.Now()}
	return ch, func() { close(ch) }
}

func (s *stubNotificationService) Start(context.Context) {}

func (s *stubNotificationService) RewardGranted(context.Context, uint, models.Reward, models.Rule) {}

func (s *stubNotificationService) ReviewReopened(context.Context, models.ArtifactReview) {}

func startServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

func TestNotificationStreamDeliversOverWebsocket(t *testing.T) {
	app := fiber.New()

	notifications := handler.NewNotificationHandler(&stubNotificationService{}, zerolog.Nop())
	group := app.Group("/api/v1/notifications", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		return c.Next()
	})
	notifications.Register(group)

	baseURL, shutdown := startServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/notifications/stream"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var received dto.NotificationResponse
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, uint(99), received.ID)
	require.Equal(t, "7", received.UserID)
	require.Equal(t, "review_reopened", received.Type)
}

func TestNotificationStreamRequiresUpgrade(t *testing.T) {
	app := fiber.New()

	notifications := handler.NewNotificationHandler(&stubNotificationService{}, zerolog.Nop())
	group := app.Group("/api/v1/notifications", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		return c.Next()
	})
	notifications.Register(group)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/notifications/stream", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}
