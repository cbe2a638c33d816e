package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
)

func newNotificationTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	return db
}

func newNotificationTestService(t *testing.T, db *gorm.DB, redisClient *redis.Client) NotificationService {
	t.Helper()
	return NewNotificationService(
		repository.NewNotificationRepository(db),
		redisClient, "gamify-test", nil,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
}

func TestNotificationPublishPersistsAndStreams(t *testing.T) {
	db := newNotificationTestDB(t, "notify_publish")
	svc := newNotificationTestService(t, db, nil)

	stream, cleanup := svc.Subscribe("7")
	defer cleanup()

	published, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "announcement",
		Message: "Reviews for <em>Final Presentation</em> are open",
	})
	require.NoError(t, err)
	require.Equal(t, "Reviews for Final Presentation are open", published.Message, "markup is stripped before storage")
	require.False(t, published.Read)

	select {
	case received := <-stream:
		require.Equal(t, published.ID, received.ID)
		require.Equal(t, "announcement", received.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the notification")
	}

	listed, err := svc.List(context.Background(), "7", 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestNotificationPublishRejectsEmptyAfterSanitization(t *testing.T) {
	db := newNotificationTestDB(t, "notify_empty")
	svc := newNotificationTestService(t, db, nil)

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "announcement",
		Message: "<script>alert(1)</script>",
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestNotificationMarkReadScopedToOwner(t *testing.T) {
	db := newNotificationTestDB(t, "notify_read")
	svc := newNotificationTestService(t, db, nil)
	ctx := context.Background()

	published, err := svc.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "reward_granted",
		Message: "You earned a badge",
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, published.ID, "8")
	require.Error(t, err, "another user's notification cannot be acknowledged")

	read, err := svc.MarkRead(ctx, published.ID, "7")
	require.NoError(t, err)
	require.True(t, read.Read)

	again, err := svc.MarkRead(ctx, published.ID, "7")
	require.NoError(t, err)
	require.True(t, again.Read)
}

func TestNotificationSubscribeCleanupClosesChannel(t *testing.T) {
	db := newNotificationTestDB(t, "notify_cleanup")
	svc := newNotificationTestService(t, db, nil)

	stream, cleanup := svc.Subscribe("9")
	cleanup()

	_, open := <-stream
	require.False(t, open)
}

func TestNotificationCrossNodeDelivery(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := newNotificationTestDB(t, "notify_fanout")
	publisher := newNotificationTestService(t, db, redisClient)
	consumer := newNotificationTestService(t, db, redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer.Start(ctx)

	// Give the redis subscription a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	stream, cleanup := consumer.Subscribe("7")
	defer cleanup()

	_, err = publisher.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "reward_granted",
		Message: "You earned a badge",
	})
	require.NoError(t, err)

	select {
	case received := <-stream:
		require.Equal(t, "You earned a badge", received.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("cross-node event never reached the subscriber")
	}
}
