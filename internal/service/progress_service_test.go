package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
)

type capturedGrant struct {
	userID uint
	reward models.Reward
	rule   models.Rule
}

type fakeGrantNotifier struct {
	grants []capturedGrant
}

func (f *fakeGrantNotifier) RewardGranted(_ context.Context, userID uint, reward models.Reward, rule models.Rule) {
	f.grants = append(f.grants, capturedGrant{userID: userID, reward: reward, rule: rule})
}

func newEngineTestDB(t *testing.T, name string) *gorm.DB {
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
	return db
}

func TestProgressTrackIncrementMeetsThresholdInclusive(t *testing.T) {
	db := newEngineTestDB(t, "engine_increment")

	user := models.User{AndrewID: "mzhang", Name: "Mei Zhang", Email: "mzhang@example.edu"}
	require.NoError(t, db.Create(&user).Error)
	constraint := models.Constraint{URL: "course/view", Threshold: 3, Kind: models.ConstraintKindAction}
	require.NoError(t, db.Create(&constraint).Error)

	svc := NewProgressService(repository.NewEngineRepository(db), nil, zerolog.Nop())
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		progress, err := svc.Track(ctx, user.ID, "course/view", TrackModeIncrement, 1)
		require.NoError(t, err)
		require.Equal(t, float64(i), progress.CurPoint)
		require.False(t, progress.Met)
	}

	progress, err := svc.Track(ctx, user.ID, "course/view", TrackModeIncrement, 1)
	require.NoError(t, err)
	require.Equal(t, 3.0, progress.CurPoint)
	require.True(t, progress.Met, "meeting the threshold exactly counts as met")
}

func TestProgressTrackMaxNeverRegresses(t *testing.T) {
	db := newEngineTestDB(t, "engine_ratchet")

	user := models.User{AndrewID: "jpark", Name: "Jordan Park", Email: "jpark@example.edu"}
	require.NoError(t, db.Create(&user).Error)
	constraint := models.Constraint{URL: "assignment/grade", Threshold: 80, Kind: models.ConstraintKindPoint}
	require.NoError(t, db.Create(&constraint).Error)

	svc := NewProgressService(repository.NewEngineRepository(db), nil, zerolog.Nop())
	ctx := context.Background()

	progress, err := svc.Track(ctx, user.ID, "assignment/grade", TrackModeMax, 50.9)
	require.NoError(t, err)
	require.Equal(t, 50.0, progress.CurPoint, "scores are truncated to whole points")
	require.False(t, progress.Met)

	progress, err = svc.Track(ctx, user.ID, "assignment/grade", TrackModeMax, 30)
	require.NoError(t, err)
	require.Equal(t, 50.0, progress.CurPoint, "a lower resubmission must not lower the best score")

	progress, err = svc.Track(ctx, user.ID, "assignment/grade", TrackModeMax, 86)
	require.NoError(t, err)
	require.Equal(t, 86.0, progress.CurPoint)
	require.True(t, progress.Met)

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	require.Equal(t, 80.0, updated.ExpPoints, "point constraints pay out their threshold on first satisfaction")
}

func TestProgressTrackGrantsRuleRewardAtMostOnce(t *testing.T) {
	db := newEngineTestDB(t, "engine_grant_once")

	user := models.User{AndrewID: "asingh", Name: "Avery Singh", Email: "asingh@example.edu"}
	require.NoError(t, db.Create(&user).Error)
	course := models.Course{Name: "Engineering Leadership", Number: "17-999", Semester: "F26"}
	require.NoError(t, db.Create(&course).Error)
	registration := models.Registration{UserID: user.ID, CourseID: course.ID, Role: models.RoleStudent}
	require.NoError(t, db.Create(&registration).Error)

	constraint := models.Constraint{URL: "review/submit", Threshold: 2, Kind: models.ConstraintKindAction}
	require.NoError(t, db.Create(&constraint).Error)
	rule := models.Rule{Name: "Diligent Reviewer"}
	require.NoError(t, db.Create(&rule).Error)
	require.NoError(t, db.Create(&models.RuleConstraint{RuleID: rule.ID, ConstraintID: constraint.ID}).Error)

	rewardType := models.RewardType{Name: "badge"}
	require.NoError(t, db.Create(&rewardType).Error)
	ruleID := rule.ID
	reward := models.Reward{CourseID: course.ID, RuleID: &ruleID, TypeID: rewardType.ID, Name: "Reviewer Badge", IsActive: true}
	require.NoError(t, db.Create(&reward).Error)

	notifier := &fakeGrantNotifier{}
	svc := NewProgressService(repository.NewEngineRepository(db), notifier, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Track(ctx, user.ID, "review/submit", TrackModeIncrement, 1)
	require.NoError(t, err)
	require.Empty(t, notifier.grants)

	progress, err := svc.Track(ctx, user.ID, "review/submit", TrackModeIncrement, 1)
	require.NoError(t, err)
	require.True(t, progress.Met)
	require.Len(t, notifier.grants, 1)
	require.Equal(t, user.ID, notifier.grants[0].userID)
	require.Equal(t, reward.ID, notifier.grants[0].reward.ID)

	// Further updates keep the constraint met but never grant twice.
	_, err = svc.Track(ctx, user.ID, "review/submit", TrackModeIncrement, 1)
	require.NoError(t, err)
	require.Len(t, notifier.grants, 1)

	var grantCount int64
	require.NoError(t, db.Model(&models.UserReward{}).Where("user_id = ? AND reward_id = ?", user.ID, reward.ID).Count(&grantCount).Error)
	require.EqualValues(t, 1, grantCount)

	var achievementCount int64
	require.NoError(t, db.Model(&models.Achievement{}).Where("registration_id = ? AND rule_id = ?", registration.ID, rule.ID).Count(&achievementCount).Error)
	require.EqualValues(t, 1, achievementCount)
}

func TestProgressTrackPartialRuleDoesNotGrant(t *testing.T) {
	db := newEngineTestDB(t, "engine_partial")

	user := models.User{AndrewID: "tlee", Name: "Taylor Lee", Email: "tlee@example.edu"}
	require.NoError(t, db.Create(&user).Error)
	course := models.Course{Name: "Systems", Number: "15-440", Semester: "S26"}
	require.NoError(t, db.Create(&course).Error)

	first := models.Constraint{URL: "artifact/upload", Threshold: 1, Kind: models.ConstraintKindAction}
	second := models.Constraint{URL: "survey/answer", Threshold: 5, Kind: models.ConstraintKindAction}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	rule := models.Rule{Name: "Course Completionist"}
	require.NoError(t, db.Create(&rule).Error)
	require.NoError(t, db.Create(&models.RuleConstraint{RuleID: rule.ID, ConstraintID: first.ID}).Error)
	require.NoError(t, db.Create(&models.RuleConstraint{RuleID: rule.ID, ConstraintID: second.ID}).Error)

	rewardType := models.RewardType{Name: "bonus"}
	require.NoError(t, db.Create(&rewardType).Error)
	ruleID := rule.ID
	reward := models.Reward{CourseID: course.ID, RuleID: &ruleID, TypeID: rewardType.ID, Name: "Completion Bonus", IsActive: true}
	require.NoError(t, db.Create(&reward).Error)

	notifier := &fakeGrantNotifier{}
	svc := NewProgressService(repository.NewEngineRepository(db), notifier, zerolog.Nop())
	ctx := context.Background()

	progress, err := svc.Track(ctx, user.ID, "artifact/upload", TrackModeIncrement, 1)
	require.NoError(t, err)
	require.True(t, progress.Met)
	require.Empty(t, notifier.grants, "one met constraint out of two must not fire the rule")

	var grantCount int64
	require.NoError(t, db.Model(&models.UserReward{}).Count(&grantCount).Error)
	require.Zero(t, grantCount)
}

func TestProgressGetAndDeleteSentinels(t *testing.T) {
	db := newEngineTestDB(t, "engine_sentinels")

	user := models.User{AndrewID: "rdoe", Name: "Riley Doe", Email: "rdoe@example.edu"}
	require.NoError(t, db.Create(&user).Error)
	constraint := models.Constraint{URL: "forum/post", Threshold: 10, Kind: models.ConstraintKindAction}
	require.NoError(t, db.Create(&constraint).Error)

	svc := NewProgressService(repository.NewEngineRepository(db), nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Get(ctx, user.ID, "missing/url")
	require.ErrorIs(t, err, ErrConstraintNotFound)

	_, err = svc.Get(ctx, user.ID, "forum/post")
	require.ErrorIs(t, err, ErrProgressNotFound)

	_, err = svc.Track(ctx, user.ID, "forum/post", TrackModeIncrement, 1)
	require.NoError(t, err)

	retrieved, err := svc.Get(ctx, user.ID, "forum/post")
	require.NoError(t, err)
	require.Equal(t, 1.0, retrieved.CurPoint)
	require.Equal(t, "forum/post", retrieved.Constraint.URL)

	require.NoError(t, svc.Delete(ctx, user.ID, "forum/post"))
	require.ErrorIs(t, svc.Delete(ctx, user.ID, "forum/post"), ErrProgressNotFound)
}
