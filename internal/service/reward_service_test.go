package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
)

type rewardFixture struct {
	db     *gorm.DB
	user   models.User
	course models.Course
	typeID uint
}

func buildRewardFixture(t *testing.T, name string, expPoints float64) rewardFixture {
	t.Helper()
	db := newEngineTestDB(t, name)

	user := models.User{AndrewID: "kchen", Name: "Kai Chen", Email: "kchen@example.edu", ExpPoints: expPoints}
	require.NoError(t, db.Create(&user).Error)
	course := models.Course{Name: "Product Studio", Number: "05-571", Semester: "F26"}
	require.NoError(t, db.Create(&course).Error)
	rewardType := models.RewardType{Name: "coupon"}
	require.NoError(t, db.Create(&rewardType).Error)

	return rewardFixture{db: db, user: user, course: course, typeID: rewardType.ID}
}

func (f rewardFixture) createReward(t *testing.T, expPoints float64, inventory *int, active bool) models.Reward {
	t.Helper()
	reward := models.Reward{
		CourseID:  f.course.ID,
		TypeID:    f.typeID,
		Name:      "Late Day Pass",
		ExpPoints: expPoints,
		Inventory: inventory,
		Quantity:  1,
		IsActive:  active,
	}
	require.NoError(t, f.db.Create(&reward).Error)
	return reward
}

func newRewardTestService(db *gorm.DB, notifier RewardGrantNotifier) RewardService {
	return NewRewardService(
		repository.NewRewardRepository(db),
		notifier,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
}

func TestRewardPurchaseSpendsPointsAndDecrementsInventory(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_purchase", 100)
	inventory := 2
	reward := fixture.createReward(t, 60, &inventory, true)

	notifier := &fakeGrantNotifier{}
	svc := newRewardTestService(fixture.db, notifier)

	grant, err := svc.Purchase(context.Background(), reward.ID, fixture.user.ID)
	require.NoError(t, err)
	require.Equal(t, fixture.user.ID, grant.UserID)
	require.Equal(t, reward.ID, grant.RewardID)
	require.False(t, grant.Fulfilled)

	var buyer models.User
	require.NoError(t, fixture.db.First(&buyer, fixture.user.ID).Error)
	require.Equal(t, 40.0, buyer.ExpPoints)

	var updated models.Reward
	require.NoError(t, fixture.db.First(&updated, reward.ID).Error)
	require.NotNil(t, updated.Inventory)
	require.Equal(t, 1, *updated.Inventory)

	require.Len(t, notifier.grants, 1)
	require.Equal(t, reward.ID, notifier.grants[0].reward.ID)
}

func TestRewardPurchaseRepeatedReturnsAlreadyOwned(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_repeat", 100)
	reward := fixture.createReward(t, 30, nil, true)

	svc := newRewardTestService(fixture.db, nil)
	ctx := context.Background()

	_, err := svc.Purchase(ctx, reward.ID, fixture.user.ID)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, reward.ID, fixture.user.ID)
	require.ErrorIs(t, err, ErrRewardAlreadyOwned)

	var buyer models.User
	require.NoError(t, fixture.db.First(&buyer, fixture.user.ID).Error)
	require.Equal(t, 70.0, buyer.ExpPoints, "a rejected repeat purchase must not spend again")

	var grants int64
	require.NoError(t, fixture.db.Model(&models.UserReward{}).
		Where("user_id = ? AND reward_id = ?", fixture.user.ID, reward.ID).
		Count(&grants).Error)
	require.EqualValues(t, 1, grants)
}

func TestRewardPurchaseInsufficientPoints(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_broke", 10)
	reward := fixture.createReward(t, 60, nil, true)

	svc := newRewardTestService(fixture.db, nil)

	_, err := svc.Purchase(context.Background(), reward.ID, fixture.user.ID)
	require.ErrorIs(t, err, ErrInsufficientPoints)

	var buyer models.User
	require.NoError(t, fixture.db.First(&buyer, fixture.user.ID).Error)
	require.Equal(t, 10.0, buyer.ExpPoints, "a failed purchase must not spend anything")
}

func TestRewardPurchaseSoldOut(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_soldout", 100)
	inventory := 0
	reward := fixture.createReward(t, 10, &inventory, true)

	svc := newRewardTestService(fixture.db, nil)

	_, err := svc.Purchase(context.Background(), reward.ID, fixture.user.ID)
	require.ErrorIs(t, err, ErrRewardSoldOut)
}

func TestRewardPurchaseInactive(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_inactive", 100)
	reward := fixture.createReward(t, 10, nil, false)

	svc := newRewardTestService(fixture.db, nil)

	_, err := svc.Purchase(context.Background(), reward.ID, fixture.user.ID)
	require.ErrorIs(t, err, ErrRewardInactive)
}

func TestRewardPurchaseUnlimitedInventory(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_unlimited", 100)
	reward := fixture.createReward(t, 10, nil, true)

	svc := newRewardTestService(fixture.db, nil)
	ctx := context.Background()

	buyers := []models.User{fixture.user}
	for i := 0; i < 2; i++ {
		buyer := models.User{
			AndrewID:  "buyer" + string(rune('a'+i)),
			Name:      "Buyer",
			Email:     "buyer" + string(rune('a'+i)) + "@example.edu",
			ExpPoints: 100,
		}
		require.NoError(t, fixture.db.Create(&buyer).Error)
		buyers = append(buyers, buyer)
	}

	for _, buyer := range buyers {
		_, err := svc.Purchase(ctx, reward.ID, buyer.ID)
		require.NoError(t, err)
	}

	var updated models.Reward
	require.NoError(t, fixture.db.First(&updated, reward.ID).Error)
	require.Nil(t, updated.Inventory, "unlimited rewards never track remaining stock")
}

func TestRewardPurchaseUnknownReward(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_unknown", 100)

	svc := newRewardTestService(fixture.db, nil)

	_, err := svc.Purchase(context.Background(), 9999, fixture.user.ID)
	require.ErrorIs(t, err, ErrRewardNotFound)
}

func TestRewardFulfillIsIdempotent(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_fulfill", 100)
	reward := fixture.createReward(t, 10, nil, true)

	svc := newRewardTestService(fixture.db, nil)
	ctx := context.Background()

	grant, err := svc.Purchase(ctx, reward.ID, fixture.user.ID)
	require.NoError(t, err)

	fulfilled, err := svc.Fulfill(ctx, grant.ID)
	require.NoError(t, err)
	require.True(t, fulfilled.Fulfilled)

	again, err := svc.Fulfill(ctx, grant.ID)
	require.NoError(t, err)
	require.True(t, again.Fulfilled)

	_, err = svc.Fulfill(ctx, 9999)
	require.ErrorIs(t, err, ErrUserRewardNotFound)
}

func TestRewardListByCourseReportsOwnersAndConsumption(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_list", 100)
	reward := fixture.createReward(t, 10, nil, true)

	svc := newRewardTestService(fixture.db, nil)
	ctx := context.Background()

	grant, err := svc.Purchase(ctx, reward.ID, fixture.user.ID)
	require.NoError(t, err)
	_, err = svc.Fulfill(ctx, grant.ID)
	require.NoError(t, err)

	listed, err := svc.ListByCourse(ctx, fixture.course.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, reward.ID, listed[0].PK)
	require.Equal(t, []string{"kchen"}, listed[0].Owner)
	require.Equal(t, 1, listed[0].Consumed)
	require.Equal(t, "Unlimited", listed[0].Inventory)
}

func TestRewardCreateDefaultsQuantityAndActivates(t *testing.T) {
	fixture := buildRewardFixture(t, "reward_create", 0)

	svc := newRewardTestService(fixture.db, nil)

	created, err := svc.Create(context.Background(), dto.RewardCreateRequest{
		CourseID: fixture.course.ID,
		TypeID:   fixture.typeID,
		Name:     "Front Row Seat",
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	var stored models.Reward
	require.NoError(t, fixture.db.First(&stored, created.PK).Error)
	require.Equal(t, 1, stored.Quantity)
}
