package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peerflow/gamify-api/internal/models"
)

// RewardRepository defines persistence operations for the reward store.
type RewardRepository interface {
	InTx(ctx context.Context, fn func(RewardRepository) error) error
	ListByCourse(ctx context.Context, courseID uint) ([]models.Reward, error)
	GetByID(ctx context.Context, id uint) (models.Reward, error)
	GetForUpdate(ctx context.Context, id uint) (models.Reward, error)
	Create(ctx context.Context, reward *models.Reward) error
	Update(ctx context.Context, reward *models.Reward) error
	Owners(ctx context.Context, rewardID uint) ([]string, error)
	ConsumedCount(ctx context.Context, rewardID uint) (int64, error)
	UserForUpdate(ctx context.Context, userID uint) (models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	CreateUserReward(ctx context.Context, grant *models.UserReward) error
	UserRewardExists(ctx context.Context, userID, rewardID uint) (bool, error)
	GetUserReward(ctx context.Context, id uint) (models.UserReward, error)
	SaveUserReward(ctx context.Context, grant *models.UserReward) error
	CreateType(ctx context.Context, rewardType *models.RewardType) error
}

type rewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository instantiates a GORM-backed repository.
func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) InTx(ctx context.Context, fn func(RewardRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&rewardRepository{db: tx})
	})
}

func (r *rewardRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Reward, error) {
	var rewards []models.Reward
	if err := r.db.WithContext(ctx).
		Preload("Type").
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&rewards).Error; err != nil {
		return nil, err
	}

	return rewards, nil
}

func (r *rewardRepository) GetByID(ctx context.Context, id uint) (models.Reward, error) {
	var reward models.Reward
	if err := r.db.WithContext(ctx).Preload("Type").First(&reward, id).Error; err != nil {
		return models.Reward{}, err
	}

	return reward, nil
}

func (r *rewardRepository) GetForUpdate(ctx context.Context, id uint) (models.Reward, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var reward models.Reward
	if err := query.First(&reward, id).Error; err != nil {
		return models.Reward{}, err
	}

	return reward, nil
}

func (r *rewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *rewardRepository) Update(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Omit("Type", "Course", "Rule").Save(reward).Error
}

func (r *rewardRepository) Owners(ctx context.Context, rewardID uint) ([]string, error) {
	var owners []string
	if err := r.db.WithContext(ctx).
		Model(&models.UserReward{}).
		Joins("JOIN users ON users.id = user_rewards.user_id").
		Where("user_rewards.reward_id = ?", rewardID).
		Order("user_rewards.id ASC").
		Pluck("users.andrew_id", &owners).Error; err != nil {
		return nil, err
	}

	return owners, nil
}

func (r *rewardRepository) ConsumedCount(ctx context.Context, rewardID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserReward{}).
		Where("reward_id = ? AND fulfilled = ?", rewardID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *rewardRepository) UserForUpdate(ctx context.Context, userID uint) (models.User, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var user models.User
	if err := query.First(&user, userID).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *rewardRepository) SaveUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *rewardRepository) CreateUserReward(ctx context.Context, grant *models.UserReward) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

func (r *rewardRepository) UserRewardExists(ctx context.Context, userID, rewardID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserReward{}).
		Where("user_id = ? AND reward_id = ?", userID, rewardID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *rewardRepository) GetUserReward(ctx context.Context, id uint) (models.UserReward, error) {
	var grant models.UserReward
	if err := r.db.WithContext(ctx).First(&grant, id).Error; err != nil {
		return models.UserReward{}, err
	}

	return grant, nil
}

func (r *rewardRepository) SaveUserReward(ctx context.Context, grant *models.UserReward) error {
	return r.db.WithContext(ctx).Save(grant).Error
}

func (r *rewardRepository) CreateType(ctx context.Context, rewardType *models.RewardType) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rewardType).Error
}
