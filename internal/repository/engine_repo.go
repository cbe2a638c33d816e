package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peerflow/gamify-api/internal/models"
)

// EngineRepository is the persistence surface of the incentive engine. The
// whole track/evaluate/grant sequence runs against one instance inside a
// single transaction obtained via InTx.
type EngineRepository interface {
	InTx(ctx context.Context, fn func(EngineRepository) error) error
	ConstraintByURL(ctx context.Context, url string) (models.Constraint, error)
	ProgressForUpdate(ctx context.Context, userID, constraintID uint) (models.Progress, error)
	SaveProgress(ctx context.Context, progress *models.Progress) error
	ProgressByUserAndConstraint(ctx context.Context, userID, constraintID uint) (models.Progress, error)
	DeleteProgress(ctx context.Context, id uint) error
	RulesForConstraint(ctx context.Context, constraintID uint) ([]models.Rule, error)
	RewardsForRule(ctx context.Context, ruleID uint) ([]models.Reward, error)
	GrantReward(ctx context.Context, userID, rewardID uint) (bool, error)
	RecordAchievement(ctx context.Context, registrationID, ruleID uint) error
	RegistrationForUser(ctx context.Context, userID, courseID uint) (models.Registration, error)
	AddExpPoints(ctx context.Context, userID uint, delta float64) error
}

type engineRepository struct {
	db *gorm.DB
}

// NewEngineRepository constructs a GORM-backed engine repository.
func NewEngineRepository(db *gorm.DB) EngineRepository {
	return &engineRepository{db: db}
}

func (r *engineRepository) InTx(ctx context.Context, fn func(EngineRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&engineRepository{db: tx})
	})
}

func (r *engineRepository) ConstraintByURL(ctx context.Context, url string) (models.Constraint, error) {
	var constraint models.Constraint
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&constraint).Error; err != nil {
		return models.Constraint{}, err
	}

	return constraint, nil
}

// ProgressForUpdate returns the progress row for (user, constraint) with a
// row-level lock, creating it at zero on first touch. The unique index on
// (user_id, constraint_id) makes the concurrent first-touch race safe.
func (r *engineRepository) ProgressForUpdate(ctx context.Context, userID, constraintID uint) (models.Progress, error) {
	seed := models.Progress{UserID: userID, ConstraintID: constraintID, CurPoint: 0}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error; err != nil {
		return models.Progress{}, err
	}

	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var progress models.Progress
	if err := query.
		Where("user_id = ? AND constraint_id = ?", userID, constraintID).
		First(&progress).Error; err != nil {
		return models.Progress{}, err
	}

	return progress, nil
}

func (r *engineRepository) SaveProgress(ctx context.Context, progress *models.Progress) error {
	return r.db.WithContext(ctx).Save(progress).Error
}

func (r *engineRepository) ProgressByUserAndConstraint(ctx context.Context, userID, constraintID uint) (models.Progress, error) {
	var progress models.Progress
	if err := r.db.WithContext(ctx).
		Preload("Constraint").
		Where("user_id = ? AND constraint_id = ?", userID, constraintID).
		First(&progress).Error; err != nil {
		return models.Progress{}, err
	}

	return progress, nil
}

func (r *engineRepository) DeleteProgress(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Progress{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *engineRepository) RulesForConstraint(ctx context.Context, constraintID uint) ([]models.Rule, error) {
	var joins []models.RuleConstraint
	if err := r.db.WithContext(ctx).
		Where("constraint_id = ?", constraintID).
		Find(&joins).Error; err != nil {
		return nil, err
	}

	rules := make([]models.Rule, 0, len(joins))
	for _, join := range joins {
		var rule models.Rule
		if err := r.db.WithContext(ctx).
			Preload("Constraints").
			First(&rule, join.RuleID).Error; err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func (r *engineRepository) RewardsForRule(ctx context.Context, ruleID uint) ([]models.Reward, error) {
	var rewards []models.Reward
	if err := r.db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Order("id ASC").
		Find(&rewards).Error; err != nil {
		return nil, err
	}

	return rewards, nil
}

// GrantReward inserts a user reward, ignoring the insert when the pair
// already exists. Returns true only when a new grant was created.
func (r *engineRepository) GrantReward(ctx context.Context, userID, rewardID uint) (bool, error) {
	grant := models.UserReward{UserID: userID, RewardID: rewardID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grant)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *engineRepository) RecordAchievement(ctx context.Context, registrationID, ruleID uint) error {
	achievement := models.Achievement{RegistrationID: registrationID, RuleID: ruleID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&achievement).Error
}

func (r *engineRepository) RegistrationForUser(ctx context.Context, userID, courseID uint) (models.Registration, error) {
	var registration models.Registration
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&registration).Error; err != nil {
		return models.Registration{}, err
	}

	return registration, nil
}

func (r *engineRepository) AddExpPoints(ctx context.Context, userID uint, delta float64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("exp_points", gorm.Expr("exp_points + ?", delta)).Error
}
