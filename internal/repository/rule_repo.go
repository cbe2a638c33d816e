package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peerflow/gamify-api/internal/models"
)

// RuleRepository defines persistence operations for rules and their
// constraint attachments.
type RuleRepository interface {
	List(ctx context.Context) ([]models.Rule, error)
	GetByID(ctx context.Context, id uint) (models.Rule, error)
	Create(ctx context.Context, rule *models.Rule) error
	Update(ctx context.Context, rule *models.Rule) error
	Delete(ctx context.Context, id uint) error
	AttachConstraint(ctx context.Context, ruleID, constraintID uint) error
	DetachConstraint(ctx context.Context, ruleID, constraintID uint) error
}

type ruleRepository struct {
	db *gorm.DB
}

// NewRuleRepository instantiates a GORM-backed repository.
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) List(ctx context.Context) ([]models.Rule, error) {
	var rules []models.Rule
	if err := r.db.WithContext(ctx).Preload("Constraints").Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}

	return rules, nil
}

func (r *ruleRepository) GetByID(ctx context.Context, id uint) (models.Rule, error) {
	var rule models.Rule
	if err := r.db.WithContext(ctx).Preload("Constraints").First(&rule, id).Error; err != nil {
		return models.Rule{}, err
	}

	return rule, nil
}

func (r *ruleRepository) Create(ctx context.Context, rule *models.Rule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepository) Update(ctx context.Context, rule *models.Rule) error {
	return r.db.WithContext(ctx).Omit("Constraints").Save(rule).Error
}

func (r *ruleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Rule{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ruleRepository) AttachConstraint(ctx context.Context, ruleID, constraintID uint) error {
	join := models.RuleConstraint{RuleID: ruleID, ConstraintID: constraintID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&join).Error
}

func (r *ruleRepository) DetachConstraint(ctx context.Context, ruleID, constraintID uint) error {
	result := r.db.WithContext(ctx).
		Where("rule_id = ? AND constraint_id = ?", ruleID, constraintID).
		Delete(&models.RuleConstraint{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
