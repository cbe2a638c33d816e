package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/models"
)

// ConstraintRepository defines persistence operations for constraints.
type ConstraintRepository interface {
	List(ctx context.Context) ([]models.Constraint, error)
	GetByID(ctx context.Context, id uint) (models.Constraint, error)
	GetByURL(ctx context.Context, url string) (models.Constraint, error)
	Create(ctx context.Context, constraint *models.Constraint) error
	Update(ctx context.Context, constraint *models.Constraint) error
	Delete(ctx context.Context, id uint) error
}

type constraintRepository struct {
	db *gorm.DB
}

// NewConstraintRepository instantiates a GORM-backed repository.
func NewConstraintRepository(db *gorm.DB) ConstraintRepository {
	return &constraintRepository{db: db}
}

func (r *constraintRepository) List(ctx context.Context) ([]models.Constraint, error) {
	var constraints []models.Constraint
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&constraints).Error; err != nil {
		return nil, err
	}

	return constraints, nil
}

func (r *constraintRepository) GetByID(ctx context.Context, id uint) (models.Constraint, error) {
	var constraint models.Constraint
	if err := r.db.WithContext(ctx).First(&constraint, id).Error; err != nil {
		return models.Constraint{}, err
	}

	return constraint, nil
}

func (r *constraintRepository) GetByURL(ctx context.Context, url string) (models.Constraint, error) {
	var constraint models.Constraint
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&constraint).Error; err != nil {
		return models.Constraint{}, err
	}

	return constraint, nil
}

func (r *constraintRepository) Create(ctx context.Context, constraint *models.Constraint) error {
	return r.db.WithContext(ctx).Create(constraint).Error
}

func (r *constraintRepository) Update(ctx context.Context, constraint *models.Constraint) error {
	return r.db.WithContext(ctx).Save(constraint).Error
}

func (r *constraintRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Constraint{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
