package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/models"
)

// ArtifactReviewRepository defines persistence operations for artifacts,
// review tasks and their answers.
type ArtifactReviewRepository interface {
	InTx(ctx context.Context, fn func(ArtifactReviewRepository) error) error
	CreateArtifact(ctx context.Context, artifact *models.Artifact) error
	GetArtifact(ctx context.Context, id uint) (models.Artifact, error)
	GetReview(ctx context.Context, id uint) (models.ArtifactReview, error)
	CreateReview(ctx context.Context, review *models.ArtifactReview) error
	SaveReview(ctx context.Context, review *models.ArtifactReview) error
	ReviewsForArtifact(ctx context.Context, artifactID uint) ([]models.ArtifactReview, error)
	DeleteAnswersForReview(ctx context.Context, reviewID uint) error
	CreateAnswers(ctx context.Context, answers []models.Answer) error
	AnswersForReview(ctx context.Context, reviewID uint) ([]models.Answer, error)
	AnswersForReviewDetailed(ctx context.Context, reviewID uint) ([]models.Answer, error)
	QuestionOptionByID(ctx context.Context, id uint) (models.QuestionOption, error)
}

type artifactReviewRepository struct {
	db *gorm.DB
}

// NewArtifactReviewRepository instantiates a GORM-backed repository.
func NewArtifactReviewRepository(db *gorm.DB) ArtifactReviewRepository {
	return &artifactReviewRepository{db: db}
}

func (r *artifactReviewRepository) InTx(ctx context.Context, fn func(ArtifactReviewRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&artifactReviewRepository{db: tx})
	})
}

func (r *artifactReviewRepository) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	return r.db.WithContext(ctx).Create(artifact).Error
}

func (r *artifactReviewRepository) GetArtifact(ctx context.Context, id uint) (models.Artifact, error) {
	var artifact models.Artifact
	if err := r.db.WithContext(ctx).Preload("Assignment").First(&artifact, id).Error; err != nil {
		return models.Artifact{}, err
	}

	return artifact, nil
}

func (r *artifactReviewRepository) GetReview(ctx context.Context, id uint) (models.ArtifactReview, error) {
	var review models.ArtifactReview
	if err := r.db.WithContext(ctx).Preload("Artifact").First(&review, id).Error; err != nil {
		return models.ArtifactReview{}, err
	}

	return review, nil
}

func (r *artifactReviewRepository) CreateReview(ctx context.Context, review *models.ArtifactReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *artifactReviewRepository) SaveReview(ctx context.Context, review *models.ArtifactReview) error {
	return r.db.WithContext(ctx).Omit("Artifact", "Reviewer").Save(review).Error
}

func (r *artifactReviewRepository) ReviewsForArtifact(ctx context.Context, artifactID uint) ([]models.ArtifactReview, error) {
	var reviews []models.ArtifactReview
	if err := r.db.WithContext(ctx).
		Where("artifact_id = ?", artifactID).
		Order("id ASC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *artifactReviewRepository) DeleteAnswersForReview(ctx context.Context, reviewID uint) error {
	return r.db.WithContext(ctx).
		Where("artifact_review_id = ?", reviewID).
		Delete(&models.Answer{}).Error
}

func (r *artifactReviewRepository) CreateAnswers(ctx context.Context, answers []models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&answers).Error
}

func (r *artifactReviewRepository) AnswersForReview(ctx context.Context, reviewID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Where("artifact_review_id = ?", reviewID).
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

// AnswersForReviewDetailed loads answers with the question/section structure
// needed by report aggregation.
func (r *artifactReviewRepository) AnswersForReviewDetailed(ctx context.Context, reviewID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Preload("QuestionOption").
		Preload("QuestionOption.OptionChoice").
		Preload("QuestionOption.Question").
		Preload("QuestionOption.Question.Section").
		Where("artifact_review_id = ?", reviewID).
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

func (r *artifactReviewRepository) QuestionOptionByID(ctx context.Context, id uint) (models.QuestionOption, error) {
	var option models.QuestionOption
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("OptionChoice").
		First(&option, id).Error; err != nil {
		return models.QuestionOption{}, err
	}

	return option, nil
}
