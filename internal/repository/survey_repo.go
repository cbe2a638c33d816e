package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/models"
)

// SurveyRepository defines persistence operations for feedback surveys and
// their question structure.
type SurveyRepository interface {
	InTx(ctx context.Context, fn func(SurveyRepository) error) error
	GetByAssignment(ctx context.Context, assignmentID uint) (models.FeedbackSurvey, error)
	Create(ctx context.Context, survey *models.FeedbackSurvey) error
	Update(ctx context.Context, survey *models.FeedbackSurvey) error
	CreateSection(ctx context.Context, section *models.SurveySection) error
	CreateQuestion(ctx context.Context, question *models.Question) error
	CreateQuestionOption(ctx context.Context, option *models.QuestionOption) error
	FindOrCreateOptionChoice(ctx context.Context, text string) (models.OptionChoice, error)
	SectionsForSurvey(ctx context.Context, surveyID uint) ([]models.SurveySection, error)
	QuestionsForSection(ctx context.Context, sectionID uint) ([]models.Question, error)
	OptionsForQuestion(ctx context.Context, questionID uint) ([]models.QuestionOption, error)
}

type surveyRepository struct {
	db *gorm.DB
}

// NewSurveyRepository instantiates a GORM-backed repository.
func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

func (r *surveyRepository) InTx(ctx context.Context, fn func(SurveyRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&surveyRepository{db: tx})
	})
}

func (r *surveyRepository) GetByAssignment(ctx context.Context, assignmentID uint) (models.FeedbackSurvey, error) {
	var survey models.FeedbackSurvey
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		First(&survey).Error; err != nil {
		return models.FeedbackSurvey{}, err
	}

	return survey, nil
}

func (r *surveyRepository) Create(ctx context.Context, survey *models.FeedbackSurvey) error {
	return r.db.WithContext(ctx).Create(survey).Error
}

func (r *surveyRepository) Update(ctx context.Context, survey *models.FeedbackSurvey) error {
	return r.db.WithContext(ctx).Save(survey).Error
}

func (r *surveyRepository) CreateSection(ctx context.Context, section *models.SurveySection) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *surveyRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *surveyRepository) CreateQuestionOption(ctx context.Context, option *models.QuestionOption) error {
	return r.db.WithContext(ctx).Create(option).Error
}

func (r *surveyRepository) FindOrCreateOptionChoice(ctx context.Context, text string) (models.OptionChoice, error) {
	var choice models.OptionChoice
	err := r.db.WithContext(ctx).Where("text = ?", text).First(&choice).Error
	if err == nil {
		return choice, nil
	}
	if err != gorm.ErrRecordNotFound {
		return models.OptionChoice{}, err
	}

	choice = models.OptionChoice{Text: text}
	if err := r.db.WithContext(ctx).Create(&choice).Error; err != nil {
		return models.OptionChoice{}, err
	}

	return choice, nil
}

func (r *surveyRepository) SectionsForSurvey(ctx context.Context, surveyID uint) ([]models.SurveySection, error) {
	var sections []models.SurveySection
	if err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("id ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *surveyRepository) QuestionsForSection(ctx context.Context, sectionID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

// OptionsForQuestion returns question options in insertion order; this order
// is load-bearing for aggregation label indexing.
func (r *surveyRepository) OptionsForQuestion(ctx context.Context, questionID uint) ([]models.QuestionOption, error) {
	var options []models.QuestionOption
	if err := r.db.WithContext(ctx).
		Preload("OptionChoice").
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&options).Error; err != nil {
		return nil, err
	}

	return options, nil
}
