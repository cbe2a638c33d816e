package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
)

// ErrSurveyNotFound indicates no survey exists for the assignment.
var ErrSurveyNotFound = errors.New("survey not found")

// ErrSurveyAlreadyExists indicates the assignment already has a survey.
var ErrSurveyAlreadyExists = errors.New("survey already exists for assignment")

// ErrInvalidSurveyTemplate indicates the imported template failed schema
// validation.
var ErrInvalidSurveyTemplate = errors.New("invalid survey template")

// surveyTemplateSchema guards imported survey templates before any rows are
// written.
const surveyTemplateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["sections"],
  "properties": {
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "questions"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "is_required": {"type": "boolean"},
          "questions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text", "type"],
              "properties": {
                "text": {"type": "string", "minLength": 1},
                "type": {
                  "type": "string",
                  "enum": ["MULTIPLETEXT", "FIXEDTEXT", "MULTIPLECHOICE", "SLIDEREVIEW", "TEXTAREA", "NUMBER", "SCALEMULTIPLECHOICE", "MULTIPLESELECT"]
                },
                "number_of_scale": {"type": "integer", "minimum": 0},
                "number_of_text": {"type": "integer", "minimum": 0},
                "is_required": {"type": "boolean"},
                "options": {"type": "array", "items": {"type": "string"}}
              }
            }
          }
        }
      }
    }
  }
}`

// SurveyService manages survey authoring for assignments.
type SurveyService interface {
	Get(ctx context.Context, assignmentID uint) (dto.SurveyResponse, error)
	Create(ctx context.Context, assignmentID uint, payload dto.SurveyCreateRequest) (dto.SurveyResponse, error)
	Import(ctx context.Context, assignmentID uint, raw []byte) (dto.SurveyResponse, error)
}

type surveyService struct {
	repo      repository.SurveyRepository
	validator *validator.Validate
	schema    *jsonschema.Schema
	logger    zerolog.Logger
}

// NewSurveyService builds the survey authoring service. The template schema
// is compiled once at construction.
func NewSurveyService(repo repository.SurveyRepository, validate *validator.Validate, logger zerolog.Logger) (SurveyService, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("survey-template.json", bytes.NewReader([]byte(surveyTemplateSchema))); err != nil {
		return nil, fmt.Errorf("failed to register survey template schema: %w", err)
	}
	schema, err := compiler.Compile("survey-template.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile survey template schema: %w", err)
	}

	return &surveyService{
		repo:      repo,
		validator: validate,
		schema:    schema,
		logger:    logger.With().Str("component", "survey_service").Logger(),
	}, nil
}

func (s *surveyService) Get(ctx context.Context, assignmentID uint) (dto.SurveyResponse, error) {
	survey, err := s.repo.GetByAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SurveyResponse{}, ErrSurveyNotFound
		}
		return dto.SurveyResponse{}, err
	}

	sections, err := s.loadSections(ctx, survey.ID)
	if err != nil {
		return dto.SurveyResponse{}, err
	}

	return dto.NewSurveyResponse(survey, sections), nil
}

func (s *surveyService) Create(ctx context.Context, assignmentID uint, payload dto.SurveyCreateRequest) (dto.SurveyResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SurveyResponse{}, err
	}

	if _, err := s.repo.GetByAssignment(ctx, assignmentID); err == nil {
		return dto.SurveyResponse{}, ErrSurveyAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SurveyResponse{}, err
	}

	survey := models.FeedbackSurvey{
		AssignmentID: assignmentID,
		Template:     payload.Template,
		Instructions: payload.Instructions,
	}

	if payload.DateReleased != nil {
		released, err := time.Parse(time.RFC3339, *payload.DateReleased)
		if err != nil {
			return dto.SurveyResponse{}, fmt.Errorf("invalid release date: %w", err)
		}
		survey.DateReleased = &released
	}
	if payload.DateDue != nil {
		due, err := time.Parse(time.RFC3339, *payload.DateDue)
		if err != nil {
			return dto.SurveyResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		survey.DateDue = &due
	}

	if err := s.repo.Create(ctx, &survey); err != nil {
		return dto.SurveyResponse{}, err
	}

	s.logger.Info().Uint("survey_id", survey.ID).Uint("assignment_id", assignmentID).Msg("survey created")

	return dto.NewSurveyResponse(survey, nil), nil
}

// Import validates a JSON template against the embedded schema, then creates
// the survey structure in one transaction.
func (s *surveyService) Import(ctx context.Context, assignmentID uint, raw []byte) (dto.SurveyResponse, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return dto.SurveyResponse{}, fmt.Errorf("%w: %v", ErrInvalidSurveyTemplate, err)
	}
	if err := s.schema.Validate(generic); err != nil {
		return dto.SurveyResponse{}, fmt.Errorf("%w: %v", ErrInvalidSurveyTemplate, err)
	}

	var template dto.SurveyImportRequest
	if err := json.Unmarshal(raw, &template); err != nil {
		return dto.SurveyResponse{}, fmt.Errorf("%w: %v", ErrInvalidSurveyTemplate, err)
	}

	var survey models.FeedbackSurvey

	err := s.repo.InTx(ctx, func(tx repository.SurveyRepository) error {
		var err error
		survey, err = tx.GetByAssignment(ctx, assignmentID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			survey = models.FeedbackSurvey{AssignmentID: assignmentID}
			if err := tx.Create(ctx, &survey); err != nil {
				return err
			}
		}

		for _, sectionTemplate := range template.Sections {
			section := models.SurveySection{
				SurveyID:   survey.ID,
				Title:      sectionTemplate.Title,
				IsRequired: sectionTemplate.IsRequired,
			}
			if err := tx.CreateSection(ctx, &section); err != nil {
				return err
			}

			for _, questionTemplate := range sectionTemplate.Questions {
				numberOfText := questionTemplate.NumberOfText
				if numberOfText <= 0 {
					numberOfText = 1
				}
				question := models.Question{
					SectionID:     section.ID,
					Text:          questionTemplate.Text,
					Type:          questionTemplate.Type,
					NumberOfScale: questionTemplate.NumberOfScale,
					NumberOfText:  numberOfText,
					IsRequired:    questionTemplate.IsRequired,
				}
				if err := tx.CreateQuestion(ctx, &question); err != nil {
					return err
				}

				if len(questionTemplate.Options) > 0 {
					for _, optionText := range questionTemplate.Options {
						choice, err := tx.FindOrCreateOptionChoice(ctx, optionText)
						if err != nil {
							return err
						}
						choiceID := choice.ID
						option := models.QuestionOption{QuestionID: question.ID, OptionChoiceID: &choiceID}
						if err := tx.CreateQuestionOption(ctx, &option); err != nil {
							return err
						}
					}
				} else {
					// Non-choice questions still need one option row for
					// answers to hang off.
					option := models.QuestionOption{QuestionID: question.ID}
					if err := tx.CreateQuestionOption(ctx, &option); err != nil {
						return err
					}
				}
			}
		}

		return nil
	})
	if err != nil {
		return dto.SurveyResponse{}, err
	}

	s.logger.Info().
		Uint("survey_id", survey.ID).
		Int("sections", len(template.Sections)).
		Msg("survey template imported")

	sections, err := s.loadSections(ctx, survey.ID)
	if err != nil {
		return dto.SurveyResponse{}, err
	}

	return dto.NewSurveyResponse(survey, sections), nil
}

func (s *surveyService) loadSections(ctx context.Context, surveyID uint) ([]dto.SectionResponse, error) {
	sections, err := s.repo.SectionsForSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SectionResponse, 0, len(sections))
	for _, section := range sections {
		questions, err := s.repo.QuestionsForSection(ctx, section.ID)
		if err != nil {
			return nil, err
		}

		questionResponses := make([]dto.QuestionResponse, 0, len(questions))
		for _, question := range questions {
			options, err := s.repo.OptionsForQuestion(ctx, question.ID)
			if err != nil {
				return nil, err
			}

			optionTexts := make([]string, 0, len(options))
			for _, option := range options {
				if option.OptionChoice != nil {
					optionTexts = append(optionTexts, option.OptionChoice.Text)
				}
			}

			questionResponses = append(questionResponses, dto.QuestionResponse{
				ID:            question.ID,
				Text:          question.Text,
				Type:          question.Type,
				NumberOfScale: question.NumberOfScale,
				NumberOfText:  question.NumberOfText,
				IsRequired:    question.IsRequired,
				Options:       optionTexts,
			})
		}

		responses = append(responses, dto.SectionResponse{
			ID:         section.ID,
			Title:      section.Title,
			IsRequired: section.IsRequired,
			Questions:  questionResponses,
		})
	}

	return responses, nil
}
