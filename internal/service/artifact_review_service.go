package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/observability"
	"github.com/peerflow/gamify-api/internal/repository"
)

// ErrReviewNotFound indicates the review task does not exist.
var ErrReviewNotFound = errors.New("artifact review not found")

// ErrSurveyNotConfigured indicates no feedback survey exists for the
// assignment, so no due date comparison is possible. Callers branch on this
// sentinel explicitly; it is a configuration gap, not a crash.
var ErrSurveyNotConfigured = errors.New("feedback survey not configured")

// ErrNotReviewOwner indicates the actor does not own the review task.
var ErrNotReviewOwner = errors.New("review belongs to another reviewer")

// Review deadlines are evaluated in the campus timezone.
const reviewTimezone = "America/Los_Angeles"

// ReviewStatusNotifier is told when an instructor reopens a review.
type ReviewStatusNotifier interface {
	ReviewReopened(ctx context.Context, review models.ArtifactReview)
}

// ArtifactReviewService drives the review lifecycle: INCOMPLETE on
// assignment, COMPLETED or LATE on submission, REOPEN on instructor request.
type ArtifactReviewService interface {
	Get(ctx context.Context, id uint) (dto.ArtifactReviewResponse, error)
	Submit(ctx context.Context, id uint, reviewerRegistrationID uint, payload dto.ReviewSubmitRequest) (dto.ArtifactReviewResponse, error)
	Reopen(ctx context.Context, id uint) (dto.ArtifactReviewResponse, error)
}

type artifactReviewService struct {
	repo      repository.ArtifactReviewRepository
	surveys   repository.SurveyRepository
	reports   ReportService
	notifier  ReviewStatusNotifier
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewArtifactReviewService builds the review lifecycle service.
func NewArtifactReviewService(repo repository.ArtifactReviewRepository, surveys repository.SurveyRepository, reports ReportService, notifier ReviewStatusNotifier, validate *validator.Validate, logger zerolog.Logger) ArtifactReviewService {
	return &artifactReviewService{
		repo:      repo,
		surveys:   surveys,
		reports:   reports,
		notifier:  notifier,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "artifact_review_service").Logger(),
		now:       time.Now,
	}
}

func (s *artifactReviewService) Get(ctx context.Context, id uint) (dto.ArtifactReviewResponse, error) {
	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ArtifactReviewResponse{}, ErrReviewNotFound
		}
		return dto.ArtifactReviewResponse{}, err
	}

	answers, err := s.repo.AnswersForReview(ctx, id)
	if err != nil {
		return dto.ArtifactReviewResponse{}, err
	}

	return dto.NewArtifactReviewResponse(review, answers), nil
}

// Submit stores the reviewer's full answer set, replacing anything previously
// written, and stamps the review COMPLETED or LATE against the survey due
// date in Pacific time.
func (s *artifactReviewService) Submit(ctx context.Context, id uint, reviewerRegistrationID uint, payload dto.ReviewSubmitRequest) (dto.ArtifactReviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ArtifactReviewResponse{}, err
	}

	var review models.ArtifactReview
	var stored []models.Answer

	err := s.repo.InTx(ctx, func(tx repository.ArtifactReviewRepository) error {
		var err error
		review, err = tx.GetReview(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		if reviewerRegistrationID != 0 && review.ReviewerRegistrationID != reviewerRegistrationID {
			return ErrNotReviewOwner
		}

		status, err := s.statusForSubmission(ctx, tx, review)
		if err != nil {
			return err
		}

		answers := make([]models.Answer, 0, len(payload.Answers))
		for _, answer := range payload.Answers {
			if _, err := tx.QuestionOptionByID(ctx, answer.QuestionOptionID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrQuestionOptionNotFound
				}
				return err
			}
			answers = append(answers, models.Answer{
				ArtifactReviewID: review.ID,
				QuestionOptionID: answer.QuestionOptionID,
				AnswerText:       s.sanitizer.Sanitize(answer.AnswerText),
				Page:             answer.Page,
			})
		}

		// Full-replace semantics: resubmission rewrites the answer set.
		if err := tx.DeleteAnswersForReview(ctx, review.ID); err != nil {
			return err
		}
		if err := tx.CreateAnswers(ctx, answers); err != nil {
			return err
		}

		review.Status = status
		if err := tx.SaveReview(ctx, &review); err != nil {
			return err
		}

		stored = answers
		return nil
	})
	if err != nil {
		return dto.ArtifactReviewResponse{}, err
	}

	observability.ReviewsSubmitted().WithLabelValues(review.Status).Inc()
	s.logger.Info().
		Uint("review_id", review.ID).
		Str("status", review.Status).
		Int("answers", len(stored)).
		Msg("review submitted")

	if s.reports != nil {
		s.reports.Invalidate(ctx, review.ArtifactID)
	}

	return dto.NewArtifactReviewResponse(review, stored), nil
}

func (s *artifactReviewService) statusForSubmission(ctx context.Context, tx repository.ArtifactReviewRepository, review models.ArtifactReview) (string, error) {
	artifact := review.Artifact
	if artifact.ID == 0 {
		loaded, err := tx.GetArtifact(ctx, review.ArtifactID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", ErrArtifactNotFound
			}
			return "", err
		}
		artifact = loaded
	}

	survey, err := s.surveys.GetByAssignment(ctx, artifact.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSurveyNotConfigured
		}
		return "", err
	}

	if survey.DateDue == nil {
		return models.ReviewStatusCompleted, nil
	}

	location, err := time.LoadLocation(reviewTimezone)
	if err != nil {
		return "", err
	}

	if s.now().In(location).After(survey.DateDue.In(location)) {
		return models.ReviewStatusLate, nil
	}

	return models.ReviewStatusCompleted, nil
}

// Reopen puts a review back into an editable state.
func (s *artifactReviewService) Reopen(ctx context.Context, id uint) (dto.ArtifactReviewResponse, error) {
	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ArtifactReviewResponse{}, ErrReviewNotFound
		}
		return dto.ArtifactReviewResponse{}, err
	}

	review.Status = models.ReviewStatusReopen
	if err := s.repo.SaveReview(ctx, &review); err != nil {
		return dto.ArtifactReviewResponse{}, err
	}

	s.logger.Info().Uint("review_id", review.ID).Msg("review reopened")

	if s.notifier != nil {
		s.notifier.ReviewReopened(ctx, review)
	}

	answers, err := s.repo.AnswersForReview(ctx, id)
	if err != nil {
		return dto.ArtifactReviewResponse{}, err
	}

	return dto.NewArtifactReviewResponse(review, answers), nil
}
