package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/observability"
	"github.com/peerflow/gamify-api/internal/repository"
	"github.com/peerflow/gamify-api/pkg/keywords"
)

// ErrArtifactNotFound indicates the requested artifact does not exist.
var ErrArtifactNotFound = errors.New("artifact not found")

// ErrQuestionOptionNotFound indicates an answer references a missing question
// option; the whole report aborts rather than returning partial results.
var ErrQuestionOptionNotFound = errors.New("question option not found")

// ReportService aggregates reviewer answers for an artifact into per-section,
// per-question statistics.
type ReportService interface {
	Generate(ctx context.Context, artifactID uint) (dto.ArtifactReportResponse, error)
	Invalidate(ctx context.Context, artifactID uint)
}

type reportService struct {
	reviews   repository.ArtifactReviewRepository
	surveys   repository.SurveyRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	extractor keywords.Extractor
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewReportService builds the report aggregator.
func NewReportService(reviews repository.ArtifactReviewRepository, surveys repository.SurveyRepository, cache *redis.Client, ttl time.Duration, extractor keywords.Extractor, logger zerolog.Logger) ReportService {
	return &reportService{
		reviews:   reviews,
		surveys:   surveys,
		cache:     cache,
		cacheTTL:  ttl,
		extractor: extractor,
		logger:    logger.With().Str("component", "report_service").Logger(),
		tracer:    otel.Tracer("github.com/peerflow/gamify-api/internal/service/report"),
	}
}

func reportCacheKey(artifactID uint) string {
	return fmt.Sprintf("report:artifact:%d", artifactID)
}

func (s *reportService) Generate(ctx context.Context, artifactID uint) (dto.ArtifactReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "report.generate")
	span.SetAttributes(attribute.Int64("report.artifact_id", int64(artifactID)))
	defer span.End()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, reportCacheKey(artifactID)).Result(); err == nil {
			var report dto.ArtifactReportResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &report); unmarshalErr == nil {
				observability.ReportsGenerated().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("report.cache_hit", true))
				return report, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
		}
	}

	report, err := s.build(ctx, artifactID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report_failed")
		return dto.ArtifactReportResponse{}, err
	}

	observability.ReportsGenerated().WithLabelValues("miss").Inc()

	if s.cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, reportCacheKey(artifactID), payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
			}
		}
	}

	return report, nil
}

// Invalidate drops the cached report for an artifact, typically after a new
// review submission.
func (s *reportService) Invalidate(ctx context.Context, artifactID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, reportCacheKey(artifactID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("artifact_id", artifactID).Msg("failed to invalidate report cache")
	}
}

// questionAggregate accumulates answers for one question across reviews.
type questionAggregate struct {
	questionType string
	labels       []string
	counts       []int
	weightedSum  float64
	weightTotal  float64
	pages        map[string][]string
	texts        []string
}

func (s *reportService) build(ctx context.Context, artifactID uint) (dto.ArtifactReportResponse, error) {
	if _, err := s.reviews.GetArtifact(ctx, artifactID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ArtifactReportResponse{}, ErrArtifactNotFound
		}
		return dto.ArtifactReportResponse{}, err
	}

	reviews, err := s.reviews.ReviewsForArtifact(ctx, artifactID)
	if err != nil {
		return dto.ArtifactReportResponse{}, err
	}

	aggregates := map[string]map[string]*questionAggregate{}
	var corpus []string

	for _, review := range reviews {
		answers, err := s.reviews.AnswersForReviewDetailed(ctx, review.ID)
		if err != nil {
			return dto.ArtifactReportResponse{}, err
		}

		confidence := reviewerConfidence(answers)

		for _, answer := range answers {
			option := answer.QuestionOption
			if option.ID == 0 || option.Question.ID == 0 {
				return dto.ArtifactReportResponse{}, ErrQuestionOptionNotFound
			}

			question := option.Question
			sectionTitle := question.Section.Title

			switch question.Type {
			case models.QuestionTypeMultipleChoice, models.QuestionTypeMultipleSelect:
				aggregate, err := s.choiceAggregate(ctx, aggregates, sectionTitle, question)
				if err != nil {
					return dto.ArtifactReportResponse{}, err
				}
				chosen := ""
				if option.OptionChoice != nil {
					chosen = option.OptionChoice.Text
				}
				countLabel(aggregate, chosen)

			case models.QuestionTypeScaleMultipleChoice:
				aggregate := s.scaleAggregate(aggregates, sectionTitle, question)
				countLabel(aggregate, answer.AnswerText)

			case models.QuestionTypeNumber:
				if question.Text == models.ConfidenceQuestionText {
					continue
				}
				value, err := strconv.ParseFloat(strings.TrimSpace(answer.AnswerText), 64)
				if err != nil {
					continue
				}
				aggregate := ensureAggregate(aggregates, sectionTitle, question.Text, question.Type)
				aggregate.weightedSum += value * confidence
				aggregate.weightTotal += confidence

			case models.QuestionTypeSlideReview:
				if answer.Page == nil {
					continue
				}
				aggregate := ensureAggregate(aggregates, sectionTitle, question.Text, question.Type)
				if aggregate.pages == nil {
					aggregate.pages = map[string][]string{}
				}
				page := strconv.Itoa(*answer.Page)
				aggregate.pages[page] = append(aggregate.pages[page], answer.AnswerText)
				corpus = append(corpus, answer.AnswerText)

			case models.QuestionTypeTextarea, models.QuestionTypeFixedText, models.QuestionTypeMultipleText:
				if strings.TrimSpace(answer.AnswerText) == "" {
					continue
				}
				aggregate := ensureAggregate(aggregates, sectionTitle, question.Text, question.Type)
				aggregate.texts = append(aggregate.texts, answer.AnswerText)
				corpus = append(corpus, answer.AnswerText)

			default:
				// Unhandled question types are skipped, not errors.
			}
		}
	}

	return dto.ArtifactReportResponse{
		ArtifactID: artifactID,
		Sections:   finalizeSections(aggregates),
		Keywords:   s.extractKeywords(ctx, corpus),
	}, nil
}

// reviewerConfidence finds the reviewer's answer to the reserved confidence
// question. Reviews without one contribute zero weight.
func reviewerConfidence(answers []models.Answer) float64 {
	for _, answer := range answers {
		question := answer.QuestionOption.Question
		if question.Type == models.QuestionTypeNumber && question.Text == models.ConfidenceQuestionText {
			if value, err := strconv.ParseFloat(strings.TrimSpace(answer.AnswerText), 64); err == nil {
				return value
			}
		}
	}
	return 0
}

func (s *reportService) choiceAggregate(ctx context.Context, aggregates map[string]map[string]*questionAggregate, sectionTitle string, question models.Question) (*questionAggregate, error) {
	aggregate := ensureAggregate(aggregates, sectionTitle, question.Text, question.Type)
	if aggregate.labels != nil {
		return aggregate, nil
	}

	options, err := s.surveys.OptionsForQuestion(ctx, question.ID)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(options))
	for _, option := range options {
		if option.OptionChoice != nil {
			labels = append(labels, option.OptionChoice.Text)
		}
	}
	aggregate.labels = labels
	aggregate.counts = make([]int, len(labels))

	return aggregate, nil
}

func (s *reportService) scaleAggregate(aggregates map[string]map[string]*questionAggregate, sectionTitle string, question models.Question) *questionAggregate {
	aggregate := ensureAggregate(aggregates, sectionTitle, question.Text, question.Type)
	if aggregate.labels != nil {
		return aggregate
	}

	labels := models.ScaleLabels(question.NumberOfScale)
	if labels == nil {
		s.logger.Warn().
			Int("number_of_scale", question.NumberOfScale).
			Str("question", question.Text).
			Msg("unsupported scale size, answers will be dropped")
		labels = []string{}
	}
	aggregate.labels = labels
	aggregate.counts = make([]int, len(labels))

	return aggregate
}

func ensureAggregate(aggregates map[string]map[string]*questionAggregate, sectionTitle, questionText, questionType string) *questionAggregate {
	section, ok := aggregates[sectionTitle]
	if !ok {
		section = map[string]*questionAggregate{}
		aggregates[sectionTitle] = section
	}

	aggregate, ok := section[questionText]
	if !ok {
		aggregate = &questionAggregate{questionType: questionType}
		section[questionText] = aggregate
	}

	return aggregate
}

func countLabel(aggregate *questionAggregate, label string) {
	for i, candidate := range aggregate.labels {
		if candidate == label {
			aggregate.counts[i]++
			return
		}
	}
}

func finalizeSections(aggregates map[string]map[string]*questionAggregate) map[string]map[string]dto.QuestionReport {
	sections := make(map[string]map[string]dto.QuestionReport, len(aggregates))
	for sectionTitle, questions := range aggregates {
		out := make(map[string]dto.QuestionReport, len(questions))
		for questionText, aggregate := range questions {
			report := dto.QuestionReport{QuestionType: aggregate.questionType}

			switch aggregate.questionType {
			case models.QuestionTypeMultipleChoice, models.QuestionTypeMultipleSelect, models.QuestionTypeScaleMultipleChoice:
				report.Labels = aggregate.labels
				report.Counts = aggregate.counts
			case models.QuestionTypeNumber:
				// Zero total confidence would divide by zero; drop the entry.
				if aggregate.weightTotal == 0 {
					continue
				}
				average := aggregate.weightedSum / aggregate.weightTotal
				report.WeightedAverage = &average
			case models.QuestionTypeSlideReview:
				report.Pages = aggregate.pages
			default:
				report.Answers = aggregate.texts
			}

			out[questionText] = report
		}
		if len(out) > 0 {
			sections[sectionTitle] = out
		}
	}

	return sections
}

func (s *reportService) extractKeywords(ctx context.Context, corpus []string) map[string]float64 {
	if s.extractor == nil || len(corpus) == 0 {
		return map[string]float64{}
	}

	extracted, err := s.extractor.Extract(ctx, strings.Join(corpus, "\n"))
	if err != nil {
		s.logger.Warn().Err(err).Msg("keyword extraction failed, returning empty keyword set")
		return map[string]float64{}
	}
	if extracted == nil {
		extracted = map[string]float64{}
	}

	return extracted
}
