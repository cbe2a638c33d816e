package service

import (
	"context"
	"errors"
	"fmt"

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
)

// ErrConstraintNotFound indicates no constraint matches the given url.
var ErrConstraintNotFound = errors.New("constraint not found")

// ErrProgressNotFound indicates the progress row does not exist.
var ErrProgressNotFound = errors.New("progress not found")

// Progress update modes.
const (
	// TrackModeIncrement adds one occurrence to the counter.
	TrackModeIncrement = "increment"
	// TrackModeMax ratchets the counter up to the given value, never down.
	TrackModeMax = "max"
)

// RewardGrantNotifier is told about every new constraint-driven grant.
type RewardGrantNotifier interface {
	RewardGranted(ctx context.Context, userID uint, reward models.Reward, rule models.Rule)
}

// ProgressService is the incentive engine: it tracks progress against
// thresholded constraints and grants rule rewards once every constraint of a
// rule is met.
type ProgressService interface {
	Get(ctx context.Context, userID uint, constraintURL string) (dto.ProgressResponse, error)
	Track(ctx context.Context, userID uint, constraintURL, mode string, value float64) (dto.ProgressResponse, error)
	Delete(ctx context.Context, userID uint, constraintURL string) error
}

type progressService struct {
	repo     repository.EngineRepository
	notifier RewardGrantNotifier
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewProgressService constructs the incentive engine service.
func NewProgressService(repo repository.EngineRepository, notifier RewardGrantNotifier, logger zerolog.Logger) ProgressService {
	return &progressService{
		repo:     repo,
		notifier: notifier,
		logger:   logger.With().Str("component", "progress_service").Logger(),
		tracer:   otel.Tracer("github.com/peerflow/gamify-api/internal/service/progress"),
	}
}

func (s *progressService) Get(ctx context.Context, userID uint, constraintURL string) (dto.ProgressResponse, error) {
	constraint, err := s.repo.ConstraintByURL(ctx, constraintURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressResponse{}, ErrConstraintNotFound
		}
		return dto.ProgressResponse{}, err
	}

	progress, err := s.repo.ProgressByUserAndConstraint(ctx, userID, constraint.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressResponse{}, ErrProgressNotFound
		}
		return dto.ProgressResponse{}, err
	}

	return dto.NewProgressResponse(progress), nil
}

type grantEvent struct {
	reward models.Reward
	rule   models.Rule
}

// Track applies one progress update and runs the full evaluate/grant chain
// inside a single transaction with a row lock on the progress row.
func (s *progressService) Track(ctx context.Context, userID uint, constraintURL, mode string, value float64) (dto.ProgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "engine.track")
	span.SetAttributes(
		attribute.Int64("engine.user_id", int64(userID)),
		attribute.String("engine.constraint_url", constraintURL),
		attribute.String("engine.mode", mode),
	)
	defer span.End()

	if mode != TrackModeIncrement && mode != TrackModeMax {
		err := fmt.Errorf("unknown track mode %q", mode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_mode")
		return dto.ProgressResponse{}, err
	}

	var result models.Progress
	var grants []grantEvent

	err := s.repo.InTx(ctx, func(tx repository.EngineRepository) error {
		constraint, err := tx.ConstraintByURL(ctx, constraintURL)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConstraintNotFound
			}
			return err
		}

		progress, err := tx.ProgressForUpdate(ctx, userID, constraint.ID)
		if err != nil {
			return err
		}

		switch mode {
		case TrackModeIncrement:
			progress.CurPoint++
		case TrackModeMax:
			// Ratchet: a lower resubmitted score never regresses the best one.
			candidate := float64(int(value))
			if candidate > progress.CurPoint {
				progress.CurPoint = candidate
			}
		}

		firstMet := false
		if progress.CurPoint >= constraint.Threshold {
			if !progress.Met {
				firstMet = true
			}
			progress.Met = true
		} else {
			progress.Met = false
		}

		if err := tx.SaveProgress(ctx, &progress); err != nil {
			return err
		}

		if firstMet && constraint.Kind == models.ConstraintKindPoint {
			if err := tx.AddExpPoints(ctx, userID, constraint.Threshold); err != nil {
				return err
			}
		}

		if progress.Met {
			events, err := s.evaluateRules(ctx, tx, userID, constraint)
			if err != nil {
				return err
			}
			grants = events
		}

		progress.Constraint = constraint
		result = progress
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "track_failed")
		return dto.ProgressResponse{}, err
	}

	observability.ProgressUpdates().WithLabelValues(mode).Inc()
	span.SetAttributes(
		attribute.Float64("engine.cur_point", result.CurPoint),
		attribute.Bool("engine.met", result.Met),
		attribute.Int("engine.grants", len(grants)),
	)

	for _, grant := range grants {
		observability.RewardsGranted().WithLabelValues("constraint").Inc()
		s.logger.Info().
			Uint("user_id", userID).
			Uint("reward_id", grant.reward.ID).
			Uint("rule_id", grant.rule.ID).
			Msg("reward granted")
		if s.notifier != nil {
			s.notifier.RewardGranted(ctx, userID, grant.reward, grant.rule)
		}
	}

	return dto.NewProgressResponse(result), nil
}

// evaluateRules walks every rule containing the constraint. A rule fires only
// when all of its constraints are met for the user; the check returns early
// on the first unmet constraint.
func (s *progressService) evaluateRules(ctx context.Context, tx repository.EngineRepository, userID uint, constraint models.Constraint) ([]grantEvent, error) {
	rules, err := tx.RulesForConstraint(ctx, constraint.ID)
	if err != nil {
		return nil, err
	}

	var grants []grantEvent
	for _, rule := range rules {
		satisfied := true
		for _, ruleConstraint := range rule.Constraints {
			if ruleConstraint.ID == constraint.ID {
				continue
			}
			progress, err := tx.ProgressByUserAndConstraint(ctx, userID, ruleConstraint.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					satisfied = false
					break
				}
				return nil, err
			}
			if !progress.Met {
				satisfied = false
				break
			}
		}
		if !satisfied {
			continue
		}

		observability.RulesSatisfied().Inc()

		rewards, err := tx.RewardsForRule(ctx, rule.ID)
		if err != nil {
			return nil, err
		}
		for _, reward := range rewards {
			created, err := tx.GrantReward(ctx, userID, reward.ID)
			if err != nil {
				return nil, err
			}
			if !created {
				continue
			}
			grants = append(grants, grantEvent{reward: reward, rule: rule})

			registration, err := tx.RegistrationForUser(ctx, userID, reward.CourseID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return nil, err
			}
			if err := tx.RecordAchievement(ctx, registration.ID, rule.ID); err != nil {
				return nil, err
			}
		}
	}

	return grants, nil
}

func (s *progressService) Delete(ctx context.Context, userID uint, constraintURL string) error {
	constraint, err := s.repo.ConstraintByURL(ctx, constraintURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConstraintNotFound
		}
		return err
	}

	progress, err := s.repo.ProgressByUserAndConstraint(ctx, userID, constraint.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProgressNotFound
		}
		return err
	}

	if err := s.repo.DeleteProgress(ctx, progress.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProgressNotFound
		}
		return err
	}

	s.logger.Info().Uint("user_id", userID).Str("constraint", constraintURL).Msg("progress deleted")
	return nil
}
