package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
)

// ErrCourseNotFound indicates the requested course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// ErrRegistrationNotFound indicates the registration does not exist.
var ErrRegistrationNotFound = errors.New("registration not found")

// CourseService exposes course and team membership use cases.
type CourseService interface {
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	SwitchTeam(ctx context.Context, registrationID uint, payload dto.TeamSwitchRequest) (dto.RegistrationResponse, error)
}

type courseService struct {
	repo      repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCourseService builds the course service.
func NewCourseService(repo repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Name:     payload.Name,
		Number:   payload.Number,
		Semester: payload.Semester,
		Visible:  payload.Visible,
	}

	if err := s.repo.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("name", course.Name).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

// SwitchTeam moves a registration to the named team. The whole sequence
// (drop old membership, delete an emptied team, find-or-create the target,
// create the new membership) runs in one transaction so a mid-sequence
// failure cannot strand the registration without a team.
func (s *courseService) SwitchTeam(ctx context.Context, registrationID uint, payload dto.TeamSwitchRequest) (dto.RegistrationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RegistrationResponse{}, err
	}

	var registration models.Registration

	err := s.repo.InTx(ctx, func(tx repository.CourseRepository) error {
		var err error
		registration, err = tx.GetRegistration(ctx, registrationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		membership, err := tx.MembershipForRegistration(ctx, registrationID)
		switch {
		case err == nil:
			oldTeamID := membership.TeamID
			if err := tx.DeleteMembership(ctx, membership.ID); err != nil {
				return err
			}
			remaining, err := tx.TeamMemberCount(ctx, oldTeamID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := tx.DeleteTeam(ctx, oldTeamID); err != nil {
					return err
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First team for this registration.
		default:
			return err
		}

		team, err := tx.FindOrCreateTeam(ctx, registration.CourseID, payload.TeamName)
		if err != nil {
			return err
		}

		return tx.CreateMembership(ctx, &models.Membership{
			TeamID:         team.ID,
			RegistrationID: registrationID,
		})
	})
	if err != nil {
		return dto.RegistrationResponse{}, err
	}

	s.logger.Info().
		Uint("registration_id", registrationID).
		Str("team", payload.TeamName).
		Msg("registration switched team")

	return dto.NewRegistrationResponse(registration), nil
}
