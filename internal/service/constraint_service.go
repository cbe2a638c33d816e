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

// ConstraintService exposes constraint administration use cases.
type ConstraintService interface {
	List(ctx context.Context) ([]dto.ConstraintResponse, error)
	Get(ctx context.Context, id uint) (dto.ConstraintResponse, error)
	GetByURL(ctx context.Context, url string) (dto.ConstraintResponse, error)
	Create(ctx context.Context, payload dto.ConstraintCreateRequest) (dto.ConstraintResponse, error)
	Update(ctx context.Context, id uint, payload dto.ConstraintUpdateRequest) (dto.ConstraintResponse, error)
	Delete(ctx context.Context, id uint) error
}

type constraintService struct {
	repo      repository.ConstraintRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewConstraintService builds a new constraint service.
func NewConstraintService(repo repository.ConstraintRepository, validate *validator.Validate, logger zerolog.Logger) ConstraintService {
	return &constraintService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "constraint_service").Logger(),
	}
}

func (s *constraintService) List(ctx context.Context) ([]dto.ConstraintResponse, error) {
	constraints, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewConstraintResponseSlice(constraints), nil
}

func (s *constraintService) Get(ctx context.Context, id uint) (dto.ConstraintResponse, error) {
	constraint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConstraintResponse{}, ErrConstraintNotFound
		}
		return dto.ConstraintResponse{}, err
	}

	return dto.NewConstraintResponse(constraint), nil
}

func (s *constraintService) GetByURL(ctx context.Context, url string) (dto.ConstraintResponse, error) {
	constraint, err := s.repo.GetByURL(ctx, url)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConstraintResponse{}, ErrConstraintNotFound
		}
		return dto.ConstraintResponse{}, err
	}

	return dto.NewConstraintResponse(constraint), nil
}

func (s *constraintService) Create(ctx context.Context, payload dto.ConstraintCreateRequest) (dto.ConstraintResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ConstraintResponse{}, err
	}

	kind := payload.Kind
	if kind == "" {
		kind = models.ConstraintKindAction
	}

	constraint := models.Constraint{
		URL:         payload.URL,
		Threshold:   payload.Threshold,
		Description: payload.Description,
		Kind:        kind,
	}

	if err := s.repo.Create(ctx, &constraint); err != nil {
		return dto.ConstraintResponse{}, err
	}

	s.logger.Info().Uint("constraint_id", constraint.ID).Str("url", constraint.URL).Msg("constraint created")

	return dto.NewConstraintResponse(constraint), nil
}

func (s *constraintService) Update(ctx context.Context, id uint, payload dto.ConstraintUpdateRequest) (dto.ConstraintResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ConstraintResponse{}, err
	}

	constraint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConstraintResponse{}, ErrConstraintNotFound
		}
		return dto.ConstraintResponse{}, err
	}

	if payload.Threshold != nil {
		constraint.Threshold = *payload.Threshold
	}
	if payload.Description != nil {
		constraint.Description = *payload.Description
	}

	if err := s.repo.Update(ctx, &constraint); err != nil {
		return dto.ConstraintResponse{}, err
	}

	return dto.NewConstraintResponse(constraint), nil
}

func (s *constraintService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConstraintNotFound
		}
		return err
	}

	s.logger.Info().Uint("constraint_id", id).Msg("constraint deleted")
	return nil
}
