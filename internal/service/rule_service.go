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

// ErrRuleNotFound indicates the requested rule does not exist.
var ErrRuleNotFound = errors.New("rule not found")

// ErrRuleConstraintNotFound indicates the constraint is not attached to the rule.
var ErrRuleConstraintNotFound = errors.New("rule constraint not found")

// RuleService exposes rule administration use cases.
type RuleService interface {
	List(ctx context.Context) ([]dto.RuleResponse, error)
	Get(ctx context.Context, id uint) (dto.RuleResponse, error)
	Create(ctx context.Context, payload dto.RuleCreateRequest) (dto.RuleResponse, error)
	Update(ctx context.Context, id uint, payload dto.RuleUpdateRequest) (dto.RuleResponse, error)
	Delete(ctx context.Context, id uint) error
	AttachConstraint(ctx context.Context, ruleID uint, payload dto.RuleAttachConstraintRequest) (dto.RuleResponse, error)
	DetachConstraint(ctx context.Context, ruleID, constraintID uint) error
}

type ruleService struct {
	rules       repository.RuleRepository
	constraints repository.ConstraintRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewRuleService builds a new rule service.
func NewRuleService(rules repository.RuleRepository, constraints repository.ConstraintRepository, validate *validator.Validate, logger zerolog.Logger) RuleService {
	return &ruleService{
		rules:       rules,
		constraints: constraints,
		validator:   validate,
		logger:      logger.With().Str("component", "rule_service").Logger(),
	}
}

func (s *ruleService) List(ctx context.Context) ([]dto.RuleResponse, error) {
	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewRuleResponseSlice(rules), nil
}

func (s *ruleService) Get(ctx context.Context, id uint) (dto.RuleResponse, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RuleResponse{}, ErrRuleNotFound
		}
		return dto.RuleResponse{}, err
	}

	return dto.NewRuleResponse(rule), nil
}

func (s *ruleService) Create(ctx context.Context, payload dto.RuleCreateRequest) (dto.RuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RuleResponse{}, err
	}

	rule := models.Rule{
		Name:        payload.Name,
		Description: payload.Description,
		Default:     payload.Default,
	}

	if err := s.rules.Create(ctx, &rule); err != nil {
		return dto.RuleResponse{}, err
	}

	s.logger.Info().Uint("rule_id", rule.ID).Str("name", rule.Name).Msg("rule created")

	return dto.NewRuleResponse(rule), nil
}

func (s *ruleService) Update(ctx context.Context, id uint, payload dto.RuleUpdateRequest) (dto.RuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RuleResponse{}, err
	}

	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RuleResponse{}, ErrRuleNotFound
		}
		return dto.RuleResponse{}, err
	}

	if payload.Name != nil {
		rule.Name = *payload.Name
	}
	if payload.Description != nil {
		rule.Description = *payload.Description
	}
	if payload.Default != nil {
		rule.Default = *payload.Default
	}

	if err := s.rules.Update(ctx, &rule); err != nil {
		return dto.RuleResponse{}, err
	}

	return dto.NewRuleResponse(rule), nil
}

func (s *ruleService) Delete(ctx context.Context, id uint) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRuleNotFound
		}
		return err
	}

	s.logger.Info().Uint("rule_id", id).Msg("rule deleted")
	return nil
}

func (s *ruleService) AttachConstraint(ctx context.Context, ruleID uint, payload dto.RuleAttachConstraintRequest) (dto.RuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RuleResponse{}, err
	}

	if _, err := s.rules.GetByID(ctx, ruleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RuleResponse{}, ErrRuleNotFound
		}
		return dto.RuleResponse{}, err
	}

	if _, err := s.constraints.GetByID(ctx, payload.ConstraintID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RuleResponse{}, ErrConstraintNotFound
		}
		return dto.RuleResponse{}, err
	}

	if err := s.rules.AttachConstraint(ctx, ruleID, payload.ConstraintID); err != nil {
		return dto.RuleResponse{}, err
	}

	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return dto.RuleResponse{}, err
	}

	return dto.NewRuleResponse(rule), nil
}

func (s *ruleService) DetachConstraint(ctx context.Context, ruleID, constraintID uint) error {
	if err := s.rules.DetachConstraint(ctx, ruleID, constraintID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRuleConstraintNotFound
		}
		return err
	}

	return nil
}
