package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/observability"
	"github.com/peerflow/gamify-api/internal/repository"
)

// ErrRewardNotFound indicates the requested reward does not exist.
var ErrRewardNotFound = errors.New("reward not found")

// ErrRewardInactive indicates the reward cannot currently be purchased.
var ErrRewardInactive = errors.New("reward is not active")

// ErrRewardSoldOut indicates the reward inventory is exhausted.
var ErrRewardSoldOut = errors.New("reward is sold out")

// ErrInsufficientPoints indicates the buyer lacks the experience points.
var ErrInsufficientPoints = errors.New("insufficient experience points")

// ErrRewardAlreadyOwned indicates the buyer already holds this reward.
var ErrRewardAlreadyOwned = errors.New("reward already owned")

// ErrUserRewardNotFound indicates the grant record does not exist.
var ErrUserRewardNotFound = errors.New("user reward not found")

// RewardService exposes the reward store: listing, purchasing and fulfilment.
type RewardService interface {
	ListByCourse(ctx context.Context, courseID uint) ([]dto.RewardResponse, error)
	Create(ctx context.Context, payload dto.RewardCreateRequest) (dto.RewardResponse, error)
	Purchase(ctx context.Context, rewardID, userID uint) (dto.UserRewardResponse, error)
	Fulfill(ctx context.Context, userRewardID uint) (dto.UserRewardResponse, error)
}

type rewardService struct {
	repo      repository.RewardRepository
	notifier  RewardGrantNotifier
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRewardService builds the reward store service.
func NewRewardService(repo repository.RewardRepository, notifier RewardGrantNotifier, validate *validator.Validate, logger zerolog.Logger) RewardService {
	return &rewardService{
		repo:      repo,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "reward_service").Logger(),
	}
}

func (s *rewardService) ListByCourse(ctx context.Context, courseID uint) ([]dto.RewardResponse, error) {
	rewards, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.RewardResponse, 0, len(rewards))
	for _, reward := range rewards {
		owners, err := s.repo.Owners(ctx, reward.ID)
		if err != nil {
			return nil, err
		}
		consumed, err := s.repo.ConsumedCount(ctx, reward.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewRewardResponse(reward, owners, int(consumed)))
	}

	return responses, nil
}

func (s *rewardService) Create(ctx context.Context, payload dto.RewardCreateRequest) (dto.RewardResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RewardResponse{}, err
	}

	quantity := payload.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	reward := models.Reward{
		CourseID:    payload.CourseID,
		RuleID:      payload.RuleID,
		TypeID:      payload.TypeID,
		Name:        payload.Name,
		Description: payload.Description,
		ExpPoints:   payload.ExpPoints,
		Inventory:   payload.Inventory,
		Quantity:    quantity,
		IsActive:    true,
		Theme:       payload.Theme,
		PictureURL:  payload.PictureURL,
	}

	if err := s.repo.Create(ctx, &reward); err != nil {
		return dto.RewardResponse{}, err
	}

	created, err := s.repo.GetByID(ctx, reward.ID)
	if err != nil {
		return dto.RewardResponse{}, err
	}

	s.logger.Info().Uint("reward_id", created.ID).Str("name", created.Name).Msg("reward created")

	return dto.NewRewardResponse(created, nil, 0), nil
}

// Purchase spends experience points on a reward. The reward and buyer rows
// are locked so concurrent purchases cannot oversell the inventory.
func (s *rewardService) Purchase(ctx context.Context, rewardID, userID uint) (dto.UserRewardResponse, error) {
	var grant models.UserReward

	err := s.repo.InTx(ctx, func(tx repository.RewardRepository) error {
		reward, err := tx.GetForUpdate(ctx, rewardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return err
		}

		if !reward.IsActive {
			return ErrRewardInactive
		}
		if !reward.IsUnlimited() && *reward.Inventory <= 0 {
			return ErrRewardSoldOut
		}

		// Each user may hold a reward once; the check runs under the
		// reward lock so a concurrent repeat cannot slip past it.
		owned, err := tx.UserRewardExists(ctx, userID, reward.ID)
		if err != nil {
			return err
		}
		if owned {
			return ErrRewardAlreadyOwned
		}

		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user.ExpPoints < reward.ExpPoints {
			return ErrInsufficientPoints
		}

		user.ExpPoints -= reward.ExpPoints
		if err := tx.SaveUser(ctx, &user); err != nil {
			return err
		}

		if !reward.IsUnlimited() {
			remaining := *reward.Inventory - 1
			reward.Inventory = &remaining
			if err := tx.Update(ctx, &reward); err != nil {
				return err
			}
		}

		grant = models.UserReward{UserID: userID, RewardID: reward.ID}
		return tx.CreateUserReward(ctx, &grant)
	})
	if err != nil {
		return dto.UserRewardResponse{}, err
	}

	observability.RewardsGranted().WithLabelValues("purchase").Inc()
	s.logger.Info().Uint("user_id", userID).Uint("reward_id", rewardID).Msg("reward purchased")

	if s.notifier != nil {
		if reward, err := s.repo.GetByID(ctx, rewardID); err == nil {
			s.notifier.RewardGranted(ctx, userID, reward, models.Rule{})
		}
	}

	return dto.NewUserRewardResponse(grant), nil
}

func (s *rewardService) Fulfill(ctx context.Context, userRewardID uint) (dto.UserRewardResponse, error) {
	grant, err := s.repo.GetUserReward(ctx, userRewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserRewardResponse{}, ErrUserRewardNotFound
		}
		return dto.UserRewardResponse{}, err
	}

	if grant.Fulfilled {
		return dto.NewUserRewardResponse(grant), nil
	}

	grant.Fulfilled = true
	if err := s.repo.SaveUserReward(ctx, &grant); err != nil {
		return dto.UserRewardResponse{}, err
	}

	s.logger.Info().Uint("user_reward_id", grant.ID).Msg("reward fulfilled")

	return dto.NewUserRewardResponse(grant), nil
}
