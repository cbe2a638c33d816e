package dto

import (
	"github.com/peerflow/gamify-api/internal/models"
)

// RewardCreateRequest describes the payload for creating a reward.
type RewardCreateRequest struct {
	CourseID    uint                   `json:"course_id" validate:"required"`
	RuleID      *uint                  `json:"rule_id"`
	TypeID      uint                   `json:"type_id" validate:"required"`
	Name        string                 `json:"name" validate:"required,min=1,max=255"`
	Description string                 `json:"description"`
	ExpPoints   float64                `json:"exp_points" validate:"gte=0"`
	Inventory   *int                   `json:"inventory" validate:"omitempty,gte=0"`
	Quantity    int                    `json:"quantity" validate:"omitempty,gte=1"`
	Theme       map[string]interface{} `json:"theme"`
	PictureURL  string                 `json:"picture_url"`
}

// RewardResponse is the serialized representation of a reward, including
// ownership and consumption figures.
type RewardResponse struct {
	PK          uint        `json:"pk"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	BelongTo    uint        `json:"belong_to"`
	Type        string      `json:"type"`
	IsActive    bool        `json:"is_active"`
	ExpPoints   float64     `json:"exp_points"`
	Owner       []string    `json:"owner"`
	Consumed    int         `json:"consumed"`
	Inventory   interface{} `json:"inventory"`
	Quantity    int         `json:"quantity,omitempty"`
	PictureURL  string      `json:"picture_url,omitempty"`
}

// NewRewardResponse converts a reward plus its grant records into a DTO.
// Unlimited inventory serializes as the literal string "Unlimited".
func NewRewardResponse(model models.Reward, owners []string, consumed int) RewardResponse {
	var inventory interface{} = "Unlimited"
	if !model.IsUnlimited() {
		remaining := *model.Inventory
		if remaining < 0 {
			remaining = 0
		}
		inventory = remaining
	}

	if owners == nil {
		owners = []string{}
	}

	return RewardResponse{
		PK:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		BelongTo:    model.CourseID,
		Type:        model.Type.Name,
		IsActive:    model.IsActive,
		ExpPoints:   model.ExpPoints,
		Owner:       owners,
		Consumed:    consumed,
		Inventory:   inventory,
		Quantity:    model.Quantity,
		PictureURL:  model.PictureURL,
	}
}

// UserRewardResponse is the serialized representation of a granted reward.
type UserRewardResponse struct {
	ID        uint `json:"id"`
	UserID    uint `json:"user_id"`
	RewardID  uint `json:"reward_id"`
	Fulfilled bool `json:"fulfilled"`
}

// NewUserRewardResponse converts a model into a DTO.
func NewUserRewardResponse(model models.UserReward) UserRewardResponse {
	return UserRewardResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		RewardID:  model.RewardID,
		Fulfilled: model.Fulfilled,
	}
}
