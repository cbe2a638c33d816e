package models

import (
	"time"

	"gorm.io/datatypes"
)

// RewardType categorises rewards (badge, bonus, swag, ...).
type RewardType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
}

// Reward is a grantable prize. It belongs to a course for the store path and
// may additionally reference a rule for the constraint-driven path.
type Reward struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	CourseID    uint               `gorm:"not null;index" json:"course_id"`
	RuleID      *uint              `gorm:"index" json:"rule_id,omitempty"`
	TypeID      uint               `gorm:"not null" json:"type_id"`
	Name        string             `gorm:"size:255;not null" json:"name"`
	Description string             `gorm:"type:text" json:"description"`
	ExpPoints   float64            `gorm:"not null;default:0" json:"exp_points"`
	Inventory   *int               `json:"inventory"`
	Quantity    int                `gorm:"not null;default:1" json:"quantity"`
	IsActive    bool               `gorm:"not null;default:true" json:"is_active"`
	Theme       datatypes.JSONMap  `json:"theme"`
	PictureURL  string             `gorm:"size:512" json:"picture_url"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Course      Course             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Type        RewardType         `json:"type"`
	Rule        *Rule              `json:"-"`
}

// IsUnlimited reports whether the reward has no inventory cap.
func (r Reward) IsUnlimited() bool {
	return r.Inventory == nil
}

// UserReward records a user receiving or purchasing a reward. The unique
// index backs the insert-ignore grant path.
type UserReward struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_reward" json:"user_id"`
	RewardID  uint      `gorm:"not null;uniqueIndex:idx_user_reward" json:"reward_id"`
	Fulfilled bool      `gorm:"not null;default:false" json:"fulfilled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Reward    Reward    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
