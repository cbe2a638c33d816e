package models

import "time"

const (
	// ConstraintKindAction counts discrete user actions, one per occurrence.
	ConstraintKindAction = "action"
	// ConstraintKindPoint tracks the best score achieved so far.
	ConstraintKindPoint = "point"
)

// Constraint is a thresholded countable condition, identified by the route
// key of the action it measures (e.g. "course/view", "assignment/grade").
type Constraint struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	URL         string    `gorm:"size:255;uniqueIndex;not null" json:"url"`
	Threshold   float64   `gorm:"not null" json:"threshold"`
	Description string    `gorm:"type:text" json:"description"`
	Kind        string    `gorm:"size:16;not null;default:action" json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Progress tracks one user's running count against one constraint.
// met must always equal cur_point >= threshold after every mutation.
type Progress struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_progress_user_constraint" json:"user_id"`
	ConstraintID uint       `gorm:"not null;uniqueIndex:idx_progress_user_constraint" json:"constraint_id"`
	CurPoint     float64    `gorm:"not null;default:0" json:"cur_point"`
	Met          bool       `gorm:"not null;default:false" json:"met"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Constraint   Constraint `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"constraint"`
}
