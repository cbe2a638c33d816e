package models

import "time"

// Rule bundles constraints; every constraint must be met before the rule
// fires and its rewards are granted.
type Rule struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:255;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Default     bool         `gorm:"not null;default:false" json:"default"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Constraints []Constraint `gorm:"many2many:rule_constraints" json:"constraints,omitempty"`
}

// RuleConstraint attaches a constraint to a rule.
type RuleConstraint struct {
	RuleID       uint      `gorm:"primaryKey" json:"rule_id"`
	ConstraintID uint      `gorm:"primaryKey" json:"constraint_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Achievement records that a registration satisfied a rule.
type Achievement struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	RegistrationID uint         `gorm:"not null;uniqueIndex:idx_achievement_registration_rule" json:"registration_id"`
	RuleID         uint         `gorm:"not null;uniqueIndex:idx_achievement_registration_rule" json:"rule_id"`
	CreatedAt      time.Time    `json:"created_at"`
	Registration   Registration `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Rule           Rule         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
