package dto

import (
	"time"

	"github.com/peerflow/gamify-api/internal/models"
)

// RuleCreateRequest describes the payload for creating a rule.
type RuleCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

// RuleUpdateRequest describes the payload for updating a rule.
type RuleUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Default     *bool   `json:"default"`
}

// RuleAttachConstraintRequest attaches an existing constraint to a rule.
type RuleAttachConstraintRequest struct {
	ConstraintID uint `json:"constraint_id" validate:"required"`
}

// RuleResponse is the serialized representation of a rule.
type RuleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Default     bool                 `json:"default"`
	Constraints []ConstraintResponse `json:"constraints"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewRuleResponse converts a model into a DTO.
func NewRuleResponse(model models.Rule) RuleResponse {
	return RuleResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Default:     model.Default,
		Constraints: NewConstraintResponseSlice(model.Constraints),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewRuleResponseSlice converts a slice of models into DTOs.
func NewRuleResponseSlice(rules []models.Rule) []RuleResponse {
	responses := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		responses = append(responses, NewRuleResponse(rule))
	}

	return responses
}
