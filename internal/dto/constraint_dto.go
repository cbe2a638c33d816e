package dto

import (
	"time"

	"github.com/peerflow/gamify-api/internal/models"
)

// ConstraintCreateRequest describes the payload for creating a constraint.
type ConstraintCreateRequest struct {
	URL         string  `json:"url" validate:"required,min=1,max=255"`
	Threshold   float64 `json:"threshold" validate:"required,gt=0"`
	Description string  `json:"description"`
	Kind        string  `json:"kind" validate:"omitempty,oneof=action point"`
}

// ConstraintUpdateRequest describes the payload for updating a constraint.
type ConstraintUpdateRequest struct {
	Threshold   *float64 `json:"threshold" validate:"omitempty,gt=0"`
	Description *string  `json:"description"`
}

// ConstraintResponse is the serialized representation of a constraint.
type ConstraintResponse struct {
	ID          uint      `json:"id"`
	URL         string    `json:"url"`
	Threshold   float64   `json:"threshold"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewConstraintResponse converts a model into a DTO.
func NewConstraintResponse(model models.Constraint) ConstraintResponse {
	return ConstraintResponse{
		ID:          model.ID,
		URL:         model.URL,
		Threshold:   model.Threshold,
		Description: model.Description,
		Kind:        model.Kind,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewConstraintResponseSlice converts a slice of models into DTOs.
func NewConstraintResponseSlice(constraints []models.Constraint) []ConstraintResponse {
	responses := make([]ConstraintResponse, 0, len(constraints))
	for _, constraint := range constraints {
		responses = append(responses, NewConstraintResponse(constraint))
	}

	return responses
}
