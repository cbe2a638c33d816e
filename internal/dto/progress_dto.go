package dto

import "github.com/peerflow/gamify-api/internal/models"

// ProgressUpdateRequest carries an optional score for max-mode updates. A
// missing body means a plain increment.
type ProgressUpdateRequest struct {
	CurPoint *float64 `json:"cur_point" validate:"omitempty,gte=0"`
}

// ProgressResponse is the serialized representation of a progress row.
type ProgressResponse struct {
	PK         uint               `json:"pk"`
	Met        bool               `json:"met"`
	CurPoint   float64            `json:"cur_point"`
	Constraint ConstraintResponse `json:"constraint"`
	User       uint               `json:"user"`
}

// NewProgressResponse converts a model into a DTO.
func NewProgressResponse(model models.Progress) ProgressResponse {
	return ProgressResponse{
		PK:         model.ID,
		Met:        model.Met,
		CurPoint:   model.CurPoint,
		Constraint: NewConstraintResponse(model.Constraint),
		User:       model.UserID,
	}
}
