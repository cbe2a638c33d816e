package dto

import (
	"time"

	"github.com/peerflow/gamify-api/internal/models"
)

// AssignReviewersRequest lists the registrations that should review an artifact.
type AssignReviewersRequest struct {
	ReviewerRegistrationIDs []uint `json:"reviewer_registration_ids" validate:"required,min=1"`
}

// ArtifactResponse is the serialized representation of a submitted artifact.
type ArtifactResponse struct {
	ID           uint      `json:"id"`
	AssignmentID uint      `json:"assignment_id"`
	SubmitterID  uint      `json:"submitter_id"`
	FileURL      string    `json:"file_url"`
	UploadTime   time.Time `json:"upload_time"`
}

// NewArtifactResponse converts a model into a DTO.
func NewArtifactResponse(model models.Artifact) ArtifactResponse {
	return ArtifactResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		SubmitterID:  model.SubmitterRegistrationID,
		FileURL:      model.FileURL,
		UploadTime:   model.UploadTime,
	}
}
