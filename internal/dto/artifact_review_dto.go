package dto

import (
	"time"

	"github.com/peerflow/gamify-api/internal/models"
)

// ReviewAnswer is one submitted answer inside a review submission.
type ReviewAnswer struct {
	QuestionOptionID uint   `json:"question_option_id" validate:"required"`
	AnswerText       string `json:"answer_text"`
	Page             *int   `json:"page" validate:"omitempty,gte=1"`
}

// ReviewSubmitRequest carries the full answer set of a review. Submission
// replaces any previously stored answers.
type ReviewSubmitRequest struct {
	Answers []ReviewAnswer `json:"answers" validate:"required,min=1,dive"`
}

// AnswerResponse is the serialized representation of a stored answer.
type AnswerResponse struct {
	ID               uint   `json:"id"`
	QuestionOptionID uint   `json:"question_option_id"`
	AnswerText       string `json:"answer_text"`
	Page             *int   `json:"page,omitempty"`
}

// ArtifactReviewResponse is the serialized representation of a review task.
type ArtifactReviewResponse struct {
	ID         uint             `json:"id"`
	ArtifactID uint             `json:"artifact_id"`
	ReviewerID uint             `json:"reviewer_id"`
	Status     string           `json:"status"`
	Answers    []AnswerResponse `json:"answers"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewAnswerResponse converts a model into a DTO.
func NewAnswerResponse(model models.Answer) AnswerResponse {
	return AnswerResponse{
		ID:               model.ID,
		QuestionOptionID: model.QuestionOptionID,
		AnswerText:       model.AnswerText,
		Page:             model.Page,
	}
}

// NewArtifactReviewResponse converts a review and its answers into a DTO.
func NewArtifactReviewResponse(review models.ArtifactReview, answers []models.Answer) ArtifactReviewResponse {
	answerResponses := make([]AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		answerResponses = append(answerResponses, NewAnswerResponse(answer))
	}

	return ArtifactReviewResponse{
		ID:         review.ID,
		ArtifactID: review.ArtifactID,
		ReviewerID: review.ReviewerRegistrationID,
		Status:     review.Status,
		Answers:    answerResponses,
		UpdatedAt:  review.UpdatedAt,
	}
}
