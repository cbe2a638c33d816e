package dto

import (
	"time"

	"github.com/peerflow/gamify-api/internal/models"
)

// SurveyCreateRequest describes the payload for creating a feedback survey.
type SurveyCreateRequest struct {
	Template     string  `json:"template" validate:"omitempty,max=255"`
	Instructions string  `json:"instructions"`
	DateReleased *string `json:"date_released" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	DateDue      *string `json:"date_due" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// SurveyImportRequest is the raw JSON template payload; its structure is
// checked against the embedded survey schema before anything is written.
type SurveyImportRequest struct {
	Sections []SurveyImportSection `json:"sections"`
}

// SurveyImportSection is one section of an imported survey template.
type SurveyImportSection struct {
	Title      string                 `json:"title"`
	IsRequired bool                   `json:"is_required"`
	Questions  []SurveyImportQuestion `json:"questions"`
}

// SurveyImportQuestion is one question of an imported survey template.
type SurveyImportQuestion struct {
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	NumberOfScale int      `json:"number_of_scale"`
	NumberOfText  int      `json:"number_of_text"`
	IsRequired    bool     `json:"is_required"`
	Options       []string `json:"options"`
}

// QuestionResponse is the serialized representation of a question.
type QuestionResponse struct {
	ID            uint     `json:"id"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	NumberOfScale int      `json:"number_of_scale"`
	NumberOfText  int      `json:"number_of_text"`
	IsRequired    bool     `json:"is_required"`
	Options       []string `json:"options"`
}

// SectionResponse is the serialized representation of a survey section.
type SectionResponse struct {
	ID         uint               `json:"id"`
	Title      string             `json:"title"`
	IsRequired bool               `json:"is_required"`
	Questions  []QuestionResponse `json:"questions"`
}

// SurveyResponse is the serialized representation of a feedback survey.
type SurveyResponse struct {
	ID           uint              `json:"id"`
	AssignmentID uint              `json:"assignment_id"`
	Template     string            `json:"template"`
	Instructions string            `json:"instructions"`
	DateReleased *time.Time        `json:"date_released"`
	DateDue      *time.Time        `json:"date_due"`
	Sections     []SectionResponse `json:"sections"`
}

// NewSurveyResponse converts a survey and its pre-loaded structure into a DTO.
func NewSurveyResponse(survey models.FeedbackSurvey, sections []SectionResponse) SurveyResponse {
	if sections == nil {
		sections = []SectionResponse{}
	}

	return SurveyResponse{
		ID:           survey.ID,
		AssignmentID: survey.AssignmentID,
		Template:     survey.Template,
		Instructions: survey.Instructions,
		DateReleased: survey.DateReleased,
		DateDue:      survey.DateDue,
		Sections:     sections,
	}
}
