package dto

import (
	"time"

	"github.com/peerflow/gamify-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Number   string `json:"number" validate:"required,max=32"`
	Semester string `json:"semester" validate:"required,max=32"`
	Visible  bool   `json:"visible"`
}

// TeamSwitchRequest moves a registration into a differently named team.
type TeamSwitchRequest struct {
	TeamName string `json:"team_name" validate:"required,min=1,max=255"`
}

// CourseResponse is the serialized representation of a course.
type CourseResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Number     string    `json:"number"`
	Semester   string    `json:"semester"`
	Visible    bool      `json:"visible"`
	PictureURL string    `json:"picture_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// RegistrationResponse is the serialized representation of a registration.
type RegistrationResponse struct {
	ID       uint   `json:"id"`
	UserID   uint   `json:"user_id"`
	CourseID uint   `json:"course_id"`
	Role     string `json:"role"`
	AndrewID string `json:"andrew_id"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:         model.ID,
		Name:       model.Name,
		Number:     model.Number,
		Semester:   model.Semester,
		Visible:    model.Visible,
		PictureURL: model.PictureURL,
		CreatedAt:  model.CreatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}

// NewRegistrationResponse converts a model into a DTO.
func NewRegistrationResponse(model models.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:       model.ID,
		UserID:   model.UserID,
		CourseID: model.CourseID,
		Role:     model.Role,
		AndrewID: model.User.AndrewID,
	}
}
