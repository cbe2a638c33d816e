package models

import "time"

// Assignment is a graded deliverable within a course.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Course      Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Artifact is a submitted deliverable (currently a PDF) for an assignment.
type Artifact struct {
	ID                      uint         `gorm:"primaryKey" json:"id"`
	AssignmentID            uint         `gorm:"not null;index" json:"assignment_id"`
	SubmitterRegistrationID uint         `gorm:"not null;index" json:"submitter_registration_id"`
	FileURL                 string       `gorm:"size:512" json:"file_url"`
	UploadTime              time.Time    `json:"upload_time"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`
	Assignment              Assignment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submitter               Registration `gorm:"foreignKey:SubmitterRegistrationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Review statuses. INCOMPLETE is initial; submission stamps COMPLETED or
// LATE depending on the survey due date; REOPEN allows re-editing.
const (
	ReviewStatusIncomplete = "INCOMPLETE"
	ReviewStatusCompleted  = "COMPLETED"
	ReviewStatusLate       = "LATE"
	ReviewStatusReopen     = "REOPEN"
)

// ArtifactReview is one reviewer's evaluation task for one artifact.
type ArtifactReview struct {
	ID                     uint         `gorm:"primaryKey" json:"id"`
	ArtifactID             uint         `gorm:"not null;uniqueIndex:idx_review_artifact_reviewer" json:"artifact_id"`
	ReviewerRegistrationID uint         `gorm:"not null;uniqueIndex:idx_review_artifact_reviewer" json:"reviewer_registration_id"`
	Status                 string       `gorm:"size:16;not null;default:INCOMPLETE" json:"status"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`
	Artifact               Artifact     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Reviewer               Registration `gorm:"foreignKey:ReviewerRegistrationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Answer is a reviewer's response to a question for a given review. The
// question behind QuestionOption determines how AnswerText is interpreted.
type Answer struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ArtifactReviewID uint           `gorm:"not null;index" json:"artifact_review_id"`
	QuestionOptionID uint           `gorm:"not null;index" json:"question_option_id"`
	AnswerText       string         `gorm:"type:text" json:"answer_text"`
	Page             *int           `json:"page,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	ArtifactReview   ArtifactReview `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	QuestionOption   QuestionOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question_option"`
}

// IsSlideFeedback reports whether the answer carries a page annotation.
func (a Answer) IsSlideFeedback() bool {
	return a.Page != nil
}
