package models

import "time"

// Question types supported by feedback surveys.
const (
	QuestionTypeMultipleText        = "MULTIPLETEXT"
	QuestionTypeFixedText           = "FIXEDTEXT"
	QuestionTypeMultipleChoice      = "MULTIPLECHOICE"
	QuestionTypeSlideReview         = "SLIDEREVIEW"
	QuestionTypeTextarea            = "TEXTAREA"
	QuestionTypeNumber              = "NUMBER"
	QuestionTypeScaleMultipleChoice = "SCALEMULTIPLECHOICE"
	QuestionTypeMultipleSelect      = "MULTIPLESELECT"
)

// ConfidenceQuestionText is the reserved NUMBER question whose answers weight
// the other numeric answers during aggregation.
const ConfidenceQuestionText = "Your confidence"

// FeedbackSurvey defines the peer-review questionnaire for one assignment.
type FeedbackSurvey struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex" json:"assignment_id"`
	Template     string     `gorm:"size:255" json:"template"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	DateReleased *time.Time `json:"date_released"`
	DateDue      *time.Time `json:"date_due"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// SurveySection groups questions under a titled heading.
type SurveySection struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SurveyID   uint           `gorm:"not null;index" json:"survey_id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	IsRequired bool           `gorm:"not null;default:false" json:"is_required"`
	CreatedAt  time.Time      `json:"created_at"`
	Survey     FeedbackSurvey `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Question is one prompt inside a survey section.
type Question struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	SectionID     uint          `gorm:"not null;index" json:"section_id"`
	Text          string        `gorm:"type:text;not null" json:"text"`
	Type          string        `gorm:"size:32;not null" json:"type"`
	NumberOfScale int           `gorm:"not null;default:0" json:"number_of_scale"`
	NumberOfText  int           `gorm:"not null;default:1" json:"number_of_text"`
	IsRequired    bool          `gorm:"not null;default:false" json:"is_required"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Section       SurveySection `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// OptionChoice is a reusable selectable option text.
type OptionChoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionOption binds an option choice to a question. Row order (ID order)
// is the display and aggregation order of the labels.
type QuestionOption struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	QuestionID     uint          `gorm:"not null;index" json:"question_id"`
	OptionChoiceID *uint         `json:"option_choice_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	Question       Question      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
	OptionChoice   *OptionChoice `json:"option_choice,omitempty"`
}

// ScaleLabels returns the fixed vocabulary for a scaled multiple-choice
// question. Sizes other than 3, 5 and 7 yield nil; callers are expected to
// warn and drop those answers rather than fail.
func ScaleLabels(numberOfScale int) []string {
	switch numberOfScale {
	case 3:
		return []string{"disagree", "neutral", "agree"}
	case 5:
		return []string{"strongly disagree", "disagree", "neutral", "agree", "strongly agree"}
	case 7:
		return []string{"strongly disagree", "disagree", "weakly disagree", "neutral", "weakly agree", "agree", "strongly agree"}
	default:
		return nil
	}
}
