package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
)

func newSurveyFixture(t *testing.T, name string) (*gorm.DB, models.Assignment) {
	t.Helper()
	db := newReportTestDB(t, name)

	course := models.Course{Name: "Writing Studio", Number: "76-101", Semester: "F26"}
	require.NoError(t, db.Create(&course).Error)
	assignment := models.Assignment{CourseID: course.ID, Title: "Essay Draft"}
	require.NoError(t, db.Create(&assignment).Error)

	return db, assignment
}

func newSurveyTestService(t *testing.T, db *gorm.DB) SurveyService {
	t.Helper()
	svc, err := NewSurveyService(
		repository.NewSurveyRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
	require.NoError(t, err)
	return svc
}

func TestSurveyCreateRejectsDuplicate(t *testing.T) {
	db, assignment := newSurveyFixture(t, "survey_duplicate")
	svc := newSurveyTestService(t, db)
	ctx := context.Background()

	due := "2026-04-01T23:59:00Z"
	created, err := svc.Create(ctx, assignment.ID, dto.SurveyCreateRequest{
		Instructions: "Review two drafts by Friday.",
		DateDue:      &due,
	})
	require.NoError(t, err)
	require.Equal(t, assignment.ID, created.AssignmentID)
	require.NotNil(t, created.DateDue)

	_, err = svc.Create(ctx, assignment.ID, dto.SurveyCreateRequest{})
	require.ErrorIs(t, err, ErrSurveyAlreadyExists)
}

func TestSurveyCreateRejectsMalformedDates(t *testing.T) {
	db, assignment := newSurveyFixture(t, "survey_baddate")
	svc := newSurveyTestService(t, db)

	due := "next friday"
	_, err := svc.Create(context.Background(), assignment.ID, dto.SurveyCreateRequest{DateDue: &due})
	require.Error(t, err)

	_, err = svc.Get(context.Background(), assignment.ID)
	require.ErrorIs(t, err, ErrSurveyNotFound, "a rejected create must not leave a survey behind")
}

func TestSurveyImportCreatesFullStructure(t *testing.T) {
	db, assignment := newSurveyFixture(t, "survey_import")
	svc := newSurveyTestService(t, db)

	template := []byte(`{
		"sections": [
			{
				"title": "Argument",
				"is_required": true,
				"questions": [
					{"text": "How convincing is the thesis?", "type": "SCALEMULTIPLECHOICE", "number_of_scale": 5, "is_required": true},
					{"text": "Which revision matters most?", "type": "MULTIPLECHOICE", "options": ["Structure", "Evidence", "Style"]},
					{"text": "Anything else?", "type": "TEXTAREA"}
				]
			}
		]
	}`)

	response, err := svc.Import(context.Background(), assignment.ID, template)
	require.NoError(t, err)
	require.Len(t, response.Sections, 1)

	section := response.Sections[0]
	require.Equal(t, "Argument", section.Title)
	require.True(t, section.IsRequired)
	require.Len(t, section.Questions, 3)

	scale := section.Questions[0]
	require.Equal(t, models.QuestionTypeScaleMultipleChoice, scale.Type)
	require.Equal(t, 5, scale.NumberOfScale)
	require.True(t, scale.IsRequired)

	choice := section.Questions[1]
	require.Equal(t, []string{"Structure", "Evidence", "Style"}, choice.Options)

	// Non-choice questions still carry a bare option row for answers.
	var optionCount int64
	require.NoError(t, db.Model(&models.QuestionOption{}).
		Where("question_id = ?", section.Questions[2].ID).
		Count(&optionCount).Error)
	require.EqualValues(t, 1, optionCount)
}

func TestSurveyImportReusesOptionChoices(t *testing.T) {
	db, assignment := newSurveyFixture(t, "survey_choices")
	svc := newSurveyTestService(t, db)

	template := []byte(`{
		"sections": [
			{
				"title": "Ratings",
				"questions": [
					{"text": "Pick one", "type": "MULTIPLECHOICE", "options": ["Yes", "No"]},
					{"text": "Pick again", "type": "MULTIPLECHOICE", "options": ["Yes", "No"]}
				]
			}
		]
	}`)

	_, err := svc.Import(context.Background(), assignment.ID, template)
	require.NoError(t, err)

	var choiceCount int64
	require.NoError(t, db.Model(&models.OptionChoice{}).Count(&choiceCount).Error)
	require.EqualValues(t, 2, choiceCount, "identical option texts share one choice row")
}

func TestSurveyImportRejectsInvalidTemplate(t *testing.T) {
	db, assignment := newSurveyFixture(t, "survey_invalid")
	svc := newSurveyTestService(t, db)
	ctx := context.Background()

	_, err := svc.Import(ctx, assignment.ID, []byte(`not json at all`))
	require.ErrorIs(t, err, ErrInvalidSurveyTemplate)

	_, err = svc.Import(ctx, assignment.ID, []byte(`{"sections": []}`))
	require.ErrorIs(t, err, ErrInvalidSurveyTemplate, "at least one section is required")

	_, err = svc.Import(ctx, assignment.ID, []byte(`{
		"sections": [{"title": "Bad", "questions": [{"text": "q", "type": "ESSAY"}]}]
	}`))
	require.ErrorIs(t, err, ErrInvalidSurveyTemplate, "unknown question types are rejected")

	_, err = svc.Get(ctx, assignment.ID)
	require.ErrorIs(t, err, ErrSurveyNotFound, "no survey rows survive a failed import")
}

func TestSurveyImportIntoExistingSurveyAppends(t *testing.T) {
	db, assignment := newSurveyFixture(t, "survey_append")
	svc := newSurveyTestService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, assignment.ID, dto.SurveyCreateRequest{Instructions: "Be kind."})
	require.NoError(t, err)

	template := []byte(`{
		"sections": [{"title": "Added", "questions": [{"text": "New question", "type": "TEXTAREA"}]}]
	}`)
	response, err := svc.Import(ctx, assignment.ID, template)
	require.NoError(t, err)
	require.Equal(t, "Be kind.", response.Instructions)
	require.Len(t, response.Sections, 1)
}
