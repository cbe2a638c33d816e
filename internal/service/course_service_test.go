package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
)

func newCourseTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Registration{},
		&models.Team{},
		&models.Membership{},
	))
	return db
}

func newCourseTestService(db *gorm.DB) CourseService {
	return NewCourseService(
		repository.NewCourseRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
}

func seedRegistration(t *testing.T, db *gorm.DB, andrewID string, courseID uint) models.Registration {
	t.Helper()
	user := models.User{AndrewID: andrewID, Name: andrewID, Email: andrewID + "@example.edu"}
	require.NoError(t, db.Create(&user).Error)
	registration := models.Registration{UserID: user.ID, CourseID: courseID, Role: models.RoleStudent}
	require.NoError(t, db.Create(&registration).Error)
	return registration
}

func TestCourseCreateAndGet(t *testing.T) {
	db := newCourseTestDB(t, "course_crud")
	svc := newCourseTestService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CourseCreateRequest{
		Name:     "Software Architecture",
		Number:   "17-625",
		Semester: "F26",
		Visible:  true,
	})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Software Architecture", fetched.Name)
	require.True(t, fetched.Visible)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = svc.Get(ctx, created.ID+1)
	require.ErrorIs(t, err, ErrCourseNotFound)

	_, err = svc.Create(ctx, dto.CourseCreateRequest{Name: "missing number"})
	require.Error(t, err, "number and semester are required")
}

func TestSwitchTeamFirstAssignment(t *testing.T) {
	db := newCourseTestDB(t, "course_firstteam")
	svc := newCourseTestService(db)
	ctx := context.Background()

	course := models.Course{Name: "Studio", Number: "05-499", Semester: "S26"}
	require.NoError(t, db.Create(&course).Error)
	registration := seedRegistration(t, db, "nrivera", course.ID)

	response, err := svc.SwitchTeam(ctx, registration.ID, dto.TeamSwitchRequest{TeamName: "alpha"})
	require.NoError(t, err)
	require.Equal(t, registration.ID, response.ID)

	var team models.Team
	require.NoError(t, db.Where("course_id = ? AND name = ?", course.ID, "alpha").First(&team).Error)

	var membership models.Membership
	require.NoError(t, db.Where("registration_id = ?", registration.ID).First(&membership).Error)
	require.Equal(t, team.ID, membership.TeamID)
}

func TestSwitchTeamDeletesEmptiedTeam(t *testing.T) {
	db := newCourseTestDB(t, "course_emptyteam")
	svc := newCourseTestService(db)
	ctx := context.Background()

	course := models.Course{Name: "Studio", Number: "05-499", Semester: "S26"}
	require.NoError(t, db.Create(&course).Error)
	solo := seedRegistration(t, db, "pokafor", course.ID)
	partner := seedRegistration(t, db, "lnowak", course.ID)

	_, err := svc.SwitchTeam(ctx, solo.ID, dto.TeamSwitchRequest{TeamName: "alpha"})
	require.NoError(t, err)
	_, err = svc.SwitchTeam(ctx, partner.ID, dto.TeamSwitchRequest{TeamName: "beta"})
	require.NoError(t, err)

	// The sole member of alpha leaves for beta, so alpha disappears and beta
	// is joined rather than duplicated.
	_, err = svc.SwitchTeam(ctx, solo.ID, dto.TeamSwitchRequest{TeamName: "beta"})
	require.NoError(t, err)

	var alphaCount int64
	require.NoError(t, db.Model(&models.Team{}).Where("name = ?", "alpha").Count(&alphaCount).Error)
	require.Zero(t, alphaCount)

	var betaTeams []models.Team
	require.NoError(t, db.Where("course_id = ? AND name = ?", course.ID, "beta").Find(&betaTeams).Error)
	require.Len(t, betaTeams, 1)

	var members int64
	require.NoError(t, db.Model(&models.Membership{}).Where("team_id = ?", betaTeams[0].ID).Count(&members).Error)
	require.EqualValues(t, 2, members)
}

func TestSwitchTeamUnknownRegistration(t *testing.T) {
	db := newCourseTestDB(t, "course_badreg")
	svc := newCourseTestService(db)

	_, err := svc.SwitchTeam(context.Background(), 9999, dto.TeamSwitchRequest{TeamName: "alpha"})
	require.ErrorIs(t, err, ErrRegistrationNotFound)
}
