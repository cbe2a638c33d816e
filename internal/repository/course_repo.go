package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/models"
)

// CourseRepository defines persistence operations for courses, registrations
// and team membership.
type CourseRepository interface {
	InTx(ctx context.Context, fn func(CourseRepository) error) error
	List(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	GetRegistration(ctx context.Context, id uint) (models.Registration, error)
	RegistrationForUser(ctx context.Context, userID, courseID uint) (models.Registration, error)
	CreateRegistration(ctx context.Context, registration *models.Registration) error
	MembershipForRegistration(ctx context.Context, registrationID uint) (models.Membership, error)
	DeleteMembership(ctx context.Context, id uint) error
	TeamMemberCount(ctx context.Context, teamID uint) (int64, error)
	DeleteTeam(ctx context.Context, id uint) error
	FindOrCreateTeam(ctx context.Context, courseID uint, name string) (models.Team, error)
	CreateMembership(ctx context.Context, membership *models.Membership) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) InTx(ctx context.Context, fn func(CourseRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&courseRepository{db: tx})
	})
}

func (r *courseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) GetRegistration(ctx context.Context, id uint) (models.Registration, error) {
	var registration models.Registration
	if err := r.db.WithContext(ctx).Preload("User").First(&registration, id).Error; err != nil {
		return models.Registration{}, err
	}

	return registration, nil
}

func (r *courseRepository) RegistrationForUser(ctx context.Context, userID, courseID uint) (models.Registration, error) {
	var registration models.Registration
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&registration).Error; err != nil {
		return models.Registration{}, err
	}

	return registration, nil
}

func (r *courseRepository) CreateRegistration(ctx context.Context, registration *models.Registration) error {
	return r.db.WithContext(ctx).Create(registration).Error
}

func (r *courseRepository) MembershipForRegistration(ctx context.Context, registrationID uint) (models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		First(&membership).Error; err != nil {
		return models.Membership{}, err
	}

	return membership, nil
}

func (r *courseRepository) DeleteMembership(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Membership{}, id).Error
}

func (r *courseRepository) TeamMemberCount(ctx context.Context, teamID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("team_id = ?", teamID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *courseRepository) DeleteTeam(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Team{}, id).Error
}

func (r *courseRepository) FindOrCreateTeam(ctx context.Context, courseID uint, name string) (models.Team, error) {
	var team models.Team
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND name = ?", courseID, name).
		First(&team).Error
	if err == nil {
		return team, nil
	}
	if err != gorm.ErrRecordNotFound {
		return models.Team{}, err
	}

	team = models.Team{CourseID: courseID, Name: name}
	if err := r.db.WithContext(ctx).Create(&team).Error; err != nil {
		return models.Team{}, err
	}

	return team, nil
}

func (r *courseRepository) CreateMembership(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}
