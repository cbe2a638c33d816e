package models

import "time"

// User represents a platform account identified by an Andrew ID.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AndrewID  string    `gorm:"size:64;uniqueIndex;not null" json:"andrew_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	ExpPoints float64   `gorm:"not null;default:0" json:"exp_points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Course represents a course offering for one semester.
type Course struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Number     string    `gorm:"size:32;not null" json:"number"`
	Semester   string    `gorm:"size:32;not null" json:"semester"`
	Visible    bool      `gorm:"not null;default:true" json:"visible"`
	PictureURL string    `gorm:"size:512" json:"picture_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	// RoleInstructor marks a registration with full course control.
	RoleInstructor = "instructor"
	// RoleTA marks a teaching assistant registration.
	RoleTA = "ta"
	// RoleStudent marks a learner registration.
	RoleStudent = "student"
)

// Registration binds a user to a course with a role.
type Registration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_registration_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_registration_user_course" json:"course_id"`
	Role      string    `gorm:"size:16;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Team groups registrations submitting shared artifacts.
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership places a registration inside a team.
type Membership struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	TeamID         uint         `gorm:"not null;index" json:"team_id"`
	RegistrationID uint         `gorm:"not null;uniqueIndex" json:"registration_id"`
	CreatedAt      time.Time    `json:"created_at"`
	Team           Team         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Registration   Registration `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsStaff reports whether the registration may perform instructor or TA actions.
func (r Registration) IsStaff() bool {
	return r.Role == RoleInstructor || r.Role == RoleTA
}
