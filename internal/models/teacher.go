package models

import (
	"time"

	"github.com/lib/pq"
)

// TeacherState represents the lifecycle of a teacher record.
type TeacherState string

// Possible teacher states.
const (
	TeacherStateActive     TeacherState = "ACTIVE"
	TeacherStateInactive   TeacherState = "INACTIVE"
	TeacherStateOnLeave    TeacherState = "ON_LEAVE"
	TeacherStateOnVacation TeacherState = "ON_VACATION"
)

// Specialties is the fixed subject list teachers may specialise in.
var Specialties = []string{
	"Mathematics", "Physics", "Chemistry", "Biology", "Language", "Literature",
	"Natural Sciences", "Social Sciences", "History", "Geography", "English",
	"Art", "Music", "Physical Education", "Technology", "Computer Science",
}

// Teacher represents a staff member who teaches courses.
type Teacher struct {
	ID          string         `db:"id" json:"id"`
	Code        string         `db:"code" json:"code"`
	FirstNames  string         `db:"first_names" json:"first_names"`
	LastNames   string         `db:"last_names" json:"last_names"`
	Email       string         `db:"email" json:"email"`
	Phone       string         `db:"phone" json:"phone"`
	Specialties pq.StringArray `db:"specialties" json:"specialties"`
	Degree      string         `db:"degree" json:"degree"`
	HiredAt     time.Time      `db:"hired_at" json:"hired_at"`
	Salary      float64        `db:"salary" json:"salary"`
	State       TeacherState   `db:"state" json:"state"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last names for display.
func (t *Teacher) FullName() string {
	return t.FirstNames + " " + t.LastNames
}

// TeacherFilter encapsulates allowed search parameters for listing teachers.
type TeacherFilter struct {
	Search    string
	Specialty string
	State     TeacherState
	Page      int
	Limit     int
}
