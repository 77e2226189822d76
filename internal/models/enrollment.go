package models

import (
	"time"

	"github.com/lib/pq"
)

// EnrollmentState represents the lifecycle of an enrollment.
type EnrollmentState string

// Possible enrollment states.
const (
	EnrollmentStateActive    EnrollmentState = "ACTIVE"
	EnrollmentStateSuspended EnrollmentState = "SUSPENDED"
	EnrollmentStateCancelled EnrollmentState = "CANCELLED"
	EnrollmentStateFinished  EnrollmentState = "FINISHED"
)

// IsEnrollmentState reports whether s is a valid enrollment state.
func IsEnrollmentState(s EnrollmentState) bool {
	switch s {
	case EnrollmentStateActive, EnrollmentStateSuspended, EnrollmentStateCancelled, EnrollmentStateFinished:
		return true
	}
	return false
}

// LineState represents the lifecycle of a single course registration.
type LineState string

// Possible enrollment line states.
const (
	LineStateEnrolled  LineState = "ENROLLED"
	LineStateWithdrawn LineState = "WITHDRAWN"
	LineStatePassed    LineState = "PASSED"
	LineStateFailed    LineState = "FAILED"
)

// IsLineState reports whether s is a valid line state.
func IsLineState(s LineState) bool {
	switch s {
	case LineStateEnrolled, LineStateWithdrawn, LineStatePassed, LineStateFailed:
		return true
	}
	return false
}

// ScheduleDays are the valid days for a line schedule.
var ScheduleDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Enrollment is the parent record of a student's registration for a period.
type Enrollment struct {
	ID             string          `db:"id" json:"id"`
	Number         string          `db:"number" json:"number"`
	StudentID      string          `db:"student_id" json:"student_id"`
	AcademicPeriod string          `db:"academic_period" json:"academic_period"`
	EnrolledAt     time.Time       `db:"enrolled_at" json:"enrolled_at"`
	State          EnrollmentState `db:"state" json:"state"`
	TotalCredits   int             `db:"total_credits" json:"total_credits"`
	TotalCost      float64         `db:"total_cost" json:"total_cost"`
	Notes          *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// EnrollmentLine is one course registration within an enrollment.
type EnrollmentLine struct {
	ID           string         `db:"id" json:"id"`
	EnrollmentID string         `db:"enrollment_id" json:"enrollment_id"`
	CourseID     string         `db:"course_id" json:"course_id"`
	TeacherID    string         `db:"teacher_id" json:"teacher_id"`
	Days         pq.StringArray `db:"days" json:"days"`
	StartTime    string         `db:"start_time" json:"start_time"`
	EndTime      string         `db:"end_time" json:"end_time"`
	Credits      int            `db:"credits" json:"credits"`
	Cost         float64        `db:"cost" json:"cost"`
	State        LineState      `db:"state" json:"state"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// EnrollmentLineDetail enriches a line with course and teacher info.
type EnrollmentLineDetail struct {
	EnrollmentLine
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
	CourseArea  string `db:"course_area" json:"course_area"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// EnrollmentDetail enriches an enrollment with student info and lines.
type EnrollmentDetail struct {
	Enrollment
	StudentCode string                 `db:"student_code" json:"student_code"`
	StudentName string                 `db:"student_name" json:"student_name"`
	Lines       []EnrollmentLineDetail `json:"lines,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	Period    string
	State     EnrollmentState
	Page      int
	Limit     int
}

// AreaStats aggregates line counts and credits per course area.
type AreaStats struct {
	Courses int `json:"courses"`
	Credits int `json:"credits"`
}

// EnrollmentStats summarises an enrollment's lines and stored totals.
type EnrollmentStats struct {
	TotalCourses int                  `json:"total_courses"`
	Enrolled     int                  `json:"enrolled"`
	Withdrawn    int                  `json:"withdrawn"`
	TotalCredits int                  `json:"total_credits"`
	TotalCost    float64              `json:"total_cost"`
	ByArea       map[string]AreaStats `json:"by_area"`
}
