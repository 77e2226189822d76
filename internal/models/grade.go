package models

import "time"

// GradeStatus represents the derived outcome of a grade record.
type GradeStatus string

// Possible grade statuses.
const (
	GradeStatusPending GradeStatus = "PENDING"
	GradeStatusPassed  GradeStatus = "PASSED"
	GradeStatusFailed  GradeStatus = "FAILED"
)

// Weights applied when all three partial scores are present.
const (
	GradeWeightPartial1 = 0.30
	GradeWeightPartial2 = 0.30
	GradeWeightFinal    = 0.40
	GradePassingScore   = 70
)

// Grade stores partial scores and the derived final score for a line.
type Grade struct {
	ID               string      `db:"id" json:"id"`
	StudentID        string      `db:"student_id" json:"student_id"`
	CourseID         string      `db:"course_id" json:"course_id"`
	EnrollmentLineID string      `db:"enrollment_line_id" json:"enrollment_line_id"`
	Period           string      `db:"period" json:"period"`
	Partial1         *float64    `db:"partial1" json:"partial1,omitempty"`
	Partial2         *float64    `db:"partial2" json:"partial2,omitempty"`
	FinalExam        *float64    `db:"final_exam" json:"final_exam,omitempty"`
	FinalScore       *int        `db:"final_score" json:"final_score,omitempty"`
	Status           GradeStatus `db:"status" json:"status"`
	Notes            *string     `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// GradeFilter provides filters for listing grades.
type GradeFilter struct {
	StudentID string
	CourseID  string
	Period    string
	Status    GradeStatus
	Page      int
	Limit     int
}
