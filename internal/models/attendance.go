package models

import "time"

// AttendanceStatus classifies a single attendance record.
type AttendanceStatus string

// Possible attendance statuses.
const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// IsAttendanceStatus reports whether s is a valid attendance status.
func IsAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Attendance records a student's presence for a course on one date.
type Attendance struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	CourseID         string           `db:"course_id" json:"course_id"`
	EnrollmentLineID string           `db:"enrollment_line_id" json:"enrollment_line_id"`
	Date             time.Time        `db:"date" json:"date"`
	Status           AttendanceStatus `db:"status" json:"status"`
	EntryTime        *string          `db:"entry_time" json:"entry_time,omitempty"`
	Notes            *string          `db:"notes" json:"notes,omitempty"`
	Period           string           `db:"period" json:"period"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter provides filters for listing attendance records.
type AttendanceFilter struct {
	StudentID string
	CourseID  string
	Period    string
	Status    AttendanceStatus
	Date      *time.Time
	Page      int
	Limit     int
}
