package models

import (
	"time"

	"github.com/lib/pq"
)

// CourseState represents the lifecycle of a course record.
type CourseState string

// Possible course states.
const (
	CourseStateActive   CourseState = "ACTIVE"
	CourseStateInactive CourseState = "INACTIVE"
)

// CourseAreas is the fixed enumeration of curricular areas.
var CourseAreas = []string{
	"Mathematics", "Language", "Natural Sciences", "Social Sciences",
	"English", "Art", "Physical Education", "Technology",
}

// Course represents a subject offering with credit weight and schedule load.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	Name          string         `db:"name" json:"name"`
	Description   *string        `db:"description" json:"description,omitempty"`
	Credits       int            `db:"credits" json:"credits"`
	WeeklyHours   int            `db:"weekly_hours" json:"weekly_hours"`
	Grade         string         `db:"grade" json:"grade"`
	Area          string         `db:"area" json:"area"`
	Prerequisites pq.StringArray `db:"prerequisites" json:"prerequisites,omitempty"`
	State         CourseState    `db:"state" json:"state"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseFilter encapsulates allowed search parameters for listing courses.
type CourseFilter struct {
	Search string
	Grade  string
	Area   string
	State  CourseState
	Page   int
	Limit  int
}
