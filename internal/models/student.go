package models

import "time"

// StudentState represents the lifecycle of a student record.
type StudentState string

// Possible student states.
const (
	StudentStateActive    StudentState = "ACTIVE"
	StudentStateInactive  StudentState = "INACTIVE"
	StudentStateSuspended StudentState = "SUSPENDED"
	StudentStateGraduated StudentState = "GRADUATED"
)

// Student represents a learner registered in the institution.
type Student struct {
	ID               string       `db:"id" json:"id"`
	Code             string       `db:"code" json:"code"`
	FirstNames       string       `db:"first_names" json:"first_names"`
	LastNames        string       `db:"last_names" json:"last_names"`
	Email            string       `db:"email" json:"email"`
	Phone            *string      `db:"phone" json:"phone,omitempty"`
	BirthDate        time.Time    `db:"birth_date" json:"birth_date"`
	Address          *string      `db:"address" json:"address,omitempty"`
	Grade            string       `db:"grade" json:"grade"`
	Section          string       `db:"section" json:"section"`
	Gender           *string      `db:"gender" json:"gender,omitempty"`
	GuardianName     *string      `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianPhone    *string      `db:"guardian_phone" json:"guardian_phone,omitempty"`
	GuardianRelation *string      `db:"guardian_relation" json:"guardian_relation,omitempty"`
	State            StudentState `db:"state" json:"state"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last names for display.
func (s *Student) FullName() string {
	return s.FirstNames + " " + s.LastNames
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search  string
	Grade   string
	Section string
	State   StudentState
	Page    int
	Limit   int
}
