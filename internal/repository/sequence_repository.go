package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SequenceRepository hands out display-code sequence values. The increment is
// a single statement, so a value is only consumed when the surrounding
// transaction commits.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next returns the next value for the named sequence. The query runs against
// q, which may be a transaction so the counter advances atomically with the
// insert that uses it.
func (r *SequenceRepository) Next(ctx context.Context, q sqlx.ExtContext, name string) (int, error) {
	if q == nil {
		q = r.db
	}
	const query = `INSERT INTO sequences (name, value) VALUES ($1, 1)
        ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
        RETURNING value`
	var next int
	if err := sqlx.GetContext(ctx, q, &next, query, name); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return next, nil
}

// StudentCode formats a student display code.
func StudentCode(n int) string {
	return fmt.Sprintf("EST-%06d", n)
}

// TeacherCode formats a teacher employee code.
func TeacherCode(n int) string {
	return fmt.Sprintf("PROF-%04d", n)
}

// CourseCode formats a course code scoped by curricular area.
func CourseCode(area string, n int) string {
	prefix := strings.ToUpper(area)
	prefix = strings.ReplaceAll(prefix, " ", "")
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// EnrollmentNumber formats an enrollment number scoped by year.
func EnrollmentNumber(year, n int) string {
	return fmt.Sprintf("MAT-%d-%06d", year, n)
}
