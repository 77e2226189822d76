package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/colegio-api/internal/models"
)

// Sentinel errors surfaced by the enrollment transaction.
var (
	ErrDuplicateActiveEnrollment = errors.New("student already has an active enrollment for this period")
	ErrDuplicateLineCourse       = errors.New("course already registered in this enrollment")
)

const (
	activeEnrollmentConstraint = "enrollments_active_per_period_idx"
	lineCourseConstraint       = "enrollment_lines_enrollment_id_course_id_key"
)

const enrollmentColumns = `id, number, student_id, academic_period, enrolled_at, state,
        total_credits, total_cost, notes, created_at, updated_at`

const lineColumns = `id, enrollment_id, course_id, teacher_id, days, start_time, end_time,
        credits, cost, state, created_at, updated_at`

// EnrollmentRepository handles persistence of enrollments and their lines.
type EnrollmentRepository struct {
	db        *sqlx.DB
	sequences *SequenceRepository
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB, sequences *SequenceRepository) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, sequences: sequences}
}

// List returns enrollments with student context, filtered and paginated.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN students s ON s.id = e.student_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("e.academic_period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("e.state = $%d", len(args)+1))
		args = append(args, filter.State)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT e.id, e.number, e.student_id, e.academic_period, e.enrolled_at, e.state,
        e.total_credits, e.total_cost, e.notes, e.created_at, e.updated_at,
        s.code AS student_code, s.first_names || ' ' || s.last_names AS student_name
        %s ORDER BY e.enrolled_at DESC LIMIT %d OFFSET %d`, base+clause, limit, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student context and its lines.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.number, e.student_id, e.academic_period, e.enrolled_at, e.state,
        e.total_credits, e.total_cost, e.notes, e.created_at, e.updated_at,
        s.code AS student_code, s.first_names || ' ' || s.last_names AS student_name
        FROM enrollments e
        LEFT JOIN students s ON s.id = e.student_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	lines, err := r.ListLines(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Lines = lines
	return &detail, nil
}

// ListLines returns the lines of an enrollment with course and teacher info.
func (r *EnrollmentRepository) ListLines(ctx context.Context, enrollmentID string) ([]models.EnrollmentLineDetail, error) {
	const query = `SELECT l.id, l.enrollment_id, l.course_id, l.teacher_id, l.days, l.start_time, l.end_time,
        l.credits, l.cost, l.state, l.created_at, l.updated_at,
        c.code AS course_code, c.name AS course_name, c.area AS course_area,
        t.first_names || ' ' || t.last_names AS teacher_name
        FROM enrollment_lines l
        LEFT JOIN courses c ON c.id = l.course_id
        LEFT JOIN teachers t ON t.id = l.teacher_id
        WHERE l.enrollment_id = $1
        ORDER BY l.created_at ASC`
	var lines []models.EnrollmentLineDetail
	if err := r.db.SelectContext(ctx, &lines, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment lines: %w", err)
	}
	return lines, nil
}

// existsActive checks for an ACTIVE enrollment of the student in the period.
// It runs against q so the check shares the creating transaction.
func (r *EnrollmentRepository) existsActive(ctx context.Context, q sqlx.ExtContext, studentID, period string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND academic_period = $2 AND state = $3 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, q, &exists, query, studentID, period, models.EnrollmentStateActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// CreateWithLines persists the enrollment and all its lines as one
// transaction. The enrollment number is taken from the per-year sequence and
// the duplicate-active check runs inside the same transaction; a partial
// unique index backs it up at the storage layer. Either everything commits or
// nothing does.
func (r *EnrollmentRepository) CreateWithLines(ctx context.Context, enrollment *models.Enrollment, lines []models.EnrollmentLine) error {
	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	if enrollment.State == "" {
		enrollment.State = models.EnrollmentStateActive
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	exists, err := r.existsActive(ctx, tx, enrollment.StudentID, enrollment.AcademicPeriod)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateActiveEnrollment
	}

	if enrollment.Number == "" {
		year := enrollment.EnrolledAt.Year()
		next, err := r.sequences.Next(ctx, tx, fmt.Sprintf("enrollment:%d", year))
		if err != nil {
			return err
		}
		enrollment.Number = EnrollmentNumber(year, next)
	}

	const insertEnrollment = `INSERT INTO enrollments (id, number, student_id, academic_period, enrolled_at, state,
        total_credits, total_cost, notes, created_at, updated_at)
        VALUES (:id, :number, :student_id, :academic_period, :enrolled_at, :state,
        :total_credits, :total_cost, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertEnrollment, enrollment); err != nil {
		return mapEnrollmentError(err, "create enrollment")
	}

	const insertLine = `INSERT INTO enrollment_lines (id, enrollment_id, course_id, teacher_id, days, start_time, end_time,
        credits, cost, state, created_at, updated_at)
        VALUES (:id, :enrollment_id, :course_id, :teacher_id, :days, :start_time, :end_time,
        :credits, :cost, :state, :created_at, :updated_at)`
	for i := range lines {
		line := &lines[i]
		if line.ID == "" {
			line.ID = uuid.NewString()
		}
		line.EnrollmentID = enrollment.ID
		if line.State == "" {
			line.State = models.LineStateEnrolled
		}
		line.CreatedAt = now
		line.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertLine, line); err != nil {
			return mapEnrollmentError(err, "create enrollment line")
		}
	}

	return tx.Commit()
}

// UpdateState transitions the enrollment lifecycle state.
func (r *EnrollmentRepository) UpdateState(ctx context.Context, id string, state models.EnrollmentState) error {
	const query = `UPDATE enrollments SET state = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update enrollment state: %w", err)
	}
	return requireRow(result)
}

// UpdateLineState transitions one line of an enrollment.
func (r *EnrollmentRepository) UpdateLineState(ctx context.Context, enrollmentID, lineID string, state models.LineState) error {
	const query = `UPDATE enrollment_lines SET state = $3, updated_at = $4 WHERE id = $2 AND enrollment_id = $1`
	result, err := r.db.ExecContext(ctx, query, enrollmentID, lineID, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update enrollment line state: %w", err)
	}
	return requireRow(result)
}

// DeleteCascade removes the lines and then the parent in one transaction. A
// missing parent aborts the transaction so the line deletions are undone.
func (r *EnrollmentRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollment_lines WHERE enrollment_id = $1`, id); err != nil {
		return fmt.Errorf("delete enrollment lines: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	return tx.Commit()
}

// mapEnrollmentError translates storage-level uniqueness violations into the
// repository sentinels.
func mapEnrollmentError(err error, op string) error {
	if constraint, ok := UniqueViolation(err); ok {
		switch constraint {
		case activeEnrollmentConstraint:
			return ErrDuplicateActiveEnrollment
		case lineCourseConstraint:
			return ErrDuplicateLineCourse
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
