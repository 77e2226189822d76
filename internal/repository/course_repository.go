package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/colegio-api/internal/models"
)

const courseColumns = `id, code, name, description, credits, weekly_hours, grade, area,
        prerequisites, state, created_at, updated_at`

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db        *sqlx.DB
	sequences *SequenceRepository
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB, sequences *SequenceRepository) *CourseRepository {
	return &CourseRepository{db: db, sequences: sequences}
}

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Area != "" {
		conditions = append(conditions, fmt.Sprintf("area = $%d", len(args)+1))
		args = append(args, filter.Area)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT %s FROM courses%s ORDER BY area ASC, name ASC LIMIT %d OFFSET %d`,
		courseColumns, clause, limit, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM courses" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course. When no code is supplied one is generated
// from the per-area sequence inside the same transaction.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	if course.State == "" {
		course.State = models.CourseStateActive
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if course.Code == "" {
		next, err := r.sequences.Next(ctx, tx, "course:"+course.Area)
		if err != nil {
			return err
		}
		course.Code = CourseCode(course.Area, next)
	} else {
		course.Code = strings.ToUpper(course.Code)
	}

	const query = `INSERT INTO courses (id, code, name, description, credits, weekly_hours, grade, area,
        prerequisites, state, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :credits, :weekly_hours, :grade, :area,
        :prerequisites, :state, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return tx.Commit()
}

// Update persists mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, description = :description, credits = :credits,
        weekly_hours = :weekly_hours, grade = :grade, area = :area, prerequisites = :prerequisites,
        state = :state, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return requireRow(result)
}

// UpdateState transitions the course lifecycle state.
func (r *CourseRepository) UpdateState(ctx context.Context, id string, state models.CourseState) error {
	const query = `UPDATE courses SET state = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update course state: %w", err)
	}
	return requireRow(result)
}
