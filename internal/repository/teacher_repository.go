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

const teacherColumns = `id, code, first_names, last_names, email, phone, specialties, degree,
        hired_at, salary, state, created_at, updated_at`

// TeacherRepository handles persistence of teachers.
type TeacherRepository struct {
	db        *sqlx.DB
	sequences *SequenceRepository
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB, sequences *SequenceRepository) *TeacherRepository {
	return &TeacherRepository{db: db, sequences: sequences}
}

// List returns teachers filtered by the provided criteria.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_names ILIKE $%d OR last_names ILIKE $%d OR code ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Specialty != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(specialties)", len(args)+1))
		args = append(args, filter.Specialty)
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

	query := fmt.Sprintf(`SELECT %s FROM teachers%s ORDER BY last_names ASC, first_names ASC LIMIT %d OFFSET %d`,
		teacherColumns, clause, limit, offset)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM teachers" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID returns a teacher by its ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create persists a new teacher, generating its employee code inside the same
// transaction when none is supplied.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	if teacher.HiredAt.IsZero() {
		teacher.HiredAt = now
	}
	if teacher.State == "" {
		teacher.State = models.TeacherStateActive
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if teacher.Code == "" {
		next, err := r.sequences.Next(ctx, tx, "teacher")
		if err != nil {
			return err
		}
		teacher.Code = TeacherCode(next)
	}

	const query = `INSERT INTO teachers (id, code, first_names, last_names, email, phone, specialties, degree,
        hired_at, salary, state, created_at, updated_at)
        VALUES (:id, :code, :first_names, :last_names, :email, :phone, :specialties, :degree,
        :hired_at, :salary, :state, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return tx.Commit()
}

// Update persists mutable teacher fields.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET first_names = :first_names, last_names = :last_names, email = :email,
        phone = :phone, specialties = :specialties, degree = :degree, salary = :salary, state = :state,
        updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, teacher)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return requireRow(result)
}

// UpdateState transitions the teacher lifecycle state.
func (r *TeacherRepository) UpdateState(ctx context.Context, id string, state models.TeacherState) error {
	const query = `UPDATE teachers SET state = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update teacher state: %w", err)
	}
	return requireRow(result)
}
