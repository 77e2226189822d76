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

const studentColumns = `id, code, first_names, last_names, email, phone, birth_date, address,
        grade, section, gender, guardian_name, guardian_phone, guardian_relation, state, created_at, updated_at`

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db        *sqlx.DB
	sequences *SequenceRepository
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB, sequences *SequenceRepository) *StudentRepository {
	return &StudentRepository{db: db, sequences: sequences}
}

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_names ILIKE $%d OR last_names ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Section != "" {
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(args)+1))
		args = append(args, filter.Section)
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

	query := fmt.Sprintf(`SELECT %s FROM students%s ORDER BY last_names ASC, first_names ASC LIMIT %d OFFSET %d`,
		studentColumns, clause, limit, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM students" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student, generating its display code inside the same
// transaction when none is supplied.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	if student.State == "" {
		student.State = models.StudentStateActive
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if student.Code == "" {
		next, err := r.sequences.Next(ctx, tx, "student")
		if err != nil {
			return err
		}
		student.Code = StudentCode(next)
	}

	const query = `INSERT INTO students (id, code, first_names, last_names, email, phone, birth_date, address,
        grade, section, gender, guardian_name, guardian_phone, guardian_relation, state, created_at, updated_at)
        VALUES (:id, :code, :first_names, :last_names, :email, :phone, :birth_date, :address,
        :grade, :section, :gender, :guardian_name, :guardian_phone, :guardian_relation, :state, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return tx.Commit()
}

// Update persists mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_names = :first_names, last_names = :last_names, email = :email,
        phone = :phone, birth_date = :birth_date, address = :address, grade = :grade, section = :section,
        gender = :gender, guardian_name = :guardian_name, guardian_phone = :guardian_phone,
        guardian_relation = :guardian_relation, state = :state, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireRow(result)
}

// UpdateState transitions the student lifecycle state.
func (r *StudentRepository) UpdateState(ctx context.Context, id string, state models.StudentState) error {
	const query = `UPDATE students SET state = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student state: %w", err)
	}
	return requireRow(result)
}
