package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateState(ctx context.Context, id string, state models.StudentState) error
}

var studentConstraintFields = map[string]string{
	"students_code_key": "code",
}

// CreateStudentRequest describes student creation payload.
type CreateStudentRequest struct {
	FirstNames       string  `json:"first_names" validate:"required,min=2,max=100"`
	LastNames        string  `json:"last_names" validate:"required,min=2,max=100"`
	Email            string  `json:"email" validate:"required,email"`
	Phone            *string `json:"phone" validate:"omitempty,numeric,min=8,max=10"`
	BirthDate        string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Address          *string `json:"address" validate:"omitempty,max=200"`
	Grade            string  `json:"grade" validate:"required,oneof=1ro 2do 3ro 4to 5to 6to"`
	Section          string  `json:"section" validate:"required,oneof=A B C D"`
	Gender           *string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	GuardianName     *string `json:"guardian_name" validate:"omitempty,max=100"`
	GuardianPhone    *string `json:"guardian_phone" validate:"omitempty,numeric,min=8,max=10"`
	GuardianRelation *string `json:"guardian_relation" validate:"omitempty,oneof=Father Mother Guardian Other"`
}

// UpdateStudentRequest describes student update payload.
type UpdateStudentRequest struct {
	FirstNames       string              `json:"first_names" validate:"required,min=2,max=100"`
	LastNames        string              `json:"last_names" validate:"required,min=2,max=100"`
	Email            string              `json:"email" validate:"required,email"`
	Phone            *string             `json:"phone" validate:"omitempty,numeric,min=8,max=10"`
	Address          *string             `json:"address" validate:"omitempty,max=200"`
	Grade            string              `json:"grade" validate:"required,oneof=1ro 2do 3ro 4to 5to 6to"`
	Section          string              `json:"section" validate:"required,oneof=A B C D"`
	Gender           *string             `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	GuardianName     *string             `json:"guardian_name" validate:"omitempty,max=100"`
	GuardianPhone    *string             `json:"guardian_phone" validate:"omitempty,numeric,min=8,max=10"`
	GuardianRelation *string             `json:"guardian_relation" validate:"omitempty,oneof=Father Mother Guardian Other"`
	State            models.StudentState `json:"state" validate:"required,oneof=ACTIVE INACTIVE SUSPENDED GRADUATED"`
}

// StudentService orchestrates student CRUD workflows.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new student; the display code is generated on save.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid birth date")
	}
	if !birthDate.Before(time.Now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birth date must be in the past")
	}

	student := &models.Student{
		FirstNames:       req.FirstNames,
		LastNames:        req.LastNames,
		Email:            req.Email,
		Phone:            req.Phone,
		BirthDate:        birthDate,
		Address:          req.Address,
		Grade:            req.Grade,
		Section:          req.Section,
		Gender:           req.Gender,
		GuardianName:     req.GuardianName,
		GuardianPhone:    req.GuardianPhone,
		GuardianRelation: req.GuardianRelation,
		State:            models.StudentStateActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if dupErr := duplicateFieldError(err, studentConstraintFields); dupErr != nil {
			return nil, dupErr
		}
		return nil, internalError(err, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}

	student.FirstNames = req.FirstNames
	student.LastNames = req.LastNames
	student.Email = req.Email
	student.Phone = req.Phone
	student.Address = req.Address
	student.Grade = req.Grade
	student.Section = req.Section
	student.Gender = req.Gender
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.GuardianRelation = req.GuardianRelation
	student.State = req.State

	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		if dupErr := duplicateFieldError(err, studentConstraintFields); dupErr != nil {
			return nil, dupErr
		}
		return nil, internalError(err, "failed to update student")
	}
	return student, nil
}

// Delete soft-deletes a student by marking it INACTIVE.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.UpdateState(ctx, id, models.StudentStateInactive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return internalError(err, "failed to deactivate student")
	}
	return nil
}
