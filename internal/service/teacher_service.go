package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	UpdateState(ctx context.Context, id string, state models.TeacherState) error
}

var teacherConstraintFields = map[string]string{
	"teachers_code_key":  "code",
	"teachers_email_key": "email",
}

// CreateTeacherRequest describes teacher creation payload.
type CreateTeacherRequest struct {
	FirstNames  string   `json:"first_names" validate:"required,min=2,max=100"`
	LastNames   string   `json:"last_names" validate:"required,min=2,max=100"`
	Email       string   `json:"email" validate:"required,email"`
	Phone       string   `json:"phone" validate:"required,numeric,min=8,max=10"`
	Specialties []string `json:"specialties" validate:"required,min=1"`
	Degree      string   `json:"degree" validate:"required,max=150"`
	Salary      float64  `json:"salary" validate:"gte=0"`
}

// UpdateTeacherRequest describes teacher update payload.
type UpdateTeacherRequest struct {
	FirstNames  string              `json:"first_names" validate:"required,min=2,max=100"`
	LastNames   string              `json:"last_names" validate:"required,min=2,max=100"`
	Email       string              `json:"email" validate:"required,email"`
	Phone       string              `json:"phone" validate:"required,numeric,min=8,max=10"`
	Specialties []string            `json:"specialties" validate:"required,min=1"`
	Degree      string              `json:"degree" validate:"required,max=150"`
	Salary      float64             `json:"salary" validate:"gte=0"`
	State       models.TeacherState `json:"state" validate:"required,oneof=ACTIVE INACTIVE ON_LEAVE ON_VACATION"`
}

// TeacherService orchestrates teacher CRUD workflows.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list teachers")
	}
	return teachers, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, internalError(err, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher; the employee code is generated on save.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	if err := validateSpecialties(req.Specialties); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		FirstNames:  req.FirstNames,
		LastNames:   req.LastNames,
		Email:       req.Email,
		Phone:       req.Phone,
		Specialties: req.Specialties,
		Degree:      req.Degree,
		Salary:      req.Salary,
		State:       models.TeacherStateActive,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		if dupErr := duplicateFieldError(err, teacherConstraintFields); dupErr != nil {
			return nil, dupErr
		}
		return nil, internalError(err, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	if err := validateSpecialties(req.Specialties); err != nil {
		return nil, err
	}
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, internalError(err, "failed to load teacher")
	}

	teacher.FirstNames = req.FirstNames
	teacher.LastNames = req.LastNames
	teacher.Email = req.Email
	teacher.Phone = req.Phone
	teacher.Specialties = req.Specialties
	teacher.Degree = req.Degree
	teacher.Salary = req.Salary
	teacher.State = req.State

	if err := s.repo.Update(ctx, teacher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		if dupErr := duplicateFieldError(err, teacherConstraintFields); dupErr != nil {
			return nil, dupErr
		}
		return nil, internalError(err, "failed to update teacher")
	}
	return teacher, nil
}

// Delete soft-deletes a teacher by marking it INACTIVE.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.repo.UpdateState(ctx, id, models.TeacherStateInactive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return internalError(err, "failed to deactivate teacher")
	}
	return nil
}

func validateSpecialties(specialties []string) error {
	valid := make(map[string]struct{}, len(models.Specialties))
	for _, specialty := range models.Specialties {
		valid[specialty] = struct{}{}
	}
	for _, specialty := range specialties {
		if _, ok := valid[specialty]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, specialty+" is not a valid specialty")
		}
	}
	return nil
}
