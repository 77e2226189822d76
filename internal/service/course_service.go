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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	UpdateState(ctx context.Context, id string, state models.CourseState) error
}

var courseConstraintFields = map[string]string{
	"courses_code_key": "code",
}

// CreateCourseRequest describes course creation payload.
type CreateCourseRequest struct {
	Code          string   `json:"code" validate:"omitempty,max=20"`
	Name          string   `json:"name" validate:"required,min=3,max=150"`
	Description   *string  `json:"description" validate:"omitempty,max=500"`
	Credits       int      `json:"credits" validate:"required,min=1,max=6"`
	WeeklyHours   int      `json:"weekly_hours" validate:"required,min=1,max=10"`
	Grade         string   `json:"grade" validate:"required,oneof=1ro 2do 3ro 4to 5to 6to"`
	Area          string   `json:"area" validate:"required"`
	Prerequisites []string `json:"prerequisites" validate:"omitempty,dive,uuid"`
}

// UpdateCourseRequest describes course update payload.
type UpdateCourseRequest struct {
	Name          string             `json:"name" validate:"required,min=3,max=150"`
	Description   *string            `json:"description" validate:"omitempty,max=500"`
	Credits       int                `json:"credits" validate:"required,min=1,max=6"`
	WeeklyHours   int                `json:"weekly_hours" validate:"required,min=1,max=10"`
	Grade         string             `json:"grade" validate:"required,oneof=1ro 2do 3ro 4to 5to 6to"`
	Area          string             `json:"area" validate:"required"`
	Prerequisites []string           `json:"prerequisites" validate:"omitempty,dive,uuid"`
	State         models.CourseState `json:"state" validate:"required,oneof=ACTIVE INACTIVE"`
}

// CourseService orchestrates course CRUD workflows.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list courses")
	}
	return courses, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, internalError(err, "failed to load course")
	}
	return course, nil
}

// Create registers a new course. When no code is supplied one is generated
// from the per-area sequence.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	if !isCourseArea(req.Area) {
		return nil, appErrors.Clone(appErrors.ErrValidation, req.Area+" is not a valid area")
	}

	course := &models.Course{
		Code:          req.Code,
		Name:          req.Name,
		Description:   req.Description,
		Credits:       req.Credits,
		WeeklyHours:   req.WeeklyHours,
		Grade:         req.Grade,
		Area:          req.Area,
		Prerequisites: req.Prerequisites,
		State:         models.CourseStateActive,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if dupErr := duplicateFieldError(err, courseConstraintFields); dupErr != nil {
			return nil, dupErr
		}
		return nil, internalError(err, "failed to create course")
	}
	return course, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	if !isCourseArea(req.Area) {
		return nil, appErrors.Clone(appErrors.ErrValidation, req.Area+" is not a valid area")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, internalError(err, "failed to load course")
	}

	course.Name = req.Name
	course.Description = req.Description
	course.Credits = req.Credits
	course.WeeklyHours = req.WeeklyHours
	course.Grade = req.Grade
	course.Area = req.Area
	course.Prerequisites = req.Prerequisites
	course.State = req.State

	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		if dupErr := duplicateFieldError(err, courseConstraintFields); dupErr != nil {
			return nil, dupErr
		}
		return nil, internalError(err, "failed to update course")
	}
	return course, nil
}

// Delete soft-deletes a course by marking it INACTIVE.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.UpdateState(ctx, id, models.CourseStateInactive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return internalError(err, "failed to deactivate course")
	}
	return nil
}

func isCourseArea(area string) bool {
	for _, a := range models.CourseAreas {
		if a == area {
			return true
		}
	}
	return false
}
