package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, int, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	FinalScores(ctx context.Context, studentID, period string) ([]int, error)
}

var gradeConstraintFields = map[string]string{
	"grades_student_id_course_id_period_key": "student_id, course_id, period",
}

// CreateGradeRequest describes grade creation payload. Scores are optional
// and may be completed later through updates.
type CreateGradeRequest struct {
	StudentID        string   `json:"student_id" validate:"required,uuid"`
	CourseID         string   `json:"course_id" validate:"required,uuid"`
	EnrollmentLineID string   `json:"enrollment_line_id" validate:"required,uuid"`
	Period           string   `json:"period" validate:"required"`
	Partial1         *float64 `json:"partial1" validate:"omitempty,gte=0,lte=100"`
	Partial2         *float64 `json:"partial2" validate:"omitempty,gte=0,lte=100"`
	FinalExam        *float64 `json:"final_exam" validate:"omitempty,gte=0,lte=100"`
	Notes            *string  `json:"notes" validate:"omitempty,max=500"`
}

// UpdateGradeRequest describes grade update payload. Fields omitted from
// the payload keep their stored values.
type UpdateGradeRequest struct {
	Partial1  *float64 `json:"partial1" validate:"omitempty,gte=0,lte=100"`
	Partial2  *float64 `json:"partial2" validate:"omitempty,gte=0,lte=100"`
	FinalExam *float64 `json:"final_exam" validate:"omitempty,gte=0,lte=100"`
	Notes     *string  `json:"notes" validate:"omitempty,max=500"`
}

// GradeAverage summarizes a student's period average.
type GradeAverage struct {
	StudentID string `json:"student_id"`
	Period    string `json:"period"`
	Average   int    `json:"average"`
	Courses   int    `json:"courses"`
}

// GradeService orchestrates grade recording and final score derivation.
type GradeService struct {
	repo      gradeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeRepository, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, validator: validate, logger: logger}
}

// List returns grades with pagination metadata.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list grades")
	}
	return grades, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one grade record.
func (s *GradeService) Get(ctx context.Context, id string) (*models.Grade, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, internalError(err, "failed to load grade")
	}
	return grade, nil
}

// Create registers a grade record and derives the final score when all
// three partial scores are present.
func (s *GradeService) Create(ctx context.Context, req CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	if !models.IsAcademicPeriod(req.Period) {
		return nil, appErrors.Clone(appErrors.ErrValidation, req.Period+" is not a valid academic period")
	}

	grade := &models.Grade{
		StudentID:        req.StudentID,
		CourseID:         req.CourseID,
		EnrollmentLineID: req.EnrollmentLineID,
		Period:           req.Period,
		Partial1:         req.Partial1,
		Partial2:         req.Partial2,
		FinalExam:        req.FinalExam,
		Notes:            req.Notes,
	}
	deriveFinalScore(grade)

	if err := s.repo.Create(ctx, grade); err != nil {
		if dupErr := duplicateFieldError(err, gradeConstraintFields); dupErr != nil {
			return nil, dupErr
		}
		return nil, internalError(err, "failed to create grade")
	}
	return grade, nil
}

// Update merges the provided scores into an existing grade and re-derives
// the final score. Omitted fields are left untouched.
func (s *GradeService) Update(ctx context.Context, id string, req UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, internalError(err, "failed to load grade")
	}

	if req.Partial1 != nil {
		grade.Partial1 = req.Partial1
	}
	if req.Partial2 != nil {
		grade.Partial2 = req.Partial2
	}
	if req.FinalExam != nil {
		grade.FinalExam = req.FinalExam
	}
	if req.Notes != nil {
		grade.Notes = req.Notes
	}
	deriveFinalScore(grade)

	if err := s.repo.Update(ctx, grade); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, internalError(err, "failed to update grade")
	}
	return grade, nil
}

// Average returns the rounded mean of a student's final scores for a
// period. Students with no derived scores yet average zero.
func (s *GradeService) Average(ctx context.Context, studentID, period string) (*GradeAverage, error) {
	if !models.IsAcademicPeriod(period) {
		return nil, appErrors.Clone(appErrors.ErrValidation, period+" is not a valid academic period")
	}
	scores, err := s.repo.FinalScores(ctx, studentID, period)
	if err != nil {
		return nil, internalError(err, "failed to compute average")
	}

	avg := &GradeAverage{StudentID: studentID, Period: period, Courses: len(scores)}
	if len(scores) > 0 {
		sum := 0
		for _, score := range scores {
			sum += score
		}
		avg.Average = int(math.Round(float64(sum) / float64(len(scores))))
	}
	return avg, nil
}

// deriveFinalScore applies the weighted formula when every partial score
// is present, otherwise the record stays PENDING with no final score.
func deriveFinalScore(grade *models.Grade) {
	if grade.Partial1 == nil || grade.Partial2 == nil || grade.FinalExam == nil {
		grade.FinalScore = nil
		grade.Status = models.GradeStatusPending
		return
	}
	weighted := *grade.Partial1*models.GradeWeightPartial1 +
		*grade.Partial2*models.GradeWeightPartial2 +
		*grade.FinalExam*models.GradeWeightFinal
	score := int(math.Round(weighted))
	grade.FinalScore = &score
	if score >= models.GradePassingScore {
		grade.Status = models.GradeStatusPassed
	} else {
		grade.Status = models.GradeStatusFailed
	}
}
