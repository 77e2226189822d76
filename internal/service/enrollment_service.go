package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	"github.com/noah-isme/colegio-api/internal/repository"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
	"github.com/noah-isme/colegio-api/pkg/export"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListLines(ctx context.Context, enrollmentID string) ([]models.EnrollmentLineDetail, error)
	CreateWithLines(ctx context.Context, enrollment *models.Enrollment, lines []models.EnrollmentLine) error
	UpdateState(ctx context.Context, id string, state models.EnrollmentState) error
	UpdateLineState(ctx context.Context, enrollmentID, lineID string, state models.LineState) error
	DeleteCascade(ctx context.Context, id string) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type statsCache interface {
	Get(ctx context.Context, enrollmentID string) (*models.EnrollmentStats, bool)
	Set(ctx context.Context, enrollmentID string, stats *models.EnrollmentStats)
	Invalidate(ctx context.Context, enrollmentID string)
}

// ScheduleRequest describes the weekly slot of one course selection.
type ScheduleRequest struct {
	Days      []string `json:"days" validate:"required,min=1,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday"`
	StartTime string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string   `json:"end_time" validate:"required,datetime=15:04"`
}

// CourseSelection is one course+teacher+schedule choice in the request order.
type CourseSelection struct {
	CourseID  string          `json:"course_id" validate:"required"`
	TeacherID string          `json:"teacher_id" validate:"required"`
	Schedule  ScheduleRequest `json:"schedule" validate:"required"`
	Cost      float64         `json:"cost" validate:"gte=0"`
}

// CreateEnrollmentRequest describes the transactional enrollment payload.
type CreateEnrollmentRequest struct {
	StudentID      string            `json:"student_id" validate:"required"`
	AcademicPeriod string            `json:"academic_period" validate:"required"`
	Courses        []CourseSelection `json:"courses" validate:"required,min=1,dive"`
	Notes          *string           `json:"notes" validate:"omitempty,max=500"`
}

// UpdateEnrollmentStateRequest describes a state transition payload.
type UpdateEnrollmentStateRequest struct {
	State models.EnrollmentState `json:"state" validate:"required"`
}

// UpdateLineStateRequest describes a line state transition payload.
type UpdateLineStateRequest struct {
	State models.LineState `json:"state" validate:"required"`
}

// EnrollmentService coordinates the multi-entity enrollment transaction.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	courses   courseReader
	teachers  teacherReader
	cache     statsCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. Cache and metrics are
// optional.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, courses courseReader, teachers teacherReader, cache statsCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, teachers: teachers, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if filter.State != "" && !models.IsEnrollmentState(filter.State) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not a valid enrollment state", filter.State))
	}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list enrollments")
	}
	return enrollments, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one enrollment with its lines resolved.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, internalError(err, "failed to load enrollment")
	}
	return detail, nil
}

// Create runs the enrollment transaction: validates every referenced entity,
// builds the lines in request order accumulating totals, and persists parent
// plus lines atomically. On any failure nothing of the attempt remains.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	if !models.IsAcademicPeriod(req.AcademicPeriod) {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("%s is not a supported academic period", req.AcademicPeriod))
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrBusinessRule, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}
	if student.State != models.StudentStateActive {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("student %s is not active", student.Code))
	}

	lines := make([]models.EnrollmentLine, 0, len(req.Courses))
	totalCredits := 0
	totalCost := 0.0
	for _, selection := range req.Courses {
		course, err := s.courses.FindByID(ctx, selection.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("course %s not found", selection.CourseID))
			}
			return nil, internalError(err, "failed to load course")
		}
		if course.State != models.CourseStateActive {
			return nil, appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("course %s is not active", course.Name))
		}

		teacher, err := s.teachers.FindByID(ctx, selection.TeacherID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("teacher %s not found", selection.TeacherID))
			}
			return nil, internalError(err, "failed to load teacher")
		}
		if teacher.State != models.TeacherStateActive {
			return nil, appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("teacher %s is not active", teacher.FullName()))
		}

		lines = append(lines, models.EnrollmentLine{
			CourseID:  course.ID,
			TeacherID: teacher.ID,
			Days:      selection.Schedule.Days,
			StartTime: selection.Schedule.StartTime,
			EndTime:   selection.Schedule.EndTime,
			Credits:   course.Credits,
			Cost:      selection.Cost,
			State:     models.LineStateEnrolled,
		})
		totalCredits += course.Credits
		totalCost += selection.Cost
	}

	enrollment := &models.Enrollment{
		StudentID:      req.StudentID,
		AcademicPeriod: req.AcademicPeriod,
		State:          models.EnrollmentStateActive,
		TotalCredits:   totalCredits,
		TotalCost:      totalCost,
		Notes:          req.Notes,
	}

	if err := s.repo.CreateWithLines(ctx, enrollment, lines); err != nil {
		s.observeTx("aborted")
		switch {
		case errors.Is(err, repository.ErrDuplicateActiveEnrollment):
			return nil, appErrors.Clone(appErrors.ErrBusinessRule, "student already has an active enrollment for this period")
		case errors.Is(err, repository.ErrDuplicateLineCourse):
			return nil, appErrors.Clone(appErrors.ErrBusinessRule, "a course appears more than once in the enrollment")
		}
		s.logger.Error("enrollment transaction aborted",
			zap.String("student_id", req.StudentID),
			zap.String("period", req.AcademicPeriod),
			zap.Error(err))
		return nil, internalError(err, "failed to create enrollment")
	}
	s.observeTx("committed")

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, internalError(err, "failed to load enrollment detail")
	}
	return detail, nil
}

// UpdateState transitions the enrollment to one of the four lifecycle states.
func (s *EnrollmentService) UpdateState(ctx context.Context, id string, req UpdateEnrollmentStateRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid state payload")
	}
	if !models.IsEnrollmentState(req.State) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not a valid enrollment state", req.State))
	}
	if err := s.repo.UpdateState(ctx, id, req.State); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, internalError(err, "failed to update enrollment state")
	}
	s.invalidateStats(ctx, id)
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to load enrollment detail")
	}
	return detail, nil
}

// UpdateLineState transitions one course registration within the enrollment.
func (s *EnrollmentService) UpdateLineState(ctx context.Context, enrollmentID, lineID string, req UpdateLineStateRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid state payload")
	}
	if !models.IsLineState(req.State) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not a valid line state", req.State))
	}
	if err := s.repo.UpdateLineState(ctx, enrollmentID, lineID, req.State); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment line not found")
		}
		return nil, internalError(err, "failed to update enrollment line state")
	}
	s.invalidateStats(ctx, enrollmentID)
	detail, err := s.repo.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		return nil, internalError(err, "failed to load enrollment detail")
	}
	return detail, nil
}

// Delete removes the enrollment and all its lines atomically.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return internalError(err, "failed to delete enrollment")
	}
	s.invalidateStats(ctx, id)
	return nil
}

// Stats summarises the enrollment's lines by state and area alongside the
// stored totals.
func (s *EnrollmentService) Stats(ctx context.Context, id string) (*models.EnrollmentStats, error) {
	if s.cache != nil {
		if stats, ok := s.cache.Get(ctx, id); ok {
			return stats, nil
		}
	}

	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, internalError(err, "failed to load enrollment")
	}

	lines, err := s.repo.ListLines(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to load enrollment lines")
	}

	stats := &models.EnrollmentStats{
		TotalCourses: len(lines),
		TotalCredits: enrollment.TotalCredits,
		TotalCost:    enrollment.TotalCost,
		ByArea:       make(map[string]models.AreaStats),
	}
	for _, line := range lines {
		switch line.State {
		case models.LineStateEnrolled:
			stats.Enrolled++
		case models.LineStateWithdrawn:
			stats.Withdrawn++
		}
		area := stats.ByArea[line.CourseArea]
		area.Courses++
		area.Credits += line.Credits
		stats.ByArea[line.CourseArea] = area
	}

	if s.cache != nil {
		s.cache.Set(ctx, id, stats)
	}
	return stats, nil
}

func (s *EnrollmentService) observeTx(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveEnrollmentTx(outcome)
	}
}

func (s *EnrollmentService) invalidateStats(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

// Certificate renders a printable PDF proof of enrollment.
func (s *EnrollmentService) Certificate(ctx context.Context, id string) ([]byte, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cert := export.Certificate{
		Title: "Comprobante de Matricula",
		Fields: []export.Field{
			{Label: "Numero", Value: detail.Number},
			{Label: "Estudiante", Value: fmt.Sprintf("%s (%s)", detail.StudentName, detail.StudentCode)},
			{Label: "Periodo", Value: detail.AcademicPeriod},
			{Label: "Fecha", Value: detail.EnrolledAt.Format("2006-01-02")},
			{Label: "Estado", Value: string(detail.State)},
			{Label: "Creditos", Value: strconv.Itoa(detail.TotalCredits)},
			{Label: "Costo total", Value: fmt.Sprintf("%.2f", detail.TotalCost)},
		},
		Table: export.Dataset{
			Headers: []string{"Codigo", "Curso", "Docente", "Horario", "Creditos", "Estado"},
		},
		Footer: "Documento generado automaticamente",
	}
	for _, line := range detail.Lines {
		schedule := fmt.Sprintf("%s %s-%s", strings.Join(line.Days, ", "), line.StartTime, line.EndTime)
		cert.Table.Rows = append(cert.Table.Rows, map[string]string{
			"Codigo":   line.CourseCode,
			"Curso":    line.CourseName,
			"Docente":  line.TeacherName,
			"Horario":  schedule,
			"Creditos": strconv.Itoa(line.Credits),
			"Estado":   string(line.State),
		})
	}

	pdfBytes, err := export.NewPDFExporter().Render(cert)
	if err != nil {
		return nil, internalError(err, "failed to render enrollment certificate")
	}
	return pdfBytes, nil
}
