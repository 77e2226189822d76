package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	Create(ctx context.Context, record *models.Attendance) error
	Update(ctx context.Context, record *models.Attendance) error
	Counts(ctx context.Context, studentID, courseID, period string) (int, int, error)
	ListByDate(ctx context.Context, courseID string, date time.Time) ([]models.Attendance, error)
}

var attendanceConstraintFields = map[string]string{
	"attendance_student_id_course_id_date_key": "student_id, course_id, date",
}

// CreateAttendanceRequest describes attendance registration payload.
type CreateAttendanceRequest struct {
	StudentID        string                  `json:"student_id" validate:"required,uuid"`
	CourseID         string                  `json:"course_id" validate:"required,uuid"`
	EnrollmentLineID string                  `json:"enrollment_line_id" validate:"required,uuid"`
	Date             string                  `json:"date" validate:"required,datetime=2006-01-02"`
	Status           models.AttendanceStatus `json:"status" validate:"required"`
	EntryTime        *string                 `json:"entry_time" validate:"omitempty,datetime=15:04"`
	Notes            *string                 `json:"notes" validate:"omitempty,max=500"`
	Period           string                  `json:"period" validate:"required"`
}

// UpdateAttendanceRequest describes attendance correction payload.
type UpdateAttendanceRequest struct {
	Status    models.AttendanceStatus `json:"status" validate:"required"`
	EntryTime *string                 `json:"entry_time" validate:"omitempty,datetime=15:04"`
	Notes     *string                 `json:"notes" validate:"omitempty,max=500"`
}

// AttendancePercentage summarizes attendance for a student in a course.
type AttendancePercentage struct {
	StudentID  string `json:"student_id"`
	CourseID   string `json:"course_id"`
	Period     string `json:"period"`
	Present    int    `json:"present"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// AttendanceSummary totals a day's records per status.
type AttendanceSummary struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
}

// AttendanceReport lists a course's records for one date with the
// per-status summary.
type AttendanceReport struct {
	CourseID string              `json:"course_id"`
	Date     string              `json:"date"`
	Summary  AttendanceSummary   `json:"summary"`
	Records  []models.Attendance `json:"records"`
}

// AttendanceService orchestrates attendance registration.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// List returns attendance records with pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list attendance")
	}
	return records, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one attendance record.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.Attendance, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, internalError(err, "failed to load attendance record")
	}
	return record, nil
}

// Create registers an attendance record. Future dates are rejected.
func (s *AttendanceService) Create(ctx context.Context, req CreateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	if !models.IsAttendanceStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, string(req.Status)+" is not a valid attendance status")
	}
	if !models.IsAcademicPeriod(req.Period) {
		return nil, appErrors.Clone(appErrors.ErrValidation, req.Period+" is not a valid academic period")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use the YYYY-MM-DD format")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if date.After(today) {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "attendance cannot be registered for a future date")
	}

	record := &models.Attendance{
		StudentID:        req.StudentID,
		CourseID:         req.CourseID,
		EnrollmentLineID: req.EnrollmentLineID,
		Date:             date,
		Status:           req.Status,
		EntryTime:        req.EntryTime,
		Notes:            req.Notes,
		Period:           req.Period,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if dupErr := duplicateFieldError(err, attendanceConstraintFields); dupErr != nil {
			return nil, dupErr
		}
		return nil, internalError(err, "failed to create attendance record")
	}
	return record, nil
}

// Update corrects the status of an existing attendance record.
func (s *AttendanceService) Update(ctx context.Context, id string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	if !models.IsAttendanceStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, string(req.Status)+" is not a valid attendance status")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, internalError(err, "failed to load attendance record")
	}

	record.Status = req.Status
	record.EntryTime = req.EntryTime
	record.Notes = req.Notes

	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, internalError(err, "failed to update attendance record")
	}
	return record, nil
}

// Report returns a course's attendance for one date together with the
// per-status totals.
func (s *AttendanceService) Report(ctx context.Context, courseID, rawDate string) (*AttendanceReport, error) {
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use the YYYY-MM-DD format")
	}

	records, err := s.repo.ListByDate(ctx, courseID, date)
	if err != nil {
		return nil, internalError(err, "failed to build attendance report")
	}

	report := &AttendanceReport{CourseID: courseID, Date: rawDate, Records: records}
	report.Summary.Total = len(records)
	for _, record := range records {
		switch record.Status {
		case models.AttendancePresent:
			report.Summary.Present++
		case models.AttendanceAbsent:
			report.Summary.Absent++
		case models.AttendanceLate:
			report.Summary.Late++
		case models.AttendanceExcused:
			report.Summary.Excused++
		}
	}
	return report, nil
}

// Percentage returns the attendance percentage for a student in a course.
// PRESENT and LATE both count as attended. No records yields zero percent.
func (s *AttendanceService) Percentage(ctx context.Context, studentID, courseID, period string) (*AttendancePercentage, error) {
	if !models.IsAcademicPeriod(period) {
		return nil, appErrors.Clone(appErrors.ErrValidation, period+" is not a valid academic period")
	}
	present, total, err := s.repo.Counts(ctx, studentID, courseID, period)
	if err != nil {
		return nil, internalError(err, "failed to compute attendance percentage")
	}

	pct := &AttendancePercentage{StudentID: studentID, CourseID: courseID, Period: period, Present: present, Total: total}
	if total > 0 {
		pct.Percentage = int(math.Round(100 * float64(present) / float64(total)))
	}
	return pct, nil
}
