package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records []models.Attendance
	record  *models.Attendance
	present int
	total   int
	created *models.Attendance
	updated *models.Attendance
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	return m.records, len(m.records), nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	if m.record == nil {
		return nil, sql.ErrNoRows
	}
	return m.record, nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.Attendance) error {
	m.created = record
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.Attendance) error {
	m.updated = record
	return nil
}

func (m *mockAttendanceRepo) Counts(ctx context.Context, studentID, courseID, period string) (int, int, error) {
	return m.present, m.total, nil
}

func (m *mockAttendanceRepo) ListByDate(ctx context.Context, courseID string, date time.Time) ([]models.Attendance, error) {
	return m.records, nil
}

func attendanceRequest(date string, status models.AttendanceStatus) CreateAttendanceRequest {
	return CreateAttendanceRequest{
		StudentID:        "8d7c9a1e-0f4b-4f6a-9c3d-2b1a5e8f7c6d",
		CourseID:         "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d",
		EnrollmentLineID: "9f8e7d6c-5b4a-4c3d-8e2f-1a0b9c8d7e6f",
		Date:             date,
		Status:           status,
		Period:           "2025-II",
	}
}

func frozenAttendanceService(repo *mockAttendanceRepo, today string) *AttendanceService {
	svc := NewAttendanceService(repo, nil, zap.NewNop())
	now, _ := time.Parse("2006-01-02", today)
	svc.now = func() time.Time { return now }
	return svc
}

func TestAttendanceCreateAcceptsToday(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := frozenAttendanceService(repo, "2025-09-15")

	record, err := svc.Create(context.Background(), attendanceRequest("2025-09-15", models.AttendancePresent))
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Equal(t, repo.created, record)
}

func TestAttendanceCreateRejectsFutureDate(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := frozenAttendanceService(repo, "2025-09-15")

	_, err := svc.Create(context.Background(), attendanceRequest("2025-09-16", models.AttendanceAbsent))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Nil(t, repo.created)
}

func TestAttendanceCreateRejectsUnknownStatus(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := frozenAttendanceService(repo, "2025-09-15")

	_, err := svc.Create(context.Background(), attendanceRequest("2025-09-15", "SLEEPING"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestAttendanceUpdateCorrectsStatus(t *testing.T) {
	repo := &mockAttendanceRepo{record: &models.Attendance{ID: "att-1", Status: models.AttendanceAbsent}}
	svc := frozenAttendanceService(repo, "2025-09-15")

	record, err := svc.Update(context.Background(), "att-1", UpdateAttendanceRequest{Status: models.AttendanceExcused})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceExcused, record.Status)
	assert.Equal(t, repo.updated, record)
}

func TestAttendancePercentageCountsLateAsPresent(t *testing.T) {
	svc := frozenAttendanceService(&mockAttendanceRepo{present: 8, total: 10}, "2025-09-15")

	pct, err := svc.Percentage(context.Background(), "stu-1", "crs-1", "2025-II")
	require.NoError(t, err)
	assert.Equal(t, 80, pct.Percentage)
	assert.Equal(t, 8, pct.Present)
	assert.Equal(t, 10, pct.Total)
}

func TestAttendancePercentageWithoutRecordsIsZero(t *testing.T) {
	svc := frozenAttendanceService(&mockAttendanceRepo{}, "2025-09-15")

	pct, err := svc.Percentage(context.Background(), "stu-1", "crs-1", "2025-II")
	require.NoError(t, err)
	assert.Zero(t, pct.Percentage)
}

func TestAttendanceReportSummarisesStatuses(t *testing.T) {
	repo := &mockAttendanceRepo{records: []models.Attendance{
		{ID: "att-1", Status: models.AttendancePresent},
		{ID: "att-2", Status: models.AttendancePresent},
		{ID: "att-3", Status: models.AttendanceAbsent},
		{ID: "att-4", Status: models.AttendanceLate},
		{ID: "att-5", Status: models.AttendanceExcused},
	}}
	svc := frozenAttendanceService(repo, "2025-09-15")

	report, err := svc.Report(context.Background(), "crs-1", "2025-09-12")
	require.NoError(t, err)

	assert.Equal(t, "crs-1", report.CourseID)
	assert.Equal(t, "2025-09-12", report.Date)
	assert.Equal(t, 5, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Present)
	assert.Equal(t, 1, report.Summary.Absent)
	assert.Equal(t, 1, report.Summary.Late)
	assert.Equal(t, 1, report.Summary.Excused)
	assert.Len(t, report.Records, 5)
}

func TestAttendanceReportRejectsMalformedDate(t *testing.T) {
	svc := frozenAttendanceService(&mockAttendanceRepo{}, "2025-09-15")

	_, err := svc.Report(context.Background(), "crs-1", "12/09/2025")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}
