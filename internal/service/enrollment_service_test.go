package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	"github.com/noah-isme/colegio-api/internal/repository"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments []models.EnrollmentDetail
	detail      *models.EnrollmentDetail
	enrollment  *models.Enrollment
	lines       []models.EnrollmentLineDetail

	createErr      error
	createCalls    int
	createdParent  *models.Enrollment
	createdLines   []models.EnrollmentLine
	updateStateErr error
	deleteErr      error
	findErr        error
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return m.enrollments, len(m.enrollments), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if m.enrollment == nil {
		return nil, m.notFound()
	}
	return m.enrollment, nil
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if m.detail == nil {
		return nil, m.notFound()
	}
	return m.detail, nil
}

func (m *mockEnrollmentRepo) ListLines(ctx context.Context, enrollmentID string) ([]models.EnrollmentLineDetail, error) {
	return m.lines, nil
}

func (m *mockEnrollmentRepo) CreateWithLines(ctx context.Context, enrollment *models.Enrollment, lines []models.EnrollmentLine) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	enrollment.ID = "enr-1"
	enrollment.Number = "MAT-2025-000001"
	m.createdParent = enrollment
	m.createdLines = lines
	m.detail = &models.EnrollmentDetail{Enrollment: *enrollment}
	return nil
}

func (m *mockEnrollmentRepo) UpdateState(ctx context.Context, id string, state models.EnrollmentState) error {
	return m.updateStateErr
}

func (m *mockEnrollmentRepo) UpdateLineState(ctx context.Context, enrollmentID, lineID string, state models.LineState) error {
	return m.updateStateErr
}

func (m *mockEnrollmentRepo) DeleteCascade(ctx context.Context, id string) error {
	return m.deleteErr
}

func (m *mockEnrollmentRepo) notFound() error {
	if m.findErr != nil {
		return m.findErr
	}
	return sql.ErrNoRows
}

type mockStudentReader struct {
	student *models.Student
	err     error
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.student, nil
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

type mockTeacherReader struct {
	teachers map[string]*models.Teacher
}

func (m *mockTeacherReader) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

type stubStatsCache struct {
	store       map[string]*models.EnrollmentStats
	invalidated []string
}

func (s *stubStatsCache) Get(ctx context.Context, enrollmentID string) (*models.EnrollmentStats, bool) {
	stats, ok := s.store[enrollmentID]
	return stats, ok
}

func (s *stubStatsCache) Set(ctx context.Context, enrollmentID string, stats *models.EnrollmentStats) {
	if s.store == nil {
		s.store = make(map[string]*models.EnrollmentStats)
	}
	s.store[enrollmentID] = stats
}

func (s *stubStatsCache) Invalidate(ctx context.Context, enrollmentID string) {
	s.invalidated = append(s.invalidated, enrollmentID)
	delete(s.store, enrollmentID)
}

func activeStudent() *models.Student {
	return &models.Student{ID: "stu-1", Code: "EST-000001", FirstNames: "Maria", LastNames: "Lopez", State: models.StudentStateActive}
}

func enrollmentFixtures() (*mockCourseReader, *mockTeacherReader) {
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Code: "MATH1-001", Name: "Algebra", Area: "Mathematics", Credits: 4, State: models.CourseStateActive},
		"crs-2": {ID: "crs-2", Code: "COMM1-001", Name: "Grammar", Area: "Communication", Credits: 3, State: models.CourseStateActive},
	}}
	teachers := &mockTeacherReader{teachers: map[string]*models.Teacher{
		"tch-1": {ID: "tch-1", Code: "PROF-0001", FirstNames: "Jorge", LastNames: "Diaz", State: models.TeacherStateActive},
	}}
	return courses, teachers
}

func validEnrollmentRequest() CreateEnrollmentRequest {
	schedule := ScheduleRequest{Days: []string{"Monday", "Wednesday"}, StartTime: "08:00", EndTime: "09:30"}
	return CreateEnrollmentRequest{
		StudentID:      "stu-1",
		AcademicPeriod: "2025-II",
		Courses: []CourseSelection{
			{CourseID: "crs-1", TeacherID: "tch-1", Schedule: schedule, Cost: 150},
			{CourseID: "crs-2", TeacherID: "tch-1", Schedule: schedule, Cost: 150},
		},
	}
}

func TestEnrollmentCreateAccumulatesTotals(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses, teachers := enrollmentFixtures()
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, nil, nil, nil, zap.NewNop())

	detail, err := svc.Create(context.Background(), validEnrollmentRequest())
	require.NoError(t, err)
	require.NotNil(t, detail)

	assert.Equal(t, 1, repo.createCalls)
	assert.Equal(t, 7, repo.createdParent.TotalCredits)
	assert.Equal(t, 300.0, repo.createdParent.TotalCost)
	assert.Equal(t, models.EnrollmentStateActive, repo.createdParent.State)

	require.Len(t, repo.createdLines, 2)
	assert.Equal(t, "crs-1", repo.createdLines[0].CourseID)
	assert.Equal(t, "crs-2", repo.createdLines[1].CourseID)
	assert.Equal(t, 4, repo.createdLines[0].Credits)
	assert.Equal(t, models.LineStateEnrolled, repo.createdLines[0].State)
}

func TestEnrollmentCreateRequiresCourses(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses, teachers := enrollmentFixtures()
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, nil, nil, nil, zap.NewNop())

	req := validEnrollmentRequest()
	req.Courses = nil

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Zero(t, repo.createCalls)
}

func TestEnrollmentCreateRejectsUnknownPeriod(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses, teachers := enrollmentFixtures()
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, nil, nil, nil, zap.NewNop())

	req := validEnrollmentRequest()
	req.AcademicPeriod = "2024-I"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Zero(t, repo.createCalls)
}

func TestEnrollmentCreateRejectsInactiveStudent(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses, teachers := enrollmentFixtures()
	student := activeStudent()
	student.State = models.StudentStateSuspended
	svc := NewEnrollmentService(repo, &mockStudentReader{student: student}, courses, teachers, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), validEnrollmentRequest())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Contains(t, err.Error(), "not active")
	assert.Zero(t, repo.createCalls)
}

func TestEnrollmentCreateRejectsUnknownCourse(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses, teachers := enrollmentFixtures()
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, nil, nil, nil, zap.NewNop())

	req := validEnrollmentRequest()
	req.Courses[1].CourseID = "crs-missing"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Zero(t, repo.createCalls)
}

func TestEnrollmentCreateMapsDuplicateActive(t *testing.T) {
	repo := &mockEnrollmentRepo{createErr: repository.ErrDuplicateActiveEnrollment}
	courses, teachers := enrollmentFixtures()
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), validEnrollmentRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "active enrollment")
}

func TestEnrollmentCreateAbortLeavesNothing(t *testing.T) {
	repo := &mockEnrollmentRepo{createErr: errors.New("tx aborted")}
	courses, teachers := enrollmentFixtures()
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), validEnrollmentRequest())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
	assert.Nil(t, repo.createdParent)
	assert.Nil(t, repo.detail)
}

func TestEnrollmentUpdateStateRejectsUnknownValue(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses, teachers := enrollmentFixtures()
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, nil, nil, nil, zap.NewNop())

	_, err := svc.UpdateState(context.Background(), "enr-1", UpdateEnrollmentStateRequest{State: "ARCHIVED"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestEnrollmentDeleteNotFound(t *testing.T) {
	repo := &mockEnrollmentRepo{deleteErr: sql.ErrNoRows}
	courses, teachers := enrollmentFixtures()
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, nil, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestEnrollmentStatsAggregatesByArea(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollment: &models.Enrollment{ID: "enr-1", TotalCredits: 7, TotalCost: 300},
		lines: []models.EnrollmentLineDetail{
			{EnrollmentLine: models.EnrollmentLine{Credits: 4, State: models.LineStateEnrolled}, CourseArea: "Mathematics"},
			{EnrollmentLine: models.EnrollmentLine{Credits: 3, State: models.LineStateWithdrawn}, CourseArea: "Communication"},
		},
	}
	courses, teachers := enrollmentFixtures()
	cache := &stubStatsCache{}
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, cache, nil, nil, zap.NewNop())

	stats, err := svc.Stats(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCourses)
	assert.Equal(t, 1, stats.Enrolled)
	assert.Equal(t, 1, stats.Withdrawn)
	assert.Equal(t, 7, stats.TotalCredits)
	assert.Equal(t, 300.0, stats.TotalCost)
	assert.Equal(t, models.AreaStats{Courses: 1, Credits: 4}, stats.ByArea["Mathematics"])

	cached, ok := cache.Get(context.Background(), "enr-1")
	require.True(t, ok)
	assert.Equal(t, stats, cached)
}

func TestEnrollmentMutationsInvalidateStats(t *testing.T) {
	repo := &mockEnrollmentRepo{detail: &models.EnrollmentDetail{Enrollment: models.Enrollment{ID: "enr-1"}}}
	courses, teachers := enrollmentFixtures()
	cache := &stubStatsCache{store: map[string]*models.EnrollmentStats{"enr-1": {TotalCourses: 2}}}
	svc := NewEnrollmentService(repo, &mockStudentReader{student: activeStudent()}, courses, teachers, cache, nil, nil, zap.NewNop())

	_, err := svc.UpdateState(context.Background(), "enr-1", UpdateEnrollmentStateRequest{State: models.EnrollmentStateCancelled})
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, "enr-1")
}
