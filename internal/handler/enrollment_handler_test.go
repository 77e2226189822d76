package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	"github.com/noah-isme/colegio-api/internal/service"
)

type fakeEnrollmentRepo struct {
	detail *models.EnrollmentDetail
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	if f.detail == nil {
		return nil, 0, nil
	}
	return []models.EnrollmentDetail{*f.detail}, 1, nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if f.detail == nil {
		return nil, sql.ErrNoRows
	}
	return &f.detail.Enrollment, nil
}

func (f *fakeEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if f.detail == nil {
		return nil, sql.ErrNoRows
	}
	return f.detail, nil
}

func (f *fakeEnrollmentRepo) ListLines(ctx context.Context, enrollmentID string) ([]models.EnrollmentLineDetail, error) {
	return nil, nil
}

func (f *fakeEnrollmentRepo) CreateWithLines(ctx context.Context, enrollment *models.Enrollment, lines []models.EnrollmentLine) error {
	enrollment.ID = "enr-1"
	enrollment.Number = "MAT-2025-000001"
	f.detail = &models.EnrollmentDetail{Enrollment: *enrollment}
	return nil
}

func (f *fakeEnrollmentRepo) UpdateState(ctx context.Context, id string, state models.EnrollmentState) error {
	if f.detail == nil {
		return sql.ErrNoRows
	}
	f.detail.State = state
	return nil
}

func (f *fakeEnrollmentRepo) UpdateLineState(ctx context.Context, enrollmentID, lineID string, state models.LineState) error {
	return nil
}

func (f *fakeEnrollmentRepo) DeleteCascade(ctx context.Context, id string) error {
	if f.detail == nil {
		return sql.ErrNoRows
	}
	f.detail = nil
	return nil
}

type fakeStudentReader struct{ student *models.Student }

func (f *fakeStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if f.student == nil {
		return nil, sql.ErrNoRows
	}
	return f.student, nil
}

type fakeCourseReader struct{ course *models.Course }

func (f *fakeCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if f.course == nil {
		return nil, sql.ErrNoRows
	}
	return f.course, nil
}

type fakeTeacherReader struct{ teacher *models.Teacher }

func (f *fakeTeacherReader) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if f.teacher == nil {
		return nil, sql.ErrNoRows
	}
	return f.teacher, nil
}

func newEnrollmentRouter(repo *fakeEnrollmentRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	students := &fakeStudentReader{student: &models.Student{ID: "stu-1", Code: "EST-000001", State: models.StudentStateActive}}
	courses := &fakeCourseReader{course: &models.Course{ID: "crs-1", Name: "Algebra", Area: "Mathematics", Credits: 4, State: models.CourseStateActive}}
	teachers := &fakeTeacherReader{teacher: &models.Teacher{ID: "tch-1", State: models.TeacherStateActive}}

	svc := service.NewEnrollmentService(repo, students, courses, teachers, nil, nil, nil, zap.NewNop())
	h := NewEnrollmentHandler(svc)

	r := gin.New()
	r.GET("/matriculas", h.List)
	r.POST("/matriculas", h.Create)
	r.GET("/matriculas/:id", h.Get)
	r.PATCH("/matriculas/:id/estado", h.UpdateState)
	r.DELETE("/matriculas/:id", h.Delete)
	return r
}

const enrollmentPayload = `{
  "student_id": "stu-1",
  "academic_period": "2025-II",
  "courses": [
    {
      "course_id": "crs-1",
      "teacher_id": "tch-1",
      "cost": 150,
      "schedule": {"days": ["Monday", "Wednesday"], "start_time": "08:00", "end_time": "09:30"}
    }
  ]
}`

func TestEnrollmentHandlerCreate(t *testing.T) {
	router := newEnrollmentRouter(&fakeEnrollmentRepo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/matriculas", strings.NewReader(enrollmentPayload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Number       string  `json:"number"`
			TotalCredits int     `json:"total_credits"`
			TotalCost    float64 `json:"total_cost"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "MAT-2025-000001", envelope.Data.Number)
	assert.Equal(t, 4, envelope.Data.TotalCredits)
	assert.Equal(t, 150.0, envelope.Data.TotalCost)
}

func TestEnrollmentHandlerCreateRejectsEmptyCourses(t *testing.T) {
	router := newEnrollmentRouter(&fakeEnrollmentRepo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/matriculas", strings.NewReader(`{"student_id":"stu-1","academic_period":"2025-II","courses":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope struct {
		Success  bool     `json:"success"`
		Error    string   `json:"error"`
		Detalles []string `json:"detalles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Error)
}

func TestEnrollmentHandlerGetNotFound(t *testing.T) {
	router := newEnrollmentRouter(&fakeEnrollmentRepo{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/matriculas/missing", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollmentHandlerUpdateState(t *testing.T) {
	repo := &fakeEnrollmentRepo{detail: &models.EnrollmentDetail{Enrollment: models.Enrollment{ID: "enr-1", State: models.EnrollmentStateActive}}}
	router := newEnrollmentRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/matriculas/enr-1/estado", strings.NewReader(`{"state":"SUSPENDED"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EnrollmentStateSuspended, repo.detail.State)
}

func TestEnrollmentHandlerDelete(t *testing.T) {
	repo := &fakeEnrollmentRepo{detail: &models.EnrollmentDetail{Enrollment: models.Enrollment{ID: "enr-1"}}}
	router := newEnrollmentRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/matriculas/enr-1", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, repo.detail)
}
