package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/colegio-api/internal/models"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
)

type mockStudentRepo struct {
	students   []models.Student
	student    *models.Student
	created    *models.Student
	createErr  error
	lastState  models.StudentState
	stateErr   error
	stateCalls int
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return m.students, len(m.students), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.student == nil {
		return nil, sql.ErrNoRows
	}
	return m.student, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	student.ID = "stu-1"
	student.Code = "EST-000001"
	m.created = student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	return nil
}

func (m *mockStudentRepo) UpdateState(ctx context.Context, id string, state models.StudentState) error {
	m.stateCalls++
	m.lastState = state
	return m.stateErr
}

func createStudentRequest() CreateStudentRequest {
	return CreateStudentRequest{
		FirstNames: "Maria",
		LastNames:  "Lopez",
		Email:      "maria@colegio.edu",
		BirthDate:  "2012-03-14",
		Grade:      "3ro",
		Section:    "A",
	}
}

func TestStudentCreateAssignsGeneratedCode(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, zap.NewNop())

	student, err := svc.Create(context.Background(), createStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, "EST-000001", student.Code)
	assert.Equal(t, models.StudentStateActive, student.State)
	assert.Equal(t, repo.created, student)
}

func TestStudentCreateRejectsFutureBirthDate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, zap.NewNop())

	req := createStudentRequest()
	req.BirthDate = "2090-01-01"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Nil(t, repo.created)
}

func TestStudentCreateRejectsUnknownGrade(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, zap.NewNop())

	req := createStudentRequest()
	req.Grade = "7mo"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.NotEmpty(t, appErr.Details)
}

func TestStudentCreateMapsDuplicateCode(t *testing.T) {
	repo := &mockStudentRepo{createErr: &pq.Error{Code: "23505", Constraint: "students_code_key"}}
	svc := NewStudentService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), createStudentRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "code")
}

func TestStudentDeleteMarksInactive(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "stu-1"))
	assert.Equal(t, 1, repo.stateCalls)
	assert.Equal(t, models.StudentStateInactive, repo.lastState)
}

func TestStudentGetNotFound(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}
