package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/colegio-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*StudentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewStudentRepository(sqlxDB, NewSequenceRepository(sqlxDB)), mock, func() { db.Close() }
}

func studentRows(id, code string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "code", "first_names", "last_names", "email", "phone", "birth_date", "address",
		"grade", "section", "gender", "guardian_name", "guardian_phone", "guardian_relation",
		"state", "created_at", "updated_at",
	}).AddRow(id, code, "Maria", "Lopez", "maria@colegio.edu", nil, time.Date(2012, 3, 14, 0, 0, 0, 0, time.UTC), nil,
		"3ro", "A", nil, nil, nil, nil, "ACTIVE", now, now)
}

func TestStudentListAppliesFilters(t *testing.T) {
	repo, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, first_names")).
		WithArgs("%lopez%", "3ro", models.StudentState("ACTIVE")).
		WillReturnRows(studentRows("stu-1", "EST-000001"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WithArgs("%lopez%", "3ro", models.StudentState("ACTIVE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{
		Search: "lopez", Grade: "3ro", State: models.StudentStateActive, Page: 1, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "EST-000001", students[0].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateGeneratesSequencedCode(t *testing.T) {
	repo, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sequences")).
		WithArgs("student").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student := &models.Student{
		FirstNames: "Maria",
		LastNames:  "Lopez",
		BirthDate:  time.Date(2012, 3, 14, 0, 0, 0, 0, time.UTC),
		Grade:      "3ro",
		Section:    "A",
	}
	require.NoError(t, repo.Create(context.Background(), student))

	require.NotEmpty(t, student.ID)
	require.Equal(t, "EST-000042", student.Code)
	require.Equal(t, models.StudentStateActive, student.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateKeepsSuppliedCode(t *testing.T) {
	repo, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student := &models.Student{
		Code:       "EST-900001",
		FirstNames: "Pedro",
		LastNames:  "Gomez",
		BirthDate:  time.Date(2011, 7, 2, 0, 0, 0, 0, time.UTC),
		Grade:      "4to",
		Section:    "B",
	}
	require.NoError(t, repo.Create(context.Background(), student))
	require.Equal(t, "EST-900001", student.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
