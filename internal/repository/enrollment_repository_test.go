package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/colegio-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*EnrollmentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewEnrollmentRepository(sqlxDB, NewSequenceRepository(sqlxDB)), mock, func() { db.Close() }
}

func sampleLines() []models.EnrollmentLine {
	return []models.EnrollmentLine{
		{CourseID: "crs-1", TeacherID: "tch-1", Days: []string{"Monday"}, StartTime: "08:00", EndTime: "09:30", Credits: 4, Cost: 150},
		{CourseID: "crs-2", TeacherID: "tch-1", Days: []string{"Tuesday"}, StartTime: "10:00", EndTime: "11:30", Credits: 3, Cost: 150},
	}
}

func TestEnrollmentCreateWithLinesCommits(t *testing.T) {
	repo, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("stu-1", "2025-II", models.EnrollmentStateActive).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sequences")).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_lines")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_lines")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "stu-1", AcademicPeriod: "2025-II", TotalCredits: 7, TotalCost: 300}
	lines := sampleLines()
	require.NoError(t, repo.CreateWithLines(context.Background(), enrollment, lines))

	require.NotEmpty(t, enrollment.ID)
	require.Regexp(t, `^MAT-\d{4}-000007$`, enrollment.Number)
	require.Equal(t, enrollment.ID, lines[0].EnrollmentID)
	require.Equal(t, models.LineStateEnrolled, lines[1].State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateWithLinesRollsBackOnLineFailure(t *testing.T) {
	repo, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sequences")).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(8))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_lines")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_lines")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "stu-1", AcademicPeriod: "2025-II"}
	err := repo.CreateWithLines(context.Background(), enrollment, sampleLines())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateWithLinesDetectsDuplicateActive(t *testing.T) {
	repo, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "stu-1", AcademicPeriod: "2025-II"}
	err := repo.CreateWithLines(context.Background(), enrollment, sampleLines())
	require.ErrorIs(t, err, ErrDuplicateActiveEnrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateWithLinesMapsIndexRace(t *testing.T) {
	repo, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sequences")).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(9))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollments_active_per_period_idx"})
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "stu-1", AcademicPeriod: "2025-II"}
	err := repo.CreateWithLines(context.Background(), enrollment, sampleLines())
	require.ErrorIs(t, err, ErrDuplicateActiveEnrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateWithLinesMapsDuplicateCourse(t *testing.T) {
	repo, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sequences")).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_lines")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollment_lines_enrollment_id_course_id_key"})
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "stu-1", AcademicPeriod: "2025-II"}
	err := repo.CreateWithLines(context.Background(), enrollment, sampleLines())
	require.ErrorIs(t, err, ErrDuplicateLineCourse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentUpdateStateNotFound(t *testing.T) {
	repo, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET state")).
		WithArgs("missing", models.EnrollmentStateCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateState(context.Background(), "missing", models.EnrollmentStateCancelled)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentDeleteCascadeCommits(t *testing.T) {
	repo, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollment_lines")).
		WithArgs("enr-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments")).
		WithArgs("enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), "enr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentDeleteCascadeRollsBackWhenParentMissing(t *testing.T) {
	repo, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollment_lines")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), "ghost")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
