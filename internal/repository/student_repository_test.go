package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

func expectSeat(mock sqlmock.Sqlmock, classID, capacity, enrolled int) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(capacity))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE class_id = $1")).WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(enrolled))
}

func TestStudentCreateRejectsFullClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	expectSeat(mock, 1, 30, 30)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Student{ID: "s1", ClassID: 1, GradeID: 1})
	assert.ErrorIs(t, err, ErrClassFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateTakesLastSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	expectSeat(mock, 1, 30, 29)
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), &models.Student{ID: "s1", ClassID: 1, GradeID: 1}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateMissingClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT capacity FROM classes").WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"capacity"}))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Student{ID: "s1", ClassID: 7, GradeID: 1})
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestStudentUpdateSameClassSkipsSeatCheck(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id FROM students WHERE id = $1 FOR UPDATE")).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow(1))
	mock.ExpectExec("UPDATE students SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), &models.Student{ID: "s1", ClassID: 1, GradeID: 1}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentUpdateIntoFullClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT class_id FROM students").WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow(1))
	expectSeat(mock, 2, 10, 10)
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Student{ID: "s1", ClassID: 2, GradeID: 1})
	assert.ErrorIs(t, err, ErrClassFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentDeleteCascades(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students WHERE id = $1 FOR UPDATE")).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM results WHERE student_id = $1")).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendances WHERE student_id = $1")).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM results WHERE student_id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendances WHERE student_id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "s1", func(models.Dependents) (models.DeletePlan, error) {
		return models.DeletePlan{Cascade: []models.Relation{models.RelationResults, models.RelationAttendances}}, nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParentDeleteBlocked(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewParentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM parents WHERE id = $1 FOR UPDATE")).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE parent_id = $1")).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "p1", func(deps models.Dependents) (models.DeletePlan, error) {
		if deps[models.RelationStudents] > 0 {
			return models.DeletePlan{}, errBlocked
		}
		return models.DeletePlan{}, nil
	})
	assert.ErrorIs(t, err, errBlocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParentDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewParentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM parents").WithArgs("p9").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "p9", nil)
	assert.True(t, isNoRows(err))
}
