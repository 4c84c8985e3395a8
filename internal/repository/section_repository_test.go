package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
)

func TestSectionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "course_id", "section_type_id", "name", "estimated_capacity", "instructor_id", "nrc", "created_at",
		"course_code", "course_name", "section_type_name", "career_id", "career_code", "semester_number",
		"instructor_rut", "instructor_name",
	}).AddRow("sec-1", "course-1", "type-1", "C1", 40, "inst-1", nil, now,
		"MATH101", "Calculus", "Catedra", "career-cs", "CS", 1, "11111111-1", "Ana Rojas")
	mock.ExpectQuery(`FROM sections s .* WHERE s\.id = \$1`).WithArgs("sec-1").WillReturnRows(rows)

	section, err := repo.FindByID(context.Background(), "sec-1")
	require.NoError(t, err)
	assert.Equal(t, "MATH101-C1", section.Label())
	require.NotNil(t, section.InstructorName)
	assert.Equal(t, "Ana Rojas", *section.InstructorName)
	assert.Nil(t, section.NRC)

	mock.ExpectQuery(`FROM sections s .* WHERE s\.id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO sections").
		WithArgs(sqlmock.AnyArg(), "course-1", "type-1", "C2", 45, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	section := &models.Section{CourseID: "course-1", SectionTypeID: "type-1", Name: "C2", EstimatedCapacity: 45}
	require.NoError(t, repo.Create(ctx, nil, section))
	assert.NotEmpty(t, section.ID)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sections WHERE course_id = $1 AND section_type_id = $2 ORDER BY name ASC")).
		WithArgs("course-1", "type-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "section_type_id", "name", "estimated_capacity", "instructor_id", "nrc", "created_at"}).
			AddRow("sec-1", "course-1", "type-1", "C1", 45, nil, nil, now).
			AddRow(section.ID, "course-1", "type-1", "C2", 45, nil, nil, now))

	sections, err := repo.ListByCourseType(ctx, nil, "course-1", "type-1")
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "C2", sections[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpdates(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET estimated_capacity = $1 WHERE id = $2")).
		WithArgs(30, "sec-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET instructor_id = $1 WHERE id = $2")).
		WithArgs("inst-2", "sec-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET instructor_id = $1 WHERE id = $2")).
		WithArgs(nil, "sec-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sections WHERE id = $1")).
		WithArgs("sec-1").WillReturnResult(sqlmock.NewResult(0, 1))

	instructor := "inst-2"
	require.NoError(t, repo.UpdateCapacity(ctx, nil, "sec-1", 30))
	require.NoError(t, repo.SetInstructor(ctx, nil, "sec-1", &instructor))
	require.NoError(t, repo.SetInstructor(ctx, nil, "sec-1", nil))
	require.NoError(t, repo.Delete(ctx, nil, "sec-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryFindByCourseName(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "course_id", "section_type_id", "name", "estimated_capacity", "instructor_id", "nrc", "created_at",
		"course_code", "course_name", "section_type_name", "career_id", "career_code", "semester_number",
		"instructor_rut", "instructor_name",
	}).AddRow("sec-2", "course-1", "type-1", "C2", 30, nil, nil, time.Now(),
		"MATH101", "Calculus", "Catedra", "career-cs", "CS", 1, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.course_id = $1 AND UPPER(s.name) = UPPER($2) ORDER BY st.name ASC LIMIT 1")).
		WithArgs("course-1", "c2").
		WillReturnRows(rows)

	section, err := repo.FindByCourseName(ctx, "course-1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "sec-2", section.ID)
	assert.Nil(t, section.InstructorID)

	mock.ExpectQuery(`WHERE s\.course_id = \$1 AND UPPER\(s\.name\)`).
		WithArgs("course-1", "Z9").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByCourseName(ctx, "course-1", "Z9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
