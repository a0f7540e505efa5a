package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teacher-review-api/internal/models"
)

var reviewRowColumns = []string{"id", "teacher_id", "rating", "comment", "does_roll_call", "upvotes", "downvotes", "submitter_hash", "created_at"}

func TestReviewRepositoryListOrdering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + reviewColumns + " FROM reviews WHERE teacher_id = $1 ORDER BY created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(reviewRowColumns).
			AddRow("r1", "t1", 4.5, "Clear lectures", true, 3, 1, "aGFzaA==", time.Now()))

	reviews, err := repo.List(context.Background(), models.ReviewFilter{TeacherID: "t1", OrderByRecent: true}, nil)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 3, reviews[0].Upvotes)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reviews WHERE teacher_id = $1 AND id = ANY($2) ORDER BY upvotes DESC, created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(reviewRowColumns))

	reviews, err = repo.List(context.Background(), models.ReviewFilter{TeacherID: "t1", Page: 2}, []string{"r1"})
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCountAndCourseFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT review_id FROM course_reviews WHERE course_id = $1 AND teacher_id = $2")).
		WithArgs("c1", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"review_id"}).AddRow("r1").AddRow("r2"))

	ids, err := repo.ReviewIDsByCourse(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews WHERE teacher_id = $1 AND id = ANY($2)")).
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.Count(context.Background(), "t1", ids)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCourseReviewsBatched(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE cr.review_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "review_id", "teacher_id", "course_id", "course_name", "course_rating", "course_comment", "created_at"}).
			AddRow("cr1", "r1", "t1", "c1", "Calculus I", 4.0, nil, time.Now()).
			AddRow("cr2", "r2", "t1", "c9", nil, 3.5, "ok", time.Now()))

	items, err := repo.CourseReviewsByReviewIDs(context.Background(), []string{"r1", "r2"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Calculus I", *items[0].CourseName)
	assert.Nil(t, items[1].CourseName)

	empty, err := repo.CourseReviewsByReviewIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryVote(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reviews SET upvotes = upvotes + 1 WHERE id = $1 RETURNING id, upvotes, downvotes")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "upvotes", "downvotes"}).AddRow("r1", 4, 1))

	result, err := repo.Vote(context.Background(), "r1", models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, &models.VoteResult{ReviewID: "r1", Upvotes: 4, Downvotes: 1}, result)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reviews SET downvotes = downvotes + 1 WHERE id = $1 RETURNING id, upvotes, downvotes")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "upvotes", "downvotes"}).AddRow("r1", 4, 2))

	result, err = repo.Vote(context.Background(), "r1", models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Downvotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryVoteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery("UPDATE reviews SET upvotes").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id", "upvotes", "downvotes"}))
	_, err := repo.Vote(context.Background(), "gone", models.VoteUp)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectQuery("UPDATE reviews SET upvotes").
		WithArgs("xyz").
		WillReturnError(&pq.Error{Code: "22P02"})
	_, err = repo.Vote(context.Background(), "xyz", models.VoteUp)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.Vote(context.Background(), "r1", "like")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositorySubmit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	code := "MATH101"
	sub := models.ReviewSubmission{
		TeacherID:     "t1",
		Rating:        4.5,
		Comment:       "Great",
		DoesRollCall:  true,
		SubmitterHash: "aGFzaA==",
		CourseReviews: []models.CourseReviewInput{{CourseID: "c1", CourseRating: 4}},
		CourseTags: []models.CourseTagInput{
			{CourseName: "Calculus I", CourseCode: &code},
			{CourseName: " Linear Algebra "},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM teachers WHERE id = $1 FOR UPDATE")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t1"))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(sqlmock.AnyArg(), "t1", 4.5, "Great", true, "aGFzaA==", fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM courses WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c1"))
	mock.ExpectExec("INSERT INTO course_reviews").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "t1", "c1", 4.0, nil, fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the first tag resolves to the course already rated above
	mock.ExpectQuery("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), "Calculus I", "MATH101").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c1"))
	mock.ExpectQuery("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), "Linear Algebra", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c2"))
	mock.ExpectExec("INSERT INTO teacher_course_associations").
		WithArgs("t1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO teacher_course_associations").
		WithArgs("t1", "c2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE teachers SET").
		WithArgs("t1", fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositorySubmitUnknownTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), models.ReviewSubmission{TeacherID: "nope", Rating: 3, Comment: "x"})
	assert.ErrorIs(t, err, ErrTeacherNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositorySubmitUnknownCourseRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t1"))
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM courses WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), models.ReviewSubmission{
		TeacherID:     "t1",
		Rating:        3,
		Comment:       "x",
		CourseReviews: []models.CourseReviewInput{{CourseID: "missing", CourseRating: 3}},
	})
	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositorySubmitStoreFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t1"))
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), models.ReviewSubmission{TeacherID: "t1", Rating: 3, Comment: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTeacherNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryListForExport(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reviews WHERE teacher_id = $1 ORDER BY created_at DESC LIMIT 500")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(reviewRowColumns).
			AddRow("r1", "t1", 5.0, "Superb", false, 0, 0, nil, time.Now()))

	reviews, err := repo.ListForExport(context.Background(), "t1", nil, 500)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Nil(t, reviews[0].SubmitterHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}
