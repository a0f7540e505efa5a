package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/teacher-review-api/internal/models"
)

const reviewColumns = "id, teacher_id, rating, comment, does_roll_call, upvotes, downvotes, submitter_hash, created_at"

// ReviewRepository persists reviews, their course reviews and vote counters.
type ReviewRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db, now: time.Now}
}

// ReviewIDsByCourse returns ids of the teacher's reviews that carry a course review for courseID.
func (r *ReviewRepository) ReviewIDsByCourse(ctx context.Context, teacherID, courseID string) ([]string, error) {
	const query = `SELECT DISTINCT review_id FROM course_reviews WHERE course_id = $1 AND teacher_id = $2`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, courseID, teacherID); err != nil {
		if errors.Is(normalizeNotFound(err), sql.ErrNoRows) {
			return ids, nil
		}
		return nil, fmt.Errorf("list review ids by course: %w", err)
	}
	return ids, nil
}

func reviewWhere(teacherID string, restrictIDs []string) (string, []interface{}) {
	base := "FROM reviews WHERE teacher_id = $1"
	args := []interface{}{teacherID}
	if restrictIDs != nil {
		args = append(args, pq.Array(restrictIDs))
		base += fmt.Sprintf(" AND id = ANY($%d)", len(args))
	}
	return base, args
}

// List returns one page of a teacher's reviews. A non-nil restrictIDs limits the page to that set.
func (r *ReviewRepository) List(ctx context.Context, filter models.ReviewFilter, restrictIDs []string) ([]models.Review, error) {
	base, args := reviewWhere(filter.TeacherID, restrictIDs)
	order := "created_at DESC"
	if !filter.OrderByRecent {
		order = "upvotes DESC, created_at DESC"
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize, 10)
	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", reviewColumns, base, order, size, models.Offset(page, size))

	reviews := []models.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		if errors.Is(normalizeNotFound(err), sql.ErrNoRows) {
			return reviews, nil
		}
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListForExport returns up to limit of a teacher's most recent reviews.
func (r *ReviewRepository) ListForExport(ctx context.Context, teacherID string, restrictIDs []string, limit int) ([]models.Review, error) {
	base, args := reviewWhere(teacherID, restrictIDs)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d", reviewColumns, base, limit)
	reviews := []models.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		if errors.Is(normalizeNotFound(err), sql.ErrNoRows) {
			return reviews, nil
		}
		return nil, fmt.Errorf("list reviews for export: %w", err)
	}
	return reviews, nil
}

// Count returns how many of a teacher's reviews match, ignoring pagination.
func (r *ReviewRepository) Count(ctx context.Context, teacherID string, restrictIDs []string) (int, error) {
	base, args := reviewWhere(teacherID, restrictIDs)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		if errors.Is(normalizeNotFound(err), sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return total, nil
}

// CourseReviewsByReviewIDs fetches every course review of the given reviews in one query.
func (r *ReviewRepository) CourseReviewsByReviewIDs(ctx context.Context, reviewIDs []string) ([]models.CourseReview, error) {
	items := []models.CourseReview{}
	if len(reviewIDs) == 0 {
		return items, nil
	}
	const query = `SELECT cr.id, cr.review_id, cr.teacher_id, cr.course_id, c.course_name, cr.course_rating, cr.course_comment, cr.created_at
FROM course_reviews cr
LEFT JOIN courses c ON c.id = cr.course_id
WHERE cr.review_id = ANY($1)
ORDER BY cr.created_at ASC, cr.id ASC`
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(reviewIDs)); err != nil {
		return nil, fmt.Errorf("list course reviews: %w", err)
	}
	return items, nil
}

// Vote increments exactly one counter in a single statement and returns both post-update values.
// Unknown reviews yield sql.ErrNoRows.
func (r *ReviewRepository) Vote(ctx context.Context, reviewID, voteType string) (*models.VoteResult, error) {
	var query string
	switch voteType {
	case models.VoteUp:
		query = `UPDATE reviews SET upvotes = upvotes + 1 WHERE id = $1 RETURNING id, upvotes, downvotes`
	case models.VoteDown:
		query = `UPDATE reviews SET downvotes = downvotes + 1 WHERE id = $1 RETURNING id, upvotes, downvotes`
	default:
		return nil, fmt.Errorf("unsupported vote type %q", voteType)
	}

	var result models.VoteResult
	if err := r.db.GetContext(ctx, &result, query, reviewID); err != nil {
		if err = normalizeNotFound(err); errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("vote review: %w", err)
	}
	return &result, nil
}

// Submit persists a review, its course reviews and course tags, bumps teacher/course associations
// and recomputes the teacher aggregates, all in one transaction.
func (r *ReviewRepository) Submit(ctx context.Context, sub models.ReviewSubmission) (reviewID string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM teachers WHERE id = $1 FOR UPDATE`, sub.TeacherID); err != nil {
		if errors.Is(normalizeNotFound(err), sql.ErrNoRows) {
			return "", ErrTeacherNotFound
		}
		return "", fmt.Errorf("lock teacher: %w", err)
	}

	now := r.now().UTC()
	reviewID = uuid.NewString()
	var hash *string
	if sub.SubmitterHash != "" {
		hash = &sub.SubmitterHash
	}
	const insertReview = `INSERT INTO reviews (id, teacher_id, rating, comment, does_roll_call, upvotes, downvotes, submitter_hash, created_at)
VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7)`
	if _, err = tx.ExecContext(ctx, insertReview, reviewID, sub.TeacherID, sub.Rating, sub.Comment, sub.DoesRollCall, hash, now); err != nil {
		return "", fmt.Errorf("insert review: %w", err)
	}

	var courseIDs []string
	seen := make(map[string]struct{})
	track := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			courseIDs = append(courseIDs, id)
		}
	}

	const insertCourseReview = `INSERT INTO course_reviews (id, review_id, teacher_id, course_id, course_rating, course_comment, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, cr := range sub.CourseReviews {
		var courseID string
		if courseID, err = resolveCourse(ctx, tx, cr.CourseID, cr.CourseName, nil); err != nil {
			return "", err
		}
		if _, err = tx.ExecContext(ctx, insertCourseReview, uuid.NewString(), reviewID, sub.TeacherID, courseID, cr.CourseRating, cr.CourseComment, now); err != nil {
			return "", fmt.Errorf("insert course review: %w", err)
		}
		track(courseID)
	}

	for _, tag := range sub.CourseTags {
		var courseID string
		if courseID, err = resolveCourse(ctx, tx, "", tag.CourseName, tag.CourseCode); err != nil {
			return "", err
		}
		track(courseID)
	}

	const upsertAssociation = `INSERT INTO teacher_course_associations (teacher_id, course_id, association_count)
VALUES ($1, $2, 1)
ON CONFLICT (teacher_id, course_id) DO UPDATE SET association_count = teacher_course_associations.association_count + 1`
	for _, courseID := range courseIDs {
		if _, err = tx.ExecContext(ctx, upsertAssociation, sub.TeacherID, courseID); err != nil {
			return "", fmt.Errorf("upsert course association: %w", err)
		}
	}

	const refreshAggregates = `UPDATE teachers SET
	avg_rating = s.avg_rating,
	review_count = s.review_count,
	roll_call_percentage = s.roll_call_percentage,
	updated_at = $2
FROM (
	SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS avg_rating,
	       COUNT(*) AS review_count,
	       COALESCE(ROUND(100.0 * AVG(CASE WHEN does_roll_call THEN 1 ELSE 0 END)::numeric, 2), 0) AS roll_call_percentage
	FROM reviews WHERE teacher_id = $1
) s
WHERE teachers.id = $1`
	if _, err = tx.ExecContext(ctx, refreshAggregates, sub.TeacherID, now); err != nil {
		return "", fmt.Errorf("refresh teacher aggregates: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit review: %w", err)
	}
	return reviewID, nil
}

// resolveCourse returns the id of an existing course by id, or finds-or-creates one by name.
func resolveCourse(ctx context.Context, tx *sqlx.Tx, courseID, courseName string, courseCode *string) (string, error) {
	if courseID != "" {
		var id string
		if err := tx.GetContext(ctx, &id, `SELECT id FROM courses WHERE id = $1`, courseID); err != nil {
			if errors.Is(normalizeNotFound(err), sql.ErrNoRows) {
				return "", ErrCourseNotFound
			}
			return "", fmt.Errorf("find course: %w", err)
		}
		return id, nil
	}

	const upsertCourse = `INSERT INTO courses (id, course_name, course_code, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (course_name) DO UPDATE SET course_code = COALESCE(courses.course_code, EXCLUDED.course_code)
RETURNING id`
	var id string
	if err := tx.GetContext(ctx, &id, upsertCourse, uuid.NewString(), strings.TrimSpace(courseName), courseCode); err != nil {
		return "", fmt.Errorf("upsert course: %w", err)
	}
	return id, nil
}
