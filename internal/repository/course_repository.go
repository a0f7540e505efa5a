package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/teacher-review-api/internal/models"
)

// CourseRepository manages read access for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns one alphabetical page of courses plus the total. A non-nil restrictIDs limits the
// result to that id set.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter, restrictIDs []string) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var args []interface{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		base += fmt.Sprintf(" AND course_name ILIKE $%d", len(args))
	}
	if restrictIDs != nil {
		args = append(args, pq.Array(restrictIDs))
		base += fmt.Sprintf(" AND id = ANY($%d)", len(args))
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize, 20)
	query := fmt.Sprintf("SELECT id, course_name, course_code, created_at %s ORDER BY course_name ASC LIMIT %d OFFSET %d", base, size, models.Offset(page, size))
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// PopularCourseIDs returns up to limit distinct course ids ordered by their strongest association.
func (r *CourseRepository) PopularCourseIDs(ctx context.Context, limit int) ([]string, error) {
	const query = `SELECT course_id FROM teacher_course_associations GROUP BY course_id ORDER BY MAX(association_count) DESC LIMIT $1`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, limit); err != nil {
		return nil, fmt.Errorf("list popular courses: %w", err)
	}
	return ids, nil
}

// FindByIDs fetches the courses with the given ids. Unknown ids are skipped.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	courses := []models.Course{}
	if len(ids) == 0 {
		return courses, nil
	}
	const query = `SELECT id, course_name, course_code, created_at FROM courses WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	return courses, nil
}
