package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/teacher-review-api/internal/models"
)

const teacherColumns = "id, name, department, title, avg_rating, review_count, roll_call_percentage, created_at, updated_at"

// TeacherRepository manages read access for teachers and their aggregates.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

func teacherWhere(filter models.TeacherFilter) (string, []interface{}) {
	base := "FROM teachers WHERE 1=1"
	var args []interface{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		base += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if department := strings.TrimSpace(filter.Department); department != "" {
		args = append(args, department)
		base += fmt.Sprintf(" AND department = $%d", len(args))
	}
	return base, args
}

// List returns one page of teachers matching the filter.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error) {
	base, args := teacherWhere(filter)

	var order string
	switch filter.SortBy {
	case models.TeacherSortRating:
		order = "avg_rating DESC, name ASC"
	case models.TeacherSortReviewCount:
		order = "review_count DESC, name ASC"
	default:
		order = "name ASC"
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize, 20)
	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", teacherColumns, base, order, size, models.Offset(page, size))
	teachers := []models.Teacher{}
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// Count returns the number of teachers matching the filter, ignoring pagination.
func (r *TeacherRepository) Count(ctx context.Context, filter models.TeacherFilter) (int, error) {
	base, args := teacherWhere(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return total, nil
}

// FindByID fetches a teacher by ID. Unknown or malformed ids yield sql.ErrNoRows.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE id = $1"
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, normalizeNotFound(err)
	}
	return &teacher, nil
}

// ListCourseAssociations returns the teacher's course associations, most frequent first.
func (r *TeacherRepository) ListCourseAssociations(ctx context.Context, teacherID string) ([]models.TeacherCourseAssociation, error) {
	const query = `SELECT teacher_id, course_id, association_count FROM teacher_course_associations WHERE teacher_id = $1 ORDER BY association_count DESC`
	associations := []models.TeacherCourseAssociation{}
	if err := r.db.SelectContext(ctx, &associations, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher course associations: %w", err)
	}
	return associations, nil
}

// CountReviewsSince counts the teacher's reviews created at or after since.
func (r *TeacherRepository) CountReviewsSince(ctx context.Context, teacherID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM reviews WHERE teacher_id = $1 AND created_at >= $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID, since.UTC()); err != nil {
		return 0, fmt.Errorf("count recent reviews: %w", err)
	}
	return count, nil
}

// ListDepartments returns distinct non-empty department names in ascending order.
func (r *TeacherRepository) ListDepartments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT department FROM teachers WHERE department IS NOT NULL AND department <> ''`
	var raw []sql.NullString
	if err := r.db.SelectContext(ctx, &raw, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	seen := make(map[string]struct{}, len(raw))
	departments := make([]string, 0, len(raw))
	for _, d := range raw {
		name := strings.TrimSpace(d.String)
		if !d.Valid || name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		departments = append(departments, name)
	}
	sort.Strings(departments)
	return departments, nil
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
