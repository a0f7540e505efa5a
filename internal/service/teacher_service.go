package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/teacher-review-api/internal/models"
	appErrors "github.com/noah-isme/teacher-review-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error)
	Count(ctx context.Context, filter models.TeacherFilter) (int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListCourseAssociations(ctx context.Context, teacherID string) ([]models.TeacherCourseAssociation, error)
	CountReviewsSince(ctx context.Context, teacherID string, since time.Time) (int, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

type courseFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

// TeacherServiceConfig tunes read aggregation.
type TeacherServiceConfig struct {
	RecentWindow  time.Duration
	DepartmentTTL time.Duration
}

// TeacherService serves teacher search, detail and department reads.
type TeacherService struct {
	repo    teacherRepository
	courses courseFinder
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     TeacherServiceConfig
	now     func() time.Time
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, courses courseFinder, cache *CacheService, metrics *MetricsService, cfg TeacherServiceConfig, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 7 * 24 * time.Hour
	}
	return &TeacherService{repo: repo, courses: courses, cache: cache, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// List returns one page of teachers. The page and its count run concurrently; a failed count
// degrades to zero rather than failing the request.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize, 20)
	switch filter.SortBy {
	case models.TeacherSortName, models.TeacherSortRating, models.TeacherSortReviewCount:
	default:
		filter.SortBy = models.TeacherSortName
	}

	var (
		teachers []models.Teacher
		total    int
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teachers, err = s.repo.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		count, err := s.repo.Count(gctx, filter)
		if err != nil {
			s.logger.Warn("count teachers failed", zap.Error(err))
			return nil
		}
		total = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	s.metrics.ObserveDBQuery("teachers_list", time.Since(start))

	return teachers, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher with course tags and the trailing review count. Only the teacher lookup is
// mandatory; secondary reads degrade to empty values.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	var (
		teacher *models.Teacher
		tags    = []models.CourseTagCount{}
		recent  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teacher, err = s.repo.FindByID(gctx, id)
		return err
	})
	g.Go(func() error {
		resolved, err := s.courseTags(gctx, id)
		if err != nil {
			s.logger.Warn("load course tags failed", zap.String("teacher_id", id), zap.Error(err))
			return nil
		}
		tags = resolved
		return nil
	})
	g.Go(func() error {
		count, err := s.repo.CountReviewsSince(gctx, id, s.now().Add(-s.cfg.RecentWindow))
		if err != nil {
			s.logger.Warn("count recent reviews failed", zap.String("teacher_id", id), zap.Error(err))
			return nil
		}
		recent = count
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	if teacher == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	return &models.TeacherDetail{Teacher: *teacher, CourseTags: tags, RecentReviewCount: recent}, nil
}

// courseTags joins associations with their courses, keeping association order and dropping
// associations whose course no longer resolves.
func (s *TeacherService) courseTags(ctx context.Context, teacherID string) ([]models.CourseTagCount, error) {
	associations, err := s.repo.ListCourseAssociations(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	tags := []models.CourseTagCount{}
	if len(associations) == 0 {
		return tags, nil
	}

	ids := make([]string, 0, len(associations))
	for _, a := range associations {
		ids = append(ids, a.CourseID)
	}
	courses, err := s.courses.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	for _, a := range associations {
		course, ok := byID[a.CourseID]
		if !ok {
			continue
		}
		tags = append(tags, models.CourseTagCount{
			ID:         course.ID,
			CourseName: course.CourseName,
			CourseCode: course.CourseCode,
			Count:      a.AssociationCount,
		})
	}
	return tags, nil
}

// Departments returns the sorted distinct departments. The boolean reports a cache hit.
func (s *TeacherService) Departments(ctx context.Context) ([]string, bool, error) {
	var cached []string
	if s.cache.Get(ctx, departmentsCacheKey, &cached) {
		return cached, true, nil
	}

	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list departments")
	}
	s.cache.Set(ctx, departmentsCacheKey, departments, s.cfg.DepartmentTTL)
	return departments, false, nil
}
