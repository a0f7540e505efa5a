package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/teacher-review-api/internal/models"
	appErrors "github.com/noah-isme/teacher-review-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter, restrictIDs []string) ([]models.Course, int, error)
	PopularCourseIDs(ctx context.Context, limit int) ([]string, error)
}

// CourseListResult is the cacheable shape of a course page.
type CourseListResult struct {
	Courses    []models.Course    `json:"courses"`
	Pagination *models.Pagination `json:"pagination"`
}

// CourseService serves the course catalogue.
type CourseService struct {
	repo         courseRepository
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger
	popularLimit int
	ttl          time.Duration
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, metrics *MetricsService, popularLimit int, ttl time.Duration, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if popularLimit <= 0 {
		popularLimit = 100
	}
	return &CourseService{repo: repo, cache: cache, metrics: metrics, logger: logger, popularLimit: popularLimit, ttl: ttl}
}

// List returns one alphabetical page of courses. Popularity mode restricts the page to the most
// associated courses when any exist. The boolean reports a cache hit.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) (*CourseListResult, bool, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize, 20)
	filter.Search = strings.TrimSpace(filter.Search)

	key := makeCacheKey(courseCachePrefix, "list", strings.ToLower(filter.Search),
		strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize), strconv.FormatBool(filter.OrderByPopularity))
	var cached CourseListResult
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	var restrict []string
	if filter.OrderByPopularity {
		ids, err := s.repo.PopularCourseIDs(ctx, s.popularLimit)
		if err != nil {
			return nil, false, appErrors.Internal(err, "failed to rank courses")
		}
		if len(ids) > 0 {
			restrict = ids
		}
	}

	courses, total, err := s.repo.List(ctx, filter, restrict)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list courses")
	}
	s.metrics.ObserveDBQuery("courses_list", time.Since(start))

	result := &CourseListResult{Courses: courses, Pagination: models.NewPagination(filter.Page, filter.PageSize, total)}
	s.cache.Set(ctx, key, result, s.ttl)
	return result, false, nil
}
