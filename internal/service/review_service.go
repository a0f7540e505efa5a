package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-review-api/internal/dto"
	"github.com/noah-isme/teacher-review-api/internal/models"
	"github.com/noah-isme/teacher-review-api/internal/repository"
	appErrors "github.com/noah-isme/teacher-review-api/pkg/errors"
	"github.com/noah-isme/teacher-review-api/pkg/export"
	"github.com/noah-isme/teacher-review-api/pkg/jobs"
	"github.com/noah-isme/teacher-review-api/pkg/throttle"
)

// unknownOrigin stands in for a missing forwarded-for header before encoding.
const unknownOrigin = "unknown"

type reviewRepository interface {
	ReviewIDsByCourse(ctx context.Context, teacherID, courseID string) ([]string, error)
	List(ctx context.Context, filter models.ReviewFilter, restrictIDs []string) ([]models.Review, error)
	ListForExport(ctx context.Context, teacherID string, restrictIDs []string, limit int) ([]models.Review, error)
	Count(ctx context.Context, teacherID string, restrictIDs []string) (int, error)
	CourseReviewsByReviewIDs(ctx context.Context, reviewIDs []string) ([]models.CourseReview, error)
	Vote(ctx context.Context, reviewID, voteType string) (*models.VoteResult, error)
	Submit(ctx context.Context, sub models.ReviewSubmission) (string, error)
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type submissionGuard interface {
	Check(ctx context.Context, key, teacherID, fingerprint string) throttle.Decision
	Record(ctx context.Context, key, teacherID, fingerprint string)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CooldownError carries the time left before the same submission is accepted again.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("submission cooldown active for %s", e.Remaining)
}

// SubmissionOrigin is what the transport observed about the submitter.
type SubmissionOrigin struct {
	ForwardedFor   string
	UserAgent      string
	AcceptLanguage string
}

// ExportFile is a rendered review report.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReviewService lists, votes on, submits and exports reviews.
type ReviewService struct {
	repo        reviewRepository
	teachers    teacherLookup
	guard       submissionGuard
	queue       jobEnqueuer
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	exportLimit int
}

// ReviewServiceOption customises a ReviewService.
type ReviewServiceOption func(*ReviewService)

// WithSubmissionGuard enables cooldown enforcement on submissions.
func WithSubmissionGuard(guard submissionGuard) ReviewServiceOption {
	return func(s *ReviewService) { s.guard = guard }
}

// WithJobQueue routes post-submission work to a background queue.
func WithJobQueue(queue jobEnqueuer) ReviewServiceOption {
	return func(s *ReviewService) { s.queue = queue }
}

// WithExportLimit bounds the number of reviews in one export.
func WithExportLimit(limit int) ReviewServiceOption {
	return func(s *ReviewService) {
		if limit > 0 {
			s.exportLimit = limit
		}
	}
}

// NewReviewService constructs a ReviewService with sane defaults.
func NewReviewService(repo reviewRepository, teachers teacherLookup, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, opts ...ReviewServiceOption) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerReviewValidations(validate)
	svc := &ReviewService{
		repo:        repo,
		teachers:    teachers,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		exportLimit: 500,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ListByTeacher returns one page of a teacher's reviews with their course reviews attached.
// A course filter with no matching reviews short-circuits to an empty page.
func (s *ReviewService) ListByTeacher(ctx context.Context, filter models.ReviewFilter) ([]models.Review, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize, 10)

	restrict, err := s.courseRestriction(ctx, filter.TeacherID, filter.CourseID)
	if err != nil {
		return nil, nil, err
	}
	if restrict != nil && len(restrict) == 0 {
		return []models.Review{}, models.NewPagination(filter.Page, filter.PageSize, 0), nil
	}

	start := time.Now()
	reviews, err := s.repo.List(ctx, filter, restrict)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list reviews")
	}
	total, err := s.repo.Count(ctx, filter.TeacherID, restrict)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to count reviews")
	}
	if err := s.attachCourseReviews(ctx, reviews); err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load course reviews")
	}
	s.metrics.ObserveDBQuery("reviews_list", time.Since(start))

	return reviews, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// courseRestriction returns nil when no course filter applies, otherwise the matching review ids.
func (s *ReviewService) courseRestriction(ctx context.Context, teacherID, courseID string) ([]string, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, nil
	}
	ids, err := s.repo.ReviewIDsByCourse(ctx, teacherID, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to filter reviews by course")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *ReviewService) attachCourseReviews(ctx context.Context, reviews []models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]string, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
		reviews[i].CourseReviews = []models.CourseReview{}
	}
	items, err := s.repo.CourseReviewsByReviewIDs(ctx, ids)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(reviews))
	for i := range reviews {
		index[reviews[i].ID] = i
	}
	for _, item := range items {
		if i, ok := index[item.ReviewID]; ok {
			reviews[i].CourseReviews = append(reviews[i].CourseReviews, item)
		}
	}
	return nil
}

// Vote applies one helpfulness vote atomically and returns the resulting counters.
func (s *ReviewService) Vote(ctx context.Context, req dto.VoteRequest) (*models.VoteResult, error) {
	reviewID := strings.TrimSpace(req.ReviewID)
	if reviewID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review_id is required")
	}
	if req.VoteType != models.VoteUp && req.VoteType != models.VoteDown {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "vote_type must be upvote or downvote")
	}

	result, err := s.repo.Vote(ctx, reviewID, req.VoteType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Internal(err, "failed to record vote")
	}
	s.metrics.RecordVote(req.VoteType)
	return result, nil
}

// Submit validates and stores a review with its course reviews and tags. Repeat submissions for the
// same teacher from the same origin and device inside the cooldown are rejected with a CooldownError
// wrapped in a 429.
func (s *ReviewService) Submit(ctx context.Context, req dto.SubmitReviewRequest, origin SubmissionOrigin) (*dto.SubmitReviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordSubmission(SubmissionRejected)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	sub := buildSubmission(req)
	sub.SubmitterHash = SubmitterHash(origin.ForwardedFor)
	fingerprint := submissionFingerprint(req.Device, origin)

	if s.guard != nil {
		decision := s.guard.Check(ctx, sub.SubmitterHash, sub.TeacherID, fingerprint)
		if !decision.Allowed {
			s.metrics.RecordSubmission(SubmissionThrottled)
			return nil, appErrors.Wrap(&CooldownError{Remaining: decision.Remaining},
				appErrors.ErrTooManyRequests.Code, appErrors.ErrTooManyRequests.Status,
				"you have already reviewed this teacher recently, please try again later")
		}
	}

	reviewID, err := s.repo.Submit(ctx, sub)
	if err != nil {
		if appErr := submissionError(err); appErr != nil {
			s.metrics.RecordSubmission(SubmissionRejected)
			return nil, appErr
		}
		s.metrics.RecordSubmission(SubmissionFailed)
		return nil, appErrors.Internal(err, "failed to submit review")
	}

	if s.guard != nil {
		s.guard.Record(ctx, sub.SubmitterHash, sub.TeacherID, fingerprint)
	}
	if s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{Type: JobInvalidateCourses, Payload: sub.TeacherID}); err != nil {
			s.logger.Warn("enqueue cache invalidation failed", zap.String("review_id", reviewID), zap.Error(err))
		}
	}
	s.metrics.RecordSubmission(SubmissionAccepted)
	s.logger.Info("review submitted", zap.String("review_id", reviewID), zap.String("teacher_id", sub.TeacherID))

	return &dto.SubmitReviewResponse{ReviewID: reviewID}, nil
}

// submissionError maps business-rule failures from the writer onto 400s. It returns nil for
// anything that should surface as an internal error.
func submissionError(err error) *appErrors.Error {
	switch {
	case errors.Is(err, repository.ErrTeacherNotFound):
		return appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "teacher not found")
	case errors.Is(err, repository.ErrCourseNotFound):
		return appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "course not found")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23":
			return appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "review violates data constraints")
		case "22":
			return appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "review contains invalid values")
		}
	}
	return nil
}

func buildSubmission(req dto.SubmitReviewRequest) models.ReviewSubmission {
	sub := models.ReviewSubmission{
		TeacherID:    strings.TrimSpace(req.TeacherID),
		Rating:       *req.Rating,
		Comment:      strings.TrimSpace(req.Comment),
		DoesRollCall: *req.DoesRollCall,
	}
	for _, cr := range req.CourseReviews {
		sub.CourseReviews = append(sub.CourseReviews, models.CourseReviewInput{
			CourseID:      strings.TrimSpace(cr.CourseID),
			CourseName:    strings.TrimSpace(cr.CourseName),
			CourseRating:  *cr.CourseRating,
			CourseComment: trimOptional(cr.CourseComment),
		})
	}
	for _, tag := range req.CourseTags {
		sub.CourseTags = append(sub.CourseTags, models.CourseTagInput{
			CourseName: strings.TrimSpace(tag.CourseName),
			CourseCode: trimOptional(tag.CourseCode),
		})
	}
	return sub
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SubmitterHash encodes the forwarded-for header, or a fixed sentinel when it is absent.
func SubmitterHash(forwardedFor string) string {
	if forwardedFor == "" {
		forwardedFor = unknownOrigin
	}
	return base64.StdEncoding.EncodeToString([]byte(forwardedFor))
}

func submissionFingerprint(device *throttle.DeviceTraits, origin SubmissionOrigin) string {
	if device != nil {
		return throttle.Fingerprint(*device)
	}
	return throttle.Fingerprint(throttle.DeviceTraits{
		UserAgent:     origin.UserAgent,
		Language:      origin.AcceptLanguage,
		CookieEnabled: true,
	})
}

// Export renders a teacher's most recent reviews as CSV or PDF.
func (s *ReviewService) Export(ctx context.Context, teacherID, courseID, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(rawFormat)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "format must be csv or pdf")
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}

	restrict, err := s.courseRestriction(ctx, teacher.ID, courseID)
	if err != nil {
		return nil, err
	}
	reviews := []models.Review{}
	if restrict == nil || len(restrict) > 0 {
		if reviews, err = s.repo.ListForExport(ctx, teacher.ID, restrict, s.exportLimit); err != nil {
			return nil, appErrors.Internal(err, "failed to load reviews")
		}
	}

	content, err := export.Render(format, reviewDataset(reviews), "Reviews - "+teacher.Name)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("reviews-%s.%s", teacher.ID, format),
		ContentType: format.ContentType(),
		Content:     content,
	}, nil
}

func reviewDataset(reviews []models.Review) export.Dataset {
	data := export.Dataset{Headers: []string{"Created At", "Rating", "Roll Call", "Upvotes", "Downvotes", "Comment"}}
	for _, r := range reviews {
		rollCall := "No"
		if r.DoesRollCall {
			rollCall = "Yes"
		}
		data.Rows = append(data.Rows, map[string]string{
			"Created At": r.CreatedAt.UTC().Format(time.RFC3339),
			"Rating":     strconv.FormatFloat(r.Rating, 'f', 1, 64),
			"Roll Call":  rollCall,
			"Upvotes":    strconv.Itoa(r.Upvotes),
			"Downvotes":  strconv.Itoa(r.Downvotes),
			"Comment":    r.Comment,
		})
	}
	return data
}
