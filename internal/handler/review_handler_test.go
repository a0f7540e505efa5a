package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teacher-review-api/internal/dto"
	"github.com/noah-isme/teacher-review-api/internal/models"
	"github.com/noah-isme/teacher-review-api/internal/service"
	appErrors "github.com/noah-isme/teacher-review-api/pkg/errors"
)

type reviewServiceMock struct {
	listResp     []models.Review
	lastFilter   models.ReviewFilter
	voteResp     *models.VoteResult
	voteErr      error
	lastVote     dto.VoteRequest
	submitResp   *dto.SubmitReviewResponse
	submitErr    error
	submitCalled bool
	lastOrigin   service.SubmissionOrigin
	lastSubmit   dto.SubmitReviewRequest
	exportFile   *service.ExportFile
	exportErr    error
}

func (m *reviewServiceMock) ListByTeacher(ctx context.Context, filter models.ReviewFilter) ([]models.Review, *models.Pagination, error) {
	m.lastFilter = filter
	return m.listResp, models.NewPagination(filter.Page, filter.PageSize, len(m.listResp)), nil
}

func (m *reviewServiceMock) Vote(ctx context.Context, req dto.VoteRequest) (*models.VoteResult, error) {
	m.lastVote = req
	return m.voteResp, m.voteErr
}

func (m *reviewServiceMock) Submit(ctx context.Context, req dto.SubmitReviewRequest, origin service.SubmissionOrigin) (*dto.SubmitReviewResponse, error) {
	m.submitCalled = true
	m.lastSubmit = req
	m.lastOrigin = origin
	return m.submitResp, m.submitErr
}

func (m *reviewServiceMock) Export(ctx context.Context, teacherID, courseID, format string) (*service.ExportFile, error) {
	return m.exportFile, m.exportErr
}

func postJSON(handlerFn gin.HandlerFunc, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	handlerFn(c)
	return w
}

func TestReviewHandlerListDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{listResp: []models.Review{{ID: "r1", CourseReviews: []models.CourseReview{}}}}
	handler := NewReviewHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/teachers/t1/reviews?course_id=c1&order_by_recent=false", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.ListByTeacher(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReviewFilter{TeacherID: "t1", CourseID: "c1", Page: 1, PageSize: 10, OrderByRecent: false}, mockSvc.lastFilter)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"course_reviews":[]`)
}

func TestReviewHandlerVote(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{voteResp: &models.VoteResult{ReviewID: "r1", Upvotes: 4, Downvotes: 1}}
	handler := NewReviewHandler(mockSvc)

	w := postJSON(handler.Vote, "/reviews/vote", `{"review_id":"r1","vote_type":"upvote"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.VoteRequest{ReviewID: "r1", VoteType: "upvote"}, mockSvc.lastVote)
	env := decodeEnvelope(t, w)
	assert.JSONEq(t, `{"review_id":"r1","upvotes":4,"downvotes":1}`, string(env.Data))
	assert.Equal(t, "vote recorded", env.Message)
}

func TestReviewHandlerVoteErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(&reviewServiceMock{voteErr: appErrors.Clone(appErrors.ErrInvalidArgument, "vote_type must be upvote or downvote")})

	w := postJSON(handler.Vote, "/reviews/vote", `{"review_id":"r1","vote_type":"like"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "INVALID_ARGUMENT", env.Error.Code)

	w = postJSON(handler.Vote, "/reviews/vote", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandlerSubmitCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{submitResp: &dto.SubmitReviewResponse{ReviewID: "r9"}}
	handler := NewReviewHandler(mockSvc)

	body := `{"teacher_id":"t1","rating":4.5,"does_roll_call":false,"comment":"Great","device":{"user_agent":"UA","screen_width":1280}}`
	w := postJSON(handler.Submit, "/submit-review", body, map[string]string{
		"X-Forwarded-For": "203.0.113.7",
		"User-Agent":      "test-agent",
		"Accept-Language": "en-US",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"review_id":"r9"}`, string(env.Data))

	assert.Equal(t, service.SubmissionOrigin{ForwardedFor: "203.0.113.7", UserAgent: "test-agent", AcceptLanguage: "en-US"}, mockSvc.lastOrigin)
	require.NotNil(t, mockSvc.lastSubmit.DoesRollCall)
	assert.False(t, *mockSvc.lastSubmit.DoesRollCall)
	require.NotNil(t, mockSvc.lastSubmit.Device)
	assert.Equal(t, 1280, mockSvc.lastSubmit.Device.ScreenWidth)
}

func TestReviewHandlerSubmitRejectsWrongTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := map[string]string{
		`{"teacher_id":"t1","rating":4,"does_roll_call":"true","comment":"x"}`:    "does_roll_call must be a boolean",
		`{"teacher_id":"t1","rating":"four","does_roll_call":true,"comment":"x"}`: "rating must be a number",
	}
	for body, message := range cases {
		mockSvc := &reviewServiceMock{}
		handler := NewReviewHandler(mockSvc)
		w := postJSON(handler.Submit, "/submit-review", body, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, message, env.Error.Message)
		assert.False(t, mockSvc.submitCalled)
	}
}

func TestReviewHandlerSubmitThrottled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	throttled := appErrors.Wrap(&service.CooldownError{Remaining: 90*time.Second + 500*time.Millisecond},
		appErrors.ErrTooManyRequests.Code, appErrors.ErrTooManyRequests.Status, "please try again later")
	handler := NewReviewHandler(&reviewServiceMock{submitErr: throttled})

	w := postJSON(handler.Submit, "/submit-review", `{"teacher_id":"t1","rating":4,"does_roll_call":true,"comment":"x"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "91", w.Header().Get("Retry-After"))
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, float64(90500), env.Meta["retry_after_ms"])
}

func TestReviewHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(&reviewServiceMock{exportFile: &service.ExportFile{
		Filename:    "reviews-t1.csv",
		ContentType: "text/csv; charset=utf-8",
		Content:     []byte("a,b\n"),
	}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/teachers/t1/reviews/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="reviews-t1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, pingFunc(func(context.Context) error { return nil })).Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, pingFunc(func(context.Context) error { return assert.AnError })).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }
