package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordVote("upvote")
	m.RecordVote("upvote")
	m.RecordSubmission(SubmissionAccepted)
	m.RecordSubmission(SubmissionThrottled)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.votes.WithLabelValues("upvote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(SubmissionThrottled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.throttleDenied))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.cacheHitRatio))
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/teachers", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/api/teachers",status="200"} 1`)

	var nilMetrics *MetricsService
	rec = httptest.NewRecorder()
	nilMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	nilMetrics.RecordVote("upvote")
}
