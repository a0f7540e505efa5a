package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-review-api/internal/dto"
	"github.com/noah-isme/teacher-review-api/internal/middleware"
	"github.com/noah-isme/teacher-review-api/internal/models"
	"github.com/noah-isme/teacher-review-api/internal/service"
	"github.com/noah-isme/teacher-review-api/pkg/response"
)

type reviewService interface {
	ListByTeacher(ctx context.Context, filter models.ReviewFilter) ([]models.Review, *models.Pagination, error)
	Vote(ctx context.Context, req dto.VoteRequest) (*models.VoteResult, error)
	Submit(ctx context.Context, req dto.SubmitReviewRequest, origin service.SubmissionOrigin) (*dto.SubmitReviewResponse, error)
	Export(ctx context.Context, teacherID, courseID, format string) (*service.ExportFile, error)
}

// ReviewHandler exposes review listing, voting, submission and export.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler builds a new handler.
func NewReviewHandler(service reviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// ListByTeacher godoc
// @Summary List a teacher's reviews
// @Tags Reviews
// @Produce json
// @Param id path string true "Teacher ID"
// @Param course_id query string false "Only reviews rating this course"
// @Param order_by_recent query bool false "Newest first; false orders by upvotes" default(true)
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/reviews [get]
func (h *ReviewHandler) ListByTeacher(c *gin.Context) {
	filter := models.ReviewFilter{
		TeacherID:     c.Param("id"),
		CourseID:      c.Query("course_id"),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "page_size", 10),
		OrderByRecent: queryBool(c, "order_by_recent", true),
	}
	reviews, pagination, err := h.service.ListByTeacher(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, pagination)
}

// Vote godoc
// @Summary Vote a review up or down
// @Tags Reviews
// @Accept json
// @Produce json
// @Param payload body dto.VoteRequest true "Vote payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reviews/vote [post]
func (h *ReviewHandler) Vote(c *gin.Context) {
	var req dto.VoteRequest
	if err := bindJSON(c, &req, "invalid vote payload"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Vote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, result, "vote recorded")
}

// Submit godoc
// @Summary Submit an anonymous review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param payload body dto.SubmitReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /submit-review [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	var req dto.SubmitReviewRequest
	if err := bindJSON(c, &req, "invalid review payload"); err != nil {
		response.Error(c, err)
		return
	}
	origin := service.SubmissionOrigin{
		ForwardedFor:   c.GetHeader("X-Forwarded-For"),
		UserAgent:      c.GetHeader("User-Agent"),
		AcceptLanguage: c.GetHeader("Accept-Language"),
	}
	result, err := h.service.Submit(c.Request.Context(), req, origin)
	if err != nil {
		var cooldown *service.CooldownError
		if errors.As(err, &cooldown) {
			c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(cooldown.Remaining.Seconds())), 10))
			middleware.SetMeta(c, "retry_after_ms", cooldown.Remaining.Milliseconds())
			response.Error(c, err, middleware.ExtractMeta(c))
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, result, "review submitted")
}

// Export godoc
// @Summary Export a teacher's reviews
// @Tags Reviews
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Teacher ID"
// @Param format query string false "csv | pdf" default(csv)
// @Param course_id query string false "Only reviews rating this course"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/reviews/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("course_id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
