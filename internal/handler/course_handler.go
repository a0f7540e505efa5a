package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-review-api/internal/middleware"
	"github.com/noah-isme/teacher-review-api/internal/models"
	"github.com/noah-isme/teacher-review-api/internal/service"
	"github.com/noah-isme/teacher-review-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) (*service.CourseListResult, bool, error)
}

// CourseHandler exposes the course catalogue.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler builds a new handler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// List godoc
// @Summary Search courses
// @Tags Courses
// @Produce json
// @Param search query string false "Case-insensitive course name substring"
// @Param order_by_popularity query bool false "Restrict to the most associated courses"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Search:            c.Query("search"),
		Page:              queryInt(c, "page", 1),
		PageSize:          queryInt(c, "page_size", 20),
		OrderByPopularity: queryBool(c, "order_by_popularity", false),
	}
	result, hit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result.Courses, result.Pagination, middleware.ExtractMeta(c))
}
