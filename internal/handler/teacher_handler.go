package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-review-api/internal/middleware"
	"github.com/noah-isme/teacher-review-api/internal/models"
	"github.com/noah-isme/teacher-review-api/pkg/response"
)

type teacherService interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.TeacherDetail, error)
	Departments(ctx context.Context) ([]string, bool, error)
}

// TeacherHandler exposes teacher search, detail and department endpoints.
type TeacherHandler struct {
	service teacherService
}

// NewTeacherHandler builds a new handler.
func NewTeacherHandler(service teacherService) *TeacherHandler {
	return &TeacherHandler{service: service}
}

// List godoc
// @Summary Search teachers
// @Tags Teachers
// @Produce json
// @Param search query string false "Case-insensitive name substring"
// @Param department query string false "Exact department"
// @Param sort_by query string false "name | rating | review_count" default(name)
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter := models.TeacherFilter{
		Search:     c.Query("search"),
		Department: strings.TrimSpace(c.Query("department")),
		SortBy:     c.DefaultQuery("sort_by", models.TeacherSortName),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	teachers, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// Get godoc
// @Summary Get a teacher with course tags and recent activity
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Departments godoc
// @Summary List departments
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *TeacherHandler) Departments(c *gin.Context) {
	departments, hit, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, departments, nil, middleware.ExtractMeta(c))
}
