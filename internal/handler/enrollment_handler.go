package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/models"
	"github.com/jeromwolf/LearnFlow/internal/service"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// EnrollmentHandler wires enrollment endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Register the authenticated user on a published course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body map[string]string true "course_id"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		CourseID string `json:"course_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "course_id required"))
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), claims.UserID, payload.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Unenroll godoc
// @Summary Leave a course
// @Description Deactivate one of the caller's enrollments; completion history is kept
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Unenroll(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMine godoc
// @Summary List own enrollments
// @Description List the caller's enrollments with course info
// @Tags Enrollments
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := enrollmentFilterFromQuery(c)
	enrollments, total, err := h.service.ListMine(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// List godoc
// @Summary List enrollments
// @Description List enrollments across users; admin only
// @Tags Enrollments
// @Produce json
// @Param course_id query string false "Course ID"
// @Param user_id query string false "User ID"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := enrollmentFilterFromQuery(c)
	filter.UserID = c.Query("user_id")
	filter.CourseID = c.Query("course_id")

	enrollments, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

func enrollmentFilterFromQuery(c *gin.Context) models.EnrollmentFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	filter := models.EnrollmentFilter{
		Page:      page,
		PageSize:  size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if v := c.Query("active"); v != "" {
		active := v == "true"
		filter.Active = &active
	}
	return filter
}
