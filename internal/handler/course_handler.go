package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/models"
	"github.com/jeromwolf/LearnFlow/internal/service"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// CourseHandler wires instructor-side course management endpoints.
type CourseHandler struct {
	service *service.CourseService
}

// NewCourseHandler creates a new handler.
func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// Get godoc
// @Summary Course detail
// @Description Return one course; unpublished drafts are visible to their owner only
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ListMine godoc
// @Summary List own courses
// @Description List the instructor's courses including drafts
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /courses/mine [get]
func (h *CourseHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courses, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Create godoc
// @Summary Create a course draft
// @Description Create an unpublished course owned by the caller
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body models.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update a course
// @Description Edit course fields; owner or admin only
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req models.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.Update(c.Request.Context(), c.Param("id"), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// SetPublished godoc
// @Summary Publish or unpublish a course
// @Description Flip storefront visibility; owner or admin only
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body map[string]bool true "published flag"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/publish [post]
func (h *CourseHandler) SetPublished(c *gin.Context) {
	var payload struct {
		Published *bool `json:"published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "published flag required"))
		return
	}

	if err := h.service.SetPublished(c.Request.Context(), c.Param("id"), claimsFromContext(c), *payload.Published); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Deactivate a course
// @Description Remove the course from the storefront by unpublishing it
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.SetPublished(c.Request.Context(), c.Param("id"), claimsFromContext(c), false); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddSection godoc
// @Summary Add a section
// @Description Append a section to the course curriculum; owner or admin only
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/sections [post]
func (h *CourseHandler) AddSection(c *gin.Context) {
	var req models.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}

	section, err := h.service.AddSection(c.Request.Context(), c.Param("id"), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// AddLesson godoc
// @Summary Add a lesson
// @Description Append a lesson to a section of the course; owner or admin only
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param sectionId path string true "Section ID"
// @Param payload body models.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/sections/{sectionId}/lessons [post]
func (h *CourseHandler) AddLesson(c *gin.Context) {
	var req models.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}

	lesson, err := h.service.AddLesson(c.Request.Context(), c.Param("id"), c.Param("sectionId"), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// RemoveLesson godoc
// @Summary Delete a lesson
// @Description Remove a lesson from the course; owner or admin only
// @Tags Courses
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/lessons/{lessonId} [delete]
func (h *CourseHandler) RemoveLesson(c *gin.Context) {
	if err := h.service.RemoveLesson(c.Request.Context(), c.Param("id"), c.Param("lessonId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
