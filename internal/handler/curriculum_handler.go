package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/service"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// CurriculumHandler serves the per-user lesson tree and progression moves.
type CurriculumHandler struct {
	service *service.CurriculumService
}

// NewCurriculumHandler creates a new handler.
func NewCurriculumHandler(svc *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{service: svc}
}

// Get godoc
// @Summary Course curriculum
// @Description Section/lesson tree with per-user lesson states; anonymous viewers see previews only
// @Tags Curriculum
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/curriculum [get]
func (h *CurriculumHandler) Get(c *gin.Context) {
	cur, err := h.service.GetCurriculum(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cur, nil)
}

// SelectLesson godoc
// @Summary Select a lesson
// @Description Make a lesson current for the enrolled user; selecting a locked lesson leaves the tree unchanged
// @Tags Curriculum
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/lessons/{lessonId}/select [post]
func (h *CurriculumHandler) SelectLesson(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	cur, err := h.service.SelectLesson(c.Request.Context(), c.Param("id"), claims.UserID, c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cur, nil)
}

// CompleteLesson godoc
// @Summary Complete a lesson
// @Description Record that playback finished; replays keep the first completion time
// @Tags Curriculum
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/lessons/{lessonId}/complete [post]
func (h *CurriculumHandler) CompleteLesson(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.CompleteLesson(c.Request.Context(), c.Param("id"), claims.UserID, c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Progress godoc
// @Summary Course progress
// @Description Aggregate completion for the authenticated user
// @Tags Curriculum
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/progress [get]
func (h *CurriculumHandler) Progress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.Progress(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
