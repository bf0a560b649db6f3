package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/service"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// NoteHandler wires lesson note endpoints.
type NoteHandler struct {
	service *service.NoteService
}

// NewNoteHandler creates a new handler.
func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{service: svc}
}

// Create godoc
// @Summary Add a note
// @Description Pin a note to a playback position on a lesson the user can watch
// @Tags Notes
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body map[string]interface{} true "seconds and content"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /lessons/{lessonId}/notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Seconds int    `json:"seconds"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}

	note, err := h.service.Create(c.Request.Context(), claims.UserID, c.Param("lessonId"), payload.Seconds, payload.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// List godoc
// @Summary List notes on a lesson
// @Description The caller's notes on a lesson ordered by playback position
// @Tags Notes
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{lessonId}/notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notes, err := h.service.ListByLesson(c.Request.Context(), claims.UserID, c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// Delete godoc
// @Summary Delete a note
// @Description Remove one of the caller's own notes
// @Tags Notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
