package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/service"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// ReviewHandler wires course review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
}

// NewReviewHandler creates a new handler.
func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// List godoc
// @Summary Course reviews
// @Description Reviews for a course, newest first
// @Tags Reviews
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	reviews, err := h.service.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Submit godoc
// @Summary Rate a course
// @Description Create or replace the caller's review; requires an active enrollment
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.SubmitReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/reviews [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	review, err := h.service.Submit(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// Delete godoc
// @Summary Delete own review
// @Description Remove the caller's review; admins may remove any
// @Tags Reviews
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/reviews [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	userID := claims.UserID
	if target := c.Query("user_id"); target != "" {
		userID = target
	}

	if err := h.service.Delete(c.Request.Context(), claims, userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
