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

// CommunityHandler wires the course Q&A board endpoints.
type CommunityHandler struct {
	service *service.CommunityService
}

// NewCommunityHandler creates a new handler.
func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: svc}
}

// ListPosts godoc
// @Summary Course board
// @Description Threads on a course's Q&A board; keyword search plus latest/popular/comments ordering
// @Tags Community
// @Produce json
// @Param id path string true "Course ID"
// @Param keyword query string false "Search in title and content"
// @Param sort query string false "latest, popular or comments"
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page (max 100)"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/posts [get]
func (h *CommunityHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	q := models.PostQuery{
		Keyword:  c.Query("keyword"),
		Sort:     models.PostSort(c.Query("sort")),
		Page:     page,
		PageSize: pageSize,
	}

	result, err := h.service.ListPosts(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Posts, result.Pagination)
}

// CreatePost godoc
// @Summary Open a thread
// @Description Post a question or discussion on a published course's board
// @Tags Community
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.CreatePostRequest true "Post payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/posts [post]
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post payload"))
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// GetPost godoc
// @Summary Thread detail
// @Description One board thread; reading bumps the view counter
// @Tags Community
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id} [get]
func (h *CommunityHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// UpdatePost godoc
// @Summary Edit a thread
// @Description Author or admin only
// @Tags Community
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param payload body models.UpdatePostRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /posts/{id} [put]
func (h *CommunityHandler) UpdatePost(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post payload"))
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// DeletePost godoc
// @Summary Delete a thread
// @Description Soft delete; author or admin only
// @Tags Community
// @Produce json
// @Param id path string true "Post ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /posts/{id} [delete]
func (h *CommunityHandler) DeletePost(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListComments godoc
// @Summary Thread comments
// @Description Comments on a thread, oldest first
// @Tags Community
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /posts/{id}/comments [get]
func (h *CommunityHandler) ListComments(c *gin.Context) {
	comments, err := h.service.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}

// CreateComment godoc
// @Summary Answer a thread
// @Description Comment on a post, optionally replying to another comment
// @Tags Community
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param payload body models.CreateCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id}/comments [post]
func (h *CommunityHandler) CreateComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// UpdateComment godoc
// @Summary Edit a comment
// @Description Author or admin only
// @Tags Community
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param payload body models.UpdateCommentRequest true "New content"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /comments/{id} [put]
func (h *CommunityHandler) UpdateComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.UpdateComment(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comment, nil)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description Soft delete; author or admin only
// @Tags Community
// @Produce json
// @Param id path string true "Comment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /comments/{id} [delete]
func (h *CommunityHandler) DeleteComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
