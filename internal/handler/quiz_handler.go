package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/models"
	"github.com/jeromwolf/LearnFlow/internal/service"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// QuizHandler wires the quiz and attempt endpoints.
type QuizHandler struct {
	service *service.QuizService
}

// NewQuizHandler creates a new handler.
func NewQuizHandler(svc *service.QuizService) *QuizHandler {
	return &QuizHandler{service: svc}
}

// Create godoc
// @Summary Author a quiz
// @Description Create a quiz with its questions on an owned course
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}

	content, err := h.service.Create(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, content)
}

// ListByCourse godoc
// @Summary Course quizzes
// @Description Quizzes on a course; managers see drafts, takers see published only
// @Tags Quizzes
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/quizzes [get]
func (h *QuizHandler) ListByCourse(c *gin.Context) {
	quizzes, err := h.service.ListByCourse(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quizzes, nil)
}

// Get godoc
// @Summary Quiz detail
// @Description Quiz with questions; takers get the answer key stripped
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /quizzes/{id} [get]
func (h *QuizHandler) Get(c *gin.Context) {
	content, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}

// Update godoc
// @Summary Edit quiz settings
// @Description Course instructor or admin only
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body models.UpdateQuizRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /quizzes/{id} [put]
func (h *QuizHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}

	quiz, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// Delete godoc
// @Summary Delete a quiz
// @Description Removes the quiz with its attempts; course instructor or admin only
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StartAttempt godoc
// @Summary Start an attempt
// @Description Opens a new in-progress attempt; refused once the attempt limit is spent
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quizzes/{id}/attempts [post]
func (h *QuizHandler) StartAttempt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	attempt, err := h.service.StartAttempt(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attempt)
}

// SubmitAttempt godoc
// @Summary Submit an attempt
// @Description Stores the answers and auto-grades choice questions
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param payload body models.SubmitQuizRequest true "Answers"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /quiz-attempts/{id}/submit [post]
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	detail, err := h.service.SubmitAttempt(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetAttempt godoc
// @Summary Attempt detail
// @Description An attempt with its answers; owner or admin only
// @Tags Quizzes
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /quiz-attempts/{id} [get]
func (h *QuizHandler) GetAttempt(c *gin.Context) {
	detail, err := h.service.GetAttempt(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListMyAttempts godoc
// @Summary My attempts
// @Description The caller's attempts, newest first; filterable by quiz and status
// @Tags Quizzes
// @Produce json
// @Param quiz_id query string false "Quiz ID"
// @Param status query string false "Attempt status"
// @Success 200 {object} response.Envelope
// @Router /quiz-attempts [get]
func (h *QuizHandler) ListMyAttempts(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	attempts, err := h.service.ListMyAttempts(c.Request.Context(), claims.UserID, c.Query("quiz_id"), models.AttemptStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempts, nil)
}

// GradeAttempt godoc
// @Summary Grade an attempt
// @Description Manually score essay and short-answer responses; admin only
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param payload body models.GradeQuizRequest true "Grades"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quiz-attempts/{id}/grade [post]
func (h *QuizHandler) GradeAttempt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.GradeQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grading payload"))
		return
	}

	detail, err := h.service.GradeAttempt(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Progress godoc
// @Summary My quiz progress
// @Description Completed attempts, best score and pass flag; zeroes before the first finished attempt
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Router /quizzes/{id}/progress [get]
func (h *QuizHandler) Progress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	progress, err := h.service.Progress(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Statistics godoc
// @Summary Quiz statistics
// @Description Finished-attempt rollup with per-question accuracy; course instructor or admin only
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /quizzes/{id}/statistics [get]
func (h *QuizHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
