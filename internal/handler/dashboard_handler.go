package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/service"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// DashboardHandler wires instructor dashboard endpoints.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Instructor dashboard summary
// @Description Aggregate figures for the instructor's courses
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export enrollments
// @Description Download the instructor's enrollment list as CSV or PDF
// @Tags Dashboard
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /dashboard/enrollments/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.ExportEnrollments(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("enrollments-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
