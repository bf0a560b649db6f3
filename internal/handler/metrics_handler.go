package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/service"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics   *service.MetricsService
	startedAt time.Time
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, startedAt: time.Now().UTC()}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with the service identity and uptime for
// readiness/liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        "learnflow-api",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"time":           time.Now().UTC().Format(time.RFC3339),
	})
}

// Snapshot serves the aggregated system metrics; admin only.
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
