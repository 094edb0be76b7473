package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-records-api/internal/service"
)

// OpsHandler exposes the operational endpoints: liveness, readiness and
// Prometheus metrics.
type OpsHandler struct {
	db      *sqlx.DB
	metrics *service.MetricsService
}

// NewOpsHandler constructs an OpsHandler.
func NewOpsHandler(db *sqlx.DB, metrics *service.MetricsService) *OpsHandler {
	return &OpsHandler{db: db, metrics: metrics}
}

// Health responds with a generic OK payload for liveness usage.
func (h *OpsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness by pinging the store.
func (h *OpsHandler) Ready(c *gin.Context) {
	if h.db == nil || h.db.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *OpsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
