package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
)

// track records a handler operation as a service call. The returned func
// reads the final status from the response.
func (h *Handlers) track(c *gin.Context, operation string) func() {
	timer := monitoring.NewTimer(h.metrics, "api", operation)
	return func() {
		status := "success"
		if c.Writer.Status() >= http.StatusBadRequest {
			status = "error"
		}
		timer.Stop(status)
	}
}

// MetricsJSON returns a JSON snapshot of the service metrics for dashboards
// that do not scrape Prometheus.
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now().UTC(),
		"metrics":   h.metrics.Snapshot(),
	})
}
