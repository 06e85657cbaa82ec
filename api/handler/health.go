package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeview/models"
	"github.com/use-agent/scrapeview/session"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports "busy" instead of "healthy" while a scrape is in flight; the
// status code stays 200 either way so probes do not flap.
func Health(sess *session.Session, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, _ := sess.Snapshot()

		status := "healthy"
		if st.Busy() {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Busy:    st.Busy(),
			Phase:   st.Phase.String(),
			Version: Version,
		})
	}
}
