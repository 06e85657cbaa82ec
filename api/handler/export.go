package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeview/cache"
	"github.com/use-agent/scrapeview/models"
	"github.com/use-agent/scrapeview/session"
)

// ExportsPath is the route prefix artifacts are served under.
const ExportsPath = "/api/v1/exports/"

// Export returns a handler for POST /api/v1/export. The artifact is kept in
// the store for later download.
func Export(sess *session.Session, store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := sess.Export()
		if err != nil {
			respondError(c, err)
			return
		}
		store.Set(a)

		c.JSON(http.StatusOK, models.ExportResponse{
			Name: a.Name,
			Size: a.Size(),
			URL:  ExportsPath + a.Name,
		})
	}
}

// Download returns a handler for GET /api/v1/exports/:name.
func Download(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		a, ok := store.Get(name)
		if !ok {
			writeError(c, http.StatusNotFound, models.ErrCodeNotFound, fmt.Sprintf("export %q not found or expired", name))
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
		c.Data(http.StatusOK, "application/json", a.Body)
	}
}
