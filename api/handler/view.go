package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeview/models"
	"github.com/use-agent/scrapeview/render"
	"github.com/use-agent/scrapeview/session"
)

// View returns a handler for GET /api/v1/view.
//
// ?format=markdown answers with the rendered Markdown instead of JSON;
// ?json=true adds each expanded section's full JSON to it.
func View(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := sess.View()

		switch strings.ToLower(c.DefaultQuery("format", "json")) {
		case "json":
			c.JSON(http.StatusOK, v)
		case "markdown", "md":
			md := v.Markdown(render.MarkdownOptions{ShowJSON: c.Query("json") == "true"})
			c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
		default:
			writeError(c, http.StatusBadRequest, models.ErrCodeInvalidInput, "format must be json or markdown")
		}
	}
}

// Toggle returns a handler for POST /api/v1/sections/:id/toggle.
func Toggle(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := sess.Toggle(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// Index returns a handler for GET /, the HTML rendering of the view.
func Index(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		md := sess.View().Markdown(render.MarkdownOptions{})
		c.Data(http.StatusOK, "text/html; charset=utf-8", render.Page(md, "scrapeview"))
	}
}
