package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/use-agent/scrapeview/models"
	"github.com/use-agent/scrapeview/session"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse the request body.
//  2. Submit through the session; a concurrent submission is rejected.
//  3. Answer with the resulting view, or map the error to a status.
func Scrape(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, models.ErrCodeInvalidInput, "invalid request body: "+err.Error())
			return
		}

		// ── 2. Submit ───────────────────────────────────────────────
		// A client hanging up must not cancel the backend call.
		ctx := context.WithoutCancel(c.Request.Context())
		view, err := sess.Submit(ctx, req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, view)
	}
}

// respondError maps a session or controller error to the HTTP status code
// and writes a structured JSON error response.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status, code, msg := http.StatusInternalServerError, models.ErrCodeInternal, "internal error"
	switch {
	case errors.Is(err, models.ErrBusy):
		status, code, msg = http.StatusConflict, models.ErrCodeBusy, err.Error()
	case errors.Is(err, session.ErrNoResult):
		status, code, msg = http.StatusNotFound, models.ErrCodeNoResult, err.Error()
	case errors.Is(err, session.ErrUnknownSection):
		status, code, msg = http.StatusNotFound, models.ErrCodeNotFound, err.Error()
	case models.ErrorKind(err) == "validation":
		status, code, msg = http.StatusBadRequest, models.ErrCodeInvalidInput, err.Error()
	case models.ErrorKind(err) == "request":
		status, code, msg = http.StatusBadGateway, models.ErrCodeRequest, err.Error()
	}
	writeError(c, status, code, msg)
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: msg},
	})
}
