package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/api/handler"
	"github.com/use-agent/scrapeview/api/middleware"
	"github.com/use-agent/scrapeview/cache"
	"github.com/use-agent/scrapeview/config"
	"github.com/use-agent/scrapeview/session"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is outside auth so monitoring probes always work.
func NewRouter(sess *session.Session, store *cache.Cache, cfg *config.Config, logger *zap.Logger, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(sess, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(sess))
	protected.GET("/view", handler.View(sess))
	protected.POST("/sections/:id/toggle", handler.Toggle(sess))
	protected.POST("/export", handler.Export(sess, store))
	protected.GET("/exports/:name", handler.Download(store))

	// The HTML page shares the API's auth.
	var page []gin.HandlerFunc
	if cfg.Auth.Enabled {
		page = append(page, middleware.Auth(cfg.Auth.APIKeys))
	}
	r.GET("/", append(page, handler.Index(sess))...)

	return r
}

// NewHandler wraps the router with OpenTelemetry server spans.
func NewHandler(r *gin.Engine) http.Handler {
	return otelhttp.NewHandler(r, "scrapeview",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}
