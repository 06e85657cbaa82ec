package models

// Error codes used by the scrapeview HTTP surface.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeBusy         = "REQUEST_IN_FLIGHT"
	ErrCodeRequest      = "SCRAPE_REQUEST_FAILED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeNoResult     = "NO_RESULT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse wraps an ErrorDetail for non-2xx answers.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Busy    bool   `json:"busy"`
	Phase   string `json:"phase"`
	Version string `json:"version"`
}

// ExportResponse is the response for POST /api/v1/export.
type ExportResponse struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	URL  string `json:"url"`
}
