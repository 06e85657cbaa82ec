package models

// ScrapeRequest is the payload for POST /scrape on the backend, and for
// POST /api/v1/scrape on the scrapeview HTTP surface.
type ScrapeRequest struct {
	// URL is the target page. Required.
	URL string `json:"url"`
}

// ScrapeResponse is the backend's success body.
type ScrapeResponse struct {
	Result *ScrapeResult `json:"result"`
}

// FailureResponse is the backend's failure body. Detail is the documented
// field; Error covers backends that answer with a {"error": {code, message}} envelope.
type FailureResponse struct {
	Detail string       `json:"detail,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// Message returns the most specific reason in the body, or "".
func (f FailureResponse) Message() string {
	if f.Detail != "" {
		return f.Detail
	}
	if f.Error != nil {
		return f.Error.Message
	}
	return ""
}

// ErrorDetail is a structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
