package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeview/models"
)

const (
	// HeaderAPIKey carries a bare key. Authorization: Bearer <key> also works.
	HeaderAPIKey = "X-API-Key"

	// ContextKeyAPIKey is where Auth stores the accepted key.
	ContextKeyAPIKey = "api_key"
)

// Auth returns API-key authentication middleware. Keys are compared in
// constant time by digest. With no usable keys every request passes.
func Auth(apiKeys []string) gin.HandlerFunc {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	if len(digests) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	accepted := func(key string) bool {
		d := sha256.Sum256([]byte(key))
		ok := 0
		for i := range digests {
			ok |= subtle.ConstantTimeCompare(d[:], digests[i][:])
		}
		return ok == 1
	}

	return func(c *gin.Context) {
		key := presentedKey(c.Request)
		switch {
		case key == "":
			abortUnauthorized(c, "missing API key: provide "+HeaderAPIKey+" or Authorization: Bearer <key>")
		case !accepted(key):
			abortUnauthorized(c, "invalid API key")
		default:
			c.Set(ContextKeyAPIKey, key)
			c.Next()
		}
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: models.ErrorDetail{Code: models.ErrCodeUnauthorized, Message: msg},
	})
}

// presentedKey reads the API-key header, falling back to a bearer token.
func presentedKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
