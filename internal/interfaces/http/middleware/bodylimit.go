package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
)

// PathLimit overrides the body limit for paths under Prefix
type PathLimit struct {
	Prefix   string
	MaxBytes int64
}

// BodyLimit rejects requests whose declared body exceeds the limit and caps
// streamed bodies at the same size. The first matching override wins, so
// document uploads can be allowed more than JSON bodies.
func BodyLimit(maxBytes int64, overrides ...PathLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		for _, o := range overrides {
			if strings.HasPrefix(c.Request.URL.Path, o.Prefix) {
				limit = o.MaxBytes
				break
			}
		}
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			abort(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBodyTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
