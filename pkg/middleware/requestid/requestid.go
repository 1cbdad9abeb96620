package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the correlation ID in both directions.
const Header = "X-Request-ID"

const (
	ginKey   = "request_id"
	maxIDLen = 64
)

type ctxKey struct{}

// Middleware tags each request with a correlation ID, reusing a well-formed
// inbound X-Request-ID and minting a UUID otherwise. The ID is echoed back
// and stored on both the gin and request contexts.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !valid(id) {
			id = uuid.NewString()
		}

		c.Set(ginKey, id)
		c.Header(Header, id)
		c.Request = c.Request.WithContext(WithValue(c.Request.Context(), id))
		c.Next()
	}
}

// Value returns the ID stored by Middleware on c.
func Value(c *gin.Context) string {
	return c.GetString(ginKey)
}

// WithValue returns a copy of ctx carrying id.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the ID placed by Middleware, if any.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// valid accepts short printable tokens so client IDs cannot smuggle
// control characters into log lines.
func valid(id string) bool {
	if id == "" || len(id) > maxIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
