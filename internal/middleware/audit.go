package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/models"
	"github.com/myrush/myrush-api/pkg/middleware/requestid"
)

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records action on resource once the wrapped handler has answered
// successfully. Failed requests leave no trail.
func Audit(repo AuditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= 400 {
			return
		}

		var userID string
		if claims := Claims(c); claims != nil {
			userID = claims.UserID
		}
		entry := models.NewAuditLog(userID, action, resource, c.Param("id"), map[string]interface{}{
			"route":      c.FullPath(),
			"method":     c.Request.Method,
			"query":      c.Request.URL.RawQuery,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": requestid.Value(c),
		}).WithClient(c.ClientIP(), c.Request.UserAgent())
		if userID == "" {
			entry.UserID = nil
		}

		// the response is already written; a client hang-up must not drop the row
		ctx := context.WithoutCancel(c.Request.Context())
		if err := repo.CreateAuditLog(ctx, entry); err != nil {
			logger.Warn("failed to record audit log",
				zap.String("action", action),
				zap.String("request_id", requestid.Value(c)),
				zap.Error(err),
			)
		}
	}
}
