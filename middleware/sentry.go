package middleware

import (
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Sentry reports errors attached to 5xx responses. Without sentry.Init the
// hub has no client and capturing is a no-op.
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 500 || len(c.Errors) == 0 {
			return
		}

		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		hub.Scope().SetTag("route", c.FullPath())
		if requestID := c.GetString("requestId"); requestID != "" {
			hub.Scope().SetTag("request_id", requestID)
		}
		for _, e := range c.Errors {
			hub.CaptureException(e.Err)
		}
	}
}
