package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/tracing"
)

// skippedPaths are never folded into the dashboard metrics: static assets
// and the long-lived streaming endpoints would skew the numbers.
var skippedPaths = []string{"/metrics", "/favicon.ico", "/static", "/api/stream", "/ws"}

// Instrument records every API request into the collector and tags the
// request with an id. Server errors additionally capture a forensic
// snapshot.
func Instrument(c *collector.Collector) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Header.Get("X-Request-ID") == "" {
			ctx.Request.Header.Set("X-Request-ID", uuid.NewString())
		}
		ctx.Header("X-Request-ID", ctx.Request.Header.Get("X-Request-ID"))

		path := ctx.Request.URL.Path
		if isSkipped(path) {
			ctx.Next()
			return
		}

		start := time.Now()
		ctx.Next()
		durationMs := float64(time.Since(start).Microseconds()) / 1000

		status := ctx.Writer.Status()
		if status >= 500 {
			headers := map[string]string{}
			for k := range ctx.Request.Header {
				headers[k] = ctx.Request.Header.Get(k)
			}
			c.RecordErrorSnapshot(models.ErrorSnapshot{
				Source:         "api",
				Endpoint:       path,
				Method:         ctx.Request.Method,
				Status:         status,
				RequestHeaders: models.RedactHeaders(headers),
				TraceID:        tracing.ActiveTraceID(ctx.Request.Context()),
				Timestamp:      start.UnixMilli(),
			})
		}
		c.RecordRequest(path, durationMs, status)
	}
}

func isSkipped(path string) bool {
	for _, p := range skippedPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
