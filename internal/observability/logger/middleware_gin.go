package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/cabledesk/internal/observability/context"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// loggedQueryParams are the query keys copied into request logs. Free-text
// search terms can carry subscriber names or phone numbers and stay out.
var loggedQueryParams = []string{"area", "fee_range", "confirm", "dry_run"}

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug           bool
	ErrorClassifier func(err error) (string, string)
	// QuietRoutes are logged at debug level. Defaults to /health and /metrics.
	QuietRoutes []string
}

// GinMiddleware logs one line per request with the request id, the route
// template and the filter parameters that are safe to record.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	quiet := cfg.QuietRoutes
	if len(quiet) == 0 {
		quiet = []string{"/health", "/metrics"}
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestIDFor(c)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		fields := make([]zap.Field, 0, 12)
		fields = append(fields,
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		)
		query := c.Request.URL.Query()
		for _, key := range loggedQueryParams {
			if value := query.Get(key); value != "" {
				fields = append(fields, zap.String("query."+key, value))
			}
		}

		if last := c.Errors.Last(); last != nil {
			errType, errCode := "unclassified", ""
			if cfg.ErrorClassifier != nil {
				errType, errCode = cfg.ErrorClassifier(last.Err)
			}
			fields = append(fields, zap.String("error_type", errType), zap.String("error_code", errCode))
			if cfg.Debug {
				fields = append(fields, zap.String("error", last.Err.Error()))
			}
		}

		log := FromContext(c.Request.Context())
		switch {
		case routeIn(route, quiet):
			log.Debug("http.request", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("http.request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("http.request", fields...)
		default:
			log.Info("http.request", fields...)
		}
	}
}

// requestIDFor reuses an inbound X-Request-Id and echoes it back.
func requestIDFor(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(requestIDHeader))
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	return id
}

func routeIn(route string, routes []string) bool {
	for _, r := range routes {
		if strings.EqualFold(r, route) {
			return true
		}
	}
	return false
}
