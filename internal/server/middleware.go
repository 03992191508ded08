package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/cabledesk/internal/observability/context"
	"github.com/smallbiznis/cabledesk/pkg/telemetry"
)

const (
	HeaderOperator     = "X-Operator"
	HeaderOperatorRole = "X-Operator-Role"
)

// OperatorContext puts the acting operator on the request context. Requests
// without an X-Operator header act as the configured default operator.
func (s *Server) OperatorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.GetHeader(HeaderOperator))
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderOperatorRole)))
		if name == "" {
			name = s.cfg.DefaultOperator
			if role == "" {
				role = s.cfg.DefaultOperatorRole
			}
		}

		ctx := obscontext.WithOperator(c.Request.Context(), obscontext.Operator{Name: name, Role: role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func metricsMiddleware(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPIRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
