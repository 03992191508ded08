package server

import (
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/cabledesk/internal/observability/context"
)

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeWithContext(c *gin.Context, object string, action string) error {
	operator, ok := obscontext.OperatorFromContext(c.Request.Context())
	if !ok {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	return s.authzSvc.Authorize(c.Request.Context(), operator, object, action)
}

func (s *Server) operatorName(c *gin.Context) string {
	operator, ok := obscontext.OperatorFromContext(c.Request.Context())
	if !ok {
		return ""
	}
	return operator.Name
}
