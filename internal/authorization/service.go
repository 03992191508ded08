package authorization

import (
	"context"
	"errors"

	obscontext "github.com/smallbiznis/cabledesk/internal/observability/context"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

type Service interface {
	Authorize(ctx context.Context, operator obscontext.Operator, object string, action string) error
}
