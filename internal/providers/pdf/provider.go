package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateRoster(ctx context.Context, data RosterData) (io.Reader, error)
}

var Module = fx.Module("pdf",
	fx.Provide(New),
)
