package main

import (
	"context"

	"github.com/smallbiznis/cabledesk/internal/authorization"
	"github.com/smallbiznis/cabledesk/internal/clock"
	"github.com/smallbiznis/cabledesk/internal/config"
	"github.com/smallbiznis/cabledesk/internal/migration"
	"github.com/smallbiznis/cabledesk/internal/observability"
	"github.com/smallbiznis/cabledesk/internal/observability/logger"
	"github.com/smallbiznis/cabledesk/internal/providers"
	"github.com/smallbiznis/cabledesk/internal/providers/pdf"
	"github.com/smallbiznis/cabledesk/internal/server"
	"github.com/smallbiznis/cabledesk/internal/subscriber"
	subscriberdomain "github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// runtime is what one-shot commands need from the container.
type runtime struct {
	fx.In

	Config      config.Config
	Catalog     *config.CatalogHolder
	Clock       clock.Clock
	Subscribers subscriberdomain.Service
	Authz       authorization.Service
	Reports     pdf.Provider
}

// appRunner starts the dependency graph, hands it to fn and stops it again.
type appRunner func(ctx context.Context, fn func(rt runtime) error) error

func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		db.Module,
		migration.Module,
		clock.Module,
		authorization.Module,
		subscriber.Module,
		providers.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
}

func newServeApp() *fx.App {
	return fx.New(
		coreModules(),
		server.Module,
	)
}

func runWithApp(ctx context.Context, fn func(rt runtime) error) error {
	var rt runtime
	app := fx.New(
		coreModules(),
		fx.Decorate(func(cfg logger.Config) logger.Config {
			cfg.Output = "stderr"
			if cfg.Level == "" || cfg.Level == "info" {
				cfg.Level = "warn"
			}
			return cfg
		}),
		fx.Populate(&rt),
	)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	return fn(rt)
}
