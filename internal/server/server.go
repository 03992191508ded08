package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/cabledesk/internal/authorization"
	"github.com/smallbiznis/cabledesk/internal/clock"
	"github.com/smallbiznis/cabledesk/internal/config"
	"github.com/smallbiznis/cabledesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/cabledesk/internal/observability/logger"
	obstracing "github.com/smallbiznis/cabledesk/internal/observability/tracing"
	"github.com/smallbiznis/cabledesk/internal/providers/pdf"
	subscriberdomain "github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *telemetry.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(metricsMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type engineParams struct {
	fx.In

	ObsCfg  observability.Config
	Metrics *telemetry.Metrics `optional:"true"`
}

func registerGin(p engineParams) *gin.Engine {
	return NewEngine(p.ObsCfg, p.Metrics)
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	catalog       *config.CatalogHolder
	clock         clock.Clock
	subscriberSvc subscriberdomain.Service
	authzSvc      authorization.Service
	reports       pdf.Provider
	telemetry     *telemetry.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Catalog       *config.CatalogHolder
	Clock         clock.Clock
	SubscriberSvc subscriberdomain.Service
	AuthzSvc      authorization.Service
	Reports       pdf.Provider
	Telemetry     *telemetry.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		catalog:       p.Catalog,
		clock:         clk,
		subscriberSvc: p.SubscriberSvc,
		authzSvc:      p.AuthzSvc,
		reports:       p.Reports,
		telemetry:     p.Telemetry,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.OperatorContext())

	api.GET("/catalog", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogView), s.GetCatalog)

	// -------- Subscribers --------
	subscribers := api.Group("/subscribers")
	{
		subscribers.GET("", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberView), s.ListSubscribers)
		subscribers.POST("", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberCreate), s.CreateSubscriber)
		subscribers.GET("/template.csv", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberView), s.DownloadImportTemplate)
		subscribers.GET("/report.pdf", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberExport), s.DownloadRosterReport)
		subscribers.POST("/import", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberImport), s.ImportSubscribers)
		subscribers.GET("/:id", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberView), s.GetSubscriber)
		subscribers.PUT("/:id", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberUpdate), s.UpdateSubscriber)
		subscribers.DELETE("/:id", s.authorize(authorization.ObjectSubscriber, authorization.ActionSubscriberDelete), s.DeleteSubscriber)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
