// Package server exposes the Slack-facing HTTP surface: slash
// commands, interactivity payloads, health and metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pelshen/namedraw/internal/analytics"
	"github.com/pelshen/namedraw/internal/clock"
	"github.com/pelshen/namedraw/internal/config"
	installdomain "github.com/pelshen/namedraw/internal/installation/domain"
	"github.com/pelshen/namedraw/internal/observability"
	obsmiddleware "github.com/pelshen/namedraw/internal/observability/logger"
	obsmetrics "github.com/pelshen/namedraw/internal/observability/metrics"
	obstracing "github.com/pelshen/namedraw/internal/observability/tracing"
	"github.com/pelshen/namedraw/internal/ratelimit"
	"github.com/pelshen/namedraw/internal/slack"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	db         *gorm.DB
	clock      clock.Clock
	usageSvc   usagedomain.Service
	installSvc installdomain.Service
	slack      *slack.Client
	tracker    analytics.Tracker
	limiter    *ratelimit.CommandLimiter
	metrics    *obsmetrics.Metrics
	plans      *config.PlansConfigHolder
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	DB         *gorm.DB
	Clock      clock.Clock
	UsageSvc   usagedomain.Service
	InstallSvc installdomain.Service
	Slack      *slack.Client
	Tracker    analytics.Tracker
	Limiter    *ratelimit.CommandLimiter `optional:"true"`
	Metrics    *obsmetrics.Metrics       `optional:"true"`
	Plans      *config.PlansConfigHolder `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		db:         p.DB,
		clock:      p.Clock,
		usageSvc:   p.UsageSvc,
		installSvc: p.InstallSvc,
		slack:      p.Slack,
		tracker:    p.Tracker,
		limiter:    p.Limiter,
		metrics:    p.Metrics,
		plans:      p.Plans,
	}

	s.registerSlackRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerSlackRoutes() {
	api := s.engine.Group("/slack", s.VerifySlackSignature())

	api.POST("/commands", s.HandleSlashCommand)
	api.POST("/interactions", s.HandleInteraction)
}

func (s *Server) freeLimit() int {
	if s.plans != nil {
		if limit := s.plans.MonthlyLimit(string(usagedomain.PlanFree)); limit > 0 {
			return limit
		}
	}
	return usagedomain.FreePlanMonthlyLimit
}
