// Package server exposes the engine's HTTP API.
package server

import (
	"net/http"
	"time"

	binalertdomain "github.com/Jegx07/namma-madurai-engine/internal/binalert/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/config"
	"github.com/Jegx07/namma-madurai-engine/internal/gazetteer"
	ingestdomain "github.com/Jegx07/namma-madurai-engine/internal/ingest/domain"
	insightdomain "github.com/Jegx07/namma-madurai-engine/internal/insight/domain"
	leaderboarddomain "github.com/Jegx07/namma-madurai-engine/internal/leaderboard/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/logger"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/metrics"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/tracing"
	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	scoredomain "github.com/Jegx07/namma-madurai-engine/internal/score/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config         config.Config
	Log            *zap.Logger
	DB             *gorm.DB
	HTTPMetrics    *metrics.HTTPMetrics
	Resolver       *gazetteer.Resolver
	IngestSvc      ingestdomain.Service
	ReportSvc      reportdomain.Service
	BinSvc         binalertdomain.Service
	LeaderboardSvc leaderboarddomain.Service
	ScoreSvc       scoredomain.Service
	InsightSvc     insightdomain.Service
}

type Server struct {
	cfg            config.Config
	log            *zap.Logger
	db             *gorm.DB
	httpMetrics    *metrics.HTTPMetrics
	resolver       *gazetteer.Resolver
	ingestSvc      ingestdomain.Service
	reportSvc      reportdomain.Service
	binSvc         binalertdomain.Service
	leaderboardSvc leaderboarddomain.Service
	scoreSvc       scoredomain.Service
	insightSvc     insightdomain.Service
	ingestLimiter  *ingestLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:            p.Config,
		log:            p.Log.Named("server"),
		db:             p.DB,
		httpMetrics:    p.HTTPMetrics,
		resolver:       p.Resolver,
		ingestSvc:      p.IngestSvc,
		reportSvc:      p.ReportSvc,
		binSvc:         p.BinSvc,
		leaderboardSvc: p.LeaderboardSvc,
		scoreSvc:       p.ScoreSvc,
		insightSvc:     p.InsightSvc,
		ingestLimiter:  newIngestLimiter(120, time.Minute),
	}
}

// Engine builds the gin router with the full middleware chain and routes.
func (s *Server) Engine() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware("civicscore"))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(s.httpMetrics))

	engine.GET("/healthz", s.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	{
		api.POST("/reports", s.limitIngest, s.SubmitReport)
		api.GET("/reports", s.ListReports)
		api.GET("/tickets/:id", s.GetTicket)
		api.POST("/tickets/:id/transition", s.TransitionTicket)

		api.POST("/readings", s.limitIngest, s.SubmitReading)
		api.GET("/bins/alerts", s.ListBinAlerts)

		api.GET("/areas", s.ListAreas)
		api.GET("/areas/:area/score", s.GetAreaScore)
		api.GET("/leaderboard", s.GetLeaderboard)
		api.GET("/insights", s.GetInsights)
	}

	return engine
}

func (s *Server) Health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) limitIngest(c *gin.Context) {
	if !s.ingestLimiter.Allow(c.ClientIP()) {
		AbortWithError(c, ErrRateLimited)
		return
	}
	c.Next()
}
