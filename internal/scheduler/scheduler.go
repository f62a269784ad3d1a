// Package scheduler runs the periodic aggregation jobs: the daily score
// run and the weekly insight run. Jobs take a per-job advisory lock so a
// horizontally scaled deployment computes each run exactly once.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/Jegx07/namma-madurai-engine/internal/clock"
	"github.com/Jegx07/namma-madurai-engine/internal/config"
	insightdomain "github.com/Jegx07/namma-madurai-engine/internal/insight/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/metrics"
	scoredomain "github.com/Jegx07/namma-madurai-engine/internal/score/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobScore   = "score_aggregation"
	JobInsight = "weekly_insight"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Config   config.Config
	Metrics  *metrics.EngineMetrics
	Scores   scoredomain.Service
	Insights insightdomain.Service
}

type Scheduler struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	cfg      config.Jobs
	metrics  *metrics.EngineMetrics
	scores   scoredomain.Service
	insights insightdomain.Service
}

func NewScheduler(p Params) *Scheduler {
	return &Scheduler{
		db:       p.DB,
		log:      p.Log.Named("scheduler"),
		clock:    p.Clock,
		cfg:      p.Config.Jobs,
		metrics:  p.Metrics,
		scores:   p.Scores,
		insights: p.Insights,
	}
}

// RunForever drives both jobs until the context is canceled. Each job runs
// once at startup, then on its own ticker.
func (s *Scheduler) RunForever(ctx context.Context) {
	scoreTicker := time.NewTicker(s.cfg.ScoreInterval)
	defer scoreTicker.Stop()
	insightTicker := time.NewTicker(s.cfg.InsightInterval)
	defer insightTicker.Stop()

	s.RunScoreOnce(ctx)
	s.RunInsightOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-scoreTicker.C:
			s.RunScoreOnce(ctx)
		case <-insightTicker.C:
			s.RunInsightOnce(ctx)
		}
	}
}

func (s *Scheduler) RunScoreOnce(ctx context.Context) {
	s.runJob(ctx, JobScore, s.scores.RunOnce)
}

func (s *Scheduler) RunInsightOnce(ctx context.Context) {
	s.runJob(ctx, JobInsight, s.insights.RunOnce)
}

// runJob executes fn under the job's lock with the configured timeout.
// A run that exceeds the timeout is aborted and logged; the previous run's
// output stays in place and reads keep serving it.
func (s *Scheduler) runJob(ctx context.Context, name string, fn func(context.Context) error) {
	started := s.clock.Now()
	err := s.withJobLock(ctx, name, func(lockCtx context.Context) error {
		runCtx, cancel := context.WithTimeout(lockCtx, s.cfg.Timeout)
		defer cancel()
		return fn(runCtx)
	})
	elapsed := s.clock.Now().Sub(started)

	switch {
	case errors.Is(err, errLockHeld):
		s.log.Info("job already running elsewhere, skipping", zap.String("job", name))
		s.metrics.ObserveJobRun(name, "skipped", elapsed)
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Error("job timed out, keeping previous run",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.Timeout),
		)
		s.metrics.ObserveJobRun(name, "timeout", elapsed)
	case err != nil:
		s.log.Error("job failed", zap.String("job", name), zap.Error(err))
		s.metrics.ObserveJobRun(name, "failed", elapsed)
	default:
		s.log.Info("job complete", zap.String("job", name), zap.Duration("took", elapsed))
		s.metrics.ObserveJobRun(name, "success", elapsed)
	}
}
