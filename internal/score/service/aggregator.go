package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	binalertdomain "github.com/Jegx07/namma-madurai-engine/internal/binalert/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/clock"
	"github.com/Jegx07/namma-madurai-engine/internal/config"
	"github.com/Jegx07/namma-madurai-engine/internal/gazetteer"
	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	scoredomain "github.com/Jegx07/namma-madurai-engine/internal/score/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Config   config.Config
	Clock    clock.Clock
	GenID    *snowflake.Node
	Resolver *gazetteer.Resolver
	Bins     binalertdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	window   time.Duration
	clock    clock.Clock
	genID    *snowflake.Node
	resolver *gazetteer.Resolver
	bins     binalertdomain.Service
}

func NewService(p ServiceParam) scoredomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("score.service"),
		window:   p.Config.Jobs.ScoreWindow,
		clock:    p.Clock,
		genID:    p.GenID,
		resolver: p.Resolver,
		bins:     p.Bins,
	}
}

// RunOnce recomputes the CRI for every ward over the rolling window and
// appends the run in a single transaction, so a failed or timed-out run
// never publishes a partial snapshot set.
func (s *Service) RunOnce(ctx context.Context) error {
	now := s.clock.Now()
	periodEnd := now.Truncate(24 * time.Hour)
	periodStart := periodEnd.Add(-s.window)

	wards := s.resolver.All()
	snapshots := make([]scoredomain.AreaScoreSnapshot, 0, len(wards))
	for _, ward := range wards {
		snapshot, err := s.computeArea(ctx, ward, periodStart, periodEnd)
		if err != nil {
			return err
		}
		snapshots = append(snapshots, snapshot)
	}

	rankSnapshots(snapshots)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range snapshots {
			row := snapshots[i]
			if err := tx.Exec(
				`INSERT INTO area_score_snapshots
				   (id, area, period_start, period_end, score, open_reports, resolved_reports,
				    total_reports, resolution_rate, bin_alert_count, area_rank, low_sample, metadata, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (area, period_end) DO NOTHING`,
				row.ID, row.Area, row.PeriodStart, row.PeriodEnd, row.Score,
				row.OpenReports, row.ResolvedReports, row.TotalReports,
				row.ResolutionRate, row.BinAlertCount, row.AreaRank,
				row.LowSample, row.Metadata, row.CreatedAt,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("score run complete",
		zap.Time("period_end", periodEnd),
		zap.Int("areas", len(snapshots)),
	)
	return nil
}

func (s *Service) computeArea(ctx context.Context, ward gazetteer.Ward, periodStart, periodEnd time.Time) (scoredomain.AreaScoreSnapshot, error) {
	var snapshot scoredomain.AreaScoreSnapshot

	var totalReports int64
	if err := s.db.WithContext(ctx).
		Model(&reportdomain.Ticket{}).
		Where("area = ? AND created_at >= ? AND created_at < ?", ward.Key, periodStart, periodEnd).
		Count(&totalReports).Error; err != nil {
		return snapshot, err
	}

	var resolvedReports int64
	if err := s.db.WithContext(ctx).
		Model(&reportdomain.Ticket{}).
		Where("area = ? AND status = ? AND resolved_at >= ? AND resolved_at < ?",
			ward.Key, reportdomain.StatusResolved, periodStart, periodEnd).
		Count(&resolvedReports).Error; err != nil {
		return snapshot, err
	}

	var openReports int64
	if err := s.db.WithContext(ctx).
		Model(&reportdomain.Ticket{}).
		Where("area = ? AND status IN ?", ward.Key,
			[]reportdomain.Status{reportdomain.StatusPending, reportdomain.StatusInProgress}).
		Count(&openReports).Error; err != nil {
		return snapshot, err
	}

	alertCount, err := s.bins.CountCritical(ctx, ward.Key)
	if err != nil {
		return snapshot, err
	}

	capacity := s.resolver.CapacityFor(ward.Key)
	resolutionRate := float64(resolvedReports) / math.Max(float64(totalReports), 1)
	score, lowSample := ComputeScore(int(totalReports), int(openReports), alertCount, resolutionRate, capacity)

	return scoredomain.AreaScoreSnapshot{
		ID:              s.genID.Generate(),
		Area:            ward.Key,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		Score:           score,
		OpenReports:     int(openReports),
		ResolvedReports: int(resolvedReports),
		TotalReports:    int(totalReports),
		ResolutionRate:  resolutionRate,
		BinAlertCount:   alertCount,
		LowSample:       lowSample,
		Metadata: datatypes.JSONMap{
			"capacity":    capacity,
			"window_days": int(s.window.Hours() / 24),
		},
		CreatedAt: s.clock.Now(),
	}, nil
}

// ComputeScore applies the CRI formula. An area with nothing wrong detected
// scores exactly 100 and is flagged lowSample so downstream text cannot pass
// off absence of data as verified cleanliness.
func ComputeScore(totalReports, openReports, alertCount int, resolutionRate float64, capacity int) (int, bool) {
	if totalReports == 0 && openReports == 0 && alertCount == 0 {
		return 100, true
	}
	if capacity <= 0 {
		capacity = gazetteer.DefaultCapacity
	}

	openDensity := clamp01(float64(openReports) / float64(capacity))
	alertDensity := clamp01(float64(alertCount) / float64(capacity))

	raw := 100 * (scoredomain.WeightResolution*resolutionRate +
		scoredomain.WeightOpenDensity*(1-openDensity) +
		scoredomain.WeightAlertDensity*(1-alertDensity))

	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, false
}

// rankSnapshots assigns 1-based ranks by score descending, breaking ties on
// area key so reruns are byte-identical.
func rankSnapshots(snapshots []scoredomain.AreaScoreSnapshot) {
	order := make([]*scoredomain.AreaScoreSnapshot, len(snapshots))
	for i := range snapshots {
		order[i] = &snapshots[i]
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Score != order[j].Score {
			return order[i].Score > order[j].Score
		}
		return order[i].Area < order[j].Area
	})
	for i, snapshot := range order {
		snapshot.AreaRank = i + 1
	}
}

func (s *Service) Get(ctx context.Context, area string, asOf time.Time) (*scoredomain.AreaScoreSnapshot, error) {
	ward, err := s.resolver.Resolve(area)
	if err != nil {
		return nil, scoredomain.ErrUnknownArea
	}

	query := s.db.WithContext(ctx).Where("area = ?", ward.Key)
	if !asOf.IsZero() {
		query = query.Where("period_end <= ?", asOf)
	}

	var snapshot scoredomain.AreaScoreSnapshot
	err = query.Order("period_end DESC").First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scoredomain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *Service) RunPeriods(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 2
	}
	var periods []time.Time
	err := s.db.WithContext(ctx).
		Model(&scoredomain.AreaScoreSnapshot{}).
		Distinct("period_end").
		Order("period_end DESC").
		Limit(limit).
		Pluck("period_end", &periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}

func (s *Service) Run(ctx context.Context, periodEnd time.Time) ([]scoredomain.AreaScoreSnapshot, error) {
	var snapshots []scoredomain.AreaScoreSnapshot
	err := s.db.WithContext(ctx).
		Where("period_end = ?", periodEnd).
		Order("area_rank ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
