package service

import (
	"context"
	"errors"
	"fmt"

	binalertdomain "github.com/Jegx07/namma-madurai-engine/internal/binalert/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/config"
	"github.com/Jegx07/namma-madurai-engine/internal/events"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/metrics"
	sensordomain "github.com/Jegx07/namma-madurai-engine/internal/sensor/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// collectionFloor is the prior fill level a drop must come from to count as
// a collection rather than sensor noise.
const collectionFloor = 50

type MonitorParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	Outbox  *events.Outbox
	Metrics *metrics.EngineMetrics `optional:"true"`
}

type Monitor struct {
	db         *gorm.DB
	log        *zap.Logger
	thresholds binalertdomain.Thresholds
	outbox     *events.Outbox
	metrics    *metrics.EngineMetrics
}

func NewMonitor(p MonitorParam) binalertdomain.Service {
	return &Monitor{
		db:  p.DB,
		log: p.Log.Named("binalert.monitor"),
		thresholds: binalertdomain.Thresholds{
			WarningPercent:       p.Config.Bins.WarningPercent,
			CriticalPercent:      p.Config.Bins.CriticalPercent,
			JustCollectedPercent: p.Config.Bins.JustCollectedPercent,
		},
		outbox:  p.Outbox,
		metrics: p.Metrics,
	}
}

// Record appends the reading and recomputes the bin's derived state in one
// transaction. Alerts are edge-triggered: a bin that stays Critical across
// consecutive readings emits exactly one alert, on the transition.
func (m *Monitor) Record(ctx context.Context, reading *sensordomain.Reading) (*binalertdomain.BinAlertState, error) {
	var state binalertdomain.BinAlertState
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reading).Error; err != nil {
			return err
		}

		prior, hadPrior, err := m.priorState(tx, reading.BinID)
		if err != nil {
			return err
		}
		priorStatus := binalertdomain.StatusNormal
		if hadPrior {
			priorStatus = prior.Status
		}

		state = binalertdomain.BinAlertState{
			BinID:           reading.BinID,
			Area:            reading.Area,
			FillPercent:     reading.FillPercent,
			Status:          m.thresholds.Classify(reading.FillPercent),
			LastCollectedAt: prior.LastCollectedAt,
			UpdatedAt:       reading.RecordedAt,
		}

		collected := hadPrior &&
			prior.FillPercent >= collectionFloor &&
			reading.FillPercent < m.thresholds.JustCollectedPercent
		if collected {
			collectedAt := reading.RecordedAt
			state.LastCollectedAt = &collectedAt
			state.Status = binalertdomain.StatusNormal
		}

		if err := tx.Save(&state).Error; err != nil {
			return err
		}

		if state.Status == binalertdomain.StatusCritical && priorStatus != binalertdomain.StatusCritical {
			if err := m.outbox.PublishTx(ctx, tx, events.Event{
				Type: events.EventBinAlertCritical,
				Payload: events.BinAlertPayload{
					BinID:       reading.BinID,
					Area:        reading.Area,
					FillPercent: reading.FillPercent,
				}.ToMap(),
				DedupeKey: fmt.Sprintf("bin.critical:%s:%d", reading.BinID, reading.RecordedAt.Unix()),
			}); err != nil {
				return err
			}
			m.metrics.IncAlertEmitted()
			m.log.Warn("bin critical",
				zap.String("bin_id", reading.BinID),
				zap.String("area", reading.Area),
				zap.Int("fill_percent", reading.FillPercent),
			)
		}

		if collected {
			if err := m.outbox.PublishTx(ctx, tx, events.Event{
				Type: events.EventBinCollected,
				Payload: events.BinAlertPayload{
					BinID:       reading.BinID,
					Area:        reading.Area,
					FillPercent: reading.FillPercent,
				}.ToMap(),
				DedupeKey: fmt.Sprintf("bin.collected:%s:%d", reading.BinID, reading.RecordedAt.Unix()),
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.refreshCriticalGauge(ctx)
	return &state, nil
}

// priorState reads the bin's current state under a row lock so concurrent
// readings for the same bin serialize and the Critical transition emits
// exactly one alert.
func (m *Monitor) priorState(tx *gorm.DB, binID string) (binalertdomain.BinAlertState, bool, error) {
	var prior binalertdomain.BinAlertState
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&prior, "bin_id = ?", binID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return prior, false, nil
	}
	if err != nil {
		return prior, false, err
	}
	return prior, true, nil
}

func (m *Monitor) List(ctx context.Context, status binalertdomain.AlertStatus) ([]binalertdomain.BinAlertState, error) {
	query := m.db.WithContext(ctx).Model(&binalertdomain.BinAlertState{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var states []binalertdomain.BinAlertState
	if err := query.Order("bin_id ASC").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (m *Monitor) CountCritical(ctx context.Context, area string) (int, error) {
	var count int64
	query := m.db.WithContext(ctx).
		Model(&binalertdomain.BinAlertState{}).
		Where("status = ?", binalertdomain.StatusCritical)
	if area != "" {
		query = query.Where("area = ?", area)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (m *Monitor) refreshCriticalGauge(ctx context.Context) {
	count, err := m.CountCritical(ctx, "")
	if err != nil {
		m.log.Warn("failed to refresh critical bin gauge", zap.Error(err))
		return
	}
	m.metrics.SetCriticalBins(count)
}
