// Package domain contains the derived per-area Clean Readiness Index.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AreaScoreSnapshot is one append-only CRI computation for an area. Past
// snapshots are never overwritten; the time series feeds trend insights.
type AreaScoreSnapshot struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Area        string       `gorm:"type:text;not null;uniqueIndex:ux_area_snapshots_area_period,priority:1" json:"area"`
	PeriodStart time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time    `gorm:"not null;uniqueIndex:ux_area_snapshots_area_period,priority:2;index" json:"period_end"`

	Score           int     `gorm:"not null" json:"score"`
	OpenReports     int     `gorm:"not null" json:"open_reports"`
	ResolvedReports int     `gorm:"not null" json:"resolved_reports"`
	TotalReports    int     `gorm:"not null" json:"total_reports"`
	ResolutionRate  float64 `gorm:"not null" json:"resolution_rate"`
	BinAlertCount   int     `gorm:"not null" json:"bin_alert_count"`

	// AreaRank is this area's position by score within the run, 1 is best.
	AreaRank int `gorm:"not null" json:"area_rank"`

	// LowSample marks a perfect score that reflects absence of data rather
	// than verified cleanliness. Downstream insight text must not hide it.
	LowSample bool `gorm:"not null;default:false" json:"low_sample"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (AreaScoreSnapshot) TableName() string { return "area_score_snapshots" }

// Service computes and serves CRI snapshots.
type Service interface {
	// RunOnce recomputes every area's score for the window ending now and
	// appends one snapshot per area. Re-running for the same period is a
	// no-op, not an overwrite.
	RunOnce(ctx context.Context) error

	// Get returns the snapshot for an area: the latest one, or with a
	// non-zero asOf, the newest snapshot whose period ended by then.
	Get(ctx context.Context, area string, asOf time.Time) (*AreaScoreSnapshot, error)

	// RunPeriods returns the most recent distinct snapshot periods,
	// newest first.
	RunPeriods(ctx context.Context, limit int) ([]time.Time, error)

	// Run returns every area snapshot for one period.
	Run(ctx context.Context, periodEnd time.Time) ([]AreaScoreSnapshot, error)
}

var (
	ErrSnapshotNotFound = errors.New("snapshot_not_found")
	ErrUnknownArea      = errors.New("unknown_area")
)

// CRI weights. The formula is the contract, not an implementation detail:
// score = round(100 * (0.5*resolutionRate + 0.3*(1-openDensity) + 0.2*(1-alertDensity)))
const (
	WeightResolution   = 0.5
	WeightOpenDensity  = 0.3
	WeightAlertDensity = 0.2
)
