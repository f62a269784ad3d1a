// Package domain contains derived bin alert state.
package domain

import (
	"context"
	"errors"
	"time"

	sensordomain "github.com/Jegx07/namma-madurai-engine/internal/sensor/domain"
)

// ErrBinNotFound means no state exists for the requested bin.
var ErrBinNotFound = errors.New("bin_not_found")

// AlertStatus classifies a bin's latest fill level.
type AlertStatus string

const (
	StatusNormal   AlertStatus = "Normal"   // < warning threshold
	StatusWarning  AlertStatus = "Warning"  // warning..critical-1
	StatusCritical AlertStatus = "Critical" // >= critical threshold
)

// Thresholds carries the configured classification boundaries.
type Thresholds struct {
	WarningPercent       int
	CriticalPercent      int
	JustCollectedPercent int
}

// Classify maps a fill level to an alert status.
func (t Thresholds) Classify(fillPercent int) AlertStatus {
	switch {
	case fillPercent >= t.CriticalPercent:
		return StatusCritical
	case fillPercent >= t.WarningPercent:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// BinAlertState is the derived per-bin record, recomputed on every reading.
type BinAlertState struct {
	BinID           string      `gorm:"primaryKey;type:text" json:"bin_id"`
	Area            string      `gorm:"type:text;not null;index" json:"area"`
	FillPercent     int         `gorm:"not null" json:"fill_percent"`
	Status          AlertStatus `gorm:"type:text;not null;index" json:"status"`
	LastCollectedAt *time.Time  `gorm:"" json:"last_collected_at,omitempty"`
	UpdatedAt       time.Time   `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (BinAlertState) TableName() string { return "bin_alert_states" }

// Service owns bin alert state.
type Service interface {
	// Record appends a validated reading and recomputes the bin's state,
	// emitting an alert event only on the transition into Critical.
	Record(ctx context.Context, reading *sensordomain.Reading) (*BinAlertState, error)

	// List returns current alert states, optionally filtered by status.
	List(ctx context.Context, status AlertStatus) ([]BinAlertState, error)

	// CountCritical returns the number of critical bins in an area.
	CountCritical(ctx context.Context, area string) (int, error)
}
