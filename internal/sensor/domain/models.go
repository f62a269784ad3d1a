// Package domain contains bin telemetry records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Reading is a point-in-time fill-level observation for one bin. Readings
// are append-only; fill levels only move down when a collection resets them.
type Reading struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	BinID       string       `gorm:"type:text;not null;index" json:"bin_id"`
	Area        string       `gorm:"type:text;not null;index" json:"area"`
	FillPercent int          `gorm:"not null" json:"fill_percent"`
	IsSmart     bool         `gorm:"not null;default:false" json:"is_smart"`
	RecordedAt  time.Time    `gorm:"not null;index" json:"recorded_at"`
	CreatedAt   time.Time    `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (Reading) TableName() string { return "bin_readings" }
