// Package domain contains weekly trend highlights derived from score
// snapshot history.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ErrWeekNotFound means no highlights exist for the requested week.
var ErrWeekNotFound = errors.New("week_not_found")

// Kind classifies a highlight.
type Kind string

const (
	KindImprovement Kind = "improvement"
	KindDecline     Kind = "decline"
	KindMilestone   Kind = "milestone"
	KindCitywide    Kind = "citywide"
)

// Highlight is one generated insight row. Generation is a pure function of
// snapshot history; it never mutates snapshots.
type Highlight struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	WeekOf time.Time    `gorm:"not null;index" json:"week_of"`
	Kind   Kind         `gorm:"type:text;not null" json:"kind"`

	// Area is empty for the citywide highlight.
	Area       string  `gorm:"type:text" json:"area,omitempty"`
	ScoreDelta float64 `gorm:"not null" json:"score_delta"`

	// RankDelta is rank now minus rank before; negative is improvement.
	RankDelta int    `gorm:"not null" json:"rank_delta"`
	Position  int    `gorm:"not null" json:"position"`
	Message   string `gorm:"type:text;not null" json:"message"`

	CreatedAt time.Time `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (Highlight) TableName() string { return "weekly_highlights" }

// Service generates and serves weekly highlights.
type Service interface {
	// RunOnce diffs the two most recent snapshot runs and regenerates the
	// current week's highlights. Safe to re-run in full.
	RunOnce(ctx context.Context) error

	// Highlights returns the ordered highlight list for a week.
	Highlights(ctx context.Context, weekOf time.Time) ([]Highlight, error)
}

// Movement thresholds and output bounds.
const (
	RankJump      = 3 // positions moved to qualify as improvement/decline
	TopPerKind    = 2 // improvements and declines surfaced per week
	MilestoneRuns = 4 // consecutive periods at rank 1 for a milestone
)
