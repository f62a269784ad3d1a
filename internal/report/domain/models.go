// Package domain contains the ticket model and its lifecycle contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ReportType enumerates the civic issue categories accepted at ingest.
type ReportType string

const (
	TypeGarbageDump        ReportType = "GarbageDump"
	TypeOverflowingBin     ReportType = "OverflowingBin"
	TypeStreetWaste        ReportType = "StreetWaste"
	TypeHazardousWaste     ReportType = "HazardousWaste"
	TypeEWaste             ReportType = "EWaste"
	TypeConstructionDebris ReportType = "ConstructionDebris"
)

// ReportTypes lists every valid report type.
var ReportTypes = []ReportType{
	TypeGarbageDump,
	TypeOverflowingBin,
	TypeStreetWaste,
	TypeHazardousWaste,
	TypeEWaste,
	TypeConstructionDebris,
}

// Severity is fixed at submission and immutable afterwards.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Severities lists every valid severity.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

// Status is the ticket lifecycle state. Transitions are monotonic except
// Rejected, which is terminal from any non-Resolved state.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusResolved   Status = "Resolved"
	StatusRejected   Status = "Rejected"
)

// Terminal reports whether no further transition can leave the status.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// Valid reports enum membership.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Ticket is a citizen-submitted civic issue. Tickets are never deleted;
// resolved and rejected tickets remain as scoring history.
type Ticket struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Type       ReportType   `gorm:"type:text;not null" json:"type"`
	Area       string       `gorm:"type:text;not null;index" json:"area"`
	Severity   Severity     `gorm:"type:text;not null" json:"severity"`
	Status     Status       `gorm:"type:text;not null;index" json:"status"`
	ReporterID string       `gorm:"type:text;not null;index" json:"reporter_id"`
	AssignedTo *string      `gorm:"type:text" json:"assigned_to,omitempty"`
	Latitude   float64      `gorm:"not null" json:"latitude"`
	Longitude  float64      `gorm:"not null" json:"longitude"`
	Details    string       `gorm:"type:text" json:"details,omitempty"`

	// Version implements optimistic concurrency on transitions.
	Version int64 `gorm:"not null;default:1" json:"version"`

	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
	ResolvedAt *time.Time `gorm:"" json:"resolved_at,omitempty"`
}

// TableName sets the database table name.
func (Ticket) TableName() string { return "tickets" }
