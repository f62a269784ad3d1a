// Package domain contains contributor profiles and badge tier boundaries.
package domain

import "time"

// ContributorProfile is a derived aggregate over a reporter's resolved
// ticket history. TotalPoints never decreases.
type ContributorProfile struct {
	ReporterID  string `gorm:"primaryKey;type:text" json:"reporter_id"`
	DisplayName string `gorm:"type:text" json:"display_name"`
	TotalPoints int64  `gorm:"not null;default:0;index" json:"total_points"`
	ReportCount int64  `gorm:"not null;default:0" json:"report_count"`

	// MilestoneSeq is the award sequence at which the current point total
	// was reached. Earlier sequence wins ties on points.
	MilestoneSeq int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (ContributorProfile) TableName() string { return "contributor_profiles" }

// Badge returns the tier for the current point total.
func (p ContributorProfile) Badge() string { return BadgeFor(p.TotalPoints) }

// RankedProfile is a profile with its leaderboard position.
type RankedProfile struct {
	Rank        int    `json:"rank"`
	ReporterID  string `json:"reporter_id"`
	DisplayName string `json:"display_name"`
	TotalPoints int64  `json:"total_points"`
	ReportCount int64  `json:"report_count"`
	Badge       string `json:"badge"`
}

// Badge tier boundaries are the contract; the names are a fixed lookup.
const (
	BadgeStarter  = "Eco Starter"     // 0-499
	BadgeGuardian = "Street Guardian" // 500-999
	BadgeChampion = "Ward Champion"   // 1000-1999
	BadgeWarrior  = "Green Warrior"   // >= 2000
)

// BadgeFor maps lifetime points to a badge tier.
func BadgeFor(points int64) string {
	switch {
	case points >= 2000:
		return BadgeWarrior
	case points >= 1000:
		return BadgeChampion
	case points >= 500:
		return BadgeGuardian
	default:
		return BadgeStarter
	}
}

// BasePoints returns the award for a resolved ticket of the given severity.
func BasePoints(severity string) int64 {
	switch severity {
	case "High":
		return 50
	case "Medium":
		return 25
	default:
		return 10
	}
}
