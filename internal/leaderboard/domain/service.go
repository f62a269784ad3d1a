package domain

import (
	"context"
	"errors"

	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	"gorm.io/gorm"
)

// Service maintains contributor points and produces the ranking.
type Service interface {
	// AwardOnResolution applies the point award for a freshly resolved
	// ticket inside the caller's transaction, returning points granted.
	AwardOnResolution(ctx context.Context, tx *gorm.DB, ticket reportdomain.Ticket) (int64, error)

	// List returns the ranking page. Ordering is a strict total order:
	// points desc, earlier milestone first, then reporter id.
	List(ctx context.Context, limit, offset int) ([]RankedProfile, error)

	// Rebuild recomputes every profile from resolved-ticket history. Only
	// for backfill and repair; steady state is incremental.
	Rebuild(ctx context.Context) error
}

var (
	ErrInvalidReporter = errors.New("invalid_reporter")
	ErrNotResolved     = errors.New("ticket_not_resolved")
)
