package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jegx07/namma-madurai-engine/internal/cache"
	"github.com/Jegx07/namma-madurai-engine/internal/clock"
	leaderboarddomain "github.com/Jegx07/namma-madurai-engine/internal/leaderboard/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/metrics"
	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	pageCacheTTL    = 15 * time.Second
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Metrics *metrics.EngineMetrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node

	pages   *cache.TTLCache[string, []leaderboarddomain.RankedProfile]
	metrics *metrics.EngineMetrics
}

func NewService(p ServiceParam) leaderboarddomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("leaderboard.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		pages:   cache.NewTTLCache[string, []leaderboarddomain.RankedProfile](),
		metrics: p.Metrics,
	}
}

// AwardOnResolution applies the severity-based award, doubled when the
// ticket was the first report in its area for that calendar week. The point
// increment is a single UPDATE so concurrent resolutions for the same
// reporter cannot lose updates.
func (s *Service) AwardOnResolution(ctx context.Context, tx *gorm.DB, ticket reportdomain.Ticket) (int64, error) {
	reporterID := strings.TrimSpace(ticket.ReporterID)
	if reporterID == "" {
		return 0, leaderboarddomain.ErrInvalidReporter
	}
	if ticket.Status != reportdomain.StatusResolved {
		return 0, leaderboarddomain.ErrNotResolved
	}
	if tx == nil {
		tx = s.db
	}

	points := leaderboarddomain.BasePoints(string(ticket.Severity))
	first, err := s.firstInAreaThisWeek(ctx, tx, ticket)
	if err != nil {
		return 0, err
	}
	if first {
		points *= 2
	}

	now := s.clock.Now()
	seq := s.genID.Generate().Int64()
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO contributor_profiles (reporter_id, display_name, total_points, report_count, milestone_seq, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?, ?)
		 ON CONFLICT (reporter_id) DO UPDATE SET
		   total_points  = contributor_profiles.total_points + ?,
		   report_count  = contributor_profiles.report_count + 1,
		   milestone_seq = ?,
		   updated_at    = ?`,
		reporterID,
		reporterID,
		points,
		seq,
		now,
		now,
		points,
		seq,
		now,
	).Error; err != nil {
		return 0, err
	}

	defer s.pages.Purge()
	s.metrics.AddPointsAwarded(points)
	s.log.Info("points awarded",
		zap.String("reporter_id", reporterID),
		zap.Int64("points", points),
		zap.Bool("first_of_week", first),
	)
	return points, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]leaderboarddomain.RankedProfile, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("%d:%d", limit, offset)
	if page, ok := s.pages.Get(key); ok {
		return page, nil
	}

	var profiles []leaderboarddomain.ContributorProfile
	if err := s.db.WithContext(ctx).
		Order("total_points DESC, milestone_seq ASC, reporter_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error; err != nil {
		return nil, err
	}

	ranked := make([]leaderboarddomain.RankedProfile, 0, len(profiles))
	for i, profile := range profiles {
		ranked = append(ranked, leaderboarddomain.RankedProfile{
			Rank:        offset + i + 1,
			ReporterID:  profile.ReporterID,
			DisplayName: profile.DisplayName,
			TotalPoints: profile.TotalPoints,
			ReportCount: profile.ReportCount,
			Badge:       profile.Badge(),
		})
	}

	s.pages.Set(key, ranked, pageCacheTTL)
	return ranked, nil
}

// Rebuild replays the full resolved-ticket history in resolution order.
func (s *Service) Rebuild(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM contributor_profiles`).Error; err != nil {
			return err
		}

		var tickets []reportdomain.Ticket
		if err := tx.
			Where("status = ?", reportdomain.StatusResolved).
			Order("resolved_at ASC, id ASC").
			Find(&tickets).Error; err != nil {
			return err
		}

		type acc struct {
			points int64
			count  int64
			seq    int64
		}
		totals := make(map[string]*acc)
		for i, ticket := range tickets {
			points := leaderboarddomain.BasePoints(string(ticket.Severity))
			first, err := s.firstInAreaThisWeek(ctx, tx, ticket)
			if err != nil {
				return err
			}
			if first {
				points *= 2
			}
			entry, ok := totals[ticket.ReporterID]
			if !ok {
				entry = &acc{}
				totals[ticket.ReporterID] = entry
			}
			entry.points += points
			entry.count++
			entry.seq = int64(i + 1)
		}

		now := s.clock.Now()
		for reporterID, entry := range totals {
			if err := tx.Create(&leaderboarddomain.ContributorProfile{
				ReporterID:   reporterID,
				DisplayName:  reporterID,
				TotalPoints:  entry.points,
				ReportCount:  entry.count,
				MilestoneSeq: entry.seq,
				CreatedAt:    now,
				UpdatedAt:    now,
			}).Error; err != nil {
				return err
			}
		}

		s.pages.Purge()
		s.log.Info("leaderboard rebuilt", zap.Int("profiles", len(totals)))
		return nil
	})
}

// firstInAreaThisWeek reports whether no earlier ticket was submitted in the
// same area during the ticket's calendar week (Monday-based, UTC). Equal
// timestamps fall back to the snowflake id so exactly one ticket wins the
// week regardless of resolution order.
func (s *Service) firstInAreaThisWeek(ctx context.Context, tx *gorm.DB, ticket reportdomain.Ticket) (bool, error) {
	weekStart := clock.WeekStart(ticket.CreatedAt)
	var count int64
	err := tx.WithContext(ctx).
		Model(&reportdomain.Ticket{}).
		Where("area = ? AND created_at >= ? AND (created_at < ? OR (created_at = ? AND id < ?))",
			ticket.Area, weekStart, ticket.CreatedAt, ticket.CreatedAt, ticket.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
