package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Jegx07/namma-madurai-engine/internal/clock"
	"github.com/Jegx07/namma-madurai-engine/internal/events"
	insightdomain "github.com/Jegx07/namma-madurai-engine/internal/insight/domain"
	scoredomain "github.com/Jegx07/namma-madurai-engine/internal/score/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	GenID  *snowflake.Node
	Scores scoredomain.Service
	Outbox *events.Outbox
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	genID  *snowflake.Node
	scores scoredomain.Service
	outbox *events.Outbox
}

func NewService(p ServiceParam) insightdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("insight.service"),
		clock:  p.Clock,
		genID:  p.GenID,
		scores: p.Scores,
		outbox: p.Outbox,
	}
}

// RunOnce regenerates this week's highlights from the two most recent score
// runs. The week's rows are replaced in one transaction, so the job is safe
// to re-run after a partial failure.
func (s *Service) RunOnce(ctx context.Context) error {
	periods, err := s.scores.RunPeriods(ctx, insightdomain.MilestoneRuns)
	if err != nil {
		return err
	}
	if len(periods) == 0 {
		s.log.Info("no score runs yet, skipping insight generation")
		return nil
	}

	current, err := s.scores.Run(ctx, periods[0])
	if err != nil {
		return err
	}

	var prior []scoredomain.AreaScoreSnapshot
	if len(periods) > 1 {
		prior, err = s.scores.Run(ctx, periods[1])
		if err != nil {
			return err
		}
	}

	topStreak, err := s.consecutiveTopRuns(ctx, periods)
	if err != nil {
		return err
	}

	weekOf := clock.WeekStart(s.clock.Now())
	highlights := Generate(current, prior, topStreak)
	now := s.clock.Now()
	for i := range highlights {
		highlights[i].ID = s.genID.Generate()
		highlights[i].WeekOf = weekOf
		highlights[i].CreatedAt = now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("week_of = ?", weekOf).Delete(&insightdomain.Highlight{}).Error; err != nil {
			return err
		}
		for i := range highlights {
			if err := tx.Create(&highlights[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.outbox.Publish(ctx, events.Event{
		Type: events.EventInsightPublished,
		Payload: map[string]any{
			"week_of":    weekOf.Format(time.DateOnly),
			"highlights": len(highlights),
		},
		DedupeKey: "insight.published:" + weekOf.Format(time.DateOnly),
	}); err != nil {
		s.log.Warn("failed to publish insight event", zap.Error(err))
	}

	s.log.Info("insight run complete",
		zap.Time("week_of", weekOf),
		zap.Int("highlights", len(highlights)),
	)
	return nil
}

func (s *Service) Highlights(ctx context.Context, weekOf time.Time) ([]insightdomain.Highlight, error) {
	if weekOf.IsZero() {
		var newest insightdomain.Highlight
		err := s.db.WithContext(ctx).
			Order("week_of DESC").
			First(&newest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []insightdomain.Highlight{}, nil
		}
		if err != nil {
			return nil, err
		}
		weekOf = newest.WeekOf
	} else {
		weekOf = clock.WeekStart(weekOf)
	}

	var highlights []insightdomain.Highlight
	err := s.db.WithContext(ctx).
		Where("week_of = ?", weekOf).
		Order("position ASC").
		Find(&highlights).Error
	if err != nil {
		return nil, err
	}
	return highlights, nil
}

// consecutiveTopRuns counts, per area, how many of the given periods (newest
// first) the area held rank 1 without interruption.
func (s *Service) consecutiveTopRuns(ctx context.Context, periods []time.Time) (map[string]int, error) {
	streaks := make(map[string]int)
	broken := make(map[string]bool)
	for _, period := range periods {
		snapshots, err := s.scores.Run(ctx, period)
		if err != nil {
			return nil, err
		}
		for _, snapshot := range snapshots {
			if snapshot.AreaRank == 1 && !broken[snapshot.Area] {
				streaks[snapshot.Area]++
			} else if snapshot.AreaRank != 1 {
				broken[snapshot.Area] = true
			}
		}
	}
	return streaks, nil
}

// Generate diffs two snapshot runs and produces the ordered highlight list.
// It is a pure function so the classification rules are directly testable.
func Generate(current, prior []scoredomain.AreaScoreSnapshot, topStreak map[string]int) []insightdomain.Highlight {
	priorByArea := make(map[string]scoredomain.AreaScoreSnapshot, len(prior))
	for _, snapshot := range prior {
		priorByArea[snapshot.Area] = snapshot
	}

	var improvements, declines, milestones []insightdomain.Highlight
	var deltaSum float64
	var positiveMoves int

	for _, snapshot := range current {
		prev, ok := priorByArea[snapshot.Area]
		scoreDelta := 0.0
		rankDelta := 0
		if ok {
			scoreDelta = float64(snapshot.Score - prev.Score)
			rankDelta = snapshot.AreaRank - prev.AreaRank
		}
		deltaSum += scoreDelta
		if scoreDelta > 0 {
			positiveMoves++
		}

		// Classification precedence: improvement, decline, milestone.
		switch {
		case ok && rankDelta <= -insightdomain.RankJump && scoreDelta > 0:
			improvements = append(improvements, insightdomain.Highlight{
				Kind:       insightdomain.KindImprovement,
				Area:       snapshot.Area,
				ScoreDelta: scoreDelta,
				RankDelta:  rankDelta,
				Message: fmt.Sprintf("%s climbed %d positions with a score gain of %+.0f",
					snapshot.Area, -rankDelta, scoreDelta),
			})
		case ok && rankDelta >= insightdomain.RankJump && scoreDelta < 0:
			declines = append(declines, insightdomain.Highlight{
				Kind:       insightdomain.KindDecline,
				Area:       snapshot.Area,
				ScoreDelta: scoreDelta,
				RankDelta:  rankDelta,
				Message: fmt.Sprintf("%s dropped %d positions with a score change of %.0f",
					snapshot.Area, rankDelta, scoreDelta),
			})
		case snapshot.AreaRank == 1 && topStreak[snapshot.Area] >= insightdomain.MilestoneRuns:
			milestones = append(milestones, insightdomain.Highlight{
				Kind:       insightdomain.KindMilestone,
				Area:       snapshot.Area,
				ScoreDelta: scoreDelta,
				RankDelta:  rankDelta,
				Message: fmt.Sprintf("%s has held the top rank for %d consecutive periods",
					snapshot.Area, topStreak[snapshot.Area]),
			})
		}
	}

	improvements = topByMagnitude(improvements, insightdomain.TopPerKind)
	declines = topByMagnitude(declines, insightdomain.TopPerKind)

	meanDelta := 0.0
	if len(current) > 0 {
		meanDelta = deltaSum / float64(len(current))
	}
	citywide := insightdomain.Highlight{
		Kind:       insightdomain.KindCitywide,
		ScoreDelta: meanDelta,
		Message: fmt.Sprintf("Citywide mean score moved %+.1f; %d of %d areas improved",
			meanDelta, positiveMoves, len(current)),
	}

	ordered := make([]insightdomain.Highlight, 0, len(improvements)+len(declines)+len(milestones)+1)
	ordered = append(ordered, improvements...)
	ordered = append(ordered, declines...)
	ordered = append(ordered, milestones...)
	ordered = append(ordered, citywide)
	for i := range ordered {
		ordered[i].Position = i + 1
	}
	return ordered
}

// topByMagnitude keeps the n highlights with the largest |scoreDelta|,
// breaking ties by area for determinism.
func topByMagnitude(highlights []insightdomain.Highlight, n int) []insightdomain.Highlight {
	sort.Slice(highlights, func(i, j int) bool {
		mi, mj := math.Abs(highlights[i].ScoreDelta), math.Abs(highlights[j].ScoreDelta)
		if mi != mj {
			return mi > mj
		}
		return highlights[i].Area < highlights[j].Area
	})
	if len(highlights) > n {
		highlights = highlights[:n]
	}
	return highlights
}
