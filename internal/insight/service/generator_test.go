package service

import (
	"testing"

	insightdomain "github.com/Jegx07/namma-madurai-engine/internal/insight/domain"
	scoredomain "github.com/Jegx07/namma-madurai-engine/internal/score/domain"
)

func snapshotRun(entries ...scoredomain.AreaScoreSnapshot) []scoredomain.AreaScoreSnapshot {
	return entries
}

func kinds(highlights []insightdomain.Highlight) map[insightdomain.Kind]int {
	counts := make(map[insightdomain.Kind]int)
	for _, h := range highlights {
		counts[h.Kind]++
	}
	return counts
}

func TestGenerateIdenticalRunsOnlyCitywide(t *testing.T) {
	run := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "anna-nagar", Score: 80, AreaRank: 1},
		scoredomain.AreaScoreSnapshot{Area: "sellur", Score: 70, AreaRank: 2},
	)

	highlights := Generate(run, run, nil)
	if len(highlights) != 1 {
		t.Fatalf("expected only the citywide highlight, got %d", len(highlights))
	}
	if highlights[0].Kind != insightdomain.KindCitywide {
		t.Fatalf("expected citywide, got %s", highlights[0].Kind)
	}
	if highlights[0].ScoreDelta != 0 {
		t.Fatalf("expected zero citywide delta, got %f", highlights[0].ScoreDelta)
	}
	if highlights[0].Position != 1 {
		t.Fatalf("expected position 1, got %d", highlights[0].Position)
	}
}

func TestGenerateImprovementNeedsRankJumpAndScoreGain(t *testing.T) {
	prior := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "sellur", Score: 50, AreaRank: 5},
		scoredomain.AreaScoreSnapshot{Area: "anna-nagar", Score: 90, AreaRank: 1},
	)
	current := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "sellur", Score: 85, AreaRank: 2},
		scoredomain.AreaScoreSnapshot{Area: "anna-nagar", Score: 90, AreaRank: 1},
	)

	highlights := Generate(current, prior, nil)
	counts := kinds(highlights)
	if counts[insightdomain.KindImprovement] != 1 {
		t.Fatalf("expected one improvement, got %v", counts)
	}
	for _, h := range highlights {
		if h.Kind == insightdomain.KindImprovement {
			if h.Area != "sellur" {
				t.Fatalf("expected sellur, got %s", h.Area)
			}
			if h.RankDelta != -3 {
				t.Fatalf("expected rank delta -3, got %d", h.RankDelta)
			}
		}
	}
}

func TestGenerateRankJumpWithoutScoreGainIsNotImprovement(t *testing.T) {
	// The area climbed on others' declines; its own score fell.
	prior := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "sellur", Score: 50, AreaRank: 5},
	)
	current := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "sellur", Score: 45, AreaRank: 2},
	)

	highlights := Generate(current, prior, nil)
	if counts := kinds(highlights); counts[insightdomain.KindImprovement] != 0 {
		t.Fatalf("expected no improvement, got %v", counts)
	}
}

func TestGenerateDecline(t *testing.T) {
	prior := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "sellur", Score: 85, AreaRank: 2},
	)
	current := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "sellur", Score: 55, AreaRank: 6},
	)

	highlights := Generate(current, prior, nil)
	counts := kinds(highlights)
	if counts[insightdomain.KindDecline] != 1 {
		t.Fatalf("expected one decline, got %v", counts)
	}
}

func TestGenerateCapsImprovementsAtTwo(t *testing.T) {
	prior := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "a", Score: 40, AreaRank: 5},
		scoredomain.AreaScoreSnapshot{Area: "b", Score: 40, AreaRank: 6},
		scoredomain.AreaScoreSnapshot{Area: "c", Score: 40, AreaRank: 7},
	)
	current := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "a", Score: 70, AreaRank: 1},
		scoredomain.AreaScoreSnapshot{Area: "b", Score: 65, AreaRank: 2},
		scoredomain.AreaScoreSnapshot{Area: "c", Score: 60, AreaRank: 3},
	)

	highlights := Generate(current, prior, nil)
	counts := kinds(highlights)
	if counts[insightdomain.KindImprovement] != insightdomain.TopPerKind {
		t.Fatalf("expected %d improvements, got %v", insightdomain.TopPerKind, counts)
	}

	// The two largest score gains win.
	areas := make(map[string]bool)
	for _, h := range highlights {
		if h.Kind == insightdomain.KindImprovement {
			areas[h.Area] = true
		}
	}
	if !areas["a"] || !areas["b"] {
		t.Fatalf("expected areas a and b, got %v", areas)
	}
}

func TestGenerateMilestoneNeedsStreak(t *testing.T) {
	run := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "anna-nagar", Score: 90, AreaRank: 1},
	)

	short := Generate(run, run, map[string]int{"anna-nagar": insightdomain.MilestoneRuns - 1})
	if counts := kinds(short); counts[insightdomain.KindMilestone] != 0 {
		t.Fatalf("expected no milestone below the streak, got %v", counts)
	}

	full := Generate(run, run, map[string]int{"anna-nagar": insightdomain.MilestoneRuns})
	if counts := kinds(full); counts[insightdomain.KindMilestone] != 1 {
		t.Fatalf("expected a milestone at the streak, got %v", counts)
	}
}

func TestGeneratePositionsAreSequential(t *testing.T) {
	prior := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "a", Score: 40, AreaRank: 5},
		scoredomain.AreaScoreSnapshot{Area: "b", Score: 90, AreaRank: 1},
	)
	current := snapshotRun(
		scoredomain.AreaScoreSnapshot{Area: "a", Score: 70, AreaRank: 2},
		scoredomain.AreaScoreSnapshot{Area: "b", Score: 90, AreaRank: 1},
	)

	highlights := Generate(current, prior, map[string]int{"b": insightdomain.MilestoneRuns})
	for i, h := range highlights {
		if h.Position != i+1 {
			t.Fatalf("position %d at index %d", h.Position, i)
		}
	}
	last := highlights[len(highlights)-1]
	if last.Kind != insightdomain.KindCitywide {
		t.Fatalf("expected citywide last, got %s", last.Kind)
	}
}
