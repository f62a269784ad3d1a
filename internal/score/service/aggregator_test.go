package service

import (
	"testing"

	scoredomain "github.com/Jegx07/namma-madurai-engine/internal/score/domain"
)

func TestComputeScoreNoData(t *testing.T) {
	score, lowSample := ComputeScore(0, 0, 0, 0, 40)
	if score != 100 {
		t.Fatalf("expected 100, got %d", score)
	}
	if !lowSample {
		t.Fatal("expected lowSample flag on a no-data area")
	}
}

func TestComputeScoreAllResolvedNoBacklog(t *testing.T) {
	score, lowSample := ComputeScore(10, 0, 0, 1.0, 40)
	if score != 100 {
		t.Fatalf("expected 100, got %d", score)
	}
	if lowSample {
		t.Fatal("did not expect lowSample with real reports")
	}
}

func TestComputeScoreWorstCase(t *testing.T) {
	// Nothing resolved, backlog and alerts both at or above capacity.
	score, lowSample := ComputeScore(100, 40, 40, 0, 40)
	if score != 0 {
		t.Fatalf("expected 0, got %d", score)
	}
	if lowSample {
		t.Fatal("did not expect lowSample")
	}
}

func TestComputeScoreMidpoint(t *testing.T) {
	// 50% resolution, half capacity open, no alerts:
	// 100*(0.5*0.5 + 0.3*0.5 + 0.2*1.0) = 60.
	score, _ := ComputeScore(10, 20, 0, 0.5, 40)
	if score != 60 {
		t.Fatalf("expected 60, got %d", score)
	}
}

func TestComputeScoreDensityClamped(t *testing.T) {
	// Open reports far beyond capacity clamp to density 1 rather than
	// driving the score negative.
	score, _ := ComputeScore(500, 400, 400, 0, 40)
	if score != 0 {
		t.Fatalf("expected 0, got %d", score)
	}
}

func TestComputeScoreZeroCapacityFallsBack(t *testing.T) {
	withDefault, _ := ComputeScore(10, 5, 0, 0.5, 0)
	explicit, _ := ComputeScore(10, 5, 0, 0.5, 25)
	if withDefault != explicit {
		t.Fatalf("expected default capacity to match 25, got %d vs %d", withDefault, explicit)
	}
}

func TestRankSnapshotsDeterministicTies(t *testing.T) {
	snapshots := []scoredomain.AreaScoreSnapshot{
		{Area: "sellur", Score: 80},
		{Area: "anna-nagar", Score: 80},
		{Area: "villapuram", Score: 95},
	}
	rankSnapshots(snapshots)

	byArea := make(map[string]int, len(snapshots))
	for _, s := range snapshots {
		byArea[s.Area] = s.AreaRank
	}
	if byArea["villapuram"] != 1 {
		t.Fatalf("expected villapuram rank 1, got %d", byArea["villapuram"])
	}
	// Equal scores break ties on area key.
	if byArea["anna-nagar"] != 2 || byArea["sellur"] != 3 {
		t.Fatalf("unexpected tie order: %v", byArea)
	}
}
