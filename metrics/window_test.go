package metrics

import (
	"math"
	"testing"
	"time"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(40, 20*time.Millisecond, 100*time.Millisecond, 0, false)
	w.Record(60, 30*time.Millisecond, 100*time.Millisecond, -1, true)
	snap := w.Snapshot()
	if math.Abs(snap.StepsPerSec-500) > 1e-9 {
		t.Fatalf("unexpected throughput %.2f", snap.StepsPerSec)
	}
	if math.Abs(snap.AvgForwardMS-0.5) > 1e-9 {
		t.Fatalf("unexpected forward time %.4f", snap.AvgForwardMS)
	}
	if snap.Episodes != 2 || snap.AvgSteps != 50 || snap.Wins != [2]int{1, 0} || snap.Ties != 1 || snap.Forced != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if w.episodes != 0 || w.steps != 0 {
		t.Fatalf("window was not reset")
	}
}

func TestEmptySnapshot(t *testing.T) {
	var w Window
	if snap := w.Snapshot(); snap != (Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}
