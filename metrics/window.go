package metrics

import "time"

// Window accumulates self-play stats between snapshots.
type Window struct {
	episodes int
	steps    int
	forward  time.Duration
	wall     time.Duration
	wins     [2]int
	ties     int
	forced   int
}

// Record adds a finished game to the window. winner is 0 or 1, or -1 on a
// tie.
func (w *Window) Record(steps int, forward, wall time.Duration, winner int, forced bool) {
	w.episodes++
	w.steps += steps
	w.forward += forward
	w.wall += wall
	switch winner {
	case 0, 1:
		w.wins[winner]++
	default:
		w.ties++
	}
	if forced {
		w.forced++
	}
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{
		Episodes: w.episodes,
		Wins:     w.wins,
		Ties:     w.ties,
		Forced:   w.forced,
	}
	if w.wall > 0 {
		snap.StepsPerSec = float64(w.steps) / w.wall.Seconds()
	}
	if w.steps > 0 {
		snap.AvgForwardMS = (w.forward.Seconds() * 1000) / float64(w.steps)
	}
	if w.episodes > 0 {
		snap.AvgSteps = float64(w.steps) / float64(w.episodes)
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Episodes     int
	StepsPerSec  float64
	AvgForwardMS float64
	AvgSteps     float64
	Wins         [2]int
	Ties         int
	Forced       int
}
