package agent

import (
	"testing"

	"github.com/Antonite/oware"
	"gonum.org/v1/gonum/floats"
)

func TestOpponentPicksLegalMove(t *testing.T) {
	m := testModel(t)
	o := NewOpponent(m)
	b := oware.Initialize()

	s, err := o.Move(b)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	legal := false
	for _, mv := range b.GetValidMoves() {
		legal = legal || mv == s.Move
	}
	if !legal {
		t.Fatalf("move %d not in %v", s.Move, b.GetValidMoves())
	}
	if s.LogProb > 0 {
		t.Fatalf("logprob %v", s.LogProb)
	}
	if floats.Norm(o.state.Hidden.RawRowView(0), 2) == 0 {
		t.Fatal("recurrent state not carried")
	}

	again, err := NewOpponent(m).Move(b)
	if err != nil {
		t.Fatal(err)
	}
	if again != s {
		t.Fatalf("fresh opponent chose %+v, want %+v", again, s)
	}
}

func TestOpponentPlaysAGame(t *testing.T) {
	m := testModel(t)
	sides := [2]*Opponent{NewOpponent(m), NewOpponent(m)}
	b := oware.Initialize()
	for turn := 0; b.Status == oware.InProgress; turn++ {
		if turn == 60 {
			b.ForceEndGame()
			break
		}
		s, err := sides[b.Player()&1].Move(b)
		if err != nil {
			t.Fatalf("turn %d: %v", turn, err)
		}
		if b, err = b.Move(s.Move); err != nil {
			t.Fatalf("turn %d: move %d: %v", turn, s.Move, err)
		}
	}
	if b.Status == oware.InProgress {
		t.Fatal("game still in progress")
	}
}
