package env

import (
	"math"
	"testing"

	"github.com/Antonite/oware_a3c/actorcritic"
)

type fakeBoard struct {
	player int
	scores []int
	pits   []int
}

func (b fakeBoard) Player() int   { return b.player }
func (b fakeBoard) Scores() []int { return b.scores }
func (b fakeBoard) Pits() []int   { return b.pits }

func startBoard(player int) fakeBoard {
	pits := make([]int, 2*Actions)
	for i := range pits {
		pits[i] = 4
	}
	return fakeBoard{player: player, scores: []int{0, 0}, pits: pits}
}

func pixel(obs []float64, x, y int) float64 { return obs[y*Size+x] }

func TestRenderLayout(t *testing.T) {
	b := startBoard(0)
	b.scores = []int{10, 30}
	b.pits[0] = 12 // mover's first pit
	b.pits[Actions] = 0
	b.pits[2*Actions-1] = 6

	obs := Render(b)
	if len(obs) != Size*Size {
		t.Fatalf("rendered %d values, want %d", len(obs), Size*Size)
	}
	tests := []struct {
		name string
		x, y int
		want float64
	}{
		{"mover score", 20, 3, 10.0 / winScore},
		{"opponent score saturates", 20, 10, 1},
		{"mover pit 0 top band", 3, 2*band + 1, 1},
		{"mover pit 0 bottom band", 3, 3*band + 6, 1},
		{"mover pit 1", 10, 2*band + 1, 4.0 / pitCap},
		{"opponent last pit faces mover's first", 3, 4*band + 2, 6.0 / pitCap},
		{"opponent first pit mirrored to the right", Size - 1, 5*band + 2, 0},
	}
	for _, tt := range tests {
		if got := pixel(obs, tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel(%d,%d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderFollowsMover(t *testing.T) {
	b := startBoard(1)
	b.scores = []int{5, 0}
	obs := Render(b)
	if got := pixel(obs, 0, 0); got != 0 {
		t.Fatalf("mover score pixel = %v, want 0", got)
	}
	if got := pixel(obs, 0, band); got != 5.0/winScore {
		t.Fatalf("opponent score pixel = %v, want %v", got, 5.0/winScore)
	}
}

func TestRenderToleratesShortSlices(t *testing.T) {
	obs := Render(fakeBoard{})
	for i, v := range obs {
		if v != 0 {
			t.Fatalf("value %d = %v on an empty board", i, v)
		}
	}
}

func TestStackFeedsTheNetwork(t *testing.T) {
	batch := Stack(startBoard(0), startBoard(1))
	if batch.N != 2 || batch.Channels != Channels || batch.Height != Size || batch.Width != Size {
		t.Fatalf("unexpected batch shape %+v", batch)
	}

	m, err := actorcritic.New(Channels, actorcritic.Discrete(Actions), actorcritic.WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	out, err := m.Forward(batch, actorcritic.ZeroState(2))
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if r, c := out.Policy.Dims(); r != 2 || c != Actions {
		t.Fatalf("policy is %dx%d", r, c)
	}
}

func TestActionMapping(t *testing.T) {
	for move, want := range map[int]int{0: 0, 5: 5, 6: 0, 11: 5, -1: 5} {
		if got := ActionOf(move); got != want {
			t.Errorf("ActionOf(%d) = %d, want %d", move, got, want)
		}
	}
	mask := Mask([]int{1, 8, 11})
	want := []bool{false, true, true, false, false, true}
	for i := range want {
		if mask[i] != want[i] {
			t.Fatalf("mask = %v, want %v", mask, want)
		}
	}
}

func TestProbabilities(t *testing.T) {
	probs, err := Probabilities([]float64{1, 2, 3}, []bool{true, false, true})
	if err != nil {
		t.Fatal(err)
	}
	want0 := 1 / (1 + math.E*math.E)
	if math.Abs(probs[0]-want0) > 1e-12 || probs[1] != 0 || math.Abs(probs[0]+probs[2]-1) > 1e-12 {
		t.Fatalf("probs = %v", probs)
	}
	if _, err := Probabilities([]float64{1, 2}, []bool{false, false}); err == nil {
		t.Fatal("expected error with no legal actions")
	}
	if _, err := Probabilities([]float64{1}, []bool{true, true}); err == nil {
		t.Fatal("expected error on size mismatch")
	}
}
