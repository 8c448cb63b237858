// Package env turns oware boards into network observations and maps
// between board moves and network actions.
package env

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/Antonite/oware_a3c/actorcritic"
)

const (
	// Size is the side of the square observation. Four stride-2
	// convolutions reduce it to 3: 42, 21, 11, 6, 3.
	Size = 42
	// Channels is the number of observation planes.
	Channels = 1
	// Actions is one action per pit on a side.
	Actions = 6

	band     = Size / Actions
	winScore = 25
	pitCap   = 12
)

// Board is the part of *oware.Board the renderer reads.
type Board interface {
	Player() int
	Scores() []int
	Pits() []int
}

// Render draws b from the point of view of the player to move.
//
// The grid is cut into six bands of seven rows. From the top: the mover's
// score, the opponent's score, two bands of the mover's pits and two bands
// of the opponent's pits. Pits sit in seven-pixel columns; the opponent's
// row is mirrored so facing pits line up as they do on a real board.
func Render(b Board) []float64 {
	out := make([]float64, Size*Size)
	me := b.Player() & 1
	them := 1 - me

	scores := b.Scores()
	fillBand(out, 0, func(int) float64 { return level(at(scores, me), winScore) })
	fillBand(out, 1, func(int) float64 { return level(at(scores, them), winScore) })

	pits := b.Pits()
	mine := func(col int) float64 { return level(at(pits, me*Actions+col), pitCap) }
	theirs := func(col int) float64 { return level(at(pits, them*Actions+Actions-1-col), pitCap) }
	fillBand(out, 2, mine)
	fillBand(out, 3, mine)
	fillBand(out, 4, theirs)
	fillBand(out, 5, theirs)
	return out
}

// Stack renders boards into a single batch.
func Stack(boards ...Board) actorcritic.Batch {
	batch := actorcritic.NewBatch(len(boards), Channels, Size, Size)
	for i, b := range boards {
		copy(batch.Sample(i), Render(b))
	}
	return batch
}

// ActionOf maps a board move onto [0, Actions). Moves are pit indices,
// either relative to the mover or absolute across both sides.
func ActionOf(move int) int {
	return ((move % Actions) + Actions) % Actions
}

// Mask marks the actions reachable through moves.
func Mask(moves []int) []bool {
	mask := make([]bool, Actions)
	for _, m := range moves {
		mask[ActionOf(m)] = true
	}
	return mask
}

func fillBand(out []float64, idx int, value func(col int) float64) {
	for y := idx * band; y < (idx+1)*band; y++ {
		row := out[y*Size : (y+1)*Size]
		for x := range row {
			row[x] = value(x / band)
		}
	}
}

func at(s []int, i int) int {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func level(v, limit int) float64 {
	if v <= 0 {
		return 0
	}
	if v >= limit {
		return 1
	}
	return float64(v) / float64(limit)
}

// Probabilities soft-maxes logits over the actions allowed by mask.
// Masked actions get probability 0.
func Probabilities(logits []float64, mask []bool) ([]float64, error) {
	if len(logits) != len(mask) {
		return nil, errors.Errorf("%d logits for %d actions", len(logits), len(mask))
	}
	legal := make([]float64, 0, len(logits))
	for i, ok := range mask {
		if ok {
			legal = append(legal, logits[i])
		}
	}
	if len(legal) == 0 {
		return nil, errors.New("no legal actions")
	}
	norm := floats.LogSumExp(legal)
	probs := make([]float64, len(logits))
	for i, ok := range mask {
		if ok {
			probs[i] = math.Exp(logits[i] - norm)
		}
	}
	return probs, nil
}
