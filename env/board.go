package env

import (
	"strconv"
	"strings"

	"github.com/Antonite/oware"
	"github.com/pkg/errors"
)

// Pits is the number of pits on the whole board.
const Pits = 2 * Actions

// Position is a readable copy of a board.
type Position struct {
	Mover int
	Score []int
	Pit   []int
}

func (p Position) Player() int   { return p.Mover }
func (p Position) Scores() []int { return p.Score }
func (p Position) Pits() []int   { return p.Pit }

// FromBoard copies b into a Position. *oware.Board keeps its pits
// unexported, so they are read back from its string form.
func FromBoard(b *oware.Board) (Position, error) {
	pits, err := ParsePits(b.ToString())
	if err != nil {
		return Position{}, err
	}
	return Position{Mover: b.Player(), Score: b.Scores(), Pit: pits}, nil
}

// ParsePits reads the pit counts out of a board string of the form
// status/player/pit0,...,pit11/score0,score1/moves.
func ParsePits(s string) ([]int, error) {
	fields := strings.Split(s, "/")
	if len(fields) < 4 {
		return nil, errors.Errorf("board %q: want at least 4 fields, got %d", s, len(fields))
	}
	raw := strings.Split(fields[2], ",")
	if len(raw) != Pits {
		return nil, errors.Errorf("board %q: want %d pits, got %d", s, Pits, len(raw))
	}
	pits := make([]int, Pits)
	for i, v := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, errors.Wrapf(err, "board %q: pit %d", s, i)
		}
		if n < 0 {
			return nil, errors.Errorf("board %q: pit %d holds %d seeds", s, i, n)
		}
		pits[i] = n
	}
	return pits, nil
}
