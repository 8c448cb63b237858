package agent

import (
	"math"

	"github.com/Antonite/oware"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/Antonite/oware_a3c/actorcritic"
	"github.com/Antonite/oware_a3c/env"
)

// Opponent plays one side of a game against someone else, always taking
// the most probable legal move. It carries the recurrent state of its side
// from one call to the next.
type Opponent struct {
	model *actorcritic.Model
	state actorcritic.State
}

func NewOpponent(model *actorcritic.Model) *Opponent {
	return &Opponent{model: model, state: actorcritic.ZeroState(1)}
}

// Move picks a move for the player to move on b.
func (o *Opponent) Move(b *oware.Board) (Step, error) {
	moves := b.GetValidMoves()
	if len(moves) == 0 {
		return Step{}, errors.Errorf("no valid moves: %s", b.ToString())
	}
	pos, err := env.FromBoard(b)
	if err != nil {
		return Step{}, err
	}

	out, err := o.model.Forward(env.Stack(pos), o.state)
	if err != nil {
		return Step{}, errors.Wrap(err, "forward")
	}
	probs, err := env.Probabilities(out.Policy.RawRowView(0), env.Mask(moves))
	if err != nil {
		return Step{}, err
	}
	o.state = out.State

	action := floats.MaxIdx(probs)
	for _, m := range moves {
		if env.ActionOf(m) == action {
			return Step{
				Player:  pos.Player() & 1,
				Move:    m,
				Action:  action,
				Value:   out.Value.At(0, 0),
				LogProb: math.Log(probs[action]),
			}, nil
		}
	}
	return Step{}, errors.Errorf("best action %d has no move in %v", action, moves)
}
