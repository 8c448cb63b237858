package agent

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/Antonite/oware"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Antonite/oware_a3c/actorcritic"
	"github.com/Antonite/oware_a3c/env"
)

// DefaultMaxTurns ends games that keep cycling.
const DefaultMaxTurns = 300

// Step is one decision taken during a game.
type Step struct {
	Player  int
	Move    int
	Action  int
	Value   float64
	LogProb float64
}

// Episode is a finished self-play game.
type Episode struct {
	ID      string
	Steps   []Step
	Status  oware.GameStatus
	Winner  int // 0 or 1, -1 on a tie
	Forced  bool
	Forward time.Duration
}

// Agent plays both sides of a game with one network. Each side keeps its
// own recurrent state.
type Agent struct {
	model    *actorcritic.Model
	src      rand.Source
	maxTurns int

	board  *oware.Board
	states [2]actorcritic.State
}

func New(model *actorcritic.Model, seed uint64, maxTurns int) *Agent {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Agent{
		model:    model,
		src:      rand.NewPCG(seed, seed+1),
		maxTurns: maxTurns,
	}
}

func (a *Agent) reset() {
	a.board = oware.Initialize()
	a.states = [2]actorcritic.State{actorcritic.ZeroState(1), actorcritic.ZeroState(1)}
}

// Play runs a full game and returns its trajectory.
func (a *Agent) Play() (*Episode, error) {
	a.reset()
	ep := &Episode{ID: uuid.NewString(), Winner: -1}

	for a.board.Status == oware.InProgress {
		if len(ep.Steps) >= a.maxTurns {
			// Can only cycle, must end game
			a.board.ForceEndGame()
			ep.Forced = true
			continue
		}

		moves := a.board.GetValidMoves()
		if len(moves) == 0 {
			return nil, errors.Errorf("no valid moves: %s", a.board.ToString())
		}

		pos, err := env.FromBoard(a.board)
		if err != nil {
			return nil, err
		}
		p := pos.Player() & 1
		start := time.Now()
		out, err := a.model.Forward(env.Stack(pos), a.states[p])
		ep.Forward += time.Since(start)
		if err != nil {
			return nil, errors.Wrap(err, "forward")
		}
		a.states[p] = out.State

		step, err := a.choose(out.Policy.RawRowView(0), moves)
		if err != nil {
			return nil, err
		}
		step.Player = p
		step.Value = out.Value.At(0, 0)

		nb, err := a.board.Move(step.Move)
		if err != nil {
			return nil, errors.Wrapf(err, "move %d on %s", step.Move, a.board.ToString())
		}
		a.board = nb
		ep.Steps = append(ep.Steps, step)
	}

	ep.Status = a.board.Status
	switch {
	case a.board.Status == oware.Tie:
	case a.board.Status == oware.Player1Won:
		ep.Winner = 0
	default:
		ep.Winner = 1
	}
	return ep, nil
}

// choose samples an action among the legal moves in proportion to the
// soft-maxed logits.
func (a *Agent) choose(logits []float64, moves []int) (Step, error) {
	probs, err := env.Probabilities(logits, env.Mask(moves))
	if err != nil {
		return Step{}, err
	}
	action := int(distuv.NewCategorical(probs, a.src).Rand())
	for _, m := range moves {
		if env.ActionOf(m) == action {
			return Step{Move: m, Action: action, LogProb: math.Log(probs[action])}, nil
		}
	}
	return Step{}, errors.Errorf("sampled action %d has no move in %v", action, moves)
}
