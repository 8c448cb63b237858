package server

import (
	"net/http"

	"github.com/Antonite/oware"
	"github.com/pkg/errors"

	"github.com/Antonite/oware_a3c/actorcritic"
	"github.com/Antonite/oware_a3c/env"
)

type MoveResponse struct {
	Pit         int
	Logit       float64
	Probability float64
}

type PolicyResponse struct {
	Id    string
	Value float64
	Moves []*MoveResponse
}

// GetPolicyHandler evaluates the board named by ?id= from a fresh
// recurrent state.
func (s *Server) GetPolicyHandler(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is a required param", http.StatusBadRequest)
		return
	}

	policy, err := s.getPolicy(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, policy)
}

func (s *Server) getPolicy(id string) (*PolicyResponse, error) {
	b, err := oware.NewS(id)
	if err != nil {
		return nil, errors.Wrapf(err, "parse board %s", id)
	}
	moves := b.GetValidMoves()
	if len(moves) == 0 {
		return nil, errors.New("no valid moves")
	}

	pos, err := env.FromBoard(b)
	if err != nil {
		return nil, err
	}
	out, err := s.model.Forward(env.Stack(pos), actorcritic.ZeroState(1))
	if err != nil {
		return nil, err
	}
	logits := out.Policy.RawRowView(0)
	probs, err := env.Probabilities(logits, env.Mask(moves))
	if err != nil {
		return nil, err
	}

	resp := &PolicyResponse{Id: id, Value: out.Value.At(0, 0)}
	for _, m := range moves {
		a := env.ActionOf(m)
		resp.Moves = append(resp.Moves, &MoveResponse{
			Pit:         m,
			Logit:       logits[a],
			Probability: probs[a],
		})
	}
	return resp, nil
}
