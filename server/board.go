package server

import (
	"net/http"

	"github.com/Antonite/oware"

	"github.com/Antonite/oware_a3c/env"
)

type BoardResponse struct {
	Status oware.GameStatus
	Player int
	Scores []int
	Pits   []int
}

func (s *Server) GetBoardHandler(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is a required param", http.StatusBadRequest)
		return
	}

	b, err := oware.NewS(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pos, err := env.FromBoard(b)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, &BoardResponse{
		Status: b.Status,
		Player: pos.Player(),
		Scores: pos.Scores(),
		Pits:   pos.Pits(),
	})
}
