package server

import (
	"encoding/json"
	"net/http"

	"github.com/Antonite/oware_a3c/actorcritic"
)

// Server answers policy queries with a read-only network.
type Server struct {
	model *actorcritic.Model
}

// New serves an evaluation-mode clone of model. The caller's model keeps
// its mode and may go on changing without affecting the server.
func New(model *actorcritic.Model) *Server {
	m := model.Clone()
	m.Eval()
	return &Server{model: m}
}

// Handler routes the endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/policy", s.GetPolicyHandler)
	mux.HandleFunc("/board", s.GetBoardHandler)
	return mux
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS,POST,PUT")
	w.Header().Set("Access-Control-Allow-Headers", "Access-Control-Allow-Headers, Origin,Accept, X-Requested-With, Content-Type, Access-Control-Request-Method, Access-Control-Request-Headers")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	js, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}
