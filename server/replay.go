package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/store"
)

type GamesResponse struct {
	Total int                 `json:"total"`
	Games []store.GameSummary `json:"games"`
}

// ReplayFrame is one recorded tick, rebuilt as a board.
type ReplayFrame struct {
	Seq     int32           `json:"seq"`
	TimeNs  int64           `json:"timeNs"`
	Outcome string          `json:"outcome"`
	State   *game.GameState `json:"state"`
}

type ReplayResponse struct {
	File   string        `json:"file"`
	Frames []ReplayFrame `json:"frames"`
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	games, err := store.ListGames(s.archiveDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, GamesResponse{Total: len(games), Games: games})
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// /api/games/{file}
	name, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/api/games/"))
	if err != nil || name == "" {
		http.Error(w, "bad game file", http.StatusBadRequest)
		return
	}
	rows, err := store.LoadGame(s.archiveDir, name)
	if err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	frames := make([]ReplayFrame, len(rows))
	for i, row := range rows {
		frames[i] = ReplayFrame{Seq: row.Seq, TimeNs: row.TimeNs, Outcome: row.Outcome, State: store.StateFromRow(row)}
	}
	writeJSON(w, ReplayResponse{File: name, Frames: frames})
}
