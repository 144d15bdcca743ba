// Package server exposes an engine over HTTP and websocket.
//
// Websocket clients receive the full state on connect and after every engine
// change, and may send the same commands a keyboard or settings screen would.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/gridsnake/engine"
	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/input"
	"github.com/brensch/gridsnake/settings"
)

var ErrUnknownCommand = errors.New("unknown command")

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 64
)

// Message is a client command.
//
// Types: key (Key), direction (Direction), pause, reset, game_over (Value,
// defaults to true) and settings (Settings).
type Message struct {
	Type      string          `json:"type"`
	Key       string          `json:"key,omitempty"`
	Direction string          `json:"direction,omitempty"`
	Value     *bool           `json:"value,omitempty"`
	Settings  *settings.Patch `json:"settings,omitempty"`
}

// StateMessage is pushed to clients. Event is empty for the snapshot sent on
// connect.
type StateMessage struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Event   string          `json:"event,omitempty"`
	Outcome string          `json:"outcome,omitempty"`
	State   *game.GameState `json:"state"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type InfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Clients int    `json:"clients"`
}

// wsWriter is the write side of a websocket connection. Closing it also ends
// the connection's read loop.
type wsWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	conn wsWriter
	send chan []byte
}

// Server holds the engine and the connected websocket clients.
type Server struct {
	eng      *engine.Engine
	logger   *slog.Logger
	upgrader websocket.Upgrader

	archiveDir string

	mu          sync.Mutex
	clients     map[*client]struct{}
	unsubscribe func()
}

type Option func(*Server)

// WithArchive serves recorded games from dir under /api/games.
func WithArchive(dir string) Option {
	return func(s *Server) { s.archiveDir = dir }
}

func New(eng *engine.Engine, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		eng:      eng,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = eng.Subscribe(s.broadcastEvent)
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/command", s.handleCommand)
	mux.HandleFunc("/ws", s.handleWS)
	if s.archiveDir != "" {
		mux.HandleFunc("/api/games", s.handleGames)
		mux.HandleFunc("/api/games/", s.handleGame)
	}
	return mux
}

// Dispatch applies one client command to the engine.
func (s *Server) Dispatch(msg Message) error {
	switch msg.Type {
	case "key":
		input.Apply(s.eng, msg.Key)
	case "direction":
		d, err := game.ParseDirection(msg.Direction)
		if err != nil {
			return err
		}
		s.eng.SetDirection(d)
	case "pause":
		s.eng.TogglePause()
	case "reset":
		s.eng.ResetGame()
	case "game_over":
		v := true
		if msg.Value != nil {
			v = *msg.Value
		}
		s.eng.SetGameOver(v)
	case "settings":
		if msg.Settings == nil {
			return fmt.Errorf("settings command without settings")
		}
		settings.Apply(s.eng, *msg.Settings)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Type)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	writeJSON(w, InfoResponse{Name: "gridsnake", Version: "1.0.0", Clients: n})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, StateMessage{Type: "state", State: s.eng.State()})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Dispatch(msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, StateMessage{Type: "state", State: s.eng.State()})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	go c.writeLoop()

	// Register before the snapshot so no event can slip between them.
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	s.sendTo(c, StateMessage{Type: "state", State: s.eng.State()})

	defer func() {
		s.drop(c)
		s.logger.Info("client disconnected", "remote", r.RemoteAddr)
	}()
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendTo(c, ErrorMessage{Type: "error", Error: err.Error()})
			continue
		}
		if err := s.Dispatch(msg); err != nil {
			s.sendTo(c, ErrorMessage{Type: "error", Error: err.Error()})
		}
	}
}

func (s *Server) broadcastEvent(ev engine.Event) {
	msg := StateMessage{Type: "state", Seq: ev.Seq, Event: ev.Kind.String(), State: ev.State}
	if ev.Kind == engine.EventTick {
		msg.Outcome = ev.Outcome.String()
	}
	b, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal state", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
			// Slow client; cut it loose rather than stall the engine.
			s.dropLocked(c)
		}
	}
}

func (s *Server) sendTo(c *client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshal message", "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- b:
	default:
		s.dropLocked(c)
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(c)
}

func (s *Server) dropLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}

// Close detaches from the engine and disconnects every client.
func (s *Server) Close() error {
	s.unsubscribe()
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.dropLocked(c)
	}
	return nil
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			// Closing fails the reader, which drops the client and closes send.
			_ = c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func withCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
