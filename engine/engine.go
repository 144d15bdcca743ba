// Package engine owns a single snake game and is the only way to change it.
//
// Callers hold an *Engine and drive it through its methods: a timer calls
// Tick, input handlers call SetDirection and TogglePause, a settings screen
// calls SetMode, SetSpeed, SetGridSize and SetConfig. Anything that wants to
// redraw subscribes for change events instead of reading shared globals.
//
// Every method runs to completion under the engine's lock, so the methods may
// be called from different goroutines and each one still lands as a single
// atomic edit. Ticks never overlap.
package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/rules"
)

type EventKind int

const (
	EventTick EventKind = iota
	EventReset
	EventDirection
	EventPause
	EventMode
	EventSpeed
	EventGameOver
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventReset:
		return "reset"
	case EventDirection:
		return "direction"
	case EventPause:
		return "pause"
	case EventMode:
		return "mode"
	case EventSpeed:
		return "speed"
	case EventGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event describes one committed change. State is a private copy and may be
// kept by the listener. Outcome is only set for EventTick. Seq increases by
// one per committed change and listeners see events in Seq order.
type Event struct {
	Seq     uint64          `json:"seq"`
	Kind    EventKind       `json:"kind"`
	Outcome rules.Outcome   `json:"outcome"`
	State   *game.GameState `json:"state"`
}

type options struct {
	rows, cols int
	cfg        game.Config
	mode       game.Mode
	speedMs    int
	rng        *rand.Rand
	state      *game.GameState
}

type Option func(*options)

// WithGrid sets the starting grid. Both values must be at least 3.
func WithGrid(rows, cols int) Option {
	return func(o *options) { o.rows, o.cols = rows, cols }
}

func WithConfig(cfg game.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

func WithMode(m game.Mode) Option {
	return func(o *options) { o.mode = m }
}

func WithSpeed(ms int) Option {
	return func(o *options) { o.speedMs = ms }
}

// WithRand injects the random source used for placement. Tests pass a seeded one.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithState starts the engine from a copy of s instead of a fresh board.
func WithState(s *game.GameState) Option {
	return func(o *options) { o.state = s.Clone() }
}

type Engine struct {
	mu        sync.Mutex
	state     *game.GameState
	rng       *rand.Rand
	listeners map[int]func(Event)
	nextID    int

	seq         uint64
	pending     []delivery
	dispatching bool
}

type delivery struct {
	ev  Event
	fns []func(Event)
}

func New(opts ...Option) *Engine {
	o := options{
		rows:    game.DefaultGrid.Rows,
		cols:    game.DefaultGrid.Cols,
		cfg:     game.DefaultConfig,
		mode:    game.WallsSolid,
		speedMs: game.DefaultSpeedMs,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	state := o.state
	if state == nil {
		state = game.NewGameState(o.rows, o.cols, o.cfg, o.rng)
		state.Mode = o.mode
		state.SpeedMs = o.speedMs
	}

	return &Engine{
		state:     state,
		rng:       o.rng,
		listeners: make(map[int]func(Event)),
	}
}

// State returns a copy of the current state.
func (e *Engine) State() *game.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Subscribe registers fn to be called after every committed change. fn runs
// after the engine lock is released, so it may call back into the engine. It
// runs on the goroutine that made the change, or on whichever goroutine is
// already delivering an earlier event. The returned func removes the
// subscription.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// commit must be called with e.mu held. It queues the event with a snapshot
// taken under the lock, releases the lock and delivers.
//
// Only one goroutine delivers at a time. A commit that finds delivery already
// under way leaves its event on the queue for that goroutine, so listeners
// always see events in commit order, including events committed from inside a
// listener.
func (e *Engine) commit(kind EventKind, outcome rules.Outcome) {
	e.seq++
	if len(e.listeners) == 0 {
		e.mu.Unlock()
		return
	}
	fns := make([]func(Event), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.pending = append(e.pending, delivery{
		ev:  Event{Seq: e.seq, Kind: kind, Outcome: outcome, State: e.state.Clone()},
		fns: fns,
	})
	if e.dispatching {
		e.mu.Unlock()
		return
	}
	e.dispatching = true
	e.mu.Unlock()

	e.dispatch()
}

func (e *Engine) dispatch() {
	for {
		e.mu.Lock()
		if len(e.pending) == 0 {
			e.dispatching = false
			e.pending = nil
			e.mu.Unlock()
			return
		}
		d := e.pending[0]
		e.pending = e.pending[1:]
		e.mu.Unlock()

		for _, fn := range d.fns {
			fn(d.ev)
		}
	}
}

// Tick advances the game one step. It does nothing unless the game is running
// and not over.
func (e *Engine) Tick() rules.Outcome {
	e.mu.Lock()
	next, outcome := rules.NextState(e.state, e.rng)
	if outcome == rules.OutcomeNone {
		e.mu.Unlock()
		return outcome
	}
	e.state = next
	e.commit(EventTick, outcome)
	return outcome
}

// SetDirection changes the direction of travel. With two or more segments a
// direction that would put the head on the neck is refused and false is
// returned. Walls and collisions are left for the next tick.
func (e *Engine) SetDirection(d game.Direction) bool {
	e.mu.Lock()
	s := e.state
	if len(s.Snake) >= 2 {
		candidate := d.Step(s.Snake[0])
		if s.Mode == game.Wrap {
			candidate = s.Grid.Wrap(candidate)
		}
		if candidate == s.Snake[1] {
			e.mu.Unlock()
			return false
		}
	}
	s.Direction = d
	e.commit(EventDirection, rules.OutcomeNone)
	return true
}

// TogglePause flips Running and returns the new value. GameOver is untouched.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	e.state.Running = !e.state.Running
	running := e.state.Running
	e.commit(EventPause, rules.OutcomeNone)
	return running
}

// SetGameOver overrides the game-over flag, e.g. to end a game from outside.
func (e *Engine) SetGameOver(v bool) {
	e.mu.Lock()
	e.state.GameOver = v
	e.commit(EventGameOver, rules.OutcomeNone)
}

func (e *Engine) SetMode(m game.Mode) {
	e.mu.Lock()
	e.state.Mode = m
	e.commit(EventMode, rules.OutcomeNone)
}

// SetSpeed stores the tick interval hint. The engine itself never waits on it.
func (e *Engine) SetSpeed(ms int) {
	e.mu.Lock()
	e.state.SpeedMs = ms
	e.commit(EventSpeed, rules.OutcomeNone)
}

// SetGridSize rebuilds the board at the new size. The game in progress is
// discarded; only mode and speed carry over.
func (e *Engine) SetGridSize(rows, cols int) {
	e.mu.Lock()
	e.rebuild(rows, cols, e.state.Config)
	e.commit(EventReset, rules.OutcomeNone)
}

// SetConfig merges patch into the current config and rebuilds the board.
// Like SetGridSize this throws away the game in progress.
func (e *Engine) SetConfig(patch game.ConfigPatch) {
	e.mu.Lock()
	e.rebuild(e.state.Grid.Rows, e.state.Grid.Cols, patch.Merge(e.state.Config))
	e.commit(EventReset, rules.OutcomeNone)
}

// ResetGame starts a new game on the current grid and config.
func (e *Engine) ResetGame() {
	e.mu.Lock()
	e.rebuild(e.state.Grid.Rows, e.state.Grid.Cols, e.state.Config)
	e.commit(EventReset, rules.OutcomeNone)
}

// rebuild must be called with e.mu held.
func (e *Engine) rebuild(rows, cols int, cfg game.Config) {
	prev := e.state
	next := game.NewGameState(rows, cols, cfg, e.rng)
	next.Mode = prev.Mode
	next.SpeedMs = prev.SpeedMs
	e.state = next
}
