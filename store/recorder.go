// Package store records played games to parquet for offline analysis.
//
// Files are write-only from the game's point of view: nothing here is ever
// loaded back into an engine.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/gridsnake/engine"
)

// Recorder turns engine tick events into one parquet file per game.
//
// A game's file is finalized when a tick ends the game, when the board is
// rebuilt, or on Close. Games with no ticks produce no file.
type Recorder struct {
	mu      sync.Mutex
	outDir  string
	session string
	logger  *slog.Logger
	now     func() time.Time

	game  int32
	seq   int32
	batch *BatchWriter
	files []string
}

// NewRecorder writes under outDir. An empty sessionID gets a random one.
func NewRecorder(outDir, sessionID string, logger *slog.Logger) (*Recorder, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		outDir:  outDir,
		session: sessionID,
		logger:  logger.With("session", sessionID),
		now:     time.Now,
	}, nil
}

func (r *Recorder) SessionID() string { return r.session }

// Attach subscribes the recorder to e. Call the returned func to stop.
func (r *Recorder) Attach(e *engine.Engine) (detach func()) {
	return e.Subscribe(r.Handle)
}

// Handle consumes one engine event.
func (r *Recorder) Handle(ev engine.Event) {
	switch ev.Kind {
	case engine.EventTick:
		if err := r.record(ev); err != nil {
			r.logger.Error("record tick", "err", err)
			return
		}
		if ev.Outcome.Terminal() {
			r.finish("game_over")
		}
	case engine.EventReset:
		r.finish("reset")
	}
}

func (r *Recorder) record(ev engine.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.batch == nil {
		name := fmt.Sprintf("%s_game%04d.parquet", r.session, r.game)
		b, err := NewBatchWriter(r.outDir, name)
		if err != nil {
			return err
		}
		r.batch = b
		r.seq = 0
	}

	row := RowFromEvent(ev)
	row.SessionID = r.session
	row.Game = r.game
	row.Seq = r.seq
	row.TimeNs = r.now().UnixNano()
	r.seq++

	return r.batch.WriteRows([]TickRow{row})
}

func (r *Recorder) finish(reason string) {
	path, rows, err := r.finalize()
	if err != nil {
		r.logger.Error("finalize game", "reason", reason, "err", err)
		return
	}
	if path != "" {
		r.logger.Info("game recorded", "reason", reason, "rows", rows, "path", path)
	}
}

func (r *Recorder) finalize() (string, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.batch == nil {
		return "", 0, nil
	}
	b := r.batch
	r.batch = nil
	r.game++

	path, rows, err := b.Finalize()
	if err != nil {
		return "", 0, err
	}
	if path != "" {
		r.files = append(r.files, path)
	}
	return path, rows, nil
}

// Files lists the parquet files written so far, oldest first.
func (r *Recorder) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

// Close finalizes the game in progress, if any.
func (r *Recorder) Close() error {
	_, _, err := r.finalize()
	return err
}
