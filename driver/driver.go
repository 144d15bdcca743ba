// Package driver runs the fixed-interval timer that ticks an engine.
package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/brensch/gridsnake/engine"
	"github.com/brensch/gridsnake/game"
)

// Driver calls Tick on its engine every SpeedMs while the game is running and
// not over. The ticker is torn down and re-armed whenever running or speed
// changes, so at most one tick is ever in flight.
type Driver struct {
	eng    *engine.Engine
	logger *slog.Logger
}

func New(eng *engine.Engine, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{eng: eng, logger: logger}
}

type schedule struct {
	armed   bool
	speedMs int
}

func scheduleFor(s *game.GameState) schedule {
	return schedule{armed: s.Running && !s.GameOver, speedMs: s.SpeedMs}
}

// Run blocks until ctx is cancelled and returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	changes := make(chan schedule, 1)
	unsubscribe := d.eng.Subscribe(func(ev engine.Event) {
		next := scheduleFor(ev.State)
		// Keep only the latest schedule; an older pending one is stale.
		select {
		case changes <- next:
		default:
			select {
			case <-changes:
			default:
			}
			select {
			case changes <- next:
			default:
			}
		}
	})
	defer unsubscribe()

	var (
		ticker  *time.Ticker
		tickC   <-chan time.Time
		current schedule
	)
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
		tickC = nil
	}
	defer stop()

	apply := func(next schedule) {
		if next == current && (tickC != nil) == next.armed {
			return
		}
		stop()
		current = next
		if !next.armed || next.speedMs <= 0 {
			return
		}
		ticker = time.NewTicker(time.Duration(next.speedMs) * time.Millisecond)
		tickC = ticker.C
		d.logger.Debug("ticker armed", "speed_ms", next.speedMs)
	}
	apply(scheduleFor(d.eng.State()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next := <-changes:
			apply(next)
		case <-tickC:
			outcome := d.eng.Tick()
			if outcome.Terminal() {
				d.logger.Info("game over", "cause", outcome.String())
			}
		}
	}
}
