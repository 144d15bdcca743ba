// Package input maps key names from a terminal or browser onto engine commands.
package input

import (
	"github.com/brensch/gridsnake/engine"
	"github.com/brensch/gridsnake/game"
)

type Action int

const (
	ActionTurn Action = iota
	ActionPause
)

// Command is what a key asks the engine to do.
type Command struct {
	Action    Action
	Direction game.Direction
}

// Map translates a key name. Browser names (ArrowUp, " ") and Bubble Tea
// names (up, space) are both accepted, as are WASD in either case.
func Map(key string) (Command, bool) {
	switch key {
	case "ArrowUp", "up", "w", "W":
		return Command{Action: ActionTurn, Direction: game.Up}, true
	case "ArrowDown", "down", "s", "S":
		return Command{Action: ActionTurn, Direction: game.Down}, true
	case "ArrowLeft", "left", "a", "A":
		return Command{Action: ActionTurn, Direction: game.Left}, true
	case "ArrowRight", "right", "d", "D":
		return Command{Action: ActionTurn, Direction: game.Right}, true
	case " ", "space", "Space", "Spacebar":
		return Command{Action: ActionPause}, true
	}
	return Command{}, false
}

// Apply maps key and dispatches it to e. Keys are ignored once the game is
// over; only a reset brings input back. It reports whether the key was
// recognised and dispatched.
func Apply(e *engine.Engine, key string) bool {
	cmd, ok := Map(key)
	if !ok {
		return false
	}
	if e.State().GameOver {
		return false
	}
	switch cmd.Action {
	case ActionTurn:
		e.SetDirection(cmd.Direction)
	case ActionPause:
		e.TogglePause()
	}
	return true
}
