package rules

import (
	"math/rand"

	"github.com/brensch/gridsnake/game"
)

// Outcome says which single transition a tick produced.
type Outcome int

const (
	// OutcomeNone means the tick was skipped (paused or already over).
	OutcomeNone Outcome = iota
	OutcomeMove
	OutcomeGrow
	OutcomeWallCollision
	OutcomeSelfCollision
	OutcomeBombCollision
)

const (
	// DeathCauseWallCollision is when the head leaves a solid-walled grid.
	DeathCauseWallCollision = "wall-collision"
	// DeathCauseSelfCollision is when the head runs into the snake's own body.
	DeathCauseSelfCollision = "self-collision"
	// DeathCauseBombCollision is when the head lands on a bomb.
	DeathCauseBombCollision = "bomb-collision"
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeMove:
		return "move"
	case OutcomeGrow:
		return "grow"
	case OutcomeWallCollision:
		return DeathCauseWallCollision
	case OutcomeSelfCollision:
		return DeathCauseSelfCollision
	case OutcomeBombCollision:
		return DeathCauseBombCollision
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Terminal reports whether o ended the game.
func (o Outcome) Terminal() bool {
	return o == OutcomeWallCollision || o == OutcomeSelfCollision || o == OutcomeBombCollision
}

// NextHead returns where the head goes next under the state's direction and
// mode, and whether that cell is on the grid. In Wrap mode it always is.
func NextHead(state *game.GameState) (game.Cell, bool) {
	next := state.Direction.Step(state.Head())
	if state.Mode == game.Wrap {
		return state.Grid.Wrap(next), true
	}
	return next, state.Grid.Contains(next)
}

// NextState advances the game by one tick.
//
// The input is never modified. When the tick is skipped (not running, or
// already over) the input itself is returned with OutcomeNone; otherwise a new
// state is returned. Checks run in a fixed order: wall, self, bomb, food.
// A collision only flips Running/GameOver and records the cause; the board is
// left exactly as it was.
func NextState(state *game.GameState, rng *rand.Rand) (*game.GameState, Outcome) {
	if state == nil || !state.Running || state.GameOver {
		return state, OutcomeNone
	}

	nextHead, onGrid := NextHead(state)
	if !onGrid {
		return terminal(state, OutcomeWallCollision), OutcomeWallCollision
	}

	// The tail has not moved yet for this step, so it still counts.
	if game.ContainsCell(state.Snake, nextHead) {
		return terminal(state, OutcomeSelfCollision), OutcomeSelfCollision
	}

	if game.ContainsCell(state.Bombs, nextHead) {
		return terminal(state, OutcomeBombCollision), OutcomeBombCollision
	}

	newState := state.Clone()

	foodIdx := game.IndexOf(newState.Food, nextHead)
	if foodIdx < 0 {
		body := make([]game.Cell, 0, len(state.Snake))
		body = append(body, nextHead)
		body = append(body, state.Snake[:len(state.Snake)-1]...)
		newState.Snake = body
		return newState, OutcomeMove
	}

	body := make([]game.Cell, 0, len(state.Snake)+1)
	body = append(body, nextHead)
	body = append(body, state.Snake...)
	newState.Snake = body
	newState.Score += game.ScorePerFood

	newState.Food = append(newState.Food[:foodIdx], newState.Food[foodIdx+1:]...)
	applyFoodRules(newState, rng)
	applyBombRules(newState, rng)

	return newState, OutcomeGrow
}

func terminal(state *game.GameState, outcome Outcome) *game.GameState {
	out := state.Clone()
	out.Running = false
	out.GameOver = true
	out.Cause = outcome.String()
	return out
}

// IsTerminal reports whether the state can no longer advance without a reset.
func IsTerminal(state *game.GameState) bool {
	return state == nil || state.GameOver
}
