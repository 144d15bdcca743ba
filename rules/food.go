package rules

import (
	"math/rand"

	"github.com/brensch/gridsnake/game"
)

// applyFoodRules puts back exactly one food after one was eaten.
// The replacement avoids the snake, bombs and the food still on the board.
func applyFoodRules(state *game.GameState, rng *rand.Rand) {
	avoid := make([]game.Cell, 0, len(state.Snake)+len(state.Bombs)+len(state.Food))
	avoid = append(avoid, state.Snake...)
	avoid = append(avoid, state.Bombs...)
	avoid = append(avoid, state.Food...)

	state.Food = append(state.Food, game.RandomPosition(state.Grid, avoid, rng))
}

// ShouldSpawnBomb reports whether reaching score earns a new bomb under cfg.
func ShouldSpawnBomb(cfg game.Config, score, bombs int) bool {
	if !cfg.AutoBombSpawn || cfg.BombSpawnInterval <= 0 {
		return false
	}
	if bombs >= game.MaxBombs {
		return false
	}
	return score%cfg.BombSpawnInterval == 0
}

// applyBombRules adds at most one bomb after a growth tick.
func applyBombRules(state *game.GameState, rng *rand.Rand) {
	if !ShouldSpawnBomb(state.Config, state.Score, len(state.Bombs)) {
		return
	}
	state.Bombs = append(state.Bombs, game.RandomPosition(state.Grid, state.Occupied(), rng))
}
