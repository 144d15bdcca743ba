// placement.go implements the rejection-sampling placement used for food and bombs.

package game

import (
	"math/rand"
)

// PlacementAttempts caps the draws RandomPosition makes before giving up.
const PlacementAttempts = 100

// RandomPosition draws a cell uniformly from the grid, retrying while the draw
// lands on a cell in avoid.
//
// After PlacementAttempts collisions the last draw is returned anyway, so on a
// nearly full board the result may overlap avoid. Callers accept that rather
// than block on a full board.
// If rng is nil the package-level source is used.
func RandomPosition(grid Grid, avoid []Cell, rng *rand.Rand) Cell {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}

	occupied := make(map[Cell]struct{}, len(avoid))
	for _, c := range avoid {
		occupied[c] = struct{}{}
	}

	var p Cell
	for attempt := 0; attempt < PlacementAttempts; attempt++ {
		p = Cell{X: intn(grid.Cols), Y: intn(grid.Rows)}
		if _, taken := occupied[p]; !taken {
			return p
		}
	}
	return p
}
