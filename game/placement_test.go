package game

import (
	"math/rand"
	"testing"
)

func TestRandomPosition_AvoidsOccupied(t *testing.T) {
	grid := Grid{Rows: 10, Cols: 10}
	rng := rand.New(rand.NewSource(7))

	// Leave a quarter of the board free so 100 draws practically always succeed.
	var avoid []Cell
	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			if x < 5 || y < 5 {
				avoid = append(avoid, Cell{X: x, Y: y})
			}
		}
	}

	for i := 0; i < 500; i++ {
		p := RandomPosition(grid, avoid, rng)
		if !grid.Contains(p) {
			t.Fatalf("draw %d off grid: %v", i, p)
		}
		if ContainsCell(avoid, p) {
			t.Fatalf("draw %d landed on avoided cell %v", i, p)
		}
	}
}

func TestRandomPosition_FullBoardReturnsLastDraw(t *testing.T) {
	grid := Grid{Rows: 10, Cols: 10}
	var avoid []Cell
	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			avoid = append(avoid, Cell{X: x, Y: y})
		}
	}

	p := RandomPosition(grid, avoid, rand.New(rand.NewSource(8)))
	if !grid.Contains(p) {
		t.Fatalf("full board draw off grid: %v", p)
	}
	if !ContainsCell(avoid, p) {
		t.Fatalf("full board draw %v should overlap", p)
	}
}

func TestRandomPosition_SeededIsDeterministic(t *testing.T) {
	grid := Grid{Rows: 20, Cols: 20}
	a := rand.New(rand.NewSource(99))
	b := rand.New(rand.NewSource(99))
	for i := 0; i < 20; i++ {
		pa := RandomPosition(grid, nil, a)
		pb := RandomPosition(grid, nil, b)
		if pa != pb {
			t.Fatalf("draw %d differs: %v vs %v", i, pa, pb)
		}
	}
}

func TestRandomPosition_NilRand(t *testing.T) {
	grid := Grid{Rows: 10, Cols: 10}
	p := RandomPosition(grid, []Cell{{X: 0, Y: 0}}, nil)
	if !grid.Contains(p) {
		t.Fatalf("draw off grid: %v", p)
	}
}
