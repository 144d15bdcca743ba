package store

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/brensch/gridsnake/engine"
	"github.com/brensch/gridsnake/game"
)

// TickRow is one committed tick of one game.
//
// Body, food and bombs are stored as parallel x/y columns, head first for the
// body. Outcome is move, grow or one of the collision causes.
type TickRow struct {
	SessionID string `parquet:"session_id,dict"`
	Game      int32  `parquet:"game"`
	Seq       int32  `parquet:"seq"`
	TimeNs    int64  `parquet:"time_ns"`

	Rows    int32  `parquet:"rows"`
	Cols    int32  `parquet:"cols"`
	Mode    string `parquet:"mode,dict"`
	SpeedMs int32  `parquet:"speed_ms"`

	Direction string `parquet:"direction,dict"`
	Outcome   string `parquet:"outcome,dict"`
	Score     int32  `parquet:"score"`
	GameOver  bool   `parquet:"game_over"`

	BodyX []int32 `parquet:"body_x"`
	BodyY []int32 `parquet:"body_y"`
	FoodX []int32 `parquet:"food_x"`
	FoodY []int32 `parquet:"food_y"`
	BombX []int32 `parquet:"bomb_x"`
	BombY []int32 `parquet:"bomb_y"`
}

const SchemaName = "snake_tick_v1"

// RowFromEvent flattens a tick event into a row. Session, game, seq and time
// are filled in by the caller.
func RowFromEvent(ev engine.Event) TickRow {
	s := ev.State
	row := TickRow{
		Rows:      int32(s.Grid.Rows),
		Cols:      int32(s.Grid.Cols),
		Mode:      s.Mode.String(),
		SpeedMs:   int32(s.SpeedMs),
		Direction: s.Direction.String(),
		Outcome:   ev.Outcome.String(),
		Score:     int32(s.Score),
		GameOver:  s.GameOver,
	}
	row.BodyX, row.BodyY = splitCells(s.Snake)
	row.FoodX, row.FoodY = splitCells(s.Food)
	row.BombX, row.BombY = splitCells(s.Bombs)
	return row
}

func splitCells(cells []game.Cell) ([]int32, []int32) {
	xs := make([]int32, len(cells))
	ys := make([]int32, len(cells))
	for i, c := range cells {
		xs[i] = int32(c.X)
		ys[i] = int32(c.Y)
	}
	return xs, ys
}

// ZipCells is the inverse of the x/y column split.
func ZipCells(xs, ys []int32) []game.Cell {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	out := make([]game.Cell, n)
	for i := 0; i < n; i++ {
		out[i] = game.Cell{X: int(xs[i]), Y: int(ys[i])}
	}
	return out
}

// ReadGameParquet loads every row of a recorded game file.
func ReadGameParquet(path string) ([]TickRow, error) {
	rows, err := parquet.ReadFile[TickRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
