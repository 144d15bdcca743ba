// Package settings validates user-chosen game settings and applies them to an engine.
//
// The engine accepts any positive values; the ranges here are what a player
// is allowed to pick.
package settings

import (
	"github.com/brensch/gridsnake/engine"
	"github.com/brensch/gridsnake/game"
)

// Range is an inclusive integer range. Values are snapped down onto Step
// counted from Min when Step > 1.
type Range struct {
	Min  int
	Max  int
	Step int
}

func (r Range) Clamp(v int) int {
	if v < r.Min {
		v = r.Min
	}
	if v > r.Max {
		v = r.Max
	}
	if r.Step > 1 {
		v = r.Min + (v-r.Min)/r.Step*r.Step
	}
	return v
}

var (
	Rows              = Range{Min: 10, Max: 40, Step: 1}
	Cols              = Range{Min: 10, Max: 40, Step: 1}
	SpeedMs           = Range{Min: 50, Max: 500, Step: 50}
	InitialFoodCount  = Range{Min: 1, Max: 10, Step: 1}
	InitialBombCount  = Range{Min: 0, Max: 10, Step: 1}
	BombSpawnInterval = Range{Min: 10, Max: 100, Step: 1}
)

// Settings is a complete set of player choices.
type Settings struct {
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	SpeedMs int         `json:"speedMs"`
	Mode    game.Mode   `json:"mode"`
	Config  game.Config `json:"config"`
}

func Default() Settings {
	return Settings{
		Rows:    game.DefaultGrid.Rows,
		Cols:    game.DefaultGrid.Cols,
		SpeedMs: game.DefaultSpeedMs,
		Mode:    game.WallsSolid,
		Config:  game.DefaultConfig,
	}
}

// Clamped returns s with every field forced into its range.
func (s Settings) Clamped() Settings {
	s.Rows = Rows.Clamp(s.Rows)
	s.Cols = Cols.Clamp(s.Cols)
	s.SpeedMs = SpeedMs.Clamp(s.SpeedMs)
	s.Config = ClampConfig(s.Config)
	return s
}

func ClampConfig(cfg game.Config) game.Config {
	cfg.InitialFoodCount = InitialFoodCount.Clamp(cfg.InitialFoodCount)
	cfg.InitialBombCount = InitialBombCount.Clamp(cfg.InitialBombCount)
	cfg.BombSpawnInterval = BombSpawnInterval.Clamp(cfg.BombSpawnInterval)
	return cfg
}

// Options turns s into engine options for a new engine.
func (s Settings) Options() []engine.Option {
	return []engine.Option{
		engine.WithGrid(s.Rows, s.Cols),
		engine.WithSpeed(s.SpeedMs),
		engine.WithMode(s.Mode),
		engine.WithConfig(s.Config),
	}
}

// Patch is a partial settings change. Nil fields are left alone.
type Patch struct {
	Mode    *game.Mode       `json:"mode,omitempty"`
	SpeedMs *int             `json:"speedMs,omitempty"`
	Rows    *int             `json:"rows,omitempty"`
	Cols    *int             `json:"cols,omitempty"`
	Config  game.ConfigPatch `json:"config"`
}

// Clamped returns a copy of p with every set field forced into its range.
func (p Patch) Clamped() Patch {
	out := Patch{Mode: p.Mode}
	out.SpeedMs = clampPtr(SpeedMs, p.SpeedMs)
	out.Rows = clampPtr(Rows, p.Rows)
	out.Cols = clampPtr(Cols, p.Cols)
	out.Config = game.ConfigPatch{
		InitialFoodCount:  clampPtr(InitialFoodCount, p.Config.InitialFoodCount),
		InitialBombCount:  clampPtr(InitialBombCount, p.Config.InitialBombCount),
		AutoBombSpawn:     p.Config.AutoBombSpawn,
		BombSpawnInterval: clampPtr(BombSpawnInterval, p.Config.BombSpawnInterval),
	}
	return out
}

func clampPtr(r Range, v *int) *int {
	if v == nil {
		return nil
	}
	c := r.Clamp(*v)
	return &c
}

// Apply clamps p and pushes it into e. Mode and speed are plain updates;
// a grid or config change rebuilds the board, which ends the game in progress.
func Apply(e *engine.Engine, p Patch) {
	p = p.Clamped()

	if p.Mode != nil {
		e.SetMode(*p.Mode)
	}
	if p.SpeedMs != nil {
		e.SetSpeed(*p.SpeedMs)
	}
	if p.Rows != nil || p.Cols != nil {
		grid := e.State().Grid
		rows, cols := grid.Rows, grid.Cols
		if p.Rows != nil {
			rows = *p.Rows
		}
		if p.Cols != nil {
			cols = *p.Cols
		}
		e.SetGridSize(rows, cols)
	}
	if !p.Config.Empty() {
		e.SetConfig(p.Config)
	}
}

// StepSpeed moves speed by delta steps of SpeedMs.Step and clamps the result.
func StepSpeed(current, delta int) int {
	return SpeedMs.Clamp(current + delta*SpeedMs.Step)
}
