// Package game defines the core state types for the grid snake engine.
//
// These types hold everything the tick transition needs: grid size, the
// snake body, food and bomb cells, score and the run flags. The state is
// cheap to clone so the transition can build a new state and commit it in
// one step.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// Cell is a grid coordinate.
// (0,0) is the top-left corner; y grows downward.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid is the playing field size. Cells live in [0,Cols) x [0,Rows).
type Grid struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Contains reports whether c lies inside the grid.
func (g Grid) Contains(c Cell) bool {
	return c.X >= 0 && c.X < g.Cols && c.Y >= 0 && c.Y < g.Rows
}

// Wrap folds c back onto the grid, so x=-1 becomes Cols-1 and so on.
func (g Grid) Wrap(c Cell) Cell {
	return Cell{
		X: (c.X + g.Cols) % g.Cols,
		Y: (c.Y + g.Rows) % g.Rows,
	}
}

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var ErrUnknownDirection = errors.New("unknown direction")

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	default:
		return "UNKNOWN"
	}
}

// Delta returns the unit step for d. UP decreases y.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	default:
		return 0, 0
	}
}

// Step returns the cell one unit away from c in direction d.
func (d Direction) Step(c Cell) Cell {
	dx, dy := d.Delta()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

// ParseDirection accepts UP/DOWN/LEFT/RIGHT in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UP":
		return Up, nil
	case "DOWN":
		return Down, nil
	case "LEFT":
		return Left, nil
	case "RIGHT":
		return Right, nil
	}
	return Up, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Mode selects how the grid edge behaves.
type Mode int

const (
	WallsSolid Mode = iota
	Wrap
)

var ErrUnknownMode = errors.New("unknown mode")

func (m Mode) String() string {
	switch m {
	case WallsSolid:
		return "WALLS_SOLID"
	case Wrap:
		return "WRAP"
	default:
		return "UNKNOWN"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WALLS_SOLID", "WALLS", "SOLID":
		return WallsSolid, nil
	case "WRAP":
		return Wrap, nil
	}
	return WallsSolid, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

const (
	// ScorePerFood is added to the score for every food eaten.
	ScorePerFood = 10
	// MaxBombs bounds the bomb set no matter what the config asks for.
	MaxBombs = 20
	// DefaultSpeedMs is the tick interval hint for a fresh state.
	DefaultSpeedMs = 200
	// InitialSnakeLength is the number of segments a new game starts with.
	InitialSnakeLength = 3
)

// Config governs initial entity counts and the bomb auto-spawn cadence.
// BombSpawnInterval is measured in score points.
type Config struct {
	InitialFoodCount  int  `json:"initialFoodCount"`
	InitialBombCount  int  `json:"initialBombCount"`
	AutoBombSpawn     bool `json:"autoBombSpawn"`
	BombSpawnInterval int  `json:"bombSpawnInterval"`
}

// DefaultConfig matches the starting board of the web client: one food, two bombs.
var DefaultConfig = Config{
	InitialFoodCount:  1,
	InitialBombCount:  2,
	AutoBombSpawn:     false,
	BombSpawnInterval: 50,
}

// DefaultGrid is the 20x20 board the web client opens with.
var DefaultGrid = Grid{Rows: 20, Cols: 20}

// GameState is the complete engine state.
// Snake[0] is the head. Cause is empty unless the game ended in a collision.
type GameState struct {
	Grid      Grid      `json:"grid"`
	Snake     []Cell    `json:"snake"`
	Direction Direction `json:"direction"`
	Food      []Cell    `json:"food"`
	Bombs     []Cell    `json:"bombs"`
	Score     int       `json:"score"`
	SpeedMs   int       `json:"speedMs"`
	Mode      Mode      `json:"mode"`
	Running   bool      `json:"running"`
	GameOver  bool      `json:"gameOver"`
	Cause     string    `json:"cause,omitempty"`
	Config    Config    `json:"config"`
}

// NewGameState builds a fresh board. It is the only place entities are
// created from nothing.
//
// The snake is centred with its head at (cols/2, rows/2) and two segments
// trailing to the left. rows and cols must be at least 3; nothing here checks.
// Food is placed first, then bombs, each avoiding everything placed before it.
func NewGameState(rows, cols int, cfg Config, rng *rand.Rand) *GameState {
	grid := Grid{Rows: rows, Cols: cols}
	head := Cell{X: cols / 2, Y: rows / 2}

	snake := make([]Cell, 0, InitialSnakeLength)
	for i := 0; i < InitialSnakeLength; i++ {
		snake = append(snake, Cell{X: head.X - i, Y: head.Y})
	}

	avoid := make([]Cell, 0, len(snake)+cfg.InitialFoodCount+cfg.InitialBombCount)
	avoid = append(avoid, snake...)

	food := make([]Cell, 0, cfg.InitialFoodCount)
	for i := 0; i < cfg.InitialFoodCount; i++ {
		p := RandomPosition(grid, avoid, rng)
		food = append(food, p)
		avoid = append(avoid, p)
	}

	bombCount := cfg.InitialBombCount
	if bombCount > MaxBombs {
		bombCount = MaxBombs
	}
	bombs := make([]Cell, 0, bombCount)
	for i := 0; i < bombCount; i++ {
		p := RandomPosition(grid, avoid, rng)
		bombs = append(bombs, p)
		avoid = append(avoid, p)
	}

	return &GameState{
		Grid:      grid,
		Snake:     snake,
		Direction: Right,
		Food:      food,
		Bombs:     bombs,
		Score:     0,
		SpeedMs:   DefaultSpeedMs,
		Mode:      WallsSolid,
		Running:   false,
		GameOver:  false,
		Config:    cfg,
	}
}

// Head returns the first snake segment.
func (s *GameState) Head() Cell {
	return s.Snake[0]
}

// Occupied returns every cell held by the snake, food and bombs, in that order.
func (s *GameState) Occupied() []Cell {
	out := make([]Cell, 0, len(s.Snake)+len(s.Food)+len(s.Bombs))
	out = append(out, s.Snake...)
	out = append(out, s.Food...)
	out = append(out, s.Bombs...)
	return out
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := *s
	out.Snake = cloneCells(s.Snake)
	out.Food = cloneCells(s.Food)
	out.Bombs = cloneCells(s.Bombs)
	return &out
}

func cloneCells(in []Cell) []Cell {
	if in == nil {
		return nil
	}
	out := make([]Cell, len(in))
	copy(out, in)
	return out
}

// ContainsCell reports whether c is in cells.
func ContainsCell(cells []Cell, c Cell) bool {
	return IndexOf(cells, c) >= 0
}

// IndexOf returns the index of c in cells, or -1.
func IndexOf(cells []Cell, c Cell) int {
	for i, p := range cells {
		if p == c {
			return i
		}
	}
	return -1
}

// ConfigPatch is a partial Config; nil fields keep their current value.
type ConfigPatch struct {
	InitialFoodCount  *int  `json:"initialFoodCount,omitempty"`
	InitialBombCount  *int  `json:"initialBombCount,omitempty"`
	AutoBombSpawn     *bool `json:"autoBombSpawn,omitempty"`
	BombSpawnInterval *int  `json:"bombSpawnInterval,omitempty"`
}

// Merge returns cfg with every non-nil field of p applied.
func (p ConfigPatch) Merge(cfg Config) Config {
	if p.InitialFoodCount != nil {
		cfg.InitialFoodCount = *p.InitialFoodCount
	}
	if p.InitialBombCount != nil {
		cfg.InitialBombCount = *p.InitialBombCount
	}
	if p.AutoBombSpawn != nil {
		cfg.AutoBombSpawn = *p.AutoBombSpawn
	}
	if p.BombSpawnInterval != nil {
		cfg.BombSpawnInterval = *p.BombSpawnInterval
	}
	return cfg
}

// Empty reports whether p changes nothing.
func (p ConfigPatch) Empty() bool {
	return p.InitialFoodCount == nil && p.InitialBombCount == nil && p.AutoBombSpawn == nil && p.BombSpawnInterval == nil
}
