package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/rules"
)

var ErrGameNotFound = errors.New("game not found")

// GameSummary describes one recorded game file without loading every tick.
type GameSummary struct {
	File       string    `json:"file"`
	SessionID  string    `json:"sessionId"`
	Game       int32     `json:"game"`
	Ticks      int       `json:"ticks"`
	FinalScore int32     `json:"finalScore"`
	Outcome    string    `json:"outcome"`
	GameOver   bool      `json:"gameOver"`
	ModTime    time.Time `json:"modTime"`
}

// ListGames summarises every parquet file in dir, newest first. A missing dir
// is an empty archive. Files that fail to open are skipped.
func ListGames(dir string) ([]GameSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []GameSummary{}, nil
		}
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	games := make([]GameSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".parquet") {
			continue
		}
		summary, err := readGameSummary(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		summary.File = entry.Name()
		games = append(games, summary)
	}

	sort.Slice(games, func(i, j int) bool {
		if !games[i].ModTime.Equal(games[j].ModTime) {
			return games[i].ModTime.After(games[j].ModTime)
		}
		return games[i].File > games[j].File
	})
	return games, nil
}

// readGameSummary reads the first and last rows only.
func readGameSummary(path string) (GameSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return GameSummary{}, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return GameSummary{}, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return GameSummary{}, err
	}

	reader := parquet.NewGenericReader[TickRow](pf)
	defer reader.Close()

	n := reader.NumRows()
	if n == 0 {
		return GameSummary{}, io.EOF
	}
	first, err := readOne(reader)
	if err != nil {
		return GameSummary{}, err
	}
	last := first
	if n > 1 {
		if err := reader.SeekToRow(n - 1); err != nil {
			return GameSummary{}, err
		}
		if last, err = readOne(reader); err != nil {
			return GameSummary{}, err
		}
	}

	return GameSummary{
		SessionID:  first.SessionID,
		Game:       first.Game,
		Ticks:      int(n),
		FinalScore: last.Score,
		Outcome:    last.Outcome,
		GameOver:   last.GameOver,
		ModTime:    stat.ModTime(),
	}, nil
}

func readOne(reader *parquet.GenericReader[TickRow]) (TickRow, error) {
	rows := make([]TickRow, 1)
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return TickRow{}, err
	}
	if n == 0 {
		return TickRow{}, io.EOF
	}
	return rows[0], nil
}

// LoadGame reads one game file from dir. name must be a bare file name as
// returned by ListGames.
func LoadGame(dir, name string) ([]TickRow, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".parquet") {
		return nil, fmt.Errorf("%w: %q", ErrGameNotFound, name)
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrGameNotFound, name)
		}
		return nil, err
	}
	return ReadGameParquet(path)
}

// StateFromRow rebuilds the board a row was recorded from. Config is not
// stored per tick and comes back zero.
func StateFromRow(row TickRow) *game.GameState {
	mode, _ := game.ParseMode(row.Mode)
	dir, _ := game.ParseDirection(row.Direction)
	return &game.GameState{
		Grid:      game.Grid{Rows: int(row.Rows), Cols: int(row.Cols)},
		Snake:     ZipCells(row.BodyX, row.BodyY),
		Direction: dir,
		Food:      ZipCells(row.FoodX, row.FoodY),
		Bombs:     ZipCells(row.BombX, row.BombY),
		Score:     int(row.Score),
		SpeedMs:   int(row.SpeedMs),
		Mode:      mode,
		Running:   !row.GameOver,
		GameOver:  row.GameOver,
		Cause:     causeFromOutcome(row.Outcome),
	}
}

func causeFromOutcome(outcome string) string {
	switch outcome {
	case rules.DeathCauseWallCollision, rules.DeathCauseSelfCollision, rules.DeathCauseBombCollision:
		return outcome
	}
	return ""
}
