package input

import (
	"math/rand"
	"testing"

	"github.com/brensch/gridsnake/engine"
	"github.com/brensch/gridsnake/game"
)

func TestMap(t *testing.T) {
	tests := []struct {
		key  string
		want Command
	}{
		{"ArrowUp", Command{Action: ActionTurn, Direction: game.Up}},
		{"W", Command{Action: ActionTurn, Direction: game.Up}},
		{"down", Command{Action: ActionTurn, Direction: game.Down}},
		{"a", Command{Action: ActionTurn, Direction: game.Left}},
		{"ArrowRight", Command{Action: ActionTurn, Direction: game.Right}},
		{" ", Command{Action: ActionPause}},
	}
	for _, tt := range tests {
		got, ok := Map(tt.key)
		if !ok || got != tt.want {
			t.Fatalf("Map(%q)=%+v,%v want=%+v", tt.key, got, ok, tt.want)
		}
	}
	if _, ok := Map("x"); ok {
		t.Fatalf("unexpected mapping for x")
	}
}

func TestApply(t *testing.T) {
	e := engine.New(engine.WithRand(rand.New(rand.NewSource(1))))

	if !Apply(e, " ") || !e.State().Running {
		t.Fatalf("space should start the game")
	}
	if !Apply(e, "ArrowUp") || e.State().Direction != game.Up {
		t.Fatalf("ArrowUp should turn up")
	}
	if Apply(e, "q") {
		t.Fatalf("unknown key dispatched")
	}
}

func TestApply_IgnoredWhenGameOver(t *testing.T) {
	e := engine.New(engine.WithRand(rand.New(rand.NewSource(2))))
	e.SetGameOver(true)

	if Apply(e, "ArrowDown") {
		t.Fatalf("key dispatched after game over")
	}
	if Apply(e, " ") || e.State().Running {
		t.Fatalf("pause toggled after game over")
	}
	if e.State().Direction != game.Right {
		t.Fatalf("direction changed after game over")
	}
}
