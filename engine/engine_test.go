package engine

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/rules"
)

func seeded(n int64) Option {
	return WithRand(rand.New(rand.NewSource(n)))
}

func scenario(rows, cols int, snake []game.Cell, dir game.Direction, mode game.Mode) *game.GameState {
	return &game.GameState{
		Grid:      game.Grid{Rows: rows, Cols: cols},
		Snake:     snake,
		Direction: dir,
		SpeedMs:   game.DefaultSpeedMs,
		Mode:      mode,
		Running:   true,
		Config:    game.DefaultConfig,
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New(seeded(1))
	s := e.State()
	if s.Grid != game.DefaultGrid {
		t.Fatalf("grid=%v want=%v", s.Grid, game.DefaultGrid)
	}
	if s.Running || s.GameOver || s.Score != 0 || s.Direction != game.Right {
		t.Fatalf("unexpected fresh state: %+v", s)
	}
	if len(s.Snake) != game.InitialSnakeLength {
		t.Fatalf("snake len=%d", len(s.Snake))
	}
}

func TestTick_EatFoodScenario(t *testing.T) {
	st := scenario(20, 20, []game.Cell{{X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}}, game.Right, game.WallsSolid)
	st.Food = []game.Cell{{X: 11, Y: 10}}
	e := New(WithState(st), seeded(2))

	if got := e.Tick(); got != rules.OutcomeGrow {
		t.Fatalf("outcome=%s want=grow", got)
	}
	s := e.State()
	want := []game.Cell{{X: 11, Y: 10}, {X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}}
	for i := range want {
		if s.Snake[i] != want[i] {
			t.Fatalf("snake[%d]=%v want=%v", i, s.Snake[i], want[i])
		}
	}
	if s.Score != 10 || len(s.Food) != 1 || s.Food[0] == (game.Cell{X: 11, Y: 10}) {
		t.Fatalf("score=%d food=%v", s.Score, s.Food)
	}
}

func TestTick_WallScenario(t *testing.T) {
	snake := []game.Cell{{X: 9, Y: 5}, {X: 8, Y: 5}, {X: 7, Y: 5}}
	e := New(WithState(scenario(10, 10, snake, game.Right, game.WallsSolid)), seeded(3))

	if got := e.Tick(); got != rules.OutcomeWallCollision {
		t.Fatalf("outcome=%s", got)
	}
	s := e.State()
	if !s.GameOver || s.Running {
		t.Fatalf("gameOver=%v running=%v", s.GameOver, s.Running)
	}
	for i := range snake {
		if s.Snake[i] != snake[i] {
			t.Fatalf("snake moved on wall hit: %v", s.Snake)
		}
	}

	// Further ticks are no-ops.
	if got := e.Tick(); got != rules.OutcomeNone {
		t.Fatalf("tick after game over outcome=%s", got)
	}
}

func TestTick_WrapScenario(t *testing.T) {
	snake := []game.Cell{{X: 9, Y: 5}, {X: 8, Y: 5}, {X: 7, Y: 5}}
	e := New(WithState(scenario(10, 10, snake, game.Right, game.Wrap)), seeded(4))

	e.Tick()
	s := e.State()
	if s.Snake[0] != (game.Cell{X: 0, Y: 5}) || s.GameOver {
		t.Fatalf("head=%v gameOver=%v", s.Snake[0], s.GameOver)
	}
}

func TestTick_PausedIsNoop(t *testing.T) {
	e := New(seeded(5))
	before := e.State()
	if got := e.Tick(); got != rules.OutcomeNone {
		t.Fatalf("outcome=%s want=none", got)
	}
	if e.State().Snake[0] != before.Snake[0] {
		t.Fatalf("paused tick moved the snake")
	}
}

func TestSetDirection_ReversalGuard(t *testing.T) {
	snake := []game.Cell{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 3, Y: 5}}
	e := New(WithState(scenario(10, 10, snake, game.Right, game.WallsSolid)), seeded(6))

	if e.SetDirection(game.Left) {
		t.Fatalf("reverse direction accepted")
	}
	if d := e.State().Direction; d != game.Right {
		t.Fatalf("direction=%v want=RIGHT", d)
	}
	if !e.SetDirection(game.Up) {
		t.Fatalf("perpendicular turn refused")
	}
	// Two quick turns before a tick still cannot fold back onto the neck.
	if e.SetDirection(game.Left) {
		t.Fatalf("turn onto neck accepted after intermediate turn")
	}
	if d := e.State().Direction; d != game.Up {
		t.Fatalf("direction=%v want=UP", d)
	}
}

func TestSetDirection_ReversalGuardAcrossWrapEdge(t *testing.T) {
	// Head just wrapped to x=0, neck sits at x=9 on the far edge.
	snake := []game.Cell{{X: 0, Y: 5}, {X: 9, Y: 5}, {X: 8, Y: 5}}
	e := New(WithState(scenario(10, 10, snake, game.Right, game.Wrap)), seeded(7))
	if e.SetDirection(game.Left) {
		t.Fatalf("reverse across wrap edge accepted")
	}
}

func TestSetDirection_SingleSegmentMayReverse(t *testing.T) {
	e := New(WithState(scenario(10, 10, []game.Cell{{X: 5, Y: 5}}, game.Right, game.WallsSolid)), seeded(8))
	if !e.SetDirection(game.Left) {
		t.Fatalf("single segment snake should turn freely")
	}
}

func TestTogglePause_Idempotent(t *testing.T) {
	e := New(seeded(9))
	before := e.State()
	if !e.TogglePause() {
		t.Fatalf("first toggle should start running")
	}
	if e.TogglePause() {
		t.Fatalf("second toggle should pause")
	}
	after := e.State()
	if after.Running != before.Running || after.GameOver != before.GameOver || after.Score != before.Score ||
		after.Direction != before.Direction || len(after.Snake) != len(before.Snake) || after.Snake[0] != before.Snake[0] {
		t.Fatalf("double toggle changed state: before=%+v after=%+v", before, after)
	}
}

func TestTogglePause_LeavesGameOver(t *testing.T) {
	e := New(seeded(10))
	e.SetGameOver(true)
	e.TogglePause()
	if !e.State().GameOver {
		t.Fatalf("toggle cleared game over")
	}
}

func TestResetGame_PreservesModeAndSpeed(t *testing.T) {
	snake := []game.Cell{{X: 9, Y: 5}, {X: 8, Y: 5}, {X: 7, Y: 5}}
	st := scenario(10, 10, snake, game.Down, game.WallsSolid)
	st.Score = 120
	e := New(WithState(st), seeded(11))
	e.SetMode(game.Wrap)
	e.SetSpeed(350)
	e.SetGameOver(true)

	e.ResetGame()
	s := e.State()
	if s.Mode != game.Wrap || s.SpeedMs != 350 {
		t.Fatalf("mode=%v speed=%d", s.Mode, s.SpeedMs)
	}
	if s.GameOver || s.Running || s.Score != 0 || s.Direction != game.Right || s.Cause != "" {
		t.Fatalf("reset did not clear game: %+v", s)
	}
	if s.Snake[0] != (game.Cell{X: 5, Y: 5}) {
		t.Fatalf("head=%v want=(5,5)", s.Snake[0])
	}
	if s.Grid != (game.Grid{Rows: 10, Cols: 10}) {
		t.Fatalf("grid changed on reset: %v", s.Grid)
	}
}

func TestSetGridSize_Rebuilds(t *testing.T) {
	e := New(seeded(12))
	e.SetMode(game.Wrap)
	e.SetSpeed(100)
	e.TogglePause()

	e.SetGridSize(30, 16)
	s := e.State()
	if s.Grid != (game.Grid{Rows: 30, Cols: 16}) {
		t.Fatalf("grid=%v", s.Grid)
	}
	if s.Running || s.GameOver {
		t.Fatalf("running=%v gameOver=%v", s.Running, s.GameOver)
	}
	if s.Mode != game.Wrap || s.SpeedMs != 100 {
		t.Fatalf("mode=%v speed=%d", s.Mode, s.SpeedMs)
	}
	if s.Snake[0] != (game.Cell{X: 8, Y: 15}) {
		t.Fatalf("head=%v want=(8,15)", s.Snake[0])
	}
}

func TestSetConfig_MergesAndRebuilds(t *testing.T) {
	e := New(seeded(13))
	food := 5
	auto := true
	e.SetConfig(game.ConfigPatch{InitialFoodCount: &food, AutoBombSpawn: &auto})

	s := e.State()
	if s.Config.InitialFoodCount != 5 || !s.Config.AutoBombSpawn {
		t.Fatalf("config=%+v", s.Config)
	}
	if s.Config.InitialBombCount != game.DefaultConfig.InitialBombCount || s.Config.BombSpawnInterval != game.DefaultConfig.BombSpawnInterval {
		t.Fatalf("untouched fields changed: %+v", s.Config)
	}
	if len(s.Food) != 5 || len(s.Bombs) != game.DefaultConfig.InitialBombCount {
		t.Fatalf("food=%d bombs=%d", len(s.Food), len(s.Bombs))
	}
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	snake := []game.Cell{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 3, Y: 5}}
	e := New(WithState(scenario(10, 10, snake, game.Right, game.WallsSolid)), seeded(14))

	var got []Event
	unsub := e.Subscribe(func(ev Event) { got = append(got, ev) })

	e.SetDirection(game.Left) // refused, no event
	e.SetDirection(game.Down)
	e.Tick()
	e.SetSpeed(300)
	unsub()
	e.Tick()

	if len(got) != 3 {
		t.Fatalf("events=%d want=3", len(got))
	}
	if got[0].Kind != EventDirection || got[1].Kind != EventTick || got[2].Kind != EventSpeed {
		t.Fatalf("kinds=%v,%v,%v", got[0].Kind, got[1].Kind, got[2].Kind)
	}
	if got[1].Outcome != rules.OutcomeMove || got[1].State.Snake[0] != (game.Cell{X: 5, Y: 6}) {
		t.Fatalf("tick event outcome=%s head=%v", got[1].Outcome, got[1].State.Snake[0])
	}

	// The snapshot belongs to the listener.
	got[1].State.Snake[0] = game.Cell{X: -1, Y: -1}
	if e.State().Snake[1] != (game.Cell{X: 5, Y: 6}) {
		t.Fatalf("event state aliases engine state")
	}
}

func TestSubscribe_ListenerMayCallBack(t *testing.T) {
	e := New(seeded(15))
	e.Subscribe(func(ev Event) {
		if ev.Kind == EventMode {
			_ = e.State()
		}
	})
	e.SetMode(game.Wrap)
}

func TestEngine_ConcurrentCallers(t *testing.T) {
	e := New(WithGrid(20, 20), WithMode(game.Wrap), seeded(16))
	e.TogglePause()

	var wg sync.WaitGroup
	dirs := []game.Direction{game.Up, game.Right, game.Down, game.Right}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				switch i {
				case 0:
					e.Tick()
				case 1:
					e.SetDirection(dirs[j%len(dirs)])
				case 2:
					_ = e.State()
				case 3:
					e.SetSpeed(50 + 50*(j%10))
				}
			}
		}(i)
	}
	wg.Wait()

	s := e.State()
	seen := map[game.Cell]bool{}
	for _, c := range s.Snake {
		if seen[c] {
			t.Fatalf("snake overlaps itself at %v", c)
		}
		seen[c] = true
	}
}

func TestSubscribe_EventsArriveInCommitOrder(t *testing.T) {
	e := New(seeded(17))

	gate := make(chan struct{})
	held := make(chan struct{})
	var (
		mu   sync.Mutex
		seen []Event
	)
	e.Subscribe(func(ev Event) {
		if ev.Kind == EventPause && ev.State.Running {
			// Hold the first delivery until a later commit has happened.
			close(held)
			<-gate
		}
		mu.Lock()
		seen = append(seen, ev)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.TogglePause() // running
	}()
	<-held
	e.TogglePause() // paused, committed while the first event is still in flight
	close(gate)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("events=%d want=2", len(seen))
	}
	if seen[0].Seq >= seen[1].Seq {
		t.Fatalf("seq out of order: %d then %d", seen[0].Seq, seen[1].Seq)
	}
	last := seen[len(seen)-1]
	if got := e.State().Running; last.State.Running != got {
		t.Fatalf("engine Running=%v but last delivered event says Running=%v", got, last.State.Running)
	}
}

func TestSubscribe_NestedCommitDeliveredAfterCurrent(t *testing.T) {
	e := New(seeded(18))
	var kinds []EventKind
	e.Subscribe(func(ev Event) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventMode {
			e.SetSpeed(100)
		}
	})
	e.SetMode(game.Wrap)
	e.SetSpeed(150)

	want := []EventKind{EventMode, EventSpeed, EventSpeed}
	if len(kinds) != len(want) {
		t.Fatalf("kinds=%v want=%v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds=%v want=%v", kinds, want)
		}
	}
	if s := e.State(); s.SpeedMs != 150 || s.Mode != game.Wrap {
		t.Fatalf("state mode=%s speed=%d", s.Mode, s.SpeedMs)
	}
}
