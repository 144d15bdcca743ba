// Package tui is the Bubble Tea terminal client for an engine.
//
// The model owns the tick timer in terminal mode. Every time the schedule
// changes (pause, resume, speed, game over) the generation counter moves on,
// and ticks from an older generation are dropped, so two tick chains never run
// at once.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/gridsnake/engine"
	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/input"
	"github.com/brensch/gridsnake/settings"
)

// TickMsg asks the model to advance the engine. Gen must match the model's
// current generation or the message is ignored.
type TickMsg struct {
	Gen  int
	Time time.Time
}

func tickCmd(gen, speedMs int) tea.Cmd {
	return tea.Tick(time.Duration(speedMs)*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, Time: t}
	})
}

type schedule struct {
	armed   bool
	speedMs int
}

func scheduleFor(s *game.GameState) schedule {
	return schedule{armed: s.Running && !s.GameOver, speedMs: s.SpeedMs}
}

type Model struct {
	eng   *engine.Engine
	state *game.GameState
	sched schedule
	gen   int
	st    styles
}

func New(eng *engine.Engine) Model {
	s := eng.State()
	return Model{
		eng:   eng,
		state: s,
		sched: scheduleFor(s),
		st:    defaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	if m.sched.armed {
		return tickCmd(m.gen, m.sched.speedMs)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.eng.ResetGame()
		case "m":
			if m.state.Mode == game.Wrap {
				m.eng.SetMode(game.WallsSolid)
			} else {
				m.eng.SetMode(game.Wrap)
			}
		case "+", "=":
			m.eng.SetSpeed(settings.StepSpeed(m.state.SpeedMs, 1))
		case "-", "_":
			m.eng.SetSpeed(settings.StepSpeed(m.state.SpeedMs, -1))
		default:
			input.Apply(m.eng, msg.String())
		}
		return m, m.refresh()

	case TickMsg:
		if msg.Gen != m.gen || !m.sched.armed {
			return m, nil
		}
		m.eng.Tick()
		cmd := m.refresh()
		if cmd == nil && m.sched.armed {
			cmd = tickCmd(m.gen, m.sched.speedMs)
		}
		return m, cmd
	}
	return m, nil
}

// refresh pulls a fresh snapshot and, if the schedule moved, starts a new
// tick generation.
func (m *Model) refresh() tea.Cmd {
	m.state = m.eng.State()
	next := scheduleFor(m.state)
	if next == m.sched {
		return nil
	}
	m.sched = next
	m.gen++
	if !next.armed {
		return nil
	}
	return tickCmd(m.gen, next.speedMs)
}

type styles struct {
	head, body, food, bomb, empty lipgloss.Style
	board, title, label, over     lipgloss.Style
	help                          lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		head:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		body:  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		food:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		bomb:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		empty: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		board: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")),
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		over:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		help:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

const (
	glyphHead  = "██"
	glyphBody  = "▓▓"
	glyphFood  = "()"
	glyphBomb  = "**"
	glyphEmpty = "· "
)

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.st.title.Render("gridsnake"),
		m.renderBoard(),
		m.renderHUD(),
		m.st.help.Render("arrows/wasd move  space pause  r reset  m mode  +/- speed  q quit"),
	)
}

func (m Model) renderBoard() string {
	s := m.state
	kind := make(map[game.Cell]string, len(s.Snake)+len(s.Food)+len(s.Bombs))
	for _, c := range s.Food {
		kind[c] = m.st.food.Render(glyphFood)
	}
	for _, c := range s.Bombs {
		kind[c] = m.st.bomb.Render(glyphBomb)
	}
	for i := len(s.Snake) - 1; i >= 0; i-- {
		if i == 0 {
			kind[s.Snake[i]] = m.st.head.Render(glyphHead)
		} else {
			kind[s.Snake[i]] = m.st.body.Render(glyphBody)
		}
	}

	empty := m.st.empty.Render(glyphEmpty)
	var b strings.Builder
	for y := 0; y < s.Grid.Rows; y++ {
		for x := 0; x < s.Grid.Cols; x++ {
			if g, ok := kind[game.Cell{X: x, Y: y}]; ok {
				b.WriteString(g)
			} else {
				b.WriteString(empty)
			}
		}
		if y < s.Grid.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return m.st.board.Render(b.String())
}

func (m Model) renderHUD() string {
	s := m.state
	field := func(name string, v any) string {
		return m.st.label.Render(name+":") + fmt.Sprintf(" %v", v)
	}
	line := strings.Join([]string{
		field("Score", s.Score),
		field("Speed", fmt.Sprintf("%dms", s.SpeedMs)),
		field("Mode", s.Mode),
		field("Dir", s.Direction),
		field("Length", len(s.Snake)),
	}, "  ")
	return line + "\n" + m.status()
}

func (m Model) status() string {
	s := m.state
	switch {
	case s.GameOver && s.Cause != "":
		return m.st.over.Render(fmt.Sprintf("GAME OVER (%s), press r to restart", s.Cause))
	case s.GameOver:
		return m.st.over.Render("GAME OVER, press r to restart")
	case s.Running:
		return "RUNNING"
	default:
		return "PAUSED, press space to start"
	}
}

// Run starts the terminal program and blocks until the user quits.
func Run(eng *engine.Engine, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	if _, err := tea.NewProgram(New(eng), opts...).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
