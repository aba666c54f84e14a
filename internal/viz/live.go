package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/cellgrav/internal/logger"
	"github.com/san-kum/cellgrav/internal/sim"
)

const (
	defaultCols     = 48
	defaultRows     = 20
	historyCapacity = 600
	frameRate       = 30
)

type TickMsg time.Time

// scopeWindow is a square of grid cells inspected in the status panel.
type scopeWindow struct {
	x, y, size int
}

// Model steps a simulator once per frame and renders its front buffer.
type Model struct {
	ctx         context.Context
	sim         *sim.Simulator
	name        string
	mode        Mode
	theme       Theme
	canvas      *Canvas
	scope       scopeWindow
	running     bool
	showHelp    bool
	massHistory []float64
	dtHistory   []float64
	err         error
}

// NewModel wraps a seeded simulator. The scope starts centred with a side
// of a ninth of the grid.
func NewModel(ctx context.Context, s *sim.Simulator, name string) Model {
	g := s.Grid()
	size := max(1, min(g.Width, g.Height)/9)
	return Model{
		ctx:         ctx,
		sim:         s,
		name:        name,
		theme:       Themes[0],
		canvas:      NewCanvas(defaultCols, defaultRows),
		scope:       scopeWindow{x: (g.Width - size) / 2, y: (g.Height - size) / 2, size: size},
		running:     true,
		massHistory: make([]float64, 0, historyCapacity),
		dtHistory:   make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running && m.err == nil
		case ".":
			if !m.running && m.err == nil {
				m.step()
			}
		case "m":
			m.mode = m.mode.Next()
		case "t":
			m.theme = nextTheme(m.theme)
		case "up", "k":
			m.moveScope(0, 1)
		case "down", "j":
			m.moveScope(0, -1)
		case "left", "h":
			m.moveScope(-1, 0)
		case "right", "l":
			m.moveScope(1, 0)
		case "+", "=":
			m.resizeScope(1)
		case "-", "_":
			m.resizeScope(-1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		cols := max(10, min(120, msg.Width-statsStyle.GetWidth()-6))
		rows := max(6, min(60, msg.Height-4))
		m.canvas = NewCanvas(cols, rows)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step advances one tick and records the histories.
func (m *Model) step() {
	r, err := m.sim.Tick(m.ctx)
	if err != nil {
		m.err = err
		m.running = false
		logger.WithComponent("viz").Error("tick failed", "tick", m.sim.Ticks(), "error", err)
		return
	}
	m.massHistory = appendCapped(m.massHistory, r.Mass)
	m.dtHistory = appendCapped(m.dtHistory, r.Dt)
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// moveScope shifts the scope by its own size, staying inside the grid.
func (m *Model) moveScope(dx, dy int) {
	g := m.sim.Grid()
	m.scope.x = max(0, min(g.Width-m.scope.size, m.scope.x+dx*m.scope.size))
	m.scope.y = max(0, min(g.Height-m.scope.size, m.scope.y+dy*m.scope.size))
}

func (m *Model) resizeScope(delta int) {
	g := m.sim.Grid()
	m.scope.size = max(1, min(min(g.Width, g.Height), m.scope.size+delta))
	m.moveScope(0, 0)
}

// scopeMass sums the scope window of the front buffer.
func (m Model) scopeMass() (mass float64, occupied int) {
	cells, err := m.sim.Scope(m.scope.x, m.scope.y, m.scope.size, m.scope.size)
	if err != nil {
		return 0, 0
	}
	for i := range cells {
		if cells[i].Mass > 0 {
			mass += cells[i].Mass
			occupied++
		}
	}
	return mass, occupied
}

// draw renders the heatmap and the scope outline into the canvas.
func (m *Model) draw() {
	g := m.sim.Grid()
	samples, w, h := Sample(m.sim.Backend(), g, g.Front(), m.mode, m.canvas.Width*2, m.canvas.Height*4)

	m.canvas.Clear()
	m.canvas.Plot(samples, w, h)

	sc := m.scope
	x0 := sc.x * w / g.Width
	x1 := max(x0, (sc.x+sc.size)*w/g.Width-1)
	y0 := h - (sc.y+sc.size)*h/g.Height
	y1 := max(y0, h-sc.y*h/g.Height-1)
	m.canvas.DrawRect(x0, y0, x1, y1)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("FAILED")
	case m.running:
		return StatusRunning.Render("RUNNING")
	default:
		return StatusPaused.Render("PAUSED")
	}
}

// View renders the heatmap beside the status panel.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.Render(m.theme))

	last := m.sim.Last()
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.massHistory) > 1 {
		chart := asciigraph.Plot(m.massHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("total mass"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(row("dt", SparklineChart(m.dtHistory, 30)))

	s.WriteString(row("Tick", fmt.Sprintf("%d", m.sim.Ticks())))
	s.WriteString(row("Time", fmt.Sprintf("%.3f", m.sim.Time())))
	s.WriteString(row("Step", fmt.Sprintf("%.5f", last.Dt)))
	s.WriteString(row("Mass", fmt.Sprintf("%.4f", last.Mass)))
	if m0 := m.sim.InitialMass(); m0 > 0 {
		s.WriteString(row("Drift", fmt.Sprintf("%.2e", (last.Mass-m0)/m0)))
	}
	s.WriteString(row("Max mass", fmt.Sprintf("%.4f", last.Stats.MaxMass)))
	s.WriteString(row("Max vel", fmt.Sprintf("%.4f", last.Stats.MaxVelocity)))
	s.WriteString(row("Max accel", fmt.Sprintf("%.4f", last.Stats.MaxAccel)))
	s.WriteString(row("Display", m.mode.String()+" / "+m.theme.Name))
	s.WriteString(row("Force", m.sim.Evaluator().Name()+" on "+m.sim.Backend().Name()))

	mass, occupied := m.scopeMass()
	s.WriteString("\nSCOPE\n")
	s.WriteString(row("Window", fmt.Sprintf("%dx%d at (%d,%d)", m.scope.size, m.scope.size, m.scope.x, m.scope.y)))
	s.WriteString(row("Mass", fmt.Sprintf("%.4f", mass)))
	s.WriteString(row("Occupied", fmt.Sprintf("%d/%d", occupied, m.scope.size*m.scope.size)))

	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause .:Step M:Mode T:Theme\n←↑↓→:Scope +/-:Size ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  .        - Single tick while paused ║
║  M        - Cycle display mode       ║
║  T        - Cycle colour themes      ║
║  Arrows   - Move scope window        ║
║  + / -    - Grow/shrink scope        ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run shows the live viewer until the user quits or ctx ends.
func Run(ctx context.Context, s *sim.Simulator, name string) error {
	_, err := tea.NewProgram(NewModel(ctx, s, name), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
