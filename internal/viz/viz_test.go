package viz

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim(t *testing.T, size int) *sim.Simulator {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Width, cfg.Height = size, size
	s, err := sim.New(cfg, compute.NewSerialBackend())
	require.NoError(t, err)

	mass := make([]float64, size*size)
	// one heavy block in the lower left quadrant
	for y := 0; y < size/3; y++ {
		for x := 0; x < size/3; x++ {
			mass[y*size+x] = 2
		}
	}
	mass[size*size-1] = 1
	require.NoError(t, s.Seed(mass, nil))
	return s
}

func TestModeCycle(t *testing.T) {
	m := ModeMass
	seen := map[string]bool{}
	for range ModeNames() {
		seen[m.String()] = true
		m = m.Next()
	}
	assert.Equal(t, ModeMass, m)
	assert.Len(t, seen, 4)

	got, err := ParseMode("sat")
	require.NoError(t, err)
	assert.Equal(t, ModeSAT, got)
	_, err = ParseMode("heat")
	assert.Error(t, err)
}

func TestSampleOrientation(t *testing.T) {
	s := newSim(t, 9)
	g := s.Grid()

	out, w, h := Sample(compute.NewSerialBackend(), g, g.Front(), ModeMass, 3, 3)
	require.Equal(t, 3, w)
	require.Equal(t, 3, h)
	// grid row 0 is at the bottom of the image
	assert.InDelta(t, 1.0, out[2*w+0], 1e-12)
	assert.InDelta(t, 0.0, out[0], 1e-12)
	assert.InDelta(t, 1.0/18, out[0*w+2], 1e-12)
}

func TestSampleSATMatchesMass(t *testing.T) {
	s := newSim(t, 27)
	g := s.Grid()
	b := compute.NewCPUBackend()

	mass, w, h := Sample(b, g, g.Front(), ModeMass, 10, 7)
	sat, w2, h2 := Sample(b, g, g.Front(), ModeSAT, 10, 7)
	require.Equal(t, w, w2)
	require.Equal(t, h, h2)
	assert.InDeltaSlice(t, mass, sat, 1e-9)
}

func TestSampleClampsToGrid(t *testing.T) {
	g, err := grid.New(4, 3, 1)
	require.NoError(t, err)
	_, w, h := Sample(compute.NewSerialBackend(), g, g.Front(), ModeForce, 40, 40)
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
}

func TestCanvasPlot(t *testing.T) {
	c := NewCanvas(2, 1)
	samples := []float64{
		1, 1, 0, 0,
		1, 1, 0, 0,
		1, 1, 0, 0,
		1, 1, 0, 0,
	}
	c.Plot(samples, 4, 4)
	assert.Equal(t, rune(0x28FF), c.Grid[0][0])
	assert.Equal(t, rune(blank), c.Grid[0][1])
	assert.Equal(t, 1.0, c.Shade[0][0])

	c.DrawRect(2, 0, 3, 3)
	assert.True(t, c.Marked[0][1])
	assert.False(t, c.Marked[0][0])

	c.Clear()
	assert.Equal(t, strings.Repeat(string(rune(blank)), 2)+"\n", c.String())
}

func TestThemeHeat(t *testing.T) {
	th := ThemeMinimal
	assert.Equal(t, th.Low, th.Heat(0))
	assert.Equal(t, th.Mid, th.Heat(0.5))
	assert.Equal(t, th.High, th.Heat(1))
	assert.Equal(t, th.High, th.Heat(7))
	assert.Equal(t, "ocean", nextTheme(GetTheme("retro")).Name)
	assert.Equal(t, Themes[0].Name, GetTheme("nope").Name)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModelSteps(t *testing.T) {
	s := newSim(t, 27)
	m := NewModel(context.Background(), s, "test")

	m = update(m, TickMsg{}, TickMsg{})
	assert.Equal(t, 2, s.Ticks())
	assert.Len(t, m.massHistory, 2)

	m = update(m, key(" "), TickMsg{})
	assert.False(t, m.running)
	assert.Equal(t, 2, s.Ticks())

	m = update(m, key("."))
	assert.Equal(t, 3, s.Ticks())

	m = update(m, key("m"), key("m"))
	assert.Equal(t, ModeForce, m.mode)
}

func TestModelScope(t *testing.T) {
	s := newSim(t, 27)
	m := NewModel(context.Background(), s, "test")
	require.Equal(t, scopeWindow{x: 12, y: 12, size: 3}, m.scope)

	m = update(m, key("up"), key("right"))
	assert.Equal(t, scopeWindow{x: 15, y: 15, size: 3}, m.scope)

	for i := 0; i < 20; i++ {
		m = update(m, key("right"))
	}
	assert.Equal(t, 24, m.scope.x)

	m = update(m, key("+"))
	assert.Equal(t, 4, m.scope.size)
	assert.Equal(t, 23, m.scope.x)

	m.scope = scopeWindow{x: 0, y: 0, size: 3}
	mass, occupied := m.scopeMass()
	assert.InDelta(t, 18.0, mass, 1e-9)
	assert.Equal(t, 9, occupied)
}

func TestModelView(t *testing.T) {
	s := newSim(t, 27)
	m := NewModel(context.Background(), s, "galaxy")
	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 30}, TickMsg{}, TickMsg{})

	view := m.View()
	assert.Contains(t, view, "GALAXY")
	assert.Contains(t, view, "SCOPE")
	assert.Contains(t, view, "mass / inferno")
}

func TestPicker(t *testing.T) {
	p := NewPicker(context.Background(), compute.NewSerialBackend())
	assert.Contains(t, p.View(), "static/uniform")

	pk := p.(*picker)
	for i, e := range pk.entries {
		if e.label() == "static/uniform" {
			pk.cursor = i
		}
	}
	_, cmd := p.Update(key("enter"))
	assert.NotNil(t, cmd)
	assert.Equal(t, stateSim, pk.state)
	assert.Contains(t, pk.View(), "STATIC/UNIFORM")
}
