package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/config"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

const (
	stateMenu = iota
	stateSim
)

type entry struct {
	group, name string
	cfg         *config.Config
}

func (e entry) label() string { return e.group + "/" + e.name }

func (e entry) detail() string {
	return fmt.Sprintf("%dx%d %s w%d", e.cfg.Width, e.cfg.Height, e.cfg.Force, e.cfg.PropagationWindow)
}

// picker lists the presets and launches the live viewer on the chosen one.
type picker struct {
	ctx     context.Context
	backend compute.Backend
	state   int
	cursor  int
	entries []entry
	live    Model
	err     error
}

func NewPicker(ctx context.Context, backend compute.Backend) tea.Model {
	p := &picker{ctx: ctx, backend: backend}
	for _, group := range config.ListGroups() {
		for _, name := range config.ListPresets(group) {
			p.entries = append(p.entries, entry{group: group, name: name, cfg: config.GetPreset(group, name)})
		}
	}
	return p
}

func (p *picker) Init() tea.Cmd { return nil }

func (p *picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateSim {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		p.cursor = max(0, p.cursor-1)
	case "down", "j":
		p.cursor = min(len(p.entries)-1, p.cursor+1)
	case "enter", " ":
		return p, p.start()
	}
	return p, nil
}

func (p *picker) start() tea.Cmd {
	if len(p.entries) == 0 {
		return nil
	}
	e := p.entries[p.cursor]
	s, err := e.cfg.NewSimulator(p.backend)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", e.label(), err)
		return nil
	}
	p.err = nil
	p.live = NewModel(p.ctx, s, e.label())
	p.state = stateSim
	return p.live.Init()
}

func (p *picker) View() string {
	if p.state == stateSim {
		return p.live.View()
	}
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("CELLGRAV") + "\n    " + subStyle.Render("self-gravitating mass grid") + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, e := range p.entries {
		if i == p.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-18s", e.label())), detailStyle.Render(e.detail())))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", idleStyle.Render(fmt.Sprintf("%-18s", e.label())), idleStyle.Render(e.detail())))
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + errorStyle.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyStyle.Render("j/k") + subStyle.Render(" navigate  ") + keyStyle.Render("enter") + subStyle.Render(" run  ") + keyStyle.Render("q") + subStyle.Render(" quit") + "\n")
	return b.String()
}

// RunInteractive opens the preset picker.
func RunInteractive(ctx context.Context, backend compute.Backend) error {
	_, err := tea.NewProgram(NewPicker(ctx, backend), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
