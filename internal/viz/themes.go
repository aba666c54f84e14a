package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the heat ramp and panel colours. Colours are #rrggbb.
type Theme struct {
	Name   string
	Low    lipgloss.Color
	Mid    lipgloss.Color
	High   lipgloss.Color
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
}

var (
	ThemeInferno = Theme{
		Name:   "inferno",
		Low:    lipgloss.Color("#320a5e"),
		Mid:    lipgloss.Color("#dd513a"),
		High:   lipgloss.Color("#fcffa4"),
		Accent: lipgloss.Color("#00ffff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#666666"),
	}

	ThemeRetroGreen = Theme{
		Name:   "retro",
		Low:    lipgloss.Color("#003300"),
		Mid:    lipgloss.Color("#00aa00"),
		High:   lipgloss.Color("#88ff88"),
		Accent: lipgloss.Color("#ffff00"),
		Text:   lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Low:    lipgloss.Color("#001a33"),
		Mid:    lipgloss.Color("#0077be"),
		High:   lipgloss.Color("#e0f0ff"),
		Accent: lipgloss.Color("#ffd700"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#4488aa"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Low:    lipgloss.Color("#333333"),
		Mid:    lipgloss.Color("#999999"),
		High:   lipgloss.Color("#ffffff"),
		Accent: lipgloss.Color("#0088ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
	}

	Themes = []Theme{
		ThemeInferno,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeMinimal,
	}
)

// Heat maps t in [0,1] onto the Low-Mid-High ramp.
func (t Theme) Heat(v float64) lipgloss.Color {
	v = clamp01(v)
	if v < 0.5 {
		return lerpColor(t.Low, t.Mid, v*2)
	}
	return lerpColor(t.Mid, t.High, (v-0.5)*2)
}

// GetTheme returns a theme by name, the first theme when unknown.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
