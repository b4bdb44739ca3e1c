package viz

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name    string
	Primary lipgloss.Color
	Border  lipgloss.Color
	Value   lipgloss.Color
	Muted   lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Border:  lipgloss.Color("#444466"),
		Value:   lipgloss.Color("#ff00ff"),
		Muted:   lipgloss.Color("#666688"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Border:  lipgloss.Color("#005500"),
		Value:   lipgloss.Color("#88ff88"),
		Muted:   lipgloss.Color("#337733"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Border:  lipgloss.Color("#888888"),
		Value:   lipgloss.Color("#0088ff"),
		Muted:   lipgloss.Color("#888888"),
	}

	Themes = []Theme{ThemeCyberpunk, ThemeRetro, ThemeMinimal}
)

func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

// NextTheme cycles through Themes.
func NextTheme(current Theme) Theme {
	for i, t := range Themes {
		if t.Name == current.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// Apply recolours the package styles.
func (t Theme) Apply() {
	Title = Title.Foreground(t.Primary)
	Panel = Panel.BorderForeground(t.Border)
	MetricValue = MetricValue.Foreground(t.Value)
	Subtle = Subtle.Foreground(t.Muted)
	KeyHint = KeyHint.Foreground(t.Muted)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
