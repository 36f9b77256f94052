// Package theme defines color themes for the dolla TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name         string
	Dark         bool
	Background   lipgloss.Color // Main app background
	Surface      lipgloss.Color // Card/panel backgrounds
	SurfaceHover lipgloss.Color // Active tab, selected row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // Focused input, active slice outline
	TextDim      lipgloss.Color // Hints, disabled
	TextMuted    lipgloss.Color // Labels, metadata
	TextPrimary  lipgloss.Color
	Primary      lipgloss.Color // Brand green
	Secondary    lipgloss.Color // Brand gold, money values
	Accent       lipgloss.Color
	Error        lipgloss.Color
	Success      lipgloss.Color

	// Slices colors donut slices and legend rows, cycled by slice index.
	Slices []lipgloss.Color
}

// CategoryColor returns the slice color for index i.
func (t Theme) CategoryColor(i int) lipgloss.Color {
	if len(t.Slices) == 0 {
		return t.Primary
	}
	if i < 0 {
		i = -i
	}
	return t.Slices[i%len(t.Slices)]
}

// Active is the currently selected theme.
var Active = DollaDark

// DollaDark is the default theme: deep forest greens with gold highlights.
var DollaDark = Theme{
	Name:         "dolla-dark",
	Dark:         true,
	Background:   lipgloss.Color("#081C15"),
	Surface:      lipgloss.Color("#0F2A20"),
	SurfaceHover: lipgloss.Color("#1B4332"),
	Border:       lipgloss.Color("#1B4332"),
	BorderAccent: lipgloss.Color("#A47E1B"),
	TextDim:      lipgloss.Color("#52796F"),
	TextMuted:    lipgloss.Color("#84A98C"),
	TextPrimary:  lipgloss.Color("#ECEDEE"),
	Primary:      lipgloss.Color("#1B4332"),
	Secondary:    lipgloss.Color("#A47E1B"),
	Accent:       lipgloss.Color("#2D6A4F"),
	Error:        lipgloss.Color("#FF6B6B"),
	Success:      lipgloss.Color("#40916C"),
	Slices: []lipgloss.Color{
		"#40916C", "#C9A227", "#74C69D", "#E9C46A",
		"#2D6A4F", "#F4A261", "#95D5B2", "#E76F51",
	},
}

// DollaLight is the light counterpart of DollaDark.
var DollaLight = Theme{
	Name:         "dolla-light",
	Background:   lipgloss.Color("#FFFFFF"),
	Surface:      lipgloss.Color("#F4FBF6"),
	SurfaceHover: lipgloss.Color("#D8F3DC"),
	Border:       lipgloss.Color("#D8F3DC"),
	BorderAccent: lipgloss.Color("#C9A227"),
	TextDim:      lipgloss.Color("#95A39B"),
	TextMuted:    lipgloss.Color("#52796F"),
	TextPrimary:  lipgloss.Color("#081C15"),
	Primary:      lipgloss.Color("#2D6A4F"),
	Secondary:    lipgloss.Color("#C9A227"),
	Accent:       lipgloss.Color("#D8F3DC"),
	Error:        lipgloss.Color("#E63946"),
	Success:      lipgloss.Color("#2D6A4F"),
	Slices: []lipgloss.Color{
		"#2D6A4F", "#C9A227", "#52B788", "#B5838D",
		"#1B4332", "#E76F51", "#74C69D", "#6D597A",
	},
}

// Terminal uses ANSI 16 colors only - maximum compatibility.
var Terminal = Theme{
	Name:         "terminal",
	Dark:         true,
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("3"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Primary:      lipgloss.Color("2"),
	Secondary:    lipgloss.Color("3"),
	Accent:       lipgloss.Color("10"),
	Error:        lipgloss.Color("1"),
	Success:      lipgloss.Color("2"),
	Slices: []lipgloss.Color{
		"2", "3", "6", "5", "4", "1", "10", "11",
	},
}

// All available themes.
var All = []Theme{DollaDark, DollaLight, Terminal}

// ByName returns a theme by its name, defaulting to DollaDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return DollaDark
}

// ForMode returns the dolla theme matching the dark mode flag. Themes
// outside the dolla pair are returned unchanged.
func ForMode(name string, dark bool) Theme {
	t := ByName(name)
	switch t.Name {
	case DollaDark.Name, DollaLight.Name:
		if dark {
			return DollaDark
		}
		return DollaLight
	}
	return t
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// SetMode sets the active theme honoring the dark mode flag.
func SetMode(name string, dark bool) {
	Active = ForMode(name, dark)
}
