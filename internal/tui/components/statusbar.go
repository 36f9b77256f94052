package components

import (
	"strings"

	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusKind colors the status bar's message slot.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

// RenderStatusBar renders the bottom status bar: key hints on the left, an
// optional message in the middle, and right-aligned info.
func RenderStatusBar(width int, hints, message string, kind StatusKind, info string) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	msgColor := t.TextPrimary
	switch kind {
	case StatusSuccess:
		msgColor = t.Success
	case StatusError:
		msgColor = t.Error
	}
	msgStyle := lipgloss.NewStyle().Foreground(msgColor).Background(t.Surface).Bold(true)

	left := base.Render(" " + hints)
	if message != "" {
		left += base.Render("  ") + msgStyle.Render(message)
	}
	right := ""
	if info != "" {
		right = base.Render(info + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return left + base.Render(strings.Repeat(" ", padding)) + right
}
