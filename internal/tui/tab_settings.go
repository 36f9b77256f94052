package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/entry"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/tui/components"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldDarkMode
	settingsFieldCurrency
	settingsFieldPayment
	settingsFieldDelay
	settingsFieldRecent
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

// settingsTextField reports whether the field is edited with a text input
// rather than cycled in place.
func settingsTextField(field int) bool {
	switch field {
	case settingsFieldCurrency, settingsFieldDelay, settingsFieldRecent:
		return true
	}
	return false
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
		return a, nil, true
	case "h", "[":
		return a.settingsCycle(-1)
	case "l", "]", " ":
		return a.settingsCycle(1)
	case "enter":
		if settingsTextField(a.settings.cursor) {
			m, cmd := a.settingsStartEdit()
			return m, cmd, true
		}
		return a.settingsCycle(1)
	}
	return a, nil, false
}

// settingsCycle steps a choice field and saves immediately.
func (a App) settingsCycle(step int) (tea.Model, tea.Cmd, bool) {
	switch a.settings.cursor {
	case settingsFieldTheme:
		idx := 0
		for i, th := range theme.All {
			if th.Name == a.cfg.Appearance.Theme {
				idx = i
			}
		}
		idx = (idx + step + len(theme.All)) % len(theme.All)
		a.cfg.Appearance.Theme = theme.All[idx].Name
		a.cfg.Appearance.DarkMode = theme.All[idx].Dark
	case settingsFieldDarkMode:
		a.cfg.Appearance.DarkMode = !a.cfg.Appearance.DarkMode
	case settingsFieldPayment:
		methods := model.PaymentMethods
		idx := 0
		for i, pm := range methods {
			if string(pm) == a.cfg.Entry.DefaultPaymentMethod {
				idx = i
			}
		}
		idx = (idx + step + len(methods)) % len(methods)
		a.cfg.Entry.DefaultPaymentMethod = string(methods[idx])
	default:
		return a, nil, false
	}
	return a, a.settingsApply(), true
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := textinput.New()
	ti.CharLimit = 16
	ti.Width = 20

	switch a.settings.cursor {
	case settingsFieldCurrency:
		ti.Placeholder = "$"
		ti.CharLimit = 4
		ti.SetValue(a.cfg.General.CurrencySymbol)
	case settingsFieldDelay:
		ti.Placeholder = "1500 (milliseconds)"
		ti.SetValue(strconv.Itoa(a.cfg.Entry.ConfirmationDelayMs))
	case settingsFieldRecent:
		ti.Placeholder = "5"
		ti.SetValue(strconv.Itoa(a.cfg.General.RecentCount))
	}

	a.settings.input = ti
	return a, a.settings.input.Focus()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settings.editing = false
		if err := a.settingsParse(strings.TrimSpace(a.settings.input.Value())); err != nil {
			return a, a.setStatus(err.Error(), components.StatusError)
		}
		return a, a.settingsApply()
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func (a *App) settingsParse(val string) error {
	switch a.settings.cursor {
	case settingsFieldCurrency:
		if val == "" {
			return errors.New("currency symbol cannot be empty")
		}
		a.cfg.General.CurrencySymbol = val
	case settingsFieldDelay:
		ms, err := strconv.Atoi(val)
		if err != nil || ms < 0 {
			return errors.New("confirmation delay must be a number of milliseconds")
		}
		a.cfg.Entry.ConfirmationDelayMs = ms
	case settingsFieldRecent:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return errors.New("recent count must be at least 1")
		}
		a.cfg.General.RecentCount = n
	}
	return nil
}

// settingsApply makes the current config live and writes it to disk.
func (a *App) settingsApply() tea.Cmd {
	theme.SetMode(a.cfg.Appearance.Theme, a.cfg.Appearance.DarkMode)

	// Entry options are read once per form; rebuild unless a submission is
	// still in flight.
	if a.form != nil && a.form.Confirmation().Phase() != entry.PhaseSubmitted &&
		a.form.Confirmation().Phase() != entry.PhaseConfirmationShown {
		catID := a.form.CategoryID
		a.form = entry.NewForm(a.registry, a.ledger, a.entryOptions())
		if catID != "" {
			_, _ = a.form.SelectCategory(catID)
		}
		a.add.syncCategoryCursor(a.form)
	}
	a.recompute()

	a.settings.saveErr = config.SaveTo(a.configPath, a.cfg)
	a.settings.saved = a.settings.saveErr == nil
	if a.settings.saveErr != nil {
		a.log.Error("save settings", "path", a.configPath, "error", a.settings.saveErr)
		return a.setStatus("Save failed: "+a.settings.saveErr.Error(), components.StatusError)
	}
	return a.setStatus("Settings saved", components.StatusSuccess)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.SurfaceHover).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Success).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.SurfaceHover)

	darkMode := "off"
	if cfg.Appearance.DarkMode {
		darkMode = "on"
	}

	fields := []struct {
		label string
		value string
	}{
		{"Theme", cfg.Appearance.Theme},
		{"Dark Mode", darkMode},
		{"Currency Symbol", cfg.General.CurrencySymbol},
		{"Default Payment", cfg.Entry.DefaultPaymentMethod},
		{"Confirmation", fmt.Sprintf("%dms", cfg.ConfirmationDelay().Milliseconds())},
		{"Recent Count", strconv.Itoa(cfg.General.RecentCount)},
	}

	innerW := components.CardInnerWidth(cw)

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker)
			formBody.WriteString(label)
			formBody.WriteString(value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := innerW - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceHover).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Error).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [enter] edit or toggle  [h/l] cycle  [esc] cancel"))

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Ledger:          ") + valueStyle.Render(a.storePath) + "\n")
	infoBody.WriteString(labelStyle.Render("Expenses:        ") + valueStyle.Render(cli.FormatNumber(int64(len(a.records)))) + "\n")
	if a.registry != nil {
		infoBody.WriteString(labelStyle.Render("Categories:      ") + valueStyle.Render(strings.Join(a.registry.Names(), ", ")) + "\n")
	}
	infoBody.WriteString(labelStyle.Render("Load time:       ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(a.configPath))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))
	return b.String()
}
