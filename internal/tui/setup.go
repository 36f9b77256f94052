package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/tui/components"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// setupValues is bound to the first-run form; huh writes through the
// pointers while the form runs.
type setupValues struct {
	currency string
	theme    string
	dark     bool
	payment  string
}

func newSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		currency: cfg.General.CurrencySymbol,
		theme:    cfg.Appearance.Theme,
		dark:     cfg.Appearance.DarkMode,
		payment:  cfg.Entry.DefaultPaymentMethod,
	}
}

var currencyOptions = []string{"$", "€", "£", "¥", "₹", "R$"}

func newSetupForm(records int, configPath string, vals *setupValues) *huh.Form {
	intro := "Let's set up a few things."
	if records > 0 {
		intro = fmt.Sprintf("Found %d expenses in your ledger. Let's set up a few things.", records)
	}

	currencies := make([]huh.Option[string], 0, len(currencyOptions))
	for _, c := range currencyOptions {
		currencies = append(currencies, huh.NewOption(c, c))
	}

	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	payments := make([]huh.Option[string], 0, len(model.PaymentMethods))
	for _, pm := range model.PaymentMethods {
		payments = append(payments, huh.NewOption(string(pm), string(pm)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to dolla").
				Description(intro+"\n\nSettings are saved to "+configPath+"."),
			huh.NewSelect[string]().
				Title("Currency symbol").
				Options(currencies...).
				Value(&vals.currency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&vals.theme),
			huh.NewConfirm().
				Title("Dark mode").
				Affirmative("Dark").
				Negative("Light").
				Value(&vals.dark),
			huh.NewSelect[string]().
				Title("Default payment method").
				Options(payments...).
				Value(&vals.payment),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.needSetup = false
		a.setupForm = nil
		return a, a.saveSetupConfig()
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// apply copies the answers into cfg.
func (v *setupValues) apply(cfg *config.Config) {
	cfg.General.CurrencySymbol = v.currency
	cfg.Appearance.Theme = v.theme
	cfg.Appearance.DarkMode = v.dark
	cfg.Entry.DefaultPaymentMethod = v.payment
}

// RunSetup runs the setup form outside the dashboard and returns cfg with
// the answers applied. It is used by `dolla setup`.
func RunSetup(cfg config.Config, configPath string, records int) (config.Config, error) {
	vals := newSetupValues(cfg)
	if err := newSetupForm(records, configPath, vals).Run(); err != nil {
		return cfg, err
	}
	vals.apply(&cfg)
	return cfg, nil
}

func (a *App) saveSetupConfig() tea.Cmd {
	v := a.setupVals
	v.apply(&a.cfg)
	theme.SetMode(v.theme, v.dark)

	if pm, ok := model.ParsePaymentMethod(v.payment); ok && a.form != nil {
		_ = a.form.SetPaymentMethod(pm)
	}
	a.recompute()

	if err := config.SaveTo(a.configPath, a.cfg); err != nil {
		a.log.Error("save setup config", "path", a.configPath, "error", err)
		return a.setStatus("Could not save config; settings apply to this session only", components.StatusError)
	}
	return a.setStatus("All set! Run `dolla setup` anytime to reconfigure.", components.StatusSuccess)
}

// categoryValues is bound to the create-category form.
type categoryValues struct {
	name string
	icon string
}

var iconOptions = []string{
	"tag.fill", "cart.fill", "car.fill", "bag.fill", "doc.text.fill",
	"house.fill", "heart.fill", "gift.fill", "airplane", "fork.knife",
}

func newCategoryForm(vals *categoryValues) *huh.Form {
	icons := make([]huh.Option[string], 0, len(iconOptions))
	for _, ic := range iconOptions {
		icons = append(icons, huh.NewOption(ic, ic))
	}
	if vals.icon == "" {
		vals.icon = iconOptions[0]
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Category name").
				Placeholder("e.g. groceries").
				CharLimit(40).
				Value(&vals.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					if strings.EqualFold(strings.TrimSpace(s), model.CreateNewCategory().Name) {
						return errors.New("that name is reserved")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Icon").
				Options(icons...).
				Value(&vals.icon),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// updateCategoryForm runs the create-new sub-flow opened from the Add tab.
// Completing it creates and selects the category; aborting leaves the
// previous selection in place.
func (a App) updateCategoryForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.catForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.catForm = f
	}

	switch a.catForm.State {
	case huh.StateCompleted:
		vals := a.catVals
		a.catForm = nil
		a.catVals = nil
		c, err := a.form.CreateCategory(strings.TrimSpace(vals.name), vals.icon)
		a.add.syncCategoryCursor(a.form)
		if err != nil {
			return a, a.setStatus(err.Error(), components.StatusError)
		}
		a.log.Info("category created", "id", c.ID, "name", c.Name)
		return a, tea.Batch(
			persistCategoriesCmd(a.registry, a.store),
			a.setStatus("Added category "+c.Name, components.StatusSuccess),
			a.add.setFocus(addFieldPayment),
		)
	case huh.StateAborted:
		a.catForm = nil
		a.catVals = nil
		a.add.syncCategoryCursor(a.form)
		return a, nil
	}
	return a, cmd
}
