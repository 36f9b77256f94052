package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/dolla/internal/category"
	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/entry"
	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/tui/components"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	addFieldAmount = iota
	addFieldMerchant
	addFieldNote
	addFieldCategory
	addFieldPayment
	addFieldDate
	addFieldSubmit
	addFieldCount // sentinel
)

// addState holds the Add tab's widgets. The entry.Form owns the values;
// the text inputs are copied into it on submit.
type addState struct {
	inputs     []textinput.Model // amount, merchant, note
	focus      int
	catCursor  int // index into Registry.Entries(); may sit on the create-new entry
	errs       *model.ValidationError
	submitting bool
	confirmed  string // confirmation banner while a submission waits to navigate
}

func newAddState() addState {
	amount := textinput.New()
	amount.Placeholder = "0.00"
	amount.CharLimit = 16
	amount.Width = 16
	amount.Validate = func(s string) error {
		for _, r := range s {
			if !strings.ContainsRune("0123456789.,$", r) {
				return errors.New("digits only")
			}
		}
		return nil
	}

	merchant := textinput.New()
	merchant.Placeholder = "Where did you spend?"
	merchant.CharLimit = 80
	merchant.Width = 40

	note := textinput.New()
	note.Placeholder = "Optional"
	note.CharLimit = 200
	note.Width = 40

	return addState{inputs: []textinput.Model{amount, merchant, note}}
}

func (s *addState) clearInputs() {
	for i := range s.inputs {
		s.inputs[i].SetValue("")
	}
	s.errs = nil
	s.confirmed = ""
}

// syncCategoryCursor points the category selector at the form's category.
func (s *addState) syncCategoryCursor(f *entry.Form) {
	for i, c := range f.Registry().Entries() {
		if c.ID == f.CategoryID {
			s.catCursor = i
			return
		}
	}
	s.catCursor = 0
}

func (s *addState) blur() {
	for j := range s.inputs {
		s.inputs[j].Blur()
	}
}

func (s *addState) setFocus(i int) tea.Cmd {
	s.focus = (i + addFieldCount) % addFieldCount
	var cmd tea.Cmd
	for j := range s.inputs {
		if j == s.focus {
			cmd = s.inputs[j].Focus()
		} else {
			s.inputs[j].Blur()
		}
	}
	return cmd
}

func (a *App) enterAdd() tea.Cmd {
	a.add.syncCategoryCursor(a.form)
	return a.add.setFocus(addFieldAmount)
}

// leaveAdd cancels a pending confirmation. The record is in the ledger, or
// will be once a running write returns, so the dashboard reloads instead of
// waiting for the navigation.
func (a *App) leaveAdd() tea.Cmd {
	phase := a.form.Confirmation().Phase()
	a.form.Leave()
	a.add.blur()
	a.add.submitting = false
	if phase == entry.PhaseSubmitted || phase == entry.PhaseConfirmationShown {
		a.form.Reset()
		a.add.clearInputs()
		return reloadCmd(a.ledger)
	}
	return nil
}

func (a *App) syncForm() {
	a.form.Amount = a.add.inputs[addFieldAmount].Value()
	a.form.Merchant = a.add.inputs[addFieldMerchant].Value()
	a.form.Note = a.add.inputs[addFieldNote].Value()
}

func (a App) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Keys are ignored while the write is in flight or the confirmation shows.
	if a.add.submitting || a.add.confirmed != "" {
		if key == "esc" {
			return a.switchTab(components.TabDashboard)
		}
		return a, nil
	}

	switch key {
	case "esc":
		return a.switchTab(components.TabDashboard)
	case "tab", "down":
		return a, a.add.setFocus(a.add.focus + 1)
	case "shift+tab", "up":
		return a, a.add.setFocus(a.add.focus - 1)
	case "ctrl+s":
		return a.submitAdd()
	}

	switch a.add.focus {
	case addFieldAmount, addFieldMerchant, addFieldNote:
		if key == "enter" {
			return a, a.add.setFocus(a.add.focus + 1)
		}
		var cmd tea.Cmd
		a.add.inputs[a.add.focus], cmd = a.add.inputs[a.add.focus].Update(msg)
		return a, cmd

	case addFieldCategory:
		return a.updateCategoryField(key)

	case addFieldPayment:
		methods := a.form.PaymentMethods()
		step := stepForKey(key)
		if step != 0 && len(methods) > 0 {
			idx := 0
			for i, m := range methods {
				if m == a.form.PaymentMethod {
					idx = i
				}
			}
			idx = (idx + step + len(methods)) % len(methods)
			_ = a.form.SetPaymentMethod(methods[idx])
		}
		return a, nil

	case addFieldDate:
		step := stepForKey(key)
		if step != 0 && !a.form.ChangeDate(step) {
			return a, a.setStatus("Date cannot be in the future", components.StatusError)
		}
		return a, nil

	case addFieldSubmit:
		if key == "enter" || key == " " {
			return a.submitAdd()
		}
	}
	return a, nil
}

func stepForKey(key string) int {
	switch key {
	case "left", "h", "[", "-":
		return -1
	case "right", "l", "]", "+", "=":
		return 1
	}
	return 0
}

func (a App) updateCategoryField(key string) (tea.Model, tea.Cmd) {
	entries := a.form.Registry().Entries()
	if len(entries) == 0 {
		return a, nil
	}

	if step := stepForKey(key); step != 0 {
		a.add.catCursor = (a.add.catCursor + step + len(entries)) % len(entries)
		if c := entries[a.add.catCursor]; !c.IsCreateNew() {
			_, _ = a.form.SelectCategory(c.ID)
		}
		return a, nil
	}

	if key != "enter" {
		return a, nil
	}
	c := entries[a.add.catCursor]
	res, err := a.form.SelectCategory(c.ID)
	if err != nil {
		return a, a.setStatus(err.Error(), components.StatusError)
	}
	if res == category.CreateRequested {
		a.catVals = &categoryValues{icon: a.cfg.Entry.DefaultIcon}
		a.catForm = newCategoryForm(a.catVals)
		if a.width > 0 {
			a.catForm = a.catForm.WithWidth(min(a.width, 60))
		}
		return a, a.catForm.Init()
	}
	return a, a.add.setFocus(addFieldPayment)
}

// submitAdd validates and builds the record on the update loop, where the
// form is edited, and hands only that record to the write.
func (a App) submitAdd() (tea.Model, tea.Cmd) {
	a.syncForm()
	rec, err := a.form.Prepare()
	if err != nil {
		var ve *model.ValidationError
		switch {
		case errors.As(err, &ve):
			a.add.errs = ve
			a.add.syncCategoryCursor(a.form)
			return a, tea.Batch(a.add.setFocus(focusForField(ve)),
				a.setStatus("Check the highlighted fields", components.StatusError))
		case errors.Is(err, entry.ErrSubmitPending):
			return a, nil
		}
		return a, a.setStatus(err.Error(), components.StatusError)
	}
	a.add.errs = nil
	a.add.submitting = true
	return a, submitCmd(a.form, rec)
}

func focusForField(ve *model.ValidationError) int {
	switch {
	case len(ve.Fields) == 0:
		return addFieldAmount
	case ve.Fields[0].Field == model.FieldMerchant:
		return addFieldMerchant
	case ve.Fields[0].Field == model.FieldCategory:
		return addFieldCategory
	}
	return addFieldAmount
}

func (a App) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	conf := a.form.Confirmation()
	if conf.Record().ID != msg.rec.ID || a.activeTab != components.TabAdd {
		// The user left the tab while the write was running. The sequence
		// was cancelled then, so only the dashboard needs the record.
		conf.CancelRecord(msg.rec.ID)
		return a, reloadCmd(a.ledger)
	}
	a.add.submitting = false

	var pe *model.PersistenceError
	if errors.As(msg.err, &pe) && pe.Op == model.OpRead {
		// Nothing was written; the inputs stay so the user can retry.
		conf.CancelRecord(msg.rec.ID)
		return a, a.setStatus("Not saved: "+msg.err.Error(), components.StatusError)
	}

	token, delay, ok := conf.Show()
	if !ok {
		return a, reloadCmd(a.ledger)
	}

	sym := a.cfg.General.CurrencySymbol
	a.add.confirmed = fmt.Sprintf("Saved %s at %s", cli.FormatMoney(msg.rec.Amount, sym), msg.rec.Merchant)

	var cmds []tea.Cmd
	if msg.err != nil {
		cmds = append(cmds, a.setStatus("Saved for this session only: "+msg.err.Error(), components.StatusError))
	} else {
		cmds = append(cmds, a.setStatus(a.add.confirmed, components.StatusSuccess))
	}

	payload, err := ledger.EncodePayload(msg.rec)
	if err != nil {
		a.log.Error("encode navigation payload", "id", msg.rec.ID, "error", err)
	}
	cmds = append(cmds, navigateAfter(delay, token, payload))
	return a, tea.Batch(cmds...)
}

// handleNavigate completes the confirmation: back to the dashboard, which
// merges the submitted record by id.
func (a App) handleNavigate(msg NavigateMsg) (tea.Model, tea.Cmd) {
	if _, ok := a.form.Confirmation().Fire(msg.Token); !ok {
		return a, nil
	}
	a.form.Reset()
	a.add.clearInputs()
	a.add.blur()
	a.add.focus = addFieldAmount
	a.activeTab = components.TabDashboard
	if msg.Payload == "" {
		return a, reloadCmd(a.ledger)
	}
	return a, mergeCmd(a.ledger, msg.Payload)
}

func (a App) renderAddTab(cw int) string {
	t := theme.Active

	formW := min(cw, 72)
	if a.catForm != nil {
		return components.FocusCard("New Category", a.catForm.View(), formW)
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	focusLabel := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	chipStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	activeChip := lipgloss.NewStyle().Foreground(t.Background).Background(t.Secondary).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(t.Error).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.Success).Background(t.Surface).Bold(true)

	label := func(field int, name string) string {
		marker := "  "
		st := labelStyle
		if a.add.focus == field {
			marker = "▸ "
			st = focusLabel
		}
		return st.Render(fmt.Sprintf("%s%-10s", marker, name))
	}
	fieldErr := func(field string) string {
		if a.add.errs == nil {
			return ""
		}
		if fe, ok := a.add.errs.For(field); ok {
			return "\n" + errStyle.Render("              "+fe.Message)
		}
		return ""
	}

	var b strings.Builder

	b.WriteString(label(addFieldAmount, "Amount"))
	b.WriteString(valueStyle.Render(a.cfg.General.CurrencySymbol + " "))
	b.WriteString(a.add.inputs[addFieldAmount].View())
	b.WriteString(fieldErr(model.FieldAmount))
	b.WriteString("\n")

	b.WriteString(label(addFieldMerchant, "Merchant"))
	b.WriteString(a.add.inputs[addFieldMerchant].View())
	b.WriteString(fieldErr(model.FieldMerchant))
	b.WriteString("\n")

	b.WriteString(label(addFieldNote, "Note"))
	b.WriteString(a.add.inputs[addFieldNote].View())
	b.WriteString("\n\n")

	b.WriteString(label(addFieldCategory, "Category"))
	for i, c := range a.form.Registry().Entries() {
		name := c.Name
		if c.IsCreateNew() {
			name = "+ " + c.Name
		}
		switch {
		case i == a.add.catCursor && a.add.focus == addFieldCategory:
			b.WriteString(activeChip.Render(" " + name + " "))
		case c.ID == a.form.CategoryID:
			b.WriteString(okStyle.Render(" " + name + " "))
		default:
			b.WriteString(chipStyle.Render(" " + name + " "))
		}
	}
	b.WriteString(fieldErr(model.FieldCategory))
	b.WriteString("\n")

	b.WriteString(label(addFieldPayment, "Payment"))
	for _, m := range a.form.PaymentMethods() {
		if m == a.form.PaymentMethod {
			b.WriteString(activeChip.Render(" " + string(m) + " "))
		} else {
			b.WriteString(chipStyle.Render(" " + string(m) + " "))
		}
	}
	b.WriteString("\n")

	b.WriteString(label(addFieldDate, "Date"))
	b.WriteString(chipStyle.Render("‹ "))
	b.WriteString(valueStyle.Render(cli.FormatRelativeDay(a.form.Date, a.now()) + "  " + a.form.Date.Format("Mon Jan 2 2006")))
	b.WriteString(chipStyle.Render(" ›"))
	b.WriteString("\n\n")

	button := chipStyle.Render("[ Save expense ]")
	if a.add.focus == addFieldSubmit {
		button = activeChip.Render("[ Save expense ]")
	}
	b.WriteString("  ")
	b.WriteString(button)

	switch {
	case a.add.submitting:
		b.WriteString(labelStyle.Render("  saving..."))
	case a.add.confirmed != "":
		b.WriteString("\n\n")
		b.WriteString(okStyle.Render("  ✓ " + a.add.confirmed))
	}

	hints := labelStyle.Render("[tab] next field  [←/→] change  [ctrl+s] save  [esc] back")
	b.WriteString("\n\n")
	b.WriteString(hints)

	return components.ContentCard("Add Expense", b.String(), formW)
}
