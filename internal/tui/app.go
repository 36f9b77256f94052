// Package tui provides the interactive Bubble Tea dashboard for dolla.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/theirongolddev/dolla/internal/category"
	"github.com/theirongolddev/dolla/internal/chart"
	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/entry"
	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/store"
	"github.com/theirongolddev/dolla/internal/tui/components"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// dataLoadedMsg is sent when the store is open and the ledger has been read.
type dataLoadedMsg struct {
	store    store.BlobStore
	closer   io.Closer
	ledger   *ledger.Ledger
	registry *category.Registry
	records  []model.ExpenseRecord
	loadTime time.Duration
	err      error // store could not be opened; an in-memory store is in use
}

// recordsMsg carries a fresh ledger sequence after a reload or merge.
type recordsMsg struct {
	records []model.ExpenseRecord
	merged  int
	err     error
}

// submittedMsg is sent when a form submission has been written.
type submittedMsg struct {
	rec model.ExpenseRecord
	err error
}

// NavigateMsg asks the app to leave the Add tab for the dashboard once the
// confirmation delay has passed. Payload is the submitted record encoded
// with ledger.EncodePayload; the dashboard merges it by id, so a duplicate
// delivery is harmless.
type NavigateMsg struct {
	Token   uint64
	Payload string
}

type categoriesSavedMsg struct{ err error }

type clearStatusMsg struct{ seq int }

// Options configures NewApp.
type Options struct {
	Config     config.Config
	ConfigPath string
	StorePath  string
	NeedSetup  bool
	Logger     *slog.Logger
	Now        func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	cfg        config.Config
	configPath string
	storePath  string
	log        *slog.Logger
	now        func() time.Time

	// Data
	store    store.BlobStore
	closer   io.Closer
	ledger   *ledger.Ledger
	registry *category.Registry
	form     *entry.Form
	records  []model.ExpenseRecord
	loaded   bool
	loadTime time.Duration

	// Pre-computed for the dashboard
	slices  []model.AggregatedSlice
	donut   *chart.Donut
	summary model.BalanceSummary
	daily   []model.DailySpend
	recent  []model.ExpenseRecord

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	status    statusLine

	// Per-tab state
	add      addState
	txState  transactionsState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	// Create-category sub-flow (huh form)
	catForm *huh.Form
	catVals *categoryValues

	spinner spinner.Model
}

type statusLine struct {
	text string
	kind components.StatusKind
	seq  int
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	chartDays        = 14
	statusTTL        = 4 * time.Second
	storeTimeout     = 10 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Secondary).Background(theme.Active.Surface)

	cfg := opts.Config
	return App{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		storePath:  opts.StorePath,
		log:        opts.Logger.With("component", "tui"),
		now:        opts.Now,
		needSetup:  opts.NeedSetup,
		donut: chart.New(chart.Config{
			BaseRadius:   cfg.Chart.BaseRadius,
			InnerRatio:   cfg.Chart.InnerRatio,
			ExpandFactor: cfg.Chart.ExpandFactor,
			Center:       chart.DefaultConfig().Center,
		}),
		add:     newAddState(),
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.storePath, a.cfg, a.log),
		a.spinner.Tick,
	)
}

// Close releases the store. Call it with the final model after the program exits.
func (a App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func sliceColor(i int, _ string) string {
	return string(theme.Active.CategoryColor(i))
}

func (a *App) recompute() {
	now := a.now()

	a.slices = pipeline.Aggregate(a.records, a.registry.Names(), sliceColor)
	a.donut.Build(a.slices)
	a.summary = pipeline.Summarize(a.records, now)
	a.daily = pipeline.AggregateDays(a.records, now.AddDate(0, 0, -(chartDays-1)), now)
	a.recent = pipeline.Recent(a.records, a.cfg.General.RecentCount)

	n := len(a.visibleTransactions())
	if a.txState.cursor >= n {
		a.txState.cursor = n - 1
	}
	if a.txState.cursor < 0 {
		a.txState.cursor = 0
	}
}

func (a *App) setStatus(text string, kind components.StatusKind) tea.Cmd {
	a.status.seq++
	a.status.text = text
	a.status.kind = kind
	seq := a.status.seq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.catForm != nil {
			a.catForm = a.catForm.WithWidth(min(msg.Width, 60))
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case dataLoadedMsg:
		a.store = msg.store
		a.closer = msg.closer
		a.ledger = msg.ledger
		a.registry = msg.registry
		a.records = msg.records
		a.loadTime = msg.loadTime
		a.loaded = true
		a.form = entry.NewForm(a.registry, a.ledger, a.entryOptions())
		a.add.syncCategoryCursor(a.form)
		a.recompute()

		var cmds []tea.Cmd
		if msg.err != nil {
			cmds = append(cmds, a.setStatus("Store unavailable, changes will not be saved", components.StatusError))
		}

		if a.needSetup {
			a.setupVals = newSetupValues(a.cfg)
			a.setupForm = newSetupForm(len(a.records), a.configPath, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			cmds = append(cmds, a.setupForm.Init())
		}
		return a, tea.Batch(cmds...)

	case recordsMsg:
		if msg.records != nil {
			a.records = msg.records
			a.recompute()
		}
		if msg.err != nil {
			return a, a.setStatus("Could not save: "+msg.err.Error(), components.StatusError)
		}
		return a, nil

	case submittedMsg:
		return a.handleSubmitted(msg)

	case NavigateMsg:
		return a.handleNavigate(msg)

	case categoriesSavedMsg:
		if msg.err != nil {
			return a, a.setStatus("Category not saved: "+msg.err.Error(), components.StatusError)
		}
		return a, nil

	case clearStatusMsg:
		if msg.seq == a.status.seq {
			a.status.text = ""
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to an open huh form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.catForm != nil {
		return a.updateCategoryForm(msg)
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: quit
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	// huh forms intercept all keys
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.catForm != nil {
		return a.updateCategoryForm(msg)
	}

	// The add form takes text input, so it owns the keyboard
	if a.activeTab == components.TabAdd {
		return a.updateAdd(msg)
	}
	if a.activeTab == components.TabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == components.TabTransactions && a.txState.searching {
		return a.updateTransactionsSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	var (
		m       tea.Model
		cmd     tea.Cmd
		handled bool
	)
	switch a.activeTab {
	case components.TabDashboard:
		m, cmd, handled = a.updateDashboardKey(key)
	case components.TabTransactions:
		m, cmd, handled = a.updateTransactionsKey(key)
	case components.TabReceipts:
		m, cmd, handled = a.updateReceiptsKey(key)
	case components.TabSettings:
		m, cmd, handled = a.updateSettingsKey(key)
	}
	if handled {
		return m, cmd
	}

	if key == "q" {
		return a, tea.Quit
	}

	switch key {
	case "left", "shift+tab":
		return a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right", "tab":
		return a.switchTab((a.activeTab + 1) % len(components.Tabs))
	}
	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			return a.switchTab(idx)
		}
	}
	return a, nil
}

// switchTab changes the active tab. Leaving the Add tab cancels a pending
// confirmation so its navigation never fires.
func (a App) switchTab(idx int) (tea.Model, tea.Cmd) {
	if idx == a.activeTab {
		return a, nil
	}
	var cmds []tea.Cmd
	if a.activeTab == components.TabAdd {
		cmds = append(cmds, a.leaveAdd())
	}
	a.activeTab = idx
	if idx == components.TabAdd {
		cmds = append(cmds, a.enterAdd())
	}
	return a, tea.Batch(cmds...)
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp || a.setupForm != nil || a.catForm != nil {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == components.TabTransactions && a.txState.cursor > 0 {
			a.txState.cursor--
		}
		return a, nil

	case tea.MouseButtonWheelDown:
		if a.activeTab == components.TabTransactions && a.txState.cursor < len(a.visibleTransactions())-1 {
			a.txState.cursor++
		}
		return a, nil

	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return a, nil
		}
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				return a.switchTab(tab)
			}
			return a, nil
		}
		if a.activeTab == components.TabDashboard {
			a.clickDonut(msg.X, msg.Y)
		}
	}
	return a, nil
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// contentOffsetX is the left margin when the content column is centered in
// a terminal wider than maxContentWidth.
func (a App) contentOffsetX() int {
	return max((a.width-a.contentWidth())/2, 0)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) entryOptions() entry.Options {
	opts := entry.OptionsFromConfig(a.cfg, a.log)
	opts.Now = a.now
	return opts
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  dolla needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("$ dolla"))
	b.WriteString(subtitleStyle.Render(" · expenses"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Opening ledger..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Success).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"d t a r s", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Move selection"},
		}},
		{"Dashboard", [][2]string{
			{"j k", "Select next / previous slice"},
			{"1-9", "Toggle slice"},
			{"click", "Toggle slice, empty space clears"},
			{"Esc", "Clear selection"},
		}},
		{"Add", [][2]string{
			{"Tab ↑ ↓", "Move between fields"},
			{"← →  [ ]", "Change category, payment, date"},
			{"Ctrl+S", "Save expense"},
			{"Esc", "Back to dashboard"},
		}},
		{"General", [][2]string{
			{"/", "Search transactions"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("$ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusHints() string {
	switch a.activeTab {
	case components.TabDashboard:
		return "[j/k]slice  [a]dd  [?]help  [q]uit"
	case components.TabTransactions:
		return "[j/k]move  [/]search  [f]ilter  [?]help"
	case components.TabAdd:
		return "[tab]field  [ctrl+s]save  [esc]back"
	case components.TabReceipts:
		return "[enter]scan  [?]help"
	case components.TabSettings:
		return "[j/k]move  [enter]edit  [?]help"
	}
	return "[?]help  [q]uit"
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	info := fmt.Sprintf("%d expenses", len(a.records))
	statusBar := components.RenderStatusBar(w, a.statusHints(), a.status.text, a.status.kind, info)

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := max(h-headerH-statusH, minContentHeight)

	var content string
	switch a.activeTab {
	case components.TabDashboard:
		content = a.renderDashboardTab(cw, contentH)
	case components.TabTransactions:
		content = a.renderTransactionsTab(cw, contentH)
	case components.TabAdd:
		content = a.renderAddTab(cw)
	case components.TabReceipts:
		content = a.renderReceiptsTab(cw)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

// loadDataCmd opens the store, restores categories, and reads the ledger.
// A store that cannot be opened is replaced by an in-memory one so the UI
// still starts.
func loadDataCmd(storePath string, cfg config.Config, log *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		msg := dataLoadedMsg{}
		db, err := store.Open(storePath)
		if err != nil {
			log.Error("store unavailable, using memory", "path", storePath, "error", err)
			msg.err = err
			msg.store = store.NewMemory()
		} else {
			msg.store = db
			msg.closer = db
		}

		msg.ledger = ledger.New(msg.store, ledger.WithLogger(log))
		msg.registry = category.New(cfg.Categories,
			category.WithDefaultIcon(cfg.Entry.DefaultIcon),
			category.WithLogger(log))
		msg.registry.Restore(ctx, msg.store, store.KeyCategories)
		msg.records = msg.ledger.Load(ctx)
		msg.loadTime = time.Since(start)
		return msg
	}
}

// reloadCmd re-reads the ledger.
func reloadCmd(l *ledger.Ledger) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return recordsMsg{records: l.Load(ctx)}
	}
}

// mergeCmd decodes a navigation payload and merges it into the ledger.
func mergeCmd(l *ledger.Ledger, payload string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		rec, err := ledger.DecodePayload(payload)
		if err != nil {
			return recordsMsg{records: l.Load(ctx), err: err}
		}
		records, n, err := l.Merge(ctx, rec)
		return recordsMsg{records: records, merged: n, err: err}
	}
}

// submitCmd writes a record prepared on the update loop. It never reads the
// form's fields.
func submitCmd(f *entry.Form, rec model.ExpenseRecord) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return submittedMsg{rec: rec, err: f.Commit(ctx, rec)}
	}
}

// persistCategoriesCmd writes the registry to the store.
func persistCategoriesCmd(r *category.Registry, s store.BlobStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return categoriesSavedMsg{err: r.Persist(ctx, s, store.KeyCategories)}
	}
}

// navigateAfter schedules the confirmation's navigation.
func navigateAfter(delay time.Duration, token uint64, payload string) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return NavigateMsg{Token: token, Payload: payload}
	})
}

// ─── Helpers ────────────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
