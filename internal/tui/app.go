package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stratplan/stratplan/internal/config"
	"github.com/stratplan/stratplan/internal/database"
	"github.com/stratplan/stratplan/internal/models"
	"github.com/stratplan/stratplan/internal/repository"
	"github.com/stratplan/stratplan/internal/services/feasibility"
	"github.com/stratplan/stratplan/internal/services/inventory"
	"github.com/stratplan/stratplan/internal/tui/views/calculations"
	"github.com/stratplan/stratplan/internal/tui/views/lots"
	"github.com/stratplan/stratplan/internal/tui/views/strategies"
	"github.com/stratplan/stratplan/internal/util"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display.
const MaxContentWidth = 120

// chromeLines is the height taken by header, alert bar and footer.
const chromeLines = 6

// Module represents a view module in the application.
type Module string

const (
	ModuleStrategies Module = "strategies"
	ModuleReport     Module = "report"
	ModuleHistory    Module = "history"
	ModuleExpiry     Module = "expiry"
	ModuleHelp       Module = "help"
)

// App is the main Bubble Tea application model.
type App struct {
	ctx    context.Context
	config *config.Config
	clock  util.Clock

	calc *feasibility.Service

	strategyView *strategies.ListView
	reportView   *calculations.ReportView
	historyView  *calculations.HistoryView
	expiryView   *lots.ExpiryView

	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool

	currentModule  Module
	previousModule Module
	searchMode     bool
	searchInput    string

	policy      feasibility.Policy
	calculating bool

	alerts []Alert
}

// Alert represents a status message shown under the header.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

type tickMsg time.Time

type strategiesLoadedMsg struct{ err error }

type historyLoadedMsg struct{ err error }

type detailLoadedMsg struct{ err error }

type expiryLoadedMsg struct{ err error }

type calculatedMsg struct {
	result *feasibility.Result
	err    error
}

// New creates a new App instance.
func New(db *database.DB, cfg *config.Config, clock util.Clock, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = util.SystemClock{}
	}

	calc := feasibility.NewService(db, cfg.Calculation,
		feasibility.WithLogger(logger),
		feasibility.WithClock(clock),
	)

	theme := NewTheme(cfg.Display.ColorScheme)
	styles := theme.Components()

	strategyView := strategies.NewListView(repository.NewStrategyRepository(db.DB))
	strategyView.SetStyles(styles)
	strategyView.SetNow(clock.Now())

	reportView := calculations.NewReportView()
	reportView.SetStyles(styles)

	historyView := calculations.NewHistoryView(calc)
	historyView.SetStyles(styles)
	historyView.SetNow(clock.Now())

	expiryView := lots.NewExpiryView(inventory.NewService(db, cfg.Calculation, clock))
	expiryView.SetStyles(styles)

	return &App{
		ctx:           context.Background(),
		config:        cfg,
		clock:         clock,
		calc:          calc,
		strategyView:  strategyView,
		reportView:    reportView,
		historyView:   historyView,
		expiryView:    expiryView,
		theme:         theme,
		keys:          DefaultKeyMap(),
		currentModule: ModuleStrategies,
		policy:        calc.DefaultPolicy(),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
		a.loadStrategies(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case tickMsg:
		now := a.clock.Now()
		a.strategyView.SetNow(now)
		a.historyView.SetNow(now)
		return a, tickCmd()

	case strategiesLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load strategies: "+msg.err.Error())
		}
		return a, nil

	case historyLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load history: "+msg.err.Error())
		}
		return a, nil

	case detailLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load calculation: "+msg.err.Error())
		}
		return a, nil

	case expiryLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load expiry report: "+msg.err.Error())
		}
		return a, nil

	case calculatedMsg:
		a.calculating = false
		if msg.err != nil {
			a.AddAlert(AlertCritical, "Calculation failed: "+msg.err.Error())
			return a, nil
		}
		a.reportView.SetResult(msg.result)
		a.currentModule = ModuleReport
		level := AlertInfo
		if msg.result.Result != models.CalculationResultSatisfiable {
			level = AlertWarning
		}
		a.AddAlert(level, fmt.Sprintf("%s: %s", msg.result.StrategyName, strings.ToUpper(string(msg.result.Result))))
		return a, a.loadStrategies()
	}

	return a, nil
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit confirmation is modal
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.quitting = true
			return a, tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
		}
		return a, nil
	}

	// Search needs all text input
	if a.searchMode {
		return a.handleSearchKeys(msg)
	}

	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return a, nil
	}

	if module := a.keys.ModuleFor(msg); module != "" {
		return a, a.switchTo(module)
	}

	if a.keys.Back.Matches(msg) {
		return a, a.back()
	}

	switch a.currentModule {
	case ModuleStrategies:
		return a.handleStrategyKeys(msg)
	case ModuleReport:
		return a.handleReportKeys(msg)
	case ModuleHistory:
		return a.handleHistoryKeys(msg)
	case ModuleExpiry:
		return a.handleExpiryKeys(msg)
	}
	return a, nil
}

// switchTo changes module and returns the command that refreshes it.
func (a *App) switchTo(module Module) tea.Cmd {
	if module == ModuleHelp {
		if a.currentModule != ModuleHelp {
			a.previousModule = a.currentModule
		}
		a.currentModule = ModuleHelp
		return nil
	}

	a.currentModule = module
	switch module {
	case ModuleStrategies:
		return a.loadStrategies()
	case ModuleHistory:
		a.historyView.CloseDetail()
		return a.loadHistory()
	case ModuleExpiry:
		return a.loadExpiry()
	}
	return nil
}

func (a *App) back() tea.Cmd {
	switch {
	case a.currentModule == ModuleHistory && a.historyView.ShowingDetail():
		a.historyView.CloseDetail()
	case a.currentModule == ModuleHelp:
		a.currentModule = a.previousModule
		if a.currentModule == "" {
			a.currentModule = ModuleStrategies
		}
		a.previousModule = ""
	case a.currentModule != ModuleStrategies:
		a.currentModule = ModuleStrategies
		return a.loadStrategies()
	}
	return nil
}

func (a *App) handleStrategyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Up.Matches(msg):
		a.strategyView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.strategyView.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.strategyView.PrevPage()
		return a, a.loadStrategies()
	case a.keys.PageDown.Matches(msg):
		a.strategyView.NextPage()
		return a, a.loadStrategies()
	case MatchesAny(msg, a.keys.Calculate, a.keys.Select):
		return a, a.calculateSelected()
	case a.keys.Policy.Matches(msg):
		a.policy.ExcludeDoNotTouchWarehouses = !a.policy.ExcludeDoNotTouchWarehouses
	case a.keys.History.Matches(msg):
		if s := a.strategyView.Selected(); s != nil {
			a.historyView.SetStrategy(s)
			return a, a.switchTo(ModuleHistory)
		}
	case a.keys.Search.Matches(msg):
		a.searchMode = true
		a.searchInput = a.strategyView.Search()
	}
	return a, nil
}

func (a *App) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc":
		a.searchMode = false
		a.searchInput = ""
		a.strategyView.SetSearch("")
		return a, a.loadStrategies()
	case "enter":
		a.searchMode = false
		a.strategyView.SetSearch(a.searchInput)
		return a, a.loadStrategies()
	case "backspace":
		if r := []rune(a.searchInput); len(r) > 0 {
			a.searchInput = string(r[:len(r)-1])
		}
	default:
		switch msg.Type {
		case tea.KeyRunes:
			a.searchInput += string(msg.Runes)
		case tea.KeySpace:
			a.searchInput += " "
		}
	}
	return a, nil
}

func (a *App) handleReportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Up.Matches(msg):
		a.reportView.ScrollUp()
	case a.keys.Down.Matches(msg):
		a.reportView.ScrollDown()
	case a.keys.Top.Matches(msg):
		a.reportView.ScrollTop()
	case a.keys.Lots.Matches(msg):
		a.reportView.ToggleLots()
	case a.keys.History.Matches(msg):
		if r := a.reportView.Result(); r != nil {
			a.historyView.SetStrategy(a.strategyFor(r))
			return a, a.switchTo(ModuleHistory)
		}
	}
	return a, nil
}

func (a *App) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.historyView.ShowingDetail() {
		return a, nil
	}
	switch {
	case a.keys.Up.Matches(msg):
		a.historyView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.historyView.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.historyView.PrevPage()
		return a, a.loadHistory()
	case a.keys.PageDown.Matches(msg):
		a.historyView.NextPage()
		return a, a.loadHistory()
	case a.keys.Select.Matches(msg):
		if a.historyView.Selected() != nil {
			return a, a.loadDetail()
		}
	}
	return a, nil
}

func (a *App) handleExpiryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Up.Matches(msg):
		a.expiryView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.expiryView.MoveDown()
	case a.keys.Horizon.Matches(msg):
		a.expiryView.CycleHorizon()
		return a, a.loadExpiry()
	}
	return a, nil
}

// strategyFor returns the listed strategy a result belongs to, or a stub
// carrying its id and name.
func (a *App) strategyFor(r *feasibility.Result) *models.Strategy {
	if s := a.strategyView.Selected(); s != nil && s.ID == r.StrategyID {
		return s
	}
	return &models.Strategy{ID: r.StrategyID, Name: r.StrategyName}
}

func (a *App) calculateSelected() tea.Cmd {
	s := a.strategyView.Selected()
	if s == nil || a.calculating {
		return nil
	}
	a.calculating = true
	a.AddAlert(AlertInfo, "Calculating "+s.Name+"...")

	ctx, policy := a.ctx, a.policy
	return func() tea.Msg {
		result, err := a.calc.Calculate(ctx, feasibility.Request{StrategyID: s.ID, Policy: policy})
		return calculatedMsg{result: result, err: err}
	}
}

func (a *App) loadStrategies() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return strategiesLoadedMsg{err: a.strategyView.Load(ctx)}
	}
}

func (a *App) loadHistory() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return historyLoadedMsg{err: a.historyView.Load(ctx)}
	}
}

func (a *App) loadDetail() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return detailLoadedMsg{err: a.historyView.LoadDetail(ctx)}
	}
}

func (a *App) loadExpiry() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return expiryLoadedMsg{err: a.expiryView.Load(ctx)}
	}
}

// policyLabel describes the current policy for the header and list.
func (a *App) policyLabel() string {
	if a.policy.ExcludeDoNotTouchWarehouses {
		return "excluding do_not_touch warehouses"
	}
	return "all warehouses"
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("Strategy planner shutting down...")
	}

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	contentHeight := max(a.height-chromeLines, 5)
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

func (a *App) renderHeader() string {
	title := fmt.Sprintf("STRATEGY FEASIBILITY PLANNER v%s", Version)
	info := "POLICY: " + a.policyLabel()

	spacing := a.width - lipgloss.Width(title) - lipgloss.Width(info) - 4
	if spacing < 1 {
		spacing = 1
	}

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

func (a *App) renderAlertBar() string {
	now := a.clock.Now()
	timeStr := now.Format(a.config.Display.DateFormat + " " + a.config.Display.TimeFormat)

	var alertText string
	switch {
	case a.calculating:
		alertText = a.theme.Alert.Render("CALCULATING...")
	case len(a.alerts) > 0:
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("ERROR: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("WARNING: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render("INFO: " + alert.Message)
		}
	default:
		alertText = a.theme.Muted.Render("Ready")
	}

	return a.theme.Value.Render(timeStr) + a.theme.StatusDivider.Render() + alertText
}

func (a *App) renderContent(height int) string {
	contentWidth := min(a.width, MaxContentWidth)

	var content string
	switch a.currentModule {
	case ModuleStrategies:
		content = a.renderStrategies(contentWidth)
	case ModuleReport:
		content = a.reportView.Render(contentWidth, height-1)
	case ModuleHistory:
		content = a.historyView.Render(contentWidth)
	case ModuleExpiry:
		content = a.expiryView.Render(contentWidth)
	case ModuleHelp:
		content = a.renderHelp()
	}

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	return style.Render(lipgloss.NewStyle().Width(contentWidth).Render(content))
}

func (a *App) renderStrategies(width int) string {
	var searchBar string
	if a.searchMode {
		searchBar = a.theme.Label.Render("SEARCH: ") +
			a.theme.Accent.Render(a.searchInput) +
			a.theme.Accent.Render("_") + "\n\n"
	}
	return searchBar + a.strategyView.Render(width, a.policyLabel())
}

func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ HELP ═══"))
	b.WriteString("\n\n")

	sections := []struct {
		title string
		items [][2]string
	}{
		{"NAVIGATION", [][2]string{
			{"F1 / ?", "Help"},
			{"F2", "Strategies"},
			{"F3", "Last feasibility report"},
			{"F4", "Calculation history"},
			{"F5", "Lot expiry"},
			{"F10 / q", "Quit"},
		}},
		{"STRATEGIES", [][2]string{
			{"c / Enter", "Calculate selected strategy"},
			{"x", "Toggle exclusion of do_not_touch warehouses"},
			{"h", "History of selected strategy"},
			{"/", "Search by name"},
		}},
		{"REPORT", [][2]string{
			{"Up/Down", "Scroll"},
			{"l", "Show contributing lots"},
		}},
	}

	for _, s := range sections {
		b.WriteString(a.theme.Subtitle.Render(s.title))
		b.WriteString("\n")
		for _, item := range s.items {
			b.WriteString(a.theme.Primary.Render(fmt.Sprintf("    %-10s  %s", item[0], item[1])))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(a.theme.Muted.Render("Press Esc to return"))
	return b.String()
}

func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRM EXIT") + "\n\n" +
			a.theme.Base.Render("Are you sure you want to exit?") + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

func (a *App) renderFooter() string {
	return a.theme.DrawHorizontalLine(a.width) + "\n" + a.theme.Footer.Render(a.keys.StatusBarHelp())
}

// AddAlert pushes an alert, keeping the ten most recent.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    a.clock.Now(),
	}}, a.alerts...)

	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = nil
}

// Run starts the TUI and blocks until it exits or ctx is cancelled.
func Run(ctx context.Context, db *database.DB, cfg *config.Config, logger *slog.Logger) error {
	app := New(db, cfg, util.SystemClock{}, logger)
	app.ctx = ctx

	p := tea.NewProgram(app, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
