package tui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/export"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/tracker"
)

// App is the root Bubble Tea model.
type App struct {
	engine *tracker.Engine
	store  *store.Store
	logger *slog.Logger
	width  int
	height int

	tickInterval time.Duration
	notifyBell   bool
	bell         io.Writer
	exportDir    string
	done         *completions

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	trackers trackersModel
	chart    chartModel
	settings settingsModel

	help   help.Model
	status string
	isErr  bool
}

type Option func(*App)

// WithTickInterval sets how often the engine is ticked. Default one second.
func WithTickInterval(d time.Duration) Option {
	return func(a *App) { a.tickInterval = d }
}

// WithExportDir sets where exports are written. Default is the home directory.
func WithExportDir(dir string) Option {
	return func(a *App) { a.exportDir = dir }
}

// WithLogger sets the logger for failures the UI cannot show. Default
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithBell sets where the completion bell is written. Default os.Stderr.
func WithBell(w io.Writer) Option {
	return func(a *App) { a.bell = w }
}

// NewApp builds the root model. It registers the engine's completion
// callback, so an engine drives at most one App.
func NewApp(e *tracker.Engine, s *store.Store, opts ...Option) App {
	h := help.New()
	h.ShowAll = false

	a := App{
		engine:       e,
		store:        s,
		logger:       slog.Default(),
		tickInterval: time.Second,
		bell:         os.Stderr,
		done:         &completions{},
		activeView:   viewTrackers,
		trackers:     newTrackersModel(e),
		chart:        newChartModel(e),
		settings:     newSettingsModel(s),
		help:         h,
	}
	for _, opt := range opts {
		opt(&a)
	}
	if a.exportDir == "" {
		a.exportDir, _ = os.UserHomeDir()
	}

	cur := a.settings.current()
	a.notifyBell = cur.notifyBell
	a.trackers.setBarWidth(cur.barWidth)

	done := a.done
	e.OnComplete(func(t *tracker.Tracker) {
		done.titles = append(done.titles, t.Title)
	})
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.settings.refresh(),
		a.tickCmd(),
	)
}

func (a App) tickCmd() tea.Cmd {
	return tea.Tick(a.tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.trackers.setSize(a.width, contentHeight)
		a.chart.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		if a.activeView == viewChart {
			a.chart.build()
		}
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a.quit()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTrackers
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewChart
			a.chart.build()
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

		// Engine calls made by the view may cross a target.
		m, cmd := a.updateActiveView(msg)
		a = m.(App)
		return a, tea.Batch(cmd, a.completionCmd())

	case tickMsg:
		cmds := []tea.Cmd{a.tickCmd()}
		if err := a.engine.Tick(); err != nil {
			cmds = append(cmds, statusCmd(fmt.Sprintf("Save failed, will retry: %v", err), true))
		}
		if a.activeView == viewChart {
			a.chart.build()
		}
		cmds = append(cmds, a.completionCmd())
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.isErr = msg.isError
		return a, nil

	case settingsDataMsg:
		a.settings.settings = msg.settings
		return a, nil

	case settingsChangedMsg:
		a.notifyBell = msg.notifyBell
		a.trackers.setBarWidth(msg.barWidth)
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.isErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// completionCmd reports trackers that reached their target since the last
// call, ringing the bell if enabled.
func (a App) completionCmd() tea.Cmd {
	titles := a.done.drain()
	if len(titles) == 0 {
		return nil
	}
	text := fmt.Sprintf("Congrats! %q reached its target", titles[0])
	if len(titles) > 1 {
		text = fmt.Sprintf("Congrats! %d trackers reached their targets", len(titles))
	}
	cmds := []tea.Cmd{statusCmd(text, false)}
	if a.notifyBell {
		w := a.bell
		cmds = append(cmds, func() tea.Msg {
			fmt.Fprint(w, "\a")
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// quit stops every running timer so no interval is lost, then exits. Save
// failures are logged; the caller flushes once more after the program ends.
func (a App) quit() (tea.Model, tea.Cmd) {
	var errs []error
	for _, t := range a.engine.Trackers() {
		if t.Running() {
			if err := a.engine.StopTimer(t); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := a.engine.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("save on quit failed", "error", err)
		return a, tea.Batch(statusCmd(fmt.Sprintf("Save failed on quit: %v", err), true), tea.Quit)
	}
	return a, tea.Quit
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTrackers:
		a.trackers, cmd = a.trackers.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTrackers:
		return a.trackers.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a *App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewChart:
		a.chart.build()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTrackers:
		content = a.trackers.view()
	case viewChart:
		content = a.chart.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tally")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.isErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Running indicator
	running := 0
	for _, t := range a.engine.Trackers() {
		if t.Running() {
			running++
		}
	}
	timerInfo := ""
	if running > 0 {
		timerInfo = successStyle.Render(fmt.Sprintf(" ● %d running", running))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the file immediately: tracker handles are only safe to
// read from the Update goroutine.
func (a App) doExport(format int) tea.Cmd {
	trackers := a.engine.Trackers()
	dateStr := time.Now().Format("2006-01-02")

	var path string
	if format == 0 {
		path = filepath.Join(a.exportDir, fmt.Sprintf("tally-export-%s.csv", dateStr))
		if err := export.ToCSV(trackers, path); err != nil {
			return statusCmd(fmt.Sprintf("CSV error: %v", err), true)
		}
	} else {
		path = filepath.Join(a.exportDir, fmt.Sprintf("tally-export-%s.json", dateStr))
		if err := export.ToJSON(trackers, path); err != nil {
			return statusCmd(fmt.Sprintf("JSON error: %v", err), true)
		}
	}

	return func() tea.Msg { return exportDoneMsg{path: path} }
}
