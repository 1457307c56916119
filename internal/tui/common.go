package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTrackers viewState = iota
	viewChart
	viewSettings
)

var viewNames = []string{"Trackers", "Chart", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// settingsChangedMsg carries the saved display settings to the other views.
type settingsChangedMsg struct {
	notifyBell bool
	barWidth   int
}

// completions collects the titles of trackers that reached their target
// during an engine call. It lives behind a pointer so value copies of App
// share it.
type completions struct {
	titles []string
}

func (c *completions) drain() []string {
	out := c.titles
	c.titles = nil
	return out
}

// --- Helpers ---

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
