package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/store"
)

const (
	minBarWidth = 10
	maxBarWidth = 200
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	notifyBell *bool
	barWidth   *string
}

func newSettingsModel(s *store.Store) settingsModel {
	bell, width := true, ""
	return settingsModel{
		store:      s,
		notifyBell: &bell,
		barWidth:   &width,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Could not load settings: %v", err), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

// current reads the display settings, falling back to defaults for missing
// or malformed values.
func (s settingsModel) current() settingsChangedMsg {
	return settingsChangedMsg{
		notifyBell: s.getVal("notify_bell", "on") == "on",
		barWidth:   parseBarWidth(s.getVal("bar_width", strconv.Itoa(defaultBarWidth))),
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func validateBarWidth(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%q is not a whole number", v)
	}
	if n < minBarWidth || n > maxBarWidth {
		return fmt.Errorf("must be between %d and %d", minBarWidth, maxBarWidth)
	}
	return nil
}

func parseBarWidth(v string) int {
	if validateBarWidth(v) != nil {
		return defaultBarWidth
	}
	n, _ := strconv.Atoi(strings.TrimSpace(v))
	return n
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.current()
	*s.notifyBell = cur.notifyBell
	*s.barWidth = strconv.Itoa(cur.barWidth)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Ring the bell when a tracker reaches its target").
				Affirmative("On").Negative("Off").Value(s.notifyBell),
			huh.NewInput().Title("Progress bar width (columns)").
				Value(s.barWidth).Validate(validateBarWidth),
		).Title("Display"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, statusCmd(fmt.Sprintf("Error: %v", err), true)
		}
		changed := s.current()
		return s, tea.Batch(
			s.refresh(),
			func() tea.Msg { return changed },
			statusCmd("Settings saved", false),
		)
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	bell := "off"
	if *s.notifyBell {
		bell = "on"
	}
	if err := s.store.SetSetting("notify_bell", bell); err != nil {
		return err
	}
	return s.store.SetSetting("bar_width", strconv.Itoa(parseBarWidth(*s.barWidth)))
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "notify_bell":
		if v == "on" {
			return "bell on completion"
		}
		return "silent"
	case "bar_width":
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d cols", n)
		}
	}
	return v
}
