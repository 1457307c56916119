package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/tracker"
)

const defaultBarWidth = 40

type trackerForm int

const (
	formNone trackerForm = iota
	formNew
	formEdit
	formDelete
)

type trackersModel struct {
	engine *tracker.Engine
	width  int
	height int

	cursor int
	bar    progress.Model

	formActive bool
	form       *huh.Form
	formType   trackerForm

	// Form field pointers (survive value copies)
	formTitle   *string
	formHours   *string
	formConfirm *bool

	editingID int64
}

func newTrackersModel(e *tracker.Engine) trackersModel {
	title, hours, confirm := "", "", false
	return trackersModel{
		engine:      e,
		bar:         newBar(defaultBarWidth),
		formTitle:   &title,
		formHours:   &hours,
		formConfirm: &confirm,
	}
}

func newBar(width int) progress.Model {
	return progress.New(
		progress.WithGradient(string(colorPrimary), string(colorSecondary)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
}

func (m *trackersModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *trackersModel) setBarWidth(w int) {
	m.bar = newBar(w)
}

// selected returns the tracker under the cursor, or nil when the list is empty.
func (m trackersModel) selected() *tracker.Tracker {
	ts := m.engine.Trackers()
	if len(ts) == 0 {
		return nil
	}
	return ts[min(m.cursor, len(ts)-1)]
}

func (m *trackersModel) clampCursor() {
	n := len(m.engine.Trackers())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m trackersModel) update(msg tea.Msg) (trackersModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.engine.Trackers())-1 {
			m.cursor++
		}
	case key.Matches(km, keys.New):
		return m.showNewForm()
	case key.Matches(km, keys.Edit), key.Matches(km, keys.Enter):
		if t := m.selected(); t != nil {
			return m.showEditForm(t)
		}
	case key.Matches(km, keys.Delete):
		if t := m.selected(); t != nil {
			return m.showDeleteForm(t)
		}
	case key.Matches(km, keys.Toggle):
		return m.toggle()
	}
	return m, nil
}

func (m trackersModel) toggle() (trackersModel, tea.Cmd) {
	t := m.selected()
	if t == nil {
		return m, statusCmd("No trackers yet. Press n to create one.", true)
	}
	if err := m.engine.ToggleTimer(t); err != nil {
		return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
	}
	if t.Running() {
		return m, statusCmd(fmt.Sprintf("Started %q", t.Title), false)
	}
	return m, statusCmd(fmt.Sprintf("Stopped %q at %s", t.Title, t.FormattedElapsed()), false)
}

func validateHoursInput(s string) error {
	_, err := tracker.ParseHours(s)
	return err
}

func (m trackersModel) trackerFields() *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Title").Value(m.formTitle).Validate(tracker.ValidateTitle),
		huh.NewInput().Title("Total hours").Placeholder("10").Value(m.formHours).Validate(validateHoursInput),
	)
}

func (m trackersModel) showNewForm() (trackersModel, tea.Cmd) {
	*m.formTitle = ""
	*m.formHours = ""
	m.formType = formNew

	m.form = huh.NewForm(m.trackerFields()).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m trackersModel) showEditForm(t *tracker.Tracker) (trackersModel, tea.Cmd) {
	*m.formTitle = t.Title
	*m.formHours = tracker.FormatHours(t.TotalHours)
	m.formType = formEdit
	m.editingID = t.ID

	m.form = huh.NewForm(m.trackerFields()).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m trackersModel) showDeleteForm(t *tracker.Tracker) (trackersModel, tea.Cmd) {
	*m.formConfirm = false
	m.formType = formDelete
	m.editingID = t.ID

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", t.Title)).
				Description(fmt.Sprintf("%s of %s hours will be lost.", t.FormattedElapsed(), tracker.FormatHours(t.TotalHours))).
				Affirmative("Delete").
				Negative("Cancel").
				Value(m.formConfirm),
		),
	).WithShowHelp(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m trackersModel) closeForm() trackersModel {
	m.formActive = false
	m.form = nil
	m.formType = formNone
	return m
}

func (m trackersModel) updateForm(msg tea.Msg) (trackersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			return m.closeForm(), nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		formType := m.formType
		m = m.closeForm()
		return m.submit(formType)
	case huh.StateAborted:
		return m.closeForm(), nil
	}
	return m, cmd
}

// submit applies a completed form to the engine.
func (m trackersModel) submit(formType trackerForm) (trackersModel, tea.Cmd) {
	switch formType {
	case formNew:
		hours, err := tracker.ParseHours(*m.formHours)
		if err != nil {
			return m, statusCmd(err.Error(), true)
		}
		t, err := m.engine.CreateTracker(*m.formTitle, hours)
		if err != nil {
			return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
		}
		m.cursor = len(m.engine.Trackers()) - 1
		return m, statusCmd(fmt.Sprintf("Created %q", t.Title), false)

	case formEdit:
		hours, err := tracker.ParseHours(*m.formHours)
		if err != nil {
			return m, statusCmd(err.Error(), true)
		}
		if err := m.engine.EditTracker(m.editingID, *m.formTitle, hours); err != nil {
			return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
		}
		return m, statusCmd("Tracker updated", false)

	case formDelete:
		if !*m.formConfirm {
			return m, nil
		}
		err := m.engine.DeleteTracker(m.editingID)
		m.clampCursor()
		if err != nil {
			return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
		}
		return m, statusCmd("Tracker deleted", false)
	}
	return m, nil
}

func (m trackersModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Tracker")
		switch m.formType {
		case formEdit:
			title = titleStyle.Render("Edit Tracker")
		case formDelete:
			title = titleStyle.Render("Delete Tracker")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Trackers")
	ts := m.engine.Trackers()
	if len(ts) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No trackers yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, t := range ts {
		rows = append(rows, m.renderTracker(i, t), "")
	}

	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  space: start/stop  x: export"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m trackersModel) renderTracker(i int, t *tracker.Tracker) string {
	cursor := "  "
	style := normalItemStyle
	if i == m.cursor {
		cursor = "> "
		style = selectedItemStyle
	}

	marker := stoppedStyle.Render("■")
	if t.Running() {
		marker = runningStyle.Render("●")
	}

	name := style.Render(cursor + truncate(t.Title, 40))
	line := fmt.Sprintf("%s %s", marker, name)

	label := subtitleStyle.Render(t.Label())
	if t.Progress() >= 100 {
		label = doneStyle.Render(t.Label())
	}
	if t.Dirty() {
		label += " " + warningStyle.Render("unsaved")
	}
	bar := "    " + m.bar.ViewAs(t.ClampedProgress()/100) + "  " + label

	return line + "\n" + bar
}
