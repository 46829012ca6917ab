// Package tui is the terminal car browser. It drives the same list view as
// the web pages from keyboard input.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ukydev/carrental-web/internal/listview"
	"github.com/ukydev/carrental-web/internal/models"
	"github.com/ukydev/carrental-web/internal/notify"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

type loadedMsg struct {
	err error
}

type deletedMsg struct {
	id  string
	err error
}

// Model is the Bubble Tea model of the car browser.
type Model struct {
	ctx       context.Context
	view      *listview.View
	confirmer *PromptConfirmer
	flash     *notify.Flash
	audience  string

	search    textinput.Model
	searching bool
	cursor    int
	prompt    string
	status    string
	toasts    []notify.Notification
	route     *listview.Route
	quitting  bool
}

// NewModel creates a browser for session. Delete outcomes are dispatched
// through notifier; the ones queued in flash for the session user are shown
// under the list.
func NewModel(ctx context.Context, cars listview.CarAPI, session models.Session, notifier listview.Notifier, flash *notify.Flash) Model {
	if flash == nil {
		flash = notify.NewFlash()
	}
	confirmer := NewPromptConfirmer()

	audience := ""
	if session.User != nil {
		audience = session.User.ID
	}

	opts := []listview.Option{
		listview.WithConfirmer(confirmer),
		listview.WithAudience(audience),
	}
	if notifier != nil {
		opts = append(opts, listview.WithNotifier(notifier))
	}

	search := textinput.New()
	search.Placeholder = "Search cars by name..."
	search.Prompt = "/ "
	search.CharLimit = 100
	search.Width = 40

	return Model{
		ctx:       ctx,
		view:      listview.New(cars, session, opts...),
		confirmer: confirmer,
		flash:     flash,
		audience:  audience,
		search:    search,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.mountCmd(), m.confirmer.waitForPrompt())
}

func (m Model) mountCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.view.Mount(m.ctx)}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.view.Reload(m.ctx)}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: id, err: m.view.Delete(m.ctx, id)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if errors.Is(msg.err, listview.ErrSuperseded) {
			return m, nil
		}
		m.status = ""
		m.clampCursor()
		return m, nil

	case promptMsg:
		m.prompt = msg.prompt
		return m, nil

	case deletedMsg:
		m.toasts = append(m.toasts, m.flash.Drain(m.audience)...)
		switch {
		case msg.err == nil:
			m.status = ""
		case errors.Is(msg.err, listview.ErrCancelled):
			m.status = "Delete cancelled"
		case errors.Is(msg.err, listview.ErrDeletePending):
			m.status = "Delete already in progress"
		case errors.Is(msg.err, listview.ErrNotFound):
			m.status = "Car no longer listed"
		default:
			m.status = ""
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if m.prompt != "" {
			return m.updatePrompt(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmer.Answer(true)
		m.status = "Deleting..."
	case "n", "N", "esc":
		m.confirmer.Answer(false)
	case "ctrl+c":
		m.confirmer.Answer(false)
		return m.quit()
	default:
		return m, nil
	}

	m.prompt = ""
	return m, m.confirmer.waitForPrompt()
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		m.clearSearch()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.view.SetQuery(m.search.Value())
	m.cursor = 0
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()

	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "esc":
		m.clearSearch()
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.view.Visible())-1 {
			m.cursor++
		}
		return m, nil

	case "r":
		m.status = "Reloading..."
		return m, m.reloadCmd()

	case "d":
		car, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !m.view.Controls().Delete {
			m.status = "Only admins can delete cars"
			return m, nil
		}
		m.toasts = nil
		return m, m.deleteCmd(car.ID)

	case "e":
		car, ok := m.selected()
		if !ok {
			return m, nil
		}
		route, err := m.view.Edit(car.ID)
		if err != nil {
			m.status = "Only admins can edit cars"
			return m, nil
		}
		m.route = &route
		return m.quit()

	case "enter", "b":
		car, ok := m.selected()
		if !ok {
			return m, nil
		}
		route := m.view.Book(car.ID)
		m.route = &route
		return m.quit()
	}

	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.view.Unmount()
	return m, tea.Quit
}

func (m *Model) clearSearch() {
	m.searching = false
	m.search.Blur()
	m.search.Reset()
	m.view.SetQuery("")
	m.cursor = 0
}

func (m *Model) clampCursor() {
	n := len(m.view.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (models.Car, bool) {
	visible := m.view.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return models.Car{}, false
	}
	return visible[m.cursor], true
}

// Route returns where the user navigated to, or nil after a plain quit.
func (m Model) Route() *listview.Route {
	return m.route
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.view.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Cars"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(sessionLine(m.view.Session())))
	b.WriteString("\n\n")

	if m.searching || snap.Query != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}

	if snap.LoadErr != nil {
		b.WriteString(errorStyle.Render("Could not load cars. Press r to try again."))
		b.WriteString("\n\n")
	}

	switch snap.Phase {
	case listview.PhaseLoading:
		b.WriteString("Loading cars...\n")
	case listview.PhaseLoadFailed:
		b.WriteString(dimStyle.Render("No cars to show.") + "\n")
	case listview.PhaseEmpty:
		b.WriteString(dimStyle.Render("No cars available yet.") + "\n")
	case listview.PhaseNoMatches:
		b.WriteString(dimStyle.Render("No cars found matching your search.") + "\n")
	default:
		for i, car := range snap.Visible {
			b.WriteString(m.renderCar(car, i == m.cursor, snap.DeleteOp(car.ID)))
			b.WriteString("\n")
		}
	}

	if m.prompt != "" {
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(m.prompt + " [y/n]"))
		b.WriteString("\n")
	}

	for _, t := range m.toasts {
		b.WriteString("\n")
		if t.Level == notify.LevelSuccess {
			b.WriteString(successStyle.Render(t.Message))
		} else {
			b.WriteString(errorStyle.Render(t.Message))
		}
	}
	if len(m.toasts) > 0 {
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpLine(snap.Controls)))

	return docStyle.Render(b.String())
}

func (m Model) renderCar(car models.Car, selected bool, op listview.DeleteOp) string {
	name := car.Name
	if op.Pending() {
		name += " (deleting...)"
	}

	details := fmt.Sprintf("Available: %s | %d passengers | %s | %d bags | %s/day",
		car.AvailabilityLabel(),
		car.PassengerCapacity,
		car.TransmissionType,
		car.LuggageCapacity,
		car.PriceLabel(),
	)

	if selected {
		return selectedStyle.Render("> "+name) + "\n  " + details
	}
	return "  " + name + "\n  " + dimStyle.Render(details)
}

func (m Model) helpLine(controls listview.Controls) string {
	keys := []string{"/ search", "esc clear", "enter book"}
	if controls.Edit {
		keys = append(keys, "e edit")
	}
	if controls.Delete {
		keys = append(keys, "d delete")
	}
	keys = append(keys, "r reload", "q quit")
	return strings.Join(keys, " • ")
}

func sessionLine(s models.Session) string {
	if !s.IsAuthenticated() {
		return "guest"
	}
	return fmt.Sprintf("%s (%s)", s.User.Username, s.Role())
}
