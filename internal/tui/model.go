// Package tui renders one picker session in the terminal. All domain
// behavior lives behind the coordinator; this layer only translates
// keystrokes in and paints state snapshots out.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/glint/internal/picker"
)

// defaultDebounce is the delay after the last keystroke before the
// query is dispatched to the coordinator.
const defaultDebounce = 100 * time.Millisecond

// stateMsg carries a coordinator snapshot into the Bubble Tea loop.
type stateMsg struct {
	st picker.State
}

// debounceMsg fires after the debounce timer expires.
type debounceMsg struct {
	id uint64 // Must match current debounceID to be accepted
}

// providerTab is the static header entry for one registered provider.
type providerTab struct {
	command string
	icon    string
	name    string
}

// Model is the Bubble Tea model wrapping a picker coordinator.
type Model struct {
	coord    *picker.Coordinator
	debounce time.Duration

	tabs  []providerTab
	st    picker.State
	input textinput.Model

	// syncInput forces the next snapshot's query into the text input.
	// Set around operations where the coordinator rewrites the query
	// (tab completion, provider switch); never while the user types,
	// since the snapshot lags the input during the debounce window.
	syncInput bool

	// debounceID tracks the latest debounce timer; only a matching
	// debounceMsg dispatches a search.
	debounceID uint64

	width  int
	height int
}

// NewModel creates a model over an already-populated coordinator.
func NewModel(coord *picker.Coordinator, debounce time.Duration) Model {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	var tabs []providerTab
	for _, cmd := range coord.AvailableProviders() {
		cfg, ok := coord.ProviderConfig(cmd)
		if !ok {
			continue
		}
		tabs = append(tabs, providerTab{command: cmd, icon: cfg.Icon, name: cfg.Name})
	}

	st := coord.State()
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = st.Placeholder
	input.Focus()

	return Model{
		coord:    coord,
		debounce: debounce,
		tabs:     tabs,
		st:       st,
		input:    input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		return m.handleState(msg.st)

	case debounceMsg:
		return m.handleDebounce(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleState folds a coordinator snapshot into the model.
func (m Model) handleState(st picker.State) (tea.Model, tea.Cmd) {
	switched := st.Provider != m.st.Provider
	m.st = st
	m.input.Placeholder = st.Placeholder

	if switched || m.syncInput {
		m.syncInput = false
		if m.input.Value() != st.Query {
			m.input.SetValue(st.Query)
			m.input.CursorEnd()
		}
	}

	if !st.Visible {
		return m, tea.Quit
	}
	return m, nil
}

// handleKey routes keystrokes: session keys go to the coordinator, the
// rest falls through to the text input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		return m, m.dispatchKey(picker.KeyEscape, false)

	case tea.KeyEnter:
		return m, m.dispatchKey(picker.KeyEnter, false)

	case tea.KeyTab:
		// The coordinator may rewrite the query (completion or a
		// provider switch), so mirror the next snapshot back into
		// the input.
		m.syncInput = true
		return m, m.dispatchKey(picker.KeyTab, false)

	case tea.KeyUp:
		return m, m.dispatchKey(picker.KeyUp, false)

	case tea.KeyDown:
		return m, m.dispatchKey(picker.KeyDown, false)

	case tea.KeyCtrlN:
		return m, m.dispatchKey(picker.KeyN, true)

	case tea.KeyCtrlP:
		return m, m.dispatchKey(picker.KeyP, true)

	case tea.KeyCtrlR:
		coord := m.coord
		return m, func() tea.Msg {
			coord.Refresh(context.Background())
			return nil
		}

	case tea.KeyCtrlX:
		return m, m.deleteSelected()
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		return m, tea.Batch(cmd, m.startDebounce())
	}
	return m, cmd
}

// dispatchKey forwards one session key to the coordinator off the
// Update goroutine. Resulting state arrives via the subscription.
func (m Model) dispatchKey(key picker.Key, ctrl bool) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		coord.HandleKey(context.Background(), key, ctrl)
		return nil
	}
}

// deleteSelected removes the selected item when the active provider
// supports deletion.
func (m Model) deleteSelected() tea.Cmd {
	cfg, ok := m.coord.ProviderConfig(m.st.Provider)
	if !ok || !cfg.Features.Delete {
		return nil
	}
	item, ok := m.coord.SelectedResult()
	if !ok {
		return nil
	}
	coord := m.coord
	return func() tea.Msg {
		coord.Delete(context.Background(), item)
		return nil
	}
}

// handleDebounce dispatches the query if the timer is still current.
func (m Model) handleDebounce(msg debounceMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.debounceID {
		return m, nil // Stale debounce timer; ignore.
	}
	coord := m.coord
	text := m.input.Value()
	return m, func() tea.Msg {
		coord.SetSearchText(context.Background(), text)
		return nil
	}
}

// startDebounce restarts the debounce window after a keystroke.
func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// --- View rendering ---

var (
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	descStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewTabBar())
	b.WriteRune('\n')
	b.WriteString(m.input.View())
	b.WriteRune('\n')
	b.WriteString(m.viewContent())

	return b.String()
}

// viewTabBar renders one header entry per registered provider.
func (m Model) viewTabBar() string {
	var parts []string
	for _, tab := range m.tabs {
		label := " " + tab.icon + " " + tab.name + " "
		if tab.command == m.st.Provider {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

// viewContent renders the result area.
func (m Model) viewContent() string {
	if m.st.Loading {
		return dimStyle.Render("Loading...")
	}
	if len(m.st.Results) == 0 {
		if m.st.HasQuery {
			return dimStyle.Render("No matches")
		}
		return dimStyle.Render("No recent items")
	}
	if m.st.Component == picker.ComponentGrid {
		return m.viewGrid()
	}
	return m.viewList()
}

// viewList renders results one per row with a selection marker.
func (m Model) viewList() string {
	var b strings.Builder
	maxRows := m.listHeight()
	for i, item := range m.st.Results {
		if i >= maxRows {
			break
		}
		line := item.Name
		if item.Description != "" {
			line = fmt.Sprintf("%s  %s", item.Name, descStyle.Render(item.Description))
		}
		if m.width > 4 {
			line = picker.Truncate(line, m.width-4)
		}

		if i == m.st.SelectedIndex {
			b.WriteString(selectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		if i < len(m.st.Results)-1 && i < maxRows-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// viewGrid renders results in fixed-width columns.
func (m Model) viewGrid() string {
	const cellWidth = 24
	cols := m.width / (cellWidth + 2)
	if cols < 1 {
		cols = 1
	}

	var b strings.Builder
	for i, item := range m.st.Results {
		cell := fmt.Sprintf("%-*s", cellWidth, picker.Truncate(item.Name, cellWidth))
		if i == m.st.SelectedIndex {
			cell = selectedStyle.Render(cell)
		} else {
			cell = normalStyle.Render(cell)
		}
		b.WriteString(cell)

		if (i+1)%cols == 0 {
			b.WriteRune('\n')
		} else {
			b.WriteString("  ")
		}
	}
	return strings.TrimRight(b.String(), " \n")
}

// listHeight returns the visible row budget below the header chrome.
func (m Model) listHeight() int {
	const chrome = 2 // Tab bar and query line
	h := m.height - chrome
	if h < 1 {
		h = 20 // Sensible default before first WindowSizeMsg
	}
	return h
}

// Run starts the interactive session. It subscribes the program to
// coordinator snapshots, shows the picker, and blocks until the session
// ends (activation, escape, or an explicit Hide).
func Run(ctx context.Context, coord *picker.Coordinator, debounce time.Duration) error {
	m := NewModel(coord, debounce)
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())

	unsub := coord.Subscribe(func(st picker.State) {
		prog.Send(stateMsg{st: st})
	})
	defer unsub()

	coord.Show()
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
