// Package tui hosts a search session in a terminal search bar.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"crowdmap/models"
	"crowdmap/models/geocode"
	"crowdmap/models/site"
	"crowdmap/search"
)

// stateMsg carries a session notification into Update.
type stateMsg search.State

// Model is the Bubble Tea model for the search bar. It owns one session;
// call Close once the program exits.
type Model struct {
	session *search.Session
	input   textinput.Model
	state   search.State
	cursor  int
	status  string
	width   int

	updates   chan search.State
	done      chan struct{}
	closeOnce sync.Once
}

// NewModel creates a model around a new session. Selection callbacks in cfg
// are still called, after the model records the selection.
func NewModel(ctx context.Context, executor search.QueryExecutor, cfg search.Config) *Model {
	input := textinput.New()
	input.Placeholder = "Search sites or places"
	input.Prompt = "> "
	input.Focus()

	m := &Model{
		input:   input,
		updates: make(chan search.State, 16),
		done:    make(chan struct{}),
	}

	onSite, onLocation := cfg.OnSiteSelect, cfg.OnLocationSelect
	cfg.OnSiteSelect = func(s site.Site) {
		m.status = fmt.Sprintf("Selected %s (%s)", s.Name, s.CrowdLevel)
		if onSite != nil {
			onSite(s)
		}
	}
	cfg.OnLocationSelect = func(l geocode.Result) {
		m.status = fmt.Sprintf("Flying to %s (%.4f, %.4f)", l.PlaceName, l.Lat(), l.Lng())
		if onLocation != nil {
			onLocation(l)
		}
	}

	m.session = search.NewSession(ctx, executor, cfg)
	m.state = m.session.State()
	m.session.Subscribe(func(st search.State) {
		select {
		case m.updates <- st:
		case <-m.done:
		}
	})
	return m
}

// Close stops the session. Safe to call more than once.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.session.Close()
	})
}

// State returns the last session state the model has seen.
func (m *Model) State() search.State {
	return m.state
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForState())
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-m.updates:
			return stateMsg(st)
		case <-m.done:
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.apply(search.State(msg))
		return m, m.waitForState()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// apply keeps the newest snapshot. Snapshots returned by session calls can
// overtake queued notifications, so older versions are ignored.
func (m *Model) apply(st search.State) {
	if st.Version < m.state.Version {
		return
	}
	m.state = st
	if m.cursor >= len(st.Results.Combined) {
		m.cursor = 0
	}
	if st.Phase == search.PhaseSelected || st.Phase == search.PhaseIdle {
		if m.input.Value() != st.Query {
			m.input.SetValue(st.Query)
			m.input.CursorEnd()
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.Close()
		return m, tea.Quit

	case tea.KeyEsc:
		if m.input.Value() == "" {
			m.Close()
			return m, tea.Quit
		}
		m.status = ""
		m.input.SetValue("")
		m.apply(m.session.ClearSearch())
		return m, nil

	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case tea.KeyDown:
		if m.cursor < len(m.state.Results.Combined)-1 {
			m.cursor++
		}
		return m, nil

	case tea.KeyTab:
		if m.state.IsOpen {
			m.apply(m.session.CloseDropdown())
		} else {
			m.apply(m.session.OpenDropdown())
		}
		return m, nil

	case tea.KeyEnter:
		m.selectCurrent()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.cursor = 0
		m.status = ""
		m.apply(m.session.PerformSearch(value))
	}
	return m, cmd
}

func (m *Model) selectCurrent() {
	if !m.state.IsOpen || m.cursor >= len(m.state.Results.Combined) {
		return
	}
	entry := m.state.Results.Combined[m.cursor]
	if s, ok := entry.AsSite(); ok {
		m.apply(m.session.SelectSite(s))
		return
	}
	if l, ok := entry.AsLocation(); ok {
		m.apply(m.session.SelectLocation(l))
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("crowdmap"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.state.IsOpen {
		b.WriteString(m.renderDropdown())
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ move • enter select • tab toggle list • esc clear/quit"))
	return b.String()
}

func (m *Model) renderDropdown() string {
	var b strings.Builder
	if m.state.IsSearching {
		b.WriteString(dimStyle.Render("  Searching..."))
		b.WriteString("\n")
	}
	if m.state.Phase == search.PhaseLoaded && m.state.Results.IsEmpty() {
		b.WriteString(dimStyle.Render("  No sites or places found"))
		b.WriteString("\n")
		return b.String()
	}
	for i, entry := range m.state.Results.Combined {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix)
		b.WriteString(renderEntry(entry))
		b.WriteString("\n")
	}
	return b.String()
}

func renderEntry(entry models.ResultEntry) string {
	if s, ok := entry.AsSite(); ok {
		return fmt.Sprintf("%s%s %s", kindStyle.Render("site"), s.Name, CrowdLevelStyle(s.CrowdLevel).Render(string(s.CrowdLevel)))
	}
	if l, ok := entry.AsLocation(); ok {
		return fmt.Sprintf("%s%s %s", kindStyle.Render("place"), l.Text, dimStyle.Render(l.PlaceName))
	}
	return ""
}
