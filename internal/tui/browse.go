// Package tui is an interactive browser over the session catalog: a
// session list on the left, the selected session's messages on the right.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/render"
)

type sessionsLoadedMsg struct {
	sessions []catalog.Session
	err      error
}

type messagesLoadedMsg struct {
	sessionID string
	rendered  string
	err       error
}

type model struct {
	store      *catalog.Store
	status     string // status filter, "" = all
	sessions   []catalog.Session
	cursor     int
	listOffset int
	messages   viewport.Model
	width      int
	height     int
	ready      bool
	err        error
}

// Run starts the browser and blocks until the user quits.
func Run(store *catalog.Store, status string) error {
	m := model{
		store:    store,
		status:   status,
		messages: viewport.New(0, 0),
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return m.loadSessions()
}

func (m model) loadSessions() tea.Cmd {
	return func() tea.Msg {
		sessions, err := m.store.ListSessions(m.status)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

func (m model) loadMessages() tea.Cmd {
	if len(m.sessions) == 0 || m.cursor >= len(m.sessions) {
		return nil
	}
	id := m.sessions[m.cursor].SessionID
	width := m.messagesWidth()
	store := m.store
	return func() tea.Msg {
		out, err := render.RenderSession(store, id, render.Options{Width: width})
		return messagesLoadedMsg{sessionID: id, rendered: out, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.messages = viewport.New(m.messagesWidth(), m.panelHeight())
		return m, m.loadMessages()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll()
				return m, m.loadMessages()
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.sessions)-1 {
				m.cursor++
				m.adjustListScroll()
				return m, m.loadMessages()
			}

		case key.Matches(msg, keys.Refresh):
			return m, m.loadSessions()

		case key.Matches(msg, keys.PreviewUp):
			m.messages.LineUp(m.panelHeight() / 2)

		case key.Matches(msg, keys.PreviewDn):
			m.messages.LineDown(m.panelHeight() / 2)
		}
		return m, nil

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sessions = msg.sessions
		if m.cursor >= len(m.sessions) {
			m.cursor = 0
			m.listOffset = 0
		}
		return m, m.loadMessages()

	case messagesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		// drop stale loads when the selection has already moved on
		if len(m.sessions) == 0 || m.sessions[m.cursor].SessionID != msg.sessionID {
			return m, nil
		}
		m.messages.SetContent(msg.rendered)
		m.messages.GotoTop()
		return m, nil
	}

	return m, nil
}

func (m model) listWidth() int {
	w := m.width * 2 / 5
	if w < 30 {
		w = 30
	}
	return w
}

func (m model) messagesWidth() int {
	w := m.width - m.listWidth() - 4 // borders
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	h := m.height - 3 // borders + status bar
	if h < 3 {
		h = 3
	}
	return h
}

func (m *model) adjustListScroll() {
	visible := m.panelHeight()
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visible {
		m.listOffset = m.cursor - visible + 1
	}
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.err != nil {
		return fmt.Sprintf("error: %v\n\npress q to quit", m.err)
	}

	list := m.renderList()
	msgs := stylePanelBorder.Width(m.messagesWidth()).Height(m.panelHeight()).Render(m.messages.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		styleActiveBorder.Width(m.listWidth()).Height(m.panelHeight()).Render(list),
		msgs,
	)

	status := styleStatusBar.Render(fmt.Sprintf(
		"%d sessions · up/down select · C-u/C-d scroll · r refresh · q quit",
		len(m.sessions)))

	return body + "\n" + status
}

func (m model) renderList() string {
	if len(m.sessions) == 0 {
		return styleTitle.Render("no sessions cataloged")
	}

	visible := m.panelHeight()
	end := m.listOffset + visible
	if end > len(m.sessions) {
		end = len(m.sessions)
	}

	var b strings.Builder
	for i := m.listOffset; i < end; i++ {
		s := m.sessions[i]

		statusStyle := styleStatusOther
		if s.Status == catalog.StatusActive {
			statusStyle = styleStatusActive
		}

		line := statusStyle.Render(s.Status) + " " + shorten(s.ProjectPath, m.listWidth()-14)
		if i == m.cursor {
			line = styleListSelected.Render("> ") + line
		} else {
			line = styleListNormal.Render("  ") + line
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func shorten(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
