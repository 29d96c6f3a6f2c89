package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case isKey(msg, m.keys.Quit):
		m.state = stateQuit
		return m, tea.Quit
	case isKey(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case isKey(msg, m.keys.Search):
		m.state = stateSearch
		m.search.input.SetValue(m.list.Query())
		m.search.input.CursorEnd()
		cmd := m.search.input.Focus()
		return m, cmd
	case isKey(msg, m.keys.Reload):
		return m.submitSearch("")
	case isKey(msg, m.keys.Open):
		return m.openDetails()
	}

	if m.moveCursor(msg) {
		m.ensureCursorVisible()
		m.checkReachedEnd()
		cmd := m.startSpinner()
		return m, cmd
	}
	return m, nil
}

// moveCursor applies navigation keys and reports whether one matched.
func (m *Model) moveCursor(msg tea.KeyMsg) bool {
	n := m.list.ResultCount()
	switch {
	case isKey(msg, m.keys.Down):
		m.rows.cursor++
	case isKey(msg, m.keys.Up):
		m.rows.cursor--
	case isKey(msg, m.keys.PageDown):
		m.rows.cursor += m.rows.viewport
	case isKey(msg, m.keys.PageUp):
		m.rows.cursor -= m.rows.viewport
	case isKey(msg, m.keys.Top):
		m.rows.cursor = 0
	case isKey(msg, m.keys.Bottom):
		m.rows.cursor = n - 1
	default:
		return false
	}
	return true
}

// submitSearch hands query to the coordinator and resets the list position.
func (m Model) submitSearch(query string) (tea.Model, tea.Cmd) {
	m.list.Search(query)
	m.state = stateBrowse
	m.search.input.Blur()
	m.rows.cursor, m.rows.offset = 0, 0
	m.errMsg = ""
	m.statusMsg = m.listStatus()
	cmd := m.startSpinner()
	return m, cmd
}

func (m Model) openDetails() (tea.Model, tea.Cmd) {
	if m.loader == nil || m.rows.cursor < 0 || m.rows.cursor >= m.list.ResultCount() {
		return m, nil
	}
	mv := m.list.ResultAt(m.rows.cursor)
	m.state = stateDetails
	m.details = DetailsState{movie: mv, loading: true, view: m.details.view}
	m.details.view.GotoTop()
	m.updateDetailsViewport()
	spin := m.startSpinner()
	return m, tea.Batch(m.loadDetailsCmd(mv.ID), spin)
}
