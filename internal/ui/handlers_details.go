package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case isKey(msg, m.keys.Quit):
		m.state = stateQuit
		return m, tea.Quit
	case isKey(msg, m.keys.Back):
		m.state = stateBrowse
		m.details = DetailsState{view: m.details.view}
		m.errMsg = ""
		return m, nil
	case isKey(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	}
	var cmd tea.Cmd
	m.details.view, cmd = m.details.view.Update(msg)
	return m, cmd
}
