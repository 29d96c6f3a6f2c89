package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitSearch(m.search.input.Value())
	case "esc":
		// clearing the box and leaving returns to popular movies
		if strings.TrimSpace(m.search.input.Value()) == "" {
			return m.submitSearch("")
		}
		m.state = stateBrowse
		m.search.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	return m, cmd
}
