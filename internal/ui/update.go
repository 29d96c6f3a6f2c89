package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"moviedb/internal/tmdb"
)

// ---------- Update ----------
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.state = stateQuit
			return m, tea.Quit
		}
		switch m.state {
		case stateBrowse:
			return m.handleBrowseKey(msg)
		case stateSearch:
			return m.handleSearchKey(msg)
		case stateDetails:
			return m.handleDetailsKey(msg)
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.ensureCursorVisible()
		m.checkReachedEnd()
		return m, nil

	case moviesChangedMsg:
		m.errMsg = ""
		m.ensureCursorVisible()
		m.checkReachedEnd()
		m.statusMsg = m.listStatus()
		cmd := m.startSpinner()
		return m, cmd

	case fetchFailedMsg:
		m.errMsg = describeFetchError(msg.err)
		m.statusMsg = m.listStatus()
		return m, nil

	case detailsMsg:
		if m.state != stateDetails || msg.movieID != m.details.movie.ID {
			return m, nil
		}
		m.details.loading = false
		if msg.err != nil {
			m.details.err = msg.err
			m.errMsg = "Details failed: " + msg.err.Error()
		} else {
			res := msg.result
			m.details.result = &res
		}
		m.updateDetailsViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) busy() bool {
	return m.list.Loading() || (m.state == stateDetails && m.details.loading)
}

// startSpinner resumes ticking after new work was started.
func (m *Model) startSpinner() tea.Cmd {
	if m.ticking || !m.busy() {
		return nil
	}
	m.ticking = true
	return m.spinner.Tick
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	// header, search line, divider, status and help
	const chrome = 6
	m.rows.viewport = max(3, height-chrome)
	m.help.Width = width
	m.details.view.Width = max(20, width-2)
	m.details.view.Height = max(3, height-chrome)
	m.search.input.Width = max(10, min(60, width-6))
}

func (m Model) listStatus() string {
	n := m.list.ResultCount()
	if q := m.list.Query(); q != "" {
		return fmt.Sprintf("%d results for %q · page %d/%d", n, q, m.list.CurrentPage(), m.list.TotalPages())
	}
	return fmt.Sprintf("%d popular movies · page %d/%d", n, m.list.CurrentPage(), m.list.TotalPages())
}

func describeFetchError(err error) string {
	var apiErr *tmdb.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
		return "TMDB rejected the API key (401). Check MOVIEDB_API_KEY."
	}
	if errors.Is(err, tmdb.ErrNoAPIKey) {
		return "No TMDB API key configured."
	}
	return "Loading failed: " + err.Error()
}

func isKey(msg tea.KeyMsg, b key.Binding) bool { return key.Matches(msg, b) }
