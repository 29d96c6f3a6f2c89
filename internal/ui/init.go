package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// New builds the terminal UI over list. loader may be nil, which disables the
// details screen.
func New(list Lister, loader DetailsLoader, opts Options) Model {
	m := Model{
		state:   stateBrowse,
		list:    list,
		loader:  loader,
		metrics: opts.Metrics,
		keys:    defaultKeyMap(),
		help:    help.New(),
		width:   80,
		height:  24,
	}
	m.rows.viewport = 10

	si := textinput.New()
	si.Placeholder = "Search movies…"
	si.Prompt = "/ "
	si.CharLimit = 200
	si.Width = 40
	m.search.input = si

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = subtleStyle
	m.spinner = sp

	m.details.view = viewport.New(80, 20)
	m.resize(m.width, m.height)
	return m
}

// Init starts the spinner; main has already asked for the first page.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}
