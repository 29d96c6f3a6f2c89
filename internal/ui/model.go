package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"moviedb/internal/core/listing"
	"moviedb/internal/core/similar"
	"moviedb/internal/tmdb"
)

// --- Model / State ---
type state int

const (
	stateBrowse state = iota
	stateSearch
	stateDetails
	stateQuit
)

// Lister is the part of the list coordinator the UI drives.
type Lister interface {
	ResultCount() int
	ResultAt(row int) listing.Movie
	ReachedEnd(row int)
	Search(query string)
	Mode() listing.Mode
	Query() string
	CurrentPage() int
	TotalPages() int
	Loading() bool
}

// DetailsLoader loads the details screen of one movie.
type DetailsLoader interface {
	Load(ctx context.Context, movieID int) (similar.Result, error)
}

// Options are the display settings of the terminal UI.
type Options struct {
	Metrics *tmdb.Metrics
}

type ListState struct {
	cursor   int
	offset   int
	viewport int
}

type SearchState struct {
	input textinput.Model
}

type DetailsState struct {
	movie   listing.Movie
	loading bool
	result  *similar.Result
	err     error
	view    viewport.Model
}

type Model struct {
	state         state
	list          Lister
	loader        DetailsLoader
	metrics       *tmdb.Metrics
	width, height int

	statusMsg string
	errMsg    string

	spinner  spinner.Model
	ticking  bool
	keys     keyMap
	help     help.Model
	showHelp bool

	rows    ListState
	search  SearchState
	details DetailsState
}
