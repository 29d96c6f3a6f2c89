package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"moviedb/internal/core/listing"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramDisplay forwards coordinator callbacks into the Bubble Tea event
// loop. It is both the listing.Display and a listing.ErrorSink.
type ProgramDisplay struct {
	P Sender
}

func (d ProgramDisplay) MoviesChanged() {
	if d.P != nil {
		d.P.Send(moviesChangedMsg{})
	}
}

func (d ProgramDisplay) ReportFetchError(err *listing.FetchError) {
	if d.P != nil {
		d.P.Send(fetchFailedMsg{err: err})
	}
}
