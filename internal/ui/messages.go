package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"moviedb/internal/core/listing"
	"moviedb/internal/core/similar"
)

// ---------- Messages / Cmds ----------

// moviesChangedMsg tells the model to re-read the coordinator.
type moviesChangedMsg struct{}

type fetchFailedMsg struct {
	err *listing.FetchError
}

type detailsMsg struct {
	movieID int
	result  similar.Result
	err     error
}

const detailsTimeout = 15 * time.Second

func (m Model) loadDetailsCmd(movieID int) tea.Cmd {
	loader := m.loader
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailsTimeout)
		defer cancel()
		res, err := loader.Load(ctx, movieID)
		return detailsMsg{movieID: movieID, result: res, err: err}
	}
}
