package listing

import "context"

// Mode selects which source and query context the coordinator is paging.
type Mode int

const (
	Browsing Mode = iota
	Searching
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "browsing"
	case Searching:
		return "searching"
	default:
		return "unknown"
	}
}

// Movie is one catalog entry. Values are never mutated once received.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average"`
}

// Page is the result of one fetch.
type Page struct {
	TotalPages int
	Items      []Movie
}

// Source fetches one page. Browsing sources ignore query.
type Source interface {
	Fetch(ctx context.Context, query string, page int) (Page, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, query string, page int) (Page, error)

func (f SourceFunc) Fetch(ctx context.Context, query string, page int) (Page, error) {
	return f(ctx, query, page)
}

// Display is told after every applied state change and re-reads the
// coordinator for the new contents.
type Display interface {
	MoviesChanged()
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func()

func (f DisplayFunc) MoviesChanged() { f() }

// State is a point-in-time copy of the coordinator state.
type State struct {
	Mode        Mode
	Query       string
	CurrentPage int
	TotalPages  int
	Loading     bool
	Results     []Movie
}
