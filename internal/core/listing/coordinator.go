// Package listing owns the paginated movie list shown by every display
// surface: popular browsing, query search and incremental page loading.
package listing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"moviedb/internal/infra/logx"
)

// DefaultFetchTimeout bounds a single page fetch.
const DefaultFetchTimeout = 15 * time.Second

// Runner executes a fetch task. The default runs each task on its own goroutine.
type Runner func(task func())

func goRunner(task func()) { go task() }

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRunner replaces the fetch executor.
func WithRunner(r Runner) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.run = r
		}
	}
}

// WithContext sets the parent context of all fetches.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithTimeout bounds each fetch. Zero or less disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithErrorSink replaces the default LogSink.
func WithErrorSink(s ErrorSink) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithDisplay sets the initial display.
func WithDisplay(d Display) Option {
	return func(c *Coordinator) { c.display = d }
}

// Coordinator keeps exactly one pagination session (popular or one search
// query) and merges fetched pages into it.
//
// Each session carries a generation number. A completion is applied only if
// its generation is still current, so pages of an abandoned session never leak
// into the next one. At most one fetch per session is in flight.
type Coordinator struct {
	popular Source
	search  Source
	run     Runner
	sink    ErrorSink
	ctx     context.Context
	timeout time.Duration

	mu          sync.Mutex
	display     Display
	mode        Mode
	query       string
	currentPage int
	totalPages  int
	results     []Movie
	gen         uint64
	inflight    bool
	sessionCtx  context.Context
	cancel      context.CancelFunc
}

func NewCoordinator(popular, search Source, opts ...Option) *Coordinator {
	c := &Coordinator{
		popular:     popular,
		search:      search,
		run:         goRunner,
		sink:        LogSink{},
		ctx:         context.Background(),
		timeout:     DefaultFetchTimeout,
		mode:        Browsing,
		currentPage: 1,
		totalPages:  1,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetDisplay replaces the display. Nil detaches it.
func (c *Coordinator) SetDisplay(d Display) {
	c.mu.Lock()
	c.display = d
	c.mu.Unlock()
}

// SetErrorSink replaces the error sink. Nil restores LogSink.
func (c *Coordinator) SetErrorSink(s ErrorSink) {
	if s == nil {
		s = LogSink{}
	}
	c.mu.Lock()
	c.sink = s
	c.mu.Unlock()
}

// LoadInitialBrowsing starts a fresh popular session and fetches its first page.
func (c *Coordinator) LoadInitialBrowsing() {
	c.mu.Lock()
	c.resetLocked(Browsing, "")
	task := c.fetchLocked(1)
	c.mu.Unlock()
	c.run(task)
}

// Search switches to a search session for query, or back to popular browsing
// when query is blank. Every call starts a new session at page 1.
func (c *Coordinator) Search(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		c.LoadInitialBrowsing()
		return
	}
	c.mu.Lock()
	c.resetLocked(Searching, query)
	task := c.fetchLocked(1)
	c.mu.Unlock()
	c.run(task)
}

// ReachedEnd is called when row is about to become visible. It fetches the
// next page when row is the last known row, more pages exist and nothing is
// already loading.
func (c *Coordinator) ReachedEnd(row int) {
	c.mu.Lock()
	if row != len(c.results)-1 || c.currentPage >= c.totalPages || c.inflight {
		c.mu.Unlock()
		return
	}
	// a failed fetch keeps the page consumed
	c.currentPage++
	task := c.fetchLocked(c.currentPage)
	c.mu.Unlock()
	c.run(task)
}

// Close cancels any fetch in flight. Their completions are dropped.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.sessionCtx = nil
	}
	c.gen++
	c.inflight = false
}

func (c *Coordinator) ResultCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// ResultAt returns the movie at row. It panics if row is out of range;
// callers check ResultCount first.
func (c *Coordinator) ResultAt(row int) Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	if row < 0 || row >= len(c.results) {
		panic(fmt.Sprintf("listing: row %d out of range [0,%d)", row, len(c.results)))
	}
	return c.results[row]
}

func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Coordinator) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Coordinator) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

func (c *Coordinator) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages
}

// Loading reports whether the current session has a fetch in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]Movie, len(c.results))
	copy(res, c.results)
	return State{
		Mode:        c.mode,
		Query:       c.query,
		CurrentPage: c.currentPage,
		TotalPages:  c.totalPages,
		Loading:     c.inflight,
		Results:     res,
	}
}

// resetLocked begins a new session. Fetches of the previous one are cancelled
// and their completions ignored.
func (c *Coordinator) resetLocked(mode Mode, query string) {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.sessionCtx = nil
	}
	c.gen++
	c.mode = mode
	c.query = query
	c.currentPage = 1
	c.totalPages = 1
	c.results = nil
	c.inflight = false
}

func (c *Coordinator) sessionCtxLocked() context.Context {
	if c.cancel == nil {
		ctx, cancel := context.WithCancel(c.ctx)
		c.cancel = cancel
		c.sessionCtx = ctx
	}
	return c.sessionCtx
}

// fetchLocked marks the session loading and returns the task that fetches
// page. The task must run without c.mu held.
func (c *Coordinator) fetchLocked(page int) func() {
	gen, mode, query := c.gen, c.mode, c.query
	src := c.popular
	if mode == Searching {
		src = c.search
	}
	parent := c.sessionCtxLocked()
	c.inflight = true
	logx.Debugf("fetch %s %q page %d", mode, query, page)

	return func() {
		ctx := parent
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, c.timeout)
			defer cancel()
		}
		p, err := src.Fetch(ctx, query, page)
		if err != nil {
			c.fail(gen, &FetchError{Mode: mode, Query: query, Page: page, Err: err})
			return
		}
		c.apply(gen, p)
	}
}

func (c *Coordinator) apply(gen uint64, p Page) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		logx.Debugf("dropping stale page of session %d", gen)
		return
	}
	c.inflight = false
	c.totalPages = max(1, p.TotalPages)
	if c.currentPage > c.totalPages {
		c.currentPage = c.totalPages
	}
	c.results = append(c.results, p.Items...)
	d := c.display
	c.mu.Unlock()

	if d != nil {
		d.MoviesChanged()
	}
}

func (c *Coordinator) fail(gen uint64, ferr *FetchError) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		logx.Debugf("dropping stale failure: %v", ferr)
		return
	}
	c.inflight = false
	sink := c.sink
	c.mu.Unlock()

	sink.ReportFetchError(ferr)
}
