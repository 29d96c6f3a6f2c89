package listing

import (
	"fmt"

	"moviedb/internal/infra/logx"
)

// FetchError describes one failed page fetch of the current session.
type FetchError struct {
	Mode  Mode
	Query string
	Page  int
	Err   error
}

func (e *FetchError) Error() string {
	if e.Mode == Searching {
		return fmt.Sprintf("search %q page %d: %v", e.Query, e.Page, e.Err)
	}
	return fmt.Sprintf("popular page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrorSink receives fetch failures. Each failure is reported once.
type ErrorSink interface {
	ReportFetchError(err *FetchError)
}

// ErrorSinkFunc adapts a function to ErrorSink.
type ErrorSinkFunc func(err *FetchError)

func (f ErrorSinkFunc) ReportFetchError(err *FetchError) { f(err) }

// LogSink writes failures to logx.
type LogSink struct{}

func (LogSink) ReportFetchError(err *FetchError) {
	logx.With("mode", err.Mode.String()).
		With("query", err.Query).
		With("page", err.Page).
		With("err", err.Err).
		Warnf("fetch failed")
}

// MultiSink fans a failure out to several sinks.
type MultiSink []ErrorSink

func (m MultiSink) ReportFetchError(err *FetchError) {
	for _, s := range m {
		if s != nil {
			s.ReportFetchError(err)
		}
	}
}
