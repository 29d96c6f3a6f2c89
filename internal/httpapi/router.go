// Package httpapi exposes the movie list over JSON for headless use.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"moviedb/internal/core/listing"
	"moviedb/internal/core/similar"
	"moviedb/internal/infra/logx"
	"moviedb/internal/tmdb"
)

// DetailsLoader loads one movie with its similar movies.
type DetailsLoader interface {
	Load(ctx context.Context, movieID int) (similar.Result, error)
}

// Dependencies holds everything the router serves.
type Dependencies struct {
	Coordinator *listing.Coordinator
	Loader      DetailsLoader
	Metrics     *tmdb.Metrics
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", health(deps.Metrics))

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", listMovies(deps.Coordinator))
		r.Get("/{row}", movieAt(deps.Coordinator))
	})
	r.Post("/search", search(deps.Coordinator))
	r.Post("/reached-end", reachedEnd(deps.Coordinator))
	r.Post("/reload", reload(deps.Coordinator))

	if deps.Loader != nil {
		r.Get("/similar/{id}", similarMovies(deps.Loader))
	}
	return r
}

// requestLogger writes one logx entry per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		entry := logx.With("method", r.Method).
			With("path", r.URL.Path).
			With("status", ww.Status()).
			With("bytes", ww.BytesWritten()).
			With("duration_ms", time.Since(start).Milliseconds()).
			With("request_id", chimw.GetReqID(r.Context()))
		if ww.Status() >= 500 {
			entry.Errorf("request failed")
			return
		}
		entry.Infof("request")
	})
}
