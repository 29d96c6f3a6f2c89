package listing

import (
	"context"

	"moviedb/internal/infra/logx"
	"moviedb/internal/tmdb"
)

// MovieFromTMDB keeps the fields the display surfaces render.
func MovieFromTMDB(m tmdb.Movie) Movie {
	return Movie{
		ID:          m.ID,
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
	}
}

func pageFromTMDB(p tmdb.MoviesPage) Page {
	items := make([]Movie, 0, len(p.Results))
	for _, m := range p.Results {
		items = append(items, MovieFromTMDB(m))
	}
	return Page{TotalPages: p.TotalPages, Items: items}
}

// PopularSource pages through TMDB's popular movies.
func PopularSource(c *tmdb.Client) Source {
	return SourceFunc(func(ctx context.Context, _ string, page int) (Page, error) {
		rc := &tmdb.RetryCounters{}
		p, err := c.PopularMovies(tmdb.WithRetryCounters(ctx, rc), page)
		logRetries("popular", page, rc)
		if err != nil {
			return Page{}, err
		}
		return pageFromTMDB(p), nil
	})
}

// SearchSource pages through TMDB's movie search for a query.
func SearchSource(c *tmdb.Client) Source {
	return SourceFunc(func(ctx context.Context, query string, page int) (Page, error) {
		rc := &tmdb.RetryCounters{}
		p, err := c.SearchMovies(tmdb.WithRetryCounters(ctx, rc), query, page)
		logRetries("search", page, rc)
		if err != nil {
			return Page{}, err
		}
		return pageFromTMDB(p), nil
	})
}

func logRetries(source string, page int, rc *tmdb.RetryCounters) {
	if rc.Total == 0 {
		return
	}
	logx.With("source", source).
		With("page", page).
		With("retries", rc.Total).
		With("retry_429", rc.Status429).
		Infof("page needed retries")
}
