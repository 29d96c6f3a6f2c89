// Package similar loads what the details screen shows for one movie.
package similar

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"moviedb/internal/tmdb"
)

// API is the part of the TMDB client the loader needs.
type API interface {
	MovieDetails(ctx context.Context, movieID int) (tmdb.MovieDetails, error)
	SimilarMovies(ctx context.Context, movieID, page int) (tmdb.MoviesPage, error)
}

type Loader struct {
	Client       API
	ImageBaseURL string
	PosterSize   string
}

// Result holds a movie's details and its similar movies. PosterURLs[i]
// belongs to Similar[i] and is empty when that movie has no poster.
type Result struct {
	Details    tmdb.MovieDetails `json:"details"`
	PosterURL  string            `json:"poster_url"`
	Similar    []tmdb.Movie      `json:"similar"`
	PosterURLs []string          `json:"poster_urls"`
}

// Load fetches details and the first page of similar movies concurrently.
// Either failure fails the load.
func (l *Loader) Load(ctx context.Context, movieID int) (Result, error) {
	var (
		details tmdb.MovieDetails
		page    tmdb.MoviesPage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := l.Client.MovieDetails(gctx, movieID)
		if err != nil {
			return err
		}
		details = d
		return nil
	})
	g.Go(func() error {
		p, err := l.Client.SimilarMovies(gctx, movieID, 1)
		if err != nil {
			return fmt.Errorf("similar to %d: %w", movieID, err)
		}
		page = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{
		Details:    details,
		PosterURL:  tmdb.ImageURL(l.ImageBaseURL, l.PosterSize, details.PosterPath),
		Similar:    page.Results,
		PosterURLs: make([]string, len(page.Results)),
	}
	if res.Similar == nil {
		res.Similar = []tmdb.Movie{}
	}
	for i, m := range page.Results {
		res.PosterURLs[i] = tmdb.ImageURL(l.ImageBaseURL, l.PosterSize, m.PosterPath)
	}
	return res, nil
}
