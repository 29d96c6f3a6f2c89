package tmdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(opts Options, fn roundTripFunc) *Client {
	opts.HTTP = &http.Client{Transport: fn}
	return New(opts)
}

func TestPopularMovies(t *testing.T) {
	c := newTestClient(Options{APIKey: "key", Language: "de-DE", Region: "DE"}, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/3/movie/popular", req.URL.Path)
		q := req.URL.Query()
		assert.Equal(t, "key", q.Get("api_key"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "de-DE", q.Get("language"))
		assert.Equal(t, "DE", q.Get("region"))
		assert.Empty(t, req.Header.Get("Authorization"))
		return jsonResponse(200, `{"page":2,"total_pages":7,"total_results":140,"results":[{"id":1,"title":"One","poster_path":"/a.jpg","release_date":"1999-03-31"}]}`), nil
	})

	page, err := c.PopularMovies(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 7, page.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "One", page.Results[0].Title)
	assert.Equal(t, "1999", page.Results[0].Year())
}

func TestSearchMoviesUsesBearerToken(t *testing.T) {
	c := newTestClient(Options{AccessToken: "tok", IncludeAdult: true}, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/3/search/movie", req.URL.Path)
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		q := req.URL.Query()
		assert.Equal(t, "batman", q.Get("query"))
		assert.Equal(t, "true", q.Get("include_adult"))
		assert.Empty(t, q.Get("api_key"))
		return jsonResponse(200, `{"page":1,"total_pages":1,"results":[]}`), nil
	})

	page, err := c.SearchMovies(context.Background(), " batman ", 1)
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}

func TestSearchMoviesEmptyQuery(t *testing.T) {
	c := newTestClient(Options{APIKey: "key"}, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := c.SearchMovies(context.Background(), "  ", 1)
	assert.Error(t, err)
}

func TestNoCredentials(t *testing.T) {
	c := newTestClient(Options{}, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := c.PopularMovies(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestPageClamping(t *testing.T) {
	var pages []string
	c := newTestClient(Options{APIKey: "key"}, func(req *http.Request) (*http.Response, error) {
		pages = append(pages, req.URL.Query().Get("page"))
		return jsonResponse(200, `{"page":1,"total_pages":40000,"results":[]}`), nil
	})

	p, err := c.PopularMovies(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, MaxPage, p.TotalPages)
	_, err = c.SimilarMovies(context.Background(), 3, 9999)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "500"}, pages)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(Options{APIKey: "bad"}, func(*http.Request) (*http.Response, error) {
		return jsonResponse(401, `{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`), nil
	})

	_, err := c.PopularMovies(context.Background(), 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, 7, apiErr.TMDBCode)
	assert.Contains(t, apiErr.Error(), "Invalid API key")
}

func TestAPIErrorWithoutBody(t *testing.T) {
	c := newTestClient(Options{APIKey: "k"}, func(*http.Request) (*http.Response, error) {
		return jsonResponse(502, `<html>bad gateway</html>`), nil
	})
	_, err := c.MovieDetails(context.Background(), 5)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "tmdb: http 502", apiErr.Error())
	assert.Contains(t, err.Error(), "movie 5")
}

func TestMovieDetails(t *testing.T) {
	c := newTestClient(Options{APIKey: "k"}, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/3/movie/603", req.URL.Path)
		return jsonResponse(200, `{"id":603,"title":"The Matrix","runtime":136,"tagline":"Welcome to the Real World.","genres":[{"id":28,"name":"Action"}]}`), nil
	})
	d, err := c.MovieDetails(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", d.Title)
	assert.Equal(t, 136, d.Runtime)
	assert.Equal(t, []Genre{{ID: 28, Name: "Action"}}, d.Genres)
}

func TestDecodeError(t *testing.T) {
	c := newTestClient(Options{APIKey: "k"}, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"page":`), nil
	})
	_, err := c.PopularMovies(context.Background(), 1)
	assert.ErrorContains(t, err, "decode /movie/popular")
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w342/a.jpg", ImageURL("https://image.tmdb.org/t/p/", "w342", "/a.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/original/a.jpg", ImageURL("https://image.tmdb.org/t/p", "", "a.jpg"))
	assert.Empty(t, ImageURL("https://image.tmdb.org/t/p", "w342", ""))
}

func TestTransportErrorOmitsAPIKey(t *testing.T) {
	c := newTestClient(Options{APIKey: "SUPERSECRETKEY"}, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := c.PopularMovies(context.Background(), 1)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SUPERSECRETKEY")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), DefaultBaseURL+"/movie/popular")

	_, err = c.MovieDetails(context.Background(), 42)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SUPERSECRETKEY")
}

func TestTransportErrorKeepsCause(t *testing.T) {
	c := newTestClient(Options{APIKey: "key"}, func(*http.Request) (*http.Response, error) {
		return nil, context.Canceled
	})
	_, err := c.SearchMovies(context.Background(), "heat", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
