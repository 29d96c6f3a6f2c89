package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviedb/internal/infra/logx"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// MaxPage is the highest page TMDB serves for list endpoints.
	MaxPage = 500
)

// ErrNoAPIKey is returned when neither an API key nor an access token is set.
var ErrNoAPIKey = errors.New("tmdb: no api key or access token configured")

// APIError is a non-2xx response from TMDB.
type APIError struct {
	StatusCode    int
	StatusMessage string
	TMDBCode      int
}

func (e *APIError) Error() string {
	if e.StatusMessage == "" {
		return fmt.Sprintf("tmdb: http %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb: http %d: %s (code %d)", e.StatusCode, e.StatusMessage, e.TMDBCode)
}

// Options configures a Client.
type Options struct {
	APIKey       string
	AccessToken  string
	BaseURL      string
	Language     string
	Region       string
	IncludeAdult bool
	// HTTP overrides the underlying client. Nil means a client with a
	// rate-limited transport and a 10s timeout.
	HTTP *http.Client
}

type Client struct {
	http         *http.Client
	base         string
	apiKey       string
	accessToken  string
	language     string
	region       string
	includeAdult bool
}

func New(opts Options) *Client {
	hc := opts.HTTP
	if hc == nil {
		rt := NewRetryingLimiterTransport(DefaultTransportOptions(0, 0, 0))
		hc = &http.Client{Transport: rt, Timeout: 10 * time.Second}
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http:         hc,
		base:         base,
		apiKey:       opts.APIKey,
		accessToken:  opts.AccessToken,
		language:     opts.Language,
		region:       opts.Region,
		includeAdult: opts.IncludeAdult,
	}
}

// ---------- Movies ----------

type Movie struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty"`
	BackdropPath  string  `json:"backdrop_path,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
}

// Year returns the release year or "" when the date is unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

type MoviesPage struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type MovieDetails struct {
	Movie
	Tagline string  `json:"tagline,omitempty"`
	Runtime int     `json:"runtime"`
	Status  string  `json:"status,omitempty"`
	Genres  []Genre `json:"genres,omitempty"`
}

func (c *Client) PopularMovies(ctx context.Context, page int) (MoviesPage, error) {
	q := c.listQuery(page)
	if c.region != "" {
		q.Set("region", c.region)
	}
	return c.moviesPage(ctx, "/movie/popular", q)
}

func (c *Client) SearchMovies(ctx context.Context, query string, page int) (MoviesPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return MoviesPage{}, errors.New("tmdb: search query must not be empty")
	}
	q := c.listQuery(page)
	q.Set("query", query)
	q.Set("include_adult", strconv.FormatBool(c.includeAdult))
	if c.region != "" {
		q.Set("region", c.region)
	}
	return c.moviesPage(ctx, "/search/movie", q)
}

func (c *Client) SimilarMovies(ctx context.Context, movieID, page int) (MoviesPage, error) {
	return c.moviesPage(ctx, "/movie/"+strconv.Itoa(movieID)+"/similar", c.listQuery(page))
}

func (c *Client) MovieDetails(ctx context.Context, movieID int) (MovieDetails, error) {
	var d MovieDetails
	q := url.Values{}
	if c.language != "" {
		q.Set("language", c.language)
	}
	if err := c.get(ctx, "/movie/"+strconv.Itoa(movieID), q, &d); err != nil {
		return MovieDetails{}, fmt.Errorf("movie %d: %w", movieID, err)
	}
	return d, nil
}

func (c *Client) listQuery(page int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(clampPage(page)))
	if c.language != "" {
		q.Set("language", c.language)
	}
	return q
}

func (c *Client) moviesPage(ctx context.Context, path string, q url.Values) (MoviesPage, error) {
	var p MoviesPage
	if err := c.get(ctx, path, q, &p); err != nil {
		return MoviesPage{}, err
	}
	if p.TotalPages > MaxPage {
		p.TotalPages = MaxPage
	}
	if p.Results == nil {
		p.Results = []Movie{}
	}
	logx.Debugf("tmdb %s page=%d total_pages=%d results=%d", path, p.Page, p.TotalPages, len(p.Results))
	return p, nil
}

type errorBody struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.apiKey == "" && c.accessToken == "" {
		return ErrNoAPIKey
	}
	if c.accessToken == "" {
		q.Set("api_key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	res, err := c.http.Do(req)
	if err != nil {
		// the request URL may carry api_key
		var ue *url.Error
		if errors.As(err, &ue) {
			return &url.Error{Op: ue.Op, URL: c.base + path, Err: ue.Err}
		}
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var eb errorBody
		body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		if json.Unmarshal(body, &eb) == nil {
			apiErr.StatusMessage = eb.StatusMessage
			apiErr.TMDBCode = eb.StatusCode
		}
		logx.Warnf("tmdb GET %s: %v", path, apiErr)
		return apiErr
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

// ImageURL joins an image base, a size such as "w342" and a poster path. It
// returns "" when path is empty so callers can render a placeholder.
func ImageURL(base, size, path string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "original"
	}
	return strings.TrimRight(base, "/") + "/" + size + "/" + strings.TrimLeft(path, "/")
}
