package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"moviedb/internal/core/listing"
	"moviedb/internal/infra/logx"
	"moviedb/internal/tmdb"
)

type listResponse struct {
	Mode        string          `json:"mode"`
	Query       string          `json:"query"`
	CurrentPage int             `json:"current_page"`
	TotalPages  int             `json:"total_pages"`
	Loading     bool            `json:"loading"`
	Count       int             `json:"count"`
	Results     []listing.Movie `json:"results"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type reachedEndRequest struct {
	Row *int `json:"row"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func health(m *tmdb.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if m != nil {
			body["tmdb"] = m.Snapshot()
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func listMovies(c *listing.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := c.Snapshot()
		writeJSON(w, http.StatusOK, listResponse{
			Mode:        s.Mode.String(),
			Query:       s.Query,
			CurrentPage: s.CurrentPage,
			TotalPages:  s.TotalPages,
			Loading:     s.Loading,
			Count:       len(s.Results),
			Results:     s.Results,
		})
	}
}

func movieAt(c *listing.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := strconv.Atoi(chi.URLParam(r, "row"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "row must be an integer")
			return
		}
		// bounds check and read on one snapshot so a concurrent reset
		// cannot invalidate the row
		s := c.Snapshot()
		if row < 0 || row >= len(s.Results) {
			writeError(w, http.StatusNotFound, "row out of range")
			return
		}
		writeJSON(w, http.StatusOK, s.Results[row])
	}
}

func search(c *listing.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad payload")
			return
		}
		c.Search(req.Query)
		writeJSON(w, http.StatusAccepted, map[string]string{"mode": c.Mode().String(), "query": c.Query()})
	}
}

func reachedEnd(c *listing.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reachedEndRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Row == nil {
			writeError(w, http.StatusBadRequest, "row required")
			return
		}
		c.ReachedEnd(*req.Row)
		writeJSON(w, http.StatusAccepted, map[string]any{"loading": c.Loading(), "current_page": c.CurrentPage()})
	}
}

func reload(c *listing.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Search("")
		writeJSON(w, http.StatusAccepted, map[string]string{"mode": c.Mode().String()})
	}
}

func similarMovies(l DetailsLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "id must be a positive integer")
			return
		}
		res, err := l.Load(r.Context(), id)
		if err != nil {
			var apiErr *tmdb.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				writeError(w, http.StatusNotFound, "movie not found")
				return
			}
			logx.With("movie_id", id).With("err", err).Warnf("similar load failed")
			writeError(w, http.StatusBadGateway, "upstream error")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
