package web

import (
	"net/http"
	"strconv"
)

// Page is the envelope for listing endpoints.
type Page struct {
	RunID  string `json:"runId"`
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Items  any    `json:"items"`
}

// parseIntParam parses a non-negative integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// pageBounds reads offset/limit from the request and clamps them to total.
// Returns the half-open [start, end) range to slice.
func (s *Server) pageBounds(r *http.Request, total int) (offset, limit, start, end int) {
	offset = parseIntParam(r, "offset", 0)
	limit = parseIntParam(r, "limit", s.cfg.API.DefaultPageSize)
	if limit == 0 {
		limit = s.cfg.API.DefaultPageSize
	}
	if limit > s.cfg.API.MaxPageSize {
		limit = s.cfg.API.MaxPageSize
	}

	start = min(offset, total)
	end = min(start+limit, total)
	return offset, limit, start, end
}

// paginate slices items according to the request and wraps them in a Page.
func paginate[T any](s *Server, r *http.Request, runID string, items []T) Page {
	offset, limit, start, end := s.pageBounds(r, len(items))
	page := make([]T, end-start)
	copy(page, items[start:end])
	return Page{
		RunID:  runID,
		Total:  len(items),
		Offset: offset,
		Limit:  limit,
		Items:  page,
	}
}
