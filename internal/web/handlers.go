package web

import (
	"net/http"

	"github.com/JonMunkholm/neo/internal/core"
	"github.com/JonMunkholm/neo/internal/logging"
)

// rowErrorJSON is the wire shape of a rejected close-approach row.
type rowErrorJSON struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// catalog returns the current snapshot or writes a 503 and returns nil.
func (s *Server) catalog(w http.ResponseWriter, r *http.Request) *core.Catalog {
	cat := s.service.Catalog()
	if cat == nil {
		s.respondError(w, r, core.ErrNotLoaded, http.StatusServiceUnavailable)
		return nil
	}
	return cat
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.service.Catalog() == nil {
		status = "loading"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog(w, r)
	if cat == nil {
		return
	}
	writeJSON(w, http.StatusOK, cat.Summary())
}

func (s *Server) handleListBodies(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog(w, r)
	if cat == nil {
		return
	}
	writeJSON(w, http.StatusOK, paginate(s, r, cat.RunID, cat.Bodies))
}

func (s *Server) handleListApproaches(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog(w, r)
	if cat == nil {
		return
	}
	writeJSON(w, http.StatusOK, paginate(s, r, cat.RunID, cat.Events))
}

func (s *Server) handleListWarnings(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog(w, r)
	if cat == nil {
		return
	}
	writeJSON(w, http.StatusOK, paginate(s, r, cat.RunID, cat.Warnings))
}

func (s *Server) handleListRejected(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog(w, r)
	if cat == nil {
		return
	}
	rows := make([]rowErrorJSON, len(cat.Rejected))
	for i, e := range cat.Rejected {
		rows[i] = rowErrorJSON{Line: e.Line, Field: e.Field, Value: e.Value, Message: e.Msg}
	}
	writeJSON(w, http.StatusOK, paginate(s, r, cat.RunID, rows))
}

// handleReload re-reads both source files. A failed reload keeps the
// previous snapshot and reports why.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	cat, err := s.service.Load(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	logging.WithFields(r.Context(), "run_id", cat.RunID).Info("reload requested",
		"bodies", len(cat.Bodies),
		"events", len(cat.Events),
	)
	writeJSON(w, http.StatusOK, cat.Summary())
}
