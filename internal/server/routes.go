package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/plateful/platefinder/internal/pipeline"
	"github.com/plateful/platefinder/internal/render"
	"github.com/plateful/platefinder/internal/session"
)

func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/search/ws", s.handleSearchWS)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/adapt", s.handleAdapt)
				r.Post("/select", s.handleSelect)
				r.Post("/reset", s.handleReset)
				r.Get("/selection", s.handleSelection)
			})
		})
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Text == "" {
		http.Error(w, "session_id and text are required", http.StatusBadRequest)
		return
	}

	res, err := s.orch.Search(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type adaptRequest struct {
	Goal string `json:"goal"`
}

func (s *Server) handleAdapt(w http.ResponseWriter, r *http.Request) {
	var req adaptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Goal == "" {
		http.Error(w, "goal is required", http.StatusBadRequest)
		return
	}

	res, err := s.orch.Adapt(r.Context(), chi.URLParam(r, "sessionID"), req.Goal, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type selectRequest struct {
	CandidateID string `json:"candidate_id"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CandidateID == "" {
		http.Error(w, "candidate_id is required", http.StatusBadRequest)
		return
	}

	state, err := s.orch.Select(r.Context(), chi.URLParam(r, "sessionID"), req.CandidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.orch.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.orch.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	states, err := s.orch.Sessions(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if states == nil {
		states = []*session.State{}
	}
	writeJSON(w, http.StatusOK, states)
}

// handleSelection returns the session's current selection, as JSON by
// default or rendered HTML with ?format=html.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	state, err := s.orch.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if state.CurrentSelection == nil {
		http.Error(w, "no recipe selected", http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		html, err := render.HTML(*state.CurrentSelection)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
		return
	}
	writeJSON(w, http.StatusOK, state.CurrentSelection)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps pipeline and session failures onto HTTP statuses. Stage
// failures expose the failed stage so clients can decide whether to retry.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrNoSelection):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			status := http.StatusBadGateway
			if !stageErr.Retryable {
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, status, map[string]any{
				"error":     stageErr.Error(),
				"stage":     stageErr.Stage,
				"retryable": stageErr.Retryable,
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
