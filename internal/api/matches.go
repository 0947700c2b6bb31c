package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/campusfound/internal/matching"
	"github.com/erazemk/campusfound/internal/model"
)

// MatchesHandler handles match suggestion endpoints.
type MatchesHandler struct {
	Engine *matching.Engine
}

type matchStatusRequest struct {
	Status string `json:"status"`
}

// ForLost handles GET /api/matches/lost/{id}.
func (h *MatchesHandler) ForLost(w http.ResponseWriter, r *http.Request) {
	h.candidates(w, r, model.SideLost)
}

// ForFound handles GET /api/matches/found/{id}.
func (h *MatchesHandler) ForFound(w http.ResponseWriter, r *http.Request) {
	h.candidates(w, r, model.SideFound)
}

func (h *MatchesHandler) candidates(w http.ResponseWriter, r *http.Request, side model.Side) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	candidates, err := h.Engine.FindCandidates(r.Context(), actor(r), id, side)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if candidates == nil {
		candidates = []matching.Candidate{}
	}
	jsonResponse(w, http.StatusOK, candidates)
}

// Mine handles GET /api/matches/my-lost-items.
func (h *MatchesHandler) Mine(w http.ResponseWriter, r *http.Request) {
	matches, err := h.Engine.SavedMatches(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

// Accept handles POST /api/matches/{id}/accept.
func (h *MatchesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	m, err := h.Engine.Confirm(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("match confirmed", "user", actor(r).Username, "match_id", id)
	jsonResponse(w, http.StatusOK, m)
}

// Reject handles POST /api/matches/{id}/reject.
func (h *MatchesHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	m, err := h.Engine.Dismiss(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("match dismissed", "user", actor(r).Username, "match_id", id)
	jsonResponse(w, http.StatusOK, m)
}

// SetStatus handles PATCH /api/matches/{id}/status.
func (h *MatchesHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	var req matchStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.Engine.SetStatus(r.Context(), actor(r), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("match status set", "user", actor(r).Username, "match_id", id, "status", m.Status)
	jsonResponse(w, http.StatusOK, m)
}

// RunAutoMatch handles POST /api/matches/run-auto-match.
func (h *MatchesHandler) RunAutoMatch(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Engine.RunAutoMatch(r.Context())
	if errors.Is(err, matching.ErrSweepInProgress) {
		jsonError(w, http.StatusConflict, "a matching sweep is already running")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("auto-match sweep run", "user", actor(r).Username,
		"created", summary.Created, "updated", summary.Updated)
	jsonResponse(w, http.StatusOK, summary)
}
