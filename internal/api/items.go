package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/campusfound/internal/items"
	"github.com/erazemk/campusfound/internal/model"
)

// ItemsHandler handles lost and found item reports.
type ItemsHandler struct {
	Items *items.Service
}

type moderateRequest struct {
	Status string `json:"status"`
}

// ReportLost handles POST /api/lost-items.
func (h *ItemsHandler) ReportLost(w http.ResponseWriter, r *http.Request) {
	var req items.LostInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := h.Items.ReportLost(r.Context(), actor(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("lost item reported", "user", actor(r).Username, "item_id", item.ID)
	jsonResponse(w, http.StatusCreated, item)
}

// ReportFound handles POST /api/found-items.
func (h *ItemsHandler) ReportFound(w http.ResponseWriter, r *http.Request) {
	var req items.FoundInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := h.Items.ReportFound(r.Context(), actor(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("found item reported", "user", actor(r).Username, "item_id", item.ID)
	jsonResponse(w, http.StatusCreated, item)
}

// GetLost handles GET /api/lost-items/{id}.
func (h *ItemsHandler) GetLost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	item, err := h.Items.GetLost(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// GetFound handles GET /api/found-items/{id}.
func (h *ItemsHandler) GetFound(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	item, err := h.Items.GetFound(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// ModerateLost handles PATCH /api/lost-items/{id}/status.
func (h *ItemsHandler) ModerateLost(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, model.SideLost)
}

// ModerateFound handles PATCH /api/found-items/{id}/status.
func (h *ItemsHandler) ModerateFound(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, model.SideFound)
}

func (h *ItemsHandler) moderate(w http.ResponseWriter, r *http.Request, side model.Side) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req moderateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := h.Items.Moderate(r.Context(), actor(r), side, id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("item moderated", "user", actor(r).Username, "side", side, "item_id", id, "status", status)
	jsonResponse(w, http.StatusOK, map[string]any{"id": id, "status": status})
}
