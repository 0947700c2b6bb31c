package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/store"
)

// ReferenceHandler serves categories and locations.
type ReferenceHandler struct {
	DB *sql.DB
}

type nameRequest struct {
	Name string `json:"name"`
}

// ListCategories handles GET /api/categories.
func (h *ReferenceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// CreateCategory handles POST /api/categories.
func (h *ReferenceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	name, ok := readName(w, r)
	if !ok {
		return
	}
	category, err := store.CreateCategory(r.Context(), h.DB, name)
	if err != nil {
		if store.IsUniqueViolation(err) {
			jsonError(w, http.StatusConflict, "category already exists")
			return
		}
		slog.Error("failed to create category", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	slog.Info("category created", "user", GetClaims(r.Context()).Username, "category", name)
	jsonResponse(w, http.StatusCreated, category)
}

// ListLocations handles GET /api/locations.
func (h *ReferenceHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := store.ListLocations(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list locations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// CreateLocation handles POST /api/locations.
func (h *ReferenceHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	name, ok := readName(w, r)
	if !ok {
		return
	}
	location, err := store.CreateLocation(r.Context(), h.DB, name)
	if err != nil {
		if store.IsUniqueViolation(err) {
			jsonError(w, http.StatusConflict, "location already exists")
			return
		}
		slog.Error("failed to create location", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create location")
		return
	}
	slog.Info("location created", "user", GetClaims(r.Context()).Username, "location", name)
	jsonResponse(w, http.StatusCreated, location)
}

func readName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return "", false
	}
	return name, true
}
