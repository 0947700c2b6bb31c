package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/claims"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/storage"
)

// multipartMemory is how much of a claim submission is held in memory
// before the multipart reader spills to temporary files.
const multipartMemory = 8 << 20

// defaultMaxUploadBytes caps a claim submission when no limit is configured.
const defaultMaxUploadBytes = 64 << 20

// ClaimsHandler handles claim endpoints.
type ClaimsHandler struct {
	Claims         *claims.Service
	Files          *storage.Store
	MaxUploadBytes int64
}

type scheduleRequest struct {
	PickupScheduled *time.Time `json:"pickup_scheduled"`
}

// Submit handles POST /api/claims. The body is multipart with the fields
// found_item_id, description and proof_details plus up to the configured
// number of files under "images".
func (h *ClaimsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge,
				"submission exceeds the "+humanize.IBytes(uint64(limit))+" limit")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	foundItemID, err := strconv.ParseInt(r.FormValue("found_item_id"), 10, 64)
	if err != nil || foundItemID <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid found_item_id")
		return
	}

	var staged []*storage.Staged
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			h.Files.DiscardStaged(staged)
			jsonError(w, http.StatusBadRequest, "invalid image upload")
			return
		}
		s, err := h.Files.Stage(f, fh.Filename)
		f.Close()
		if err != nil {
			h.Files.DiscardStaged(staged)
			writeError(w, r, err)
			return
		}
		staged = append(staged, s)
	}

	claim, err := h.Claims.Submit(r.Context(), actor(r), claims.SubmitInput{
		FoundItemID:  foundItemID,
		Description:  r.FormValue("description"),
		ProofDetails: r.FormValue("proof_details"),
		Images:       staged,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, claim)
}

// List handles GET /api/claims?status=&page=&limit=.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := claims.ListInput{Status: q.Get("status")}
	for name, dst := range map[string]*int{"page": &in.Page, "limit": &in.Limit} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = n
	}

	page, err := h.Claims.List(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if page.Claims == nil {
		page.Claims = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, page)
}

// Get handles GET /api/claims/{id}.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}
	claim, err := h.Claims.Get(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// ListForItem handles GET /api/claims/item/{itemId}.
func (h *ClaimsHandler) ListForItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "itemId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	list, err := h.Claims.ListForItem(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// GetImage handles GET /api/claims/{id}/images/{imageId}.
func (h *ClaimsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}
	imageID, ok := pathID(r, "imageId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	claim, err := h.Claims.Get(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var img *model.ClaimImage
	for i := range claim.Images {
		if claim.Images[i].ID == imageID {
			img = &claim.Images[i]
			break
		}
	}
	if img == nil {
		writeError(w, r, apperr.NotFound("image", imageID))
		return
	}

	f, err := h.Files.Open(img.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("claim image missing on disk", "claim_id", id, "path", img.Path)
			err = apperr.NotFound("image", imageID)
		}
		writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, path.Base(img.Path), img.CreatedAt, f)
}

// Verify handles PATCH /api/claims/{id}/verify.
func (h *ClaimsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}
	var req claims.VerifyInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))

	claim, err := h.Claims.Verify(r.Context(), actor(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("claim verified", "user", actor(r).Username, "claim_id", id, "status", claim.Status)
	jsonResponse(w, http.StatusOK, claim)
}

// Schedule handles PATCH /api/claims/{id}/schedule.
func (h *ClaimsHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PickupScheduled == nil {
		jsonError(w, http.StatusBadRequest, "pickup_scheduled required")
		return
	}

	claim, err := h.Claims.Schedule(r.Context(), actor(r), id, *req.PickupScheduled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("pickup scheduled", "user", actor(r).Username, "claim_id", id, "at", req.PickupScheduled)
	jsonResponse(w, http.StatusOK, claim)
}

// Pickup handles PATCH /api/claims/{id}/pickup.
func (h *ClaimsHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}
	var req claims.PickupInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Claims.RecordPickup(r.Context(), actor(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("pickup recorded", "user", actor(r).Username, "claim_id", id)
	jsonResponse(w, http.StatusOK, claim)
}

// Cancel handles PATCH /api/claims/{id}/cancel.
func (h *ClaimsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}
	claim, err := h.Claims.Cancel(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("claim cancelled", "user", actor(r).Username, "claim_id", id)
	jsonResponse(w, http.StatusOK, claim)
}
