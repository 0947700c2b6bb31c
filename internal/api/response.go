package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/campusfound/internal/apperr"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error          string `json:"error"`
	Code           string `json:"code,omitempty"`
	CurrentStatus  string `json:"current_status,omitempty"`
	RequiredStatus string `json:"required_status,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

// writeError maps a domain error onto its status code and body. Internal
// failures are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal("internal error", err)
	}
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		jsonResponse(w, status, errorBody{Error: "internal error", Code: string(apperr.CodeInternal)})
		return
	}
	jsonResponse(w, status, errorBody{
		Error:          appErr.Message,
		Code:           string(appErr.Code),
		CurrentStatus:  appErr.Current,
		RequiredStatus: appErr.Required,
	})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the named path value as a positive int64.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
