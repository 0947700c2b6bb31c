package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "username, password, and role required")
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, strings.TrimSpace(req.Email), string(hash), role)
	if err != nil {
		if store.IsUniqueViolation(err) {
			jsonError(w, http.StatusConflict, "username already exists")
			return
		}
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user created", "user", claims.Username, "new_user", req.Username, "role", role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, strings.TrimSpace(req.Email), role); err != nil {
		slog.Error("failed to update user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	user, _ = store.GetUser(r.Context(), h.DB, id)
	claims := GetClaims(r.Context())
	slog.Info("user updated", "user", claims.Username, "target_user", user.Username, "new_role", role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil || target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		slog.Error("failed to reset password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user password reset", "user", claims.Username, "target_user", target.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	// Prevent self-deletion.
	claims := GetClaims(r.Context())
	if claims != nil && claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	// Look up target name before deleting.
	target, _ := store.GetUser(r.Context(), h.DB, id)
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user", fmt.Sprintf("%s (id:%d)", target.Username, id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
