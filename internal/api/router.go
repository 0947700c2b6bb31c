package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/campusfound/internal/claims"
	"github.com/erazemk/campusfound/internal/items"
	"github.com/erazemk/campusfound/internal/matching"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/storage"
)

// Deps are the services the API is built on.
type Deps struct {
	DB        *sql.DB
	JWTSecret string
	TokenTTL  time.Duration
	Items     *items.Service
	Claims    *claims.Service
	Matching  *matching.Engine
	Files     *storage.Store
	// MaxUploadBytes caps a whole multipart claim submission.
	MaxUploadBytes int64
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, TokenTTL: d.TokenTTL}
	usersHandler := &UsersHandler{DB: d.DB}
	referenceHandler := &ReferenceHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{Items: d.Items}
	claimsHandler := &ClaimsHandler{Claims: d.Claims, Files: d.Files, MaxUploadBytes: d.MaxUploadBytes}
	matchesHandler := &MatchesHandler{Engine: d.Matching}
	notificationsHandler := &NotificationsHandler{DB: d.DB}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleSecurity)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }
	staff := func(h http.HandlerFunc) http.Handler { return authMW(requireStaff(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Reference data: read (all roles), write (admin).
	mux.Handle("GET /api/categories", authed(referenceHandler.ListCategories))
	mux.Handle("POST /api/categories", admin(referenceHandler.CreateCategory))
	mux.Handle("GET /api/locations", authed(referenceHandler.ListLocations))
	mux.Handle("POST /api/locations", admin(referenceHandler.CreateLocation))

	// Item reports and moderation.
	mux.Handle("POST /api/lost-items", authed(itemsHandler.ReportLost))
	mux.Handle("GET /api/lost-items/{id}", authed(itemsHandler.GetLost))
	mux.Handle("PATCH /api/lost-items/{id}/status", staff(itemsHandler.ModerateLost))
	mux.Handle("POST /api/found-items", authed(itemsHandler.ReportFound))
	mux.Handle("GET /api/found-items/{id}", authed(itemsHandler.GetFound))
	mux.Handle("PATCH /api/found-items/{id}/status", staff(itemsHandler.ModerateFound))

	// Claims. Ownership checks live in the claim service.
	mux.Handle("POST /api/claims", authed(claimsHandler.Submit))
	mux.Handle("GET /api/claims", authed(claimsHandler.List))
	mux.Handle("GET /api/claims/item/{itemId}", authed(claimsHandler.ListForItem))
	mux.Handle("GET /api/claims/{id}", authed(claimsHandler.Get))
	mux.Handle("GET /api/claims/{id}/images/{imageId}", authed(claimsHandler.GetImage))
	mux.Handle("PATCH /api/claims/{id}/verify", staff(claimsHandler.Verify))
	mux.Handle("PATCH /api/claims/{id}/schedule", staff(claimsHandler.Schedule))
	mux.Handle("PATCH /api/claims/{id}/pickup", staff(claimsHandler.Pickup))
	mux.Handle("PATCH /api/claims/{id}/cancel", authed(claimsHandler.Cancel))

	// Matches.
	mux.Handle("GET /api/matches/lost/{id}", authed(matchesHandler.ForLost))
	mux.Handle("GET /api/matches/found/{id}", authed(matchesHandler.ForFound))
	mux.Handle("GET /api/matches/my-lost-items", authed(matchesHandler.Mine))
	mux.Handle("POST /api/matches/run-auto-match", admin(matchesHandler.RunAutoMatch))
	mux.Handle("POST /api/matches/{id}/accept", authed(matchesHandler.Accept))
	mux.Handle("POST /api/matches/{id}/reject", authed(matchesHandler.Reject))
	mux.Handle("PATCH /api/matches/{id}/status", authed(matchesHandler.SetStatus))

	// Notifications.
	mux.Handle("GET /api/notifications", authed(notificationsHandler.List))
	mux.Handle("PATCH /api/notifications/{id}/read", authed(notificationsHandler.MarkRead))

	return mux
}
