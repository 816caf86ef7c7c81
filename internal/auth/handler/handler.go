// Package handler exposes registration, login and the admin user directory.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"barangaylink/internal/auth/models"
	authService "barangaylink/internal/auth/service"
	"barangaylink/internal/auth/store"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/httputil"
)

// Service is the slice of the auth service the handler needs.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*authService.Session, error)
	Login(ctx context.Context, email, password string) (*authService.Session, error)
	Me(ctx context.Context) (*models.User, error)
	ListUsers(ctx context.Context, search string, page, perPage int) (store.UserPage, error)
	SetUserStatus(ctx context.Context, userID id.UserID, active bool) (*models.User, error)
}

// Middleware bundles the chain pieces the handler mounts.
type Middleware struct {
	RequireAuth  func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
}

// Handler handles auth endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an auth Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the auth and user directory routes.
func (h *Handler) Register(r chi.Router, mw Middleware) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.With(mw.RequireAuth).Get("/me", h.handleMe)
	})
	r.Route("/users", func(r chi.Router) {
		r.Use(mw.RequireAuth, mw.RequireAdmin)
		r.Get("/", h.handleListUsers)
		r.Patch("/{id}/status", h.handleSetUserStatus)
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	session, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "account created", session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "login", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "logged in", session)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "me", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.ListUsers(r.Context(),
		q.Get("search"), intQuery(q.Get("page")), intQuery(q.Get("per_page")))
	if err != nil {
		h.writeServiceError(w, r, "list users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", page)
}

type setStatusRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "active flag is required"))
		return
	}
	user, err := h.service.SetUserStatus(r.Context(), userID, *req.Active)
	if err != nil {
		h.writeServiceError(w, r, "set user status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "user status updated", user)
}

func intQuery(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	httputil.WriteError(w, err)
}
