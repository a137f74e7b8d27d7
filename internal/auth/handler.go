package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// PublicRoutes mounts the unauthenticated endpoints.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
}

// ProtectedRoutes mounts the endpoints behind Authenticate.
func (h *Handler) ProtectedRoutes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Post("/change-password", h.ChangePassword)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}
	httputil.JSON(w, http.StatusOK, &AuthenticatedUser{
		ID:           p.UserID,
		Email:        p.Email,
		Role:         p.Role,
		IsSuperAdmin: p.IsSuperAdmin,
		GymID:        p.GymID,
		BranchID:     p.BranchID,
	})
}

// ChangePassword handles POST /auth/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := principal.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), p, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
