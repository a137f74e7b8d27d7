package member

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/messaging"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Handler exposes roster and branch endpoints.
type Handler struct {
	repo     *Repository
	features *auth.FeatureChecker
	emitter  messaging.Emitter
}

// NewHandler creates the member handler.
func NewHandler(repo *Repository, features *auth.FeatureChecker, emitter messaging.Emitter) *Handler {
	return &Handler{repo: repo, features: features, emitter: emitter}
}

// Routes mounts the gym-scoped roster endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/branches", func(r chi.Router) {
		r.Get("/", h.ListBranches)
		r.Get("/{id}", h.GetBranch)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(principal.RoleAdmin))
			r.Post("/", h.CreateBranch)
			r.Put("/{id}", h.UpdateBranch)
			r.Delete("/{id}", h.DeleteBranch)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleAdmin, principal.RoleStaff))
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/{id}", h.GetUser)
		r.Patch("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})

	r.Route("/body-metrics", func(r chi.Router) {
		r.Use(auth.RequireFeature(h.features, auth.FeatureBodyMetrics))
		r.Get("/", h.ListBodyMetrics)
		r.Post("/", h.CreateBodyMetric)
	})
}

// --- branches ---

// ListBranches handles GET /branches
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	branches, err := h.repo.ListBranches(r.Context(), q)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, branches)
}

// GetBranch handles GET /branches/{id}
func (h *Handler) GetBranch(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	branch, err := h.repo.GetBranch(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, branch)
}

// CreateBranch handles POST /branches
func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req BranchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	branch, err := h.repo.InsertBranch(r.Context(), q, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, branch)
}

// UpdateBranch handles PUT /branches/{id}
func (h *Handler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req BranchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.repo.UpdateBranch(r.Context(), q, id, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	branch, err := h.repo.GetBranch(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, branch)
}

// DeleteBranch handles DELETE /branches/{id}
func (h *Handler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.repo.DeleteBranch(r.Context(), q, id, p.UserID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// --- users ---

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	branchID, err := httputil.QueryInt64(r, "branchId")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	f := ListUsersFilter{
		Role:     r.URL.Query().Get("role"),
		Search:   r.URL.Query().Get("search"),
		BranchID: branchID,
	}
	switch r.URL.Query().Get("isActive") {
	case "true":
		t := true
		f.IsActive = &t
	case "false":
		fv := false
		f.IsActive = &fv
	}

	pg := sqlkit.ParsePagination(r.URL.Query())
	users, total, err := h.repo.ListUsers(r.Context(), q, pg, f, auth.BranchID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, users, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}
	if req.Password != nil && req.Email == nil {
		httputil.Error(w, errors.BadRequest("a login requires an email"))
		return
	}

	var hash *string
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			httputil.Error(w, errors.Internal("failed to hash password"))
			return
		}
		s := string(hashed)
		hash = &s
	}

	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	user, err := h.repo.InsertUser(r.Context(), q, &req, hash)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, user)
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	user, err := h.repo.GetUser(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// UpdateUser handles PATCH /users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.repo.UpdateUser(r.Context(), q, id, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	user, err := h.repo.GetUser(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.repo.DeleteUser(r.Context(), q, id, p.UserID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// --- body metrics ---

// ListBodyMetrics handles GET /body-metrics
func (h *Handler) ListBodyMetrics(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.ActingUserID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	pg := sqlkit.ParsePagination(r.URL.Query())
	metrics, total, err := h.repo.ListBodyMetrics(r.Context(), q, userID, pg)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, metrics, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// CreateBodyMetric handles POST /body-metrics
func (h *Handler) CreateBodyMetric(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	userID, err := auth.ActingUserID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req BodyMetricRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if _, err := h.repo.GetUser(r.Context(), q, userID); err != nil {
		httputil.Error(w, err)
		return
	}

	metric, err := h.repo.InsertBodyMetric(r.Context(), q, userID, &req, p.UserID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.emitter.Emit(r.Context(), *p.GymID, messaging.EventBodyMetricsChanged, metric)
	httputil.Created(w, metric)
}
