package membership

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/internal/audit"
	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Handler exposes plan and membership endpoints.
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates the membership handler.
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// Routes mounts the gym-scoped endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.ListPlans)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(principal.RoleAdmin))
			r.Post("/", h.CreatePlan)
			r.Put("/{id}", h.UpdatePlan)
			r.Delete("/{id}", h.DeletePlan)
		})
	})

	r.Route("/offers", func(r chi.Router) {
		r.Get("/", h.ListOffers)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(principal.RoleAdmin))
			r.Post("/", h.CreateOffer)
			r.Get("/{id}", h.GetOffer)
			r.Put("/{id}", h.UpdateOffer)
			r.Delete("/{id}", h.DeleteOffer)
		})
	})

	r.Route("/memberships", func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleAdmin, principal.RoleStaff))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/history", h.History)
		r.Get("/{id}/freezes", h.Freezes)
		r.Get("/{id}/activity", h.Activity)
		r.Post("/{id}/renew", h.Renew)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/freeze", h.Freeze)
		r.Post("/{id}/resume", h.Resume)
	})
}

// --- plans ---

// ListPlans handles GET /plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	activeOnly := r.URL.Query().Get("activeOnly") == "true"
	plans, err := h.repo.ListPlans(r.Context(), q, auth.BranchID(r), activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, plans)
}

// CreatePlan handles POST /plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
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
	plan, err := h.repo.InsertPlan(r.Context(), q, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, plan)
}

// UpdatePlan handles PUT /plans/{id}
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req PlanRequest
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
	if err := h.repo.UpdatePlan(r.Context(), q, id, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	plan, err := h.repo.GetPlan(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, plan)
}

// DeletePlan handles DELETE /plans/{id}
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
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
	if err := h.repo.DeletePlan(r.Context(), q, id, p.UserID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// --- offers ---

// ListOffers handles GET /offers
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	activeOnly := r.URL.Query().Get("activeOnly") == "true"
	offers, err := h.repo.ListOffers(r.Context(), q, activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, offers)
}

// GetOffer handles GET /offers/{id}
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
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
	offer, err := h.repo.GetOffer(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, offer)
}

// CreateOffer handles POST /offers
func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req OfferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	offer, err := h.service.CreateOffer(r.Context(), conn, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, offer)
}

// UpdateOffer handles PUT /offers/{id}
func (h *Handler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req OfferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.service.UpdateOffer(r.Context(), conn, id, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	offer, err := h.repo.GetOffer(r.Context(), conn, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, offer)
}

// DeleteOffer handles DELETE /offers/{id}
func (h *Handler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
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
	if err := h.repo.DeleteOffer(r.Context(), q, id, p.UserID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// --- memberships ---

// List handles GET /memberships
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	userID, err := httputil.QueryInt64(r, "userId")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	f := ListFilter{
		UserID: userID,
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}

	pg := sqlkit.ParsePagination(r.URL.Query())
	memberships, total, err := h.repo.List(r.Context(), q, pg, f, auth.BranchID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, memberships, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// Create handles POST /memberships
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())

	var req CreateMembershipRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	m, err := h.service.Create(r.Context(), conn, *p.GymID, p.UserID, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, m)
}

// Get handles GET /memberships/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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
	m, err := h.repo.Get(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, m)
}

// History handles GET /memberships/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
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
	entries, err := h.repo.ListHistory(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entries)
}

// Freezes handles GET /memberships/{id}/freezes
func (h *Handler) Freezes(w http.ResponseWriter, r *http.Request) {
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
	freezes, err := h.repo.ListFreezes(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, freezes)
}

// Activity handles GET /memberships/{id}/activity
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
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
	entries, err := audit.List(r.Context(), q, "membership", id, 0)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entries)
}

// Renew handles POST /memberships/{id}/renew
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req RenewMembershipRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	m, err := h.service.Renew(r.Context(), conn, *p.GymID, p.UserID, id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, m)
}

// Cancel handles POST /memberships/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req CancelMembershipRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	m, err := h.service.Cancel(r.Context(), conn, *p.GymID, p.UserID, id, req.ReasonCode)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, m)
}

// Freeze handles POST /memberships/{id}/freeze
func (h *Handler) Freeze(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req FreezeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	f, err := h.service.Freeze(r.Context(), conn, *p.GymID, p.UserID, id, req.Reason)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, f)
}

// Resume handles POST /memberships/{id}/resume
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	m, err := h.service.Resume(r.Context(), conn, *p.GymID, p.UserID, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, m)
}
