package platform

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Handler exposes the platform endpoints.
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates the platform handler.
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// PublicRoutes mounts the unauthenticated endpoints: the contact form and the
// subscription plan catalogue prospects browse before signing up.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/contact", h.CreateContactRequest)
	r.Get("/subscription-plans", h.ListPlans)
}

// Routes mounts the authenticated platform endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/gyms", func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleSuperAdmin))
		r.Get("/", h.ListGyms)
		r.Post("/", h.RegisterGym)
		r.Get("/{id}", h.GetGym)
		r.Patch("/{id}", h.UpdateGym)
		r.Delete("/{id}", h.DeleteGym)
		r.Get("/{id}/subscription", h.GetSubscription)
		r.Put("/{id}/subscription", h.ChangeSubscription)
	})

	r.Route("/plans", func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleSuperAdmin))
		r.Post("/", h.CreatePlan)
		r.Put("/{id}", h.UpdatePlan)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleAdmin))
		r.Get("/", h.ListTickets)
		r.Post("/", h.OpenTicket)
		r.Get("/{id}", h.GetTicket)
		r.Post("/{id}/messages", h.AddTicketMessage)
		r.Patch("/{id}/status", h.UpdateTicketStatus)
	})

	r.Route("/contact-requests", func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleSuperAdmin))
		r.Get("/", h.ListContactRequests)
		r.Patch("/{id}/status", h.UpdateContactStatus)
	})
}

// --- gyms ---

// ListGyms handles GET /platform/gyms
func (h *Handler) ListGyms(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	pg := sqlkit.ParsePagination(r.URL.Query())
	var isActive *bool
	switch r.URL.Query().Get("isActive") {
	case "true":
		t := true
		isActive = &t
	case "false":
		f := false
		isActive = &f
	}

	gyms, total, err := h.repo.ListGyms(r.Context(), q, pg, r.URL.Query().Get("search"), isActive)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, gyms, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// RegisterGym handles POST /platform/gyms
func (h *Handler) RegisterGym(w http.ResponseWriter, r *http.Request) {
	var req RegisterGymRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	gym, err := h.service.RegisterGym(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, gym)
}

// GetGym handles GET /platform/gyms/{id}
func (h *Handler) GetGym(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	gym, err := h.repo.GetGym(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, gym)
}

// UpdateGym handles PATCH /platform/gyms/{id}
func (h *Handler) UpdateGym(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateGymRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.repo.UpdateGym(r.Context(), q, id, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	gym, err := h.repo.GetGym(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, gym)
}

// DeleteGym handles DELETE /platform/gyms/{id}
func (h *Handler) DeleteGym(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.service.DeleteGym(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// --- subscriptions ---

// GetSubscription handles GET /platform/gyms/{id}/subscription
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	sub, err := h.repo.ActiveSubscription(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if sub == nil {
		httputil.Error(w, errors.NotFound("active subscription"))
		return
	}
	httputil.JSON(w, http.StatusOK, sub)
}

// ChangeSubscription handles PUT /platform/gyms/{id}/subscription
func (h *Handler) ChangeSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req AssignSubscriptionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sub, err := h.service.ChangeSubscription(r.Context(), id, req.PlanID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, sub)
}

// --- plans ---

// ListPlans handles GET /subscription-plans (public: the pricing page reads it).
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	plans, err := h.repo.ListPlans(r.Context(), q)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, plans)
}

// CreatePlan handles POST /platform/plans
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

	q, err := reqctx.MainDB(r.Context())
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

// UpdatePlan handles PUT /platform/plans/{id}
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

	q, err := reqctx.MainDB(r.Context())
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

// --- support tickets ---

// ListTickets handles GET /platform/tickets
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	// Gym admins only see their own tenant's tickets.
	tenantID := p.GymID
	if p.IsSuperAdmin {
		tenantID, err = httputil.QueryInt64(r, "gymId")
		if err != nil {
			httputil.Error(w, err)
			return
		}
	}

	pg := sqlkit.ParsePagination(r.URL.Query())
	tickets, total, err := h.repo.ListTickets(r.Context(), q, pg, tenantID, r.URL.Query().Get("status"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, tickets, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// OpenTicket handles POST /platform/tickets
func (h *Handler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())

	var req CreateTicketRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	ticket, err := h.service.OpenTicket(r.Context(), p, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, ticket)
}

// GetTicket handles GET /platform/tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	ticket, err := h.service.TicketForPrincipal(r.Context(), q, p, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	messages, err := h.repo.ListTicketMessages(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"ticket":   ticket,
		"messages": messages,
	})
}

// AddTicketMessage handles POST /platform/tickets/{id}/messages
func (h *Handler) AddTicketMessage(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req TicketMessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if _, err := h.service.TicketForPrincipal(r.Context(), q, p, id); err != nil {
		httputil.Error(w, err)
		return
	}

	msg, err := h.repo.InsertTicketMessage(r.Context(), q, id, p.UserID, req.Body)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, msg)
}

// UpdateTicketStatus handles PATCH /platform/tickets/{id}/status
func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateTicketStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if _, err := h.service.TicketForPrincipal(r.Context(), q, p, id); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.repo.UpdateTicketStatus(r.Context(), q, id, req.Status); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// --- contact requests ---

// CreateContactRequest handles POST /contact (public).
func (h *Handler) CreateContactRequest(w http.ResponseWriter, r *http.Request) {
	var req ContactRequestInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	c, err := h.repo.InsertContactRequest(r.Context(), q, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, c)
}

// ListContactRequests handles GET /platform/contact-requests
func (h *Handler) ListContactRequests(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	pg := sqlkit.ParsePagination(r.URL.Query())
	reqs, total, err := h.repo.ListContactRequests(r.Context(), q, pg, r.URL.Query().Get("status"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, reqs, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// UpdateContactStatus handles PATCH /platform/contact-requests/{id}/status
func (h *Handler) UpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateContactStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	q, err := reqctx.MainDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := h.repo.UpdateContactStatus(r.Context(), q, id, req.Status); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
