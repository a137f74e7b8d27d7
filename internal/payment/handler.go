package payment

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/notification"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Handler exposes the payment endpoints.
type Handler struct {
	repo          *Repository
	notifications *notification.Service
}

// NewHandler creates the payment handler.
func NewHandler(repo *Repository, notifications *notification.Service) *Handler {
	return &Handler{repo: repo, notifications: notifications}
}

// Routes mounts the gym-scoped payment endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.RequireRole(principal.RoleAdmin, principal.RoleStaff))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/summary", h.Summary)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)
}

func parseDateRange(r *http.Request) (*time.Time, *time.Time) {
	var from, to *time.Time
	if v, err := time.Parse("2006-01-02", r.URL.Query().Get("from")); err == nil {
		from = &v
	}
	if v, err := time.Parse("2006-01-02", r.URL.Query().Get("to")); err == nil {
		end := v.AddDate(0, 0, 1)
		to = &end
	}
	return from, to
}

// List handles GET /payments
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
	membershipID, err := httputil.QueryInt64(r, "membershipId")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	from, to := parseDateRange(r)

	f := ListFilter{
		UserID:       userID,
		MembershipID: membershipID,
		Status:       r.URL.Query().Get("status"),
		Method:       r.URL.Query().Get("method"),
		From:         from,
		To:           to,
	}

	pg := sqlkit.ParsePagination(r.URL.Query())
	payments, total, err := h.repo.List(r.Context(), q, pg, f, auth.BranchID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, payments, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// Create handles POST /payments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
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

	p, err := h.repo.Insert(r.Context(), q, &New{
		UserID:         req.UserID,
		Amount:         req.Amount,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Method:         req.Method,
		Reference:      req.Reference,
		BranchID:       req.BranchID,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, p)
}

// Get handles GET /payments/{id}
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
	p, err := h.repo.Get(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

// UpdateStatus handles PATCH /payments/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	pr := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateStatusRequest
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
	p, err := h.repo.UpdateStatus(r.Context(), q, id, req.Status)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if p.Status == StatusCompleted && p.UserID != nil {
		_, nerr := h.notifications.Notify(r.Context(), q, *pr.GymID, &notification.New{
			UserID:   p.UserID,
			Type:     notification.TypePaymentReceived,
			Title:    "Payment received",
			Message:  "We received your payment. Thank you.",
			Metadata: map[string]interface{}{"payment_id": p.ID, "amount": p.NetAmount},
		})
		h.notifications.LogError(nerr, *pr.GymID, notification.TypePaymentReceived)
	}

	httputil.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /payments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.repo.Delete(r.Context(), q, id, p.UserID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// Summary handles GET /payments/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	from, to := parseDateRange(r)
	s, err := h.repo.Summary(r.Context(), q, ListFilter{From: from, To: to}, auth.BranchID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s)
}
