package salary

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Handler exposes the payroll endpoints, admin only.
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates the salary handler.
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// Routes mounts the gym-scoped payroll endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.RequireRole(principal.RoleAdmin))

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/history", h.History)
	r.Post("/{id}/pay", h.MarkPaid)
	r.Post("/{id}/cancel", h.Cancel)
}

// List handles GET /salaries
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var filter ListFilter
	if filter.StaffUserID, err = httputil.QueryInt64(r, "staffUserId"); err != nil {
		httputil.Error(w, err)
		return
	}
	if filter.Month, err = queryInt(r, "month", 1, 12); err != nil {
		httputil.Error(w, err)
		return
	}
	if filter.Year, err = queryInt(r, "year", 2000, 2100); err != nil {
		httputil.Error(w, err)
		return
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}

	pg := sqlkit.ParsePagination(r.URL.Query())
	salaries, total, err := h.repo.List(r.Context(), q, filter, pg)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, salaries, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

func queryInt(r *http.Request, name string, min, max int) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return nil, errors.BadRequest(name + " is out of range")
	}
	return &n, nil
}

// Create handles POST /salaries
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSalaryRequest
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
	out, err := h.service.Create(r.Context(), conn, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, out)
}

// Get handles GET /salaries/{id}
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
	out, err := h.repo.Get(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Update handles PATCH /salaries/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req UpdateSalaryRequest
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
	out, err := h.service.Update(r.Context(), conn, id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Delete handles DELETE /salaries/{id}
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
	if err := h.repo.SoftDelete(r.Context(), q, id, p.UserID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// History handles GET /salaries/{id}/history
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
	if _, err := h.repo.Get(r.Context(), q, id); err != nil {
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

// MarkPaid handles POST /salaries/{id}/pay
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	// The body is optional; an omitted method defaults downstream.
	var req MarkPaidRequest
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if err := httputil.Validate(&req); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	out, err := h.service.MarkPaid(r.Context(), conn, *p.GymID, id, p.UserID, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Cancel handles POST /salaries/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.Cancel(r.Context(), conn, id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
