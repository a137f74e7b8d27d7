package attendance

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Handler exposes the attendance endpoints.
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates the attendance handler.
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// Routes mounts the gym-scoped attendance endpoints. Members see their own
// history; the desk endpoints are staff-only.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/me", h.MyHistory)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleAdmin, principal.RoleStaff))
		r.Get("/", h.List)
		r.Post("/check-in", h.CheckIn)
		r.Post("/{id}/check-out", h.CheckOut)
		r.Get("/guests", h.ListGuests)
		r.Post("/guests", h.CreateGuest)
	})
}

// CheckIn handles POST /attendance/check-in
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())

	var req CheckInRequest
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
	result, err := h.service.CheckIn(r.Context(), conn, *p.GymID, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, result)
}

// CheckOut handles POST /attendance/{id}/check-out
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
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
	record, err := h.service.CheckOut(r.Context(), conn, *p.GymID, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, record)
}

// List handles GET /attendance
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	h.writeList(w, r, filter)
}

// MyHistory handles GET /attendance/me
func (h *Handler) MyHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.ActingUserID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	filter.UserID = &userID
	h.writeList(w, r, filter)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	pg := sqlkit.ParsePagination(r.URL.Query())
	records, total, err := h.repo.List(r.Context(), q, filter, pg)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, records, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

func parseFilter(r *http.Request) (ListFilter, error) {
	var f ListFilter
	var err error
	if f.UserID, err = httputil.QueryInt64(r, "userId"); err != nil {
		return f, err
	}
	if f.BranchID, err = httputil.QueryInt64(r, "branchId"); err != nil {
		return f, err
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, perr := time.Parse("2006-01-02", v)
		if perr != nil {
			return f, errors.BadRequest("from must be YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, perr := time.Parse("2006-01-02", v)
		if perr != nil {
			return f, errors.BadRequest("to must be YYYY-MM-DD")
		}
		// Make the range inclusive of the whole end day.
		t = t.AddDate(0, 0, 1)
		f.To = &t
	}
	return f, nil
}

// ListGuests handles GET /attendance/guests
func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	pg := sqlkit.ParsePagination(r.URL.Query())
	guests, total, err := h.repo.ListGuests(r.Context(), q, pg)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, guests, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// CreateGuest handles POST /attendance/guests
func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req GuestVisitRequest
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
	guest, err := h.repo.InsertGuest(r.Context(), q, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, guest)
}
