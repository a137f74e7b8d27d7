package engagement

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Handler exposes the engagement endpoints behind the scoring feature gate.
type Handler struct {
	service  *Service
	repo     *Repository
	features *auth.FeatureChecker
}

// NewHandler creates the engagement handler.
func NewHandler(service *Service, repo *Repository, features *auth.FeatureChecker) *Handler {
	return &Handler{service: service, repo: repo, features: features}
}

// Routes mounts the gym-scoped engagement endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.RequireFeature(h.features, auth.FeatureEngagementScoring))

	r.Get("/score", h.MyScore)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleAdmin, principal.RoleStaff))
		r.Get("/users/{userId}/score", h.UserScore)
		r.Post("/users/{userId}/recompute", h.Recompute)
		r.Get("/at-risk", h.ListAtRisk)
		r.Get("/alerts", h.ListAlerts)
		r.Patch("/alerts/{id}", h.UpdateAlert)
	})
}

// MyScore handles GET /engagement/score
func (h *Handler) MyScore(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.ActingUserID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	h.writeScore(w, r, userID)
}

// UserScore handles GET /engagement/users/{userId}/score
func (h *Handler) UserScore(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.ParamInt64(r, "userId")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	h.writeScore(w, r, userID)
}

func (h *Handler) writeScore(w http.ResponseWriter, r *http.Request, userID int64) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	score, err := h.repo.CurrentScore(r.Context(), q, userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if score == nil {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "scored": false})
		return
	}
	httputil.JSON(w, http.StatusOK, score)
}

// Recompute handles POST /engagement/users/{userId}/recompute
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	userID, err := httputil.ParamInt64(r, "userId")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	conn, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	score, err := h.service.ComputeForUser(r.Context(), conn, *p.GymID, userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, score)
}

// ListAtRisk handles GET /engagement/at-risk
func (h *Handler) ListAtRisk(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	pg := sqlkit.ParsePagination(r.URL.Query())
	scores, total, err := h.repo.ListAtRisk(r.Context(), q, pg)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, scores, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// ListAlerts handles GET /engagement/alerts
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}
	pg := sqlkit.ParsePagination(r.URL.Query())
	alerts, total, err := h.repo.ListAlerts(r.Context(), q, status, pg)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, alerts, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// UpdateAlert handles PATCH /engagement/alerts/{id}
func (h *Handler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req UpdateAlertRequest
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
	if err := h.repo.UpdateAlertStatus(r.Context(), q, id, req.Status); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
