package loyalty

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Handler exposes the loyalty endpoints behind the programme feature gate.
type Handler struct {
	service  *Service
	repo     *Repository
	features *auth.FeatureChecker
}

// NewHandler creates the loyalty handler.
func NewHandler(service *Service, repo *Repository, features *auth.FeatureChecker) *Handler {
	return &Handler{service: service, repo: repo, features: features}
}

// Routes mounts the gym-scoped loyalty endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.RequireFeature(h.features, auth.FeatureLoyaltyProgram))

	r.Get("/account", h.GetAccount)
	r.Get("/transactions", h.ListTransactions)
	r.Get("/tiers", h.ListTiers)
	r.Get("/rewards", h.ListRewards)
	r.Post("/redeem", h.Redeem)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(principal.RoleAdmin))
		r.Get("/config", h.GetConfig)
		r.Patch("/config", h.UpdateConfig)
		r.Post("/rewards", h.CreateReward)
	})
}

// GetAccount handles GET /loyalty/account
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
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

	account, err := h.repo.GetAccount(r.Context(), q, userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if account == nil {
		account = &Account{UserID: userID}
	}
	httputil.JSON(w, http.StatusOK, account)
}

// ListTransactions handles GET /loyalty/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
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
	txs, total, err := h.repo.ListTransactions(r.Context(), q, userID, pg)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, txs, &httputil.Meta{
		Page: pg.Page, PerPage: pg.PerPage, Total: total, TotalPages: pg.TotalPages(total),
	})
}

// ListTiers handles GET /loyalty/tiers
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	tiers, err := h.repo.ListTiers(r.Context(), q)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, tiers)
}

// ListRewards handles GET /loyalty/rewards
func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	rewards, err := h.repo.ListRewards(r.Context(), q, true)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, rewards)
}

// Redeem handles POST /loyalty/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	p := principal.MustFromContext(r.Context())
	userID, err := auth.ActingUserID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req RedeemRequest
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
	account, err := h.service.Redeem(r.Context(), q, *p.GymID, userID, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, account)
}

// GetConfig handles GET /loyalty/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	cfg, err := h.repo.GetConfig(r.Context(), q)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, cfg)
}

// UpdateConfig handles PATCH /loyalty/config
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
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
	if err := h.repo.UpdateConfig(r.Context(), q, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	cfg, err := h.repo.GetConfig(r.Context(), q)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, cfg)
}

// CreateReward handles POST /loyalty/rewards
func (h *Handler) CreateReward(w http.ResponseWriter, r *http.Request) {
	var req RewardRequest
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
	reward, err := h.repo.InsertReward(r.Context(), q, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, reward)
}
