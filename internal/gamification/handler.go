package gamification

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymstack/gymstack-backend/internal/auth"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
)

// Handler exposes streak, challenge and achievement endpoints. The whole
// surface sits behind the gamification feature gate.
type Handler struct {
	service  *Service
	repo     *Repository
	features *auth.FeatureChecker
}

// NewHandler creates the gamification handler.
func NewHandler(service *Service, repo *Repository, features *auth.FeatureChecker) *Handler {
	return &Handler{service: service, repo: repo, features: features}
}

// Routes mounts the gym-scoped gamification endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.RequireFeature(h.features, auth.FeatureGamification))

	r.Get("/streak", h.GetStreak)
	r.Get("/achievements", h.ListAchievements)
	r.Get("/achievements/earned", h.ListEarned)

	r.Route("/challenges", func(r chi.Router) {
		r.Get("/", h.ListChallenges)
		r.Get("/{id}", h.GetChallenge)
		r.Get("/{id}/leaderboard", h.Leaderboard)
		r.Post("/{id}/join", h.JoinChallenge)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(principal.RoleAdmin, principal.RoleStaff))
			r.Post("/", h.CreateChallenge)
			r.Post("/{id}/cancel", h.CancelChallenge)
		})
	})
}

// GetStreak handles GET /gamification/streak
func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
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

	streak, err := h.repo.GetStreak(r.Context(), q, userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if streak == nil {
		streak = &Streak{UserID: userID, StreakType: StreakTypeDailyVisit}
	}
	httputil.JSON(w, http.StatusOK, streak)
}

// ListAchievements handles GET /gamification/achievements
func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	achievements, err := h.repo.ListAchievements(r.Context(), q, true)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, achievements)
}

// ListEarned handles GET /gamification/achievements/earned
func (h *Handler) ListEarned(w http.ResponseWriter, r *http.Request) {
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
	earned, err := h.repo.ListEarned(r.Context(), q, userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, earned)
}

// ListChallenges handles GET /gamification/challenges
func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	q, err := reqctx.TenantDB(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	challenges, err := h.repo.ListChallenges(r.Context(), q, r.URL.Query().Get("status"), auth.BranchID(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, challenges)
}

// GetChallenge handles GET /gamification/challenges/{id}
func (h *Handler) GetChallenge(w http.ResponseWriter, r *http.Request) {
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
	challenge, err := h.repo.GetChallenge(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, challenge)
}

// CreateChallenge handles POST /gamification/challenges
func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req ChallengeRequest
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
	challenge, err := h.service.CreateChallenge(r.Context(), q, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, challenge)
}

// CancelChallenge handles POST /gamification/challenges/{id}/cancel
func (h *Handler) CancelChallenge(w http.ResponseWriter, r *http.Request) {
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
	if err := h.repo.CancelChallenge(r.Context(), q, id, p.UserID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

// JoinChallenge handles POST /gamification/challenges/{id}/join
func (h *Handler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.ActingUserID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
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

	challenge, err := h.repo.GetChallenge(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if challenge.Status != ChallengeUpcoming && challenge.Status != ChallengeActive {
		httputil.Error(w, errors.UnprocessableEntity("challenge is not open for joining"))
		return
	}

	participant, err := h.repo.JoinChallenge(r.Context(), q, id, userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, participant)
}

// Leaderboard handles GET /gamification/challenges/{id}/leaderboard
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
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
	participants, err := h.repo.ListParticipants(r.Context(), q, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, participants)
}
