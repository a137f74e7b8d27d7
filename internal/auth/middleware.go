// Package auth implements authentication and the capability guard chain every
// tenant operation passes through: bearer-token authentication, role
// predicate, subscription feature check, and gym/branch/user scope binding.
package auth

import (
	"net/http"
	"strconv"
	"strings"

	authjwt "github.com/gymstack/gymstack-backend/internal/auth/jwt"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
)

// DelegationHeader names the header admins use to act on behalf of a member.
const DelegationHeader = "x-user-id"

// Authenticate validates the bearer token and attaches the principal.
func Authenticate(mgr *authjwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := mgr.ValidateAccessToken(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := principal.WithPrincipal(r.Context(), claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only the declared roles through. Superadmin bypasses.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principal.FromContext(r.Context())
			if err != nil {
				httputil.Error(w, errors.Unauthorized("authentication required"))
				return
			}
			if !p.HasRole(roles...) {
				httputil.Error(w, errors.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireFeature gates a handler on subscription feature codes. Superadmin
// bypasses; a gym with no active subscription is forbidden.
func RequireFeature(checker *FeatureChecker, features ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principal.FromContext(r.Context())
			if err != nil {
				httputil.Error(w, errors.Unauthorized("authentication required"))
				return
			}
			if p.IsSuperAdmin {
				next.ServeHTTP(w, r)
				return
			}
			if p.GymID == nil {
				httputil.Error(w, errors.Forbidden("gym context required"))
				return
			}

			ok, err := checker.Has(r.Context(), *p.GymID, features...)
			if err != nil {
				httputil.Error(w, errors.Internal("failed to resolve subscription features"))
				return
			}
			if !ok {
				httputil.Error(w, errors.Forbidden(
					"your subscription plan does not include this feature, please upgrade your plan",
				).WithDetails(map[string]string{"required_features": strings.Join(features, ",")}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGym rejects principals without a gym binding. A superadmin carrying
// no gym context cannot reach gym-scoped operations.
func RequireGym(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := principal.FromContext(r.Context())
		if err != nil {
			httputil.Error(w, errors.Unauthorized("authentication required"))
			return
		}
		if !p.HasGym() {
			httputil.Error(w, errors.Forbidden("gym context required for this operation"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GymID extracts the gym binding from the principal. Guarded routes sit
// behind RequireGym, so absence here is a Forbidden, not a panic.
func GymID(r *http.Request) (int64, error) {
	p, err := principal.FromContext(r.Context())
	if err != nil {
		return 0, errors.Unauthorized("authentication required")
	}
	if p.GymID == nil {
		return 0, errors.Forbidden("gym context required for this operation")
	}
	return *p.GymID, nil
}

// BranchID returns the principal's branch restriction, nil when gym-wide.
func BranchID(r *http.Request) *int64 {
	p, err := principal.FromContext(r.Context())
	if err != nil {
		return nil
	}
	return p.BranchID
}

// ActingUserID resolves the user an operation applies to. By default it is
// the principal; staff and admins may act on behalf of a member via the
// x-user-id header.
func ActingUserID(r *http.Request) (int64, error) {
	p, err := principal.FromContext(r.Context())
	if err != nil {
		return 0, errors.Unauthorized("authentication required")
	}

	if delegated := r.Header.Get(DelegationHeader); delegated != "" {
		if !p.HasRole(principal.RoleAdmin, principal.RoleStaff) {
			return 0, errors.Forbidden("not allowed to act on behalf of another user")
		}
		id, err := strconv.ParseInt(delegated, 10, 64)
		if err != nil || id <= 0 {
			return 0, errors.BadRequest("invalid " + DelegationHeader + " header")
		}
		return id, nil
	}

	return p.UserID, nil
}
