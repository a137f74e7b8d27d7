package principal

import (
	"context"
	"errors"
)

// Roles recognised by the platform. Superadmins live in the main schema and
// operate across tenants; admins own exactly one gym; staff and members exist
// inside a tenant schema.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleMember     = "member"
)

// Principal is the authenticated actor attached to a request.
type Principal struct {
	UserID       int64  `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	GymID        *int64 `json:"gym_id,omitempty"`
	BranchID     *int64 `json:"branch_id,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// HasGym reports whether the principal is bound to a gym.
func (p *Principal) HasGym() bool {
	return p != nil && p.GymID != nil
}

// HasRole reports whether the principal's role is in the allowed set.
// Superadmin always passes.
func (p *Principal) HasRole(allowed ...string) bool {
	if p == nil {
		return false
	}
	if p.IsSuperAdmin {
		return true
	}
	for _, r := range allowed {
		if p.Role == r {
			return true
		}
	}
	return false
}

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const principalKey contextKey = "principal"

// ErrNoPrincipal is returned when no principal is attached to the context
var ErrNoPrincipal = errors.New("no principal in context")

// WithPrincipal attaches the principal to the context.
// Called by the authentication middleware after token validation.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext extracts the principal from the context.
func FromContext(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalKey).(*Principal)
	if !ok || p == nil {
		return nil, ErrNoPrincipal
	}
	return p, nil
}

// MustFromContext extracts the principal and panics if absent.
// Use only behind the Authenticate middleware where absence is a programming error.
func MustFromContext(ctx context.Context) *Principal {
	p, err := FromContext(ctx)
	if err != nil {
		panic("principal not found in context")
	}
	return p
}
