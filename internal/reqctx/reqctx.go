// Package reqctx materialises the per-request database clients: one main-pool
// connection always, plus a tenant-pool connection pinned to the principal's
// gym schema when the principal is gym-scoped. Both are released in LIFO
// order when the request finishes, on every exit path, because acquisition
// nests inside the broker's scoped callbacks.
package reqctx

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
)

// Bundle is the set of database clients bound to one request.
type Bundle struct {
	Main   *sqlx.Conn
	Tenant *sqlx.Conn
	Schema string
	GymID  int64
}

type bundleKey struct{}

func withBundle(ctx context.Context, b *Bundle) context.Context {
	return context.WithValue(ctx, bundleKey{}, b)
}

// Middleware acquires the request's database clients around the handler.
// Routes behind it must not spawn goroutines that use the clients past the
// response.
func Middleware(pools *database.Pools) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := principal.FromContext(r.Context())

			err := pools.WithMain(r.Context(), func(ctx context.Context, main *sqlx.Conn) error {
				if p != nil && p.GymID != nil {
					return pools.WithTenant(ctx, *p.GymID, func(ctx context.Context, tenant *sqlx.Conn, schema string) error {
						b := &Bundle{Main: main, Tenant: tenant, Schema: schema, GymID: *p.GymID}
						next.ServeHTTP(w, r.WithContext(withBundle(ctx, b)))
						return nil
					})
				}

				b := &Bundle{Main: main}
				next.ServeHTTP(w, r.WithContext(withBundle(ctx, b)))
				return nil
			})
			if err != nil {
				// The handler never ran: client acquisition failed.
				httputil.Error(w, err)
			}
		})
	}
}

// DB returns the full client bundle.
func DB(ctx context.Context) (*Bundle, error) {
	b, ok := ctx.Value(bundleKey{}).(*Bundle)
	if !ok {
		return nil, errors.Internal("no database clients bound to request")
	}
	return b, nil
}

// MainDB returns the request's main-schema client.
func MainDB(ctx context.Context) (*sqlx.Conn, error) {
	b, err := DB(ctx)
	if err != nil {
		return nil, err
	}
	return b.Main, nil
}

// TenantDB returns the request's tenant client. Requesting it without gym
// context is a caller error, not a server fault.
func TenantDB(ctx context.Context) (*sqlx.Conn, error) {
	b, err := DB(ctx)
	if err != nil {
		return nil, err
	}
	if b.Tenant == nil {
		return nil, errors.BadRequest("this operation requires gym context")
	}
	return b.Tenant, nil
}

// OptionalTenantDB returns the tenant client or nil when the principal is not
// gym-scoped.
func OptionalTenantDB(ctx context.Context) *sqlx.Conn {
	b, ok := ctx.Value(bundleKey{}).(*Bundle)
	if !ok {
		return nil
	}
	return b.Tenant
}
