// Package registry owns the tenant catalogue: it maps gyms to schemas,
// materialises per-gym schemas on demand, keeps them migrated, seeds their
// defaults, and is the scheduler's iteration source.
package registry

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/internal/migrate"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Tenant is a main-schema tenant row
type Tenant struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	OwnerID    *int64    `db:"owner_id" json:"owner_id,omitempty"`
	SchemaName string    `db:"schema_name" json:"schema_name"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}

// Registry manages tenant schemas
type Registry struct {
	pools  *database.Pools
	engine *migrate.Engine
	logger *logger.Logger
}

// New creates a tenant registry
func New(pools *database.Pools, engine *migrate.Engine, log *logger.Logger) *Registry {
	return &Registry{
		pools:  pools,
		engine: engine,
		logger: log.WithComponent("registry"),
	}
}

// SchemaName returns the schema name for a gym without a database round-trip.
func (r *Registry) SchemaName(gymID int64) string {
	return database.SchemaName(gymID)
}

// Exists reports whether the gym's schema exists in the cluster.
func (r *Registry) Exists(ctx context.Context, gymID int64) (bool, error) {
	var exists bool
	err := r.pools.Main.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		r.SchemaName(gymID),
	)
	if err != nil {
		return false, fmt.Errorf("check schema existence: %w", err)
	}
	return exists, nil
}

// Create materialises the gym's schema: CREATE SCHEMA IF NOT EXISTS, bring it
// to the current migration version, then seed defaults. Idempotent — calling
// it for an existing, seeded schema is a no-op beyond the migration check.
func (r *Registry) Create(ctx context.Context, gymID int64) error {
	schema := r.SchemaName(gymID)

	// Schema creation must run on the direct pool: the migration steps that
	// follow rely on session search_path.
	if _, err := r.pools.Tenant.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	return r.pools.WithTenant(ctx, gymID, func(ctx context.Context, conn *sqlx.Conn, schema string) error {
		drifts, err := r.engine.Apply(ctx, conn, schema, migrate.TenantSteps())
		for _, d := range drifts {
			r.logger.Warn().
				Str("schema", schema).
				Str("version", d.Version).
				Str("name", d.Name).
				Msg("tenant migration drift")
		}
		if err != nil {
			return fmt.Errorf("migrate schema %s: %w", schema, err)
		}

		if err := seedDefaults(ctx, conn); err != nil {
			return fmt.Errorf("seed schema %s: %w", schema, err)
		}
		return nil
	})
}

// Drop removes the gym's schema and everything in it.
func (r *Registry) Drop(ctx context.Context, gymID int64) error {
	schema := r.SchemaName(gymID)
	if _, err := r.pools.Tenant.ExecContext(ctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, schema)); err != nil {
		return fmt.Errorf("drop schema %s: %w", schema, err)
	}
	return nil
}

// ListActive returns the ids of tenants whose schema exists and whose
// subscription is active. Scheduler jobs iterate this set.
func (r *Registry) ListActive(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.pools.Main.SelectContext(ctx, &ids, `
		SELECT t.id
		FROM public.tenants t
		JOIN public.tenant_subscriptions s ON s.tenant_id = t.id AND s.status = 'active'
		JOIN information_schema.schemata sch ON sch.schema_name = t.schema_name
		WHERE t.is_active = TRUE
		ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return ids, nil
}

// Reconcile runs at startup: apply main migrations, then for every tenant row
// ensure the schema exists and is at the current version. Per-tenant failures
// are logged and do not abort the sweep.
func (r *Registry) Reconcile(ctx context.Context) error {
	err := r.pools.WithMain(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		drifts, err := r.engine.Apply(ctx, conn, "public", migrate.MainSteps())
		for _, d := range drifts {
			r.logger.Warn().Str("version", d.Version).Str("name", d.Name).Msg("main migration drift")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate main schema: %w", err)
	}

	var tenants []Tenant
	if err := r.pools.Main.SelectContext(ctx, &tenants,
		`SELECT id, name, owner_id, schema_name, is_active FROM public.tenants WHERE is_active = TRUE`,
	); err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	for _, t := range tenants {
		if err := r.Create(ctx, t.ID); err != nil {
			r.logger.Error().Err(err).Int64("gym_id", t.ID).Msg("tenant reconcile failed")
		}
	}

	r.logger.Info().Int("tenant_count", len(tenants)).Msg("tenant reconcile completed")
	return nil
}
