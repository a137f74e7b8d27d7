package registry_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/internal/migrate"
	"github.com/gymstack/gymstack-backend/internal/registry"
	"github.com/gymstack/gymstack-backend/pkg/config"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/logger"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

var (
	pools *database.Pools
	reg   *registry.Registry
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	pg, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		panic("failed to start postgres container: " + err.Error())
	}
	defer pg.Terminate(ctx)

	log := logger.New("registry-test", "test")
	pools, err = database.Open(&config.DatabaseConfig{
		URL:             pg.DSN,
		DirectURL:       pg.DSN,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		TenantMaxOpen:   5,
		TenantMaxIdle:   2,
		ConnMaxLifetime: time.Minute,
		AcquireTimeout:  5 * time.Second,
	}, log)
	if err != nil {
		panic("failed to open pools: " + err.Error())
	}
	defer pools.Close()

	reg = registry.New(pools, migrate.NewEngine(log), log)
	if err := reg.Reconcile(ctx); err != nil {
		panic("failed to reconcile: " + err.Error())
	}

	os.Exit(m.Run())
}

func insertTenant(t *testing.T, ctx context.Context, name string) int64 {
	t.Helper()
	var id int64
	// schema_name cannot reference the generated id in the same INSERT.
	require.NoError(t, pools.Main.GetContext(ctx, &id, `
		INSERT INTO tenants (name, schema_name)
		VALUES ($1, 'pending_' || md5($1))
		RETURNING id`, name))
	_, err := pools.Main.ExecContext(ctx,
		`UPDATE tenants SET schema_name = 'tenant_' || id WHERE id = $1`, id)
	require.NoError(t, err)
	return id
}

func TestRegistry_CreateExistsDrop(t *testing.T) {
	ctx := context.Background()
	gymID := insertTenant(t, ctx, "Iron Temple")

	require.NoError(t, reg.Create(ctx, gymID))

	exists, err := reg.Exists(ctx, gymID)
	require.NoError(t, err)
	assert.True(t, exists)

	// Re-running Create against a provisioned schema is a no-op.
	require.NoError(t, reg.Create(ctx, gymID))

	// Seeds landed exactly once.
	err = pools.WithTenant(ctx, gymID, func(ctx context.Context, conn *sqlx.Conn, schema string) error {
		var plans int
		if err := conn.GetContext(ctx, &plans, `SELECT count(*) FROM plans`); err != nil {
			return err
		}
		assert.Equal(t, 3, plans)
		var tiers int
		if err := conn.GetContext(ctx, &tiers, `SELECT count(*) FROM loyalty_tiers`); err != nil {
			return err
		}
		assert.Equal(t, 4, tiers)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, reg.Drop(ctx, gymID))
	exists, err = reg.Exists(ctx, gymID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegistry_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	gymA := insertTenant(t, ctx, "Gym A")
	gymB := insertTenant(t, ctx, "Gym B")
	require.NoError(t, reg.Create(ctx, gymA))
	require.NoError(t, reg.Create(ctx, gymB))

	// The same statement lands in different schemas depending on the pinned
	// connection.
	err := pools.WithTenant(ctx, gymA, func(ctx context.Context, conn *sqlx.Conn, schema string) error {
		_, err := conn.ExecContext(ctx, `INSERT INTO branches (name) VALUES ('Downtown')`)
		return err
	})
	require.NoError(t, err)

	err = pools.WithTenant(ctx, gymB, func(ctx context.Context, conn *sqlx.Conn, schema string) error {
		var n int
		if err := conn.GetContext(ctx, &n, `SELECT count(*) FROM branches`); err != nil {
			return err
		}
		assert.Equal(t, 0, n, "gym B must not see gym A's branches")
		return nil
	})
	require.NoError(t, err)

	// search_path is restored after WithTenant: an unqualified query on the
	// released pool resolves to public, where no branches table exists.
	var schemaNow string
	require.NoError(t, pools.Tenant.GetContext(ctx, &schemaNow, `SHOW search_path`))
	assert.NotContains(t, schemaNow, "tenant_")

	require.NoError(t, reg.Drop(ctx, gymA))
	require.NoError(t, reg.Drop(ctx, gymB))
}

func TestRegistry_ListActive(t *testing.T) {
	ctx := context.Background()
	subscribed := insertTenant(t, ctx, "Subscribed Gym")
	unsubscribed := insertTenant(t, ctx, "Trial Expired Gym")
	require.NoError(t, reg.Create(ctx, subscribed))
	require.NoError(t, reg.Create(ctx, unsubscribed))

	var planID int64
	require.NoError(t, pools.Main.GetContext(ctx, &planID,
		`SELECT id FROM subscription_plans ORDER BY id LIMIT 1`))
	_, err := pools.Main.ExecContext(ctx, `
		INSERT INTO tenant_subscriptions (tenant_id, plan_id, status)
		VALUES ($1, $2, 'active')`, subscribed, planID)
	require.NoError(t, err)

	ids, err := reg.ListActive(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, subscribed)
	assert.NotContains(t, ids, unsubscribed)

	require.NoError(t, reg.Drop(ctx, subscribed))
	require.NoError(t, reg.Drop(ctx, unsubscribed))
}
