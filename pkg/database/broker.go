package database

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/pkg/errors"
)

// SchemaName returns the schema name for a gym. Pure function, no round-trip.
func SchemaName(gymID int64) string {
	return fmt.Sprintf("tenant_%d", gymID)
}

// WithTenant acquires a connection from the tenant pool, pins its search_path
// to the gym's schema and invokes fn. On every exit path, including panic,
// the search_path is restored and the connection returned to the pool.
//
// WithTenant is not a transaction by itself; callers that need atomicity
// begin one inside fn (see ConnTransaction). The connection must not be used
// from goroutines that outlive fn.
func (p *Pools) WithTenant(ctx context.Context, gymID int64, fn func(ctx context.Context, conn *sqlx.Conn, schema string) error) error {
	schema := SchemaName(gymID)

	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	conn, err := p.Tenant.Connx(acquireCtx)
	cancel()
	if err != nil {
		return errors.Transient("tenant connection pool exhausted").WithDetails(map[string]string{
			"gym_id": fmt.Sprint(gymID),
		})
	}

	defer func() {
		// Restore session state before the pool reuses this connection.
		// A fresh context: the request's may already be cancelled.
		if _, rerr := conn.ExecContext(context.WithoutCancel(ctx), "SET search_path TO public"); rerr != nil {
			p.logger.Error().Err(rerr).Int64("gym_id", gymID).Msg("failed to restore search_path")
			// A connection with unknown session state must not go back to the pool.
			_ = conn.Raw(func(interface{}) error { return driver.ErrBadConn })
		}
		if cerr := conn.Close(); cerr != nil {
			p.logger.Error().Err(cerr).Msg("failed to release tenant connection")
		}
	}()

	// Schema names are derived from integer gym ids, never from raw user input.
	if _, err := conn.ExecContext(ctx, fmt.Sprintf(`SET search_path TO %q, public`, schema)); err != nil {
		return fmt.Errorf("failed to set search_path to %s: %w", schema, err)
	}

	return fn(ctx, conn, schema)
}

// WithMain acquires a connection from the main pool for pre-auth and
// platform-scoped work. Same release guarantees as WithTenant.
func (p *Pools) WithMain(ctx context.Context, fn func(ctx context.Context, conn *sqlx.Conn) error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	conn, err := p.Main.Connx(acquireCtx)
	cancel()
	if err != nil {
		return errors.Transient("main connection pool exhausted")
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil {
			p.logger.Error().Err(cerr).Msg("failed to release main connection")
		}
	}()

	return fn(ctx, conn)
}
