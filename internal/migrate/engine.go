// Package migrate applies versioned, idempotent schema migrations to the main
// schema and to every tenant schema. Steps are additive only, gated on
// information_schema checks, and safe to re-run; the applied set is tracked in
// a migration_log table inside each target schema.
package migrate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Step is one versioned migration. Version is a 3-digit ordinal, Name a
// snake_case label; together they identify the step in the log.
type Step struct {
	Version string
	Name    string
	SQL     string
}

// Hash returns the content hash recorded in the migration log.
func (s Step) Hash() string {
	sum := sha256.Sum256([]byte(s.SQL))
	return hex.EncodeToString(sum[:])
}

// Drift describes a step whose recorded hash no longer matches its content.
// Reported, never auto-remediated.
type Drift struct {
	Version      string
	Name         string
	AppliedHash  string
	ExpectedHash string
}

const createLogTable = `
CREATE TABLE IF NOT EXISTS migration_log (
	version      TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	applied_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type appliedRow struct {
	Version     string `db:"version"`
	ContentHash string `db:"content_hash"`
}

// Engine applies migration steps to a single schema at a time. The executor
// must already be pinned to the target schema's search_path (a broker
// connection for tenant schemas, the main pool for public).
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a migration engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log.WithComponent("migrate")}
}

// Apply brings one schema up to date. Each pending step runs inside its own
// savepoint so a failing step is logged and skipped without aborting the
// remainder. Returns detected drift and the first persistent failure, if any.
func (e *Engine) Apply(ctx context.Context, conn *sqlx.Conn, schema string, steps []Step) ([]Drift, error) {
	if _, err := conn.ExecContext(ctx, createLogTable); err != nil {
		return nil, fmt.Errorf("ensure migration_log in %s: %w", schema, err)
	}

	var rows []appliedRow
	if err := conn.SelectContext(ctx, &rows, `SELECT version, content_hash FROM migration_log`); err != nil {
		return nil, fmt.Errorf("read migration_log in %s: %w", schema, err)
	}
	applied := make(map[string]string, len(rows))
	for _, r := range rows {
		applied[r.Version] = r.ContentHash
	}

	var drifts []Drift

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var failed int
	for i, step := range steps {
		if hash, ok := applied[step.Version]; ok {
			if hash != step.Hash() {
				drifts = append(drifts, Drift{
					Version:      step.Version,
					Name:         step.Name,
					AppliedHash:  hash,
					ExpectedHash: step.Hash(),
				})
				e.logger.Warn().
					Str("schema", schema).
					Str("version", step.Version).
					Str("name", step.Name).
					Msg("migration content drift detected")
			}
			continue
		}

		sp := fmt.Sprintf("mig_%d", i)
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
			return drifts, fmt.Errorf("savepoint for step %s: %w", step.Version, err)
		}

		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			// Step-level isolation: roll back just this step and continue.
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
				return drifts, fmt.Errorf("rollback to savepoint after step %s: %w", step.Version, rbErr)
			}
			failed++
			e.logger.Error().Err(err).
				Str("schema", schema).
				Str("version", step.Version).
				Str("name", step.Name).
				Msg("migration step failed")
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO migration_log (version, name, content_hash) VALUES ($1, $2, $3)`,
			step.Version, step.Name, step.Hash(),
		); err != nil {
			return drifts, fmt.Errorf("record step %s: %w", step.Version, err)
		}

		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return drifts, fmt.Errorf("release savepoint for step %s: %w", step.Version, err)
		}

		e.logger.Debug().
			Str("schema", schema).
			Str("version", step.Version).
			Str("name", step.Name).
			Msg("migration step applied")
	}

	if err := tx.Commit(); err != nil {
		return drifts, fmt.Errorf("commit migrations for %s: %w", schema, err)
	}

	if failed > 0 {
		return drifts, fmt.Errorf("%d migration step(s) failed in %s", failed, schema)
	}
	return drifts, nil
}

// AppliedVersions returns the ordered versions recorded in a schema's log.
func (e *Engine) AppliedVersions(ctx context.Context, conn *sqlx.Conn) ([]string, error) {
	var versions []string
	err := conn.SelectContext(ctx, &versions, `SELECT version FROM migration_log ORDER BY version`)
	return versions, err
}
