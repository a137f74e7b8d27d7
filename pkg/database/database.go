package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gymstack/gymstack-backend/pkg/config"
	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Querier is the subset of sqlx operations repositories depend on.
// *sqlx.DB, *sqlx.Conn and *sqlx.Tx all satisfy it, so the same repository
// code runs against the pool, a schema-pinned connection, or a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// DB wraps sqlx.DB with additional functionality
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// NewWithDSN creates a new database connection pool from a DSN string
func NewWithDSN(dsn string, log *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{
		DB:     db,
		logger: log,
	}, nil
}

// Pools bundles the two connection pools the process owns.
//
// Main is the pooler-aware pool (DATABASE_URL) used for public-schema work.
// Tenant is the direct pool (DIRECT_URL); tenant work needs session-level
// search_path, which a transaction-pooling proxy would not preserve.
type Pools struct {
	Main   *DB
	Tenant *DB

	acquireTimeout time.Duration
	logger         *logger.Logger
}

// Open opens both pools from the database configuration.
func Open(cfg *config.DatabaseConfig, log *logger.Logger) (*Pools, error) {
	main, err := NewWithDSN(cfg.URL, log)
	if err != nil {
		return nil, fmt.Errorf("main pool: %w", err)
	}
	main.SetMaxOpenConns(cfg.MaxOpenConns)
	main.SetMaxIdleConns(cfg.MaxIdleConns)
	main.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	tenant, err := NewWithDSN(cfg.DirectURL, log)
	if err != nil {
		main.Close()
		return nil, fmt.Errorf("tenant pool: %w", err)
	}
	tenant.SetMaxOpenConns(cfg.TenantMaxOpen)
	tenant.SetMaxIdleConns(cfg.TenantMaxIdle)
	tenant.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Pools{
		Main:           main,
		Tenant:         tenant,
		acquireTimeout: cfg.AcquireTimeout,
		logger:         log,
	}, nil
}

// Close closes both pools
func (p *Pools) Close() error {
	terr := p.Tenant.Close()
	merr := p.Main.Close()
	if terr != nil {
		return terr
	}
	return merr
}

// Health returns the health status of both pools
func (p *Pools) Health(ctx context.Context) map[string]string {
	status := map[string]string{"main": "up", "tenant": "up"}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := p.Main.PingContext(ctx); err != nil {
		status["main"] = "down: " + err.Error()
	}
	if err := p.Tenant.PingContext(ctx); err != nil {
		status["tenant"] = "down: " + err.Error()
	}
	return status
}

// Transaction executes a function within a transaction on this pool
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ConnTransaction executes a function within a transaction on an already
// acquired connection. Used inside WithTenant for multi-row write pipelines.
func ConnTransaction(ctx context.Context, conn *sqlx.Conn, log *logger.Logger, fn func(*sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
