// Package scheduler drives the recurring maintenance jobs across every
// tenant: membership expiry, loyalty point expiry and tier refresh, the
// challenge calendar, engagement scoring and monthly payroll generation.
//
// Each job takes a Postgres advisory lock before running, so a multi-replica
// deployment elects exactly one worker per tick without extra coordination.
package scheduler

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"github.com/gymstack/gymstack-backend/internal/engagement"
	"github.com/gymstack/gymstack-backend/internal/gamification"
	"github.com/gymstack/gymstack-backend/internal/loyalty"
	"github.com/gymstack/gymstack-backend/internal/membership"
	"github.com/gymstack/gymstack-backend/internal/registry"
	"github.com/gymstack/gymstack-backend/internal/salary"
	"github.com/gymstack/gymstack-backend/pkg/config"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Advisory lock keys, one per job. Arbitrary but stable.
const (
	lockMembershipSweep = 7201
	lockDailyUpkeep     = 7202
	lockSalaryRun       = 7203
)

// Cron expressions for the recurring jobs.
const (
	scheduleMembershipSweep = "@hourly"
	scheduleDailyUpkeep     = "30 2 * * *"
	scheduleSalaryRun       = "0 0 1 * *"
)

// Jobs are the tenant services the scheduler drives.
type Jobs struct {
	Memberships  *membership.Service
	Loyalty      *loyalty.Service
	Gamification *gamification.Service
	Engagement   *engagement.Service
	Salaries     *salary.Service
}

// Scheduler owns the cron runner and the per-tenant fan-out.
type Scheduler struct {
	cron     *cron.Cron
	pools    *database.Pools
	registry *registry.Registry
	jobs     Jobs
	cfg      config.SchedulerConfig
	logger   *logger.Logger
}

// New creates the scheduler. Call Start to register and run the jobs.
func New(pools *database.Pools, reg *registry.Registry, jobs Jobs, cfg config.SchedulerConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		pools:    pools,
		registry: reg,
		jobs:     jobs,
		cfg:      cfg,
		logger:   log.WithComponent("scheduler"),
	}
}

// Start registers the jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("scheduler disabled")
		return nil
	}

	register := func(spec, name string, lockKey int64, job func(ctx context.Context)) error {
		_, err := s.cron.AddFunc(spec, func() {
			s.runLeader(name, lockKey, job)
		})
		return err
	}

	if err := register(scheduleMembershipSweep, "membership_sweep", lockMembershipSweep, s.membershipSweep); err != nil {
		return err
	}
	if err := register(scheduleDailyUpkeep, "daily_upkeep", lockDailyUpkeep, s.dailyUpkeep); err != nil {
		return err
	}
	if err := register(scheduleSalaryRun, "salary_run", lockSalaryRun, s.salaryRun); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("scheduler stopped")
}

// runLeader executes the job under a session advisory lock on the main pool.
// Losing the race means another replica is running this tick; skip quietly.
func (s *Scheduler) runLeader(name string, lockKey int64, job func(ctx context.Context)) {
	ctx := context.Background()

	err := s.pools.WithMain(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		var acquired bool
		if err := conn.GetContext(ctx, &acquired,
			`SELECT pg_try_advisory_lock($1)`, lockKey); err != nil {
			return err
		}
		if !acquired {
			s.logger.Debug().Str("job", name).Msg("another replica holds the job lock")
			return nil
		}
		defer func() {
			if _, err := conn.ExecContext(context.WithoutCancel(ctx),
				`SELECT pg_advisory_unlock($1)`, lockKey); err != nil {
				s.logger.Warn().Err(err).Str("job", name).Msg("advisory unlock failed")
			}
		}()

		started := time.Now()
		s.logger.Info().Str("job", name).Msg("job started")
		job(ctx)
		s.logger.Info().Str("job", name).Dur("took", time.Since(started)).Msg("job finished")
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Msg("job run failed")
	}
}

// forEachTenant runs fn against every active gym schema. One tenant's failure
// or timeout never stops the others; each gets its own soft deadline.
func (s *Scheduler) forEachTenant(ctx context.Context, job string, fn func(ctx context.Context, conn *sqlx.Conn, gymID int64) error) {
	gymIDs, err := s.registry.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("job", job).Msg("listing active gyms failed")
		return
	}

	for _, gymID := range gymIDs {
		tenantCtx, cancel := context.WithTimeout(ctx, s.cfg.TenantSoftTimeout)
		err := s.pools.WithTenant(tenantCtx, gymID, func(ctx context.Context, conn *sqlx.Conn, _ string) error {
			return fn(ctx, conn, gymID)
		})
		cancel()
		if err != nil {
			s.logger.Error().Err(err).Str("job", job).Int64("gym_id", gymID).Msg("tenant job failed")
		}
	}
}

// membershipSweep expires overdue memberships and sends the tiered expiry
// notices.
func (s *Scheduler) membershipSweep(ctx context.Context) {
	s.forEachTenant(ctx, "membership_sweep", func(ctx context.Context, conn *sqlx.Conn, gymID int64) error {
		expired, err := s.jobs.Memberships.ExpireDue(ctx, conn, gymID)
		if err != nil {
			return err
		}
		if expired > 0 {
			s.logger.Info().Int64("gym_id", gymID).Int("expired", expired).Msg("memberships expired")
		}

		for _, days := range s.cfg.ExpiryNoticeDays {
			if _, err := s.jobs.Memberships.SendExpiryNotices(ctx, conn, gymID, days); err != nil {
				return err
			}
		}
		return nil
	})
}

// dailyUpkeep runs the slow-moving per-tenant maintenance: loyalty expiry and
// tier refresh, the challenge calendar and engagement rescoring.
func (s *Scheduler) dailyUpkeep(ctx context.Context) {
	s.forEachTenant(ctx, "daily_upkeep", func(ctx context.Context, conn *sqlx.Conn, gymID int64) error {
		if _, err := s.jobs.Loyalty.ExpirePoints(ctx, conn, gymID); err != nil {
			return err
		}
		if err := s.jobs.Loyalty.RefreshTiers(ctx, conn, gymID); err != nil {
			return err
		}
		if err := s.jobs.Gamification.RollCalendar(ctx, conn, gymID); err != nil {
			return err
		}
		_, err := s.jobs.Engagement.RecomputeAll(ctx, conn, gymID)
		return err
	})
}

// salaryRun generates the month's recurring salaries on the first.
func (s *Scheduler) salaryRun(ctx context.Context) {
	period := time.Now()
	s.forEachTenant(ctx, "salary_run", func(ctx context.Context, conn *sqlx.Conn, gymID int64) error {
		_, err := s.jobs.Salaries.GenerateMonth(ctx, conn, gymID, period)
		return err
	})
}
