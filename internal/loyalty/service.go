package loyalty

import (
	"context"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/internal/notification"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Service implements the points programme.
type Service struct {
	repo          *Repository
	notifications *notification.Service
	logger        *logger.Logger
}

// NewService creates the loyalty service.
func NewService(repo *Repository, notifications *notification.Service, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		notifications: notifications,
		logger:        log.WithComponent("loyalty"),
	}
}

// EffectivePoints applies the member's tier multiplier to a base amount,
// rounding half away from zero.
func EffectivePoints(base int, multiplier float64) int {
	return int(math.Round(float64(base) * multiplier))
}

// AwardPoints credits a member: ledger entry with an expiry date, balance
// update and a tier check. The balance mutation and its ledger entry commit
// together, with the account row locked so concurrent awards serialise. A
// disabled programme makes this a no-op.
func (s *Service) AwardPoints(ctx context.Context, conn *sqlx.Conn, gymID, userID int64, base int, source string, reference *int64) (int, error) {
	if base <= 0 {
		return 0, nil
	}

	cfg, err := s.repo.GetConfig(ctx, conn)
	if err != nil {
		return 0, err
	}
	if !cfg.Enabled {
		return 0, nil
	}

	points := 0
	err = database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.EnsureAccount(ctx, tx, userID); err != nil {
			return err
		}
		account, err := s.repo.GetAccountForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		multiplier := 1.0
		if account.TierID != nil {
			tier, err := s.repo.TierFor(ctx, tx, account.TotalEarned)
			if err != nil {
				return err
			}
			if tier != nil {
				multiplier = tier.Multiplier
			}
		}
		points = EffectivePoints(base, multiplier)
		if points == 0 {
			return nil
		}

		balance, err := s.repo.ApplyEarn(ctx, tx, userID, points)
		if err != nil {
			return err
		}

		expiresAt := time.Now().AddDate(0, 0, cfg.PointExpiryDays)
		src := source
		_, err = s.repo.InsertTransaction(ctx, tx, userID, TxEarn, points, balance, &src, reference, &expiresAt)
		return err
	})
	if err != nil || points == 0 {
		return 0, err
	}

	if err := s.checkTier(ctx, conn, gymID, userID); err != nil {
		return points, err
	}
	return points, nil
}

// AwardVisitPoints credits the configured per-visit base amount.
func (s *Service) AwardVisitPoints(ctx context.Context, conn *sqlx.Conn, gymID, userID int64, attendanceID int64) (int, error) {
	cfg, err := s.repo.GetConfig(ctx, conn)
	if err != nil {
		return 0, err
	}
	if !cfg.Enabled {
		return 0, nil
	}
	return s.AwardPoints(ctx, conn, gymID, userID, cfg.PointsPerVisit, SourceVisit, &attendanceID)
}

// Redeem spends points against the balance, optionally priced by a reward.
// The guarded balance debit and its ledger entry commit together.
func (s *Service) Redeem(ctx context.Context, conn *sqlx.Conn, gymID, userID int64, req *RedeemRequest) (*Account, error) {
	points := req.Points
	var reference *int64
	if req.RewardID != nil {
		reward, err := s.repo.GetReward(ctx, conn, *req.RewardID)
		if err != nil {
			return nil, err
		}
		if !reward.IsActive {
			return nil, errors.UnprocessableEntity("reward is not available")
		}
		points = reward.PointsCost
		reference = req.RewardID
	}
	if points <= 0 {
		return nil, errors.BadRequest("nothing to redeem")
	}

	err := database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		balance, err := s.repo.ApplyRedeem(ctx, tx, userID, points)
		if err != nil {
			return err
		}
		src := SourceManual
		if reference != nil {
			src = "reward"
		}
		_, err = s.repo.InsertTransaction(ctx, tx, userID, TxRedeem, points, balance, &src, reference, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("gym_id", gymID).Int64("user_id", userID).
		Int("points", points).Msg("points redeemed")
	return s.repo.GetAccount(ctx, conn, userID)
}

// checkTier moves the account up the ladder when lifetime earnings cross a
// threshold. Tiers never move down.
func (s *Service) checkTier(ctx context.Context, q database.Querier, gymID, userID int64) error {
	account, err := s.repo.GetAccount(ctx, q, userID)
	if err != nil {
		return err
	}
	tier, err := s.repo.TierFor(ctx, q, account.TotalEarned)
	if err != nil {
		return err
	}
	if tier == nil {
		return nil
	}
	if account.TierID != nil && *account.TierID == tier.ID {
		return nil
	}

	if err := s.repo.SetTier(ctx, q, userID, tier.ID); err != nil {
		return err
	}
	nerr := s.notifications.NotifyTierChanged(ctx, q, gymID, userID, tier.Name)
	s.notifications.LogError(nerr, gymID, notification.TypeTierChanged)
	return nil
}

// ExpirePoints writes off every member's lapsed earn entries: one expire
// ledger entry per member, capped at their current balance, and the source
// entries stamped so they are processed once. Each member's write-off is its
// own transaction under an account lock. Scheduler runs this daily.
func (s *Service) ExpirePoints(ctx context.Context, conn *sqlx.Conn, gymID int64) (int, error) {
	rows, err := s.repo.ListExpirable(ctx, conn)
	if err != nil {
		return 0, err
	}

	expiredTotal := 0
	for _, row := range rows {
		err := database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
			account, err := s.repo.GetAccountForUpdate(ctx, tx, row.UserID)
			if err != nil {
				return err
			}
			if account == nil {
				return nil
			}

			// Redeemed points are gone already; only what is still on the
			// balance can lapse.
			points := row.Points
			if points > account.CurrentBalance {
				points = account.CurrentBalance
			}

			if points > 0 {
				balance, err := s.repo.ApplyExpire(ctx, tx, row.UserID, points)
				if err != nil {
					return err
				}
				txID, err := s.repo.InsertTransaction(ctx, tx, row.UserID, TxExpire, points, balance, nil, nil, nil)
				if err != nil {
					return err
				}
				if err := s.repo.MarkExpired(ctx, tx, row.UserID, txID); err != nil {
					return err
				}
				expiredTotal += points
				return nil
			}

			// Nothing on the balance: stamp the entries so the sweep does
			// not revisit them.
			return s.repo.MarkExpired(ctx, tx, row.UserID, 0)
		})
		if err != nil {
			return expiredTotal, err
		}
	}

	if expiredTotal > 0 {
		s.logger.Info().Int64("gym_id", gymID).Int("points", expiredTotal).Msg("loyalty points expired")
	}
	return expiredTotal, nil
}

// RefreshTiers re-evaluates every account against the ladder. Scheduler runs
// this daily so threshold edits take effect without a member earning.
func (s *Service) RefreshTiers(ctx context.Context, q database.Querier, gymID int64) error {
	accounts := []Account{}
	if err := q.SelectContext(ctx, &accounts, `
		SELECT lp.id, lp.user_id, lp.tier_id, lp.total_earned, lp.total_redeemed,
		       lp.total_expired, lp.current_balance, lp.tier_updated_at,
		       lp.created_at, lp.updated_at, NULL AS tier_name
		FROM loyalty_points lp`); err != nil {
		return err
	}
	for i := range accounts {
		if err := s.checkTier(ctx, q, gymID, accounts[i].UserID); err != nil {
			return err
		}
	}
	return nil
}
