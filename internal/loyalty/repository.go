package loyalty

import (
	"context"
	"database/sql"
	"time"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the tenant loyalty queries.
type Repository struct{}

// NewRepository creates the loyalty repository.
func NewRepository() *Repository {
	return &Repository{}
}

// DefaultConfig is the programme as it runs before anyone touches the
// settings: enabled, 10 points a visit, 50 a referral, 1 per purchase unit,
// points lapsing after a year.
func DefaultConfig() *Config {
	return &Config{
		Enabled:               true,
		PointsPerVisit:        10,
		PointsPerReferral:     50,
		PointsPerPurchaseUnit: 1,
		PointExpiryDays:       365,
	}
}

// GetConfig returns the programme settings row, falling back to the defaults
// when no row exists so a missing row never stops awards.
func (r *Repository) GetConfig(ctx context.Context, q database.Querier) (*Config, error) {
	var c Config
	err := q.GetContext(ctx, &c, `
		SELECT id, enabled, points_per_visit, points_per_referral, points_per_purchase_unit,
		       point_expiry_days, updated_at
		FROM loyalty_config ORDER BY id LIMIT 1`)
	if err == sql.ErrNoRows {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateConfig applies a partial settings update.
func (r *Repository) UpdateConfig(ctx context.Context, q database.Querier, req *ConfigRequest) error {
	upd := sqlkit.NewUpdate().
		SetIf(req.Enabled != nil, "enabled", req.Enabled).
		SetIf(req.PointsPerVisit != nil, "points_per_visit", req.PointsPerVisit).
		SetIf(req.PointsPerReferral != nil, "points_per_referral", req.PointsPerReferral).
		SetIf(req.PointsPerPurchaseUnit != nil, "points_per_purchase_unit", req.PointsPerPurchaseUnit).
		SetIf(req.PointExpiryDays != nil, "point_expiry_days", req.PointExpiryDays)
	if upd.Empty() {
		return nil
	}
	query, args := upd.Build("loyalty_config", "id = (SELECT id FROM loyalty_config ORDER BY id LIMIT 1)")
	_, err := q.ExecContext(ctx, query, args...)
	return database.MapPQError(err)
}

// ListTiers returns the ladder lowest first.
func (r *Repository) ListTiers(ctx context.Context, q database.Querier) ([]Tier, error) {
	tiers := []Tier{}
	err := q.SelectContext(ctx, &tiers, `
		SELECT id, name, min_points, multiplier, perks, created_at
		FROM loyalty_tiers ORDER BY min_points`)
	return tiers, err
}

// TierFor returns the highest tier whose threshold totalEarned meets.
func (r *Repository) TierFor(ctx context.Context, q database.Querier, totalEarned int) (*Tier, error) {
	var t Tier
	err := q.GetContext(ctx, &t, `
		SELECT id, name, min_points, multiplier, perks, created_at
		FROM loyalty_tiers WHERE min_points <= $1
		ORDER BY min_points DESC LIMIT 1`, totalEarned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const accountColumns = `
	lp.id, lp.user_id, lp.tier_id, lp.total_earned, lp.total_redeemed, lp.total_expired,
	lp.current_balance, lp.tier_updated_at, lp.created_at, lp.updated_at,
	t.name AS tier_name`

// GetAccount returns a member's balance sheet, nil when they never earned.
func (r *Repository) GetAccount(ctx context.Context, q database.Querier, userID int64) (*Account, error) {
	var a Account
	err := q.GetContext(ctx, &a, `
		SELECT `+accountColumns+`
		FROM loyalty_points lp
		LEFT JOIN loyalty_tiers t ON t.id = lp.tier_id
		WHERE lp.user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccountForUpdate locks the account row for the calling transaction so a
// tier read and the following balance mutation see a stable account. Nil when
// the member never earned.
func (r *Repository) GetAccountForUpdate(ctx context.Context, q database.Querier, userID int64) (*Account, error) {
	var a Account
	err := q.GetContext(ctx, &a, `
		SELECT id, user_id, tier_id, total_earned, total_redeemed, total_expired,
		       current_balance, tier_updated_at, created_at, updated_at,
		       NULL AS tier_name
		FROM loyalty_points
		WHERE user_id = $1
		FOR UPDATE`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// EnsureAccount creates the zero-balance row on first contact.
func (r *Repository) EnsureAccount(ctx context.Context, q database.Querier, userID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO loyalty_points (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	return database.MapPQError(err)
}

// ApplyEarn adds points to the account and returns the new balance.
func (r *Repository) ApplyEarn(ctx context.Context, q database.Querier, userID int64, points int) (int, error) {
	var balance int
	err := q.GetContext(ctx, &balance, `
		UPDATE loyalty_points
		SET total_earned = total_earned + $1,
		    current_balance = current_balance + $1,
		    updated_at = now()
		WHERE user_id = $2
		RETURNING current_balance`, points, userID)
	if err != nil {
		return 0, database.MapPQError(err)
	}
	return balance, nil
}

// ApplyRedeem spends points; the guard keeps the balance non-negative under
// concurrent redemptions.
func (r *Repository) ApplyRedeem(ctx context.Context, q database.Querier, userID int64, points int) (int, error) {
	var balance int
	err := q.GetContext(ctx, &balance, `
		UPDATE loyalty_points
		SET total_redeemed = total_redeemed + $1,
		    current_balance = current_balance - $1,
		    updated_at = now()
		WHERE user_id = $2 AND current_balance >= $1
		RETURNING current_balance`, points, userID)
	if err == sql.ErrNoRows {
		return 0, errors.UnprocessableEntity("insufficient points balance")
	}
	if err != nil {
		return 0, database.MapPQError(err)
	}
	return balance, nil
}

// ApplyExpire writes off points and returns the new balance.
func (r *Repository) ApplyExpire(ctx context.Context, q database.Querier, userID int64, points int) (int, error) {
	var balance int
	err := q.GetContext(ctx, &balance, `
		UPDATE loyalty_points
		SET total_expired = total_expired + $1,
		    current_balance = current_balance - $1,
		    updated_at = now()
		WHERE user_id = $2 AND current_balance >= $1
		RETURNING current_balance`, points, userID)
	if err == sql.ErrNoRows {
		return 0, errors.Conflict("balance changed during expiry")
	}
	if err != nil {
		return 0, database.MapPQError(err)
	}
	return balance, nil
}

// SetTier moves the account to a new tier.
func (r *Repository) SetTier(ctx context.Context, q database.Querier, userID, tierID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE loyalty_points
		SET tier_id = $1, tier_updated_at = now(), updated_at = now()
		WHERE user_id = $2`, tierID, userID)
	return database.MapPQError(err)
}

// InsertTransaction appends a ledger entry.
func (r *Repository) InsertTransaction(ctx context.Context, q database.Querier, userID int64, txType string, points, balanceAfter int, source *string, reference *int64, expiresAt *time.Time) (int64, error) {
	var id int64
	err := q.GetContext(ctx, &id, `
		INSERT INTO loyalty_transactions (user_id, type, points, balance_after, source, reference, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		userID, txType, points, balanceAfter, source, reference, expiresAt)
	if err != nil {
		return 0, database.MapPQError(err)
	}
	return id, nil
}

// ListTransactions returns a member's ledger newest first.
func (r *Repository) ListTransactions(ctx context.Context, q database.Querier, userID int64, pg sqlkit.Pagination) ([]Transaction, int64, error) {
	var total int64
	if err := q.GetContext(ctx, &total,
		`SELECT count(*) FROM loyalty_transactions WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	txs := []Transaction{}
	err := q.SelectContext(ctx, &txs, `
		SELECT id, user_id, type, points, balance_after, source, reference, expires_at, expired_by, created_at
		FROM loyalty_transactions WHERE user_id = $1
		ORDER BY created_at DESC`+pg.LimitOffset(), userID)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// expirableRow is one user's total of lapsed, unprocessed earn points.
type expirableRow struct {
	UserID int64 `db:"user_id"`
	Points int   `db:"points"`
}

// ListExpirable groups lapsed earn transactions by user.
func (r *Repository) ListExpirable(ctx context.Context, q database.Querier) ([]expirableRow, error) {
	rows := []expirableRow{}
	err := q.SelectContext(ctx, &rows, `
		SELECT user_id, sum(points) AS points
		FROM loyalty_transactions
		WHERE type = 'earn' AND expires_at <= now() AND expired_by IS NULL
		GROUP BY user_id`)
	return rows, err
}

// MarkExpired stamps a user's lapsed earn entries with the expiry
// transaction that wrote them off.
func (r *Repository) MarkExpired(ctx context.Context, q database.Querier, userID, expireTxID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE loyalty_transactions SET expired_by = $1
		WHERE user_id = $2 AND type = 'earn' AND expires_at <= now() AND expired_by IS NULL`,
		expireTxID, userID)
	return database.MapPQError(err)
}

// --- rewards ---

// ListRewards returns the catalogue.
func (r *Repository) ListRewards(ctx context.Context, q database.Querier, activeOnly bool) ([]Reward, error) {
	where := sqlkit.NewWhere()
	if activeOnly {
		where.Add("is_active", "=", true)
	}
	rewards := []Reward{}
	err := q.SelectContext(ctx, &rewards,
		"SELECT id, name, points_cost, is_active, created_at FROM loyalty_rewards "+
			where.Clause()+" ORDER BY points_cost", where.Args()...)
	return rewards, err
}

// GetReward returns one catalogue item.
func (r *Repository) GetReward(ctx context.Context, q database.Querier, id int64) (*Reward, error) {
	var rw Reward
	err := q.GetContext(ctx, &rw,
		`SELECT id, name, points_cost, is_active, created_at FROM loyalty_rewards WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("reward")
	}
	if err != nil {
		return nil, err
	}
	return &rw, nil
}

// InsertReward adds a catalogue item.
func (r *Repository) InsertReward(ctx context.Context, q database.Querier, req *RewardRequest) (*Reward, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	var rw Reward
	err := q.GetContext(ctx, &rw, `
		INSERT INTO loyalty_rewards (name, points_cost, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, name, points_cost, is_active, created_at`,
		req.Name, req.PointsCost, active)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &rw, nil
}
