package membership

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the tenant membership queries.
type Repository struct{}

// NewRepository creates the membership repository.
func NewRepository() *Repository {
	return &Repository{}
}

// --- plans ---

const planColumns = `id, name, description, duration_days, price, branch_id, is_active, created_at, updated_at`

// ListPlans returns the gym's plans, optionally restricted to one branch.
func (r *Repository) ListPlans(ctx context.Context, q database.Querier, branchScope *int64, activeOnly bool) ([]Plan, error) {
	where := sqlkit.NewWhere().
		ExcludeDeleted("is_deleted").
		BranchScope("branch_id", branchScope)
	if activeOnly {
		where.Add("is_active", "=", true)
	}

	plans := []Plan{}
	err := q.SelectContext(ctx, &plans,
		"SELECT "+planColumns+" FROM plans "+where.Clause()+" ORDER BY duration_days", where.Args()...)
	return plans, err
}

// GetPlan returns one plan.
func (r *Repository) GetPlan(ctx context.Context, q database.Querier, id int64) (*Plan, error) {
	var p Plan
	err := q.GetContext(ctx, &p,
		"SELECT "+planColumns+" FROM plans WHERE id = $1 AND is_deleted = FALSE", id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("plan")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPlan creates a plan.
func (r *Repository) InsertPlan(ctx context.Context, q database.Querier, req *PlanRequest) (*Plan, error) {
	var p Plan
	err := q.GetContext(ctx, &p, `
		INSERT INTO plans (name, description, duration_days, price, branch_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+planColumns,
		req.Name, req.Description, req.DurationDays, req.Price, req.BranchID)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &p, nil
}

// UpdatePlan rewrites a plan. Existing memberships keep their priced terms.
func (r *Repository) UpdatePlan(ctx context.Context, q database.Querier, id int64, req *PlanRequest) error {
	upd := sqlkit.NewUpdate().
		Set("name", req.Name).
		Set("description", req.Description).
		Set("duration_days", req.DurationDays).
		Set("price", req.Price).
		SetIf(req.BranchID != nil, "branch_id", req.BranchID).
		SetIf(req.IsActive != nil, "is_active", req.IsActive)
	query, args := upd.Build("plans", "id = ? AND is_deleted = FALSE", id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("plan")
	}
	return nil
}

// DeletePlan soft-deletes a plan.
func (r *Repository) DeletePlan(ctx context.Context, q database.Querier, id, deletedBy int64) error {
	query, args := sqlkit.SoftDelete("plans", "id = ?", deletedBy, id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("plan")
	}
	return nil
}

// --- offers ---

const offerColumns = `id, name, discount_pct, starts_at, ends_at, is_active, created_at, updated_at`

// ListOffers returns the gym's offers.
func (r *Repository) ListOffers(ctx context.Context, q database.Querier, activeOnly bool) ([]Offer, error) {
	where := sqlkit.NewWhere().ExcludeDeleted("is_deleted")
	if activeOnly {
		where.Add("is_active", "=", true).
			Raw("(starts_at IS NULL OR starts_at <= now())").
			Raw("(ends_at IS NULL OR ends_at >= now())")
	}

	offers := []Offer{}
	err := q.SelectContext(ctx, &offers,
		"SELECT "+offerColumns+" FROM offers "+where.Clause()+" ORDER BY created_at DESC", where.Args()...)
	return offers, err
}

// GetOffer returns one offer with its linked plan ids.
func (r *Repository) GetOffer(ctx context.Context, q database.Querier, id int64) (*Offer, error) {
	var o Offer
	err := q.GetContext(ctx, &o,
		"SELECT "+offerColumns+" FROM offers WHERE id = $1 AND is_deleted = FALSE", id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("offer")
	}
	if err != nil {
		return nil, err
	}
	if err := q.SelectContext(ctx, &o.PlanIDs,
		`SELECT plan_id FROM plan_offers WHERE offer_id = $1 ORDER BY plan_id`, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// InsertOffer creates an offer.
func (r *Repository) InsertOffer(ctx context.Context, q database.Querier, req *OfferRequest) (*Offer, error) {
	var o Offer
	err := q.GetContext(ctx, &o, `
		INSERT INTO offers (name, discount_pct, starts_at, ends_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+offerColumns,
		req.Name, req.DiscountPct, req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &o, nil
}

// UpdateOffer rewrites an offer.
func (r *Repository) UpdateOffer(ctx context.Context, q database.Querier, id int64, req *OfferRequest) error {
	upd := sqlkit.NewUpdate().
		Set("name", req.Name).
		Set("discount_pct", req.DiscountPct).
		Set("starts_at", req.StartsAt).
		Set("ends_at", req.EndsAt).
		SetIf(req.IsActive != nil, "is_active", req.IsActive)
	query, args := upd.Build("offers", "id = ? AND is_deleted = FALSE", id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("offer")
	}
	return nil
}

// DeleteOffer soft-deletes an offer. Memberships sold under it keep their
// priced terms.
func (r *Repository) DeleteOffer(ctx context.Context, q database.Querier, id, deletedBy int64) error {
	query, args := sqlkit.SoftDelete("offers", "id = ?", deletedBy, id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("offer")
	}
	return nil
}

// SetOfferPlans replaces the offer's plan links.
func (r *Repository) SetOfferPlans(ctx context.Context, q database.Querier, offerID int64, planIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM plan_offers WHERE offer_id = $1`, offerID); err != nil {
		return database.MapPQError(err)
	}
	for _, planID := range planIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO plan_offers (plan_id, offer_id) VALUES ($1, $2)`, planID, offerID); err != nil {
			return database.MapPQError(err)
		}
	}
	return nil
}

// ApplicableOffer returns the offer if it is linked to the plan, active and
// inside its validity window at the given instant.
func (r *Repository) ApplicableOffer(ctx context.Context, q database.Querier, offerID, planID int64, at time.Time) (*Offer, error) {
	var o Offer
	err := q.GetContext(ctx, &o, `
		SELECT `+offerColumns+`
		FROM offers o
		JOIN plan_offers po ON po.offer_id = o.id AND po.plan_id = $2
		WHERE o.id = $1 AND o.is_active = TRUE AND o.is_deleted = FALSE
		AND (o.starts_at IS NULL OR o.starts_at <= $3)
		AND (o.ends_at IS NULL OR o.ends_at >= $3)`, offerID, planID, at)
	if err == sql.ErrNoRows {
		return nil, errors.UnprocessableEntity("offer does not apply to this plan")
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// --- memberships ---

const membershipColumns = `
	m.id, m.user_id, m.plan_id, m.branch_id, m.status, m.start_date, m.end_date,
	m.original_amount, m.discount_amount, m.final_amount, m.created_at, m.updated_at,
	p.name AS plan_name, u.name AS user_name`

const membershipFrom = `
	FROM memberships m
	JOIN plans p ON p.id = m.plan_id
	JOIN users u ON u.id = m.user_id`

// Insert creates a membership row. The one-active-per-user unique index turns
// a duplicate active enrolment into a Conflict.
func (r *Repository) Insert(ctx context.Context, q database.Querier, userID, planID int64, branchID *int64, status string, start, end time.Time, original, discount float64) (*Membership, error) {
	var m Membership
	err := q.GetContext(ctx, &m, `
		INSERT INTO memberships (user_id, plan_id, branch_id, status, start_date, end_date,
			original_amount, discount_amount, final_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $7 - $8)
		RETURNING id, user_id, plan_id, branch_id, status, start_date, end_date,
			original_amount, discount_amount, final_amount, created_at, updated_at`,
		userID, planID, branchID, status, start, end, original, discount)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &m, nil
}

// Get returns one membership with plan and member names.
func (r *Repository) Get(ctx context.Context, q database.Querier, id int64) (*Membership, error) {
	var m Membership
	err := q.GetContext(ctx, &m,
		"SELECT "+membershipColumns+membershipFrom+" WHERE m.id = $1 AND m.is_deleted = FALSE", id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("membership")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ActiveForUser returns the member's active membership, nil when none.
func (r *Repository) ActiveForUser(ctx context.Context, q database.Querier, userID int64) (*Membership, error) {
	var m Membership
	err := q.GetContext(ctx, &m,
		"SELECT "+membershipColumns+membershipFrom+
			" WHERE m.user_id = $1 AND m.status = 'active' AND m.is_deleted = FALSE", userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns memberships with filters, branch scoping and pagination.
func (r *Repository) List(ctx context.Context, q database.Querier, pg sqlkit.Pagination, f ListFilter, branchScope *int64) ([]Membership, int64, error) {
	where := sqlkit.NewWhere().
		ExcludeDeleted("m.is_deleted").
		AddIf(f.UserID != nil, "m.user_id", "=", f.UserID).
		AddIf(f.Status != "", "m.status", "=", f.Status).
		BranchScope("m.branch_id", branchScope).
		Search(f.Search, "u.name", "u.email", "p.name")

	var total int64
	if err := q.GetContext(ctx, &total, "SELECT count(*) "+membershipFrom+" "+where.Clause(), where.Args()...); err != nil {
		return nil, 0, err
	}

	memberships := []Membership{}
	query := "SELECT " + membershipColumns + membershipFrom + " " + where.Clause() +
		" ORDER BY m.created_at DESC" + pg.LimitOffset()
	if err := q.SelectContext(ctx, &memberships, query, where.Args()...); err != nil {
		return nil, 0, err
	}
	return memberships, total, nil
}

// UpdateStatus moves a membership to a new status, guarded by the expected
// current status so concurrent transitions surface as conflicts.
func (r *Repository) UpdateStatus(ctx context.Context, q database.Querier, id int64, from, to string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE memberships SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND is_deleted = FALSE`, to, id, from)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Conflict("membership is not in the " + from + " state")
	}
	return nil
}

// ExtendEndDate pushes the end date out, used when resuming a freeze.
func (r *Repository) ExtendEndDate(ctx context.Context, q database.Querier, id int64, days int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE memberships SET end_date = end_date + $1::int, updated_at = now()
		WHERE id = $2 AND is_deleted = FALSE`, days, id)
	return database.MapPQError(err)
}

// --- history ---

// InsertHistory archives one transition with a snapshot of the row.
func (r *Repository) InsertHistory(ctx context.Context, q database.Querier, m *Membership, reason string, cancellationCode, previousStatus, newStatus *string) error {
	snapshot, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO membership_history (membership_id, user_id, archive_reason, cancellation_code,
			previous_status, new_status, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.UserID, reason, cancellationCode, previousStatus, newStatus, snapshot)
	return database.MapPQError(err)
}

// ListHistory returns a membership's archive trail newest first.
func (r *Repository) ListHistory(ctx context.Context, q database.Querier, membershipID int64) ([]HistoryEntry, error) {
	entries := []HistoryEntry{}
	err := q.SelectContext(ctx, &entries, `
		SELECT id, membership_id, user_id, archive_reason, cancellation_code,
		       previous_status, new_status, snapshot, created_at
		FROM membership_history WHERE membership_id = $1 ORDER BY created_at DESC`, membershipID)
	return entries, err
}

// --- freezes ---

// InsertFreeze opens a suspension window.
func (r *Repository) InsertFreeze(ctx context.Context, q database.Querier, membershipID int64, reason *string, createdBy int64) (*Freeze, error) {
	var f Freeze
	err := q.GetContext(ctx, &f, `
		INSERT INTO membership_freezes (membership_id, reason, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, membership_id, frozen_at, resumed_at, reason, created_by, created_at`,
		membershipID, reason, createdBy)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &f, nil
}

// OpenFreeze returns the membership's unresumed freeze, nil when none.
func (r *Repository) OpenFreeze(ctx context.Context, q database.Querier, membershipID int64) (*Freeze, error) {
	var f Freeze
	err := q.GetContext(ctx, &f, `
		SELECT id, membership_id, frozen_at, resumed_at, reason, created_by, created_at
		FROM membership_freezes
		WHERE membership_id = $1 AND resumed_at IS NULL
		ORDER BY frozen_at DESC LIMIT 1`, membershipID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CloseFreeze stamps the resume time.
func (r *Repository) CloseFreeze(ctx context.Context, q database.Querier, freezeID int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE membership_freezes SET resumed_at = now() WHERE id = $1 AND resumed_at IS NULL`, freezeID)
	return database.MapPQError(err)
}

// ListFreezes returns a membership's suspension windows.
func (r *Repository) ListFreezes(ctx context.Context, q database.Querier, membershipID int64) ([]Freeze, error) {
	freezes := []Freeze{}
	err := q.SelectContext(ctx, &freezes, `
		SELECT id, membership_id, frozen_at, resumed_at, reason, created_by, created_at
		FROM membership_freezes WHERE membership_id = $1 ORDER BY frozen_at DESC`, membershipID)
	return freezes, err
}

// --- sweep helpers ---

// ExpireDue flips active memberships whose end date has passed and returns
// the rows it expired.
func (r *Repository) ExpireDue(ctx context.Context, q database.Querier) ([]Membership, error) {
	expired := []Membership{}
	err := q.SelectContext(ctx, &expired, `
		UPDATE memberships SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND end_date < CURRENT_DATE AND is_deleted = FALSE
		RETURNING id, user_id, plan_id, branch_id, status, start_date, end_date,
			original_amount, discount_amount, final_amount, created_at, updated_at`)
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// ExpiringIn returns active memberships that end exactly daysAhead days from
// today, for the reminder sweep.
func (r *Repository) ExpiringIn(ctx context.Context, q database.Querier, daysAhead int) ([]Membership, error) {
	memberships := []Membership{}
	err := q.SelectContext(ctx, &memberships,
		"SELECT "+membershipColumns+membershipFrom+`
		 WHERE m.status = 'active' AND m.is_deleted = FALSE
		 AND m.end_date = CURRENT_DATE + $1::int`, daysAhead)
	return memberships, err
}
