package payment

import (
	"context"
	"database/sql"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the tenant payment queries.
type Repository struct{}

// NewRepository creates the payment repository.
func NewRepository() *Repository {
	return &Repository{}
}

const columns = `
	id, user_id, membership_id, salary_id, amount, tax_amount, discount_amount,
	net_amount, method, reference, status, paid_at, branch_id, created_at, updated_at`

// Insert records a payment. net_amount is computed here so the CHECK
// constraint never trips on caller arithmetic.
func (r *Repository) Insert(ctx context.Context, q database.Querier, n *New) (*Payment, error) {
	status := n.Status
	if status == "" {
		status = StatusPending
	}
	net := n.Amount + n.TaxAmount - n.DiscountAmount

	var p Payment
	err := q.GetContext(ctx, &p, `
		INSERT INTO payments (user_id, membership_id, salary_id, amount, tax_amount, discount_amount,
			net_amount, method, reference, status, paid_at, branch_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			CASE WHEN $10 = 'completed' THEN now() END, $11)
		RETURNING `+columns,
		n.UserID, n.MembershipID, n.SalaryID, n.Amount, n.TaxAmount, n.DiscountAmount,
		net, n.Method, n.Reference, status, n.BranchID)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &p, nil
}

// Get returns one payment.
func (r *Repository) Get(ctx context.Context, q database.Querier, id int64) (*Payment, error) {
	var p Payment
	err := q.GetContext(ctx, &p,
		"SELECT "+columns+" FROM payments WHERE id = $1 AND is_deleted = FALSE", id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("payment")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns payments with filters, branch scoping and pagination.
func (r *Repository) List(ctx context.Context, q database.Querier, pg sqlkit.Pagination, f ListFilter, branchScope *int64) ([]Payment, int64, error) {
	where := sqlkit.NewWhere().
		ExcludeDeleted("is_deleted").
		AddIf(f.UserID != nil, "user_id", "=", f.UserID).
		AddIf(f.MembershipID != nil, "membership_id", "=", f.MembershipID).
		AddIf(f.Status != "", "status", "=", f.Status).
		AddIf(f.Method != "", "method", "=", f.Method).
		AddIf(f.From != nil, "created_at", ">=", f.From).
		AddIf(f.To != nil, "created_at", "<", f.To).
		BranchScope("branch_id", branchScope)

	var total int64
	if err := q.GetContext(ctx, &total, "SELECT count(*) FROM payments "+where.Clause(), where.Args()...); err != nil {
		return nil, 0, err
	}

	payments := []Payment{}
	query := "SELECT " + columns + " FROM payments " + where.Clause() + " ORDER BY created_at DESC" + pg.LimitOffset()
	if err := q.SelectContext(ctx, &payments, query, where.Args()...); err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// UpdateStatus moves a payment through the status machine. Invalid moves are
// rejected before touching the row.
func (r *Repository) UpdateStatus(ctx context.Context, q database.Querier, id int64, status string) (*Payment, error) {
	current, err := r.Get(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, status) {
		return nil, errors.UnprocessableEntity(
			"payment cannot move from " + current.Status + " to " + status)
	}

	var p Payment
	err = q.GetContext(ctx, &p, `
		UPDATE payments
		SET status = $1,
		    paid_at = CASE WHEN $1 = 'completed' THEN now() ELSE paid_at END,
		    updated_at = now()
		WHERE id = $2 AND status = $3 AND is_deleted = FALSE
		RETURNING `+columns,
		status, id, current.Status)
	if err == sql.ErrNoRows {
		// Raced with a concurrent transition.
		return nil, errors.Conflict("payment status changed concurrently")
	}
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &p, nil
}

// Delete soft-deletes a payment. Completed payments stay on the books.
func (r *Repository) Delete(ctx context.Context, q database.Querier, id, deletedBy int64) error {
	current, err := r.Get(ctx, q, id)
	if err != nil {
		return err
	}
	if current.Status == StatusCompleted {
		return errors.UnprocessableEntity("completed payments cannot be deleted, refund instead")
	}

	query, args := sqlkit.SoftDelete("payments", "id = ?", deletedBy, id)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// RevenueSummary aggregates completed payments for a period.
type RevenueSummary struct {
	Total    float64 `db:"total" json:"total"`
	Count    int64   `db:"count" json:"count"`
	TaxTotal float64 `db:"tax_total" json:"tax_total"`
}

// Summary returns completed-revenue totals for a period.
func (r *Repository) Summary(ctx context.Context, q database.Querier, f ListFilter, branchScope *int64) (*RevenueSummary, error) {
	where := sqlkit.NewWhere().
		ExcludeDeleted("is_deleted").
		Add("status", "=", StatusCompleted).
		AddIf(f.From != nil, "paid_at", ">=", f.From).
		AddIf(f.To != nil, "paid_at", "<", f.To).
		BranchScope("branch_id", branchScope)

	var s RevenueSummary
	err := q.GetContext(ctx, &s, `
		SELECT COALESCE(sum(net_amount), 0) AS total,
		       count(*) AS count,
		       COALESCE(sum(tax_amount), 0) AS tax_total
		FROM payments `+where.Clause(), where.Args()...)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
