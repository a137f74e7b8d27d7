package salary

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the tenant payroll queries.
type Repository struct{}

// NewRepository creates the salary repository.
func NewRepository() *Repository {
	return &Repository{}
}

const salaryColumns = `
	s.id, s.staff_user_id, s.month, s.year, s.base_amount, s.bonus_amount,
	s.deductions, s.net_amount, s.status, s.is_recurring, s.paid_at, s.paid_by,
	s.created_at, s.updated_at, u.name AS staff_name`

const salaryFrom = ` FROM staff_salaries s JOIN users u ON u.id = s.staff_user_id`

// Get returns one salary row.
func (r *Repository) Get(ctx context.Context, q database.Querier, id int64) (*Salary, error) {
	var s Salary
	err := q.GetContext(ctx, &s,
		"SELECT "+salaryColumns+salaryFrom+" WHERE s.id = $1 AND s.is_deleted = FALSE", id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("salary")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns salary rows, newest period first.
func (r *Repository) List(ctx context.Context, q database.Querier, f ListFilter, pg sqlkit.Pagination) ([]Salary, int64, error) {
	where := sqlkit.NewWhere().
		Raw("s.is_deleted = FALSE").
		AddIf(f.StaffUserID != nil, "s.staff_user_id", "=", f.StaffUserID).
		AddIf(f.Month != nil, "s.month", "=", f.Month).
		AddIf(f.Year != nil, "s.year", "=", f.Year).
		AddIf(f.Status != nil, "s.status", "=", f.Status)

	var total int64
	if err := q.GetContext(ctx, &total,
		"SELECT count(*)"+salaryFrom+" "+where.Clause(), where.Args()...); err != nil {
		return nil, 0, err
	}

	salaries := []Salary{}
	err := q.SelectContext(ctx, &salaries,
		"SELECT "+salaryColumns+salaryFrom+" "+where.Clause()+
			" ORDER BY s.year DESC, s.month DESC, u.name"+pg.LimitOffset(),
		where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	return salaries, total, nil
}

// Insert adds a salary row. The period key rejects duplicates.
func (r *Repository) Insert(ctx context.Context, q database.Querier, req *CreateSalaryRequest) (*Salary, error) {
	recurring := false
	if req.IsRecurring != nil {
		recurring = *req.IsRecurring
	}
	net := req.BaseAmount + req.BonusAmount - req.Deductions

	var id int64
	err := q.GetContext(ctx, &id, `
		INSERT INTO staff_salaries (staff_user_id, month, year, base_amount, bonus_amount,
			deductions, net_amount, is_recurring)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		req.StaffUserID, req.Month, req.Year, req.BaseAmount, req.BonusAmount,
		req.Deductions, net, recurring)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return r.Get(ctx, q, id)
}

// Update edits a pending row's amounts. SET expressions read the old tuple,
// so the net is recomputed from the bound values with the stored ones as
// fallback, never from the columns being assigned.
func (r *Repository) Update(ctx context.Context, q database.Querier, id int64, req *UpdateSalaryRequest) error {
	if req.BaseAmount == nil && req.BonusAmount == nil && req.Deductions == nil && req.IsRecurring == nil {
		return nil
	}

	res, err := q.ExecContext(ctx, `
		UPDATE staff_salaries
		SET base_amount = COALESCE($1, base_amount),
		    bonus_amount = COALESCE($2, bonus_amount),
		    deductions = COALESCE($3, deductions),
		    net_amount = COALESCE($1, base_amount) + COALESCE($2, bonus_amount) - COALESCE($3, deductions),
		    is_recurring = COALESCE($4, is_recurring),
		    updated_at = now()
		WHERE id = $5 AND status = 'pending' AND is_deleted = FALSE`,
		req.BaseAmount, req.BonusAmount, req.Deductions, req.IsRecurring, id)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Conflict("only pending salaries can be edited")
	}
	return nil
}

// MarkPaid settles a pending salary. Zero rows means it is not pending.
func (r *Repository) MarkPaid(ctx context.Context, q database.Querier, id, paidBy int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE staff_salaries
		SET status = 'paid', paid_at = now(), paid_by = $1, updated_at = now()
		WHERE id = $2 AND status = 'pending' AND is_deleted = FALSE`, paidBy, id)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Conflict("salary is not pending")
	}
	return nil
}

// Cancel voids a pending salary.
func (r *Repository) Cancel(ctx context.Context, q database.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE staff_salaries SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'pending' AND is_deleted = FALSE`, id)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Conflict("salary is not pending")
	}
	return nil
}

// SoftDelete hides a salary row.
func (r *Repository) SoftDelete(ctx context.Context, q database.Querier, id, deletedBy int64) error {
	query, args := sqlkit.SoftDelete("staff_salaries", "id = ?", deletedBy, id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("salary")
	}
	return nil
}

// InsertHistory appends an audit record with the row's current state.
func (r *Repository) InsertHistory(ctx context.Context, q database.Querier, salaryID int64, change string, s *Salary) error {
	snapshot, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO salary_history (salary_id, change, snapshot)
		VALUES ($1, $2, $3)`, salaryID, change, snapshot)
	return database.MapPQError(err)
}

// ListHistory returns a salary row's audit trail, oldest first.
func (r *Repository) ListHistory(ctx context.Context, q database.Querier, salaryID int64) ([]HistoryEntry, error) {
	entries := []HistoryEntry{}
	err := q.SelectContext(ctx, &entries, `
		SELECT id, salary_id, change, snapshot, created_at
		FROM salary_history WHERE salary_id = $1 ORDER BY created_at`, salaryID)
	return entries, err
}

// GenerateRecurring copies each staff member's most recent recurring salary
// into the given period. The partial unique index plus ON CONFLICT makes the
// run idempotent: re-running a period inserts nothing.
func (r *Repository) GenerateRecurring(ctx context.Context, q database.Querier, month, year int) ([]Salary, error) {
	generated := []Salary{}
	err := q.SelectContext(ctx, &generated, `
		WITH latest AS (
			SELECT DISTINCT ON (s.staff_user_id)
				s.staff_user_id, s.base_amount, s.bonus_amount, s.deductions, s.net_amount
			FROM staff_salaries s
			JOIN users u ON u.id = s.staff_user_id
			WHERE s.is_recurring = TRUE AND s.is_deleted = FALSE
			  AND s.status <> 'cancelled'
			  AND u.is_deleted = FALSE AND u.is_active = TRUE
			ORDER BY s.staff_user_id, s.year DESC, s.month DESC
		), inserted AS (
			INSERT INTO staff_salaries (staff_user_id, month, year, base_amount,
				bonus_amount, deductions, net_amount, is_recurring)
			SELECT staff_user_id, $1, $2, base_amount, bonus_amount, deductions, net_amount, TRUE
			FROM latest
			ON CONFLICT (staff_user_id, month, year) WHERE is_deleted = FALSE DO NOTHING
			RETURNING *
		)
		SELECT i.id, i.staff_user_id, i.month, i.year, i.base_amount, i.bonus_amount,
		       i.deductions, i.net_amount, i.status, i.is_recurring, i.paid_at, i.paid_by,
		       i.created_at, i.updated_at, u.name AS staff_name
		FROM inserted i JOIN users u ON u.id = i.staff_user_id`,
		month, year)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return generated, nil
}
