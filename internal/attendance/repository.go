package attendance

import (
	"context"
	"database/sql"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the tenant attendance queries.
type Repository struct{}

// NewRepository creates the attendance repository.
func NewRepository() *Repository {
	return &Repository{}
}

const recordColumns = `
	a.id, a.user_id, a.branch_id, a.checked_in, a.checked_out, a.source,
	a.created_at, a.updated_at, u.name AS user_name,
	CASE WHEN a.checked_out IS NOT NULL
		THEN (EXTRACT(EPOCH FROM a.checked_out - a.checked_in) / 60)::int
	END AS duration_minutes`

// OpenVisit returns the member's visit without a check-out, nil when none.
func (r *Repository) OpenVisit(ctx context.Context, q database.Querier, userID int64) (*Record, error) {
	var rec Record
	err := q.GetContext(ctx, &rec, `
		SELECT `+recordColumns+`
		FROM attendance a JOIN users u ON u.id = a.user_id
		WHERE a.user_id = $1 AND a.checked_out IS NULL AND a.is_deleted = FALSE
		ORDER BY a.checked_in DESC LIMIT 1`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert opens a visit.
func (r *Repository) Insert(ctx context.Context, q database.Querier, userID int64, branchID *int64, source string) (*Record, error) {
	var id int64
	err := q.GetContext(ctx, &id, `
		INSERT INTO attendance (user_id, branch_id, source)
		VALUES ($1, $2, $3) RETURNING id`, userID, branchID, source)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return r.Get(ctx, q, id)
}

// Get returns one visit.
func (r *Repository) Get(ctx context.Context, q database.Querier, id int64) (*Record, error) {
	var rec Record
	err := q.GetContext(ctx, &rec, `
		SELECT `+recordColumns+`
		FROM attendance a JOIN users u ON u.id = a.user_id
		WHERE a.id = $1 AND a.is_deleted = FALSE`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("attendance record")
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CheckOut closes an open visit. Zero rows means it is already closed.
func (r *Repository) CheckOut(ctx context.Context, q database.Querier, id int64) (*Record, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE attendance SET checked_out = now(), updated_at = now()
		WHERE id = $1 AND checked_out IS NULL AND is_deleted = FALSE`, id)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errors.Conflict("visit is already checked out")
	}
	return r.Get(ctx, q, id)
}

// List returns visits newest first.
func (r *Repository) List(ctx context.Context, q database.Querier, f ListFilter, pg sqlkit.Pagination) ([]Record, int64, error) {
	where := sqlkit.NewWhere().
		Raw("a.is_deleted = FALSE").
		AddIf(f.UserID != nil, "a.user_id", "=", f.UserID).
		AddIf(f.BranchID != nil, "a.branch_id", "=", f.BranchID).
		AddIf(f.From != nil, "a.checked_in", ">=", f.From).
		AddIf(f.To != nil, "a.checked_in", "<", f.To)

	from := " FROM attendance a JOIN users u ON u.id = a.user_id " + where.Clause()

	var total int64
	if err := q.GetContext(ctx, &total, "SELECT count(*)"+from, where.Args()...); err != nil {
		return nil, 0, err
	}

	records := []Record{}
	err := q.SelectContext(ctx, &records,
		"SELECT "+recordColumns+from+" ORDER BY a.checked_in DESC"+pg.LimitOffset(),
		where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// InsertGuest logs a walk-in.
func (r *Repository) InsertGuest(ctx context.Context, q database.Querier, req *GuestVisitRequest) (*GuestVisit, error) {
	var g GuestVisit
	err := q.GetContext(ctx, &g, `
		INSERT INTO guest_visits (name, phone, branch_id, referred_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, phone, branch_id, visited_at, referred_by, created_at`,
		req.Name, req.Phone, req.BranchID, req.ReferredBy)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &g, nil
}

// ListGuests returns walk-ins newest first.
func (r *Repository) ListGuests(ctx context.Context, q database.Querier, pg sqlkit.Pagination) ([]GuestVisit, int64, error) {
	var total int64
	if err := q.GetContext(ctx, &total, `SELECT count(*) FROM guest_visits`); err != nil {
		return nil, 0, err
	}
	guests := []GuestVisit{}
	err := q.SelectContext(ctx, &guests, `
		SELECT id, name, phone, branch_id, visited_at, referred_by, created_at
		FROM guest_visits ORDER BY visited_at DESC`+pg.LimitOffset())
	if err != nil {
		return nil, 0, err
	}
	return guests, total, nil
}
