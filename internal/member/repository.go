package member

import (
	"context"
	"database/sql"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the tenant-schema roster queries. All statements use
// unqualified table names and resolve through the pinned search_path.
type Repository struct{}

// NewRepository creates the member repository.
func NewRepository() *Repository {
	return &Repository{}
}

// --- branches ---

// ListBranches returns the gym's branches.
func (r *Repository) ListBranches(ctx context.Context, q database.Querier) ([]Branch, error) {
	branches := []Branch{}
	err := q.SelectContext(ctx, &branches, `
		SELECT id, name, address, phone, is_active, created_at, updated_at
		FROM branches WHERE is_deleted = FALSE ORDER BY name`)
	return branches, err
}

// GetBranch returns one branch.
func (r *Repository) GetBranch(ctx context.Context, q database.Querier, id int64) (*Branch, error) {
	var b Branch
	err := q.GetContext(ctx, &b, `
		SELECT id, name, address, phone, is_active, created_at, updated_at
		FROM branches WHERE id = $1 AND is_deleted = FALSE`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("branch")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertBranch creates a branch.
func (r *Repository) InsertBranch(ctx context.Context, q database.Querier, req *BranchRequest) (*Branch, error) {
	var b Branch
	err := q.GetContext(ctx, &b, `
		INSERT INTO branches (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING id, name, address, phone, is_active, created_at, updated_at`,
		req.Name, req.Address, req.Phone)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &b, nil
}

// UpdateBranch rewrites a branch.
func (r *Repository) UpdateBranch(ctx context.Context, q database.Querier, id int64, req *BranchRequest) error {
	upd := sqlkit.NewUpdate().
		Set("name", req.Name).
		Set("address", req.Address).
		Set("phone", req.Phone).
		SetIf(req.IsActive != nil, "is_active", req.IsActive)
	query, args := upd.Build("branches", "id = ? AND is_deleted = FALSE", id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("branch")
	}
	return nil
}

// DeleteBranch soft-deletes a branch.
func (r *Repository) DeleteBranch(ctx context.Context, q database.Querier, id, deletedBy int64) error {
	query, args := sqlkit.SoftDelete("branches", "id = ?", deletedBy, id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("branch")
	}
	return nil
}

// --- users ---

const userColumns = `
	id, name, email, phone, role, branch_id, date_of_birth, gender,
	joined_at, is_active, created_at, updated_at`

// ListUsers returns the roster with filters and pagination. branchScope is
// the caller's branch restriction; rows with no branch stay visible.
func (r *Repository) ListUsers(ctx context.Context, q database.Querier, pg sqlkit.Pagination, f ListUsersFilter, branchScope *int64) ([]User, int64, error) {
	where := sqlkit.NewWhere().
		ExcludeDeleted("is_deleted").
		AddIf(f.Role != "", "role", "=", f.Role).
		AddIf(f.BranchID != nil, "branch_id", "=", f.BranchID).
		AddIf(f.IsActive != nil, "is_active", "=", f.IsActive).
		BranchScope("branch_id", branchScope).
		Search(f.Search, "name", "email", "phone")

	var total int64
	if err := q.GetContext(ctx, &total, "SELECT count(*) FROM users "+where.Clause(), where.Args()...); err != nil {
		return nil, 0, err
	}

	users := []User{}
	query := "SELECT " + userColumns + " FROM users " + where.Clause() + " ORDER BY name" + pg.LimitOffset()
	if err := q.SelectContext(ctx, &users, query, where.Args()...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUser returns one roster entry.
func (r *Repository) GetUser(ctx context.Context, q database.Querier, id int64) (*User, error) {
	var u User
	err := q.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE id = $1 AND is_deleted = FALSE", id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUser creates a roster entry.
func (r *Repository) InsertUser(ctx context.Context, q database.Querier, req *CreateUserRequest, passwordHash *string) (*User, error) {
	var u User
	err := q.GetContext(ctx, &u, `
		INSERT INTO users (name, email, phone, password_hash, role, branch_id, date_of_birth, gender)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		req.Name, req.Email, req.Phone, passwordHash, req.Role, req.BranchID, req.DateOfBirth, req.Gender)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &u, nil
}

// UpdateUser applies a partial roster update.
func (r *Repository) UpdateUser(ctx context.Context, q database.Querier, id int64, req *UpdateUserRequest) error {
	upd := sqlkit.NewUpdate().
		SetIf(req.Name != nil, "name", req.Name).
		SetIf(req.Email != nil, "email", req.Email).
		SetIf(req.Phone != nil, "phone", req.Phone).
		SetIf(req.BranchID != nil, "branch_id", req.BranchID).
		SetIf(req.DateOfBirth != nil, "date_of_birth", req.DateOfBirth).
		SetIf(req.Gender != nil, "gender", req.Gender).
		SetIf(req.IsActive != nil, "is_active", req.IsActive)
	if upd.Empty() {
		return nil
	}
	query, args := upd.Build("users", "id = ? AND is_deleted = FALSE", id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// DeleteUser soft-deletes a roster entry.
func (r *Repository) DeleteUser(ctx context.Context, q database.Querier, id, deletedBy int64) error {
	query, args := sqlkit.SoftDelete("users", "id = ?", deletedBy, id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// --- body metrics ---

// InsertBodyMetric records one measurement.
func (r *Repository) InsertBodyMetric(ctx context.Context, q database.Querier, userID int64, req *BodyMetricRequest, recordedBy int64) (*BodyMetric, error) {
	var m BodyMetric
	err := q.GetContext(ctx, &m, `
		INSERT INTO body_metrics (user_id, weight_kg, height_cm, body_fat_pct, muscle_kg, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, weight_kg, height_cm, body_fat_pct, muscle_kg, recorded_at, recorded_by, created_at`,
		userID, req.WeightKg, req.HeightCm, req.BodyFatPct, req.MuscleKg, recordedBy)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &m, nil
}

// ListBodyMetrics returns a member's measurements newest first.
func (r *Repository) ListBodyMetrics(ctx context.Context, q database.Querier, userID int64, pg sqlkit.Pagination) ([]BodyMetric, int64, error) {
	var total int64
	if err := q.GetContext(ctx, &total,
		"SELECT count(*) FROM body_metrics WHERE user_id = $1", userID); err != nil {
		return nil, 0, err
	}

	metrics := []BodyMetric{}
	err := q.SelectContext(ctx, &metrics, `
		SELECT id, user_id, weight_kg, height_cm, body_fat_pct, muscle_kg, recorded_at, recorded_by, created_at
		FROM body_metrics WHERE user_id = $1 ORDER BY recorded_at DESC`+pg.LimitOffset(), userID)
	if err != nil {
		return nil, 0, err
	}
	return metrics, total, nil
}
