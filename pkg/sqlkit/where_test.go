package sqlkit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

func TestWhereBuilder_Empty(t *testing.T) {
	w := sqlkit.NewWhere()
	assert.Equal(t, "", w.Clause())
	assert.Empty(t, w.Args())
	assert.Equal(t, 1, w.NextPlaceholder())
}

func TestWhereBuilder_AddNumbersPlaceholders(t *testing.T) {
	w := sqlkit.NewWhere().
		Add("status", "=", "active").
		Add("branch_id", "=", int64(3))

	assert.Equal(t, "WHERE status = $1 AND branch_id = $2", w.Clause())
	assert.Equal(t, []interface{}{"active", int64(3)}, w.Args())
	assert.Equal(t, 3, w.NextPlaceholder())
}

func TestWhereBuilder_AddIfSkipsAbsent(t *testing.T) {
	var role *string
	w := sqlkit.NewWhere().
		AddIf(role != nil, "role", "=", role).
		Add("is_active", "=", true)

	assert.Equal(t, "WHERE is_active = $1", w.Clause())
	assert.Len(t, w.Args(), 1)
}

func TestWhereBuilder_RawRenumbers(t *testing.T) {
	w := sqlkit.NewWhere().
		Add("user_id", "=", int64(7)).
		Raw("(expires_at IS NULL OR expires_at > ?)", "2026-01-01")

	assert.Equal(t, "WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > $2)", w.Clause())
	assert.Equal(t, []interface{}{int64(7), "2026-01-01"}, w.Args())
}

func TestWhereBuilder_BranchScope(t *testing.T) {
	t.Run("nil sees all branches", func(t *testing.T) {
		w := sqlkit.NewWhere().BranchScope("branch_id", nil)
		assert.Equal(t, "", w.Clause())
	})

	t.Run("scoped keeps gym-wide rows", func(t *testing.T) {
		id := int64(4)
		w := sqlkit.NewWhere().BranchScope("branch_id", &id)
		assert.Equal(t, "WHERE (branch_id = $1 OR branch_id IS NULL)", w.Clause())
		assert.Equal(t, []interface{}{int64(4)}, w.Args())
	})
}

func TestWhereBuilder_SearchSharesOneArg(t *testing.T) {
	w := sqlkit.NewWhere().Search("ana", "name", "email", "phone")

	assert.Equal(t, "WHERE (name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1)", w.Clause())
	assert.Equal(t, []interface{}{"%ana%"}, w.Args())
}

func TestWhereBuilder_SearchEmptyTermIsNoop(t *testing.T) {
	w := sqlkit.NewWhere().Search("", "name")
	assert.Equal(t, "", w.Clause())
}

func TestUpdateBuilder(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.True(t, sqlkit.NewUpdate().Empty())
	})

	t.Run("renumbers where placeholders after sets", func(t *testing.T) {
		name := "Downtown"
		upd := sqlkit.NewUpdate().
			Set("name", name).
			SetIf(false, "phone", nil).
			SetRaw("net_amount", "base_amount + bonus_amount - deductions")

		query, args := upd.Build("branches", "id = ? AND is_deleted = FALSE", int64(9))
		assert.Equal(t,
			"UPDATE branches SET name = $1, net_amount = base_amount + bonus_amount - deductions, updated_at = now() WHERE id = $2 AND is_deleted = FALSE",
			query)
		assert.Equal(t, []interface{}{"Downtown", int64(9)}, args)
	})
}

func TestSoftDelete(t *testing.T) {
	query, args := sqlkit.SoftDelete("users", "id = ?", 42, int64(7))
	assert.Equal(t,
		"UPDATE users SET is_deleted = TRUE, deleted_at = now(), deleted_by = $1 WHERE id = $2 AND is_deleted = FALSE",
		query)
	assert.Equal(t, []interface{}{int64(42), int64(7)}, args)
}
