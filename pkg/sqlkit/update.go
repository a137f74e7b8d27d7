package sqlkit

import (
	"fmt"
	"strings"
)

// UpdateBuilder assembles a dynamic UPDATE statement from only the columns a
// caller actually provided, replacing the per-table "if field present" ladders.
type UpdateBuilder struct {
	sets []string
	args []interface{}
}

// NewUpdate creates an empty UPDATE builder.
func NewUpdate() *UpdateBuilder {
	return &UpdateBuilder{}
}

// Set always assigns the column.
func (u *UpdateBuilder) Set(column string, value interface{}) *UpdateBuilder {
	u.args = append(u.args, value)
	u.sets = append(u.sets, fmt.Sprintf("%s = $%d", column, len(u.args)))
	return u
}

// SetIf assigns the column only when present is true.
func (u *UpdateBuilder) SetIf(present bool, column string, value interface{}) *UpdateBuilder {
	if present {
		u.Set(column, value)
	}
	return u
}

// SetRaw assigns the column to a SQL expression with no bound argument
// (e.g. "now()").
func (u *UpdateBuilder) SetRaw(column, expr string) *UpdateBuilder {
	u.sets = append(u.sets, column+" = "+expr)
	return u
}

// Empty reports whether no column was assigned; callers short-circuit to a
// no-op read in that case.
func (u *UpdateBuilder) Empty() bool {
	return len(u.sets) == 0
}

// Build produces the full statement. whereCond uses "?" placeholders which are
// renumbered after the SET arguments; updated_at is always touched.
func (u *UpdateBuilder) Build(table, whereCond string, whereArgs ...interface{}) (string, []interface{}) {
	sets := append([]string{}, u.sets...)
	sets = append(sets, "updated_at = now()")

	args := append([]interface{}{}, u.args...)
	for _, a := range whereArgs {
		args = append(args, a)
		whereCond = strings.Replace(whereCond, "?", fmt.Sprintf("$%d", len(args)), 1)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), whereCond)
	return query, args
}

// SoftDelete produces the statement that logically deletes a row: sets the
// flag, stamps the time and records the acting user.
func SoftDelete(table, whereCond string, deletedBy int64, whereArgs ...interface{}) (string, []interface{}) {
	args := []interface{}{deletedBy}
	for _, a := range whereArgs {
		args = append(args, a)
		whereCond = strings.Replace(whereCond, "?", fmt.Sprintf("$%d", len(args)), 1)
	}
	query := fmt.Sprintf(
		"UPDATE %s SET is_deleted = TRUE, deleted_at = now(), deleted_by = $1 WHERE %s AND is_deleted = FALSE",
		table, whereCond,
	)
	return query, args
}
