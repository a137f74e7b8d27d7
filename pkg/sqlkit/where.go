// Package sqlkit holds the shared query-building primitives every domain
// module reuses: parameterised WHERE assembly, pagination clamping, dynamic
// UPDATE construction and soft-delete predicates. All output is positional
// ($1, $2, ...) and safe to hand straight to the database layer.
package sqlkit

import (
	"fmt"
	"strings"
)

// WhereBuilder assembles a parameterised WHERE fragment and its argument vector.
type WhereBuilder struct {
	conds []string
	args  []interface{}
}

// NewWhere creates an empty WHERE builder.
func NewWhere() *WhereBuilder {
	return &WhereBuilder{}
}

// Add appends a "column op $n" condition.
func (b *WhereBuilder) Add(column, op string, value interface{}) *WhereBuilder {
	b.args = append(b.args, value)
	b.conds = append(b.conds, fmt.Sprintf("%s %s $%d", column, op, len(b.args)))
	return b
}

// AddIf appends the condition only when present is true. Mirrors the optional
// filter ladders in list endpoints.
func (b *WhereBuilder) AddIf(present bool, column, op string, value interface{}) *WhereBuilder {
	if present {
		b.Add(column, op, value)
	}
	return b
}

// Raw appends a condition verbatim, replacing each "?" with the next
// positional placeholder.
func (b *WhereBuilder) Raw(cond string, args ...interface{}) *WhereBuilder {
	for _, a := range args {
		b.args = append(b.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(b.args)), 1)
	}
	b.conds = append(b.conds, cond)
	return b
}

// BranchScope restricts rows to one branch while keeping gym-wide rows
// (branch_id IS NULL) visible. No-op when branchID is nil (caller sees all branches).
func (b *WhereBuilder) BranchScope(column string, branchID *int64) *WhereBuilder {
	if branchID == nil {
		return b
	}
	b.args = append(b.args, *branchID)
	b.conds = append(b.conds, fmt.Sprintf("(%s = $%d OR %s IS NULL)", column, len(b.args), column))
	return b
}

// ExcludeDeleted hides soft-deleted rows. Every ordinary read predicate
// carries this unless the caller explicitly opts in to deleted rows.
func (b *WhereBuilder) ExcludeDeleted(column string) *WhereBuilder {
	b.conds = append(b.conds, column+" = FALSE")
	return b
}

// Search appends a case-insensitive ILIKE over the given columns.
func (b *WhereBuilder) Search(term string, columns ...string) *WhereBuilder {
	if term == "" || len(columns) == 0 {
		return b
	}
	b.args = append(b.args, "%"+term+"%")
	n := len(b.args)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	b.conds = append(b.conds, "("+strings.Join(parts, " OR ")+")")
	return b
}

// Clause returns the full "WHERE ..." fragment, or the empty string when no
// conditions were added.
func (b *WhereBuilder) Clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conds, " AND ")
}

// Args returns the positional argument vector.
func (b *WhereBuilder) Args() []interface{} {
	return b.args
}

// NextPlaceholder returns the next free placeholder index, for callers that
// append their own LIMIT/OFFSET after the WHERE fragment.
func (b *WhereBuilder) NextPlaceholder() int {
	return len(b.args) + 1
}
