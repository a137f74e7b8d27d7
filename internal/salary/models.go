// Package salary manages staff payroll: per-period salary rows, an audit
// history, idempotent monthly generation for recurring salaries and payout
// through the payments ledger.
package salary

import (
	"encoding/json"
	"time"
)

// Salary statuses
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// History change kinds
const (
	ChangeCreated   = "created"
	ChangeUpdated   = "updated"
	ChangeGenerated = "generated"
	ChangePaid      = "paid"
	ChangeCancelled = "cancelled"
)

// Salary is one staff member's pay for one month. The period is unique per
// staff member among live rows.
type Salary struct {
	ID          int64      `db:"id" json:"id"`
	StaffUserID int64      `db:"staff_user_id" json:"staff_user_id"`
	Month       int        `db:"month" json:"month"`
	Year        int        `db:"year" json:"year"`
	BaseAmount  float64    `db:"base_amount" json:"base_amount"`
	BonusAmount float64    `db:"bonus_amount" json:"bonus_amount"`
	Deductions  float64    `db:"deductions" json:"deductions"`
	NetAmount   float64    `db:"net_amount" json:"net_amount"`
	Status      string     `db:"status" json:"status"`
	IsRecurring bool       `db:"is_recurring" json:"is_recurring"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	PaidBy      *int64     `db:"paid_by" json:"paid_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	StaffName *string `db:"staff_name" json:"staff_name,omitempty"`
}

// HistoryEntry is one audit record for a salary row.
type HistoryEntry struct {
	ID        int64           `db:"id" json:"id"`
	SalaryID  int64           `db:"salary_id" json:"salary_id"`
	Change    string          `db:"change" json:"change"`
	Snapshot  json.RawMessage `db:"snapshot" json:"snapshot,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// CreateSalaryRequest adds a salary row for a period.
type CreateSalaryRequest struct {
	StaffUserID int64   `json:"staff_user_id" validate:"required,gt=0"`
	Month       int     `json:"month" validate:"required,min=1,max=12"`
	Year        int     `json:"year" validate:"required,min=2000,max=2100"`
	BaseAmount  float64 `json:"base_amount" validate:"gte=0"`
	BonusAmount float64 `json:"bonus_amount" validate:"gte=0"`
	Deductions  float64 `json:"deductions" validate:"gte=0"`
	IsRecurring *bool   `json:"is_recurring,omitempty"`
}

// UpdateSalaryRequest edits a pending salary row.
type UpdateSalaryRequest struct {
	BaseAmount  *float64 `json:"base_amount,omitempty" validate:"omitempty,gte=0"`
	BonusAmount *float64 `json:"bonus_amount,omitempty" validate:"omitempty,gte=0"`
	Deductions  *float64 `json:"deductions,omitempty" validate:"omitempty,gte=0"`
	IsRecurring *bool    `json:"is_recurring,omitempty"`
}

// MarkPaidRequest settles a pending salary.
type MarkPaidRequest struct {
	Method string `json:"method,omitempty" validate:"omitempty,oneof=cash card upi bank_transfer other"`
}

// ListFilter narrows the salary list.
type ListFilter struct {
	StaffUserID *int64
	Month       *int
	Year        *int
	Status      *string
}
