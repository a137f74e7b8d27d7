// Package payment records money movements inside a tenant schema and
// enforces the payment status machine.
package payment

import "time"

// Payment statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

// transitions is the allowed status graph. Completed is terminal except for
// refunds; failed, cancelled and refunded are terminal.
var transitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {StatusRefunded},
}

// CanTransition reports whether a payment may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Payment is one money movement: a membership sale, a product sale or a
// salary payout.
type Payment struct {
	ID             int64      `db:"id" json:"id"`
	UserID         *int64     `db:"user_id" json:"user_id,omitempty"`
	MembershipID   *int64     `db:"membership_id" json:"membership_id,omitempty"`
	SalaryID       *int64     `db:"salary_id" json:"salary_id,omitempty"`
	Amount         float64    `db:"amount" json:"amount"`
	TaxAmount      float64    `db:"tax_amount" json:"tax_amount"`
	DiscountAmount float64    `db:"discount_amount" json:"discount_amount"`
	NetAmount      float64    `db:"net_amount" json:"net_amount"`
	Method         string     `db:"method" json:"method"`
	Reference      *string    `db:"reference" json:"reference,omitempty"`
	Status         string     `db:"status" json:"status"`
	PaidAt         *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	BranchID       *int64     `db:"branch_id" json:"branch_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// New is the write-side shape for one payment.
type New struct {
	UserID         *int64
	MembershipID   *int64
	SalaryID       *int64
	Amount         float64
	TaxAmount      float64
	DiscountAmount float64
	Method         string
	Reference      *string
	Status         string
	BranchID       *int64
}

// CreatePaymentRequest records a standalone payment.
type CreatePaymentRequest struct {
	UserID         *int64  `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	TaxAmount      float64 `json:"tax_amount" validate:"gte=0"`
	DiscountAmount float64 `json:"discount_amount" validate:"gte=0"`
	Method         string  `json:"method" validate:"required,oneof=cash card upi bank_transfer other"`
	Reference      *string `json:"reference,omitempty"`
	BranchID       *int64  `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateStatusRequest moves a payment through the status machine.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed failed cancelled refunded"`
}

// ListFilter narrows the payment list.
type ListFilter struct {
	UserID       *int64
	MembershipID *int64
	Status       string
	Method       string
	From         *time.Time
	To           *time.Time
}
