// Package membership owns gym plans and the membership lifecycle: purchase,
// renewal, freezing, cancellation and expiry, with an archive trail for every
// transition.
package membership

import (
	"encoding/json"
	"time"
)

// Membership statuses
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
	StatusSuspended = "suspended"
)

// Archive reasons written to membership_history
const (
	ReasonCreated   = "created"
	ReasonRenewed   = "renewed"
	ReasonCancelled = "cancelled"
	ReasonFrozen    = "frozen"
	ReasonResumed   = "resumed"
	ReasonExpired   = "expired"
)

// Plan is a sellable membership duration inside one gym.
type Plan struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	DurationDays int       `db:"duration_days" json:"duration_days"`
	Price        float64   `db:"price" json:"price"`
	BranchID     *int64    `db:"branch_id" json:"branch_id,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Offer is a time-boxed percentage discount attachable to plans.
type Offer struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	DiscountPct float64    `db:"discount_pct" json:"discount_pct"`
	StartsAt    *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	PlanIDs []int64 `db:"-" json:"plan_ids,omitempty"`
}

// Membership is one member's plan enrolment.
type Membership struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	PlanID         int64     `db:"plan_id" json:"plan_id"`
	BranchID       *int64    `db:"branch_id" json:"branch_id,omitempty"`
	Status         string    `db:"status" json:"status"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	OriginalAmount float64   `db:"original_amount" json:"original_amount"`
	DiscountAmount float64   `db:"discount_amount" json:"discount_amount"`
	FinalAmount    float64   `db:"final_amount" json:"final_amount"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	PlanName *string `db:"plan_name" json:"plan_name,omitempty"`
	UserName *string `db:"user_name" json:"user_name,omitempty"`
}

// HistoryEntry is one archived transition.
type HistoryEntry struct {
	ID               int64           `db:"id" json:"id"`
	MembershipID     int64           `db:"membership_id" json:"membership_id"`
	UserID           int64           `db:"user_id" json:"user_id"`
	ArchiveReason    string          `db:"archive_reason" json:"archive_reason"`
	CancellationCode *string         `db:"cancellation_code" json:"cancellation_code,omitempty"`
	PreviousStatus   *string         `db:"previous_status" json:"previous_status,omitempty"`
	NewStatus        *string         `db:"new_status" json:"new_status,omitempty"`
	Snapshot         json.RawMessage `db:"snapshot" json:"snapshot,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// Freeze is one suspension window.
type Freeze struct {
	ID           int64      `db:"id" json:"id"`
	MembershipID int64      `db:"membership_id" json:"membership_id"`
	FrozenAt     time.Time  `db:"frozen_at" json:"frozen_at"`
	ResumedAt    *time.Time `db:"resumed_at" json:"resumed_at,omitempty"`
	Reason       *string    `db:"reason" json:"reason,omitempty"`
	CreatedBy    *int64     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// PlanRequest creates or updates a gym plan.
type PlanRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=120"`
	Description  *string `json:"description,omitempty"`
	DurationDays int     `json:"duration_days" validate:"required,gt=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	BranchID     *int64  `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// OfferRequest creates or updates an offer and its plan links.
type OfferRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=120"`
	DiscountPct float64    `json:"discount_pct" validate:"gte=0,lte=100"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	PlanIDs     []int64    `json:"plan_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

// CreateMembershipRequest enrols a member in a plan with the payment that
// funds it. A manual discount and an offer are mutually exclusive.
type CreateMembershipRequest struct {
	UserID         int64      `json:"user_id" validate:"required,gt=0"`
	PlanID         int64      `json:"plan_id" validate:"required,gt=0"`
	BranchID       *int64     `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	OfferID        *int64     `json:"offer_id,omitempty" validate:"omitempty,gt=0"`
	DiscountAmount float64    `json:"discount_amount" validate:"gte=0"`
	PaymentMethod  string     `json:"payment_method" validate:"required,oneof=cash card upi bank_transfer other"`
	Reference      *string    `json:"reference,omitempty"`
}

// RenewMembershipRequest opens the next period for an existing membership.
type RenewMembershipRequest struct {
	PlanID         int64   `json:"plan_id" validate:"required,gt=0"`
	BranchID       *int64  `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	DiscountAmount float64 `json:"discount_amount" validate:"gte=0"`
	PaymentMethod  string  `json:"payment_method" validate:"required,oneof=cash card upi bank_transfer other"`
	Reference      *string `json:"reference,omitempty"`
}

// CancelMembershipRequest ends a membership early.
type CancelMembershipRequest struct {
	ReasonCode string `json:"reason_code" validate:"required"`
}

// FreezeRequest suspends a membership.
type FreezeRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ListFilter narrows the membership list.
type ListFilter struct {
	UserID *int64
	Status string
	Search string
}
