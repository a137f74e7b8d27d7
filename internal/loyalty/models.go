// Package loyalty runs the points programme: earning with tier multipliers,
// redemption, expiry and the tier ladder itself.
package loyalty

import (
	"encoding/json"
	"time"
)

// Transaction types
const (
	TxEarn   = "earn"
	TxRedeem = "redeem"
	TxExpire = "expire"
)

// Earn sources
const (
	SourceVisit    = "visit"
	SourceReferral = "referral"
	SourcePurchase = "purchase"
	SourceManual   = "manual"
)

// Config is the gym's programme settings, a single row per schema.
type Config struct {
	ID                    int64     `db:"id" json:"id"`
	Enabled               bool      `db:"enabled" json:"enabled"`
	PointsPerVisit        int       `db:"points_per_visit" json:"points_per_visit"`
	PointsPerReferral     int       `db:"points_per_referral" json:"points_per_referral"`
	PointsPerPurchaseUnit float64   `db:"points_per_purchase_unit" json:"points_per_purchase_unit"`
	PointExpiryDays       int       `db:"point_expiry_days" json:"point_expiry_days"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// Tier is one rung of the ladder, a step function of lifetime earned points.
type Tier struct {
	ID         int64           `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	MinPoints  int             `db:"min_points" json:"min_points"`
	Multiplier float64         `db:"multiplier" json:"multiplier"`
	Perks      json.RawMessage `db:"perks" json:"perks,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Account is a member's points balance sheet. The balance identity
// current = earned - redeemed - expired is enforced by the schema.
type Account struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	TierID         *int64     `db:"tier_id" json:"tier_id,omitempty"`
	TotalEarned    int        `db:"total_earned" json:"total_earned"`
	TotalRedeemed  int        `db:"total_redeemed" json:"total_redeemed"`
	TotalExpired   int        `db:"total_expired" json:"total_expired"`
	CurrentBalance int        `db:"current_balance" json:"current_balance"`
	TierUpdatedAt  *time.Time `db:"tier_updated_at" json:"tier_updated_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	TierName *string `db:"tier_name" json:"tier_name,omitempty"`
}

// Transaction is one ledger entry.
type Transaction struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	Type         string     `db:"type" json:"type"`
	Points       int        `db:"points" json:"points"`
	BalanceAfter int        `db:"balance_after" json:"balance_after"`
	Source       *string    `db:"source" json:"source,omitempty"`
	Reference    *int64     `db:"reference" json:"reference,omitempty"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	ExpiredBy    *int64     `db:"expired_by" json:"expired_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Reward is a redeemable catalogue item.
type Reward struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	PointsCost int       `db:"points_cost" json:"points_cost"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ConfigRequest updates the programme settings.
type ConfigRequest struct {
	Enabled               *bool    `json:"enabled,omitempty"`
	PointsPerVisit        *int     `json:"points_per_visit,omitempty" validate:"omitempty,gte=0"`
	PointsPerReferral     *int     `json:"points_per_referral,omitempty" validate:"omitempty,gte=0"`
	PointsPerPurchaseUnit *float64 `json:"points_per_purchase_unit,omitempty" validate:"omitempty,gte=0"`
	PointExpiryDays       *int     `json:"point_expiry_days,omitempty" validate:"omitempty,gt=0"`
}

// RedeemRequest spends points, optionally against a catalogue reward.
type RedeemRequest struct {
	Points   int    `json:"points" validate:"required_without=RewardID,omitempty,gt=0"`
	RewardID *int64 `json:"reward_id,omitempty" validate:"omitempty,gt=0"`
}

// RewardRequest creates a catalogue item.
type RewardRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=120"`
	PointsCost int    `json:"points_cost" validate:"required,gt=0"`
	IsActive   *bool  `json:"is_active,omitempty"`
}
