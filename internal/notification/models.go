// Package notification stores and serves in-app notifications inside each
// tenant schema, and fans new entries out to the gym's realtime room.
package notification

import (
	"encoding/json"
	"time"
)

// Notification types emitted by the domain pipelines
const (
	TypeMembershipExpiry  = "membership_expiry"
	TypeMembershipRenewed = "membership_renewed"
	TypePaymentReceived   = "payment_received"
	TypeAchievementEarned = "achievement_earned"
	TypeTierChanged       = "tier_changed"
	TypeChurnRisk         = "churn_risk"
	TypeSalaryGenerated   = "salary_generated"
	TypeChallenge         = "challenge"
	TypeGeneral           = "general"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification is one in-app entry. UserID nil means gym-wide.
type Notification struct {
	ID        int64           `db:"id" json:"id"`
	UserID    *int64          `db:"user_id" json:"user_id,omitempty"`
	Type      string          `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Message   string          `db:"message" json:"message"`
	Priority  string          `db:"priority" json:"priority"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	ReadAt    *time.Time      `db:"read_at" json:"read_at,omitempty"`
	ExpiresAt *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// New is the write-side shape for one notification.
type New struct {
	UserID    *int64
	Type      string
	Title     string
	Message   string
	Priority  string
	Metadata  interface{}
	ExpiresAt *time.Time
}

// ListFilter narrows the notification feed.
type ListFilter struct {
	UnreadOnly bool
	Type       string
	Limit      int
}
