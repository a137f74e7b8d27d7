package engagement

import (
	"encoding/json"
	"time"
)

// Churn alert statuses
const (
	AlertOpen         = "open"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

// Score is one computed engagement snapshot. Only one row per member is
// current at a time.
type Score struct {
	ID                 int64     `db:"id" json:"id"`
	UserID             int64     `db:"user_id" json:"user_id"`
	VisitFrequency     float64   `db:"visit_frequency" json:"visit_frequency"`
	VisitRecency       float64   `db:"visit_recency" json:"visit_recency"`
	AttendanceTrend    float64   `db:"attendance_trend" json:"attendance_trend"`
	PaymentReliability float64   `db:"payment_reliability" json:"payment_reliability"`
	MembershipTenure   float64   `db:"membership_tenure" json:"membership_tenure"`
	EngagementDepth    float64   `db:"engagement_depth" json:"engagement_depth"`
	OverallScore       float64   `db:"overall_score" json:"overall_score"`
	RiskLevel          string    `db:"risk_level" json:"risk_level"`
	IsCurrent          bool      `db:"is_current" json:"is_current"`
	ComputedAt         time.Time `db:"computed_at" json:"computed_at"`

	UserName *string `db:"user_name" json:"user_name,omitempty"`
}

// ChurnAlert records a member whose risk level got worse.
type ChurnAlert struct {
	ID           int64           `db:"id" json:"id"`
	UserID       int64           `db:"user_id" json:"user_id"`
	PreviousRisk string          `db:"previous_risk" json:"previous_risk"`
	NewRisk      string          `db:"new_risk" json:"new_risk"`
	Factors      json.RawMessage `db:"factors" json:"factors,omitempty"`
	Message      *string         `db:"message" json:"message,omitempty"`
	Status       string          `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`

	UserName *string `db:"user_name" json:"user_name,omitempty"`
}

// UpdateAlertRequest moves an alert through its workflow.
type UpdateAlertRequest struct {
	Status string `json:"status" validate:"required,oneof=acknowledged resolved"`
}
