// Package attendance records check-ins and check-outs and feeds each first
// visit of the day into the streak, challenge and loyalty pipelines.
package attendance

import "time"

// Check-in sources
const (
	SourceManual   = "manual"
	SourceQR       = "qr"
	SourceWearable = "wearable"
)

// Record is one gym visit.
type Record struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	BranchID   *int64     `db:"branch_id" json:"branch_id,omitempty"`
	CheckedIn  time.Time  `db:"checked_in" json:"checked_in"`
	CheckedOut *time.Time `db:"checked_out" json:"checked_out,omitempty"`
	Source     string     `db:"source" json:"source"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`

	UserName        *string `db:"user_name" json:"user_name,omitempty"`
	DurationMinutes *int    `db:"duration_minutes" json:"duration_minutes,omitempty"`
}

// GuestVisit is a walk-in who is not a member.
type GuestVisit struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	BranchID   *int64    `db:"branch_id" json:"branch_id,omitempty"`
	VisitedAt  time.Time `db:"visited_at" json:"visited_at"`
	ReferredBy *int64    `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CheckInRequest opens a visit.
type CheckInRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	BranchID *int64 `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	Source   string `json:"source,omitempty" validate:"omitempty,oneof=manual qr wearable"`
}

// GuestVisitRequest logs a walk-in.
type GuestVisitRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=160"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	BranchID   *int64  `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	ReferredBy *int64  `json:"referred_by,omitempty" validate:"omitempty,gt=0"`
}

// ListFilter narrows the attendance list.
type ListFilter struct {
	UserID   *int64
	BranchID *int64
	From     *time.Time
	To       *time.Time
}

// CheckInResult is the visit plus what the pipelines did with it.
type CheckInResult struct {
	Record        *Record `json:"record"`
	StreakCount   int     `json:"streak_count"`
	PointsAwarded int     `json:"points_awarded"`
	NewBadges     int     `json:"new_badges"`
}
