// Package gamification drives streaks, challenges and achievements for a
// gym's members. Its visit pipeline runs inside the attendance write.
package gamification

import (
	"encoding/json"
	"time"
)

// Challenge statuses
const (
	ChallengeUpcoming  = "upcoming"
	ChallengeActive    = "active"
	ChallengeCompleted = "completed"
	ChallengeCancelled = "cancelled"
)

// Achievement criteria types
const (
	CriteriaTotalVisits = "total_visits"
	CriteriaStreakDays  = "streak_days"
)

// StreakTypeDailyVisit is the only streak kind tracked today.
const StreakTypeDailyVisit = "daily_visit"

// Streak is a member's consecutive-day visit counter.
type Streak struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	StreakType   string     `db:"streak_type" json:"streak_type"`
	CurrentCount int        `db:"current_count" json:"current_count"`
	LongestCount int        `db:"longest_count" json:"longest_count"`
	LastEventOn  *time.Time `db:"last_event_on" json:"last_event_on,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Challenge is a time-boxed goal members opt into.
type Challenge struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Metric      string    `db:"metric" json:"metric"`
	GoalValue   float64   `db:"goal_value" json:"goal_value"`
	StartsOn    time.Time `db:"starts_on" json:"starts_on"`
	EndsOn      time.Time `db:"ends_on" json:"ends_on"`
	Status      string    `db:"status" json:"status"`
	BranchID    *int64    `db:"branch_id" json:"branch_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Participant is one member's progress in a challenge.
type Participant struct {
	ID           int64      `db:"id" json:"id"`
	ChallengeID  int64      `db:"challenge_id" json:"challenge_id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	CurrentValue float64    `db:"current_value" json:"current_value"`
	ProgressPct  float64    `db:"progress_pct" json:"progress_pct"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	JoinedAt     time.Time  `db:"joined_at" json:"joined_at"`

	UserName *string `db:"user_name" json:"user_name,omitempty"`
}

// Achievement is a badge with typed criteria.
type Achievement struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	Icon        *string         `db:"icon" json:"icon,omitempty"`
	Criteria    json.RawMessage `db:"criteria" json:"criteria"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Criteria is the decoded shape of Achievement.Criteria.
type Criteria struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

// Earned is one awarded badge.
type Earned struct {
	UserID        int64     `db:"user_id" json:"user_id"`
	AchievementID int64     `db:"achievement_id" json:"achievement_id"`
	EarnedAt      time.Time `db:"earned_at" json:"earned_at"`

	Name *string `db:"name" json:"name,omitempty"`
	Icon *string `db:"icon" json:"icon,omitempty"`
}

// ChallengeRequest creates or updates a challenge. New challenges always
// start upcoming; status moves with the calendar, not the request.
type ChallengeRequest struct {
	Name        string    `json:"name" validate:"required,min=2,max=120"`
	Description *string   `json:"description,omitempty"`
	Metric      string    `json:"metric" validate:"omitempty,oneof=attendance"`
	GoalValue   float64   `json:"goal_value" validate:"required,gt=0"`
	StartsOn    time.Time `json:"starts_on" validate:"required"`
	EndsOn      time.Time `json:"ends_on" validate:"required"`
	BranchID    *int64    `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
}
