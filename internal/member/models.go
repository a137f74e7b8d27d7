// Package member manages the people inside one gym's schema: branches, the
// staff and member roster, and member body metrics.
package member

import "time"

// Branch is a gym location.
type Branch struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User is a person in the tenant schema: staff, trainer or member.
type User struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Role        string     `db:"role" json:"role"`
	BranchID    *int64     `db:"branch_id" json:"branch_id,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	JoinedAt    time.Time  `db:"joined_at" json:"joined_at"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// BodyMetric is one measurement snapshot for a member.
type BodyMetric struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	WeightKg   *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	HeightCm   *float64  `db:"height_cm" json:"height_cm,omitempty"`
	BodyFatPct *float64  `db:"body_fat_pct" json:"body_fat_pct,omitempty"`
	MuscleKg   *float64  `db:"muscle_kg" json:"muscle_kg,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	RecordedBy *int64    `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// BranchRequest creates or updates a branch.
type BranchRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Address  *string `json:"address,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CreateUserRequest adds a person to the roster. Password is optional for
// members who never log in.
type CreateUserRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=120"`
	Email       *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string    `json:"phone,omitempty"`
	Password    *string    `json:"password,omitempty" validate:"omitempty,min=8"`
	Role        string     `json:"role" validate:"required,oneof=staff member trainer"`
	BranchID    *int64     `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
}

// UpdateUserRequest is a partial roster update.
type UpdateUserRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Email       *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string    `json:"phone,omitempty"`
	BranchID    *int64     `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

// BodyMetricRequest records one measurement.
type BodyMetricRequest struct {
	WeightKg   *float64 `json:"weight_kg,omitempty" validate:"omitempty,gt=0"`
	HeightCm   *float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0"`
	BodyFatPct *float64 `json:"body_fat_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	MuscleKg   *float64 `json:"muscle_kg,omitempty" validate:"omitempty,gt=0"`
}

// ListUsersFilter narrows the roster list.
type ListUsersFilter struct {
	Role     string
	Search   string
	BranchID *int64
	IsActive *bool
}
