package testutil

import (
	"time"

	"github.com/gymstack/gymstack-backend/pkg/principal"
)

// SuperAdmin returns a platform operator principal.
func SuperAdmin() *principal.Principal {
	return &principal.Principal{
		UserID:       1,
		Email:        "ops@gymstack.io",
		Role:         principal.RoleSuperAdmin,
		IsSuperAdmin: true,
	}
}

// GymAdmin returns the owner principal of the given gym.
func GymAdmin(gymID int64) *principal.Principal {
	return &principal.Principal{
		UserID: 10,
		Email:  "owner@example.com",
		Role:   principal.RoleAdmin,
		GymID:  &gymID,
	}
}

// Staff returns a front-desk principal of the given gym.
func Staff(gymID int64) *principal.Principal {
	return &principal.Principal{
		UserID: 20,
		Email:  "desk@example.com",
		Role:   principal.RoleStaff,
		GymID:  &gymID,
	}
}

// Member returns a member principal of the given gym.
func Member(gymID, userID int64) *principal.Principal {
	return &principal.Principal{
		UserID: userID,
		Email:  "member@example.com",
		Role:   principal.RoleMember,
		GymID:  &gymID,
	}
}

// Date builds a midnight UTC timestamp, the shape scheduler and streak code
// work with.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
