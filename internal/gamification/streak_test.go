package gamification_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gymstack/gymstack-backend/internal/gamification"
	"github.com/gymstack/gymstack-backend/pkg/testutil"
)

func TestAdvanceStreak(t *testing.T) {
	today := testutil.Date(2026, time.August, 26)
	yesterday := today.AddDate(0, 0, -1)
	lastWeek := today.AddDate(0, 0, -7)

	tests := []struct {
		name        string
		current     int
		longest     int
		lastEventOn *time.Time
		wantCurrent int
		wantLongest int
	}{
		{"first ever visit", 0, 0, nil, 1, 1},
		{"consecutive day extends", 4, 6, &yesterday, 5, 6},
		{"consecutive day sets new longest", 6, 6, &yesterday, 7, 7},
		{"same day repeat is a no-op", 4, 6, &today, 4, 6},
		{"gap resets to one", 12, 12, &lastWeek, 1, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := gamification.AdvanceStreak(tt.current, tt.longest, tt.lastEventOn, today)
			assert.Equal(t, tt.wantCurrent, current)
			assert.Equal(t, tt.wantLongest, longest)
		})
	}
}

func TestAdvanceStreak_MidnightBoundary(t *testing.T) {
	// 23:59 yesterday followed by 00:01 today is consecutive, not same-day.
	last := time.Date(2026, time.August, 25, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, time.August, 26, 0, 1, 0, 0, time.UTC)

	current, longest := gamification.AdvanceStreak(2, 2, &last, today)
	assert.Equal(t, 3, current)
	assert.Equal(t, 3, longest)
}
