package gamification

import "time"

// sameDay compares calendar days in the times' own locations.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AdvanceStreak applies one visit on `today` to a streak counter and returns
// the new current and longest counts.
//
// The first visit of a day extends the streak when the previous visit was
// yesterday, restarts it at 1 after a gap, and repeat visits on the same day
// change nothing.
func AdvanceStreak(current, longest int, lastEventOn *time.Time, today time.Time) (int, int) {
	switch {
	case lastEventOn != nil && sameDay(*lastEventOn, today):
		// already counted today
	case lastEventOn != nil && sameDay(*lastEventOn, today.AddDate(0, 0, -1)):
		current++
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}
	return current, longest
}
