// Package engagement scores member engagement from attendance, payment and
// participation signals, bands members into churn risk levels and alerts
// staff when someone deteriorates.
package engagement

import "math"

// Risk levels, best to worst
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// riskRank orders risk levels for deterioration checks; higher is worse.
var riskRank = map[string]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Deteriorated reports whether the risk level got worse.
func Deteriorated(previous, current string) bool {
	return riskRank[current] > riskRank[previous]
}

// Sub-score weights; they sum to 1.
const (
	weightFrequency = 0.25
	weightRecency   = 0.20
	weightTrend     = 0.15
	weightPayment   = 0.15
	weightTenure    = 0.10
	weightDepth     = 0.15
)

// fullFrequencyVisits is the 30-day visit count that scores 100.
const fullFrequencyVisits = 20

// Inputs are the raw signals one score is computed from.
type Inputs struct {
	VisitsLast30       int
	VisitsPrev30       int
	DaysSinceLastVisit int // -1 when the member never visited
	CompletedPayments  int
	FailedPayments     int
	TenureDays         int
	ChallengesJoined   int
	AchievementsEarned int
}

// Scores are the six sub-scores and their weighted overall, each 0..100.
type Scores struct {
	VisitFrequency     float64
	VisitRecency       float64
	AttendanceTrend    float64
	PaymentReliability float64
	MembershipTenure   float64
	EngagementDepth    float64
	Overall            float64
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Compute derives the sub-scores and overall from the raw signals.
func Compute(in Inputs) Scores {
	s := Scores{
		VisitFrequency:     clamp(float64(in.VisitsLast30) / fullFrequencyVisits * 100),
		VisitRecency:       recencyScore(in.DaysSinceLastVisit),
		AttendanceTrend:    trendScore(in.VisitsLast30, in.VisitsPrev30),
		PaymentReliability: paymentScore(in.CompletedPayments, in.FailedPayments),
		MembershipTenure:   clamp(float64(in.TenureDays) / 365 * 100),
		EngagementDepth:    clamp(float64(in.ChallengesJoined*15 + in.AchievementsEarned*10)),
	}

	s.Overall = round2(s.VisitFrequency*weightFrequency +
		s.VisitRecency*weightRecency +
		s.AttendanceTrend*weightTrend +
		s.PaymentReliability*weightPayment +
		s.MembershipTenure*weightTenure +
		s.EngagementDepth*weightDepth)

	s.VisitFrequency = round2(s.VisitFrequency)
	s.VisitRecency = round2(s.VisitRecency)
	s.AttendanceTrend = round2(s.AttendanceTrend)
	s.PaymentReliability = round2(s.PaymentReliability)
	s.MembershipTenure = round2(s.MembershipTenure)
	s.EngagementDepth = round2(s.EngagementDepth)
	return s
}

// recencyScore decays 5 points per day since the last visit.
func recencyScore(daysSince int) float64 {
	if daysSince < 0 {
		return 0
	}
	return clamp(100 - float64(daysSince)*5)
}

// trendScore compares this 30-day window against the previous one. An empty
// previous window is neutral-positive when the member started visiting.
func trendScore(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 75
		}
		return 50
	}
	change := float64(current-previous) / float64(previous)
	return clamp(50 + change*50)
}

// paymentScore is the completed share of settled payments; no history is
// neutral.
func paymentScore(completed, failed int) float64 {
	total := completed + failed
	if total == 0 {
		return 50
	}
	return clamp(float64(completed) / float64(total) * 100)
}

// RiskLevel bands an overall score.
func RiskLevel(overall float64) string {
	switch {
	case overall >= 75:
		return RiskLow
	case overall >= 50:
		return RiskMedium
	case overall >= 25:
		return RiskHigh
	default:
		return RiskCritical
	}
}
