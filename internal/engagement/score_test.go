package engagement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gymstack/gymstack-backend/internal/engagement"
)

func TestCompute_FullyEngagedMember(t *testing.T) {
	s := engagement.Compute(engagement.Inputs{
		VisitsLast30:       20,
		VisitsPrev30:       18,
		DaysSinceLastVisit: 0,
		CompletedPayments:  12,
		FailedPayments:     0,
		TenureDays:         730,
		ChallengesJoined:   4,
		AchievementsEarned: 6,
	})

	assert.Equal(t, 100.0, s.VisitFrequency)
	assert.Equal(t, 100.0, s.VisitRecency)
	assert.Equal(t, 100.0, s.PaymentReliability)
	assert.Equal(t, 100.0, s.MembershipTenure)
	assert.Equal(t, 100.0, s.EngagementDepth)
	assert.InDelta(t, 55.56, s.AttendanceTrend, 0.01)
	assert.GreaterOrEqual(t, s.Overall, 75.0)
	assert.Equal(t, engagement.RiskLow, engagement.RiskLevel(s.Overall))
}

func TestCompute_GhostMember(t *testing.T) {
	s := engagement.Compute(engagement.Inputs{
		VisitsLast30:       0,
		VisitsPrev30:       0,
		DaysSinceLastVisit: -1,
		TenureDays:         30,
	})

	assert.Equal(t, 0.0, s.VisitFrequency)
	assert.Equal(t, 0.0, s.VisitRecency)
	assert.Equal(t, 50.0, s.AttendanceTrend)
	assert.Equal(t, 50.0, s.PaymentReliability)
	assert.Equal(t, 0.0, s.EngagementDepth)
	assert.Equal(t, engagement.RiskCritical, engagement.RiskLevel(s.Overall))
}

func TestCompute_TrendScore(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		previous int
		want     float64
	}{
		{"both windows empty is neutral", 0, 0, 50},
		{"started visiting", 5, 0, 75},
		{"flat", 10, 10, 50},
		{"doubled clamps at 100", 20, 10, 100},
		{"halved", 5, 10, 25},
		{"stopped entirely", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := engagement.Compute(engagement.Inputs{
				VisitsLast30:       tt.current,
				VisitsPrev30:       tt.previous,
				DaysSinceLastVisit: -1,
			})
			assert.Equal(t, tt.want, s.AttendanceTrend)
		})
	}
}

func TestCompute_RecencyDecay(t *testing.T) {
	for _, tt := range []struct {
		days int
		want float64
	}{
		{0, 100}, {1, 95}, {10, 50}, {20, 0}, {45, 0},
	} {
		s := engagement.Compute(engagement.Inputs{DaysSinceLastVisit: tt.days})
		assert.Equal(t, tt.want, s.VisitRecency, "days=%d", tt.days)
	}
}

func TestRiskLevel_Bands(t *testing.T) {
	assert.Equal(t, engagement.RiskLow, engagement.RiskLevel(75))
	assert.Equal(t, engagement.RiskMedium, engagement.RiskLevel(74.99))
	assert.Equal(t, engagement.RiskMedium, engagement.RiskLevel(50))
	assert.Equal(t, engagement.RiskHigh, engagement.RiskLevel(49.99))
	assert.Equal(t, engagement.RiskHigh, engagement.RiskLevel(25))
	assert.Equal(t, engagement.RiskCritical, engagement.RiskLevel(24.99))
	assert.Equal(t, engagement.RiskCritical, engagement.RiskLevel(0))
}

func TestDeteriorated(t *testing.T) {
	assert.True(t, engagement.Deteriorated(engagement.RiskLow, engagement.RiskMedium))
	assert.True(t, engagement.Deteriorated(engagement.RiskHigh, engagement.RiskCritical))
	assert.False(t, engagement.Deteriorated(engagement.RiskMedium, engagement.RiskMedium))
	assert.False(t, engagement.Deteriorated(engagement.RiskCritical, engagement.RiskLow))
}
