package auth

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/gymstack/gymstack-backend/pkg/database"
)

// Feature codes toggled by subscription plan. Closed set; handlers declare
// the codes they require and the guard resolves the gym's plan.
const (
	FeatureAIChat            = "ai_chat"
	FeatureBodyMetrics       = "body_metrics"
	FeatureCampaigns         = "campaigns"
	FeatureCustomFields      = "custom_fields"
	FeatureEngagementScoring = "engagement_scoring"
	FeatureGamification      = "gamification"
	FeatureLoyaltyProgram    = "loyalty_program"
	FeatureSurveys           = "surveys"
	FeatureWearables         = "wearables"
)

// FeatureChecker resolves a gym's enabled feature codes from its active
// subscription in the main schema.
type FeatureChecker struct {
	db *database.DB
}

// NewFeatureChecker creates a feature checker bound to the main pool.
func NewFeatureChecker(db *database.DB) *FeatureChecker {
	return &FeatureChecker{db: db}
}

// Enabled returns the feature set of the gym's active subscription.
// A gym with no active subscription has no features.
func (c *FeatureChecker) Enabled(ctx context.Context, gymID int64) ([]string, error) {
	var features pq.StringArray
	err := c.db.GetContext(ctx, &features, `
		SELECT ARRAY(SELECT jsonb_array_elements_text(p.features))
		FROM public.tenant_subscriptions s
		JOIN public.subscription_plans p ON p.id = s.plan_id
		WHERE s.tenant_id = $1 AND s.status = 'active'`,
		gymID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return features, nil
}

// Has reports whether the gym's subscription includes every required feature.
func (c *FeatureChecker) Has(ctx context.Context, gymID int64, required ...string) (bool, error) {
	enabled, err := c.Enabled(ctx, gymID)
	if err != nil {
		return false, err
	}
	set := make(map[string]struct{}, len(enabled))
	for _, f := range enabled {
		set[f] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false, nil
		}
	}
	return true, nil
}
