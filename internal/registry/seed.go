package registry

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// seedDefaults inserts the default rows every new gym starts with. Each block
// prechecks existence, so re-seeding an already provisioned schema is a no-op.
func seedDefaults(ctx context.Context, conn *sqlx.Conn) error {
	seeds := []string{
		// Default membership plans
		`INSERT INTO plans (name, duration_days, price)
		 SELECT * FROM (VALUES
			('monthly', 30, 999.00::numeric),
			('quarterly', 90, 2499.00::numeric),
			('annual', 365, 7999.00::numeric)
		 ) AS seed(name, duration_days, price)
		 WHERE NOT EXISTS (SELECT 1 FROM plans)`,

		// Loyalty tiers: step function of total_earned
		`INSERT INTO loyalty_tiers (name, min_points, multiplier)
		 SELECT * FROM (VALUES
			('Bronze', 0, 1.00::numeric),
			('Silver', 500, 1.25::numeric),
			('Gold', 2000, 1.50::numeric),
			('Platinum', 5000, 2.00::numeric)
		 ) AS seed(name, min_points, multiplier)
		 WHERE NOT EXISTS (SELECT 1 FROM loyalty_tiers)`,

		// Default loyalty config row
		`INSERT INTO loyalty_config (enabled, points_per_visit, points_per_referral, points_per_purchase_unit, point_expiry_days)
		 SELECT TRUE, 10, 50, 1, 365
		 WHERE NOT EXISTS (SELECT 1 FROM loyalty_config)`,

		// Achievements with typed JSON criteria
		`INSERT INTO achievements (name, description, icon, criteria)
		 SELECT * FROM (VALUES
			('First Visit', 'Checked in for the first time', 'footprints', '{"type": "total_visits", "value": 1}'::jsonb),
			('Regular', '10 lifetime visits', 'calendar', '{"type": "total_visits", "value": 10}'::jsonb),
			('Dedicated', '50 lifetime visits', 'dumbbell', '{"type": "total_visits", "value": 50}'::jsonb),
			('Century Club', '100 lifetime visits', 'trophy', '{"type": "total_visits", "value": 100}'::jsonb),
			('Week Warrior', '7-day visit streak', 'flame', '{"type": "streak_days", "value": 7}'::jsonb),
			('Iron Month', '30-day visit streak', 'medal', '{"type": "streak_days", "value": 30}'::jsonb)
		 ) AS seed(name, description, icon, criteria)
		 WHERE NOT EXISTS (SELECT 1 FROM achievements)`,

		// Currencies
		`INSERT INTO currencies (code, name, symbol, is_default)
		 SELECT * FROM (VALUES
			('USD', 'US Dollar', '$', FALSE),
			('EUR', 'Euro', '€', FALSE),
			('GBP', 'Pound Sterling', '£', FALSE),
			('INR', 'Indian Rupee', '₹', TRUE),
			('AED', 'UAE Dirham', 'د.إ', FALSE),
			('AUD', 'Australian Dollar', 'A$', FALSE),
			('CAD', 'Canadian Dollar', 'C$', FALSE),
			('SGD', 'Singapore Dollar', 'S$', FALSE)
		 ) AS seed(code, name, symbol, is_default)
		 WHERE NOT EXISTS (SELECT 1 FROM currencies)`,

		// Lookup tables
		`INSERT INTO cancellation_reasons (code, label)
		 SELECT * FROM (VALUES
			('relocation', 'Moving away'),
			('price', 'Too expensive'),
			('unused', 'Not using the membership'),
			('health', 'Health reasons'),
			('service', 'Unhappy with service'),
			('other', 'Other')
		 ) AS seed(code, label)
		 WHERE NOT EXISTS (SELECT 1 FROM cancellation_reasons)`,

		`INSERT INTO lead_sources (code, label)
		 SELECT * FROM (VALUES
			('walk_in', 'Walk-in'),
			('referral', 'Member referral'),
			('social', 'Social media'),
			('website', 'Website'),
			('campaign', 'Campaign'),
			('other', 'Other')
		 ) AS seed(code, label)
		 WHERE NOT EXISTS (SELECT 1 FROM lead_sources)`,

		`INSERT INTO product_categories (name)
		 SELECT * FROM (VALUES
			('Supplements'), ('Apparel'), ('Beverages'), ('Accessories')
		 ) AS seed(name)
		 WHERE NOT EXISTS (SELECT 1 FROM product_categories)`,
	}

	for _, q := range seeds {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
