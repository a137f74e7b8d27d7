package migrate

// TenantSteps returns the ordered migration steps applied to every tenant
// schema. Steps are additive only and individually re-runnable; the engine
// executes them with search_path pinned to the tenant schema, so unqualified
// names resolve there.
func TenantSteps() []Step {
	return []Step{
		{
			Version: "001", Name: "create_branches",
			SQL: `
CREATE TABLE IF NOT EXISTS branches (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	address    TEXT,
	phone      TEXT,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at TIMESTAMPTZ,
	deleted_by BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "002", Name: "create_users",
			SQL: `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT,
	phone         TEXT,
	password_hash TEXT,
	role          TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('staff', 'member', 'trainer')),
	branch_id     BIGINT REFERENCES branches(id),
	date_of_birth DATE,
	gender        TEXT,
	joined_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	is_deleted    BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at    TIMESTAMPTZ,
	deleted_by    BIGINT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email)) WHERE is_deleted = FALSE AND email IS NOT NULL;
CREATE INDEX IF NOT EXISTS users_branch_idx ON users (branch_id)`,
		},
		{
			Version: "003", Name: "create_user_branches",
			SQL: `
CREATE TABLE IF NOT EXISTS user_branches (
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	branch_id  BIGINT NOT NULL REFERENCES branches(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, branch_id)
)`,
		},
		{
			Version: "004", Name: "create_plans",
			SQL: `
CREATE TABLE IF NOT EXISTS plans (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT,
	duration_days INTEGER NOT NULL,
	price         NUMERIC(12,2) NOT NULL,
	branch_id     BIGINT REFERENCES branches(id),
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	is_deleted    BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at    TIMESTAMPTZ,
	deleted_by    BIGINT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "005", Name: "create_offers",
			SQL: `
CREATE TABLE IF NOT EXISTS offers (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	discount_pct  NUMERIC(5,2) NOT NULL DEFAULT 0,
	starts_at     TIMESTAMPTZ,
	ends_at       TIMESTAMPTZ,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	is_deleted    BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at    TIMESTAMPTZ,
	deleted_by    BIGINT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS plan_offers (
	plan_id  BIGINT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
	offer_id BIGINT NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
	PRIMARY KEY (plan_id, offer_id)
)`,
		},
		{
			Version: "006", Name: "create_memberships",
			SQL: `
CREATE TABLE IF NOT EXISTS memberships (
	id              BIGSERIAL PRIMARY KEY,
	user_id         BIGINT NOT NULL REFERENCES users(id),
	plan_id         BIGINT NOT NULL REFERENCES plans(id),
	branch_id       BIGINT REFERENCES branches(id),
	status          TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'active', 'expired', 'cancelled', 'suspended')),
	start_date      DATE NOT NULL,
	end_date        DATE NOT NULL CHECK (end_date >= start_date),
	original_amount NUMERIC(12,2) NOT NULL,
	discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	final_amount    NUMERIC(12,2) NOT NULL,
	is_deleted      BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at      TIMESTAMPTZ,
	deleted_by      BIGINT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT memberships_amounts_check CHECK (original_amount - discount_amount = final_amount)
);
CREATE UNIQUE INDEX IF NOT EXISTS memberships_one_active_key
	ON memberships (user_id) WHERE status = 'active' AND is_deleted = FALSE;
CREATE INDEX IF NOT EXISTS memberships_end_date_idx ON memberships (end_date) WHERE status = 'active'`,
		},
		{
			Version: "007", Name: "create_membership_history",
			SQL: `
CREATE TABLE IF NOT EXISTS membership_history (
	id                 BIGSERIAL PRIMARY KEY,
	membership_id      BIGINT NOT NULL REFERENCES memberships(id),
	user_id            BIGINT NOT NULL,
	archive_reason     TEXT NOT NULL,
	cancellation_code  TEXT,
	previous_status    TEXT,
	new_status         TEXT,
	snapshot           JSONB,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS membership_history_membership_idx ON membership_history (membership_id)`,
		},
		{
			Version: "008", Name: "create_membership_freezes",
			SQL: `
CREATE TABLE IF NOT EXISTS membership_freezes (
	id            BIGSERIAL PRIMARY KEY,
	membership_id BIGINT NOT NULL REFERENCES memberships(id),
	frozen_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	resumed_at    TIMESTAMPTZ,
	reason        TEXT,
	created_by    BIGINT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "009", Name: "create_payments",
			SQL: `
CREATE TABLE IF NOT EXISTS payments (
	id              BIGSERIAL PRIMARY KEY,
	user_id         BIGINT REFERENCES users(id),
	membership_id   BIGINT REFERENCES memberships(id),
	salary_id       BIGINT,
	amount          NUMERIC(12,2) NOT NULL,
	tax_amount      NUMERIC(12,2) NOT NULL DEFAULT 0,
	discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	net_amount      NUMERIC(12,2) NOT NULL,
	method          TEXT NOT NULL DEFAULT 'cash',
	reference       TEXT,
	status          TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'processing', 'completed', 'failed', 'cancelled', 'refunded')),
	paid_at         TIMESTAMPTZ,
	branch_id       BIGINT REFERENCES branches(id),
	is_deleted      BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at      TIMESTAMPTZ,
	deleted_by      BIGINT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT payments_net_check CHECK (amount + tax_amount - discount_amount = net_amount)
);
CREATE UNIQUE INDEX IF NOT EXISTS payments_membership_key
	ON payments (membership_id) WHERE membership_id IS NOT NULL AND status = 'completed' AND is_deleted = FALSE;
CREATE INDEX IF NOT EXISTS payments_user_idx ON payments (user_id)`,
		},
		{
			Version: "010", Name: "create_staff_salaries",
			SQL: `
CREATE TABLE IF NOT EXISTS staff_salaries (
	id            BIGSERIAL PRIMARY KEY,
	staff_user_id BIGINT NOT NULL REFERENCES users(id),
	month         INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
	year          INTEGER NOT NULL,
	base_amount   NUMERIC(12,2) NOT NULL DEFAULT 0,
	bonus_amount  NUMERIC(12,2) NOT NULL DEFAULT 0,
	deductions    NUMERIC(12,2) NOT NULL DEFAULT 0,
	net_amount    NUMERIC(12,2) NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'cancelled')),
	is_recurring  BOOLEAN NOT NULL DEFAULT FALSE,
	paid_at       TIMESTAMPTZ,
	paid_by       BIGINT,
	is_deleted    BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at    TIMESTAMPTZ,
	deleted_by    BIGINT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS staff_salaries_period_key
	ON staff_salaries (staff_user_id, month, year) WHERE is_deleted = FALSE;
CREATE TABLE IF NOT EXISTS salary_history (
	id         BIGSERIAL PRIMARY KEY,
	salary_id  BIGINT NOT NULL REFERENCES staff_salaries(id),
	change     TEXT NOT NULL,
	snapshot   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "011", Name: "create_attendance",
			SQL: `
CREATE TABLE IF NOT EXISTS attendance (
	id           BIGSERIAL PRIMARY KEY,
	user_id      BIGINT NOT NULL REFERENCES users(id),
	branch_id    BIGINT REFERENCES branches(id),
	checked_in   TIMESTAMPTZ NOT NULL DEFAULT now(),
	checked_out  TIMESTAMPTZ,
	source       TEXT NOT NULL DEFAULT 'manual' CHECK (source IN ('manual', 'qr', 'wearable')),
	is_deleted   BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at   TIMESTAMPTZ,
	deleted_by   BIGINT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS attendance_user_day_idx ON attendance (user_id, checked_in)`,
		},
		{
			Version: "012", Name: "create_streaks",
			SQL: `
CREATE TABLE IF NOT EXISTS streaks (
	id             BIGSERIAL PRIMARY KEY,
	user_id        BIGINT NOT NULL REFERENCES users(id),
	streak_type    TEXT NOT NULL DEFAULT 'daily_visit',
	current_count  INTEGER NOT NULL DEFAULT 0,
	longest_count  INTEGER NOT NULL DEFAULT 0,
	last_event_on  DATE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, streak_type)
)`,
		},
		{
			Version: "013", Name: "create_challenges",
			SQL: `
CREATE TABLE IF NOT EXISTS challenges (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	metric      TEXT NOT NULL DEFAULT 'attendance',
	goal_value  NUMERIC(12,2) NOT NULL,
	starts_on   DATE NOT NULL,
	ends_on     DATE NOT NULL,
	status      TEXT NOT NULL DEFAULT 'upcoming' CHECK (status IN ('upcoming', 'active', 'completed', 'cancelled')),
	branch_id   BIGINT REFERENCES branches(id),
	is_deleted  BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_at  TIMESTAMPTZ,
	deleted_by  BIGINT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS challenge_participants (
	id            BIGSERIAL PRIMARY KEY,
	challenge_id  BIGINT NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	user_id       BIGINT NOT NULL REFERENCES users(id),
	current_value NUMERIC(12,2) NOT NULL DEFAULT 0,
	progress_pct  NUMERIC(5,2) NOT NULL DEFAULT 0,
	completed_at  TIMESTAMPTZ,
	joined_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (challenge_id, user_id)
)`,
		},
		{
			Version: "014", Name: "create_achievements",
			SQL: `
CREATE TABLE IF NOT EXISTS achievements (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	icon        TEXT,
	criteria    JSONB NOT NULL,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS user_achievements (
	user_id        BIGINT NOT NULL REFERENCES users(id),
	achievement_id BIGINT NOT NULL REFERENCES achievements(id),
	earned_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, achievement_id)
)`,
		},
		{
			Version: "015", Name: "create_loyalty",
			SQL: `
CREATE TABLE IF NOT EXISTS loyalty_config (
	id                       BIGSERIAL PRIMARY KEY,
	enabled                  BOOLEAN NOT NULL DEFAULT TRUE,
	points_per_visit         INTEGER NOT NULL DEFAULT 10,
	points_per_referral      INTEGER NOT NULL DEFAULT 50,
	points_per_purchase_unit NUMERIC(8,2) NOT NULL DEFAULT 1,
	point_expiry_days        INTEGER NOT NULL DEFAULT 365,
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS loyalty_tiers (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	min_points  INTEGER NOT NULL,
	multiplier  NUMERIC(5,2) NOT NULL DEFAULT 1,
	perks       JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS loyalty_points (
	id              BIGSERIAL PRIMARY KEY,
	user_id         BIGINT NOT NULL REFERENCES users(id) UNIQUE,
	tier_id         BIGINT REFERENCES loyalty_tiers(id),
	total_earned    INTEGER NOT NULL DEFAULT 0,
	total_redeemed  INTEGER NOT NULL DEFAULT 0,
	total_expired   INTEGER NOT NULL DEFAULT 0,
	current_balance INTEGER NOT NULL DEFAULT 0 CHECK (current_balance >= 0),
	tier_updated_at TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT loyalty_balance_check CHECK (current_balance = total_earned - total_redeemed - total_expired)
);
CREATE TABLE IF NOT EXISTS loyalty_transactions (
	id            BIGSERIAL PRIMARY KEY,
	user_id       BIGINT NOT NULL REFERENCES users(id),
	type          TEXT NOT NULL CHECK (type IN ('earn', 'redeem', 'expire')),
	points        INTEGER NOT NULL,
	balance_after INTEGER NOT NULL,
	source        TEXT,
	reference     BIGINT,
	expires_at    TIMESTAMPTZ,
	expired_by    BIGINT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS loyalty_transactions_user_idx ON loyalty_transactions (user_id, created_at);
CREATE INDEX IF NOT EXISTS loyalty_transactions_expiry_idx ON loyalty_transactions (expires_at) WHERE type = 'earn';
CREATE TABLE IF NOT EXISTS loyalty_rewards (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	points_cost INTEGER NOT NULL,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "016", Name: "create_engagement",
			SQL: `
CREATE TABLE IF NOT EXISTS engagement_scores (
	id                  BIGSERIAL PRIMARY KEY,
	user_id             BIGINT NOT NULL REFERENCES users(id),
	visit_frequency     NUMERIC(5,2) NOT NULL,
	visit_recency       NUMERIC(5,2) NOT NULL,
	attendance_trend    NUMERIC(5,2) NOT NULL,
	payment_reliability NUMERIC(5,2) NOT NULL,
	membership_tenure   NUMERIC(5,2) NOT NULL,
	engagement_depth    NUMERIC(5,2) NOT NULL,
	overall_score       NUMERIC(5,2) NOT NULL,
	risk_level          TEXT NOT NULL CHECK (risk_level IN ('low', 'medium', 'high', 'critical')),
	is_current          BOOLEAN NOT NULL DEFAULT TRUE,
	computed_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS engagement_scores_current_key
	ON engagement_scores (user_id) WHERE is_current = TRUE;
CREATE TABLE IF NOT EXISTS churn_alerts (
	id             BIGSERIAL PRIMARY KEY,
	user_id        BIGINT NOT NULL REFERENCES users(id),
	previous_risk  TEXT NOT NULL,
	new_risk       TEXT NOT NULL,
	factors        JSONB,
	message        TEXT,
	status         TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'acknowledged', 'resolved')),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "017", Name: "create_notifications",
			SQL: `
CREATE TABLE IF NOT EXISTS notifications (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT REFERENCES users(id),
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	priority   TEXT NOT NULL DEFAULT 'normal' CHECK (priority IN ('low', 'normal', 'high', 'urgent')),
	metadata   JSONB,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	read_at    TIMESTAMPTZ,
	expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, is_read, created_at)`,
		},
		{
			Version: "018", Name: "create_activity_logs",
			SQL: `
CREATE TABLE IF NOT EXISTS activity_logs (
	id         BIGSERIAL PRIMARY KEY,
	actor_id   BIGINT,
	action     TEXT NOT NULL,
	entity     TEXT NOT NULL,
	entity_id  BIGINT,
	detail     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS activity_logs_entity_idx ON activity_logs (entity, entity_id)`,
		},
		{
			Version: "019", Name: "create_guest_visits",
			SQL: `
CREATE TABLE IF NOT EXISTS guest_visits (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	phone      TEXT,
	branch_id  BIGINT REFERENCES branches(id),
	visited_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	referred_by BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "020", Name: "create_body_metrics",
			SQL: `
CREATE TABLE IF NOT EXISTS body_metrics (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL REFERENCES users(id),
	weight_kg   NUMERIC(6,2),
	height_cm   NUMERIC(6,2),
	body_fat_pct NUMERIC(5,2),
	muscle_kg   NUMERIC(6,2),
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	recorded_by BIGINT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS body_metrics_user_idx ON body_metrics (user_id, recorded_at)`,
		},
		{
			Version: "021", Name: "create_lookups",
			SQL: `
CREATE TABLE IF NOT EXISTS cancellation_reasons (
	id        BIGSERIAL PRIMARY KEY,
	code      TEXT NOT NULL UNIQUE,
	label     TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS lead_sources (
	id        BIGSERIAL PRIMARY KEY,
	code      TEXT NOT NULL UNIQUE,
	label     TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS product_categories (
	id        BIGSERIAL PRIMARY KEY,
	name      TEXT NOT NULL UNIQUE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
)`,
		},
		{
			Version: "022", Name: "create_currencies",
			SQL: `
CREATE TABLE IF NOT EXISTS currencies (
	id        BIGSERIAL PRIMARY KEY,
	code      TEXT NOT NULL UNIQUE,
	name      TEXT NOT NULL,
	symbol    TEXT NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT FALSE
)`,
		},
		{
			Version: "023", Name: "add_attendance_duration",
			SQL: `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_name = 'attendance' AND column_name = 'duration_minutes'
		AND table_schema = current_schema()
	) THEN
		ALTER TABLE attendance ADD COLUMN duration_minutes INTEGER;
	END IF;
END $$`,
		},
	}
}

// CurrentTenantVersion is the newest tenant step version; the registry treats
// a schema at this version as up to date.
func CurrentTenantVersion() string {
	steps := TenantSteps()
	return steps[len(steps)-1].Version
}
