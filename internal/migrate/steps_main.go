package migrate

// MainSteps returns the ordered migration steps for the shared public schema.
// Applied once per cluster.
func MainSteps() []Step {
	return []Step{
		{
			Version: "001", Name: "create_tenants",
			SQL: `
CREATE TABLE IF NOT EXISTS tenants (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	owner_id    BIGINT,
	schema_name TEXT NOT NULL UNIQUE,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "002", Name: "create_platform_users",
			SQL: `
CREATE TABLE IF NOT EXISTS platform_users (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL,
	password_hash  TEXT NOT NULL,
	role           TEXT NOT NULL CHECK (role IN ('superadmin', 'admin')),
	gym_id         BIGINT,
	branch_id      BIGINT,
	is_super_admin BOOLEAN NOT NULL DEFAULT FALSE,
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS platform_users_email_key ON platform_users (lower(email))`,
		},
		{
			Version: "003", Name: "create_subscription_plans",
			SQL: `
CREATE TABLE IF NOT EXISTS subscription_plans (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	features   JSONB NOT NULL DEFAULT '[]',
	price      NUMERIC(12,2) NOT NULL DEFAULT 0,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "004", Name: "create_tenant_subscriptions",
			SQL: `
CREATE TABLE IF NOT EXISTS tenant_subscriptions (
	id         BIGSERIAL PRIMARY KEY,
	tenant_id  BIGINT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	plan_id    BIGINT NOT NULL REFERENCES subscription_plans(id),
	status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'past_due', 'cancelled')),
	starts_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	ends_at    TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS tenant_subscriptions_tenant_key
	ON tenant_subscriptions (tenant_id) WHERE status = 'active'`,
		},
		{
			Version: "005", Name: "create_system_notifications",
			SQL: `
CREATE TABLE IF NOT EXISTS system_notifications (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	priority   TEXT NOT NULL DEFAULT 'normal',
	metadata   JSONB,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	read_at    TIMESTAMPTZ,
	expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS system_notifications_user_idx ON system_notifications (user_id, is_read)`,
		},
		{
			Version: "006", Name: "create_support_tickets",
			SQL: `
CREATE TABLE IF NOT EXISTS support_tickets (
	id         BIGSERIAL PRIMARY KEY,
	tenant_id  BIGINT REFERENCES tenants(id) ON DELETE SET NULL,
	opened_by  BIGINT NOT NULL,
	subject    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'pending', 'resolved', 'closed')),
	priority   TEXT NOT NULL DEFAULT 'normal',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS support_ticket_messages (
	id         BIGSERIAL PRIMARY KEY,
	ticket_id  BIGINT NOT NULL REFERENCES support_tickets(id) ON DELETE CASCADE,
	author_id  BIGINT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS support_ticket_messages_ticket_idx ON support_ticket_messages (ticket_id)`,
		},
		{
			Version: "007", Name: "create_contact_requests",
			SQL: `
CREATE TABLE IF NOT EXISTS contact_requests (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	phone      TEXT,
	message    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'contacted', 'closed')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		},
		{
			Version: "008", Name: "seed_subscription_plans",
			SQL: `
INSERT INTO subscription_plans (name, features, price)
SELECT * FROM (VALUES
	('Starter', '["body_metrics", "campaigns"]'::jsonb, 49.00),
	('Growth', '["body_metrics", "campaigns", "custom_fields", "engagement_scoring", "loyalty_program"]'::jsonb, 99.00),
	('Pro', '["ai_chat", "body_metrics", "campaigns", "custom_fields", "engagement_scoring", "gamification", "loyalty_program"]'::jsonb, 199.00)
) AS seed(name, features, price)
WHERE NOT EXISTS (SELECT 1 FROM subscription_plans)`,
		},
		{
			Version: "009", Name: "add_platform_users_last_login",
			SQL: `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_name = 'platform_users' AND column_name = 'last_login_at'
		AND table_schema = current_schema()
	) THEN
		ALTER TABLE platform_users ADD COLUMN last_login_at TIMESTAMPTZ;
	END IF;
END $$`,
		},
	}
}
