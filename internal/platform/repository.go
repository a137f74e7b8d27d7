package platform

import (
	"context"
	"database/sql"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the main-schema queries. Methods take a Querier so the
// same code runs on the pool, a request connection or a transaction.
type Repository struct{}

// NewRepository creates the platform repository.
func NewRepository() *Repository {
	return &Repository{}
}

// --- gyms ---

const gymColumns = `
	t.id, t.name, t.owner_id, t.schema_name, t.is_active, t.created_at, t.updated_at,
	p.name AS plan_name`

const gymFrom = `
	FROM public.tenants t
	LEFT JOIN public.tenant_subscriptions s ON s.tenant_id = t.id AND s.status = 'active'
	LEFT JOIN public.subscription_plans p ON p.id = s.plan_id`

// ListGyms returns gyms with their active plan, filtered and paginated.
func (r *Repository) ListGyms(ctx context.Context, q database.Querier, pg sqlkit.Pagination, search string, isActive *bool) ([]Gym, int64, error) {
	where := sqlkit.NewWhere().
		Search(search, "t.name").
		AddIf(isActive != nil, "t.is_active", "=", isActive)

	var total int64
	if err := q.GetContext(ctx, &total, "SELECT count(*) "+gymFrom+" "+where.Clause(), where.Args()...); err != nil {
		return nil, 0, err
	}

	gyms := []Gym{}
	query := "SELECT " + gymColumns + gymFrom + " " + where.Clause() + " ORDER BY t.id" + pg.LimitOffset()
	if err := q.SelectContext(ctx, &gyms, query, where.Args()...); err != nil {
		return nil, 0, err
	}
	return gyms, total, nil
}

// GetGym returns one gym with its active plan.
func (r *Repository) GetGym(ctx context.Context, q database.Querier, id int64) (*Gym, error) {
	var gym Gym
	err := q.GetContext(ctx, &gym, "SELECT "+gymColumns+gymFrom+" WHERE t.id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("gym")
	}
	if err != nil {
		return nil, err
	}
	return &gym, nil
}

// InsertGym creates the tenant row. The schema name follows from the id, so
// it is written in a second statement.
func (r *Repository) InsertGym(ctx context.Context, q database.Querier, name string) (int64, error) {
	var id int64
	err := q.GetContext(ctx, &id,
		`INSERT INTO public.tenants (name, schema_name) VALUES ($1, '') RETURNING id`, name)
	if err != nil {
		return 0, database.MapPQError(err)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE public.tenants SET schema_name = $1 WHERE id = $2`, database.SchemaName(id), id); err != nil {
		return 0, database.MapPQError(err)
	}
	return id, nil
}

// UpdateGym applies a partial update.
func (r *Repository) UpdateGym(ctx context.Context, q database.Querier, id int64, req *UpdateGymRequest) error {
	upd := sqlkit.NewUpdate().
		SetIf(req.Name != nil, "name", req.Name).
		SetIf(req.IsActive != nil, "is_active", req.IsActive)
	if upd.Empty() {
		return nil
	}
	query, args := upd.Build("public.tenants", "id = ?", id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("gym")
	}
	return nil
}

// SetGymOwner records the first admin as owner.
func (r *Repository) SetGymOwner(ctx context.Context, q database.Querier, gymID, ownerID int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE public.tenants SET owner_id = $1, updated_at = now() WHERE id = $2`, ownerID, gymID)
	return err
}

// DeleteGym removes the tenant row; subscriptions cascade, operator accounts
// bound to the gym are removed explicitly.
func (r *Repository) DeleteGym(ctx context.Context, q database.Querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM public.platform_users WHERE gym_id = $1`, id); err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `DELETE FROM public.tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("gym")
	}
	return nil
}

// --- subscription plans ---

// ListPlans returns all subscription plans.
func (r *Repository) ListPlans(ctx context.Context, q database.Querier) ([]SubscriptionPlan, error) {
	plans := []SubscriptionPlan{}
	err := q.SelectContext(ctx, &plans, `
		SELECT id, name, features, price, is_active, created_at, updated_at
		FROM public.subscription_plans ORDER BY price`)
	return plans, err
}

// GetPlan returns one plan.
func (r *Repository) GetPlan(ctx context.Context, q database.Querier, id int64) (*SubscriptionPlan, error) {
	var plan SubscriptionPlan
	err := q.GetContext(ctx, &plan, `
		SELECT id, name, features, price, is_active, created_at, updated_at
		FROM public.subscription_plans WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("subscription plan")
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// InsertPlan creates a plan.
func (r *Repository) InsertPlan(ctx context.Context, q database.Querier, req *PlanRequest) (*SubscriptionPlan, error) {
	var plan SubscriptionPlan
	err := q.GetContext(ctx, &plan, `
		INSERT INTO public.subscription_plans (name, features, price)
		VALUES ($1, $2, $3)
		RETURNING id, name, features, price, is_active, created_at, updated_at`,
		req.Name, req.Features, req.Price)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &plan, nil
}

// UpdatePlan rewrites a plan.
func (r *Repository) UpdatePlan(ctx context.Context, q database.Querier, id int64, req *PlanRequest) error {
	upd := sqlkit.NewUpdate().
		Set("name", req.Name).
		Set("features", req.Features).
		Set("price", req.Price).
		SetIf(req.IsActive != nil, "is_active", req.IsActive)
	query, args := upd.Build("public.subscription_plans", "id = ?", id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("subscription plan")
	}
	return nil
}

// --- subscriptions ---

// ActiveSubscription returns the gym's active binding, nil when none.
func (r *Repository) ActiveSubscription(ctx context.Context, q database.Querier, gymID int64) (*TenantSubscription, error) {
	var sub TenantSubscription
	err := q.GetContext(ctx, &sub, `
		SELECT s.id, s.tenant_id, s.plan_id, p.name AS plan_name, s.status,
		       s.starts_at, s.ends_at, s.created_at, s.updated_at
		FROM public.tenant_subscriptions s
		JOIN public.subscription_plans p ON p.id = s.plan_id
		WHERE s.tenant_id = $1 AND s.status = 'active'`, gymID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelActiveSubscription ends the current binding, if any.
func (r *Repository) CancelActiveSubscription(ctx context.Context, q database.Querier, gymID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE public.tenant_subscriptions
		SET status = 'cancelled', ends_at = now(), updated_at = now()
		WHERE tenant_id = $1 AND status = 'active'`, gymID)
	return err
}

// InsertSubscription binds the gym to a plan. The partial unique index
// enforces one active binding per gym.
func (r *Repository) InsertSubscription(ctx context.Context, q database.Querier, gymID, planID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO public.tenant_subscriptions (tenant_id, plan_id) VALUES ($1, $2)`, gymID, planID)
	return database.MapPQError(err)
}

// --- platform users ---

// InsertPlatformUser creates an operator account.
func (r *Repository) InsertPlatformUser(ctx context.Context, q database.Querier, name, email, passwordHash, role string, gymID *int64) (int64, error) {
	var id int64
	err := q.GetContext(ctx, &id, `
		INSERT INTO public.platform_users (name, email, password_hash, role, gym_id, is_super_admin)
		VALUES ($1, $2, $3, $4, $5, $4 = 'superadmin')
		RETURNING id`,
		name, email, passwordHash, role, gymID)
	if err != nil {
		return 0, database.MapPQError(err)
	}
	return id, nil
}

// --- support tickets ---

// InsertTicket opens a thread and returns its id.
func (r *Repository) InsertTicket(ctx context.Context, q database.Querier, tenantID *int64, openedBy int64, subject, priority string) (int64, error) {
	if priority == "" {
		priority = "normal"
	}
	var id int64
	err := q.GetContext(ctx, &id, `
		INSERT INTO public.support_tickets (tenant_id, opened_by, subject, priority)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		tenantID, openedBy, subject, priority)
	if err != nil {
		return 0, database.MapPQError(err)
	}
	return id, nil
}

// InsertTicketMessage appends to a thread.
func (r *Repository) InsertTicketMessage(ctx context.Context, q database.Querier, ticketID, authorID int64, body string) (*TicketMessage, error) {
	var msg TicketMessage
	err := q.GetContext(ctx, &msg, `
		INSERT INTO public.support_ticket_messages (ticket_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, ticket_id, author_id, body, created_at`,
		ticketID, authorID, body)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &msg, nil
}

// ListTickets returns tickets, restricted to one tenant for gym admins.
func (r *Repository) ListTickets(ctx context.Context, q database.Querier, pg sqlkit.Pagination, tenantID *int64, status string) ([]SupportTicket, int64, error) {
	where := sqlkit.NewWhere().
		AddIf(tenantID != nil, "tenant_id", "=", tenantID).
		AddIf(status != "", "status", "=", status)

	var total int64
	if err := q.GetContext(ctx, &total,
		"SELECT count(*) FROM public.support_tickets "+where.Clause(), where.Args()...); err != nil {
		return nil, 0, err
	}

	tickets := []SupportTicket{}
	query := `SELECT id, tenant_id, opened_by, subject, status, priority, created_at, updated_at
		FROM public.support_tickets ` + where.Clause() + " ORDER BY created_at DESC" + pg.LimitOffset()
	if err := q.SelectContext(ctx, &tickets, query, where.Args()...); err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// GetTicket returns one thread header.
func (r *Repository) GetTicket(ctx context.Context, q database.Querier, id int64) (*SupportTicket, error) {
	var t SupportTicket
	err := q.GetContext(ctx, &t, `
		SELECT id, tenant_id, opened_by, subject, status, priority, created_at, updated_at
		FROM public.support_tickets WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("support ticket")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTicketMessages returns a thread's messages oldest first.
func (r *Repository) ListTicketMessages(ctx context.Context, q database.Querier, ticketID int64) ([]TicketMessage, error) {
	msgs := []TicketMessage{}
	err := q.SelectContext(ctx, &msgs, `
		SELECT id, ticket_id, author_id, body, created_at
		FROM public.support_ticket_messages WHERE ticket_id = $1 ORDER BY created_at`, ticketID)
	return msgs, err
}

// UpdateTicketStatus moves a ticket through its lifecycle.
func (r *Repository) UpdateTicketStatus(ctx context.Context, q database.Querier, id int64, status string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE public.support_tickets SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("support ticket")
	}
	return nil
}

// --- contact requests ---

// InsertContactRequest stores a public enquiry.
func (r *Repository) InsertContactRequest(ctx context.Context, q database.Querier, req *ContactRequestInput) (*ContactRequest, error) {
	var c ContactRequest
	err := q.GetContext(ctx, &c, `
		INSERT INTO public.contact_requests (name, email, phone, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, phone, message, status, created_at`,
		req.Name, req.Email, req.Phone, req.Message)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &c, nil
}

// ListContactRequests returns enquiries newest first.
func (r *Repository) ListContactRequests(ctx context.Context, q database.Querier, pg sqlkit.Pagination, status string) ([]ContactRequest, int64, error) {
	where := sqlkit.NewWhere().AddIf(status != "", "status", "=", status)

	var total int64
	if err := q.GetContext(ctx, &total,
		"SELECT count(*) FROM public.contact_requests "+where.Clause(), where.Args()...); err != nil {
		return nil, 0, err
	}

	reqs := []ContactRequest{}
	query := `SELECT id, name, email, phone, message, status, created_at
		FROM public.contact_requests ` + where.Clause() + " ORDER BY created_at DESC" + pg.LimitOffset()
	if err := q.SelectContext(ctx, &reqs, query, where.Args()...); err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// UpdateContactStatus marks an enquiry contacted or closed.
func (r *Repository) UpdateContactStatus(ctx context.Context, q database.Querier, id int64, status string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE public.contact_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("contact request")
	}
	return nil
}
