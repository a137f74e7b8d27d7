// Package platform covers the main-schema surface of the product: gym
// registration and lifecycle, operator accounts, subscription plans and
// bindings, support tickets and inbound contact requests.
package platform

import (
	"encoding/json"
	"time"
)

// Gym is a tenant row enriched with its subscription.
type Gym struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	OwnerID    *int64    `db:"owner_id" json:"owner_id,omitempty"`
	SchemaName string    `db:"schema_name" json:"schema_name"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	PlanName   *string   `db:"plan_name" json:"plan_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SubscriptionPlan is a sellable feature bundle.
type SubscriptionPlan struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Features  json.RawMessage `db:"features" json:"features"`
	Price     float64         `db:"price" json:"price"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// TenantSubscription binds a gym to a plan.
type TenantSubscription struct {
	ID        int64      `db:"id" json:"id"`
	TenantID  int64      `db:"tenant_id" json:"tenant_id"`
	PlanID    int64      `db:"plan_id" json:"plan_id"`
	PlanName  string     `db:"plan_name" json:"plan_name"`
	Status    string     `db:"status" json:"status"`
	StartsAt  time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt    *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// SupportTicket is a cross-tenant support thread.
type SupportTicket struct {
	ID        int64     `db:"id" json:"id"`
	TenantID  *int64    `db:"tenant_id" json:"tenant_id,omitempty"`
	OpenedBy  int64     `db:"opened_by" json:"opened_by"`
	Subject   string    `db:"subject" json:"subject"`
	Status    string    `db:"status" json:"status"`
	Priority  string    `db:"priority" json:"priority"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TicketMessage is one entry in a support thread.
type TicketMessage struct {
	ID        int64     `db:"id" json:"id"`
	TicketID  int64     `db:"ticket_id" json:"ticket_id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContactRequest is an inbound sales or support enquiry from the public site.
type ContactRequest struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Message   string    `db:"message" json:"message"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RegisterGymRequest provisions a new gym: tenant row, schema, default seeds,
// plan binding and the first admin account.
type RegisterGymRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	PlanID        int64  `json:"plan_id" validate:"required,gt=0"`
	AdminName     string `json:"admin_name" validate:"required,min=2,max=120"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminPassword string `json:"admin_password" validate:"required,min=8"`
}

// UpdateGymRequest is a partial gym update.
type UpdateGymRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// PlanRequest creates or updates a subscription plan.
type PlanRequest struct {
	Name     string          `json:"name" validate:"required,min=2,max=60"`
	Features json.RawMessage `json:"features" validate:"required"`
	Price    float64         `json:"price" validate:"gte=0"`
	IsActive *bool           `json:"is_active,omitempty"`
}

// AssignSubscriptionRequest switches a gym to a different plan.
type AssignSubscriptionRequest struct {
	PlanID int64 `json:"plan_id" validate:"required,gt=0"`
}

// CreateTicketRequest opens a support thread with its first message.
type CreateTicketRequest struct {
	Subject  string `json:"subject" validate:"required,min=3,max=200"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Body     string `json:"body" validate:"required"`
}

// TicketMessageRequest appends to a support thread.
type TicketMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// UpdateTicketStatusRequest moves a ticket through its lifecycle.
type UpdateTicketStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open pending resolved closed"`
}

// ContactRequestInput is the public enquiry form payload.
type ContactRequestInput struct {
	Name    string  `json:"name" validate:"required,min=2,max=120"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone,omitempty"`
	Message string  `json:"message" validate:"required,min=5"`
}

// UpdateContactStatusRequest marks an enquiry contacted or closed.
type UpdateContactStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted closed"`
}
