package platform

import (
	"context"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/gymstack/gymstack-backend/internal/registry"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/logger"
	"github.com/gymstack/gymstack-backend/pkg/principal"
)

// Service implements gym lifecycle and the rest of the platform operations.
type Service struct {
	pools    *database.Pools
	registry *registry.Registry
	repo     *Repository
	logger   *logger.Logger
}

// NewService creates the platform service.
func NewService(pools *database.Pools, reg *registry.Registry, repo *Repository, log *logger.Logger) *Service {
	return &Service{
		pools:    pools,
		registry: reg,
		repo:     repo,
		logger:   log.WithComponent("platform"),
	}
}

// RegisterGym provisions a new gym end to end: tenant row, first admin
// account and plan binding in one transaction, then the schema itself.
// Schema materialisation failures leave the rows in place; the startup
// reconcile retries provisioning.
func (s *Service) RegisterGym(ctx context.Context, req *RegisterGymRequest) (*Gym, error) {
	if _, err := s.repo.GetPlan(ctx, s.pools.Main, req.PlanID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	var gymID int64
	err = s.pools.Main.Transaction(ctx, func(tx *sqlx.Tx) error {
		id, err := s.repo.InsertGym(ctx, tx, req.Name)
		if err != nil {
			return err
		}
		gymID = id

		adminID, err := s.repo.InsertPlatformUser(ctx, tx, req.AdminName, req.AdminEmail, string(hash), "admin", &id)
		if err != nil {
			return err
		}
		if err := s.repo.SetGymOwner(ctx, tx, id, adminID); err != nil {
			return err
		}
		return s.repo.InsertSubscription(ctx, tx, id, req.PlanID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.registry.Create(ctx, gymID); err != nil {
		s.logger.Error().Err(err).Int64("gym_id", gymID).Msg("schema provisioning failed")
		return nil, errors.Transient("gym registered but schema provisioning failed, it will be retried")
	}

	s.logger.Info().Int64("gym_id", gymID).Str("name", req.Name).Msg("gym registered")
	return s.repo.GetGym(ctx, s.pools.Main, gymID)
}

// DeleteGym drops the gym's schema and removes its platform rows. This is
// destructive and limited to superadmin at the route level.
func (s *Service) DeleteGym(ctx context.Context, gymID int64) error {
	if _, err := s.repo.GetGym(ctx, s.pools.Main, gymID); err != nil {
		return err
	}
	if err := s.registry.Drop(ctx, gymID); err != nil {
		return err
	}
	if err := s.repo.DeleteGym(ctx, s.pools.Main, gymID); err != nil {
		return err
	}
	s.logger.Warn().Int64("gym_id", gymID).Msg("gym deleted")
	return nil
}

// ChangeSubscription switches the gym to a new plan: the active binding is
// cancelled and the new one inserted in one transaction.
func (s *Service) ChangeSubscription(ctx context.Context, gymID, planID int64) (*TenantSubscription, error) {
	if _, err := s.repo.GetGym(ctx, s.pools.Main, gymID); err != nil {
		return nil, err
	}
	plan, err := s.repo.GetPlan(ctx, s.pools.Main, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, errors.UnprocessableEntity("subscription plan is not available")
	}

	err = s.pools.Main.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.CancelActiveSubscription(ctx, tx, gymID); err != nil {
			return err
		}
		return s.repo.InsertSubscription(ctx, tx, gymID, planID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("gym_id", gymID).Int64("plan_id", planID).Msg("subscription changed")
	return s.repo.ActiveSubscription(ctx, s.pools.Main, gymID)
}

// OpenTicket creates a thread and its first message. Gym admins open tickets
// against their own tenant; superadmins against any.
func (s *Service) OpenTicket(ctx context.Context, p *principal.Principal, req *CreateTicketRequest) (*SupportTicket, error) {
	var ticketID int64
	err := s.pools.Main.Transaction(ctx, func(tx *sqlx.Tx) error {
		id, err := s.repo.InsertTicket(ctx, tx, p.GymID, p.UserID, req.Subject, req.Priority)
		if err != nil {
			return err
		}
		ticketID = id
		_, err = s.repo.InsertTicketMessage(ctx, tx, id, p.UserID, req.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetTicket(ctx, s.pools.Main, ticketID)
}

// TicketForPrincipal loads a ticket and enforces tenant visibility.
func (s *Service) TicketForPrincipal(ctx context.Context, q database.Querier, p *principal.Principal, id int64) (*SupportTicket, error) {
	t, err := s.repo.GetTicket(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if !p.IsSuperAdmin {
		if p.GymID == nil || t.TenantID == nil || *t.TenantID != *p.GymID {
			return nil, errors.NotFound("support ticket")
		}
	}
	return t, nil
}
