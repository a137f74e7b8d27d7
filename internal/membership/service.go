package membership

import (
	"context"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/internal/audit"
	"github.com/gymstack/gymstack-backend/internal/notification"
	"github.com/gymstack/gymstack-backend/internal/payment"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Service implements the membership lifecycle. Multi-row transitions run in a
// transaction on the request's tenant connection; the member notification at
// the end is best-effort and never fails the write.
type Service struct {
	repo          *Repository
	payments      *payment.Repository
	notifications *notification.Service
	logger        *logger.Logger
}

// NewService creates the membership service.
func NewService(repo *Repository, payments *payment.Repository, notifications *notification.Service, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		payments:      payments,
		notifications: notifications,
		logger:        log.WithComponent("membership"),
	}
}

func strPtr(s string) *string { return &s }

// Create enrols a member: membership, funding payment and archive entry in
// one transaction. The partial unique index rejects a second active
// membership for the same member.
func (s *Service) Create(ctx context.Context, conn *sqlx.Conn, gymID, actorID int64, req *CreateMembershipRequest) (*Membership, error) {
	plan, err := s.repo.GetPlan(ctx, conn, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, errors.UnprocessableEntity("plan is not available")
	}

	discount := req.DiscountAmount
	if req.OfferID != nil {
		if req.DiscountAmount > 0 {
			return nil, errors.UnprocessableEntity("offer and manual discount are mutually exclusive")
		}
		offer, err := s.repo.ApplicableOffer(ctx, conn, *req.OfferID, req.PlanID, time.Now())
		if err != nil {
			return nil, err
		}
		discount = math.Round(plan.Price*offer.DiscountPct) / 100
	}
	if discount > plan.Price {
		return nil, errors.UnprocessableEntity("discount exceeds the plan price")
	}

	start := time.Now().Truncate(24 * time.Hour)
	if req.StartDate != nil {
		start = req.StartDate.Truncate(24 * time.Hour)
	}
	end := start.AddDate(0, 0, plan.DurationDays)

	var m *Membership
	err = database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		created, err := s.repo.Insert(ctx, tx, req.UserID, req.PlanID, req.BranchID,
			StatusActive, start, end, plan.Price, discount)
		if err != nil {
			return err
		}
		m = created

		_, err = s.payments.Insert(ctx, tx, &payment.New{
			UserID:         &req.UserID,
			MembershipID:   &created.ID,
			Amount:         plan.Price,
			DiscountAmount: discount,
			Method:         req.PaymentMethod,
			Reference:      req.Reference,
			Status:         payment.StatusCompleted,
			BranchID:       req.BranchID,
		})
		if err != nil {
			return err
		}

		return s.repo.InsertHistory(ctx, tx, created, ReasonCreated, nil, nil, strPtr(StatusActive))
	})
	if err != nil {
		return nil, err
	}

	nerr := s.notifications.NotifyMembershipRenewed(ctx, conn, gymID, req.UserID, plan.Name, end)
	s.notifications.LogError(nerr, gymID, notification.TypeMembershipRenewed)

	s.logger.Info().Int64("gym_id", gymID).Int64("user_id", req.UserID).
		Int64("membership_id", m.ID).Msg("membership created")
	return s.repo.Get(ctx, conn, m.ID)
}

// CreateOffer creates an offer together with its plan links.
func (s *Service) CreateOffer(ctx context.Context, conn *sqlx.Conn, req *OfferRequest) (*Offer, error) {
	var offer *Offer
	err := database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		o, err := s.repo.InsertOffer(ctx, tx, req)
		if err != nil {
			return err
		}
		if err := s.repo.SetOfferPlans(ctx, tx, o.ID, req.PlanIDs); err != nil {
			return err
		}
		o.PlanIDs = req.PlanIDs
		offer = o
		return nil
	})
	return offer, err
}

// UpdateOffer rewrites an offer; a plan_ids list in the request replaces the
// existing links.
func (s *Service) UpdateOffer(ctx context.Context, conn *sqlx.Conn, id int64, req *OfferRequest) error {
	return database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateOffer(ctx, tx, id, req); err != nil {
			return err
		}
		if req.PlanIDs != nil {
			return s.repo.SetOfferPlans(ctx, tx, id, req.PlanIDs)
		}
		return nil
	})
}

// Renew closes the current membership and opens the next period. The new
// period starts the day after the old end date when that is still in the
// future, otherwise today.
func (s *Service) Renew(ctx context.Context, conn *sqlx.Conn, gymID, actorID, membershipID int64, req *RenewMembershipRequest) (*Membership, error) {
	current, err := s.repo.Get(ctx, conn, membershipID)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusActive && current.Status != StatusExpired {
		return nil, errors.UnprocessableEntity("only active or expired memberships can be renewed")
	}

	plan, err := s.repo.GetPlan(ctx, conn, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, errors.UnprocessableEntity("plan is not available")
	}

	today := time.Now().Truncate(24 * time.Hour)
	start := today
	if next := current.EndDate.AddDate(0, 0, 1); next.After(today) {
		start = next
	}
	end := start.AddDate(0, 0, plan.DurationDays)

	var renewed *Membership
	err = database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if current.Status == StatusActive {
			if err := s.repo.UpdateStatus(ctx, tx, current.ID, StatusActive, StatusExpired); err != nil {
				return err
			}
			if err := s.repo.InsertHistory(ctx, tx, current, ReasonRenewed, nil,
				strPtr(StatusActive), strPtr(StatusExpired)); err != nil {
				return err
			}
		}

		created, err := s.repo.Insert(ctx, tx, current.UserID, req.PlanID, req.BranchID,
			StatusActive, start, end, plan.Price, req.DiscountAmount)
		if err != nil {
			return err
		}
		renewed = created

		_, err = s.payments.Insert(ctx, tx, &payment.New{
			UserID:         &current.UserID,
			MembershipID:   &created.ID,
			Amount:         plan.Price,
			DiscountAmount: req.DiscountAmount,
			Method:         req.PaymentMethod,
			Reference:      req.Reference,
			Status:         payment.StatusCompleted,
			BranchID:       req.BranchID,
		})
		if err != nil {
			return err
		}

		return s.repo.InsertHistory(ctx, tx, created, ReasonCreated, nil, nil, strPtr(StatusActive))
	})
	if err != nil {
		return nil, err
	}

	nerr := s.notifications.NotifyMembershipRenewed(ctx, conn, gymID, current.UserID, plan.Name, end)
	s.notifications.LogError(nerr, gymID, notification.TypeMembershipRenewed)

	return s.repo.Get(ctx, conn, renewed.ID)
}

// Cancel ends a membership early, recording the member's stated reason.
func (s *Service) Cancel(ctx context.Context, conn *sqlx.Conn, gymID, actorID, membershipID int64, reasonCode string) (*Membership, error) {
	current, err := s.repo.Get(ctx, conn, membershipID)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusActive && current.Status != StatusSuspended {
		return nil, errors.UnprocessableEntity("only active or suspended memberships can be cancelled")
	}

	err = database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatus(ctx, tx, current.ID, current.Status, StatusCancelled); err != nil {
			return err
		}
		return s.repo.InsertHistory(ctx, tx, current, ReasonCancelled, &reasonCode,
			strPtr(current.Status), strPtr(StatusCancelled))
	})
	if err != nil {
		return nil, err
	}

	audit.Record(ctx, conn, s.logger, audit.Entry{
		ActorID:  &actorID,
		Action:   "cancel",
		Entity:   "membership",
		EntityID: &membershipID,
		Detail:   map[string]interface{}{"reason": reasonCode},
	})

	s.logger.Info().Int64("gym_id", gymID).Int64("membership_id", membershipID).
		Str("reason", reasonCode).Msg("membership cancelled")
	return s.repo.Get(ctx, conn, membershipID)
}

// Freeze suspends an active membership.
func (s *Service) Freeze(ctx context.Context, conn *sqlx.Conn, gymID, actorID, membershipID int64, reason *string) (*Freeze, error) {
	current, err := s.repo.Get(ctx, conn, membershipID)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusActive {
		return nil, errors.UnprocessableEntity("only active memberships can be frozen")
	}

	var frozen *Freeze
	err = database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatus(ctx, tx, current.ID, StatusActive, StatusSuspended); err != nil {
			return err
		}
		f, err := s.repo.InsertFreeze(ctx, tx, current.ID, reason, actorID)
		if err != nil {
			return err
		}
		frozen = f
		return s.repo.InsertHistory(ctx, tx, current, ReasonFrozen, nil,
			strPtr(StatusActive), strPtr(StatusSuspended))
	})
	if err != nil {
		return nil, err
	}

	audit.Record(ctx, conn, s.logger, audit.Entry{
		ActorID:  &actorID,
		Action:   "freeze",
		Entity:   "membership",
		EntityID: &membershipID,
	})
	return frozen, nil
}

// Resume reactivates a suspended membership and extends the end date by the
// days spent frozen, so the member keeps the full paid period.
func (s *Service) Resume(ctx context.Context, conn *sqlx.Conn, gymID, actorID, membershipID int64) (*Membership, error) {
	current, err := s.repo.Get(ctx, conn, membershipID)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusSuspended {
		return nil, errors.UnprocessableEntity("only suspended memberships can be resumed")
	}

	open, err := s.repo.OpenFreeze(ctx, conn, membershipID)
	if err != nil {
		return nil, err
	}

	err = database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatus(ctx, tx, current.ID, StatusSuspended, StatusActive); err != nil {
			return err
		}
		if open != nil {
			frozenDays := int(time.Since(open.FrozenAt).Hours() / 24)
			if frozenDays > 0 {
				if err := s.repo.ExtendEndDate(ctx, tx, current.ID, frozenDays); err != nil {
					return err
				}
			}
			if err := s.repo.CloseFreeze(ctx, tx, open.ID); err != nil {
				return err
			}
		}
		return s.repo.InsertHistory(ctx, tx, current, ReasonResumed, nil,
			strPtr(StatusSuspended), strPtr(StatusActive))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, conn, membershipID)
}

// ExpireDue flips every overdue membership to expired and archives each
// transition. The scheduler's hourly sweep calls this per tenant.
func (s *Service) ExpireDue(ctx context.Context, conn *sqlx.Conn, gymID int64) (int, error) {
	var count int
	err := database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		expired, err := s.repo.ExpireDue(ctx, tx)
		if err != nil {
			return err
		}
		count = len(expired)
		for i := range expired {
			if err := s.repo.InsertHistory(ctx, tx, &expired[i], ReasonExpired, nil,
				strPtr(StatusActive), strPtr(StatusExpired)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info().Int64("gym_id", gymID).Int("count", count).Msg("memberships expired")
	}
	return count, nil
}

// SendExpiryNotices warns members whose membership ends in exactly daysAhead
// days. Returns the number of notices written.
func (s *Service) SendExpiryNotices(ctx context.Context, conn *sqlx.Conn, gymID int64, daysAhead int) (int, error) {
	due, err := s.repo.ExpiringIn(ctx, conn, daysAhead)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range due {
		m := &due[i]
		if err := s.notifications.NotifyMembershipExpiry(ctx, conn, gymID, m.UserID, daysAhead, m.EndDate); err != nil {
			s.notifications.LogError(err, gymID, notification.TypeMembershipExpiry)
			continue
		}
		sent++
	}
	return sent, nil
}
