package salary

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/internal/notification"
	"github.com/gymstack/gymstack-backend/internal/payment"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Service manages payroll rows and their audit trail.
type Service struct {
	repo          *Repository
	payments      *payment.Repository
	notifications *notification.Service
	logger        *logger.Logger
}

// NewService creates the salary service.
func NewService(repo *Repository, payments *payment.Repository, notifications *notification.Service, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		payments:      payments,
		notifications: notifications,
		logger:        log.WithComponent("salary"),
	}
}

// Create adds a salary row with its first audit record.
func (s *Service) Create(ctx context.Context, conn *sqlx.Conn, req *CreateSalaryRequest) (*Salary, error) {
	var out *Salary
	err := database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		var err error
		out, err = s.repo.Insert(ctx, tx, req)
		if err != nil {
			return err
		}
		return s.repo.InsertHistory(ctx, tx, out.ID, ChangeCreated, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update edits a pending salary row and records the new state.
func (s *Service) Update(ctx context.Context, conn *sqlx.Conn, id int64, req *UpdateSalaryRequest) (*Salary, error) {
	var out *Salary
	err := database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.Update(ctx, tx, id, req); err != nil {
			return err
		}
		var err error
		out, err = s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.repo.InsertHistory(ctx, tx, id, ChangeUpdated, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaid settles a pending salary: flips the status and writes the payout
// to the payments ledger in one transaction, then tells the staff member.
func (s *Service) MarkPaid(ctx context.Context, conn *sqlx.Conn, gymID, id, paidBy int64, req *MarkPaidRequest) (*Salary, error) {
	method := req.Method
	if method == "" {
		method = "bank_transfer"
	}

	var out *Salary
	err := database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.MarkPaid(ctx, tx, id, paidBy); err != nil {
			return err
		}
		var err error
		out, err = s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err = s.payments.Insert(ctx, tx, &payment.New{
			SalaryID: &id,
			Amount:   out.NetAmount,
			Method:   method,
			Status:   payment.StatusCompleted,
		}); err != nil {
			return err
		}
		return s.repo.InsertHistory(ctx, tx, id, ChangePaid, out)
	})
	if err != nil {
		return nil, err
	}

	nerr := s.notifications.NotifySalaryGenerated(ctx, conn, gymID, out.StaffUserID, out.Month, out.Year)
	s.notifications.LogError(nerr, gymID, notification.TypeSalaryGenerated)
	return out, nil
}

// Cancel voids a pending salary.
func (s *Service) Cancel(ctx context.Context, conn *sqlx.Conn, id int64) error {
	return database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.Cancel(ctx, tx, id); err != nil {
			return err
		}
		out, err := s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.repo.InsertHistory(ctx, tx, id, ChangeCancelled, out)
	})
}

// GenerateMonth materialises the period's recurring salaries and notifies each
// staff member. Re-running a period generates nothing. Scheduler calls this on
// the first of the month.
func (s *Service) GenerateMonth(ctx context.Context, conn *sqlx.Conn, gymID int64, period time.Time) (int, error) {
	month, year := int(period.Month()), period.Year()

	var generated []Salary
	err := database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		var err error
		generated, err = s.repo.GenerateRecurring(ctx, tx, month, year)
		if err != nil {
			return err
		}
		for i := range generated {
			if err := s.repo.InsertHistory(ctx, tx, generated[i].ID, ChangeGenerated, &generated[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i := range generated {
		nerr := s.notifications.NotifySalaryGenerated(ctx, conn, gymID, generated[i].StaffUserID, month, year)
		s.notifications.LogError(nerr, gymID, notification.TypeSalaryGenerated)
	}
	if len(generated) > 0 {
		s.logger.Info().Int64("gym_id", gymID).Int("month", month).Int("year", year).
			Int("salaries", len(generated)).Msg("recurring salaries generated")
	}
	return len(generated), nil
}
