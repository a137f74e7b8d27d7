package engagement

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/internal/notification"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Service computes scores and raises churn alerts.
type Service struct {
	repo          *Repository
	notifications *notification.Service
	logger        *logger.Logger
}

// NewService creates the engagement service.
func NewService(repo *Repository, notifications *notification.Service, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		notifications: notifications,
		logger:        log.WithComponent("engagement"),
	}
}

// ComputeForUser gathers a member's signals, stores the new snapshot and, on
// a worse risk level, records a churn alert and pings staff.
func (s *Service) ComputeForUser(ctx context.Context, conn *sqlx.Conn, gymID, userID int64) (*Score, error) {
	in, err := s.repo.GatherInputs(ctx, conn, userID)
	if err != nil {
		return nil, err
	}
	scores := Compute(in)
	risk := RiskLevel(scores.Overall)

	var score, previous *Score
	err = database.ConnTransaction(ctx, conn, s.logger, func(tx *sqlx.Tx) error {
		if err := s.repo.LockMember(ctx, tx, userID); err != nil {
			return err
		}
		previous, err = s.repo.CurrentScore(ctx, tx, userID)
		if err != nil {
			return err
		}
		score, err = s.repo.InsertScore(ctx, tx, userID, scores, risk)
		return err
	})
	if err != nil {
		return nil, err
	}

	if previous != nil && Deteriorated(previous.RiskLevel, risk) {
		msg := fmt.Sprintf("engagement dropped from %s to %s risk", previous.RiskLevel, risk)
		if _, aerr := s.repo.InsertAlert(ctx, conn, userID, previous.RiskLevel, risk, scores, msg); aerr != nil {
			return nil, aerr
		}
		name, nerr := s.repo.UserName(ctx, conn, userID)
		if nerr != nil {
			return nil, nerr
		}
		nerr = s.notifications.NotifyChurnRisk(ctx, conn, gymID, userID, name, risk)
		s.notifications.LogError(nerr, gymID, notification.TypeChurnRisk)
	}
	return score, nil
}

// RecomputeAll scores every active member. A failing member stops the run so
// the scheduler retries the whole batch next cycle.
func (s *Service) RecomputeAll(ctx context.Context, conn *sqlx.Conn, gymID int64) (int, error) {
	ids, err := s.repo.MemberIDs(ctx, conn)
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if _, err := s.ComputeForUser(ctx, conn, gymID, id); err != nil {
			return i, fmt.Errorf("scoring user %d: %w", id, err)
		}
	}
	s.logger.Info().Int64("gym_id", gymID).Int("members", len(ids)).Msg("engagement scores recomputed")
	return len(ids), nil
}
