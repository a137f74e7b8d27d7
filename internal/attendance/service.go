package attendance

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gymstack/gymstack-backend/internal/audit"
	"github.com/gymstack/gymstack-backend/internal/engagement"
	"github.com/gymstack/gymstack-backend/internal/gamification"
	"github.com/gymstack/gymstack-backend/internal/loyalty"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/logger"
	"github.com/gymstack/gymstack-backend/pkg/messaging"
)

// Service records visits and drives the check-in pipeline.
type Service struct {
	repo         *Repository
	gamification *gamification.Service
	loyalty      *loyalty.Service
	engagement   *engagement.Service
	emitter      messaging.Emitter
	logger       *logger.Logger
}

// NewService creates the attendance service.
func NewService(repo *Repository, gam *gamification.Service, loy *loyalty.Service, eng *engagement.Service, emitter messaging.Emitter, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		gamification: gam,
		loyalty:      loy,
		engagement:   eng,
		emitter:      emitter,
		logger:       log.WithComponent("attendance"),
	}
}

// CheckIn opens a visit and runs the downstream pipeline on the same tenant
// connection. The attendance row is the source of truth; streaks, challenges,
// points and the engagement score are best-effort and never fail the check-in.
func (s *Service) CheckIn(ctx context.Context, conn *sqlx.Conn, gymID int64, req *CheckInRequest) (*CheckInResult, error) {
	if open, err := s.repo.OpenVisit(ctx, conn, req.UserID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, errors.Conflict("member is already checked in")
	}

	source := req.Source
	if source == "" {
		source = SourceManual
	}
	record, err := s.repo.Insert(ctx, conn, req.UserID, req.BranchID, source)
	if err != nil {
		return nil, err
	}

	result := &CheckInResult{Record: record}

	visit, err := s.gamification.RecordVisit(ctx, conn, gymID, req.UserID, record.CheckedIn)
	if err != nil {
		s.logger.Warn().Err(err).Int64("gym_id", gymID).Int64("user_id", req.UserID).
			Msg("visit gamification pipeline failed")
	} else {
		result.StreakCount = visit.Streak.CurrentCount
		result.NewBadges = visit.AchievementsEarned
	}

	points, err := s.loyalty.AwardVisitPoints(ctx, conn, gymID, req.UserID, record.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("gym_id", gymID).Int64("user_id", req.UserID).
			Msg("visit points award failed")
	} else {
		result.PointsAwarded = points
	}

	if _, err := s.engagement.ComputeForUser(ctx, conn, gymID, req.UserID); err != nil {
		s.logger.Warn().Err(err).Int64("gym_id", gymID).Int64("user_id", req.UserID).
			Msg("engagement recompute failed")
	}

	audit.Record(ctx, conn, s.logger, audit.Entry{
		ActorID:  &record.UserID,
		Action:   "check_in",
		Entity:   "attendance",
		EntityID: &record.ID,
		Detail:   map[string]interface{}{"source": source},
	})

	s.emitter.Emit(ctx, gymID, messaging.EventAttendanceMarked, map[string]interface{}{
		"attendance_id": record.ID,
		"user_id":       record.UserID,
		"checked_in":    record.CheckedIn.Format(time.RFC3339),
	})

	return result, nil
}

// CheckOut closes an open visit.
func (s *Service) CheckOut(ctx context.Context, conn *sqlx.Conn, gymID, id int64) (*Record, error) {
	record, err := s.repo.CheckOut(ctx, conn, id)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, gymID, messaging.EventAttendanceMarked, map[string]interface{}{
		"attendance_id": record.ID,
		"user_id":       record.UserID,
		"checked_out":   record.CheckedOut.Format(time.RFC3339),
	})
	return record, nil
}
