package gamification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gymstack/gymstack-backend/internal/notification"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/logger"
	"github.com/gymstack/gymstack-backend/pkg/messaging"
)

// Service runs the visit pipeline and the challenge calendar.
type Service struct {
	repo          *Repository
	notifications *notification.Service
	emitter       messaging.Emitter
	logger        *logger.Logger
}

// NewService creates the gamification service.
func NewService(repo *Repository, notifications *notification.Service, emitter messaging.Emitter, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		notifications: notifications,
		emitter:       emitter,
		logger:        log.WithComponent("gamification"),
	}
}

// VisitResult summarises what one check-in changed.
type VisitResult struct {
	Streak             *Streak `json:"streak"`
	ChallengesAdvanced int64   `json:"challenges_advanced"`
	AchievementsEarned int     `json:"achievements_earned"`
}

// RecordVisit applies one check-in: advance the streak, push the member's
// active challenges, then evaluate achievements against the new totals.
// Runs on the caller's connection so it shares the attendance write's schema.
func (s *Service) RecordVisit(ctx context.Context, q database.Querier, gymID, userID int64, visitedAt time.Time) (*VisitResult, error) {
	today := visitedAt

	var current, longest int
	existing, err := s.repo.GetStreak(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		current, longest = existing.CurrentCount, existing.LongestCount
	}
	firstOfDay := existing == nil || existing.LastEventOn == nil || !sameDay(*existing.LastEventOn, today)
	current, longest = AdvanceStreak(current, longest, lastEventOf(existing), today)

	streak, err := s.repo.UpsertStreak(ctx, q, userID, current, longest, today)
	if err != nil {
		return nil, err
	}

	result := &VisitResult{Streak: streak}

	// Repeat check-ins on the same day do not advance challenges.
	if firstOfDay {
		advanced, err := s.repo.AdvanceParticipants(ctx, q, userID, 1)
		if err != nil {
			return nil, err
		}
		result.ChallengesAdvanced = advanced
		if advanced > 0 {
			s.emitter.Emit(ctx, gymID, messaging.EventChallengeUpdated, map[string]interface{}{
				"user_id": userID,
			})
		}
	}

	earned, err := s.EvaluateAchievements(ctx, q, gymID, userID, streak.CurrentCount)
	if err != nil {
		return nil, err
	}
	result.AchievementsEarned = earned

	return result, nil
}

func lastEventOf(s *Streak) *time.Time {
	if s == nil {
		return nil
	}
	return s.LastEventOn
}

// EvaluateAchievements awards every active badge whose criteria the member
// now meets. Already-earned badges are skipped by the primary key.
func (s *Service) EvaluateAchievements(ctx context.Context, q database.Querier, gymID, userID int64, currentStreak int) (int, error) {
	achievements, err := s.repo.ListAchievements(ctx, q, true)
	if err != nil {
		return 0, err
	}

	totalVisits := -1
	earned := 0
	for i := range achievements {
		a := &achievements[i]

		var c Criteria
		if err := json.Unmarshal(a.Criteria, &c); err != nil {
			s.logger.Warn().Int64("achievement_id", a.ID).Msg("unparseable achievement criteria")
			continue
		}

		met := false
		switch c.Type {
		case CriteriaTotalVisits:
			if totalVisits < 0 {
				totalVisits, err = s.repo.TotalVisits(ctx, q, userID)
				if err != nil {
					return earned, err
				}
			}
			met = totalVisits >= c.Value
		case CriteriaStreakDays:
			met = currentStreak >= c.Value
		}
		if !met {
			continue
		}

		awarded, err := s.repo.Award(ctx, q, userID, a.ID)
		if err != nil {
			return earned, err
		}
		if awarded {
			earned++
			nerr := s.notifications.NotifyAchievementEarned(ctx, q, gymID, userID, a.Name)
			s.notifications.LogError(nerr, gymID, notification.TypeAchievementEarned)
		}
	}
	return earned, nil
}

// CreateChallenge validates the window and creates an upcoming challenge.
func (s *Service) CreateChallenge(ctx context.Context, q database.Querier, req *ChallengeRequest) (*Challenge, error) {
	if !req.EndsOn.After(req.StartsOn) {
		return nil, errors.UnprocessableEntity("challenge must end after it starts")
	}
	return s.repo.InsertChallenge(ctx, q, req)
}

// RollCalendar moves the gym's challenges with the date: open windows
// activate, closed windows complete. Scheduler runs this daily per tenant.
func (s *Service) RollCalendar(ctx context.Context, q database.Querier, gymID int64) error {
	activated, err := s.repo.ActivateDueChallenges(ctx, q)
	if err != nil {
		return err
	}
	completed, err := s.repo.CompleteDueChallenges(ctx, q)
	if err != nil {
		return err
	}
	if activated > 0 || completed > 0 {
		s.logger.Info().Int64("gym_id", gymID).
			Int64("activated", activated).Int64("completed", completed).
			Msg("challenge calendar rolled")
		s.emitter.Emit(ctx, gymID, messaging.EventChallengeUpdated, map[string]int64{
			"activated": activated, "completed": completed,
		})
	}
	return nil
}
