package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/logger"
	"github.com/gymstack/gymstack-backend/pkg/messaging"
)

// Service wraps the store with the semantic notifications the pipelines send.
// Every write is best-effort from the caller's point of view: callers that
// must not fail on notification errors check the returned error themselves.
type Service struct {
	repo    *Repository
	emitter messaging.Emitter
	logger  *logger.Logger
}

// NewService creates the notification service.
func NewService(repo *Repository, emitter messaging.Emitter, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		emitter: emitter,
		logger:  log.WithComponent("notification"),
	}
}

// Notify stores one entry and pushes it to the gym room.
func (s *Service) Notify(ctx context.Context, q database.Querier, gymID int64, n *New) (*Notification, error) {
	out, err := s.repo.Insert(ctx, q, n)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, gymID, messaging.EventNotificationCreated, out)
	return out, nil
}

// NotifyMembershipRenewed announces a new or renewed membership to the member.
func (s *Service) NotifyMembershipRenewed(ctx context.Context, q database.Querier, gymID, userID int64, planName string, endDate time.Time) error {
	_, err := s.Notify(ctx, q, gymID, &New{
		UserID:  &userID,
		Type:    TypeMembershipRenewed,
		Title:   "Membership active",
		Message: fmt.Sprintf("Your %s membership is active until %s.", planName, endDate.Format("Jan 2, 2006")),
		Metadata: map[string]interface{}{
			"plan":     planName,
			"end_date": endDate.Format("2006-01-02"),
		},
	})
	return err
}

// NotifyMembershipExpiry warns a member their membership ends in daysLeft
// days. Priority escalates as the date approaches.
func (s *Service) NotifyMembershipExpiry(ctx context.Context, q database.Querier, gymID, userID int64, daysLeft int, endDate time.Time) error {
	priority := PriorityNormal
	switch {
	case daysLeft <= 1:
		priority = PriorityUrgent
	case daysLeft <= 3:
		priority = PriorityHigh
	}

	expires := endDate
	_, err := s.Notify(ctx, q, gymID, &New{
		UserID:   &userID,
		Type:     TypeMembershipExpiry,
		Title:    "Membership expiring soon",
		Message:  fmt.Sprintf("Your membership expires in %d day(s), on %s. Renew to keep access.", daysLeft, endDate.Format("Jan 2, 2006")),
		Priority: priority,
		Metadata: map[string]interface{}{
			"days_left": daysLeft,
			"end_date":  endDate.Format("2006-01-02"),
		},
		ExpiresAt: &expires,
	})
	return err
}

// NotifyAchievementEarned congratulates a member.
func (s *Service) NotifyAchievementEarned(ctx context.Context, q database.Querier, gymID, userID int64, name string) error {
	_, err := s.Notify(ctx, q, gymID, &New{
		UserID:   &userID,
		Type:     TypeAchievementEarned,
		Title:    "Achievement unlocked",
		Message:  fmt.Sprintf("You earned the %q achievement.", name),
		Metadata: map[string]interface{}{"achievement": name},
	})
	return err
}

// NotifyTierChanged announces a loyalty tier move.
func (s *Service) NotifyTierChanged(ctx context.Context, q database.Querier, gymID, userID int64, tierName string) error {
	_, err := s.Notify(ctx, q, gymID, &New{
		UserID:   &userID,
		Type:     TypeTierChanged,
		Title:    "Loyalty tier updated",
		Message:  fmt.Sprintf("Congratulations, you reached the %s tier.", tierName),
		Metadata: map[string]interface{}{"tier": tierName},
	})
	return err
}

// NotifyChurnRisk alerts staff that a member's engagement deteriorated.
// Staff-wide entry: user_id stays empty so every staff login sees it.
func (s *Service) NotifyChurnRisk(ctx context.Context, q database.Querier, gymID, memberID int64, memberName, newRisk string) error {
	_, err := s.Notify(ctx, q, gymID, &New{
		Type:     TypeChurnRisk,
		Title:    "Churn risk",
		Message:  fmt.Sprintf("%s moved to %s churn risk. Consider reaching out.", memberName, newRisk),
		Priority: PriorityHigh,
		Metadata: map[string]interface{}{
			"user_id": memberID,
			"risk":    newRisk,
		},
	})
	return err
}

// NotifySalaryGenerated tells a staff member their payslip for the period is
// ready.
func (s *Service) NotifySalaryGenerated(ctx context.Context, q database.Querier, gymID, staffUserID int64, month, year int) error {
	_, err := s.Notify(ctx, q, gymID, &New{
		UserID:  &staffUserID,
		Type:    TypeSalaryGenerated,
		Title:   "Salary generated",
		Message: fmt.Sprintf("Your salary for %s %d has been generated.", time.Month(month), year),
		Metadata: map[string]interface{}{
			"month": month,
			"year":  year,
		},
	})
	return err
}

// LogError records a notification failure without propagating it. The write
// pipelines treat notifications as best-effort.
func (s *Service) LogError(err error, gymID int64, what string) {
	if err != nil {
		s.logger.Warn().Err(err).Int64("gym_id", gymID).Str("notification", what).Msg("notification write failed")
	}
}
