package gamification

import (
	"context"
	"database/sql"
	"time"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the tenant gamification queries.
type Repository struct{}

// NewRepository creates the gamification repository.
func NewRepository() *Repository {
	return &Repository{}
}

// --- streaks ---

// GetStreak returns a member's streak row, nil when they never visited.
func (r *Repository) GetStreak(ctx context.Context, q database.Querier, userID int64) (*Streak, error) {
	var s Streak
	err := q.GetContext(ctx, &s, `
		SELECT id, user_id, streak_type, current_count, longest_count, last_event_on, created_at, updated_at
		FROM streaks WHERE user_id = $1 AND streak_type = $2`, userID, StreakTypeDailyVisit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertStreak writes the advanced counters for today's visit.
func (r *Repository) UpsertStreak(ctx context.Context, q database.Querier, userID int64, current, longest int, today time.Time) (*Streak, error) {
	var s Streak
	err := q.GetContext(ctx, &s, `
		INSERT INTO streaks (user_id, streak_type, current_count, longest_count, last_event_on)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, streak_type) DO UPDATE SET
			current_count = EXCLUDED.current_count,
			longest_count = EXCLUDED.longest_count,
			last_event_on = EXCLUDED.last_event_on,
			updated_at = now()
		RETURNING id, user_id, streak_type, current_count, longest_count, last_event_on, created_at, updated_at`,
		userID, StreakTypeDailyVisit, current, longest, today)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &s, nil
}

// --- challenges ---

const challengeColumns = `id, name, description, metric, goal_value, starts_on, ends_on, status, branch_id, created_at, updated_at`

// ListChallenges returns challenges, optionally by status, branch scoped.
func (r *Repository) ListChallenges(ctx context.Context, q database.Querier, status string, branchScope *int64) ([]Challenge, error) {
	where := sqlkit.NewWhere().
		ExcludeDeleted("is_deleted").
		AddIf(status != "", "status", "=", status).
		BranchScope("branch_id", branchScope)

	challenges := []Challenge{}
	err := q.SelectContext(ctx, &challenges,
		"SELECT "+challengeColumns+" FROM challenges "+where.Clause()+" ORDER BY starts_on DESC", where.Args()...)
	return challenges, err
}

// GetChallenge returns one challenge.
func (r *Repository) GetChallenge(ctx context.Context, q database.Querier, id int64) (*Challenge, error) {
	var c Challenge
	err := q.GetContext(ctx, &c,
		"SELECT "+challengeColumns+" FROM challenges WHERE id = $1 AND is_deleted = FALSE", id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("challenge")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertChallenge creates a challenge in the upcoming state.
func (r *Repository) InsertChallenge(ctx context.Context, q database.Querier, req *ChallengeRequest) (*Challenge, error) {
	metric := req.Metric
	if metric == "" {
		metric = "attendance"
	}
	var c Challenge
	err := q.GetContext(ctx, &c, `
		INSERT INTO challenges (name, description, metric, goal_value, starts_on, ends_on, branch_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+challengeColumns,
		req.Name, req.Description, metric, req.GoalValue, req.StartsOn, req.EndsOn, req.BranchID)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &c, nil
}

// CancelChallenge withdraws an upcoming or active challenge.
func (r *Repository) CancelChallenge(ctx context.Context, q database.Querier, id, deletedBy int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE challenges SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status IN ('upcoming', 'active') AND is_deleted = FALSE`, id)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.UnprocessableEntity("challenge cannot be cancelled")
	}
	return nil
}

// ActivateDueChallenges flips upcoming challenges whose window has opened.
func (r *Repository) ActivateDueChallenges(ctx context.Context, q database.Querier) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE challenges SET status = 'active', updated_at = now()
		WHERE status = 'upcoming' AND starts_on <= CURRENT_DATE AND is_deleted = FALSE`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CompleteDueChallenges flips active challenges whose window has closed.
func (r *Repository) CompleteDueChallenges(ctx context.Context, q database.Querier) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE challenges SET status = 'completed', updated_at = now()
		WHERE status = 'active' AND ends_on < CURRENT_DATE AND is_deleted = FALSE`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// --- participants ---

// JoinChallenge enrols a member; joining twice is a conflict.
func (r *Repository) JoinChallenge(ctx context.Context, q database.Querier, challengeID, userID int64) (*Participant, error) {
	var p Participant
	err := q.GetContext(ctx, &p, `
		INSERT INTO challenge_participants (challenge_id, user_id)
		VALUES ($1, $2)
		RETURNING id, challenge_id, user_id, current_value, progress_pct, completed_at, joined_at`,
		challengeID, userID)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &p, nil
}

// ListParticipants returns a challenge's leaderboard, highest progress first.
func (r *Repository) ListParticipants(ctx context.Context, q database.Querier, challengeID int64) ([]Participant, error) {
	participants := []Participant{}
	err := q.SelectContext(ctx, &participants, `
		SELECT cp.id, cp.challenge_id, cp.user_id, cp.current_value, cp.progress_pct,
		       cp.completed_at, cp.joined_at, u.name AS user_name
		FROM challenge_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.challenge_id = $1
		ORDER BY cp.current_value DESC, cp.joined_at`, challengeID)
	return participants, err
}

// AdvanceParticipants adds delta to every active visit-metric challenge the
// member joined, recomputing progress and stamping completion at 100%.
// Progress is clamped so overshooting the goal reads as exactly 100.
func (r *Repository) AdvanceParticipants(ctx context.Context, q database.Querier, userID int64, delta float64) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE challenge_participants cp
		SET current_value = cp.current_value + $1,
		    progress_pct = LEAST((cp.current_value + $1) / c.goal_value * 100, 100),
		    completed_at = CASE
			WHEN cp.completed_at IS NULL AND cp.current_value + $1 >= c.goal_value THEN now()
			ELSE cp.completed_at
		    END
		FROM challenges c
		WHERE c.id = cp.challenge_id
		  AND cp.user_id = $2
		  AND c.status = 'active'
		  AND c.metric IN ('attendance', 'visits')
		  AND c.is_deleted = FALSE`, delta, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// --- achievements ---

// ListAchievements returns the gym's badge catalogue.
func (r *Repository) ListAchievements(ctx context.Context, q database.Querier, activeOnly bool) ([]Achievement, error) {
	where := sqlkit.NewWhere()
	if activeOnly {
		where.Add("is_active", "=", true)
	}
	achievements := []Achievement{}
	err := q.SelectContext(ctx, &achievements,
		"SELECT id, name, description, icon, criteria, is_active, created_at FROM achievements "+
			where.Clause()+" ORDER BY id", where.Args()...)
	return achievements, err
}

// ListEarned returns a member's badges newest first.
func (r *Repository) ListEarned(ctx context.Context, q database.Querier, userID int64) ([]Earned, error) {
	earned := []Earned{}
	err := q.SelectContext(ctx, &earned, `
		SELECT ua.user_id, ua.achievement_id, ua.earned_at, a.name, a.icon
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1 ORDER BY ua.earned_at DESC`, userID)
	return earned, err
}

// Award grants a badge once; re-awarding is a silent no-op.
func (r *Repository) Award(ctx context.Context, q database.Querier, userID, achievementID int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, achievementID)
	if err != nil {
		return false, database.MapPQError(err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// TotalVisits counts a member's lifetime check-ins.
func (r *Repository) TotalVisits(ctx context.Context, q database.Querier, userID int64) (int, error) {
	var n int
	err := q.GetContext(ctx, &n,
		`SELECT count(*) FROM attendance WHERE user_id = $1 AND is_deleted = FALSE`, userID)
	return n, err
}
