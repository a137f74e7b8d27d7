package engagement

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// Repository holds the tenant engagement queries.
type Repository struct{}

// NewRepository creates the engagement repository.
func NewRepository() *Repository {
	return &Repository{}
}

// inputsRow carries the raw signals straight out of one aggregate query.
type inputsRow struct {
	VisitsLast30       int           `db:"visits_last_30"`
	VisitsPrev30       int           `db:"visits_prev_30"`
	DaysSinceLastVisit sql.NullInt64 `db:"days_since_last_visit"`
	CompletedPayments  int           `db:"completed_payments"`
	FailedPayments     int           `db:"failed_payments"`
	TenureDays         int           `db:"tenure_days"`
	ChallengesJoined   int           `db:"challenges_joined"`
	AchievementsEarned int           `db:"achievements_earned"`
}

// GatherInputs collects one member's scoring signals in a single round trip.
func (r *Repository) GatherInputs(ctx context.Context, q database.Querier, userID int64) (Inputs, error) {
	var row inputsRow
	err := q.GetContext(ctx, &row, `
		SELECT
			(SELECT count(*) FROM attendance
			 WHERE user_id = $1 AND is_deleted = FALSE
			   AND checked_in >= now() - INTERVAL '30 days') AS visits_last_30,
			(SELECT count(*) FROM attendance
			 WHERE user_id = $1 AND is_deleted = FALSE
			   AND checked_in >= now() - INTERVAL '60 days'
			   AND checked_in < now() - INTERVAL '30 days') AS visits_prev_30,
			(SELECT (CURRENT_DATE - max(checked_in)::date) FROM attendance
			 WHERE user_id = $1 AND is_deleted = FALSE) AS days_since_last_visit,
			(SELECT count(*) FROM payments
			 WHERE user_id = $1 AND is_deleted = FALSE AND status = 'completed') AS completed_payments,
			(SELECT count(*) FROM payments
			 WHERE user_id = $1 AND is_deleted = FALSE AND status = 'failed') AS failed_payments,
			COALESCE((SELECT (CURRENT_DATE - min(start_date)) FROM memberships
			 WHERE user_id = $1 AND is_deleted = FALSE), 0) AS tenure_days,
			(SELECT count(*) FROM challenge_participants WHERE user_id = $1) AS challenges_joined,
			(SELECT count(*) FROM user_achievements WHERE user_id = $1) AS achievements_earned`,
		userID)
	if err != nil {
		return Inputs{}, err
	}

	in := Inputs{
		VisitsLast30:       row.VisitsLast30,
		VisitsPrev30:       row.VisitsPrev30,
		DaysSinceLastVisit: -1,
		CompletedPayments:  row.CompletedPayments,
		FailedPayments:     row.FailedPayments,
		TenureDays:         row.TenureDays,
		ChallengesJoined:   row.ChallengesJoined,
		AchievementsEarned: row.AchievementsEarned,
	}
	if row.DaysSinceLastVisit.Valid {
		in.DaysSinceLastVisit = int(row.DaysSinceLastVisit.Int64)
	}
	return in, nil
}

// LockMember takes the user row lock that serialises concurrent score
// computations for one member.
func (r *Repository) LockMember(ctx context.Context, q database.Querier, userID int64) error {
	var id int64
	err := q.GetContext(ctx, &id, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err == sql.ErrNoRows {
		return errors.NotFound("user")
	}
	return err
}

// CurrentScore returns a member's live snapshot, nil when never scored.
func (r *Repository) CurrentScore(ctx context.Context, q database.Querier, userID int64) (*Score, error) {
	var s Score
	err := q.GetContext(ctx, &s, `
		SELECT id, user_id, visit_frequency, visit_recency, attendance_trend,
		       payment_reliability, membership_tenure, engagement_depth,
		       overall_score, risk_level, is_current, computed_at, NULL AS user_name
		FROM engagement_scores
		WHERE user_id = $1 AND is_current = TRUE`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertScore retires the previous snapshot and writes the new current one.
// Both statements must run inside one transaction or the partial unique index
// rejects the insert.
func (r *Repository) InsertScore(ctx context.Context, q database.Querier, userID int64, s Scores, risk string) (*Score, error) {
	if _, err := q.ExecContext(ctx, `
		UPDATE engagement_scores SET is_current = FALSE
		WHERE user_id = $1 AND is_current = TRUE`, userID); err != nil {
		return nil, database.MapPQError(err)
	}

	var score Score
	err := q.GetContext(ctx, &score, `
		INSERT INTO engagement_scores (user_id, visit_frequency, visit_recency,
			attendance_trend, payment_reliability, membership_tenure,
			engagement_depth, overall_score, risk_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, visit_frequency, visit_recency, attendance_trend,
			payment_reliability, membership_tenure, engagement_depth,
			overall_score, risk_level, is_current, computed_at, NULL AS user_name`,
		userID, s.VisitFrequency, s.VisitRecency, s.AttendanceTrend,
		s.PaymentReliability, s.MembershipTenure, s.EngagementDepth,
		s.Overall, risk)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &score, nil
}

// ListAtRisk returns current snapshots at high or critical risk, worst first.
func (r *Repository) ListAtRisk(ctx context.Context, q database.Querier, pg sqlkit.Pagination) ([]Score, int64, error) {
	const from = `
		FROM engagement_scores es
		JOIN users u ON u.id = es.user_id
		WHERE es.is_current = TRUE AND es.risk_level IN ('high', 'critical')
		  AND u.is_deleted = FALSE AND u.is_active = TRUE`

	var total int64
	if err := q.GetContext(ctx, &total, "SELECT count(*) "+from); err != nil {
		return nil, 0, err
	}

	scores := []Score{}
	err := q.SelectContext(ctx, &scores, `
		SELECT es.id, es.user_id, es.visit_frequency, es.visit_recency,
		       es.attendance_trend, es.payment_reliability, es.membership_tenure,
		       es.engagement_depth, es.overall_score, es.risk_level,
		       es.is_current, es.computed_at, u.name AS user_name`+
		from+" ORDER BY es.overall_score"+pg.LimitOffset())
	if err != nil {
		return nil, 0, err
	}
	return scores, total, nil
}

// UserName resolves a member's display name for alert messages.
func (r *Repository) UserName(ctx context.Context, q database.Querier, userID int64) (string, error) {
	var name string
	err := q.GetContext(ctx, &name, `SELECT name FROM users WHERE id = $1`, userID)
	if err == sql.ErrNoRows {
		return "", errors.NotFound("user")
	}
	return name, err
}

// MemberIDs lists the active members to score.
func (r *Repository) MemberIDs(ctx context.Context, q database.Querier) ([]int64, error) {
	ids := []int64{}
	err := q.SelectContext(ctx, &ids, `
		SELECT id FROM users
		WHERE role = 'member' AND is_deleted = FALSE AND is_active = TRUE
		ORDER BY id`)
	return ids, err
}

// InsertAlert records a risk deterioration with the sub-scores as factors.
func (r *Repository) InsertAlert(ctx context.Context, q database.Querier, userID int64, previousRisk, newRisk string, s Scores, message string) (*ChurnAlert, error) {
	factors, err := json.Marshal(map[string]float64{
		"visit_frequency":     s.VisitFrequency,
		"visit_recency":       s.VisitRecency,
		"attendance_trend":    s.AttendanceTrend,
		"payment_reliability": s.PaymentReliability,
		"membership_tenure":   s.MembershipTenure,
		"engagement_depth":    s.EngagementDepth,
	})
	if err != nil {
		return nil, err
	}

	var alert ChurnAlert
	err = q.GetContext(ctx, &alert, `
		INSERT INTO churn_alerts (user_id, previous_risk, new_risk, factors, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, previous_risk, new_risk, factors, message, status,
			created_at, NULL AS user_name`,
		userID, previousRisk, newRisk, factors, message)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &alert, nil
}

// ListAlerts returns churn alerts newest first, optionally by status.
func (r *Repository) ListAlerts(ctx context.Context, q database.Querier, status *string, pg sqlkit.Pagination) ([]ChurnAlert, int64, error) {
	where := sqlkit.NewWhere()
	if status != nil {
		where.Add("ca.status", "=", *status)
	}
	from := " FROM churn_alerts ca JOIN users u ON u.id = ca.user_id " + where.Clause()

	var total int64
	if err := q.GetContext(ctx, &total, "SELECT count(*)"+from, where.Args()...); err != nil {
		return nil, 0, err
	}

	alerts := []ChurnAlert{}
	err := q.SelectContext(ctx, &alerts, `
		SELECT ca.id, ca.user_id, ca.previous_risk, ca.new_risk, ca.factors,
		       ca.message, ca.status, ca.created_at, u.name AS user_name`+
		from+" ORDER BY ca.created_at DESC"+pg.LimitOffset(), where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// UpdateAlertStatus moves an alert through open, acknowledged, resolved.
func (r *Repository) UpdateAlertStatus(ctx context.Context, q database.Querier, id int64, status string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE churn_alerts SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("churn alert")
	}
	return nil
}
