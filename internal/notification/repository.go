package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/errors"
	"github.com/gymstack/gymstack-backend/pkg/sqlkit"
)

// MaxFeedLimit caps one feed read.
const MaxFeedLimit = 50

// Repository holds the tenant notification queries.
type Repository struct{}

// NewRepository creates the notification repository.
func NewRepository() *Repository {
	return &Repository{}
}

const columns = `id, user_id, type, title, message, priority, metadata, is_read, read_at, expires_at, created_at`

func marshalMetadata(meta interface{}) (interface{}, error) {
	if meta == nil {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal notification metadata: %w", err)
	}
	return b, nil
}

// Insert stores one notification.
func (r *Repository) Insert(ctx context.Context, q database.Querier, n *New) (*Notification, error) {
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	meta, err := marshalMetadata(n.Metadata)
	if err != nil {
		return nil, err
	}

	var out Notification
	err = q.GetContext(ctx, &out, `
		INSERT INTO notifications (user_id, type, title, message, priority, metadata, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+columns,
		n.UserID, n.Type, n.Title, n.Message, n.Priority, meta, n.ExpiresAt)
	if err != nil {
		return nil, database.MapPQError(err)
	}
	return &out, nil
}

// BulkInsert stores many notifications in one statement. Used by scheduler
// sweeps that touch every member of a gym.
func (r *Repository) BulkInsert(ctx context.Context, q database.Querier, items []New) error {
	if len(items) == 0 {
		return nil
	}

	values := make([]string, 0, len(items))
	args := make([]interface{}, 0, len(items)*7)
	for i, n := range items {
		if n.Priority == "" {
			n.Priority = PriorityNormal
		}
		meta, err := marshalMetadata(n.Metadata)
		if err != nil {
			return err
		}
		base := i * 7
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, n.UserID, n.Type, n.Title, n.Message, n.Priority, meta, n.ExpiresAt)
	}

	query := `INSERT INTO notifications (user_id, type, title, message, priority, metadata, expires_at) VALUES ` +
		strings.Join(values, ", ")
	_, err := q.ExecContext(ctx, query, args...)
	return database.MapPQError(err)
}

// List returns a user's feed newest first, hiding expired entries.
func (r *Repository) List(ctx context.Context, q database.Querier, userID int64, f ListFilter) ([]Notification, error) {
	limit := f.Limit
	if limit <= 0 || limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	where := sqlkit.NewWhere().
		Raw("(user_id = ? OR user_id IS NULL)", userID).
		Raw("(expires_at IS NULL OR expires_at > now())").
		AddIf(f.Type != "", "type", "=", f.Type)
	if f.UnreadOnly {
		where.Add("is_read", "=", false)
	}

	items := []Notification{}
	query := fmt.Sprintf("SELECT %s FROM notifications %s ORDER BY created_at DESC LIMIT %d",
		columns, where.Clause(), limit)
	err := q.SelectContext(ctx, &items, query, where.Args()...)
	return items, err
}

// CountUnread returns the badge count.
func (r *Repository) CountUnread(ctx context.Context, q database.Querier, userID int64) (int64, error) {
	var n int64
	err := q.GetContext(ctx, &n, `
		SELECT count(*) FROM notifications
		WHERE (user_id = $1 OR user_id IS NULL) AND is_read = FALSE
		AND (expires_at IS NULL OR expires_at > now())`, userID)
	return n, err
}

// MarkAsRead marks one entry read for its owner.
func (r *Repository) MarkAsRead(ctx context.Context, q database.Querier, id, userID int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = now()
		WHERE id = $1 AND (user_id = $2 OR user_id IS NULL) AND is_read = FALSE`, id, userID)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("notification")
	}
	return nil
}

// MarkAllAsRead marks the whole feed read.
func (r *Repository) MarkAllAsRead(ctx context.Context, q database.Querier, userID int64) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = now()
		WHERE (user_id = $1 OR user_id IS NULL) AND is_read = FALSE`, userID)
	if err != nil {
		return 0, database.MapPQError(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Delete removes one entry for its owner. Broadcast rows have no owner and
// cannot be deleted through the feed.
func (r *Repository) Delete(ctx context.Context, q database.Querier, id, userID int64) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return database.MapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("notification")
	}
	return nil
}

// DeleteOld removes read entries older than the retention window.
func (r *Repository) DeleteOld(ctx context.Context, q database.Querier, retentionDays int) (int64, error) {
	res, err := q.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM notifications
		WHERE is_read = TRUE AND created_at < now() - interval '%d days'`, retentionDays))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
