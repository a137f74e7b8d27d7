// Package audit writes the per-tenant activity trail. Entries are advisory;
// a failed write never fails the operation that produced it.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// Row is one stored activity entry.
type Row struct {
	ID        int64           `db:"id" json:"id"`
	ActorID   *int64          `db:"actor_id" json:"actor_id,omitempty"`
	Action    string          `db:"action" json:"action"`
	Entity    string          `db:"entity" json:"entity"`
	EntityID  *int64          `db:"entity_id" json:"entity_id,omitempty"`
	Detail    json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Entry is one recorded action against a domain entity.
type Entry struct {
	ActorID  *int64
	Action   string
	Entity   string
	EntityID *int64
	Detail   interface{}
}

// Record inserts one activity row, best-effort.
func Record(ctx context.Context, q database.Querier, log *logger.Logger, e Entry) {
	var detail interface{}
	if e.Detail != nil {
		b, err := json.Marshal(e.Detail)
		if err != nil {
			log.Warn().Err(err).Str("action", e.Action).Msg("failed to marshal activity detail")
			return
		}
		detail = b
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO activity_logs (actor_id, action, entity, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ActorID, e.Action, e.Entity, e.EntityID, detail)
	if err != nil {
		log.Warn().Err(err).Str("action", e.Action).Str("entity", e.Entity).Msg("failed to record activity")
	}
}

// List returns the newest entries for one entity.
func List(ctx context.Context, q database.Querier, entity string, entityID int64, limit int) ([]Row, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows := []Row{}
	err := q.SelectContext(ctx, &rows, `
		SELECT id, actor_id, action, entity, entity_id, detail, created_at
		FROM activity_logs
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`, entity, entityID, limit)
	return rows, err
}
