package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/quizfiesta/funnel-api/internal/domain"
)

// insertEvent appends one row to the append-only event log. An empty
// session id is stored as NULL so operational events (webhook audit trail)
// don't need a session.
func insertEvent(ctx context.Context, db *sql.DB, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	var payload []byte
	if e.Payload != nil {
		var err error
		payload, err = json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, session_id, event_name, payload, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
	`, e.ID, e.SessionID, string(e.Name), payload, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}
