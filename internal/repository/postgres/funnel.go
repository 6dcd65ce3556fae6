package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/quizfiesta/funnel-api/internal/domain"
)

// FunnelRepo implements funnel.Repository against PostgreSQL.
type FunnelRepo struct{ db *sql.DB }

// NewFunnelRepo creates a Postgres-backed funnel repository.
func NewFunnelRepo(db *sql.DB) *FunnelRepo { return &FunnelRepo{db: db} }

// UpsertSession creates the session row if unseen. Attribution columns are
// first-touch: a stored non-empty value always wins over the incoming one,
// so a later touch carrying empty attribution can never erase the original
// capture. Only last_seen_at moves forward on every call.
func (r *FunnelRepo) UpsertSession(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, utm_source, utm_medium, utm_campaign, utm_content, utm_term,
			variant, referrer, landing_path, user_agent, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			utm_source   = COALESCE(NULLIF(sessions.utm_source, ''), EXCLUDED.utm_source),
			utm_medium   = COALESCE(NULLIF(sessions.utm_medium, ''), EXCLUDED.utm_medium),
			utm_campaign = COALESCE(NULLIF(sessions.utm_campaign, ''), EXCLUDED.utm_campaign),
			utm_content  = COALESCE(NULLIF(sessions.utm_content, ''), EXCLUDED.utm_content),
			utm_term     = COALESCE(NULLIF(sessions.utm_term, ''), EXCLUDED.utm_term),
			variant      = COALESCE(NULLIF(sessions.variant, ''), EXCLUDED.variant),
			referrer     = COALESCE(NULLIF(sessions.referrer, ''), EXCLUDED.referrer),
			landing_path = COALESCE(NULLIF(sessions.landing_path, ''), EXCLUDED.landing_path),
			user_agent   = COALESCE(NULLIF(sessions.user_agent, ''), EXCLUDED.user_agent),
			last_seen_at = EXCLUDED.last_seen_at
	`, s.ID, s.UTMSource, s.UTMMedium, s.UTMCampaign, s.UTMContent, s.UTMTerm,
		s.Variant, s.Referrer, s.LandingPath, s.UserAgent, s.CreatedAt, s.LastSeenAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *FunnelRepo) AppendEvent(ctx context.Context, e *domain.Event) error {
	return insertEvent(ctx, r.db, e)
}

func (r *FunnelRepo) InsertLead(ctx context.Context, l *domain.Lead) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (id, session_id, email, phone, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
	`, l.ID, l.SessionID, l.Email, l.Phone, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *FunnelRepo) InsertQuizSubmission(ctx context.Context, q *domain.QuizSubmission) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	answers, err := json.Marshal(q.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO quiz_submissions (id, session_id, answers, completed_at)
		VALUES ($1, $2, $3, $4)
	`, q.ID, q.SessionID, answers, q.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert quiz submission: %w", err)
	}
	return nil
}

// LatestQuizSubmission returns the newest submission for the session, or
// nil when the session never completed the quiz. Duplicate submissions can
// occur; the newest row wins.
func (r *FunnelRepo) LatestQuizSubmission(ctx context.Context, sessionID string) (*domain.QuizSubmission, error) {
	var (
		q       domain.QuizSubmission
		answers []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, answers, completed_at
		FROM quiz_submissions
		WHERE session_id = $1
		ORDER BY completed_at DESC
		LIMIT 1
	`, sessionID).Scan(&q.ID, &q.SessionID, &answers, &q.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest quiz submission: %w", err)
	}
	if err := json.Unmarshal(answers, &q.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return &q, nil
}
