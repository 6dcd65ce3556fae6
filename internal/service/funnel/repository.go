package funnel

import (
	"context"

	"github.com/quizfiesta/funnel-api/internal/domain"
)

// Repository is the persistence contract for sessions, events, leads and
// quiz submissions.
type Repository interface {
	// UpsertSession creates the session if unseen. Attribution fields are
	// first-touch: an existing non-empty value is never overwritten, only
	// last_seen_at moves forward.
	UpsertSession(ctx context.Context, s *domain.Session) error

	// AppendEvent records an immutable event. An empty SessionID is stored
	// as NULL rather than rejected.
	AppendEvent(ctx context.Context, e *domain.Event) error

	InsertLead(ctx context.Context, l *domain.Lead) error

	InsertQuizSubmission(ctx context.Context, q *domain.QuizSubmission) error

	// LatestQuizSubmission returns the most recent submission for the
	// session. Duplicate submissions are tolerated; readers take the newest.
	LatestQuizSubmission(ctx context.Context, sessionID string) (*domain.QuizSubmission, error)
}
