package funnel

import (
	"context"
	"fmt"
	"time"

	"github.com/quizfiesta/funnel-api/internal/domain"
)

// Service implements funnel business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a funnel service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// LeadInput carries a validated lead capture together with any attribution
// fields present on the request.
type LeadInput struct {
	SessionID   string
	Email       string
	Phone       string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMContent  string
	UTMTerm     string
	Variant     string
	Referrer    string
	LandingPath string
	UserAgent   string
}

// CaptureLead upserts the session (establishing it if unseen), stores the
// contact, and appends a completion event. The three writes are not one
// transaction: a failure surfaces as an error and the caller retries the
// whole request, which is safe because the session upsert is idempotent.
func (s *Service) CaptureLead(ctx context.Context, in LeadInput) error {
	if in.Email == "" && in.Phone == "" {
		return ErrContactRequired
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:          in.SessionID,
		UTMSource:   in.UTMSource,
		UTMMedium:   in.UTMMedium,
		UTMCampaign: in.UTMCampaign,
		UTMContent:  in.UTMContent,
		UTMTerm:     in.UTMTerm,
		Variant:     in.Variant,
		Referrer:    in.Referrer,
		LandingPath: in.LandingPath,
		UserAgent:   in.UserAgent,
		CreatedAt:   now,
		LastSeenAt:  now,
	}
	if err := s.repo.UpsertSession(ctx, session); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	lead := &domain.Lead{
		SessionID: in.SessionID,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
	}
	if err := s.repo.InsertLead(ctx, lead); err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	return s.repo.AppendEvent(ctx, &domain.Event{
		SessionID: in.SessionID,
		Name:      domain.EventEmailSubmitted,
		CreatedAt: now,
	})
}

// SubmitQuiz stores a session's complete answer set. Storage does not
// enforce one submission per session; repeat submissions simply add rows.
func (s *Service) SubmitQuiz(ctx context.Context, sessionID string, answers map[string]int) error {
	now := s.now().UTC()
	session := &domain.Session{ID: sessionID, CreatedAt: now, LastSeenAt: now}
	if err := s.repo.UpsertSession(ctx, session); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	sub := &domain.QuizSubmission{
		SessionID:   sessionID,
		Answers:     answers,
		CompletedAt: now,
	}
	if err := s.repo.InsertQuizSubmission(ctx, sub); err != nil {
		return fmt.Errorf("insert quiz submission: %w", err)
	}

	return s.repo.AppendEvent(ctx, &domain.Event{
		SessionID: sessionID,
		Name:      domain.EventQuizCompleted,
		CreatedAt: now,
	})
}

// TrackEvent appends a named behavioral event for the session. Unknown
// names are rejected, never logged as "other".
func (s *Service) TrackEvent(ctx context.Context, sessionID string, name domain.EventName, payload map[string]interface{}) error {
	if !name.Valid() {
		return ErrUnknownEvent
	}

	now := s.now().UTC()
	session := &domain.Session{ID: sessionID, CreatedAt: now, LastSeenAt: now}
	if err := s.repo.UpsertSession(ctx, session); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return s.repo.AppendEvent(ctx, &domain.Event{
		SessionID: sessionID,
		Name:      name,
		Payload:   payload,
		CreatedAt: now,
	})
}

// LatestQuiz returns the most recent answer set for a session.
func (s *Service) LatestQuiz(ctx context.Context, sessionID string) (*domain.QuizSubmission, error) {
	return s.repo.LatestQuizSubmission(ctx, sessionID)
}
