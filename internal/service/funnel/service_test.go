package funnel

import (
	"context"
	"sync"
	"testing"

	"github.com/quizfiesta/funnel-api/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	events   []*domain.Event
	leads    []*domain.Lead
	quizzes  []*domain.QuizSubmission
}

func newMockRepo() *mockRepo {
	return &mockRepo{sessions: make(map[string]*domain.Session)}
}

func (m *mockRepo) UpsertSession(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sessions[s.ID]
	if !ok {
		cp := *s
		m.sessions[s.ID] = &cp
		return nil
	}
	// First-touch policy: keep stored attribution, only move last_seen_at.
	if existing.UTMSource == "" {
		existing.UTMSource = s.UTMSource
	}
	if existing.UTMCampaign == "" {
		existing.UTMCampaign = s.UTMCampaign
	}
	if existing.Referrer == "" {
		existing.Referrer = s.Referrer
	}
	existing.LastSeenAt = s.LastSeenAt
	return nil
}

func (m *mockRepo) AppendEvent(_ context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockRepo) InsertLead(_ context.Context, l *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads = append(m.leads, l)
	return nil
}

func (m *mockRepo) InsertQuizSubmission(_ context.Context, q *domain.QuizSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes = append(m.quizzes, q)
	return nil
}

func (m *mockRepo) LatestQuizSubmission(_ context.Context, sessionID string) (*domain.QuizSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.quizzes) - 1; i >= 0; i-- {
		if m.quizzes[i].SessionID == sessionID {
			return m.quizzes[i], nil
		}
	}
	return nil, nil
}

const testSessionID = "3a6f1e42-9d2b-4c7e-8f1a-5b9c2d4e6a80"

func TestCaptureLead_CreatesSessionAndLead(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	err := svc.CaptureLead(ctx, LeadInput{
		SessionID: testSessionID,
		Email:     "user@example.com",
		UTMSource: "instagram",
	})
	if err != nil {
		t.Fatalf("CaptureLead: %v", err)
	}

	if _, ok := repo.sessions[testSessionID]; !ok {
		t.Error("expected session to be created")
	}
	if len(repo.leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(repo.leads))
	}
	if len(repo.events) != 1 || repo.events[0].Name != domain.EventEmailSubmitted {
		t.Errorf("expected one email_submitted event, got %+v", repo.events)
	}
}

func TestCaptureLead_NoContact_Fails(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.CaptureLead(context.Background(), LeadInput{SessionID: testSessionID})
	if err != ErrContactRequired {
		t.Errorf("expected ErrContactRequired, got %v", err)
	}
}

func TestCaptureLead_RepeatedCalls_OneSession(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	in := LeadInput{SessionID: testSessionID, Phone: "15551234567"}
	for i := 0; i < 3; i++ {
		if err := svc.CaptureLead(ctx, in); err != nil {
			t.Fatalf("CaptureLead #%d: %v", i, err)
		}
	}

	if len(repo.sessions) != 1 {
		t.Errorf("expected 1 session after repeated calls, got %d", len(repo.sessions))
	}
}

func TestCaptureLead_FirstTouchAttributionSurvivesRepeatTouch(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first := LeadInput{SessionID: testSessionID, Email: "a@b.com", UTMSource: "tiktok", UTMCampaign: "launch"}
	if err := svc.CaptureLead(ctx, first); err != nil {
		t.Fatalf("first touch: %v", err)
	}

	// Later touch with empty attribution must not erase the first capture.
	repeat := LeadInput{SessionID: testSessionID, Email: "a@b.com"}
	if err := svc.CaptureLead(ctx, repeat); err != nil {
		t.Fatalf("repeat touch: %v", err)
	}

	s := repo.sessions[testSessionID]
	if s.UTMSource != "tiktok" || s.UTMCampaign != "launch" {
		t.Errorf("first-touch attribution overwritten: %+v", s)
	}
}

func TestSubmitQuiz_StoresAnswersAndEvent(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	answers := map[string]int{"0": 2, "1": 0, "2": 3}
	if err := svc.SubmitQuiz(ctx, testSessionID, answers); err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}

	if len(repo.quizzes) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(repo.quizzes))
	}
	if repo.quizzes[0].Answers["2"] != 3 {
		t.Errorf("answers not stored: %+v", repo.quizzes[0].Answers)
	}
	if len(repo.events) != 1 || repo.events[0].Name != domain.EventQuizCompleted {
		t.Errorf("expected quiz_completed event, got %+v", repo.events)
	}
}

func TestSubmitQuiz_DuplicatesTolerated_NewestWins(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_ = svc.SubmitQuiz(ctx, testSessionID, map[string]int{"0": 1})
	_ = svc.SubmitQuiz(ctx, testSessionID, map[string]int{"0": 2})

	latest, err := svc.LatestQuiz(ctx, testSessionID)
	if err != nil {
		t.Fatalf("LatestQuiz: %v", err)
	}
	if latest == nil || latest.Answers["0"] != 2 {
		t.Errorf("expected newest submission, got %+v", latest)
	}
}

func TestTrackEvent_UnknownName_Rejected(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	err := svc.TrackEvent(context.Background(), testSessionID, "made_up_event", nil)
	if err != ErrUnknownEvent {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
	if len(repo.events) != 0 {
		t.Error("unknown event must not be logged")
	}
}

func TestTrackEvent_KnownName_Appended(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	err := svc.TrackEvent(context.Background(), testSessionID, domain.EventPaywallViewed,
		map[string]interface{}{"plan": "annual"})
	if err != nil {
		t.Fatalf("TrackEvent: %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].Name != domain.EventPaywallViewed {
		t.Errorf("expected paywall_viewed event, got %+v", repo.events)
	}
}
