package domain

import "time"

// EventName enumerates the funnel events accepted by the tracking endpoint
// and emitted internally by the order pipeline. The list is closed: unknown
// names are rejected at the boundary, never normalized to "other".
type EventName string

const (
	EventPageView         EventName = "page_view"
	EventQuizStarted      EventName = "quiz_started"
	EventQuizCompleted    EventName = "quiz_completed"
	EventEmailSubmitted   EventName = "email_submitted"
	EventCheckoutRedirect EventName = "checkout_redirect"
	EventPaywallViewed    EventName = "paywall_viewed"
	EventWebhookReceived  EventName = "webhook_received"
	EventOrderPaid        EventName = "order_paid"
	EventTokenGenerated   EventName = "token_generated"
	EventAppAccessGranted EventName = "app_access_granted"
)

var knownEvents = map[EventName]bool{
	EventPageView:         true,
	EventQuizStarted:      true,
	EventQuizCompleted:    true,
	EventEmailSubmitted:   true,
	EventCheckoutRedirect: true,
	EventPaywallViewed:    true,
	EventWebhookReceived:  true,
	EventOrderPaid:        true,
	EventTokenGenerated:   true,
	EventAppAccessGranted: true,
}

// Valid reports whether the name belongs to the closed allow-list.
func (n EventName) Valid() bool { return knownEvents[n] }

// Event is an immutable append-only fact tied to a session. SessionID may
// be empty for operational events where no session was resolved; writes are
// skipped rather than failed in that case.
type Event struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id,omitempty"`
	Name      EventName              `json:"event_name"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
