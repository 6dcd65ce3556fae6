package domain

import "time"

// Session is an anonymous visitor identity, created lazily on the first
// request that references an unseen client-generated UUID. Attribution
// fields are first-touch: once set they are never overwritten.
type Session struct {
	ID          string    `json:"id"`
	UTMSource   string    `json:"utm_source,omitempty"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
	UTMContent  string    `json:"utm_content,omitempty"`
	UTMTerm     string    `json:"utm_term,omitempty"`
	Variant     string    `json:"variant,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	LandingPath string    `json:"landing_path,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Attribution reports whether the session carries any first-touch marketing
// data at all. Used to skip no-op upserts.
func (s Session) Attribution() bool {
	return s.UTMSource != "" || s.UTMMedium != "" || s.UTMCampaign != "" ||
		s.UTMContent != "" || s.UTMTerm != "" || s.Referrer != "" ||
		s.LandingPath != "" || s.Variant != ""
}

// Lead is a contact capture tied to a session. At least one of Email or
// Phone must be present; both are stored normalized (lower-cased email,
// digits-only phone).
type Lead struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizSubmission is a session's complete answer set. Storage does not
// enforce one-per-session; readers take the most recent row.
type QuizSubmission struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	Answers     map[string]int `json:"answers"`
	CompletedAt time.Time      `json:"completed_at"`
}
