package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quizfiesta/funnel-api/internal/domain"
	"github.com/quizfiesta/funnel-api/internal/pkg/logger"
)

// Service implements the order lifecycle. Safe for concurrent use.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an order service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WebhookInput is the normalized payment notification after field-alias
// extraction. Only ExternalID is mandatory.
type WebhookInput struct {
	ExternalID  string
	Email       string
	Country     string
	NetAmount   float64
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	SessionID   string
}

// ProcessWebhook idempotently records a successful payment. On the first
// delivery it mints the access token and inserts the order as paid; on
// re-delivery it preserves the stored token verbatim and refreshes the
// non-identity fields (last-write-wins). Every path is safe to repeat, as
// required by at-least-once delivery.
func (s *Service) ProcessWebhook(ctx context.Context, in WebhookInput) error {
	if in.ExternalID == "" {
		return ErrMissingOrderID
	}

	now := s.now().UTC()

	existing, err := s.repo.FindByExternalID(ctx, in.ExternalID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("lookup order %s: %w", in.ExternalID, err)
	}

	token := ""
	if existing != nil {
		token = existing.AccessToken
	}
	minted := false
	if token == "" {
		token, err = NewToken()
		if err != nil {
			return err
		}
		minted = true
	}

	o := &domain.Order{
		ExternalID:  in.ExternalID,
		Status:      domain.OrderPaid,
		AccessToken: token,
		Email:       in.Email,
		Country:     in.Country,
		NetAmount:   in.NetAmount,
		UTMSource:   in.UTMSource,
		UTMMedium:   in.UTMMedium,
		UTMCampaign: in.UTMCampaign,
		SessionID:   in.SessionID,
		PaidAt:      &now,
		CreatedAt:   now,
	}

	stored, err := s.repo.UpsertPaid(ctx, o)
	if err != nil {
		return fmt.Errorf("upsert order %s: %w", in.ExternalID, err)
	}
	if stored.AccessToken != token {
		// Lost the insert race against a concurrent delivery; the stored
		// token is the one that counts.
		minted = false
	}

	if err := s.audit(ctx, in.SessionID, domain.EventWebhookReceived, map[string]interface{}{
		"external_order_id": in.ExternalID,
	}, now); err != nil {
		return err
	}
	if err := s.audit(ctx, in.SessionID, domain.EventOrderPaid, map[string]interface{}{
		"external_order_id": in.ExternalID,
	}, now); err != nil {
		return err
	}
	if minted {
		if err := s.audit(ctx, in.SessionID, domain.EventTokenGenerated, map[string]interface{}{
			"external_order_id": in.ExternalID,
		}, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) audit(ctx context.Context, sessionID string, name domain.EventName, payload map[string]interface{}, at time.Time) error {
	err := s.repo.AppendEvent(ctx, &domain.Event{
		SessionID: sessionID,
		Name:      name,
		Payload:   payload,
		CreatedAt: at,
	})
	if err != nil {
		return fmt.Errorf("append %s event: %w", name, err)
	}
	return nil
}

// VerifyResult is the polling response for a known order id.
type VerifyResult struct {
	OK     bool
	Token  string
	Status string
}

// VerifyOrder converts an external order id into the access token once the
// order is paid. Absence is a normal, pollable state, never an error.
func (s *Service) VerifyOrder(ctx context.Context, externalID string) (VerifyResult, error) {
	o, err := s.repo.FindByExternalID(ctx, externalID)
	if errors.Is(err, ErrNotFound) {
		return VerifyResult{Status: "not_found"}, nil
	}
	if err != nil {
		return VerifyResult{}, fmt.Errorf("lookup order %s: %w", externalID, err)
	}
	if o.Status == domain.OrderPaid && o.AccessToken != "" {
		return VerifyResult{OK: true, Token: o.AccessToken}, nil
	}
	return VerifyResult{Status: string(o.Status)}, nil
}

// RedeemResult is the redemption response for a presented token.
type RedeemResult struct {
	OK              bool
	Reason          string
	SessionID       string
	ExternalOrderID string
}

// RedeemToken validates a presented token and returns the associated
// session and order ids. It fails closed on any non-paid or missing order
// and reports "expired" past the token expiry. The access-granted audit
// event is best-effort: its failure never fails the redemption. Safe to
// call repeatedly; order state is never mutated here.
func (s *Service) RedeemToken(ctx context.Context, token string) (RedeemResult, error) {
	o, err := s.repo.FindByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return RedeemResult{}, nil
	}
	if err != nil {
		return RedeemResult{}, fmt.Errorf("lookup token: %w", err)
	}

	now := s.now().UTC()
	if o.Status != domain.OrderPaid {
		return RedeemResult{}, nil
	}
	if o.TokenExpiry != nil && now.After(*o.TokenExpiry) {
		return RedeemResult{Reason: "expired"}, nil
	}

	if err := s.repo.AppendEvent(ctx, &domain.Event{
		SessionID: o.SessionID,
		Name:      domain.EventAppAccessGranted,
		Payload:   map[string]interface{}{"external_order_id": o.ExternalID},
		CreatedAt: now,
	}); err != nil {
		logger.Warn("access event write failed", "external_order_id", o.ExternalID, "error", err)
	}

	return RedeemResult{
		OK:              true,
		SessionID:       o.SessionID,
		ExternalOrderID: o.ExternalID,
	}, nil
}

// LinkUser binds a redeemed token's order to an authenticated user. The
// update only matches a paid, unlinked order holding the token, so repeat
// or racing calls beyond the first are silent no-ops.
func (s *Service) LinkUser(ctx context.Context, token, userID string) error {
	linked, err := s.repo.LinkUser(ctx, token, userID)
	if err != nil {
		return fmt.Errorf("link order: %w", err)
	}
	if !linked {
		logger.Debug("link was a no-op", "user_id", userID)
	}
	return nil
}
