package domain

import "time"

// OrderStatus is the order state machine. The only observed transition is
// created → paid; paid is terminal (no refund/cancel is modeled).
type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
)

// Order mirrors a payment-provider transaction, keyed by the provider's
// external id. The access token is minted exactly once per order and never
// rotated by webhook re-delivery.
type Order struct {
	ID          string      `json:"id"`
	ExternalID  string      `json:"external_id"`
	Status      OrderStatus `json:"status"`
	AccessToken string      `json:"access_token,omitempty"`
	TokenExpiry *time.Time  `json:"token_expiry,omitempty"`
	Email       string      `json:"email,omitempty"`
	Country     string      `json:"country,omitempty"`
	NetAmount   float64     `json:"net_amount,omitempty"`
	UTMSource   string      `json:"utm_source,omitempty"`
	UTMMedium   string      `json:"utm_medium,omitempty"`
	UTMCampaign string      `json:"utm_campaign,omitempty"`
	SessionID   string      `json:"session_id,omitempty"`
	UserID      string      `json:"user_id,omitempty"`
	PaidAt      *time.Time  `json:"paid_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Redeemable reports whether the order grants access right now: it must be
// paid, carry a token, and not be past its expiry.
func (o Order) Redeemable(now time.Time) bool {
	if o.Status != OrderPaid || o.AccessToken == "" {
		return false
	}
	if o.TokenExpiry != nil && now.After(*o.TokenExpiry) {
		return false
	}
	return true
}
