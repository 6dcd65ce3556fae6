package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/quizfiesta/funnel-api/internal/pkg/httputil"
	"github.com/quizfiesta/funnel-api/internal/pkg/logger"
	"github.com/quizfiesta/funnel-api/internal/service/order"
	"github.com/quizfiesta/funnel-api/internal/validate"
)

// webhookAliases maps each normalized field to the provider key names that
// may carry it, in priority order. Adding a provider spelling is a data
// change, not a control-flow change.
var webhookAliases = []struct {
	field   string
	aliases []string
}{
	{"external_id", []string{"order_id", "id", "external_id"}},
	{"email", []string{"email", "customer_email", "payer_email"}},
	{"country", []string{"country", "country_code"}},
	{"net_amount", []string{"net_amount", "amount", "total"}},
	{"utm_source", []string{"utm_source"}},
	{"utm_medium", []string{"utm_medium"}},
	{"utm_campaign", []string{"utm_campaign"}},
	{"session_id", []string{"session_id", "sid", "client_reference_id"}},
	{"token", []string{"token", "secret"}},
}

// extractWebhookFields resolves each recognized field against the JSON body
// first, then the query string, trying aliases in priority order. Values
// are stringified; anything unresolvable stays empty.
func extractWebhookFields(body map[string]json.RawMessage, query url.Values) map[string]string {
	out := make(map[string]string, len(webhookAliases))
	for _, f := range webhookAliases {
		for _, alias := range f.aliases {
			if raw, ok := body[alias]; ok {
				if v := rawToString(raw); v != "" {
					out[f.field] = v
					break
				}
			}
			if v := query.Get(alias); v != "" {
				out[f.field] = v
				break
			}
		}
	}
	return out
}

func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// HandlePaymentWebhook handles POST and GET /api/payments/webhook. The
// provider delivers at-least-once, so every path here must be safe to
// repeat; idempotency lives in the order service and its conditional
// upsert. The minted token is never echoed back to the caller.
func (h *Handlers) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body := map[string]json.RawMessage{}
	if r.Method == http.MethodPost {
		data, err := io.ReadAll(io.LimitReader(r.Body, validate.MaxBodyBytes))
		if err == nil && len(data) > 0 {
			// A malformed body is not fatal: the same delivery may carry
			// everything in the query string.
			_ = json.Unmarshal(data, &body)
		}
	}

	fields := extractWebhookFields(body, r.URL.Query())

	if h.webhookSecret != "" && fields["token"] != h.webhookSecret {
		httputil.Unauthorized(w, "unauthorized")
		return
	}

	in := order.WebhookInput{
		ExternalID:  strings.TrimSpace(fields["external_id"]),
		Country:     fields["country"],
		UTMSource:   fields["utm_source"],
		UTMMedium:   fields["utm_medium"],
		UTMCampaign: fields["utm_campaign"],
	}
	if email, ok := validate.NormalizeEmail(fields["email"]); ok {
		in.Email = email
	}
	if validate.UUIDv4(fields["session_id"]) {
		in.SessionID = fields["session_id"]
	}
	if amt, err := strconv.ParseFloat(fields["net_amount"], 64); err == nil {
		in.NetAmount = amt
	}

	if err := h.orders.ProcessWebhook(r.Context(), in); err != nil {
		if errors.Is(err, order.ErrMissingOrderID) {
			httputil.BadRequest(w, "missing_order_id")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	logger.Info("payment webhook processed", "external_order_id", in.ExternalID)
	httputil.OK(w, map[string]bool{"success": true})
}
