package api

import (
	"net/http"
	"strings"

	"github.com/quizfiesta/funnel-api/internal/pkg/httputil"
	"github.com/quizfiesta/funnel-api/internal/validate"
)

// HandleVerifyOrder handles GET /api/orders/verify?order_id=. The client
// polls this in a bounded retry loop after returning from checkout, so an
// order the webhook hasn't delivered yet is a normal 200 {ok:false}, never
// an error.
func (h *Handlers) HandleVerifyOrder(w http.ResponseWriter, r *http.Request) {
	externalID := strings.TrimSpace(r.URL.Query().Get("order_id"))
	if externalID == "" || len(externalID) > 256 {
		httputil.BadRequest(w, "missing_order_id")
		return
	}

	res, err := h.orders.VerifyOrder(r.Context(), externalID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if res.OK {
		httputil.OK(w, map[string]interface{}{"ok": true, "token": res.Token})
		return
	}
	httputil.OK(w, map[string]interface{}{"ok": false, "status": res.Status})
}

// HandleVerifyToken handles GET /api/orders/token?token=. The token shape
// is checked before any storage lookup; invalid and expired tokens fail
// closed as 200 {ok:false}.
func (h *Handlers) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if !validate.Token(token) {
		httputil.BadRequest(w, "invalid_token")
		return
	}

	res, err := h.orders.RedeemToken(r.Context(), token)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if !res.OK {
		if res.Reason != "" {
			httputil.OK(w, map[string]interface{}{"ok": false, "reason": res.Reason})
			return
		}
		httputil.OK(w, map[string]interface{}{"ok": false})
		return
	}
	httputil.OK(w, map[string]interface{}{
		"ok":                true,
		"session_id":        res.SessionID,
		"external_order_id": res.ExternalOrderID,
	})
}

var linkSchema = validate.Schema{
	"token":   {Kind: validate.KindToken, Required: true},
	"user_id": {Kind: validate.KindUUID, Required: true},
}

// HandleLinkOrder handles POST /api/orders/link. Linking is naturally
// idempotent: a call that matches no paid, unlinked order is a silent
// no-op, so repeat calls from multiple devices are safe.
func (h *Handlers) HandleLinkOrder(w http.ResponseWriter, r *http.Request) {
	raw, code := validate.ReadObject(r.Body, validate.MaxBodyBytes)
	if code != "" {
		httputil.BadRequest(w, code)
		return
	}
	vals, code := linkSchema.Apply(raw)
	if code != "" {
		httputil.BadRequest(w, code)
		return
	}

	err := h.orders.LinkUser(r.Context(), validate.Text(vals, "token"), validate.Text(vals, "user_id"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, okBody)
}
