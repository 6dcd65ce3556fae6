package api

import (
	"errors"
	"net/http"

	"github.com/quizfiesta/funnel-api/internal/domain"
	"github.com/quizfiesta/funnel-api/internal/pkg/httputil"
	"github.com/quizfiesta/funnel-api/internal/service/funnel"
	"github.com/quizfiesta/funnel-api/internal/validate"
)

var okBody = map[string]bool{"ok": true}

var leadSchema = validate.Schema{
	"session_id":   {Kind: validate.KindUUID, Required: true},
	"email":        {Kind: validate.KindEmail},
	"whatsapp":     {Kind: validate.KindPhone},
	"utm_source":   {Kind: validate.KindText},
	"utm_medium":   {Kind: validate.KindText},
	"utm_campaign": {Kind: validate.KindText},
	"utm_content":  {Kind: validate.KindText},
	"utm_term":     {Kind: validate.KindText},
	"variant":      {Kind: validate.KindText},
	"referrer":     {Kind: validate.KindText, MaxLen: validate.MaxLongTextLen},
	"landing_path": {Kind: validate.KindText, MaxLen: validate.MaxLongTextLen},
	"user_agent":   {Kind: validate.KindText, MaxLen: validate.MaxLongTextLen},
}

// HandleLead handles POST /api/funnel/lead.
func (h *Handlers) HandleLead(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(r.Context(), clientIP(r)) {
		httputil.TooManyRequests(w, h.retryAfterSec)
		return
	}

	raw, code := validate.ReadObject(r.Body, validate.MaxBodyBytes)
	if code != "" {
		httputil.BadRequest(w, code)
		return
	}
	vals, code := leadSchema.Apply(raw)
	if code != "" {
		httputil.BadRequest(w, code)
		return
	}

	in := funnel.LeadInput{
		SessionID:   validate.Text(vals, "session_id"),
		Email:       validate.Text(vals, "email"),
		Phone:       validate.Text(vals, "whatsapp"),
		UTMSource:   validate.Text(vals, "utm_source"),
		UTMMedium:   validate.Text(vals, "utm_medium"),
		UTMCampaign: validate.Text(vals, "utm_campaign"),
		UTMContent:  validate.Text(vals, "utm_content"),
		UTMTerm:     validate.Text(vals, "utm_term"),
		Variant:     validate.Text(vals, "variant"),
		Referrer:    validate.Text(vals, "referrer"),
		LandingPath: validate.Text(vals, "landing_path"),
		UserAgent:   validate.Text(vals, "user_agent"),
	}

	if err := h.funnel.CaptureLead(r.Context(), in); err != nil {
		if errors.Is(err, funnel.ErrContactRequired) {
			httputil.BadRequest(w, "contact_required")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, okBody)
}

var quizSchema = validate.Schema{
	"session_id": {Kind: validate.KindUUID, Required: true},
	"answers":    {Kind: validate.KindObject, Required: true},
}

// HandleQuiz handles POST /api/funnel/quiz.
func (h *Handlers) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	raw, code := validate.ReadObject(r.Body, validate.MaxQuizBodyBytes)
	if code != "" {
		httputil.BadRequest(w, code)
		return
	}
	vals, code := quizSchema.Apply(raw)
	if code != "" {
		httputil.BadRequest(w, code)
		return
	}

	answers, ok := coerceAnswers(vals["answers"].(map[string]interface{}))
	if !ok {
		httputil.BadRequest(w, "invalid_answers")
		return
	}

	if err := h.funnel.SubmitQuiz(r.Context(), validate.Text(vals, "session_id"), answers); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, okBody)
}

// coerceAnswers converts the raw answer object into question-index →
// selected-option-index. Non-integer values are a hard rejection.
func coerceAnswers(raw map[string]interface{}) (map[string]int, bool) {
	answers := make(map[string]int, len(raw))
	for q, v := range raw {
		f, ok := v.(float64)
		if !ok || f != float64(int(f)) {
			return nil, false
		}
		answers[q] = int(f)
	}
	return answers, true
}

var eventSchema = validate.Schema{
	"session_id": {Kind: validate.KindUUID, Required: true},
	"event_name": {Kind: validate.KindText, Required: true},
	"payload":    {Kind: validate.KindObject},
}

// HandleEvent handles POST /api/funnel/event.
func (h *Handlers) HandleEvent(w http.ResponseWriter, r *http.Request) {
	raw, code := validate.ReadObject(r.Body, validate.MaxBodyBytes)
	if code != "" {
		httputil.BadRequest(w, code)
		return
	}
	vals, code := eventSchema.Apply(raw)
	if code != "" {
		httputil.BadRequest(w, code)
		return
	}

	var payload map[string]interface{}
	if p, ok := vals["payload"].(map[string]interface{}); ok {
		payload = p
	}

	name := domain.EventName(validate.Text(vals, "event_name"))
	err := h.funnel.TrackEvent(r.Context(), validate.Text(vals, "session_id"), name, payload)
	if err != nil {
		if errors.Is(err, funnel.ErrUnknownEvent) {
			httputil.BadRequest(w, "invalid_event_name")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, okBody)
}
