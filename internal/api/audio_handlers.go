package api

import (
	"io"
	"net/http"

	"github.com/quizfiesta/funnel-api/internal/pkg/httputil"
	"github.com/quizfiesta/funnel-api/internal/pkg/logger"
	"github.com/quizfiesta/funnel-api/internal/validate"
)

// maxAudioBytes bounds one cached reading upload.
const maxAudioBytes = 5 * 1024 * 1024

// HandleGetAudio handles GET /api/readings/audio?key=. A miss is a 404;
// the client then regenerates through the speech provider and posts the
// result back. Keys share the token shape so arbitrary object paths never
// reach storage.
func (h *Handlers) HandleGetAudio(w http.ResponseWriter, r *http.Request) {
	if h.audio == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "audio_cache_disabled")
		return
	}
	key := r.URL.Query().Get("key")
	if !validate.Token(key) {
		httputil.BadRequest(w, "invalid_key")
		return
	}

	audio, ok, err := h.audio.Get(r.Context(), key)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if !ok {
		httputil.Error(w, http.StatusNotFound, "not_found")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(audio); err != nil {
		logger.Warn("audio response write failed", "key", key, "error", err)
	}
}

// HandlePutAudio handles POST /api/readings/audio?key= with the raw audio
// as the request body. The upload is scheduled and the response returns
// immediately; the cache's put-if-absent contract makes repeat posts of
// the same key harmless.
func (h *Handlers) HandlePutAudio(w http.ResponseWriter, r *http.Request) {
	if h.audio == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "audio_cache_disabled")
		return
	}
	if !h.limiter.Allow(r.Context(), clientIP(r)) {
		httputil.TooManyRequests(w, h.retryAfterSec)
		return
	}
	key := r.URL.Query().Get("key")
	if !validate.Token(key) {
		httputil.BadRequest(w, "invalid_key")
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes+1))
	if err != nil {
		httputil.BadRequest(w, "invalid_body")
		return
	}
	if len(audio) == 0 {
		httputil.BadRequest(w, "empty_body")
		return
	}
	if len(audio) > maxAudioBytes {
		httputil.BadRequest(w, "body_too_large")
		return
	}

	h.audio.PutAsync(key, audio)
	httputil.JSON(w, http.StatusAccepted, okBody)
}
