package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dennisdiepolder/monti/opsdash/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// CallbackRequester places an outbound call through the upstream backend
type CallbackRequester interface {
	RequestCallback(ctx context.Context, phoneNumber string) error
}

// CallbackHandler forwards callback requests, limited to a rate per minute
type CallbackHandler struct {
	requester CallbackRequester
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// NewCallbackHandler creates a new CallbackHandler. perMinute <= 0 disables the limit.
func NewCallbackHandler(requester CallbackRequester, perMinute int, logger zerolog.Logger) *CallbackHandler {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
	}
	return &CallbackHandler{
		requester: requester,
		limiter:   limiter,
		logger:    logger.With().Str("component", "callback").Logger(),
	}
}

// Request handles POST /request_call
func (h *CallbackHandler) Request(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PhoneNumber      string `json:"phoneNumber"`
		PhoneNumberSnake string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	phone := strings.TrimSpace(body.PhoneNumber)
	if phone == "" {
		phone = strings.TrimSpace(body.PhoneNumberSnake)
	}
	if phone == "" {
		writeError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	if !h.limiter.Allow() {
		metrics.Get().RecordCallback(true)
		h.logger.Warn().Msg("callback rate limit reached")
		writeError(w, http.StatusTooManyRequests, "Too many callback requests, try again shortly")
		return
	}
	metrics.Get().RecordCallback(false)

	if err := h.requester.RequestCallback(r.Context(), phone); err != nil {
		h.logger.Error().Err(err).Msg("callback request failed")
		writeFailure(w, err)
		return
	}

	h.logger.Info().Msg("callback requested")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Call initiated"})
}
