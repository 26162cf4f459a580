package event

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/storage"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/rs/zerolog"
)

// CallStore is the part of storage.Store the receiver writes to
type CallStore interface {
	GetCall(ctx context.Context, callSID string) (types.CallLogEntry, error)
	SaveCall(ctx context.Context, call types.CallLogEntry) (types.CallLogEntry, error)
}

// terminal statuses close a call
var terminal = map[types.CallStatus]bool{
	types.CallCompleted: true,
	types.CallFailed:    true,
	types.CallNoAnswer:  true,
	types.CallBusy:      true,
	types.CallCanceled:  true,
}

// Receiver handles call status callbacks posted by the telephony provider
type Receiver struct {
	store        CallStore
	onTerminal   func(types.CallLogEntry)
	logger       zerolog.Logger
	received     int64
	unknown      int64
	lastReceived time.Time
	mu           sync.RWMutex
	now          func() time.Time
}

// NewReceiver creates a new status callback receiver
func NewReceiver(store CallStore, logger zerolog.Logger) *Receiver {
	return &Receiver{
		store:  store,
		logger: logger.With().Str("component", "status_callback").Logger(),
		now:    time.Now,
	}
}

// OnTerminal registers fn to run after a call reaches a final status
func (r *Receiver) OnTerminal(fn func(types.CallLogEntry)) {
	r.onTerminal = fn
}

// HandleStatusCallback applies a form encoded CallSid/CallStatus/CallDuration
// update. It always answers 204 so the provider does not retry.
func (r *Receiver) HandleStatusCallback(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		r.logger.Error().Err(err).Msg("failed to parse status callback")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	callSID := req.PostForm.Get("CallSid")
	status := types.CallStatus(req.PostForm.Get("CallStatus"))

	atomic.AddInt64(&r.received, 1)
	r.mu.Lock()
	r.lastReceived = r.now()
	r.mu.Unlock()

	r.logger.Info().
		Str("call_sid", callSID).
		Str("status", string(status)).
		Msg("status callback received")

	if callSID == "" || status == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	call, err := r.store.GetCall(req.Context(), callSID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			atomic.AddInt64(&r.unknown, 1)
			r.logger.Warn().Str("call_sid", callSID).Msg("status callback for unknown call")
		} else {
			r.logger.Error().Err(err).Str("call_sid", callSID).Msg("failed to load call")
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	call.Status = status
	if d, err := strconv.Atoi(req.PostForm.Get("CallDuration")); err == nil && d >= 0 {
		call.Duration = &d
	}
	if terminal[status] && call.EndTime == nil {
		end := types.NewTimestamp(r.now())
		call.EndTime = &end
		if call.Duration == nil && call.StartTime != nil {
			d := int(end.Sub(call.StartTime.Time).Seconds())
			call.Duration = &d
		}
	}

	call, err = r.store.SaveCall(req.Context(), call)
	if err != nil {
		r.logger.Error().Err(err).Str("call_sid", callSID).Msg("failed to save call")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if terminal[status] && r.onTerminal != nil {
		r.onTerminal(call)
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStats returns receiver statistics
func (r *Receiver) GetStats(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	lastReceived := r.lastReceived
	r.mu.RUnlock()

	stats := map[string]interface{}{
		"callbacks_received": atomic.LoadInt64(&r.received),
		"unknown_calls":      atomic.LoadInt64(&r.unknown),
		"last_received":      lastReceived,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
