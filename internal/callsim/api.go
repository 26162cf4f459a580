package callsim

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/event"
	"github.com/dennisdiepolder/monti/opsdash/internal/storage"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Dialer places an outbound call to number
type Dialer interface {
	Place(ctx context.Context, number string) (types.CallLogEntry, error)
}

// API serves the call-center backend surface the dashboard consumes
type API struct {
	store    storage.Store
	dialer   Dialer
	receiver *event.Receiver
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAPI creates a new simulator API
func NewAPI(store storage.Store, dialer Dialer, receiver *event.Receiver, logger zerolog.Logger) *API {
	return &API{
		store:    store,
		dialer:   dialer,
		receiver: receiver,
		logger:   logger.With().Str("component", "callsim_api").Logger(),
		now:      time.Now,
	}
}

// SetupRoutes configures HTTP routes
func (api *API) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/health", api.healthHandler).Methods("GET")

	router.HandleFunc("/api/agents", api.agentsHandler).Methods("GET")
	router.HandleFunc("/api/agents/{id:[0-9]+}/status", api.agentStatusHandler).Methods("PUT")
	router.HandleFunc("/api/calls", api.callsHandler).Methods("GET")
	router.HandleFunc("/api/recordings", api.recordingsHandler).Methods("GET")

	router.HandleFunc("/api/metrics/daily_calls", api.dailyCallsHandler).Methods("GET")
	router.HandleFunc("/api/metrics/avg_call_duration", api.avgDurationHandler).Methods("GET")
	router.HandleFunc("/api/metrics/agent_availability", api.availabilityHandler).Methods("GET")

	router.HandleFunc("/request_call", api.requestCallHandler).Methods("POST")
	router.HandleFunc("/twilio_status_callback", api.receiver.HandleStatusCallback).Methods("POST")
	router.HandleFunc("/internal/callback/stats", api.receiver.GetStats).Methods("GET")
}

func (api *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   api.now().Format(time.RFC3339),
	})
}

// agentsHandler answers with the {data: [...]} envelope
func (api *API) agentsHandler(w http.ResponseWriter, r *http.Request) {
	agents, err := api.store.ListAgents(r.Context())
	if err != nil {
		api.fail(w, "failed to list agents", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": agents})
}

func (api *API) agentStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agent id")
		return
	}

	var req struct {
		Status      types.AgentStatus `json:"status"`
		PhoneNumber string            `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}
	if req.Status == "" && req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "No status or phone number provided for update")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status provided")
		return
	}

	agent, err := api.store.GetAgent(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Agent not found")
			return
		}
		api.fail(w, "failed to load agent", err)
		return
	}

	if req.Status != "" {
		agent.Status = req.Status
		agent.LastStatusUpdate = types.NewTimestamp(api.now())
	}
	if req.PhoneNumber != "" {
		agent.PhoneNumber = req.PhoneNumber
	}

	if err := api.store.SaveAgent(r.Context(), agent); err != nil {
		api.fail(w, "failed to save agent", err)
		return
	}

	api.logger.Info().
		Int64("agent_id", id).
		Str("status", string(agent.Status)).
		Msg("agent updated")
	writeJSON(w, http.StatusOK, agent)
}

// callsHandler answers with a bare array, newest first
func (api *API) callsHandler(w http.ResponseWriter, r *http.Request) {
	calls, err := api.store.ListCalls(r.Context())
	if err != nil {
		api.fail(w, "failed to list calls", err)
		return
	}
	SortCallsNewestFirst(calls)
	writeJSON(w, http.StatusOK, calls)
}

func (api *API) recordingsHandler(w http.ResponseWriter, r *http.Request) {
	recordings, err := api.store.ListRecordings(r.Context())
	if err != nil {
		api.fail(w, "failed to list recordings", err)
		return
	}
	sort.SliceStable(recordings, func(i, j int) bool {
		return recordings[i].RecordedAt.After(recordings[j].RecordedAt.Time)
	})
	writeJSON(w, http.StatusOK, recordings)
}

func (api *API) dailyCallsHandler(w http.ResponseWriter, r *http.Request) {
	calls, err := api.store.ListCalls(r.Context())
	if err != nil {
		api.fail(w, "failed to list calls", err)
		return
	}
	writeJSON(w, http.StatusOK, DailyCalls(calls, api.now()))
}

func (api *API) avgDurationHandler(w http.ResponseWriter, r *http.Request) {
	calls, err := api.store.ListCalls(r.Context())
	if err != nil {
		api.fail(w, "failed to list calls", err)
		return
	}
	writeJSON(w, http.StatusOK, AvgCallDuration(calls, api.now()))
}

func (api *API) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	agents, err := api.store.ListAgents(r.Context())
	if err != nil {
		api.fail(w, "failed to list agents", err)
		return
	}
	writeJSON(w, http.StatusOK, Availability(agents))
}

func (api *API) requestCallHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber      string `json:"phoneNumber"`
		PhoneNumberSnake string `json:"phone_number"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	number := strings.TrimSpace(req.PhoneNumber)
	if number == "" {
		number = strings.TrimSpace(req.PhoneNumberSnake)
	}
	if number == "" {
		writeError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	call, err := api.dialer.Place(r.Context(), number)
	if err != nil {
		api.logger.Error().Err(err).Msg("failed to place call")
		writeError(w, http.StatusInternalServerError, "Error initiating call: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Call initiated successfully! Call SID: " + call.CallSID,
	})
}

func (api *API) fail(w http.ResponseWriter, msg string, err error) {
	api.logger.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, "Database error occurred")
}

// SortCallsNewestFirst orders calls by start time descending; calls without a
// start time sort last
func SortCallsNewestFirst(calls []types.CallLogEntry) {
	sort.SliceStable(calls, func(i, j int) bool {
		a, b := calls[i].StartTime, calls[j].StartTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(b.Time)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
