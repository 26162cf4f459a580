package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/metrics"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/rs/zerolog"
)

// Operation names used in errors, logs and metrics
const (
	OpListAgents        = "list_agents"
	OpSetAgentStatus    = "set_agent_status"
	OpListCalls         = "list_calls"
	OpListRecordings    = "list_recordings"
	OpDailyCalls        = "daily_calls"
	OpAvgCallDuration   = "avg_call_duration"
	OpAgentAvailability = "agent_availability"
	OpRequestCall       = "request_call"
)

// maxErrorBody bounds how much of a failed response is kept for messages
const maxErrorBody = 4 << 10

// Client provides access to the call-center backend HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new upstream client. timeout is the only limit applied to a request.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "upstream").Logger(),
	}
}

// BaseURL returns the backend root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListAgents fetches the full agent roster
func (c *Client) ListAgents(ctx context.Context) ([]types.Agent, error) {
	var agents []types.Agent
	if err := c.getList(ctx, OpListAgents, "/api/agents", &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// SetAgentStatus asks the backend to change an agent's status and returns the
// representation it sent back
func (c *Client) SetAgentStatus(ctx context.Context, id int64, status types.AgentStatus) (types.AgentPatch, error) {
	var patch types.AgentPatch
	path := fmt.Sprintf("/api/agents/%d/status", id)
	body := map[string]types.AgentStatus{"status": status}

	data, err := c.do(ctx, OpSetAgentStatus, http.MethodPut, path, body)
	if err != nil {
		return patch, err
	}
	if err := json.Unmarshal(data, &patch); err != nil {
		return patch, c.malformed(OpSetAgentStatus, err)
	}
	return patch, nil
}

// ListCalls fetches call history, newest first as ordered by the backend
func (c *Client) ListCalls(ctx context.Context) ([]types.CallLogEntry, error) {
	var calls []types.CallLogEntry
	if err := c.getList(ctx, OpListCalls, "/api/calls", &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// ListRecordings fetches the recorded calls
func (c *Client) ListRecordings(ctx context.Context) ([]types.CallRecording, error) {
	var recordings []types.CallRecording
	if err := c.getList(ctx, OpListRecordings, "/api/recordings", &recordings); err != nil {
		return nil, err
	}
	return recordings, nil
}

// DailyCalls fetches today's call volume facet
func (c *Client) DailyCalls(ctx context.Context) (types.DailyCalls, error) {
	var facet types.DailyCalls
	err := c.getObject(ctx, OpDailyCalls, "/api/metrics/daily_calls", &facet)
	return facet, err
}

// AvgCallDuration fetches the average call duration facet
func (c *Client) AvgCallDuration(ctx context.Context) (types.AvgDuration, error) {
	var facet types.AvgDuration
	err := c.getObject(ctx, OpAvgCallDuration, "/api/metrics/avg_call_duration", &facet)
	return facet, err
}

// AgentAvailability fetches the agent availability facet
func (c *Client) AgentAvailability(ctx context.Context) (types.AgentAvailability, error) {
	var facet types.AgentAvailability
	err := c.getObject(ctx, OpAgentAvailability, "/api/metrics/agent_availability", &facet)
	return facet, err
}

// RequestCallback asks the backend to place an outbound call to phoneNumber
func (c *Client) RequestCallback(ctx context.Context, phoneNumber string) error {
	body := map[string]string{"phoneNumber": phoneNumber}
	_, err := c.do(ctx, OpRequestCall, http.MethodPost, "/request_call", body)
	return err
}

// getList decodes a collection that may arrive bare or wrapped as {"data": [...]}
func (c *Client) getList(ctx context.Context, op, path string, out interface{}) error {
	data, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, out); err != nil {
			return c.malformed(op, err)
		}
	case len(trimmed) > 0 && trimmed[0] == '{':
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return c.malformed(op, err)
		}
		raw := bytes.TrimSpace(envelope.Data)
		if len(raw) == 0 || raw[0] != '[' {
			return c.malformed(op, errors.New("envelope has no data array"))
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return c.malformed(op, err)
		}
	default:
		return c.malformed(op, errors.New("expected JSON array or object"))
	}
	return nil
}

func (c *Client) getObject(ctx context.Context, op, path string, out interface{}) error {
	data, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return c.malformed(op, errors.New("expected JSON object"))
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return c.malformed(op, err)
	}
	return nil
}

// do performs one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, op, method, path string, body interface{}) ([]byte, error) {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.Get().RecordUpstream(op, metrics.OutcomeTransport, time.Since(start))
		c.logger.Warn().Err(err).Str("op", op).Str("path", path).Msg("upstream request failed")
		return nil, &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.Get().RecordUpstream(op, metrics.OutcomeStatus, time.Since(start))
		c.logger.Warn().
			Str("op", op).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("upstream returned error status")
		return nil, &Error{
			Op:         op,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.Get().RecordUpstream(op, metrics.OutcomeTransport, time.Since(start))
		return nil, &Error{Op: op, Kind: KindTransport, Err: err}
	}

	metrics.Get().RecordUpstream(op, metrics.OutcomeOK, time.Since(start))
	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream request completed")
	return data, nil
}

func (c *Client) malformed(op string, err error) error {
	metrics.Get().RecordUpstream(op, metrics.OutcomeMalformed, 0)
	c.logger.Warn().Err(err).Str("op", op).Msg("upstream response malformed")
	return &Error{Op: op, Kind: KindMalformed, Err: err}
}

// errorMessage extracts {"error": "..."} from a failed response, falling back to the raw text
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
