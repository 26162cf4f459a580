package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies why an upstream call failed
type Kind int

const (
	// KindTransport means the request never produced a response (DNS, refused, timeout)
	KindTransport Kind = iota + 1
	// KindStatus means the backend answered with a non-2xx status
	KindStatus
	// KindMalformed means a 2xx body could not be decoded into the expected shape
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that fails
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Message    string // server supplied detail, if any
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: unexpected status code: %d: %s", e.Op, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: unexpected status code: %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an upstream error of kind k
func IsKind(err error, k Kind) bool {
	var uerr *Error
	return errors.As(err, &uerr) && uerr.Kind == k
}

var opLabels = map[string]string{
	OpListAgents:        "Failed to load agents",
	OpSetAgentStatus:    "Failed to update agent status",
	OpListCalls:         "Failed to load call logs",
	OpListRecordings:    "Failed to load recordings",
	OpDailyCalls:        "Failed to load metrics",
	OpAvgCallDuration:   "Failed to load metrics",
	OpAgentAvailability: "Failed to load metrics",
	OpRequestCall:       "Failed to request call",
}

// UserMessage normalizes err into the single line a view displays
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var uerr *Error
	if !errors.As(err, &uerr) {
		return err.Error()
	}

	label, ok := opLabels[uerr.Op]
	if !ok {
		label = "Request failed"
	}

	switch uerr.Kind {
	case KindTransport:
		return label + ": backend unreachable"
	case KindStatus:
		if uerr.Message != "" {
			return fmt.Sprintf("%s: %s", label, uerr.Message)
		}
		return fmt.Sprintf("%s: backend returned %d", label, uerr.StatusCode)
	case KindMalformed:
		return label + ": unexpected response from backend"
	default:
		return label
	}
}
