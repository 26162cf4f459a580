package types

import "encoding/json"

// CallStatus is the lifecycle status of a call as reported upstream.
// The set is open: unknown values must be displayed, not rejected.
type CallStatus string

const (
	CallCompleted   CallStatus = "completed"
	CallInProgress  CallStatus = "in-progress"
	CallMissed      CallStatus = "missed"
	CallAbandoned   CallStatus = "abandoned"
	CallTransferred CallStatus = "transferred"
	CallInitiated   CallStatus = "initiated"
	CallRinging     CallStatus = "ringing"
	CallAnswered    CallStatus = "answered"
	CallFailed      CallStatus = "failed"
	CallNoAnswer    CallStatus = "no-answer"
	CallBusy        CallStatus = "busy"
	CallCanceled    CallStatus = "canceled"
)

// Tone is the visual treatment of a status badge
type Tone string

const (
	TonePositive    Tone = "positive"
	ToneSecondary   Tone = "secondary"
	ToneDestructive Tone = "destructive"
	ToneNeutral     Tone = "neutral"
)

var callStatusTones = map[CallStatus]Tone{
	CallCompleted:   TonePositive,
	CallInProgress:  ToneSecondary,
	CallTransferred: ToneSecondary,
	CallInitiated:   ToneSecondary,
	CallRinging:     ToneSecondary,
	CallAnswered:    ToneSecondary,
	CallMissed:      ToneDestructive,
	CallAbandoned:   ToneDestructive,
	CallFailed:      ToneDestructive,
	CallNoAnswer:    ToneDestructive,
	CallBusy:        ToneDestructive,
	CallCanceled:    ToneDestructive,
}

// Tone returns the badge treatment for s; unrecognized statuses are neutral
func (s CallStatus) Tone() Tone {
	if tone, ok := callStatusTones[s]; ok {
		return tone
	}
	return ToneNeutral
}

// Known reports whether s is one of the statuses the upstream documents
func (s CallStatus) Known() bool {
	_, ok := callStatusTones[s]
	return ok
}

// CallLogEntry is one row of upstream call history
type CallLogEntry struct {
	ID           int64      `json:"id"`
	CallSID      string     `json:"call_sid"`
	CallerNumber string     `json:"caller_number"`
	AgentName    *string    `json:"agent_name"`
	StartTime    *Timestamp `json:"start_time"`
	EndTime      *Timestamp `json:"end_time"`
	Duration     *int       `json:"duration"` // seconds
	Status       CallStatus `json:"status"`
	RecordingURL *string    `json:"recording_url"`
	Summary      *string    `json:"ai_interaction_summary"`
}

// InProgress reports whether the call has not ended yet
func (c CallLogEntry) InProgress() bool {
	return c.EndTime == nil
}

// AgentLabel returns the assigned agent or "Unassigned"
func (c CallLogEntry) AgentLabel() string {
	if c.AgentName == nil || *c.AgentName == "" {
		return "Unassigned"
	}
	return *c.AgentName
}

// SearchFields are the values the call log search matches against; absent values read as ""
func (c CallLogEntry) SearchFields() []string {
	agent := ""
	if c.AgentName != nil {
		agent = *c.AgentName
	}
	return []string{c.CallerNumber, agent, string(c.Status)}
}

// MarshalJSON adds the status tone so clients can style badges without
// their own status table
func (c CallLogEntry) MarshalJSON() ([]byte, error) {
	type entry CallLogEntry
	return json.Marshal(struct {
		entry
		Tone Tone `json:"tone"`
	}{entry(c), c.Status.Tone()})
}
