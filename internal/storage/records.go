package storage

import (
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/types"
)

// agentRecord is the persisted form of types.Agent, shared by the SQL and
// DynamoDB backends
type agentRecord struct {
	ID               int64     `gorm:"primaryKey;autoIncrement:false" dynamodbav:"ID"`
	Name             string    `gorm:"not null" dynamodbav:"Name"`
	PhoneNumber      string    `gorm:"uniqueIndex;not null" dynamodbav:"PhoneNumber"`
	Status           string    `gorm:"not null;default:offline" dynamodbav:"Status"`
	LastStatusUpdate time.Time `dynamodbav:"LastStatusUpdate"`
}

func (agentRecord) TableName() string { return "agents" }

type callRecord struct {
	ID           int64      `gorm:"primaryKey" dynamodbav:"ID"`
	CallSID      string     `gorm:"uniqueIndex;not null" dynamodbav:"CallSID"`
	CallerNumber string     `gorm:"not null" dynamodbav:"CallerNumber"`
	AgentName    *string    `dynamodbav:"AgentName,omitempty"`
	StartTime    *time.Time `gorm:"index" dynamodbav:"StartTime,omitempty"`
	EndTime      *time.Time `dynamodbav:"EndTime,omitempty"`
	Duration     *int       `dynamodbav:"Duration,omitempty"`
	Status       string     `dynamodbav:"Status"`
	RecordingURL *string    `dynamodbav:"RecordingURL,omitempty"`
	Summary      *string    `dynamodbav:"Summary,omitempty"`
}

func (callRecord) TableName() string { return "calls" }

type recordingRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false" dynamodbav:"ID"`
	CallerNumber string    `gorm:"not null" dynamodbav:"CallerNumber"`
	AgentName    string    `dynamodbav:"AgentName"`
	Duration     int       `dynamodbav:"Duration"`
	RecordingURL *string   `dynamodbav:"RecordingURL,omitempty"`
	RecordedAt   time.Time `gorm:"index" dynamodbav:"RecordedAt"`
	FileSize     int64     `dynamodbav:"FileSize"`
	Status       string    `dynamodbav:"Status"`
}

func (recordingRecord) TableName() string { return "recordings" }

func fromAgent(a types.Agent) agentRecord {
	return agentRecord{
		ID:               a.ID,
		Name:             a.Name,
		PhoneNumber:      a.PhoneNumber,
		Status:           string(a.Status),
		LastStatusUpdate: a.LastStatusUpdate.Time,
	}
}

func (r agentRecord) toAgent() types.Agent {
	return types.Agent{
		ID:               r.ID,
		Name:             r.Name,
		PhoneNumber:      r.PhoneNumber,
		Status:           types.AgentStatus(r.Status),
		LastStatusUpdate: types.NewTimestamp(r.LastStatusUpdate),
	}
}

func fromCall(c types.CallLogEntry) callRecord {
	return callRecord{
		ID:           c.ID,
		CallSID:      c.CallSID,
		CallerNumber: c.CallerNumber,
		AgentName:    c.AgentName,
		StartTime:    timePtr(c.StartTime),
		EndTime:      timePtr(c.EndTime),
		Duration:     c.Duration,
		Status:       string(c.Status),
		RecordingURL: c.RecordingURL,
		Summary:      c.Summary,
	}
}

func (r callRecord) toCall() types.CallLogEntry {
	return types.CallLogEntry{
		ID:           r.ID,
		CallSID:      r.CallSID,
		CallerNumber: r.CallerNumber,
		AgentName:    r.AgentName,
		StartTime:    timestampPtr(r.StartTime),
		EndTime:      timestampPtr(r.EndTime),
		Duration:     r.Duration,
		Status:       types.CallStatus(r.Status),
		RecordingURL: r.RecordingURL,
		Summary:      r.Summary,
	}
}

func fromRecording(rec types.CallRecording) recordingRecord {
	return recordingRecord{
		ID:           rec.ID,
		CallerNumber: rec.CallerNumber,
		AgentName:    rec.AgentName,
		Duration:     rec.Duration,
		RecordingURL: rec.RecordingURL,
		RecordedAt:   rec.RecordedAt.Time,
		FileSize:     rec.FileSize,
		Status:       string(rec.Status),
	}
}

func (r recordingRecord) toRecording() types.CallRecording {
	return types.CallRecording{
		ID:           r.ID,
		CallerNumber: r.CallerNumber,
		AgentName:    r.AgentName,
		Duration:     r.Duration,
		RecordingURL: r.RecordingURL,
		RecordedAt:   types.NewTimestamp(r.RecordedAt),
		FileSize:     r.FileSize,
		Status:       types.CallStatus(r.Status),
	}
}

func timePtr(ts *types.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

func timestampPtr(t *time.Time) *types.Timestamp {
	if t == nil {
		return nil
	}
	ts := types.NewTimestamp(*t)
	return &ts
}
