package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// CallRecording is a recorded call available for playback or download
type CallRecording struct {
	ID           int64      `json:"id"`
	CallerNumber string     `json:"caller_number"`
	AgentName    string     `json:"agent_name"`
	Duration     int        `json:"duration"` // seconds
	RecordingURL *string    `json:"recording_url"`
	RecordedAt   Timestamp  `json:"recorded_at"`
	FileSize     int64      `json:"file_size"` // bytes
	Status       CallStatus `json:"status"`
}

// Playable reports whether the recording has media behind it
func (r CallRecording) Playable() bool {
	return r.RecordingURL != nil && *r.RecordingURL != ""
}

// DownloadName is the file name offered when the recording is saved
func (r CallRecording) DownloadName() string {
	digits := strings.Map(func(c rune) rune {
		if unicode.IsDigit(c) {
			return c
		}
		return -1
	}, r.CallerNumber)
	return fmt.Sprintf("recording_%d_%s.mp3", r.ID, digits)
}

// SearchFields are the values the recordings search matches against
func (r CallRecording) SearchFields() []string {
	return []string{r.CallerNumber, r.AgentName}
}

// FacetValue is the value the recordings status filter compares
func (r CallRecording) FacetValue() string {
	return string(r.Status)
}

// MarshalJSON adds the status tone alongside the recording fields
func (r CallRecording) MarshalJSON() ([]byte, error) {
	type recording CallRecording
	return json.Marshal(struct {
		recording
		Tone Tone `json:"tone"`
	}{recording(r), r.Status.Tone()})
}
