package types

import "time"

// DailyCalls is the daily call volume facet
type DailyCalls struct {
	Total  int     `json:"total"`
	Change float64 `json:"change"` // percent vs yesterday
}

// AvgDuration is the average call duration facet
type AvgDuration struct {
	Seconds int     `json:"seconds"`
	Change  float64 `json:"change"` // percent vs previous period
}

// AgentAvailability is the agent availability facet
type AgentAvailability struct {
	Available int `json:"available"`
	OnCall    int `json:"on_call"`
	Offline   int `json:"offline"`
	Total     int `json:"total"`
}

// AvailablePercent is the share of available agents, 0 when there are none
func (a AgentAvailability) AvailablePercent() int {
	if a.Total <= 0 {
		return 0
	}
	return int(float64(a.Available)/float64(a.Total)*100 + 0.5)
}

// MetricsSnapshot is one composed view of all metric facets.
// A snapshot is only ever built with all three facets present.
type MetricsSnapshot struct {
	DailyCalls        DailyCalls        `json:"dailyCalls"`
	AvgDuration       AvgDuration       `json:"avgDuration"`
	AgentAvailability AgentAvailability `json:"agentAvailability"`
	FetchedAt         time.Time         `json:"fetchedAt"`
}

// ChangeTone classifies a percentage change for display
func ChangeTone(change float64) Tone {
	switch {
	case change > 0:
		return TonePositive
	case change < 0:
		return ToneDestructive
	default:
		return ToneNeutral
	}
}

// FormatChange renders a percentage change with an explicit sign
func FormatChange(change float64) string {
	if change > 0 {
		return "+" + trimFloat(change) + "%"
	}
	return trimFloat(change) + "%"
}
