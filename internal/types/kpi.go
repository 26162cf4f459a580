package types

import (
	"fmt"
	"math"
	"strconv"
)

// KPI is one headline figure on the overview
type KPI struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Change      string `json:"change"`
	Tone        Tone   `json:"tone"`
	Description string `json:"description"`
}

// AvgMinutes is the average call duration rounded to whole minutes
func (a AvgDuration) AvgMinutes() int {
	return int(math.Round(float64(a.Seconds) / 60))
}

// KPIs derives the overview headline figures from a snapshot
func (s MetricsSnapshot) KPIs() []KPI {
	avail := s.AgentAvailability
	return []KPI{
		{
			Title:       "Total Calls Today",
			Value:       strconv.Itoa(s.DailyCalls.Total),
			Change:      FormatChange(s.DailyCalls.Change),
			Tone:        ChangeTone(s.DailyCalls.Change),
			Description: "Compared to yesterday",
		},
		{
			Title:       "Active Calls Now",
			Value:       strconv.Itoa(avail.OnCall),
			Change:      "Live",
			Tone:        ToneNeutral,
			Description: fmt.Sprintf("Currently in progress. Avg Duration: %d minutes", s.AvgDuration.AvgMinutes()),
		},
		{
			Title:       "Available Agents",
			Value:       strconv.Itoa(avail.Available),
			Change:      fmt.Sprintf("%d%%", avail.AvailablePercent()),
			Tone:        TonePositive,
			Description: fmt.Sprintf("Out of %d total agents", avail.Total),
		},
		{
			Title:       "Avg. Call Duration",
			Value:       FormatDuration(&s.AvgDuration.Seconds),
			Change:      FormatChange(s.AvgDuration.Change),
			Tone:        ChangeTone(-s.AvgDuration.Change),
			Description: "Completed calls, last 24 hours",
		},
	}
}
