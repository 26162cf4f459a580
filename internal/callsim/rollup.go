package callsim

import (
	"math"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/types"
)

// DailyCalls counts calls started on now's UTC date and compares with the
// day before. change is 0 when yesterday had no calls.
func DailyCalls(calls []types.CallLogEntry, now time.Time) types.DailyCalls {
	today := now.UTC().Truncate(24 * time.Hour)
	yesterday := today.Add(-24 * time.Hour)

	var todayCount, yesterdayCount int
	for _, c := range calls {
		if c.StartTime == nil {
			continue
		}
		day := c.StartTime.UTC().Truncate(24 * time.Hour)
		switch {
		case day.Equal(today):
			todayCount++
		case day.Equal(yesterday):
			yesterdayCount++
		}
	}

	return types.DailyCalls{
		Total:  todayCount,
		Change: percentChange(float64(todayCount), float64(yesterdayCount)),
	}
}

// AvgCallDuration averages end minus start over completed calls of the last
// 24 hours and compares with the 24 hours before that
func AvgCallDuration(calls []types.CallLogEntry, now time.Time) types.AvgDuration {
	dayAgo := now.Add(-24 * time.Hour)
	twoDaysAgo := now.Add(-48 * time.Hour)

	var current, previous []float64
	for _, c := range calls {
		if c.Status != types.CallCompleted || c.StartTime == nil || c.EndTime == nil {
			continue
		}
		secs := c.EndTime.Sub(c.StartTime.Time).Seconds()
		switch {
		case !c.StartTime.Before(dayAgo):
			current = append(current, secs)
		case !c.StartTime.Before(twoDaysAgo):
			previous = append(previous, secs)
		}
	}

	avg, prev := mean(current), mean(previous)
	return types.AvgDuration{
		Seconds: int(math.Round(avg)),
		Change:  percentChange(avg, prev),
	}
}

// Availability counts agents by status
func Availability(agents []types.Agent) types.AgentAvailability {
	counts := types.StatusCount(agents)
	return types.AgentAvailability{
		Available: counts[types.StatusAvailable],
		OnCall:    counts[types.StatusOnCall],
		Offline:   counts[types.StatusOffline],
		Total:     len(agents),
	}
}

func percentChange(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return math.Round((current-previous)/previous*1000) / 10
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
