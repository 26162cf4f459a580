package callsim

import (
	"testing"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/types"
)

func call(status types.CallStatus, start time.Time, talk time.Duration) types.CallLogEntry {
	s := types.NewTimestamp(start)
	e := types.NewTimestamp(start.Add(talk))
	return types.CallLogEntry{Status: status, StartTime: &s, EndTime: &e}
}

func TestDailyCalls(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	today := now.Add(-2 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	tests := []struct {
		name  string
		calls []types.CallLogEntry
		want  types.DailyCalls
	}{
		{"empty", nil, types.DailyCalls{}},
		{
			"no calls yesterday",
			[]types.CallLogEntry{call(types.CallCompleted, today, time.Minute)},
			types.DailyCalls{Total: 1, Change: 0},
		},
		{
			"growth",
			[]types.CallLogEntry{
				call(types.CallCompleted, today, time.Minute),
				call(types.CallCompleted, today, time.Minute),
				call(types.CallMissed, today, 0),
				call(types.CallCompleted, yesterday, time.Minute),
				call(types.CallCompleted, yesterday, time.Minute),
			},
			types.DailyCalls{Total: 3, Change: 50},
		},
		{
			"decline rounds to one decimal",
			[]types.CallLogEntry{
				call(types.CallCompleted, today, time.Minute),
				call(types.CallCompleted, yesterday, time.Minute),
				call(types.CallCompleted, yesterday, time.Minute),
				call(types.CallCompleted, yesterday, time.Minute),
			},
			types.DailyCalls{Total: 1, Change: -66.7},
		},
		{
			"no start time ignored",
			[]types.CallLogEntry{{Status: types.CallInitiated}},
			types.DailyCalls{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyCalls(tt.calls, now); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestAvgCallDuration(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	calls := []types.CallLogEntry{
		call(types.CallCompleted, now.Add(-time.Hour), 200*time.Second),
		call(types.CallCompleted, now.Add(-2*time.Hour), 100*time.Second),
		call(types.CallMissed, now.Add(-time.Hour), 900*time.Second),
		call(types.CallCompleted, now.Add(-30*time.Hour), 100*time.Second),
		call(types.CallCompleted, now.Add(-72*time.Hour), 999*time.Second),
	}

	got := AvgCallDuration(calls, now)
	if got.Seconds != 150 {
		t.Errorf("expected 150 seconds, got %d", got.Seconds)
	}
	if got.Change != 50 {
		t.Errorf("expected change 50, got %v", got.Change)
	}

	if got := AvgCallDuration(nil, now); got != (types.AvgDuration{}) {
		t.Errorf("expected zero value, got %+v", got)
	}
}

func TestAvailability(t *testing.T) {
	got := Availability([]types.Agent{
		{Status: types.StatusAvailable},
		{Status: types.StatusOnCall},
		{Status: types.StatusOffline},
		{Status: types.StatusUnavailable},
	})
	want := types.AgentAvailability{Available: 1, OnCall: 1, Offline: 1, Total: 4}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
