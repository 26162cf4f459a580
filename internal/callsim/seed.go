package callsim

import (
	"context"
	"fmt"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/types"
)

var seedAgents = []types.Agent{
	{ID: 1, Name: "Sarah Johnson", PhoneNumber: "+919325484855", Status: types.StatusAvailable},
	{ID: 2, Name: "Mike Chen", PhoneNumber: "+15552345678", Status: types.StatusOffline},
	{ID: 3, Name: "Emily Rodriguez", PhoneNumber: "+15553456789", Status: types.StatusAvailable},
	{ID: 4, Name: "David Kim", PhoneNumber: "+15554567890", Status: types.StatusOffline},
}

var seedRecordings = []struct {
	caller   string
	agent    string
	duration int
	status   types.CallStatus
}{
	{"+1 (555) 123-4567", "Sarah Johnson", 323, types.CallCompleted},
	{"+1 (555) 234-5678", "Mike Chen", 765, types.CallCompleted},
	{"+1 (555) 345-6789", "Emily Rodriguez", 497, types.CallMissed},
	{"+1 (555) 456-7890", "David Kim", 932, types.CallCompleted},
	{"+1 (555) 567-8901", "Lisa Thompson", 221, types.CallFailed},
	{"+1 (555) 678-9012", "James Wilson", 478, types.CallCompleted},
	{"+1 (555) 789-0123", "Maria Garcia", 682, types.CallCompleted},
	{"+1 (555) 890-1234", "Robert Brown", 407, types.CallMissed},
}

// Seed fills an empty store with the demo roster, recordings and two days
// of completed call history. Collections that already hold data are kept.
func (g *Generator) Seed(ctx context.Context) error {
	now := g.now()

	agents, err := g.store.ListAgents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}
	if len(agents) == 0 {
		for _, agent := range seedAgents {
			agent.LastStatusUpdate = types.NewTimestamp(now)
			if err := g.store.SaveAgent(ctx, agent); err != nil {
				return fmt.Errorf("failed to seed agent: %w", err)
			}
		}
		agents = seedAgents
		g.logger.Info().Int("count", len(seedAgents)).Msg("seeded agents")
	}

	recordings, err := g.store.ListRecordings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}
	if len(recordings) == 0 {
		for i, r := range seedRecordings {
			id := int64(i + 1)
			url := fmt.Sprintf("/api/recordings/rec_%03d.mp3", id)
			rec := types.CallRecording{
				ID:           id,
				CallerNumber: r.caller,
				AgentName:    r.agent,
				Duration:     r.duration,
				RecordedAt:   types.NewTimestamp(now.Add(-time.Duration(i+1) * time.Hour)),
				FileSize:     int64(r.duration) * bytesPerSecond,
				Status:       r.status,
			}
			if r.status == types.CallCompleted {
				rec.RecordingURL = &url
			}
			if err := g.store.SaveRecording(ctx, rec); err != nil {
				return fmt.Errorf("failed to seed recording: %w", err)
			}
		}
		recordings, _ = g.store.ListRecordings(ctx)
		g.logger.Info().Int("count", len(seedRecordings)).Msg("seeded recordings")
	}

	g.mu.Lock()
	for _, r := range recordings {
		if r.ID > g.nextRecording {
			g.nextRecording = r.ID
		}
	}
	g.mu.Unlock()

	calls, err := g.store.ListCalls(ctx)
	if err != nil {
		return fmt.Errorf("failed to list calls: %w", err)
	}
	if len(calls) > 0 {
		return nil
	}

	history := g.history(agents, now)
	for _, call := range history {
		if _, err := g.store.SaveCall(ctx, call); err != nil {
			return fmt.Errorf("failed to seed call: %w", err)
		}
	}
	g.logger.Info().Int("count", len(history)).Msg("seeded call history")
	return nil
}

// history spreads completed calls over the 48 hours before now
func (g *Generator) history(agents []types.Agent, now time.Time) []types.CallLogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := 20 + g.rng.Intn(20)
	calls := make([]types.CallLogEntry, 0, count)
	for i := 0; i < count; i++ {
		startAt := now.Add(-time.Duration(g.rng.Int63n(int64(48 * time.Hour))))
		talk := 60 + g.rng.Intn(840)
		if limit := now.Add(-time.Duration(talk) * time.Second); startAt.After(limit) {
			startAt = limit
		}
		start := types.NewTimestamp(startAt)
		end := types.NewTimestamp(startAt.Add(time.Duration(talk) * time.Second))
		agent := agents[g.rng.Intn(len(agents))].Name

		call := types.CallLogEntry{
			CallSID:      fmt.Sprintf("CAseed%04d", i+1),
			CallerNumber: fmt.Sprintf("+1 (555) %03d-%04d", g.rng.Intn(1000), g.rng.Intn(10000)),
			AgentName:    &agent,
			StartTime:    &start,
			EndTime:      &end,
			Duration:     &talk,
			Status:       types.CallCompleted,
		}
		if g.rng.Intn(10) == 0 {
			zero := 0
			call.Status = types.CallNoAnswer
			call.AgentName = nil
			call.EndTime = &start
			call.Duration = &zero
		}
		calls = append(calls, call)
	}
	return calls
}
