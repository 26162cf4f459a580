package callsim

import (
	"context"
	"testing"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/storage"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/rs/zerolog"
)

func newTestGenerator(t *testing.T, callsPerMin int) (*Generator, *storage.MemoryStore, *time.Time) {
	t.Helper()
	store := storage.NewMemoryStore()
	g := NewGenerator(store, callsPerMin, 1, zerolog.Nop())
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	g.minTalk = time.Minute
	g.maxTalk = time.Minute
	return g, store, &now
}

func TestSeedIsIdempotent(t *testing.T) {
	g, store, _ := newTestGenerator(t, 0)
	ctx := context.Background()

	if err := g.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	agents, _ := store.ListAgents(ctx)
	calls, _ := store.ListCalls(ctx)
	recordings, _ := store.ListRecordings(ctx)
	if len(agents) != 4 || len(recordings) != 8 || len(calls) < 20 {
		t.Fatalf("unexpected seed sizes: %d agents, %d calls, %d recordings", len(agents), len(calls), len(recordings))
	}

	if err := g.Seed(ctx); err != nil {
		t.Fatalf("Seed again: %v", err)
	}
	again, _ := store.ListCalls(ctx)
	if len(again) != len(calls) {
		t.Errorf("expected seed to keep existing calls, got %d then %d", len(calls), len(again))
	}
}

func TestPlaceConnectsAvailableAgent(t *testing.T) {
	g, store, _ := newTestGenerator(t, 0)
	ctx := context.Background()
	store.SaveAgent(ctx, types.Agent{ID: 1, Name: "Sarah Johnson", Status: types.StatusOffline})
	store.SaveAgent(ctx, types.Agent{ID: 2, Name: "Mike Chen", Status: types.StatusAvailable})

	call, err := g.Place(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if call.Status != types.CallInProgress || call.AgentLabel() != "Mike Chen" {
		t.Errorf("unexpected call %+v", call)
	}
	if call.ID == 0 || len(call.CallSID) != 34 {
		t.Errorf("expected assigned id and sid, got %d %q", call.ID, call.CallSID)
	}

	agent, _ := store.GetAgent(ctx, 2)
	if agent.Status != types.StatusOnCall {
		t.Errorf("expected agent on_call, got %s", agent.Status)
	}
	if g.Active() != 1 {
		t.Errorf("expected 1 active call, got %d", g.Active())
	}
}

func TestPlaceWithoutAgent(t *testing.T) {
	g, store, _ := newTestGenerator(t, 0)
	ctx := context.Background()
	store.SaveAgent(ctx, types.Agent{ID: 1, Status: types.StatusOffline})

	call, err := g.Place(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if call.Status != types.CallNoAnswer || call.InProgress() {
		t.Errorf("expected closed no-answer call, got %+v", call)
	}
	if g.Active() != 0 {
		t.Errorf("expected no active calls, got %d", g.Active())
	}
}

func TestTickCompletesDueCalls(t *testing.T) {
	g, store, now := newTestGenerator(t, 0)
	ctx := context.Background()
	store.SaveAgent(ctx, types.Agent{ID: 1, Name: "Sarah Johnson", Status: types.StatusAvailable})

	call, _ := g.Place(ctx, "+1 (555) 123-4567")

	g.Tick(ctx, now.Add(30*time.Second))
	if g.Active() != 1 {
		t.Fatal("expected call to still be active before its talk time")
	}

	g.Tick(ctx, now.Add(time.Minute))
	if g.Active() != 0 {
		t.Fatal("expected call to complete")
	}

	got, _ := store.GetCall(ctx, call.CallSID)
	if got.Status != types.CallCompleted || got.Duration == nil || *got.Duration != 60 {
		t.Errorf("unexpected completed call %+v", got)
	}
	agent, _ := store.GetAgent(ctx, 1)
	if agent.Status != types.StatusAvailable {
		t.Errorf("expected agent freed, got %s", agent.Status)
	}
	recordings, _ := store.ListRecordings(ctx)
	if len(recordings) != 1 || !recordings[0].Playable() || recordings[0].Duration != 60 {
		t.Errorf("unexpected recordings %+v", recordings)
	}
}

func TestTickGeneratesCalls(t *testing.T) {
	g, store, now := newTestGenerator(t, 4)
	ctx := context.Background()

	if g.Interval() != 15*time.Second {
		t.Errorf("expected 15s interval, got %v", g.Interval())
	}

	g.Tick(ctx, *now)
	calls, _ := store.ListCalls(ctx)
	if len(calls) != 1 {
		t.Errorf("expected 1 generated call, got %d", len(calls))
	}
}

func TestReleaseFreesAgentButKeepsOperatorStatus(t *testing.T) {
	g, store, _ := newTestGenerator(t, 0)
	ctx := context.Background()
	store.SaveAgent(ctx, types.Agent{ID: 1, Status: types.StatusAvailable})
	store.SaveAgent(ctx, types.Agent{ID: 2, Status: types.StatusAvailable})

	first, _ := g.Place(ctx, "1")
	second, _ := g.Place(ctx, "2")

	// operator moved agent 2 offline mid call
	agent, _ := store.GetAgent(ctx, 2)
	agent.Status = types.StatusOffline
	store.SaveAgent(ctx, agent)

	g.Release(first)
	g.Release(second)

	a1, _ := store.GetAgent(ctx, 1)
	a2, _ := store.GetAgent(ctx, 2)
	if a1.Status != types.StatusAvailable || a2.Status != types.StatusOffline {
		t.Errorf("expected available and offline, got %s and %s", a1.Status, a2.Status)
	}
}
