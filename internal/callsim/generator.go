package callsim

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/storage"
	"github.com/dennisdiepolder/monti/opsdash/internal/ticker"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// bytesPerSecond approximates the size of a recorded mp3 stream
const bytesPerSecond = 6500

type activeCall struct {
	agentID int64
	endsAt  time.Time
}

// Generator produces simulated inbound calls at a fixed rate, connects them
// to available agents and completes them after a random talk time
type Generator struct {
	store       storage.Store
	callsPerMin int
	logger      zerolog.Logger

	mu            sync.Mutex
	rng           *rand.Rand
	active        map[string]activeCall
	minTalk       time.Duration
	maxTalk       time.Duration
	nextRecording int64
	now           func() time.Time
}

// NewGenerator creates a Generator. callsPerMin <= 0 only completes calls
// placed through Place.
func NewGenerator(store storage.Store, callsPerMin int, seed int64, logger zerolog.Logger) *Generator {
	return &Generator{
		store:       store,
		callsPerMin: callsPerMin,
		logger:      logger.With().Str("component", "callgen").Logger(),
		rng:         rand.New(rand.NewSource(seed)),
		active:      make(map[string]activeCall),
		minTalk:     time.Minute,
		maxTalk:     15 * time.Minute,
		now:         time.Now,
	}
}

// Interval is the time between generated calls
func (g *Generator) Interval() time.Duration {
	if g.callsPerMin <= 0 {
		return 15 * time.Second
	}
	return time.Minute / time.Duration(g.callsPerMin)
}

// Start runs the generator until ctx is cancelled
func (g *Generator) Start(ctx context.Context) {
	ticker.NewTicker("callgen", g.Interval(), g.Tick, g.logger).Start(ctx)
}

// Tick completes due calls and, when generating, places one inbound call
func (g *Generator) Tick(ctx context.Context, now time.Time) {
	g.completeDue(ctx, now)

	if g.callsPerMin <= 0 {
		return
	}
	if _, err := g.Place(ctx, g.randomNumber()); err != nil {
		g.logger.Error().Err(err).Msg("failed to place generated call")
	}
}

// Active returns the number of calls currently connected to an agent
func (g *Generator) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

// Place starts a call from number and connects it to the first available
// agent. Without an available agent the call ends as no-answer.
func (g *Generator) Place(ctx context.Context, number string) (types.CallLogEntry, error) {
	now := g.now()
	start := types.NewTimestamp(now)
	call := types.CallLogEntry{
		CallSID:      "CA" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		CallerNumber: number,
		StartTime:    &start,
		Status:       types.CallInitiated,
	}

	agent, ok, err := g.claimAgent(ctx, now)
	if err != nil {
		return types.CallLogEntry{}, err
	}

	if !ok {
		zero := 0
		call.Status = types.CallNoAnswer
		call.EndTime = &start
		call.Duration = &zero
		call, err = g.store.SaveCall(ctx, call)
		if err != nil {
			return types.CallLogEntry{}, fmt.Errorf("failed to save call: %w", err)
		}
		g.logger.Info().Str("call_sid", call.CallSID).Msg("no agent available")
		return call, nil
	}

	name := agent.Name
	call.AgentName = &name
	call.Status = types.CallInProgress
	call, err = g.store.SaveCall(ctx, call)
	if err != nil {
		return types.CallLogEntry{}, fmt.Errorf("failed to save call: %w", err)
	}

	g.mu.Lock()
	talk := g.minTalk
	if span := g.maxTalk - g.minTalk; span > 0 {
		talk += time.Duration(g.rng.Int63n(int64(span)))
	}
	g.active[call.CallSID] = activeCall{agentID: agent.ID, endsAt: now.Add(talk)}
	g.mu.Unlock()

	g.logger.Info().
		Str("call_sid", call.CallSID).
		Int64("agent_id", agent.ID).
		Dur("talk_time", talk).
		Msg("call connected")
	return call, nil
}

// Release frees the agent of a call that ended outside the generator
func (g *Generator) Release(call types.CallLogEntry) {
	g.mu.Lock()
	ac, ok := g.active[call.CallSID]
	delete(g.active, call.CallSID)
	g.mu.Unlock()

	if ok {
		g.freeAgent(context.Background(), ac.agentID, g.now())
	}
}

func (g *Generator) completeDue(ctx context.Context, now time.Time) {
	g.mu.Lock()
	due := make(map[string]activeCall)
	for sid, ac := range g.active {
		if !now.Before(ac.endsAt) {
			due[sid] = ac
			delete(g.active, sid)
		}
	}
	g.mu.Unlock()

	for sid, ac := range due {
		if err := g.complete(ctx, sid, now); err != nil {
			g.logger.Error().Err(err).Str("call_sid", sid).Msg("failed to complete call")
		}
		g.freeAgent(ctx, ac.agentID, now)
	}
}

func (g *Generator) complete(ctx context.Context, sid string, now time.Time) error {
	call, err := g.store.GetCall(ctx, sid)
	if err != nil {
		return err
	}

	end := types.NewTimestamp(now)
	duration := 0
	if call.StartTime != nil {
		duration = int(now.Sub(call.StartTime.Time).Seconds())
	}

	g.mu.Lock()
	g.nextRecording++
	recordingID := g.nextRecording
	g.mu.Unlock()

	url := fmt.Sprintf("/api/recordings/rec_%03d.mp3", recordingID)
	call.Status = types.CallCompleted
	call.EndTime = &end
	call.Duration = &duration
	call.RecordingURL = &url
	if _, err := g.store.SaveCall(ctx, call); err != nil {
		return err
	}

	return g.store.SaveRecording(ctx, types.CallRecording{
		ID:           recordingID,
		CallerNumber: call.CallerNumber,
		AgentName:    call.AgentLabel(),
		Duration:     duration,
		RecordingURL: &url,
		RecordedAt:   end,
		FileSize:     int64(duration) * bytesPerSecond,
		Status:       types.CallCompleted,
	})
}

// claimAgent moves the first available agent to on_call
func (g *Generator) claimAgent(ctx context.Context, now time.Time) (types.Agent, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	agents, err := g.store.ListAgents(ctx)
	if err != nil {
		return types.Agent{}, false, fmt.Errorf("failed to list agents: %w", err)
	}
	for _, agent := range agents {
		if agent.Status != types.StatusAvailable {
			continue
		}
		agent.Status = types.StatusOnCall
		agent.LastStatusUpdate = types.NewTimestamp(now)
		if err := g.store.SaveAgent(ctx, agent); err != nil {
			return types.Agent{}, false, fmt.Errorf("failed to claim agent: %w", err)
		}
		return agent, true, nil
	}
	return types.Agent{}, false, nil
}

// freeAgent returns an on_call agent to available; agents moved elsewhere
// by an operator keep their status
func (g *Generator) freeAgent(ctx context.Context, id int64, now time.Time) {
	agent, err := g.store.GetAgent(ctx, id)
	if err != nil {
		g.logger.Error().Err(err).Int64("agent_id", id).Msg("failed to load agent")
		return
	}
	if agent.Status != types.StatusOnCall {
		return
	}
	agent.Status = types.StatusAvailable
	agent.LastStatusUpdate = types.NewTimestamp(now)
	if err := g.store.SaveAgent(ctx, agent); err != nil {
		g.logger.Error().Err(err).Int64("agent_id", id).Msg("failed to free agent")
	}
}

func (g *Generator) randomNumber() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("+1 (555) %03d-%04d", g.rng.Intn(1000), g.rng.Intn(10000))
}
