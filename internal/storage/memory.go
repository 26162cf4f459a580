package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/dennisdiepolder/monti/opsdash/internal/types"
)

// MemoryStore keeps everything in process memory; used when STORE_MODE is unset
type MemoryStore struct {
	mu         sync.RWMutex
	agents     map[int64]types.Agent
	calls      map[string]types.CallLogEntry
	recordings map[int64]types.CallRecording
	nextCallID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agents:     make(map[int64]types.Agent),
		calls:      make(map[string]types.CallLogEntry),
		recordings: make(map[int64]types.CallRecording),
	}
}

func (s *MemoryStore) ListAgents(_ context.Context) ([]types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]types.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents, nil
}

func (s *MemoryStore) GetAgent(_ context.Context, id int64) (types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return types.Agent{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) SaveAgent(_ context.Context, agent types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = agent
	return nil
}

func (s *MemoryStore) ListCalls(_ context.Context) ([]types.CallLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calls := make([]types.CallLogEntry, 0, len(s.calls))
	for _, c := range s.calls {
		calls = append(calls, c)
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].ID < calls[j].ID })
	return calls, nil
}

func (s *MemoryStore) GetCall(_ context.Context, callSID string) (types.CallLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.calls[callSID]
	if !ok {
		return types.CallLogEntry{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) SaveCall(_ context.Context, call types.CallLogEntry) (types.CallLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if call.ID == 0 {
		if existing, ok := s.calls[call.CallSID]; ok {
			call.ID = existing.ID
		} else {
			s.nextCallID++
			call.ID = s.nextCallID
		}
	} else if call.ID > s.nextCallID {
		s.nextCallID = call.ID
	}
	s.calls[call.CallSID] = call
	return call, nil
}

func (s *MemoryStore) ListRecordings(_ context.Context) ([]types.CallRecording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recordings := make([]types.CallRecording, 0, len(s.recordings))
	for _, r := range s.recordings {
		recordings = append(recordings, r)
	}
	sort.Slice(recordings, func(i, j int) bool { return recordings[i].ID < recordings[j].ID })
	return recordings, nil
}

func (s *MemoryStore) SaveRecording(_ context.Context, recording types.CallRecording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordings[recording.ID] = recording
	return nil
}

func (s *MemoryStore) Close() error { return nil }
