package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a keyed lookup matches nothing
var ErrNotFound = errors.New("not found")

// Store holds the simulator's agents, calls and recordings.
// Agents and recordings are saved with caller assigned ids; a call saved with
// ID 0 is given the next id.
type Store interface {
	ListAgents(ctx context.Context) ([]types.Agent, error)
	GetAgent(ctx context.Context, id int64) (types.Agent, error)
	SaveAgent(ctx context.Context, agent types.Agent) error

	ListCalls(ctx context.Context) ([]types.CallLogEntry, error)
	GetCall(ctx context.Context, callSID string) (types.CallLogEntry, error)
	SaveCall(ctx context.Context, call types.CallLogEntry) (types.CallLogEntry, error)

	ListRecordings(ctx context.Context) ([]types.CallRecording, error)
	SaveRecording(ctx context.Context, recording types.CallRecording) error

	Close() error
}

// NewStore creates the store selected by cfg.Mode
func NewStore(ctx context.Context, cfg StoreConfig, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "storage").Logger()

	switch cfg.Mode {
	case StoreModeSQLite:
		return NewSQLStore(cfg.SQLitePath, logger)
	case StoreModeDynamo:
		if cfg.Dynamo.Mode == DynamoModeNone {
			return nil, fmt.Errorf("STORE_MODE=dynamo requires DYNAMO_MODE local or aws")
		}
		return NewDynamoDBStore(ctx, cfg.Dynamo, logger)
	default:
		logger.Info().Msg("using in-memory store")
		return NewMemoryStore(), nil
	}
}
