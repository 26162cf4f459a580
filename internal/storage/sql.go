package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SQLStore implements Store on SQLite through GORM
type SQLStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewSQLStore opens (or creates) the SQLite database at path and migrates it
func NewSQLStore(path string, logger zerolog.Logger) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&agentRecord{}, &callRecord{}, &recordingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite store initialized")
	return &SQLStore{db: db, logger: logger}, nil
}

func (s *SQLStore) ListAgents(ctx context.Context) ([]types.Agent, error) {
	var rows []agentRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	agents := make([]types.Agent, 0, len(rows))
	for _, row := range rows {
		agents = append(agents, row.toAgent())
	}
	return agents, nil
}

func (s *SQLStore) GetAgent(ctx context.Context, id int64) (types.Agent, error) {
	var row agentRecord
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Agent{}, ErrNotFound
		}
		return types.Agent{}, fmt.Errorf("failed to get agent: %w", err)
	}
	return row.toAgent(), nil
}

func (s *SQLStore) SaveAgent(ctx context.Context, agent types.Agent) error {
	row := fromAgent(agent)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

func (s *SQLStore) ListCalls(ctx context.Context) ([]types.CallLogEntry, error) {
	var rows []callRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}

	calls := make([]types.CallLogEntry, 0, len(rows))
	for _, row := range rows {
		calls = append(calls, row.toCall())
	}
	return calls, nil
}

func (s *SQLStore) GetCall(ctx context.Context, callSID string) (types.CallLogEntry, error) {
	var row callRecord
	if err := s.db.WithContext(ctx).Where("call_sid = ?", callSID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.CallLogEntry{}, ErrNotFound
		}
		return types.CallLogEntry{}, fmt.Errorf("failed to get call: %w", err)
	}
	return row.toCall(), nil
}

func (s *SQLStore) SaveCall(ctx context.Context, call types.CallLogEntry) (types.CallLogEntry, error) {
	row := fromCall(call)
	if row.ID == 0 {
		var existing callRecord
		err := s.db.WithContext(ctx).Select("id").Where("call_sid = ?", row.CallSID).First(&existing).Error
		switch {
		case err == nil:
			row.ID = existing.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return types.CallLogEntry{}, fmt.Errorf("failed to look up call: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return types.CallLogEntry{}, fmt.Errorf("failed to save call: %w", err)
	}
	return row.toCall(), nil
}

func (s *SQLStore) ListRecordings(ctx context.Context) ([]types.CallRecording, error) {
	var rows []recordingRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}

	recordings := make([]types.CallRecording, 0, len(rows))
	for _, row := range rows {
		recordings = append(recordings, row.toRecording())
	}
	return recordings, nil
}

func (s *SQLStore) SaveRecording(ctx context.Context, recording types.CallRecording) error {
	row := fromRecording(recording)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
