package storage

import "os"

// StoreMode selects the Store backend
type StoreMode string

const (
	StoreModeMemory StoreMode = "memory"
	StoreModeSQLite StoreMode = "sqlite"
	StoreModeDynamo StoreMode = "dynamo"
)

// DynamoMode represents the DynamoDB connection mode
type DynamoMode string

const (
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"
	DynamoModeNone  DynamoMode = "none"
)

// DynamoConfig holds DynamoDB configuration
type DynamoConfig struct {
	Mode            DynamoMode
	Endpoint        string // for local mode
	Region          string
	AgentsTable     string
	CallsTable      string
	RecordingsTable string
}

// StoreConfig holds the settings of every backend; only the one named by Mode is used
type StoreConfig struct {
	Mode       StoreMode
	SQLitePath string
	Dynamo     DynamoConfig
}

// LoadStoreConfig loads storage config from environment
func LoadStoreConfig() StoreConfig {
	mode := StoreMode(getEnv("STORE_MODE", string(StoreModeMemory)))
	if mode != StoreModeSQLite && mode != StoreModeDynamo {
		mode = StoreModeMemory
	}

	return StoreConfig{
		Mode:       mode,
		SQLitePath: getEnv("SQLITE_PATH", "callsim.db"),
		Dynamo:     LoadDynamoConfig(),
	}
}

// LoadDynamoConfig loads DynamoDB config from environment
func LoadDynamoConfig() DynamoConfig {
	mode := DynamoMode(getEnv("DYNAMO_MODE", "none"))
	if mode != DynamoModeLocal && mode != DynamoModeAWS {
		mode = DynamoModeNone
	}

	return DynamoConfig{
		Mode:            mode,
		Endpoint:        getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:          getEnv("DYNAMO_REGION", "eu-central-1"),
		AgentsTable:     getEnv("DYNAMO_AGENTS_TABLE", "opsdash-agents"),
		CallsTable:      getEnv("DYNAMO_CALLS_TABLE", "opsdash-calls"),
		RecordingsTable: getEnv("DYNAMO_RECORDINGS_TABLE", "opsdash-recordings"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
