package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	LogLevel       string
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// Upstream call-center backend
	BackendURL      string
	UpstreamTimeout time.Duration

	// Dashboard behaviour
	MetricsRefreshInterval time.Duration
	ListCacheTTL           time.Duration
	CallbackRatePerMin     int

	// Development simulator
	SimPort        string
	SimCallsPerMin int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
		SimPort:        getEnv("SIM_PORT", "5000"),
	}

	var err error
	if config.WSReadTimeout, err = getSeconds("WS_READ_TIMEOUT", "60"); err != nil {
		return nil, err
	}
	if config.WSWriteTimeout, err = getSeconds("WS_WRITE_TIMEOUT", "10"); err != nil {
		return nil, err
	}

	// Pings must arrive before the read deadline expires
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	if config.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if config.MetricsRefreshInterval, err = getDuration("METRICS_REFRESH_INTERVAL", "60s"); err != nil {
		return nil, err
	}
	if config.ListCacheTTL, err = getDuration("LIST_CACHE_TTL", "5s"); err != nil {
		return nil, err
	}
	if config.CallbackRatePerMin, err = getInt("CALLBACK_RATE_PER_MIN", "6"); err != nil {
		return nil, err
	}
	if config.SimCallsPerMin, err = getInt("SIM_CALLS_PER_MIN", "4"); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch {
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("invalid METRICS_REFRESH_INTERVAL: must be positive")
	case c.UpstreamTimeout <= 0:
		return fmt.Errorf("invalid UPSTREAM_TIMEOUT: must be positive")
	case c.WSReadTimeout <= 0:
		return fmt.Errorf("invalid WS_READ_TIMEOUT: must be positive")
	case c.WSWriteTimeout <= 0:
		return fmt.Errorf("invalid WS_WRITE_TIMEOUT: must be positive")
	case c.ListCacheTTL < 0:
		return fmt.Errorf("invalid LIST_CACHE_TTL: must not be negative")
	case c.CallbackRatePerMin < 0:
		return fmt.Errorf("invalid CALLBACK_RATE_PER_MIN: must not be negative")
	}
	return nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getSeconds reads a whole number of seconds
func getSeconds(key, defaultValue string) (time.Duration, error) {
	n, err := getInt(key, defaultValue)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func getDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key, defaultValue string) (int, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
