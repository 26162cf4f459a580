package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings of one console session
type Config struct {
	BackendURL     string        `mapstructure:"backend_url"`
	Address        string        `mapstructure:"address"`
	StateFile      string        `mapstructure:"state_file"`
	MetricsRefresh time.Duration `mapstructure:"metrics_refresh"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogFile        string        `mapstructure:"log_file"`
	LogLevel       string        `mapstructure:"log_level"`
}

// flagKeys maps command line flags onto config keys
var flagKeys = map[string]string{
	"backend-url":     "backend_url",
	"address":         "address",
	"state-file":      "state_file",
	"metrics-refresh": "metrics_refresh",
	"request-timeout": "request_timeout",
	"log-file":        "log_file",
	"log-level":       "log_level",
}

// RegisterFlags declares the console flags on fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("backend-url", "", "base URL of the call-center backend")
	fs.String("address", "", "dashboard address to open, e.g. \"?tab=agents\"")
	fs.String("state-file", "", "file remembering the last address")
	fs.Duration("metrics-refresh", 0, "overview refresh interval")
	fs.Duration("request-timeout", 0, "timeout of one backend request")
	fs.String("log-file", "", "file receiving console logs")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

// LoadConfig reads ~/.opsdash/console.yaml (or ./console.yaml), then OPSDASH_
// environment variables, then any flag set on fs
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".opsdash")

	v.SetDefault("backend_url", "http://localhost:5000")
	v.SetDefault("address", "")
	v.SetDefault("state_file", filepath.Join(stateDir, "address"))
	v.SetDefault("metrics_refresh", time.Minute)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("log_file", filepath.Join(stateDir, "console.log"))
	v.SetDefault("log_level", "info")

	v.SetConfigName("console")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(stateDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("OPSDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			f := fs.Lookup(flag)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", flag, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url must not be empty")
	}
	if c.MetricsRefresh <= 0 {
		return fmt.Errorf("metrics_refresh must be positive, got %s", c.MetricsRefresh)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
