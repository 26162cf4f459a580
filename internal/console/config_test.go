package console

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	// empty values are ignored by viper
	for _, key := range []string{"OPSDASH_BACKEND_URL", "OPSDASH_METRICS_REFRESH", "OPSDASH_ADDRESS"} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadConfigDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL != "http://localhost:5000" {
		t.Errorf("unexpected backend url %q", cfg.BackendURL)
	}
	if cfg.MetricsRefresh != time.Minute {
		t.Errorf("expected one minute refresh, got %s", cfg.MetricsRefresh)
	}
	if want := filepath.Join(home, ".opsdash", "address"); cfg.StateFile != want {
		t.Errorf("expected state file %s, got %s", want, cfg.StateFile)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".opsdash")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	file := "backend_url: http://file:5000\nmetrics_refresh: 45s\naddress: \"?tab=calls\"\n"
	if err := os.WriteFile(filepath.Join(dir, "console.yaml"), []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPSDASH_METRICS_REFRESH", "15s")

	fs := pflag.NewFlagSet("console", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--backend-url", "http://flag:5000"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL != "http://flag:5000" {
		t.Errorf("flag should win, got %q", cfg.BackendURL)
	}
	if cfg.MetricsRefresh != 15*time.Second {
		t.Errorf("env should override file, got %s", cfg.MetricsRefresh)
	}
	if cfg.Address != "?tab=calls" {
		t.Errorf("expected address from file, got %q", cfg.Address)
	}
}

func TestLoadConfigRejectsNonPositiveRefresh(t *testing.T) {
	isolate(t)
	t.Setenv("OPSDASH_METRICS_REFRESH", "0s")

	if _, err := LoadConfig(nil); err == nil {
		t.Fatal("expected error for zero refresh")
	}
}
