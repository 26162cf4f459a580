package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dennisdiepolder/monti/opsdash/internal/console"
	"github.com/dennisdiepolder/monti/opsdash/internal/upstream"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "opsdash",
		Short: "Terminal dashboard for the call-center backend",
		Long: `opsdash shows live agent status, call logs, recordings and rollup metrics,
toggles agent availability and requests callbacks. The selected section is
kept in an address such as "opsdash://dashboard?tab=agents" that can be
copied, passed back with --address and is restored on the next start.`,
		SilenceUsage: true,
		RunE:         run,
	}
	console.RegisterFlags(root.Flags())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := console.LoadConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := openLog(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	store := viewstate.NewFileStore(cfg.StateFile)
	initial, err := initialAddress(cfg.Address, store)
	if err != nil {
		return err
	}

	history := viewstate.NewHistory(initial)
	sync := viewstate.Get()
	section := sync.Mount(history)
	defer sync.Unmount()

	logger.Info().
		Str("backend_url", cfg.BackendURL).
		Str("address", initial.String()).
		Str("section", string(section)).
		Msg("console starting")

	client := upstream.NewClient(cfg.BackendURL, cfg.RequestTimeout, logger)
	model := console.New(console.Options{
		Backend:        client,
		Sync:           sync,
		History:        history,
		Store:          store,
		MetricsRefresh: cfg.MetricsRefresh,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running console: %w", err)
	}
	logger.Info().Str("address", sync.Address()).Msg("console stopped")
	return nil
}

// initialAddress prefers an explicit address, then the persisted one, then
// the default overview
func initialAddress(explicit string, store *viewstate.FileStore) (*url.URL, error) {
	if explicit != "" {
		u, err := viewstate.ParseAddress(explicit)
		if err != nil {
			return nil, fmt.Errorf("invalid --address %q: %w", explicit, err)
		}
		return u, nil
	}

	saved, err := store.Load()
	if err != nil {
		// a corrupt state file must not keep the console from starting
		fmt.Fprintf(os.Stderr, "ignoring state file: %v\n", err)
	}
	if saved != nil {
		return saved, nil
	}
	return viewstate.ParseAddress("")
}

// openLog sends logs to path; the terminal belongs to the dashboard
func openLog(path, level string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("opening log file: %w", err)
	}

	logger := zerolog.New(f).Level(lvl).With().Timestamp().Str("service", "opsdash-console").Logger()
	return logger, func() { f.Close() }, nil
}
