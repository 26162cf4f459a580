package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/callsim"
	"github.com/dennisdiepolder/monti/opsdash/internal/config"
	"github.com/dennisdiepolder/monti/opsdash/internal/event"
	"github.com/dennisdiepolder/monti/opsdash/internal/metrics"
	"github.com/dennisdiepolder/monti/opsdash/internal/storage"
	"github.com/dennisdiepolder/monti/opsdash/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		seed    = flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated traffic")
		noSeed  = flag.Bool("no-seed", false, "Do not fill an empty store with demo data")
		rateArg = flag.Int("calls-per-min", -1, "Generated calls per minute (overrides SIM_CALLS_PER_MIN)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := log.Logger
	if isatty.IsTerminal(os.Stdout.Fd()) {
		logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	logger = logger.With().Str("service", "callsim").Logger()

	callsPerMin := cfg.SimCallsPerMin
	if *rateArg >= 0 {
		callsPerMin = *rateArg
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storeCfg := storage.LoadStoreConfig()
	store, err := storage.NewStore(ctx, storeCfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("mode", string(storeCfg.Mode)).Msg("failed to open store")
	}
	defer store.Close()

	generator := callsim.NewGenerator(store, callsPerMin, *seed, logger)
	if !*noSeed {
		if err := generator.Seed(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed store")
		}
	}

	receiver := event.NewReceiver(store, logger)
	receiver.OnTerminal(generator.Release)

	router := mux.NewRouter()
	router.Use(middleware.Logger(logger))
	callsim.NewAPI(store, generator, receiver, logger).SetupRoutes(router)
	router.HandleFunc("/metrics", metrics.Get().Handler()).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.SimPort,
		Handler:      middleware.CORS([]string{"*"})(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go generator.Start(ctx)

	go func() {
		logger.Info().
			Str("port", cfg.SimPort).
			Str("store", string(storeCfg.Mode)).
			Int("calls_per_min", callsPerMin).
			Msg("callsim listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down callsim...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("callsim forced to shutdown")
	}
}
