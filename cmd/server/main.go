package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dennisdiepolder/monti/opsdash/internal/aggregator"
	"github.com/dennisdiepolder/monti/opsdash/internal/api"
	"github.com/dennisdiepolder/monti/opsdash/internal/cache"
	"github.com/dennisdiepolder/monti/opsdash/internal/config"
	"github.com/dennisdiepolder/monti/opsdash/internal/metrics"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/dennisdiepolder/monti/opsdash/internal/upstream"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
	"github.com/dennisdiepolder/monti/opsdash/internal/websocket"
	"github.com/dennisdiepolder/monti/opsdash/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Str("backend_url", cfg.BackendURL).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("metrics_refresh", cfg.MetricsRefreshInterval).
		Msg("starting opsdash server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	client := upstream.NewClient(cfg.BackendURL, cfg.UpstreamTimeout, log.Logger)
	log.Info().
		Str("backend", client.BaseURL()).
		Dur("timeout", cfg.UpstreamTimeout).
		Msg("upstream client configured")

	roster := cache.NewAgentRoster(client, log.Logger)
	roster.OnUpdate(api.PushAgentUpdates(hub, log.Logger))
	if err := roster.Refresh(ctx); err != nil {
		// The agents section retries on first request
		log.Warn().Err(err).Msg("initial agent load failed")
	}

	agg := aggregator.NewAggregator(client, hub, cfg.MetricsRefreshInterval, log.Logger)
	hub.OnSelect(func(section viewstate.Section) {
		if section == viewstate.Overview {
			agg.Mounted()
		}
	})
	go agg.Start(ctx)

	r := newRouter(cfg, handlers{
		agents: api.NewAgentsHandler(roster, cfg.ListCacheTTL, log.Logger),
		calls: api.NewListHandler(viewstate.Calls,
			cache.NewSnapshot(cfg.ListCacheTTL, client.ListCalls),
			types.CallLogEntry.SearchFields, nil, log.Logger),
		recordings: api.NewListHandler(viewstate.Recordings,
			cache.NewSnapshot(cfg.ListCacheTTL, client.ListRecordings),
			types.CallRecording.SearchFields, types.CallRecording.FacetValue, log.Logger),
		overview: api.NewOverviewHandler(client, log.Logger).WithLatest(agg, cfg.MetricsRefreshInterval),
		callback: api.NewCallbackHandler(client, cfg.CallbackRatePerMin, log.Logger),
		ws:       websocket.NewHandler(hub, cfg, log.Logger),
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the metrics loop before draining requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

type handlers struct {
	agents     *api.AgentsHandler
	calls      *api.ListHandler[types.CallLogEntry]
	recordings *api.ListHandler[types.CallRecording]
	overview   *api.OverviewHandler
	callback   *api.CallbackHandler
	ws         http.Handler
}

func newRouter(cfg *config.Config, h handlers, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	view := api.NewViewHandler(h.overview, h.agents, h.calls, h.recordings)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", view.Get)
		r.Get("/overview", h.overview.Get)

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", h.agents.List)
			r.Post("/{id}/toggle", h.agents.Toggle)
			r.Put("/{id}/status", h.agents.SetStatus)
		})

		r.Get("/calls", h.calls.List)
		r.Get("/recordings", h.recordings.List)
	})

	r.Post("/request_call", h.callback.Request)
	r.Get("/ws", h.ws.ServeHTTP)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"opsdash-server"}`)
}
