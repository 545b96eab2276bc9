package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mitchelldurbincs/swarmnav/internal/config"
	"github.com/mitchelldurbincs/swarmnav/internal/game"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/swarmnav/internal/mapfile"
	"github.com/mitchelldurbincs/swarmnav/internal/monitoring"
	"github.com/mitchelldurbincs/swarmnav/internal/observer"
	"github.com/mitchelldurbincs/swarmnav/internal/runindex"
)

const healthService = "swarmnav.Match"

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	mapPath := flag.String("map", "", "Path to a YAML map file (empty to use config or generate)")
	seed := flag.Int64("seed", -1, "Match seed (-1 to use config default)")
	maxTurns := flag.Int("turns", -1, "Turn limit (-1 to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	parallel := flag.Bool("parallel", false, "Run unit turns concurrently")
	showBoard := flag.Bool("board", false, "Print the final board")
	dumpMap := flag.String("dump-map", "", "Write the match map to this YAML file")
	watch := flag.Bool("watch-config", false, "Log config file edits while the match runs")
	flag.Parse()

	// Initialize configuration
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(os.Getenv("APP_ENV")); err != nil {
		log.Fatal().Err(err).Msg("Failed to load environment config")
	}
	cfg := config.Get()

	// Use config defaults if not overridden by flags
	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}
	setupLogging(*logLevel, cfg.Logging.Format)

	mc, err := game.MatchConfigFromConfig(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid match configuration")
	}
	if *seed != -1 {
		mc.Seed = *seed
	}
	if mc.Seed == 0 {
		mc.Seed = time.Now().UnixNano()
	}
	if *maxTurns != -1 {
		mc.MaxTurns = *maxTurns
	}
	if *parallel {
		mc.ParallelAgents = true
	}
	if *mapPath == "" {
		*mapPath = cfg.Match.MapFile
	}
	if *mapPath != "" {
		m, err := mapfile.Load(*mapPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load map file")
		}
		mc.Map = m
	}

	bus := events.NewEventBus()
	mc.EventBus = bus
	eventLog := subscribers.NewLoggerSubscriber("event_logger", log.Logger, zerolog.DebugLevel)
	bus.Subscribe(eventLog)
	convergence := monitoring.NewConvergenceMonitor(monitoring.DefaultStallTurns, log.Logger)
	bus.Subscribe(convergence)

	var index *runindex.Index
	if cfg.Output.IndexPath != "" {
		index, err = runindex.Open(cfg.Output.IndexPath, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Output.IndexPath).Msg("Failed to open run index")
		}
		defer func() {
			if err := index.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close run index")
			}
		}()
		bus.Subscribe(index)
	}

	match, err := game.NewMatch(mc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create match")
	}
	log.Info().
		Str("match_id", match.ID()).
		Int64("seed", mc.Seed).
		Int("width", match.Map().Board.W).
		Int("height", match.Map().Board.H).
		Str("symmetry", match.Map().Symmetry.String()).
		Int("max_turns", mc.MaxTurns).
		Msg("Starting match")

	if *dumpMap != "" {
		if err := mapfile.Save(*dumpMap, match.ID(), match.Map()); err != nil {
			log.Error().Err(err).Str("path", *dumpMap).Msg("Failed to write map")
		}
	}

	outputs := newOutputs(match, cfg.Output, index, log.Logger)
	bus.SubscribeFunc(events.TypeTurnEnded, outputs.onTurnEnded)

	var obs *observer.Server
	var httpServer *http.Server
	if addr := cfg.Output.ObserverAddr; addr != "" {
		obs = observer.NewServer(func() any { return matchState(match) }, log.Logger)
		bus.Subscribe(obs)
		mux := http.NewServeMux()
		obs.Routes(mux)
		httpServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("address", addr).Msg("Observer listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Observer server failed")
			}
		}()
	}

	var grpcServer *grpc.Server
	var healthServer *health.Server
	if addr := cfg.Output.HealthAddr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to listen")
		}
		grpcServer = grpc.NewServer()
		healthServer = health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_SERVING)
		go func() {
			log.Info().Str("address", lis.Addr().String()).Msg("Health server listening")
			if err := grpcServer.Serve(lis); err != nil {
				log.Error().Err(err).Msg("Health server failed")
			}
		}()
	}

	if *watch {
		config.WatchConfig(func(err error) {
			if err != nil {
				log.Warn().Err(err).Msg("Ignoring invalid config edit")
				return
			}
			log.Info().Str("file", config.ConfigFilePath()).Msg("Config changed; takes effect next match")
		})
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := match.Run(ctx)
	if runErr != nil {
		log.Warn().Err(runErr).Msg("Match stopped early")
	}

	outputs.finish(result.Turns)

	log.Info().
		Str("match_id", result.MatchID).
		Int("winner", result.Winner).
		Str("reason", result.Reason).
		Int("turns", result.Turns).
		Dur("duration", result.Duration).
		Msg("Match finished")
	for _, m := range convergence.GetMetrics() {
		log.Info().
			Int("team", m.Team).
			Int("resolved", m.Resolved).
			Int("peak_frontier", m.PeakFrontier).
			Int("lock_clears", m.LockClears).
			Int("stall_warnings", m.StallWarnings).
			Msg("Distance field summary")
	}
	if *showBoard {
		fmt.Print(match.World().Render(-1, os.Getenv("NO_COLOR") == ""))
	}

	if healthServer != nil {
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
	}
	if httpServer != nil {
		obs.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Observer shutdown")
		}
		cancel()
	}
	if index != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := index.Flush(flushCtx); err != nil {
			log.Warn().Err(err).Msg("Run index flush")
		}
		cancel()
	}
	log.Info().Msg("Shutdown complete")
}

// matchState is what the observer serves at /state.
func matchState(m *game.Match) any {
	return struct {
		MatchID string             `json:"match_id"`
		Turn    int                `json:"turn"`
		Phase   string             `json:"phase"`
		Agents  []game.AgentInfo   `json:"agents"`
		Teams   []events.TeamStats `json:"teams"`
	}{
		MatchID: m.ID(),
		Turn:    m.Turn(),
		Phase:   m.Phase().String(),
		Agents:  m.World().Agents(),
		Teams:   m.Stats(),
	}
}

func setupLogging(level, format string) {
	// Parse log level
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	if format == "json" || os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
