package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"siegeline/server/internal/command"
	"siegeline/server/internal/config"
	"siegeline/server/internal/ecs"
	"siegeline/server/internal/nav"
	"siegeline/server/internal/net/ws"
	"siegeline/server/internal/sim"
	"siegeline/server/internal/telemetry"
	"siegeline/server/logging"
	loggingSinks "siegeline/server/logging/sinks"
)

// Run wires the world, command service, nav engine, tick loop, and WebSocket
// gateway, then serves until ctx is canceled.
func Run(ctx context.Context) error {
	cfgPath := os.Getenv("SIEGELINE_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logConfig := logging.DefaultConfig()
	var namedSinks []logging.NamedSink
	if logConfig.HasSink("console") {
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console),
		})
	}
	router := logging.NewRouter(logging.SystemClock{}, logConfig, namedSinks)
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			log.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metricsStore := logging.NewMetrics()
	logger := telemetry.WrapLogger(log.Default())
	metrics := telemetry.WrapMetrics(metricsStore)

	world := ecs.NewWorld()
	tuning := commandTuning(cfg.Command)
	commands := command.NewService(world, command.ServiceConfig{
		Tuning:    &tuning,
		Publisher: router,
		Metrics:   metrics,
	})

	engine := nav.NewEngine(cfg.WorldWidth, cfg.WorldHeight)
	defer engine.Close()
	commands.Initialize(engine, cfg.WorldWidth, cfg.WorldHeight)

	simEngine := sim.NewEngine(sim.EngineConfig{
		World:    world,
		Commands: commands,
		TickRate: cfg.TickRateHz,
		Logger:   logger,
		Metrics:  metrics,
	})

	var hub *ws.Hub
	loop := sim.NewLoop(simEngine, sim.LoopConfig{
		TickRate: cfg.TickRateHz,
	}, sim.LoopHooks{
		AfterTick: func(tick uint64) {
			if hub != nil {
				hub.BroadcastTick(tick)
			}
		},
	}, logger, metrics)
	hub = ws.NewHub(loop, simEngine, logger)

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	go loop.Run(loopCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.NewHandler(hub, logger).Handle)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metricsStore.Snapshot())
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func commandTuning(cfg config.CommandConfig) command.Tuning {
	return command.Tuning{
		DirectPathThreshold:     cfg.DirectPathThreshold,
		PathRequestCooldown:     cfg.PathRequestCooldownSec,
		SameTargetEpsilonSq:     cfg.SameTargetEpsilonSq,
		GoalMovementThresholdSq: cfg.GoalMovementThresholdSq,
		WaypointSkipEpsilonSq:   cfg.WaypointSkipEpsilonSq,
		NearThresholdMin:        cfg.NearThresholdMin,
		NearThresholdMax:        cfg.NearThresholdMax,
		ScatterFloor:            cfg.ScatterFloor,
		FastUnitSpeedMargin:     cfg.FastUnitSpeedMargin,
	}
}
