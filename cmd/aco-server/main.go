// Command aco-server serves a rerouting session over HTTP and, when a
// broadcast address is configured, publishes its progress on a mangos PUB
// socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/api"
	"github.com/dd0wney/cluso-aco/pkg/api/middleware"
	"github.com/dd0wney/cluso-aco/pkg/broadcast"
	"github.com/dd0wney/cluso-aco/pkg/config"
	"github.com/dd0wney/cluso-aco/pkg/health"
	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/metrics"
	"github.com/dd0wney/cluso-aco/pkg/pubsub"
	"github.com/dd0wney/cluso-aco/pkg/server"
	"github.com/dd0wney/cluso-aco/pkg/simulation"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config and PORT)")
	flag.Parse()

	logger := logging.NewDefaultLogger()
	if err := run(*configPath, *port, logger); err != nil {
		logger.Error("server exited with error", logging.Error(err))
		os.Exit(1)
	}
}

func run(configPath string, port int, logger *logging.JSONLogger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	logger.SetLevel(logging.ParseLevel(cfg.Log.Level))
	logging.SetDefaultLogger(logger)

	logger.Info("aco-server starting",
		logging.String("version", version),
		logging.String("config", configPath),
	)

	g, err := cfg.Graph()
	if err != nil {
		return fmt.Errorf("load network: %w", err)
	}
	logger.Info("network loaded",
		logging.Int("nodes", g.Size()),
		logging.Int("edges", len(g.Edges())),
		logging.String("file", cfg.Network.File),
	)

	defaults := cfg.Simulation.Run
	if err := defaults.Validate(g.Size()); err != nil {
		logger.Warn("configured route does not fit the network, using first to last node",
			logging.Error(err))
		defaults.Start, defaults.End = 0, g.Size()-1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.DefaultRegistry()
	events := pubsub.NewPubSub(pubsub.DefaultBuffer)

	opts := []simulation.Option{
		simulation.WithLogger(logger),
		simulation.WithRecorder(reg),
		simulation.WithPubSub(events),
		simulation.WithTickInterval(cfg.Simulation.TickInterval),
		simulation.WithDefaults(defaults),
	}
	if cfg.Simulation.Seed != 0 {
		opts = append(opts, simulation.WithSeed(cfg.Simulation.Seed))
	}
	if cfg.Simulation.Workers > 0 {
		opts = append(opts, simulation.WithWorkers(cfg.Simulation.Workers))
	}
	session, err := simulation.New(g, opts...)
	if err != nil {
		return err
	}
	logger.Info("session created",
		logging.Session(session.ID()),
		logging.Int64("seed", session.Seed()),
	)

	if cfg.Simulation.AutoConfigure {
		if err := session.Configure(defaults); err != nil {
			return fmt.Errorf("configure session: %w", err)
		}
	}

	var pub *broadcast.Publisher
	if cfg.Broadcast.Addr != "" {
		pub, err = broadcast.Listen(cfg.Broadcast.Addr,
			broadcast.WithLogger(logger),
			broadcast.WithRecorder(reg),
		)
		if err != nil {
			return err
		}
		if err := pub.Forward(ctx, events); err != nil {
			pub.Close()
			return err
		}
	}

	checker := health.NewHealthChecker()
	checker.RegisterLivenessCheck("alive", health.Alive)
	checker.RegisterCheck("session", health.SessionCheck(session))
	checker.RegisterCheck("memory", health.MemoryCheck(memoryUsage))
	checker.RegisterReadinessCheck("session", health.SessionCheck(session))
	if pub != nil {
		checker.RegisterCheck("broadcast", health.BroadcastCheck(pub.Ping))
		checker.RegisterReadinessCheck("broadcast", health.BroadcastCheck(pub.Ping))
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.CORSOrigins

	apiServer, err := api.NewServer(api.Options{
		Session:      session,
		Metrics:      reg,
		Health:       checker,
		Events:       events,
		Logger:       logger,
		CORS:         cors,
		Version:      version,
		Disruption:   cfg.Simulation.Disruption,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return err
	}

	gs := server.NewGracefulServer(apiServer.Handler(), server.Options{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	// Hooks run in reverse, so the session stops before the event bus and
	// the publisher go away.
	if pub != nil {
		gs.OnShutdown(func() {
			if err := pub.Close(); err != nil {
				logger.Warn("closing broadcast publisher", logging.Error(err))
			}
			pub.Wait()
		})
	}
	gs.OnShutdown(events.Shutdown)
	gs.OnShutdown(session.Close)

	go refreshSystemMetrics(ctx, reg)

	return gs.Run(ctx)
}

func memoryUsage() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}

func refreshSystemMetrics(ctx context.Context, reg *metrics.Registry) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	reg.UpdateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.UpdateSystemMetrics()
		}
	}
}
