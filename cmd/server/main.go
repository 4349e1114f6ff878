// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/health"
	"github.com/opd-ai/go-arena/pkg/level"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/network"
	"github.com/opd-ai/go-arena/pkg/resource"
)

const (
	maxStall      = 2 * time.Second
	maxDynamics   = 5000
	shutdownGrace = 10 * time.Second
)

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())

	configPath := flag.String("config", "config.yaml", "Path to configuration file (.yaml, .yml or .json)")
	levelPath := flag.String("level", "", "Level file, overrides the configured level")
	createDefault := flag.Bool("default", false, "Create default configuration file and exit")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file", "config_path", *configPath)
		return
	}

	cfg, err := loadConfig(ctx, logger, *configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	if *levelPath != "" {
		cfg.Level = *levelPath
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error(ctx, "Server exited with error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped")
}

// loadConfig reads the file when it exists, then applies ARENA_* overrides
func loadConfig(ctx context.Context, logger *logging.Logger, path string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Configuration file not found, using default configuration", "config_path", path)
	} else {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, logger *logging.Logger, cfg *config.Config) error {
	eng := engine.New(cfg.Engine, engine.WithLogger(logger))

	resources := resource.NewManager(cfg.Resources, logger)

	opts := []network.Option{
		network.WithLogger(logger),
		network.WithLauncher(resources),
	}
	if cfg.Level != "" {
		lvl, err := level.Load(cfg.Level)
		if err != nil {
			return fmt.Errorf("loading level: %w", err)
		}
		if err := lvl.Fits(cfg.Engine.Width, cfg.Engine.Height); err != nil {
			return fmt.Errorf("loading level %s: %w", cfg.Level, err)
		}
		eng.SetStatics(lvl.Tiles(eng.IDs()))
		eng.SetRegions(lvl.BuildRegions(eng.IDs()))
		opts = append(opts, network.WithSpawner(lvl.Spawn))

		_, _, statics := eng.Counts()
		logger.Info(ctx, "Level loaded",
			"level", lvl.Name,
			"tiles", statics,
			"regions", len(eng.Regions()),
		)
	}

	server := network.NewServer(eng, cfg.Server, opts...)

	checker := health.NewHealthChecker()
	checker.AddCheck(health.NewSimulationHealthCheck(server.Running, server.LastTick, maxStall))
	checker.AddCheck(health.NewNetworkHealthCheck(server.Addr))
	checker.AddCheck(health.NewEntityCountHealthCheck(maxDynamics, server.Counts))
	checker.AddCheck(health.NewMemoryHealthCheck(cfg.Resources.MaxMemoryMB, resources.MemoryUsage))
	checker.AddCheck(resource.NewHealthCheck(resources))

	healthServer := &http.Server{
		Addr:         cfg.Server.HealthAddress,
		Handler:      checker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := resources.Run(gctx); err != nil {
			logger.Warn(gctx, "Resource manager stopped", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info(gctx, "Starting arena server",
			"address", cfg.Server.Address,
			"tick_rate", cfg.Server.TickRate,
			"max_clients", cfg.Server.MaxClients,
		)
		if err := server.ListenAndServe(gctx, cfg.Server.Address); err != nil {
			return fmt.Errorf("arena server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info(gctx, "Starting health check server", "address", cfg.Server.HealthAddress)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("health server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
