// cmd/bot/main.go
// Headless client that joins an arena server and plays with a fixed behavior
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/network"
	"github.com/opd-ai/go-arena/pkg/render"
)

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())

	serverURL := flag.String("server", "ws://localhost:8080/ws", "Server WebSocket URL")
	configPath := flag.String("config", "", "Optional configuration file for the client section")
	playerName := flag.String("name", "ArenaBot", "Player name")
	behaviorStr := flag.String("behavior", "wanderer", "Bot behavior (wanderer, hunter, seeker)")
	interval := flag.Duration("interval", 200*time.Millisecond, "Time between actions")
	view := flag.Bool("view", false, "Draw the arena around the bot in the terminal")
	viewWidth := flag.Int("view-width", 80, "Terminal view width in characters")
	viewHeight := flag.Int("view-height", 24, "Terminal view height in characters")
	viewScale := flag.Float64("view-scale", 16, "World pixels per character")
	flag.Parse()

	behavior, err := ParseBehavior(*behaviorStr)
	if err != nil {
		logger.Error(ctx, "Invalid flags", err)
		os.Exit(2)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
	}
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		logger.Error(ctx, "Invalid configuration", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var renderer render.Renderer = render.NewNullRenderer(logger)
	if *view {
		terminal := render.NewTerminalRenderer(os.Stdout, *viewWidth, *viewHeight, *viewScale)
		terminal.ClearScreen(true)
		renderer = terminal
	}

	opts := botOptions{
		url:      *serverURL,
		name:     *playerName,
		behavior: behavior,
		interval: *interval,
		renderer: renderer,
	}

	logger.Info(ctx, "Starting bot", "name", *playerName, "behavior", behavior.String())
	if err := run(ctx, logger, cfg.Client, opts); err != nil {
		logger.Error(ctx, "Bot stopped", err)
		os.Exit(1)
	}
}

type botOptions struct {
	url      string
	name     string
	behavior Behavior
	interval time.Duration
	renderer render.Renderer
}

func run(ctx context.Context, logger *logging.Logger, cfg config.ClientConfig, opts botOptions) error {
	client := network.NewClient(cfg, logger)
	if err := client.Connect(ctx, opts.url); err != nil {
		return err
	}
	defer client.Close()

	joinCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	welcome, err := client.Join(joinCtx, opts.name)
	cancel()
	if err != nil {
		return err
	}
	logger.Info(ctx, "Joined arena", "player", welcome.ID, "width", welcome.Width, "height", welcome.Height)

	brain := NewBrain(opts.behavior, welcome.ID, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	var latest *network.TickState
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Shutting down bot")
			client.Leave()
			return nil
		case <-client.Done():
			return errors.New("disconnected from server")
		case state := <-client.States():
			latest = &state
			if err := opts.renderer.Draw(state, welcome.ID); err != nil {
				return err
			}
		case env := <-client.Messages():
			logMessage(ctx, logger, env)
		case <-ticker.C:
			if latest == nil {
				continue
			}
			action, ok := brain.Decide(*latest)
			if !ok {
				continue
			}
			if err := client.SendInput(action.Move, action.Look); err != nil {
				return err
			}
			if action.CastKey != "" {
				if err := client.Cast(action.CastKey, action.CastDir); err != nil {
					return err
				}
			}
		}
	}
}

func logMessage(ctx context.Context, logger *logging.Logger, env network.InEnvelope) {
	switch env.T {
	case network.MsgError:
		var msg network.ErrorMsg
		json.Unmarshal(env.D, &msg)
		logger.Debug(ctx, "Server rejected message", "reason", msg.Message)
	case network.MsgAck:
		var ack network.AckMsg
		json.Unmarshal(env.D, &ack)
		logger.Debug(ctx, "Projectile acknowledged", "id", ack.ID)
	}
}
