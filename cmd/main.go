package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spotlink/internal/shared"
	"github.com/urfave/cli/v3"
)

const configEnv = "SPOTLINK_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if p := os.Getenv(configEnv); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	opts, cleanup := wire(config, logger)
	defer cleanup()

	opts.ConfigPath = configPath
	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "spotlink",
		Usage:    "Resolve Spotify tracks, albums and playlists to playable Lavalink tracks",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		cleanup()
		logger.Fatalf("application error: %v", err)
	}
}
