package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/soniclist/spotsync/internal/services"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	if os.Getenv("SPOTSYNC_DEBUG") != "" {
		shared.SetLogLevel(logger, log.DebugLevel)
	}

	configPath := "config.toml"
	if _, err := os.Stat(configPath); err != nil {
		if alt := shared.DefaultConfigPath(); alt != "" {
			if _, err := os.Stat(alt); err == nil {
				configPath = alt
			}
		}
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	var spotifyService services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			if config.Search.RateLimit > 0 {
				svc.SetRateLimit(config.Search.RateLimit)
			}
			spotifyService = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "spotsync",
		Usage:    "Sync local m3u playlists with Spotify",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
