package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/petems/tap-recorder/internal/app"
	"github.com/petems/tap-recorder/internal/audio"
	"github.com/petems/tap-recorder/internal/capture"
	"github.com/petems/tap-recorder/internal/config"
	"github.com/petems/tap-recorder/internal/coreaudio"
	"github.com/petems/tap-recorder/internal/hotkey"
	"github.com/petems/tap-recorder/internal/logging"
	"github.com/petems/tap-recorder/internal/permissions"
	"github.com/petems/tap-recorder/internal/recording"
	"github.com/petems/tap-recorder/internal/tray"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// macOS requires explicit microphone approval before capture works
	if err := permissions.EnsurePermissions(); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Device listing for the tray; capture itself does not depend on it
	var devices audio.Lister
	if lister, err := audio.NewLister(); err != nil {
		log.Warn().Err(err).Msg("Device listing unavailable")
	} else {
		devices = lister
		defer lister.Close()
	}

	session := capture.NewSession(capture.Options{
		HAL:           coreaudio.New(),
		OpenSink:      fileSinkOpener(cfg.Sink, log),
		Dir:           cfg.Recordings(),
		AggregateName: cfg.AggregateName,
		Logger:        log.With().Str("component", "capture").Logger(),
	})

	// Initialize hotkey manager
	hkManager, err := hotkey.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize hotkeys")
	}
	defer hkManager.Close()

	// Create app first, the tray becomes its status updater below
	application := app.New(app.Config{
		Recorder: session,
		Devices:  devices,
		Config:   cfg,
		Logger:   log,
	})

	trayUI := tray.New(application, cfg, log, Version, Commit)
	application.SetStatusUpdater(trayUI)

	// Register global hotkey
	if err := hkManager.Register(cfg.PlatformHotkey(), application.OnHotkey); err != nil {
		log.Error().Err(err).Str("hotkey", cfg.PlatformHotkey()).Msg("Failed to register hotkey, use the tray menu")
	}

	log.Info().Str("version", Version).Str("recordings", cfg.Recordings()).Msg("TapRecorder starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		if err := application.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}

// fileSinkOpener writes recordings as float WAV files through the block pool
// sized in config
func fileSinkOpener(cfg config.SinkConfig, log zerolog.Logger) capture.SinkOpener {
	sinkCfg := recording.SinkConfig{BlockFrames: cfg.BlockFrames, Blocks: cfg.Blocks}
	return func(path string, f audio.Format) (capture.Sink, error) {
		sink, err := recording.OpenFileSink(path, f, sinkCfg, log.With().Str("component", "sink").Logger())
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
}
