package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petems/tap-recorder/internal/audio"
	"github.com/petems/tap-recorder/internal/capture"
	"github.com/petems/tap-recorder/internal/config"
	"github.com/petems/tap-recorder/internal/recording"
)

type Mode int

const (
	Toggle Mode = iota
	PushToTalk
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording(path string)
	SetSaved(path string)
	SetError()
}

// Recorder is the capture session the app drives
type Recorder interface {
	Start(opts capture.StartOptions) (string, error)
	Stop() (string, error)
	Stats() capture.Stats
}

type Config struct {
	Recorder      Recorder
	Devices       audio.Lister // Optional - can be nil
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

type App struct {
	rec     Recorder
	devices audio.Lister
	cfg     *config.Config
	log     zerolog.Logger
	status  StatusUpdater

	mu        sync.Mutex
	recording bool
	current   string
	last      string
}

func New(cfg Config) *App {
	return &App{
		rec:     cfg.Recorder,
		devices: cfg.Devices,
		cfg:     cfg.Config,
		log:     cfg.Logger,
		status:  cfg.StatusUpdater,
	}
}

// SetStatusUpdater sets the status sink after construction
func (a *App) SetStatusUpdater(s StatusUpdater) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
	if s == nil {
		return
	}
	if a.recording {
		s.SetRecording(a.current)
	} else {
		s.SetIdle()
	}
}

func (a *App) OnHotkey(pressed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	mode := Toggle
	if a.cfg.Mode == config.ModePushToTalk {
		mode = PushToTalk
	}

	switch mode {
	case PushToTalk:
		if pressed {
			a.startLocked()
		} else {
			a.stopLocked()
		}
	case Toggle:
		if !pressed {
			return
		}
		if !a.recording {
			a.startLocked()
		} else {
			a.stopLocked()
		}
	}
}

// ToggleRecording starts or stops recording, whichever applies
func (a *App) ToggleRecording() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording {
		a.stopLocked()
	} else {
		a.startLocked()
	}
}

func (a *App) startLocked() error {
	if a.recording {
		return nil
	}

	a.log.Info().Msg("Starting recording")
	path, err := a.rec.Start(capture.StartOptions{
		ExcludeProcesses: a.cfg.ExcludedProcesses,
	})
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to start recording")
		if a.status != nil {
			a.status.SetError()
		}
		return err
	}

	a.recording = true
	a.current = path

	// Update status to recording
	if a.status != nil {
		a.status.SetRecording(path)
	}
	return nil
}

func (a *App) stopLocked() (string, error) {
	if !a.recording {
		return "", nil
	}

	a.log.Info().Msg("Stopping recording")
	a.recording = false
	a.current = ""

	path, err := a.rec.Stop()
	if path != "" {
		a.last = path
	}
	if err != nil && path == "" {
		a.log.Error().Err(err).Msg("Failed to stop recording")
		if a.status != nil {
			a.status.SetError()
		}
		return "", err
	}
	if err != nil {
		// the sink is closed last, so the file is finalized regardless
		a.log.Error().Err(err).Str("path", path).Msg("Recording stopped with teardown errors")
	}
	if path == "" {
		if a.status != nil {
			a.status.SetIdle()
		}
		return "", nil
	}

	a.logSaved(path)
	if a.status != nil {
		a.status.SetSaved(path)
	}
	return path, nil
}

func (a *App) logSaved(path string) {
	stats := a.rec.Stats()
	ev := a.log.Info().
		Str("path", path).
		Uint64("frames", stats.Frames).
		Uint64("dropped", stats.Dropped)

	if info, err := recording.Inspect(path); err == nil {
		ev = ev.Dur("duration", info.Duration).Int("sample_rate", info.SampleRate)
	} else {
		a.log.Warn().Err(err).Str("path", path).Msg("Could not read back recording")
	}
	ev.Msg("Saved recording")
}

// Shutdown stops a running recording so the file is finalized
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording {
		if _, err := a.stopLocked(); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// Tray actions

func (a *App) SetMode(mode string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Mode = mode
	a.cfg.Save()
}

func (a *App) IsRecording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recording
}

// CurrentRecording is the file being written, empty when idle
func (a *App) CurrentRecording() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// LastRecording is the most recently finished file
func (a *App) LastRecording() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// RecordingsDir is where new recordings go
func (a *App) RecordingsDir() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Recordings()
}

func (a *App) ListDevices() ([]audio.Device, error) {
	if a.devices == nil {
		return nil, fmt.Errorf("device listing unavailable")
	}
	return a.devices.ListDevices()
}
