package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// ModeToggle starts recording on one hotkey press and stops on the next
	ModeToggle = "Toggle"
	// ModePushToTalk records while the hotkey is held
	ModePushToTalk = "PushToTalk"
)

type Config struct {
	Hotkey            string     `json:"hotkey"`
	HotkeyDarwin      string     `json:"hotkey_darwin"`
	Mode              string     `json:"mode"` // "Toggle" or "PushToTalk"
	LogLevel          string     `json:"log_level"`
	RecordingsDir     string     `json:"recordings_dir"` // empty means RecordingsPath()
	AggregateName     string     `json:"aggregate_name"`
	ExcludedProcesses []int32    `json:"excluded_processes"`
	Sink              SinkConfig `json:"sink"`
}

type SinkConfig struct {
	BlockFrames int `json:"block_frames"` // frames per preallocated block
	Blocks      int `json:"blocks"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Hotkey:        "Ctrl+Alt+R",
		HotkeyDarwin:  "Ctrl+Alt+R", // Control+Option+R
		Mode:          ModeToggle,
		LogLevel:      "info",
		AggregateName: "Tap-global",
		Sink: SinkConfig{
			BlockFrames: 8192,
			Blocks:      16,
		},
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom reads the config at path, falling back to defaults for anything
// missing
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	return c.SaveTo(configPath())
}

// SaveTo writes the config to path
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PlatformHotkey returns the appropriate hotkey for the current platform
func (c *Config) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && c.HotkeyDarwin != "" {
		return c.HotkeyDarwin
	}
	return c.Hotkey
}

// Recordings returns the directory new recordings are written to
func (c *Config) Recordings() string {
	if c.RecordingsDir != "" {
		return c.RecordingsDir
	}
	return RecordingsPath()
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "tap-recorder", "config.json")
}

// RecordingsPath returns the application-private default recordings
// directory
func RecordingsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "tap-recorder", "recordings")
}
