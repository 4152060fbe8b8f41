package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Mode != ModeToggle {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeToggle)
	}
	if cfg.AggregateName != "Tap-global" {
		t.Errorf("AggregateName = %q", cfg.AggregateName)
	}
	if cfg.Sink.BlockFrames != 8192 || cfg.Sink.Blocks != 16 {
		t.Errorf("Sink = %+v", cfg.Sink)
	}
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"mode": "PushToTalk", "recordings_dir": "/tmp/rec", "excluded_processes": [12, 34]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Mode != ModePushToTalk {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModePushToTalk)
	}
	if cfg.Recordings() != "/tmp/rec" {
		t.Errorf("Recordings() = %q", cfg.Recordings())
	}
	if len(cfg.ExcludedProcesses) != 2 || cfg.ExcludedProcesses[1] != 34 {
		t.Errorf("ExcludedProcesses = %v", cfg.ExcludedProcesses)
	}
	// untouched fields keep their defaults
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Hotkey = "Ctrl+Shift+F9"
	cfg.Sink.Blocks = 4

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got.Hotkey != "Ctrl+Shift+F9" || got.Sink.Blocks != 4 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestRecordingsDefaultsToAppDataPath(t *testing.T) {
	t.Setenv("HOME", "/Users/x")
	t.Setenv("APPDATA", `C:\Users\x\AppData\Roaming`)
	t.Setenv("XDG_DATA_HOME", "")

	var want string
	switch runtime.GOOS {
	case "darwin":
		want = "/Users/x/Library/Application Support/tap-recorder/recordings"
	case "windows":
		want = filepath.Join(`C:\Users\x\AppData\Roaming`, "tap-recorder", "recordings")
	default:
		want = "/Users/x/.local/share/tap-recorder/recordings"
	}

	cfg := Default()
	if got := cfg.Recordings(); got != want {
		t.Errorf("Recordings() = %q, want %q", got, want)
	}

	if runtime.GOOS == "linux" {
		t.Setenv("XDG_DATA_HOME", "/data")
		if got := RecordingsPath(); got != "/data/tap-recorder/recordings" {
			t.Errorf("RecordingsPath() with XDG_DATA_HOME = %q", got)
		}
	}
}
