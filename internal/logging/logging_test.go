package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{in: "debug", want: zerolog.DebugLevel},
		{in: "WARN", want: zerolog.WarnLevel},
		{in: " error ", want: zerolog.ErrorLevel},
		{in: "", want: zerolog.InfoLevel},
		{in: "verbose", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLoggerFiltersFileOutput(t *testing.T) {
	var file bytes.Buffer
	logger := newLogger(&file, zerolog.WarnLevel)

	logger.Info().Msg("hidden")
	logger.Warn().Str("path", "/tmp/1.wav").Msg("shown")

	out := file.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, `"message":"shown"`) || !strings.Contains(out, `"path":"/tmp/1.wav"`) {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestPath(t *testing.T) {
	if !strings.HasSuffix(Path(), "tap-recorder.log") {
		t.Errorf("Path() = %q", Path())
	}
}
