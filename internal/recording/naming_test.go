package recording

import (
	"path/filepath"
	"testing"
	"time"
)

func TestName(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{
			name: "reference date",
			at:   ReferenceDate,
			want: "0.wav",
		},
		{
			name: "one day later",
			at:   ReferenceDate.Add(24 * time.Hour),
			want: "86400.wav",
		},
		{
			name: "fractional seconds truncate",
			at:   ReferenceDate.Add(90*time.Second + 999*time.Millisecond),
			want: "90.wav",
		},
		{
			name: "other time zones",
			at:   time.Date(2001, time.January, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
			want: "0.wav",
		},
		{
			name: "2024",
			at:   time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
			want: "730987200.wav",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(tt.at); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	got := Path(dir, ReferenceDate.Add(42*time.Second))
	want := filepath.Join(dir, "42.wav")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
