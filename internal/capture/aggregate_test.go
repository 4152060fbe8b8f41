package capture

import (
	"errors"
	"testing"

	"github.com/petems/tap-recorder/internal/coreaudio"
)

func TestSelectMaster(t *testing.T) {
	tests := []struct {
		name       string
		outputRate float64
		inputRate  float64
		want       string
	}{
		{name: "input slower", outputRate: 48000, inputRate: 44100, want: "in"},
		{name: "output slower", outputRate: 44100, inputRate: 96000, want: "out"},
		{name: "equal rates keep output", outputRate: 48000, inputRate: 48000, want: "out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := Device{UID: "out", SampleRate: tt.outputRate}
			input := Device{UID: "in", SampleRate: tt.inputRate}
			if got := SelectMaster(output, input); got != tt.want {
				t.Errorf("SelectMaster() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildConfig(t *testing.T) {
	m := NewAggregateManager(newFakeHAL(), "")
	cfg := m.BuildConfig("out", "in", "tap-uuid", "in")

	if cfg.Name != DefaultAggregateName {
		t.Errorf("Name = %q, want %q", cfg.Name, DefaultAggregateName)
	}
	if cfg.UID == "" {
		t.Error("UID should be generated")
	}
	if cfg.MainSubDeviceUID != "in" {
		t.Errorf("MainSubDeviceUID = %q, want in", cfg.MainSubDeviceUID)
	}
	if !cfg.Private || cfg.Stacked || cfg.TapAutoStart {
		t.Errorf("flags private=%v stacked=%v autostart=%v", cfg.Private, cfg.Stacked, cfg.TapAutoStart)
	}

	want := []SubDevice{
		{UID: "out", DriftCompensation: true},
		{UID: "in", DriftCompensation: false},
	}
	if len(cfg.SubDevices) != len(want) {
		t.Fatalf("got %d sub-devices, want %d", len(cfg.SubDevices), len(want))
	}
	for i := range want {
		if cfg.SubDevices[i] != want[i] {
			t.Errorf("SubDevices[%d] = %+v, want %+v", i, cfg.SubDevices[i], want[i])
		}
	}
	if len(cfg.Taps) != 1 || cfg.Taps[0] != (SubTap{UUID: "tap-uuid", DriftCompensation: true}) {
		t.Errorf("Taps = %+v", cfg.Taps)
	}

	// every call gets a fresh identity
	if again := m.BuildConfig("out", "in", "tap-uuid", "in"); again.UID == cfg.UID {
		t.Error("UID should differ between builds")
	}
}

func TestBuildConfigSameDevice(t *testing.T) {
	m := NewAggregateManager(newFakeHAL(), "Custom")
	cfg := m.BuildConfig("headset", "headset", "tap-uuid", "headset")

	if cfg.Name != "Custom" {
		t.Errorf("Name = %q, want Custom", cfg.Name)
	}
	if len(cfg.SubDevices) != 1 {
		t.Fatalf("got %d sub-devices, want 1", len(cfg.SubDevices))
	}
	if cfg.SubDevices[0].DriftCompensation {
		t.Error("master should not be drift compensated")
	}
	if !cfg.TapAutoStart {
		t.Error("a single sub-device should let the tap auto-start")
	}
}

func TestAggregateDescription(t *testing.T) {
	m := NewAggregateManager(newFakeHAL(), "")
	desc := m.BuildConfig("out", "in", "tap-uuid", "out").Description()

	if desc[coreaudio.AggregateMainSubDeviceKey] != "out" {
		t.Errorf("master = %v", desc[coreaudio.AggregateMainSubDeviceKey])
	}
	if desc[coreaudio.AggregateIsPrivateKey] != true {
		t.Errorf("private = %v", desc[coreaudio.AggregateIsPrivateKey])
	}
	subs, ok := desc[coreaudio.AggregateSubDeviceListKey].([]map[string]any)
	if !ok || len(subs) != 2 {
		t.Fatalf("subdevices = %#v", desc[coreaudio.AggregateSubDeviceListKey])
	}
	if subs[0][coreaudio.SubDeviceUIDKey] != "out" || subs[0][coreaudio.SubDeviceDriftKey] != false {
		t.Errorf("subdevices[0] = %v", subs[0])
	}
	if subs[1][coreaudio.SubDeviceUIDKey] != "in" || subs[1][coreaudio.SubDeviceDriftKey] != true {
		t.Errorf("subdevices[1] = %v", subs[1])
	}
	taps, ok := desc[coreaudio.AggregateTapListKey].([]map[string]any)
	if !ok || len(taps) != 1 || taps[0][coreaudio.SubTapUIDKey] != "tap-uuid" {
		t.Errorf("taps = %#v", desc[coreaudio.AggregateTapListKey])
	}
}

func TestAggregateCreateFailure(t *testing.T) {
	hal := newFakeHAL()
	hal.fail["create aggregate"] = coreaudio.StatusUnspecified
	m := NewAggregateManager(hal, "")

	_, err := m.Create(m.BuildConfig("out", "in", "tap", "out"))
	if !errors.Is(err, ErrAggregateCreation) {
		t.Fatalf("Create() error = %v, want aggregate creation", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Status != coreaudio.StatusUnspecified {
		t.Errorf("status not carried: %v", err)
	}
	if _, aggs, _ := hal.live(); aggs != 0 {
		t.Errorf("live aggregates = %d, want 0", aggs)
	}
}

func TestTapManager(t *testing.T) {
	hal := newFakeHAL()
	m := NewTapManager(hal)

	tap, err := m.CreateTap([]int32{123, 456})
	if err != nil {
		t.Fatalf("CreateTap() error = %v", err)
	}
	if tap.ID != fakeTapID || tap.UUID == "" || tap.MuteBehavior != coreaudio.Unmuted {
		t.Errorf("unexpected tap %+v", tap)
	}
	desc := hal.tapDescs[0]
	if desc.UUID != tap.UUID || !desc.Private || len(desc.ExcludeProcesses) != 2 {
		t.Errorf("unexpected description %+v", desc)
	}

	f, err := m.TapStreamFormat(tap)
	if err != nil || f.Channels != 2 {
		t.Errorf("TapStreamFormat() = %v, %v", f, err)
	}

	if err := m.DestroyTap(tap); err != nil {
		t.Errorf("DestroyTap() error = %v", err)
	}
	if taps, _, _ := hal.live(); taps != 0 {
		t.Errorf("live taps = %d, want 0", taps)
	}
}

func TestTapManagerFailures(t *testing.T) {
	hal := newFakeHAL()
	hal.fail["create tap"] = coreaudio.StatusUnsupported
	m := NewTapManager(hal)

	if _, err := m.CreateTap(nil); !errors.Is(err, ErrTapCreation) {
		t.Errorf("CreateTap() error = %v, want tap creation", err)
	}

	hal.fail["destroy tap"] = coreaudio.StatusBadObject
	if err := m.DestroyTap(Tap{ID: fakeTapID}); !errors.Is(err, ErrTeardown) {
		t.Errorf("DestroyTap() error = %v, want teardown", err)
	}
}
