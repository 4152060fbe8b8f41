package capture

import (
	"github.com/google/uuid"

	"github.com/petems/tap-recorder/internal/coreaudio"
)

// DefaultAggregateName is used when no name is configured
const DefaultAggregateName = "Tap-global"

// SubDevice is one real device inside an aggregate
type SubDevice struct {
	UID               string
	DriftCompensation bool
}

// SubTap is one process tap inside an aggregate
type SubTap struct {
	UUID              string
	DriftCompensation bool
}

// AggregateConfig describes the virtual device to create. Exactly one
// sub-device is the clock master; everything else is drift-compensated
// against it.
type AggregateConfig struct {
	Name             string
	UID              string
	MainSubDeviceUID string
	Private          bool
	Stacked          bool
	TapAutoStart     bool
	SubDevices       []SubDevice
	Taps             []SubTap
}

// Description converts the config to the platform's dictionary form
func (c AggregateConfig) Description() map[string]any {
	subs := make([]map[string]any, 0, len(c.SubDevices))
	for _, s := range c.SubDevices {
		subs = append(subs, map[string]any{
			coreaudio.SubDeviceUIDKey:   s.UID,
			coreaudio.SubDeviceDriftKey: s.DriftCompensation,
		})
	}
	taps := make([]map[string]any, 0, len(c.Taps))
	for _, t := range c.Taps {
		taps = append(taps, map[string]any{
			coreaudio.SubTapUIDKey:   t.UUID,
			coreaudio.SubTapDriftKey: t.DriftCompensation,
		})
	}

	return map[string]any{
		coreaudio.AggregateNameKey:          c.Name,
		coreaudio.AggregateUIDKey:           c.UID,
		coreaudio.AggregateMainSubDeviceKey: c.MainSubDeviceUID,
		coreaudio.AggregateIsPrivateKey:     c.Private,
		coreaudio.AggregateIsStackedKey:     c.Stacked,
		coreaudio.AggregateTapAutoStartKey:  c.TapAutoStart,
		coreaudio.AggregateSubDeviceListKey: subs,
		coreaudio.AggregateTapListKey:       taps,
	}
}

// Aggregate is a created aggregate device
type Aggregate struct {
	ID  coreaudio.ObjectID
	UID string
}

type AggregateManager struct {
	hal  coreaudio.HAL
	name string
}

func NewAggregateManager(hal coreaudio.HAL, name string) *AggregateManager {
	if name == "" {
		name = DefaultAggregateName
	}
	return &AggregateManager{hal: hal, name: name}
}

// SelectMaster picks the clock master: the device with the lower nominal
// rate. Equal rates keep the output device as master.
func SelectMaster(output, input Device) string {
	if input.SampleRate < output.SampleRate {
		return input.UID
	}
	return output.UID
}

// BuildConfig lays out output and input as sub-devices (in that order) and
// the tap. The master runs uncompensated; the other sub-device and the tap
// are drift-compensated. Tap auto-start stays off since two sub-devices have
// to be correlated before the tap starts.
func (m *AggregateManager) BuildConfig(outputUID, inputUID, tapUUID, masterUID string) AggregateConfig {
	cfg := AggregateConfig{
		Name:             m.name,
		UID:              uuid.NewString(),
		MainSubDeviceUID: masterUID,
		Private:          true,
		Stacked:          false,
	}

	for i, uid := range []string{outputUID, inputUID} {
		if i > 0 && uid == outputUID {
			continue
		}
		cfg.SubDevices = append(cfg.SubDevices, SubDevice{
			UID:               uid,
			DriftCompensation: uid != masterUID,
		})
	}
	cfg.TapAutoStart = len(cfg.SubDevices) < 2

	cfg.Taps = []SubTap{{UUID: tapUUID, DriftCompensation: true}}
	return cfg
}

// Create materializes the aggregate device
func (m *AggregateManager) Create(cfg AggregateConfig) (Aggregate, error) {
	id, st := m.hal.CreateAggregateDevice(cfg.Description())
	if !st.OK() {
		return Aggregate{}, statusError(KindAggregateCreation, "create aggregate device", st)
	}
	if id == coreaudio.UnknownObject {
		return Aggregate{}, statusError(KindAggregateCreation, "create aggregate device", coreaudio.StatusBadObject)
	}
	return Aggregate{ID: id, UID: cfg.UID}, nil
}

// Destroy must be called exactly once per created aggregate
func (m *AggregateManager) Destroy(a Aggregate) error {
	if st := m.hal.DestroyAggregateDevice(a.ID); !st.OK() {
		return statusError(KindTeardown, "destroy aggregate device", st)
	}
	return nil
}
