package capture

import (
	"github.com/petems/tap-recorder/internal/audio"
	"github.com/petems/tap-recorder/internal/coreaudio"
)

// Device is a resolved hardware or virtual device. It is never destroyed by
// the recorder.
type Device struct {
	ID         coreaudio.ObjectID
	UID        string
	SampleRate float64
	Format     audio.Format
}

// Discovery answers read-only device queries. It holds no state and is safe
// for concurrent use.
type Discovery struct {
	hal coreaudio.HAL
}

func NewDiscovery(hal coreaudio.HAL) *Discovery {
	return &Discovery{hal: hal}
}

// DefaultOutputDevice returns the system output device
func (d *Discovery) DefaultOutputDevice() (coreaudio.ObjectID, error) {
	return d.defaultDevice(coreaudio.PropertyDefaultSystemOutputDevice, "default output device")
}

// DefaultInputDevice returns the default input device
func (d *Discovery) DefaultInputDevice() (coreaudio.ObjectID, error) {
	return d.defaultDevice(coreaudio.PropertyDefaultInputDevice, "default input device")
}

func (d *Discovery) defaultDevice(sel coreaudio.Selector, stage string) (coreaudio.ObjectID, error) {
	id, st := d.hal.ObjectProperty(coreaudio.SystemObject, coreaudio.Address(sel, coreaudio.ScopeGlobal))
	if !st.OK() {
		return coreaudio.UnknownObject, statusError(KindDeviceQuery, stage, st)
	}
	if id == coreaudio.UnknownObject {
		return coreaudio.UnknownObject, statusError(KindDeviceQuery, stage, coreaudio.StatusBadObject)
	}
	return id, nil
}

// DeviceUID reads the persistent UID of a device
func (d *Discovery) DeviceUID(id coreaudio.ObjectID) (string, error) {
	addr := coreaudio.Address(coreaudio.PropertyDeviceUID, coreaudio.ScopeGlobal)

	size, st := d.hal.PropertyDataSize(id, addr)
	if !st.OK() {
		return "", statusError(KindDeviceQuery, "device uid size", st)
	}

	uid, st := d.hal.StringProperty(id, addr, size)
	if !st.OK() {
		return "", statusError(KindDeviceQuery, "device uid", st)
	}
	return uid, nil
}

// NominalSampleRate reads the device's nominal sample rate in Hz
func (d *Discovery) NominalSampleRate(id coreaudio.ObjectID) (float64, error) {
	rate, st := d.hal.Float64Property(id, coreaudio.Address(coreaudio.PropertyNominalSampleRate, coreaudio.ScopeGlobal))
	if !st.OK() {
		return 0, statusError(KindDeviceQuery, "nominal sample rate", st)
	}
	return rate, nil
}

// StreamFormat reads the device's stream format in the given direction
func (d *Discovery) StreamFormat(id coreaudio.ObjectID, scope coreaudio.Scope) (audio.Format, error) {
	f, st := d.hal.StreamFormatProperty(id, coreaudio.Address(coreaudio.PropertyStreamFormat, scope))
	if !st.OK() {
		return audio.Format{}, statusError(KindDeviceQuery, "stream format", st)
	}
	return f, nil
}

// StreamConfiguration reads the channel count of each buffer delivered in
// the given direction
func (d *Discovery) StreamConfiguration(id coreaudio.ObjectID, scope coreaudio.Scope) ([]int, error) {
	groups, st := d.hal.StreamConfiguration(id, scope)
	if !st.OK() {
		return nil, statusError(KindDeviceQuery, "stream configuration", st)
	}
	return groups, nil
}

// Resolve gathers the UID, nominal rate and stream format of a device
func (d *Discovery) Resolve(id coreaudio.ObjectID, scope coreaudio.Scope) (Device, error) {
	uid, err := d.DeviceUID(id)
	if err != nil {
		return Device{}, err
	}
	rate, err := d.NominalSampleRate(id)
	if err != nil {
		return Device{}, err
	}
	f, err := d.StreamFormat(id, scope)
	if err != nil {
		return Device{}, err
	}
	return Device{ID: id, UID: uid, SampleRate: rate, Format: f}, nil
}
