package capture

import (
	"github.com/google/uuid"

	"github.com/petems/tap-recorder/internal/audio"
	"github.com/petems/tap-recorder/internal/coreaudio"
)

// Tap is a created process tap. It is valid only until DestroyTap.
type Tap struct {
	ID           coreaudio.ObjectID
	UUID         string
	MuteBehavior coreaudio.MuteBehavior
}

type TapManager struct {
	hal coreaudio.HAL
}

func NewTapManager(hal coreaudio.HAL) *TapManager {
	return &TapManager{hal: hal}
}

// CreateTap taps the mixed system output, minus the excluded pids. Nothing is
// allocated when it fails.
func (m *TapManager) CreateTap(excluded []int32) (Tap, error) {
	desc := coreaudio.TapDescription{
		UUID:             uuid.NewString(),
		ExcludeProcesses: excluded,
		MuteBehavior:     coreaudio.Unmuted,
		Private:          true,
	}

	id, st := m.hal.CreateProcessTap(desc)
	if !st.OK() {
		return Tap{}, statusError(KindTapCreation, "create process tap", st)
	}
	if id == coreaudio.UnknownObject {
		return Tap{}, statusError(KindTapCreation, "create process tap", coreaudio.StatusBadObject)
	}
	return Tap{ID: id, UUID: desc.UUID, MuteBehavior: desc.MuteBehavior}, nil
}

// DestroyTap must be called exactly once per created tap
func (m *TapManager) DestroyTap(t Tap) error {
	if st := m.hal.DestroyProcessTap(t.ID); !st.OK() {
		return statusError(KindTeardown, "destroy process tap", st)
	}
	return nil
}

// TapStreamFormat reads the tap's negotiated format
func (m *TapManager) TapStreamFormat(t Tap) (audio.Format, error) {
	f, st := m.hal.StreamFormatProperty(t.ID, coreaudio.Address(coreaudio.PropertyTapFormat, coreaudio.ScopeGlobal))
	if !st.OK() {
		return audio.Format{}, statusError(KindFormatNegotiation, "tap stream format", st)
	}
	return f, nil
}
