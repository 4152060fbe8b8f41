//go:build !darwin

package coreaudio

import "github.com/petems/tap-recorder/internal/audio"

// process taps and aggregate devices only exist in CoreAudio
type stubHAL struct{}

// New returns a HAL that reports StatusUnsupported for every call
func New() HAL {
	return stubHAL{}
}

func (stubHAL) ObjectProperty(ObjectID, PropertyAddress) (ObjectID, Status) {
	return UnknownObject, StatusUnsupported
}

func (stubHAL) PropertyDataSize(ObjectID, PropertyAddress) (uint32, Status) {
	return 0, StatusUnsupported
}

func (stubHAL) StringProperty(ObjectID, PropertyAddress, uint32) (string, Status) {
	return "", StatusUnsupported
}

func (stubHAL) Float64Property(ObjectID, PropertyAddress) (float64, Status) {
	return 0, StatusUnsupported
}

func (stubHAL) StreamFormatProperty(ObjectID, PropertyAddress) (audio.Format, Status) {
	return audio.Format{}, StatusUnsupported
}

func (stubHAL) StreamConfiguration(ObjectID, Scope) ([]int, Status) {
	return nil, StatusUnsupported
}

func (stubHAL) CreateProcessTap(TapDescription) (ObjectID, Status) {
	return UnknownObject, StatusUnsupported
}

func (stubHAL) DestroyProcessTap(ObjectID) Status { return StatusUnsupported }

func (stubHAL) CreateAggregateDevice(map[string]any) (ObjectID, Status) {
	return UnknownObject, StatusUnsupported
}

func (stubHAL) DestroyAggregateDevice(ObjectID) Status { return StatusUnsupported }

func (stubHAL) CreateIOProc(ObjectID, IOProc) (IOProcID, Status) {
	return 0, StatusUnsupported
}

func (stubHAL) DestroyIOProc(ObjectID, IOProcID) Status { return StatusUnsupported }

func (stubHAL) StartDevice(ObjectID, IOProcID) Status { return StatusUnsupported }

func (stubHAL) StopDevice(ObjectID, IOProcID) Status { return StatusUnsupported }
