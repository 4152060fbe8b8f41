// Package coreaudio is the boundary to the platform audio hardware layer.
// Everything above it talks to a HAL; on darwin the HAL is backed by
// CoreAudio through cgo, elsewhere every call reports StatusUnsupported.
package coreaudio

import (
	"fmt"

	"github.com/petems/tap-recorder/internal/audio"
)

// ObjectID identifies a device, tap or other audio object
type ObjectID uint32

const (
	// UnknownObject is the sentinel for "no object"
	UnknownObject ObjectID = 0
	// SystemObject is the root audio object
	SystemObject ObjectID = 1
)

// Status is a raw OSStatus returned by the platform
type Status int32

const (
	StatusOK          Status = 0
	StatusUnsupported Status = Status('u'<<24 | 'n'<<16 | 'o'<<8 | 'p')
	StatusBadObject   Status = Status('!'<<24 | 'o'<<16 | 'b'<<8 | 'j')
	StatusUnspecified Status = Status('w'<<24 | 'h'<<16 | 'a'<<8 | 't')
)

// OK reports whether the status signals success
func (s Status) OK() bool { return s == StatusOK }

// String renders four-character codes as text and everything else as a number
func (s Status) String() string {
	u := uint32(s)
	b := []byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%d", int32(s))
		}
	}
	return fmt.Sprintf("'%s'", b)
}

// Selector is a four-character property selector
type Selector uint32

// Scope is a four-character property scope
type Scope uint32

func fourCC(s string) uint32 {
	return uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])
}

var (
	ScopeGlobal = Scope(fourCC("glob"))
	ScopeInput  = Scope(fourCC("inpt"))
	ScopeOutput = Scope(fourCC("outp"))
)

var (
	PropertyDefaultSystemOutputDevice = Selector(fourCC("sOut"))
	PropertyDefaultInputDevice        = Selector(fourCC("dIn "))
	PropertyDeviceUID                 = Selector(fourCC("uid "))
	PropertyNominalSampleRate         = Selector(fourCC("nsrt"))
	PropertyStreamFormat              = Selector(fourCC("sfmt"))
	PropertyStreamConfiguration       = Selector(fourCC("slay"))
	PropertyTapFormat                 = Selector(fourCC("tfmt"))
)

// ElementMain is the main element of every property
const ElementMain uint32 = 0

// PropertyAddress names one property of an audio object
type PropertyAddress struct {
	Selector Selector
	Scope    Scope
	Element  uint32
}

// Address returns the main-element address for sel in scope
func Address(sel Selector, scope Scope) PropertyAddress {
	return PropertyAddress{Selector: sel, Scope: scope, Element: ElementMain}
}

// MuteBehavior controls whether tapped processes stay audible
type MuteBehavior int

const (
	Unmuted MuteBehavior = iota
	Muted
	MutedWhenTapped
)

// TapDescription requests a stereo tap of the global output mix
type TapDescription struct {
	UUID             string
	ExcludeProcesses []int32 // pids
	MuteBehavior     MuteBehavior
	Private          bool
}

// Keys of the aggregate device description dictionary
const (
	AggregateNameKey          = "name"
	AggregateUIDKey           = "uid"
	AggregateMainSubDeviceKey = "master"
	AggregateIsPrivateKey     = "private"
	AggregateIsStackedKey     = "stacked"
	AggregateTapAutoStartKey  = "tapautostart"
	AggregateSubDeviceListKey = "subdevices"
	AggregateTapListKey       = "taps"
	SubDeviceUIDKey           = "uid"
	SubDeviceDriftKey         = "drift"
	SubTapUIDKey              = "uid"
	SubTapDriftKey            = "drift"
)

// IOProc receives the input buffers of one hardware cycle. The buffers are
// only valid for the duration of the call.
type IOProc func(in []audio.Buffer)

// IOProcID is the registration token of an IOProc
type IOProcID uintptr

// HAL is the subset of the platform audio hardware layer the recorder uses
type HAL interface {
	ObjectProperty(obj ObjectID, addr PropertyAddress) (ObjectID, Status)
	PropertyDataSize(obj ObjectID, addr PropertyAddress) (uint32, Status)
	StringProperty(obj ObjectID, addr PropertyAddress, size uint32) (string, Status)
	Float64Property(obj ObjectID, addr PropertyAddress) (float64, Status)
	StreamFormatProperty(obj ObjectID, addr PropertyAddress) (audio.Format, Status)
	// StreamConfiguration returns the channel count of every buffer the
	// device delivers in the given scope
	StreamConfiguration(obj ObjectID, scope Scope) ([]int, Status)

	CreateProcessTap(desc TapDescription) (ObjectID, Status)
	DestroyProcessTap(tap ObjectID) Status

	// CreateAggregateDevice takes a description built from the Aggregate*Key
	// constants: strings, bools and []map[string]any for the lists
	CreateAggregateDevice(desc map[string]any) (ObjectID, Status)
	DestroyAggregateDevice(dev ObjectID) Status

	CreateIOProc(dev ObjectID, proc IOProc) (IOProcID, Status)
	DestroyIOProc(dev ObjectID, id IOProcID) Status
	StartDevice(dev ObjectID, id IOProcID) Status
	// StopDevice returns once no further callbacks will begin
	StopDevice(dev ObjectID, id IOProcID) Status
}
