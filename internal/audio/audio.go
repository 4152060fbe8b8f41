package audio

import "fmt"

// Format describes a linear PCM stream as negotiated with the audio subsystem
type Format struct {
	SampleRate     float64
	Channels       int
	FormatID       uint32 // fourcc, e.g. 'lpcm'
	FormatFlags    uint32
	BitsPerChannel int
	BytesPerFrame  int
	Interleaved    bool
}

// FormatLinearPCM is the 'lpcm' format tag
const FormatLinearPCM uint32 = 'l'<<24 | 'p'<<16 | 'c'<<8 | 'm'

// Format flags used by the capture pipeline
const (
	FlagIsFloat        uint32 = 1 << 0
	FlagIsPacked       uint32 = 1 << 3
	FlagNonInterleaved uint32 = 1 << 5
)

func (f Format) String() string {
	layout := "interleaved"
	if !f.Interleaved {
		layout = "non-interleaved"
	}
	return fmt.Sprintf("%.0fHz %dch %d-bit %s", f.SampleRate, f.Channels, f.BitsPerChannel, layout)
}

// IsFloat32 reports whether samples are 32-bit IEEE floats
func (f Format) IsFloat32() bool {
	return f.FormatFlags&FlagIsFloat != 0 && f.BitsPerChannel == 32
}

// Buffer is a view over one delivered buffer of interleaved float32 samples.
// It is only valid for the duration of the callback that produced it.
type Buffer struct {
	Channels int
	Frames   int
	Data     []float32
}

// At returns the sample for frame i, channel ch
func (b Buffer) At(i, ch int) float32 {
	return b.Data[i*b.Channels+ch]
}

// Valid reports whether Data holds exactly Frames*Channels samples
func (b Buffer) Valid() bool {
	return b.Channels > 0 && b.Frames >= 0 && len(b.Data) == b.Frames*b.Channels
}

// Device represents an audio device as reported by a device lister
type Device struct {
	ID                string
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	SampleRate        float64
	DefaultInput      bool
	DefaultOutput     bool
}

// Lister enumerates devices for display purposes
type Lister interface {
	ListDevices() ([]Device, error)
	Close() error
}
