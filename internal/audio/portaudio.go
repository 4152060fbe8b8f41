package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type portAudioLister struct{}

// NewLister initializes PortAudio for device enumeration
func NewLister() (Lister, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioLister{}, nil
}

func (p *portAudioLister) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultIn, _ := portaudio.DefaultInputDevice()
	defaultOut, _ := portaudio.DefaultOutputDevice()

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		result = append(result, Device{
			ID:                d.Name,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			SampleRate:        d.DefaultSampleRate,
			DefaultInput:      d == defaultIn,
			DefaultOutput:     d == defaultOut,
		})
	}

	return result, nil
}

func (p *portAudioLister) Close() error {
	return portaudio.Terminate()
}

// Describe renders a device for menus and logs
func Describe(d Device) string {
	var role string
	switch {
	case d.DefaultInput && d.DefaultOutput:
		role = " (default in/out)"
	case d.DefaultInput:
		role = " (default input)"
	case d.DefaultOutput:
		role = " (default output)"
	}
	return fmt.Sprintf("%s: %.0f Hz, %d in / %d out%s", d.Name, d.SampleRate, d.MaxInputChannels, d.MaxOutputChannels, role)
}
