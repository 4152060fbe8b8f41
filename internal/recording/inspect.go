package recording

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Info summarizes a finished recording
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Format     int // WAV format tag
	Frames     int64
	Duration   time.Duration
}

// Inspect reads the header of a recording
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	d, err := openDecoder(f)
	if err != nil {
		return Info{}, err
	}
	return infoOf(d), nil
}

// ReadSamples returns the interleaved float32 samples of a recording
func ReadSamples(path string) ([]float32, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, err
	}
	defer f.Close()

	d, err := openDecoder(f)
	if err != nil {
		return nil, Info{}, err
	}
	info := infoOf(d)
	if info.Format != wavFormatIEEEFloat || info.BitDepth != 32 {
		return nil, info, fmt.Errorf("%s: not a 32-bit float recording", path)
	}

	raw := make([]byte, d.PCMLen())
	if _, err := io.ReadFull(d.PCMChunk.R, raw); err != nil {
		return nil, info, fmt.Errorf("%s: failed to read samples: %w", path, err)
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, info, nil
}

func openDecoder(f *os.File) (*wav.Decoder, error) {
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", f.Name())
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return d, nil
}

func infoOf(d *wav.Decoder) Info {
	info := Info{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Format:     int(d.WavAudioFormat),
	}
	if frameBytes := int64(info.Channels * info.BitDepth / 8); frameBytes > 0 {
		info.Frames = d.PCMLen() / frameBytes
	}
	if info.SampleRate > 0 {
		info.Duration = time.Duration(info.Frames) * time.Second / time.Duration(info.SampleRate)
	}
	return info
}
