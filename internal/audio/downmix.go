package audio

import "fmt"

// OutputChannels is the fixed channel count of the frames handed to a sink
const OutputChannels = 2

// DownmixError reports a buffer layout the downmixer refuses to process.
// The caller must drop the whole callback cycle when it sees one.
type DownmixError struct {
	Index  int
	Reason string
}

func (e *DownmixError) Error() string {
	if e.Index < 0 {
		return "downmix: " + e.Reason
	}
	return fmt.Sprintf("downmix: buffer %d: %s", e.Index, e.Reason)
}

// Downmixer reduces every multi-channel buffer of a callback to mono.
// Scratch space is reused across calls, so a Downmixer must only be used
// from one goroutine (the audio callback thread).
type Downmixer struct {
	scratch [][]float32
	out     []Buffer
}

// NewDownmixer preallocates scratch for the given number of buffers of up to
// maxFrames frames each
func NewDownmixer(buffers, maxFrames int) *Downmixer {
	d := &Downmixer{
		scratch: make([][]float32, buffers),
		out:     make([]Buffer, buffers),
	}
	for i := range d.scratch {
		d.scratch[i] = make([]float32, maxFrames)
	}
	return d
}

// Downmix returns one buffer per input buffer. Mono buffers pass through as
// the same view; wider buffers are averaged into owned scratch. The returned
// slice is only valid until the next call.
func (d *Downmixer) Downmix(in []Buffer) ([]Buffer, error) {
	if len(in) > len(d.out) {
		d.grow(len(in))
	}
	out := d.out[:len(in)]

	for i, b := range in {
		if !b.Valid() {
			return nil, &DownmixError{Index: i, Reason: fmt.Sprintf("%d samples for %d frames x %d channels", len(b.Data), b.Frames, b.Channels)}
		}
		if b.Channels == 1 {
			out[i] = b
			continue
		}
		if cap(d.scratch[i]) < b.Frames {
			d.scratch[i] = make([]float32, b.Frames)
		}
		mono := d.scratch[i][:b.Frames]
		downmixInterleaved(mono, b.Data, b.Channels, b.Frames)
		out[i] = Buffer{Channels: 1, Frames: b.Frames, Data: mono}
	}

	for i := range out {
		if out[i].Frames != in[i].Frames || out[i].Channels != 1 {
			return nil, &DownmixError{Index: i, Reason: "frame count not preserved"}
		}
	}
	return out, nil
}

// Pair packages exactly two mono buffers of equal length as the left and
// right channels of a non-interleaved output frame
func Pair(mono []Buffer) (left, right []float32, err error) {
	if len(mono) != OutputChannels {
		return nil, nil, &DownmixError{Index: -1, Reason: fmt.Sprintf("expected %d buffers, got %d", OutputChannels, len(mono))}
	}
	for i, b := range mono {
		if b.Channels != 1 {
			return nil, nil, &DownmixError{Index: i, Reason: "not mono"}
		}
	}
	if mono[0].Frames != mono[1].Frames {
		return nil, nil, &DownmixError{Index: 1, Reason: fmt.Sprintf("frame count %d differs from %d", mono[1].Frames, mono[0].Frames)}
	}
	return mono[0].Data, mono[1].Data, nil
}

// ValidateLayout checks a stream configuration (channels per delivered
// buffer) before capture starts: there must be exactly one group per
// output channel and every group must carry at least one channel.
func ValidateLayout(groups []int) error {
	if len(groups) != OutputChannels {
		return fmt.Errorf("input scope delivers %d buffers, need %d", len(groups), OutputChannels)
	}
	for i, ch := range groups {
		if ch < 1 {
			return fmt.Errorf("buffer %d has no channels", i)
		}
	}
	return nil
}

func (d *Downmixer) grow(n int) {
	for len(d.out) < n {
		d.out = append(d.out, Buffer{})
		d.scratch = append(d.scratch, nil)
	}
}

// downmixInterleaved averages interleaved frames of src into dst
func downmixInterleaved(dst, src []float32, channels, frames int) {
	if channels == 1 {
		copy(dst, src[:frames])
		return
	}
	n := float32(channels)
	for f := 0; f < frames; f++ {
		base := f * channels
		var sum float32
		for c := 0; c < channels; c++ {
			sum += src[base+c]
		}
		dst[f] = sum / n
	}
}
