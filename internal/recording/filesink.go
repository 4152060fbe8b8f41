package recording

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/petems/tap-recorder/internal/audio"
)

// wavFormatIEEEFloat is the WAVE_FORMAT_IEEE_FLOAT format tag
const wavFormatIEEEFloat = 3

const (
	DefaultBlockFrames = 8192
	DefaultBlocks      = 16
)

var (
	// ErrOverrun means the writer fell behind and frames were dropped
	ErrOverrun = errors.New("sink overrun: no free block")
	// ErrClosed means Write was called after Close
	ErrClosed = errors.New("sink closed")
)

// SinkConfig sizes the block pool between the audio callback and the
// writer goroutine
type SinkConfig struct {
	BlockFrames int
	Blocks      int
}

type block struct {
	data   []float32 // interleaved stereo
	frames int
}

// FileSink writes stereo float32 frames to a WAV file. Write copies frames
// into preallocated blocks and never blocks or touches the disk; a writer
// goroutine encodes full blocks.
type FileSink struct {
	path     string
	file     *os.File
	enc      *wav.Encoder
	channels int
	log      zerolog.Logger

	free chan *block
	full chan *block
	cur  *block // owned by the writing goroutine
	done chan struct{}

	closed   atomic.Bool
	writeErr atomic.Pointer[error]
}

// formatTag maps a negotiated format to its WAVE format tag. Only 32-bit
// float linear PCM is recorded.
func formatTag(f audio.Format) (int, error) {
	if f.FormatID != audio.FormatLinearPCM {
		return 0, fmt.Errorf("unsupported format id %#x", f.FormatID)
	}
	if !f.IsFloat32() {
		return 0, fmt.Errorf("unsupported sample format %s", f)
	}
	return wavFormatIEEEFloat, nil
}

// OpenFileSink creates the file at path and writes the WAV header. The format
// must be 32-bit float; it is stored interleaved.
func OpenFileSink(path string, f audio.Format, cfg SinkConfig, log zerolog.Logger) (*FileSink, error) {
	if f.Channels != audio.OutputChannels {
		return nil, fmt.Errorf("unsupported channel count %d", f.Channels)
	}
	tag, err := formatTag(f)
	if err != nil {
		return nil, err
	}
	if cfg.BlockFrames <= 0 {
		cfg.BlockFrames = DefaultBlockFrames
	}
	if cfg.Blocks <= 0 {
		cfg.Blocks = DefaultBlocks
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create recordings directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	enc := wav.NewEncoder(file, int(math.Round(f.SampleRate)), 32, f.Channels, tag)
	// an empty write forces the header out so open errors surface here
	header := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: f.Channels, SampleRate: int(math.Round(f.SampleRate))},
		Data:           []int{},
		SourceBitDepth: 32,
	}
	if err := enc.Write(header); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	s := &FileSink{
		path:     path,
		file:     file,
		enc:      enc,
		channels: f.Channels,
		log:      log,
		free:     make(chan *block, cfg.Blocks),
		full:     make(chan *block, cfg.Blocks),
		done:     make(chan struct{}),
	}
	for i := 0; i < cfg.Blocks; i++ {
		s.free <- &block{data: make([]float32, cfg.BlockFrames*f.Channels)}
	}

	go s.writeLoop(header)

	return s, nil
}

// Path returns the file being written
func (s *FileSink) Path() string {
	return s.path
}

// Write appends one non-interleaved stereo frame set. It returns ErrOverrun
// and drops the rest of the frames when no block is free.
func (s *FileSink) Write(left, right []float32) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if p := s.writeErr.Load(); p != nil {
		return *p
	}
	if len(left) != len(right) {
		return fmt.Errorf("channel length mismatch: %d vs %d", len(left), len(right))
	}

	for i := 0; i < len(left); {
		if s.cur == nil {
			select {
			case b := <-s.free:
				s.cur = b
			default:
				return ErrOverrun
			}
		}

		b := s.cur
		capacity := len(b.data)/s.channels - b.frames
		n := len(left) - i
		if n > capacity {
			n = capacity
		}
		dst := b.data[b.frames*s.channels:]
		for j := 0; j < n; j++ {
			dst[2*j] = left[i+j]
			dst[2*j+1] = right[i+j]
		}
		b.frames += n
		i += n

		if b.frames*s.channels == len(b.data) {
			s.full <- b
			s.cur = nil
		}
	}
	return nil
}

// Close flushes pending frames, finalizes the WAV header and closes the
// file. No Write may run concurrently with or after Close.
func (s *FileSink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if s.cur != nil && s.cur.frames > 0 {
		s.full <- s.cur
	}
	s.cur = nil
	close(s.full)
	<-s.done

	var errs []error
	if p := s.writeErr.Load(); p != nil {
		errs = append(errs, *p)
	}
	if err := s.enc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to finalize wav: %w", err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close recording: %w", err))
	}
	return errors.Join(errs...)
}

func (s *FileSink) writeLoop(buf *goaudio.IntBuffer) {
	defer close(s.done)

	for b := range s.full {
		n := b.frames * s.channels
		if cap(buf.Data) < n {
			buf.Data = make([]int, n)
		}
		buf.Data = buf.Data[:n]
		for i, v := range b.data[:n] {
			// 32-bit encoding writes int32(v): carry the float bits through
			buf.Data[i] = int(int32(math.Float32bits(v)))
		}

		if s.writeErr.Load() == nil {
			if err := s.enc.Write(buf); err != nil {
				err = fmt.Errorf("failed to write samples: %w", err)
				s.writeErr.Store(&err)
				s.log.Error().Err(err).Str("path", s.path).Msg("Recording write failed")
			}
		}

		b.frames = 0
		s.free <- b
	}
}
