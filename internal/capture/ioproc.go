package capture

import (
	"sync/atomic"

	"github.com/petems/tap-recorder/internal/audio"
)

// Sink receives stereo frames on the audio callback thread. Write must not
// block.
type Sink interface {
	Write(left, right []float32) error
	Close() error
	Path() string
}

// SinkOpener opens the output file of a session
type SinkOpener func(path string, f audio.Format) (Sink, error)

// Stats counts what the callback did over one session
type Stats struct {
	Callbacks uint64
	Frames    uint64
	Dropped   uint64
	Unlogged  uint64
}

type sinkSlot struct {
	sink Sink
}

// ioContext is the only state the realtime callback touches. The control
// thread swaps the sink in before the device starts and out after it has
// stopped; the callback never sees a closed sink.
type ioContext struct {
	sink    atomic.Pointer[sinkSlot]
	downmix *audio.Downmixer
	errs    chan error

	callbacks atomic.Uint64
	frames    atomic.Uint64
	dropped   atomic.Uint64
	unlogged  atomic.Uint64
}

func newIOContext(buffers, maxFrames, errBacklog int) *ioContext {
	return &ioContext{
		downmix: audio.NewDownmixer(buffers, maxFrames),
		errs:    make(chan error, errBacklog),
	}
}

func (c *ioContext) attach(s Sink) {
	c.sink.Store(&sinkSlot{sink: s})
}

func (c *ioContext) detach() {
	c.sink.Store(nil)
}

// process runs once per hardware cycle on the platform's callback thread
func (c *ioContext) process(in []audio.Buffer) {
	c.callbacks.Add(1)

	slot := c.sink.Load()
	if slot == nil {
		return
	}

	mono, err := c.downmix.Downmix(in)
	if err != nil {
		c.fail(err)
		return
	}
	left, right, err := audio.Pair(mono)
	if err != nil {
		c.fail(err)
		return
	}

	if err := slot.sink.Write(left, right); err != nil {
		c.fail(err)
		return
	}
	c.frames.Add(uint64(len(left)))
}

// fail hands the error to the logging goroutine without blocking
func (c *ioContext) fail(err error) {
	c.dropped.Add(1)
	select {
	case c.errs <- err:
	default:
		c.unlogged.Add(1)
	}
}

func (c *ioContext) stats() Stats {
	return Stats{
		Callbacks: c.callbacks.Load(),
		Frames:    c.frames.Load(),
		Dropped:   c.dropped.Load(),
		Unlogged:  c.unlogged.Load(),
	}
}
