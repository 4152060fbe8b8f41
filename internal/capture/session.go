package capture

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/tap-recorder/internal/audio"
	"github.com/petems/tap-recorder/internal/coreaudio"
	"github.com/petems/tap-recorder/internal/recording"
)

// State is the lifecycle state of a Session
type State int32

const (
	Idle State = iota
	Starting
	Recording
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Recording:
		return "recording"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

const (
	defaultMaxFrames  = 4096
	defaultErrBacklog = 64
)

type Options struct {
	HAL           coreaudio.HAL
	OpenSink      SinkOpener
	Dir           string // where recordings are written
	AggregateName string
	MaxFrames     int // initial downmix scratch per buffer
	Logger        zerolog.Logger
	Now           func() time.Time
}

type StartOptions struct {
	ExcludeProcesses []int32
}

// Session owns every platform handle of one capture at a time and drives
// Idle -> Starting -> Recording -> Stopping -> Idle. Start and Stop are
// meant for a single control goroutine; calls in the wrong state fail with
// ErrNotIdle or ErrNotRecording instead of touching any handle.
type Session struct {
	hal       coreaudio.HAL
	discovery *Discovery
	taps      *TapManager
	aggs      *AggregateManager
	openSink  SinkOpener
	dir       string
	maxFrames int
	log       zerolog.Logger
	now       func() time.Time

	state atomic.Int32

	// owned handles, only touched by whoever moved state out of Idle or
	// Recording
	tap       *Tap
	aggregate *Aggregate
	procID    coreaudio.IOProcID
	procSet   bool
	running   bool
	sink      Sink
	io        *ioContext
	logDone   chan struct{}
	drained   sync.WaitGroup

	// statsMu guards io and last for Stats callers on other goroutines
	statsMu sync.Mutex
	last    Stats
}

func NewSession(opts Options) *Session {
	maxFrames := opts.MaxFrames
	if maxFrames <= 0 {
		maxFrames = defaultMaxFrames
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		hal:       opts.HAL,
		discovery: NewDiscovery(opts.HAL),
		taps:      NewTapManager(opts.HAL),
		aggs:      NewAggregateManager(opts.HAL, opts.AggregateName),
		openSink:  opts.OpenSink,
		dir:       opts.Dir,
		maxFrames: maxFrames,
		log:       opts.Logger,
		now:       now,
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Stats returns the counters of the running session, or of the last one
// once it has stopped. It may be called concurrently with Start and Stop.
func (s *Session) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	if s.State() == Recording && s.io != nil {
		return s.io.stats()
	}
	return s.last
}

// Start creates the tap and aggregate device, opens the sink and starts
// device I/O. It returns the path being recorded to. On failure everything
// created so far is released and the session is Idle again.
func (s *Session) Start(opts StartOptions) (string, error) {
	if !s.state.CompareAndSwap(int32(Idle), int32(Starting)) {
		return "", ErrNotIdle
	}

	path, err := s.start(opts)
	if err != nil {
		s.log.Error().Err(err).Msg("Capture failed to start, unwinding")
		s.teardown()
		if path != "" {
			os.Remove(path)
		}
		s.reset()
		s.state.Store(int32(Idle))
		return "", err
	}

	s.state.Store(int32(Recording))
	s.log.Info().Str("path", path).Msg("Recording")
	return path, nil
}

func (s *Session) start(opts StartOptions) (string, error) {
	tap, err := s.taps.CreateTap(opts.ExcludeProcesses)
	if err != nil {
		return "", err
	}
	s.tap = &tap
	s.log.Debug().Uint32("tap", uint32(tap.ID)).Str("uuid", tap.UUID).Msg("Created process tap")

	if f, err := s.taps.TapStreamFormat(tap); err != nil {
		s.log.Warn().Err(err).Msg("Tap format unavailable")
	} else {
		s.log.Debug().Stringer("format", f).Msg("Tap format")
	}

	outID, err := s.discovery.DefaultOutputDevice()
	if err != nil {
		return "", err
	}
	output, err := s.discovery.Resolve(outID, coreaudio.ScopeOutput)
	if err != nil {
		return "", err
	}
	inID, err := s.discovery.DefaultInputDevice()
	if err != nil {
		return "", err
	}
	input, err := s.discovery.Resolve(inID, coreaudio.ScopeInput)
	if err != nil {
		return "", err
	}

	master := SelectMaster(output, input)
	s.log.Info().
		Str("output", output.UID).Float64("output_rate", output.SampleRate).
		Str("input", input.UID).Float64("input_rate", input.SampleRate).
		Str("master", master).
		Msg("Selected clock master")

	cfg := s.aggs.BuildConfig(output.UID, input.UID, tap.UUID, master)
	agg, err := s.aggs.Create(cfg)
	if err != nil {
		return "", err
	}
	s.aggregate = &agg
	s.log.Debug().Uint32("aggregate", uint32(agg.ID)).Str("uid", agg.UID).Msg("Created aggregate device")

	format, groups, err := s.negotiate(agg)
	if err != nil {
		return "", err
	}

	path := recording.Path(s.dir, s.now())
	sinkFormat := audio.Format{
		SampleRate:     format.SampleRate,
		Channels:       audio.OutputChannels,
		FormatID:       format.FormatID,
		FormatFlags:    audio.FlagIsFloat | audio.FlagIsPacked | audio.FlagNonInterleaved,
		BitsPerChannel: 32,
		BytesPerFrame:  4,
		Interleaved:    false,
	}
	sink, err := s.openSink(path, sinkFormat)
	if err != nil {
		return path, &Error{Kind: KindSinkOpen, Stage: "open sink", Err: err}
	}
	s.sink = sink

	ioc := newIOContext(len(groups), s.maxFrames, defaultErrBacklog)
	ioc.attach(sink)
	s.statsMu.Lock()
	s.io = ioc
	s.statsMu.Unlock()
	s.logDone = make(chan struct{})
	s.drained.Add(1)
	go s.logCallbackErrors(s.io.errs, s.logDone)

	procID, st := s.hal.CreateIOProc(agg.ID, s.io.process)
	if !st.OK() {
		return path, statusError(KindIOProc, "create io proc", st)
	}
	s.procID = procID
	s.procSet = true

	if st := s.hal.StartDevice(agg.ID, procID); !st.OK() {
		return path, statusError(KindIOProc, "start device", st)
	}
	s.running = true

	return path, nil
}

// negotiate reads the aggregate's input format and buffer layout and checks
// that every callback will produce exactly one frame per output channel
func (s *Session) negotiate(agg Aggregate) (audio.Format, []int, error) {
	format, err := s.discovery.StreamFormat(agg.ID, coreaudio.ScopeInput)
	if err != nil {
		return audio.Format{}, nil, asNegotiation(err, "aggregate input format")
	}
	if format.FormatID != audio.FormatLinearPCM || !format.IsFloat32() {
		return audio.Format{}, nil, &Error{Kind: KindFormatNegotiation, Stage: "aggregate input format", Err: errors.New("not 32-bit float linear PCM: " + format.String())}
	}

	groups, err := s.discovery.StreamConfiguration(agg.ID, coreaudio.ScopeInput)
	if err != nil {
		return audio.Format{}, nil, asNegotiation(err, "aggregate stream configuration")
	}
	if err := audio.ValidateLayout(groups); err != nil {
		return audio.Format{}, nil, &Error{Kind: KindFormatNegotiation, Stage: "aggregate stream configuration", Err: err}
	}

	s.log.Info().Stringer("format", format).Ints("buffers", groups).Msg("Negotiated aggregate input")
	return format, groups, nil
}

func asNegotiation(err error, stage string) error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: KindFormatNegotiation, Stage: stage, Status: e.Status}
	}
	return &Error{Kind: KindFormatNegotiation, Stage: stage, Err: err}
}

// Stop stops device I/O and releases every handle. All steps run even when
// earlier ones fail; the failures come back joined. The returned path is the
// finalized recording.
func (s *Session) Stop() (string, error) {
	if !s.state.CompareAndSwap(int32(Recording), int32(Stopping)) {
		return "", ErrNotRecording
	}

	path := ""
	if s.sink != nil {
		path = s.sink.Path()
	}

	err := s.teardown()
	s.statsMu.Lock()
	s.last = s.io.stats()
	s.statsMu.Unlock()
	s.log.Info().
		Str("path", path).
		Uint64("callbacks", s.last.Callbacks).
		Uint64("frames", s.last.Frames).
		Uint64("dropped", s.last.Dropped).
		Msg("Recording stopped")

	s.reset()
	s.state.Store(int32(Idle))
	return path, err
}

// teardown releases whatever exists in the fixed order stop I/O, destroy
// io proc, destroy aggregate, destroy tap, close sink. The sink is detached
// from the callback before anything is destroyed and closed last.
func (s *Session) teardown() error {
	var errs []error
	record := func(err error) {
		if err != nil {
			s.log.Error().Err(err).Msg("Teardown step failed")
			errs = append(errs, err)
		}
	}

	if s.running {
		if st := s.hal.StopDevice(s.aggregate.ID, s.procID); !st.OK() {
			record(statusError(KindTeardown, "stop device", st))
		}
		s.running = false
	}
	if s.procSet {
		if st := s.hal.DestroyIOProc(s.aggregate.ID, s.procID); !st.OK() {
			record(statusError(KindTeardown, "destroy io proc", st))
		}
		s.procSet = false
	}
	if s.io != nil {
		s.io.detach()
	}
	if s.aggregate != nil {
		record(s.aggs.Destroy(*s.aggregate))
		s.aggregate = nil
	}
	if s.tap != nil {
		record(s.taps.DestroyTap(*s.tap))
		s.tap = nil
	}
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			record(&Error{Kind: KindTeardown, Stage: "close sink", Err: err})
		}
	}
	if s.logDone != nil {
		close(s.logDone)
		s.drained.Wait()
		s.logDone = nil
	}

	return errors.Join(errs...)
}

func (s *Session) reset() {
	s.tap = nil
	s.aggregate = nil
	s.procID = 0
	s.procSet = false
	s.running = false
	s.sink = nil
	s.statsMu.Lock()
	s.io = nil
	s.statsMu.Unlock()
}

// logCallbackErrors logs callback failures off the realtime thread. errs is
// never closed since a callback may still be in flight if stopping the
// device failed.
func (s *Session) logCallbackErrors(errs <-chan error, done <-chan struct{}) {
	defer s.drained.Done()
	for {
		select {
		case err := <-errs:
			s.logDropped(err)
		case <-done:
			for {
				select {
				case err := <-errs:
					s.logDropped(err)
				default:
					return
				}
			}
		}
	}
}

func (s *Session) logDropped(err error) {
	s.log.Warn().Err(&Error{Kind: KindCallbackWrite, Stage: "io proc", Err: err}).Msg("Dropped buffer")
}
