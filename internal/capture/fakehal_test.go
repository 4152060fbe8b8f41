package capture

import (
	"sync"

	"github.com/petems/tap-recorder/internal/audio"
	"github.com/petems/tap-recorder/internal/coreaudio"
)

const (
	fakeOutputID coreaudio.ObjectID = 40
	fakeInputID  coreaudio.ObjectID = 41
	fakeTapID    coreaudio.ObjectID = 90
	fakeAggID    coreaudio.ObjectID = 91
)

func float32Format(rate float64, channels int) audio.Format {
	return audio.Format{
		SampleRate:     rate,
		Channels:       channels,
		FormatID:       audio.FormatLinearPCM,
		FormatFlags:    audio.FlagIsFloat | audio.FlagIsPacked | audio.FlagNonInterleaved,
		BitsPerChannel: 32,
		BytesPerFrame:  4,
	}
}

// fakeHAL is an in-memory audio hardware layer. It records every call and
// fails the operations named in fail.
type fakeHAL struct {
	mu sync.Mutex

	outputRate float64
	inputRate  float64
	outputUID  string
	inputUID   string
	aggFormat  audio.Format
	aggLayout  []int

	fail map[string]coreaudio.Status

	calls      []string
	tapDescs   []coreaudio.TapDescription
	aggDescs   []map[string]any
	liveTaps   int
	liveAggs   int
	liveProcs  int
	proc       coreaudio.IOProc
	running    bool
	nextProcID coreaudio.IOProcID
}

func newFakeHAL() *fakeHAL {
	return &fakeHAL{
		outputRate: 48000,
		inputRate:  48000,
		outputUID:  "BuiltInSpeakerDevice",
		inputUID:   "BuiltInMicrophoneDevice",
		aggFormat:  float32Format(48000, 3),
		aggLayout:  []int{1, 2},
		fail:       map[string]coreaudio.Status{},
		nextProcID: 1,
	}
}

func (f *fakeHAL) record(call string) coreaudio.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail[call]
}

func (f *fakeHAL) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeHAL) count(call string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeHAL) live() (taps, aggs, procs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveTaps, f.liveAggs, f.liveProcs
}

// cycle delivers one hardware cycle to the registered io proc, the same way
// the platform callback thread would
func (f *fakeHAL) cycle(in []audio.Buffer) bool {
	f.mu.Lock()
	proc, running := f.proc, f.running
	f.mu.Unlock()
	if proc == nil || !running {
		return false
	}
	proc(in)
	return true
}

func (f *fakeHAL) ObjectProperty(obj coreaudio.ObjectID, addr coreaudio.PropertyAddress) (coreaudio.ObjectID, coreaudio.Status) {
	switch addr.Selector {
	case coreaudio.PropertyDefaultSystemOutputDevice:
		if st := f.record("default output"); !st.OK() {
			return coreaudio.UnknownObject, st
		}
		return fakeOutputID, coreaudio.StatusOK
	case coreaudio.PropertyDefaultInputDevice:
		if st := f.record("default input"); !st.OK() {
			return coreaudio.UnknownObject, st
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.inputUID == "" {
			return coreaudio.UnknownObject, coreaudio.StatusOK
		}
		return fakeInputID, coreaudio.StatusOK
	}
	return coreaudio.UnknownObject, coreaudio.StatusUnsupported
}

func (f *fakeHAL) uid(obj coreaudio.ObjectID) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch obj {
	case fakeOutputID:
		return f.outputUID, true
	case fakeInputID:
		return f.inputUID, true
	}
	return "", false
}

func (f *fakeHAL) PropertyDataSize(obj coreaudio.ObjectID, addr coreaudio.PropertyAddress) (uint32, coreaudio.Status) {
	if st := f.record("uid size"); !st.OK() {
		return 0, st
	}
	uid, ok := f.uid(obj)
	if !ok {
		return 0, coreaudio.StatusBadObject
	}
	return uint32(len(uid)), coreaudio.StatusOK
}

func (f *fakeHAL) StringProperty(obj coreaudio.ObjectID, addr coreaudio.PropertyAddress, size uint32) (string, coreaudio.Status) {
	if st := f.record("uid"); !st.OK() {
		return "", st
	}
	uid, ok := f.uid(obj)
	if !ok {
		return "", coreaudio.StatusBadObject
	}
	return uid, coreaudio.StatusOK
}

func (f *fakeHAL) Float64Property(obj coreaudio.ObjectID, addr coreaudio.PropertyAddress) (float64, coreaudio.Status) {
	if st := f.record("sample rate"); !st.OK() {
		return 0, st
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch obj {
	case fakeOutputID:
		return f.outputRate, coreaudio.StatusOK
	case fakeInputID:
		return f.inputRate, coreaudio.StatusOK
	}
	return 0, coreaudio.StatusBadObject
}

func (f *fakeHAL) StreamFormatProperty(obj coreaudio.ObjectID, addr coreaudio.PropertyAddress) (audio.Format, coreaudio.Status) {
	switch obj {
	case fakeTapID:
		if st := f.record("tap format"); !st.OK() {
			return audio.Format{}, st
		}
		return float32Format(48000, 2), coreaudio.StatusOK
	case fakeAggID:
		if st := f.record("aggregate format"); !st.OK() {
			return audio.Format{}, st
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.aggFormat, coreaudio.StatusOK
	}
	if st := f.record("device format"); !st.OK() {
		return audio.Format{}, st
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rate := f.outputRate
	if obj == fakeInputID {
		rate = f.inputRate
	}
	return float32Format(rate, 2), coreaudio.StatusOK
}

func (f *fakeHAL) StreamConfiguration(obj coreaudio.ObjectID, scope coreaudio.Scope) ([]int, coreaudio.Status) {
	if st := f.record("stream configuration"); !st.OK() {
		return nil, st
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.aggLayout...), coreaudio.StatusOK
}

func (f *fakeHAL) CreateProcessTap(desc coreaudio.TapDescription) (coreaudio.ObjectID, coreaudio.Status) {
	if st := f.record("create tap"); !st.OK() {
		return coreaudio.UnknownObject, st
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tapDescs = append(f.tapDescs, desc)
	f.liveTaps++
	return fakeTapID, coreaudio.StatusOK
}

func (f *fakeHAL) DestroyProcessTap(tap coreaudio.ObjectID) coreaudio.Status {
	st := f.record("destroy tap")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveTaps--
	return st
}

func (f *fakeHAL) CreateAggregateDevice(desc map[string]any) (coreaudio.ObjectID, coreaudio.Status) {
	if st := f.record("create aggregate"); !st.OK() {
		return coreaudio.UnknownObject, st
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggDescs = append(f.aggDescs, desc)
	f.liveAggs++
	return fakeAggID, coreaudio.StatusOK
}

func (f *fakeHAL) DestroyAggregateDevice(dev coreaudio.ObjectID) coreaudio.Status {
	st := f.record("destroy aggregate")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveAggs--
	return st
}

func (f *fakeHAL) CreateIOProc(dev coreaudio.ObjectID, proc coreaudio.IOProc) (coreaudio.IOProcID, coreaudio.Status) {
	if st := f.record("create io proc"); !st.OK() {
		return 0, st
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proc = proc
	f.liveProcs++
	id := f.nextProcID
	f.nextProcID++
	return id, coreaudio.StatusOK
}

func (f *fakeHAL) DestroyIOProc(dev coreaudio.ObjectID, id coreaudio.IOProcID) coreaudio.Status {
	st := f.record("destroy io proc")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proc = nil
	f.liveProcs--
	return st
}

func (f *fakeHAL) StartDevice(dev coreaudio.ObjectID, id coreaudio.IOProcID) coreaudio.Status {
	if st := f.record("start device"); !st.OK() {
		return st
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	return coreaudio.StatusOK
}

func (f *fakeHAL) StopDevice(dev coreaudio.ObjectID, id coreaudio.IOProcID) coreaudio.Status {
	st := f.record("stop device")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return st
}
