package capture

import (
	"errors"
	"fmt"

	"github.com/petems/tap-recorder/internal/coreaudio"
)

// Kind classifies where in the pipeline a platform call failed
type Kind int

const (
	KindDeviceQuery Kind = iota + 1
	KindTapCreation
	KindAggregateCreation
	KindFormatNegotiation
	KindSinkOpen
	KindIOProc
	KindCallbackWrite
	KindTeardown
)

func (k Kind) String() string {
	switch k {
	case KindDeviceQuery:
		return "device query"
	case KindTapCreation:
		return "tap creation"
	case KindAggregateCreation:
		return "aggregate creation"
	case KindFormatNegotiation:
		return "format negotiation"
	case KindSinkOpen:
		return "sink open"
	case KindIOProc:
		return "io proc"
	case KindCallbackWrite:
		return "callback write"
	case KindTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// Error is a failed platform call: its kind, the stage that issued it and
// the raw status. Err optionally holds a non-platform cause.
type Error struct {
	Kind   Kind
	Stage  string
	Status coreaudio.Status
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed at %s", e.Kind, e.Stage)
	if e.Status != coreaudio.StatusOK {
		msg += fmt.Sprintf(" (status %s)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the Err* sentinels below work
// with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Stage == "" && t.Status == coreaudio.StatusOK && t.Err == nil
}

var (
	ErrDeviceQuery       = &Error{Kind: KindDeviceQuery}
	ErrTapCreation       = &Error{Kind: KindTapCreation}
	ErrAggregateCreation = &Error{Kind: KindAggregateCreation}
	ErrFormatNegotiation = &Error{Kind: KindFormatNegotiation}
	ErrSinkOpen          = &Error{Kind: KindSinkOpen}
	ErrIOProc            = &Error{Kind: KindIOProc}
	ErrCallbackWrite     = &Error{Kind: KindCallbackWrite}
	ErrTeardown          = &Error{Kind: KindTeardown}
	ErrNotIdle           = errors.New("capture already running")
	ErrNotRecording      = errors.New("capture not running")
)

func statusError(kind Kind, stage string, st coreaudio.Status) *Error {
	return &Error{Kind: kind, Stage: stage, Status: st}
}
