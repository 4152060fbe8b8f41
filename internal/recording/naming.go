package recording

import (
	"fmt"
	"path/filepath"
	"time"
)

// ReferenceDate is the epoch recordings are named against (2001-01-01 UTC)
var ReferenceDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Extension of every recording
const Extension = ".wav"

// Name returns the file name for a recording started at t: the whole
// seconds elapsed since ReferenceDate
func Name(t time.Time) string {
	return fmt.Sprintf("%d%s", int64(t.Sub(ReferenceDate)/time.Second), Extension)
}

// Path returns the recording path for t inside dir
func Path(dir string, t time.Time) string {
	return filepath.Join(dir, Name(t))
}
