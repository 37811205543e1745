package arch

import (
	"io"
	"os"
	"time"
)

// Host is a Backend for images that run as an ordinary process: the debug
// stream goes to a writer, cycles are monotonic nanoseconds and Exit ends the
// process.
type Host struct {
	w     io.Writer
	start time.Time
	exit  func(int)
}

// NewHost returns a Host writing to w, or to stdout when w is nil.
func NewHost(w io.Writer) *Host {
	if w == nil {
		w = os.Stdout
	}
	return &Host{w: w, start: time.Now(), exit: os.Exit}
}

// Exit ends the process with status 0 for ExitSuccess and 1 otherwise.
func (h *Host) Exit(code ExitCode) {
	status := 1
	if code == ExitSuccess {
		status = 0
	}
	h.exit(status)
	Halt()
}

func (h *Host) ReadCycle() uint64 {
	return uint64(time.Since(h.start))
}

func (h *Host) DebugWrite(b []byte) {
	_, _ = h.w.Write(b)
}
