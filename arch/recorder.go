package arch

import (
	"bytes"
	"strings"
)

// Recorder is an in-memory Backend. Unlike the hardware backends its Exit
// records the status and returns, which lets a whole run execute inside a
// unit test.
type Recorder struct {
	buf   bytes.Buffer
	cycle uint64
	step  uint64
	exits []ExitCode
}

// NewRecorder returns a Recorder whose cycle counter advances by step on
// every read.
func NewRecorder(step uint64) *Recorder {
	return &Recorder{step: step}
}

func (r *Recorder) Exit(code ExitCode) {
	r.exits = append(r.exits, code)
}

func (r *Recorder) ReadCycle() uint64 {
	r.cycle += r.step
	return r.cycle
}

func (r *Recorder) DebugWrite(b []byte) {
	r.buf.Write(b)
}

// Output returns everything written to the debug channel.
func (r *Recorder) Output() string {
	return r.buf.String()
}

// Lines returns the debug output split into lines, without the trailing
// empty line.
func (r *Recorder) Lines() []string {
	out := strings.TrimSuffix(r.buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Exits returns every status passed to Exit, in order.
func (r *Recorder) Exits() []ExitCode {
	return r.exits
}
