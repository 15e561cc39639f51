// Package harness runs a rule-evaluation engine once per fixture and
// times each invocation.
package harness

import (
	"errors"
	"fmt"
	"time"
)

// ExitStatus is how an engine process terminated.
type ExitStatus struct {
	// Code is the process exit code, or -1 if it was killed by a signal.
	Code   int
	Signal string
}

// Success reports whether the engine exited cleanly.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == ""
}

func (s ExitStatus) String() string {
	switch {
	case s.Signal != "":
		return "signal " + s.Signal
	case s.Code != 0:
		return fmt.Sprintf("exit %d", s.Code)
	default:
		return "ok"
	}
}

// Record holds the bookkeeping for one fixture's timed run.
type Record struct {
	Label   string
	Start   time.Time
	End     time.Time
	Elapsed time.Duration
	Exit    ExitStatus

	// Err is set when the fixture could not be run or the engine failed.
	// It never holds a run-fatal error.
	Err error
}

// Ran reports whether the engine was actually invoked for this record.
func (r Record) Ran() bool {
	return !errors.Is(r.Err, ErrFixtureRead)
}

// Status is the short human-readable outcome of the run.
func (r Record) Status() string {
	if r.Err != nil && !r.Ran() {
		var he *Error
		if errors.As(r.Err, &he) && he.Err != nil {
			return "error: " + he.Err.Error()
		}

		return "error: " + r.Err.Error()
	}

	return r.Exit.String()
}

// Summary counts outcomes across a whole run.
type Summary struct {
	Fixtures       int
	EngineFailures int
	ReadFailures   int
}

func (s *Summary) add(rec Record) {
	s.Fixtures++

	switch {
	case !rec.Ran():
		s.ReadFailures++
	case rec.Err != nil:
		s.EngineFailures++
	}
}
