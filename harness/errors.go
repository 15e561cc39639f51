package harness

import (
	"errors"
	"fmt"
)

var (
	ErrDiscovery      = errors.New("fixture discovery failed")
	ErrRuleLoad       = errors.New("rule definition unreadable")
	ErrBuild          = errors.New("engine build failed")
	ErrFixtureRead    = errors.New("fixture unreadable")
	ErrEngineLaunch   = errors.New("engine launch failed")
	ErrEngineExit     = errors.New("engine exited with failure")
	ErrReportEmission = errors.New("report emission failed")
)

// Error attaches a failure kind, and the fixture it concerns if any, to
// an underlying cause.
type Error struct {
	Kind  error
	Label string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Kind.Error()
	if e.Label != "" {
		msg = fmt.Sprintf("%s: %s", e.Label, msg)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// Fatal reports whether err must abort the whole run.
func Fatal(err error) bool {
	if err == nil {
		return false
	}

	return !errors.Is(err, ErrFixtureRead) && !errors.Is(err, ErrEngineExit)
}
