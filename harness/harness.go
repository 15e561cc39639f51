package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/afero"
)

// Invoker launches the engine for one fixture and times it.
type Invoker struct {
	Launcher Launcher
	Logger   *slog.Logger

	// Now is the clock used for timestamps. time.Now carries a monotonic
	// reading, so Elapsed is immune to wall clock steps.
	Now func() time.Time
}

// NewInvoker creates an Invoker backed by the real clock.
func NewInvoker(launcher Launcher, logger *slog.Logger) *Invoker {
	return &Invoker{
		Launcher: launcher,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Invoke runs the engine once with input on its stdin. The returned error
// is non-nil only when the engine could not be started, which is fatal to
// the run. An engine failure is recorded on the Record instead.
func (v *Invoker) Invoke(ctx context.Context, label string, input io.Reader) (Record, error) {
	now := v.Now
	if now == nil {
		now = time.Now
	}

	rec := Record{Label: label}

	rec.Start = now()

	proc, err := v.Launcher.Launch(ctx, input)
	if err != nil {
		return rec, &Error{Kind: ErrEngineLaunch, Label: label, Err: err}
	}

	exit, waitErr := proc.Wait()

	rec.End = now()
	rec.Elapsed = rec.End.Sub(rec.Start)
	rec.Exit = exit

	switch {
	case waitErr != nil:
		rec.Err = &Error{Kind: ErrEngineExit, Label: label, Err: waitErr}
	case !exit.Success():
		rec.Err = &Error{Kind: ErrEngineExit, Label: label, Err: fmt.Errorf("%s", exit)}
	}

	if v.Logger != nil {
		v.Logger.DebugContext(ctx, "engine finished",
			slog.String("fixture", label),
			slog.Duration("elapsed", rec.Elapsed),
			slog.Int("exit_code", exit.Code),
		)
	}

	return rec, nil
}

// BuildInput returns the exact stream the engine consumes: the rule bytes
// immediately followed by the fixture bytes.
func BuildInput(rules, fixture []byte) io.Reader {
	return io.MultiReader(bytes.NewReader(rules), bytes.NewReader(fixture))
}

// LoadRules reads the rule definition once for the whole run.
func LoadRules(fs afero.Fs, path string) ([]byte, error) {
	rules, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &Error{Kind: ErrRuleLoad, Err: fmt.Errorf("read %s: %w", path, err)}
	}

	return rules, nil
}
