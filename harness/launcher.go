package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Launcher starts one engine process per call.
type Launcher interface {
	// Launch starts the engine with stdin wired to the given stream.
	Launch(ctx context.Context, stdin io.Reader) (Process, error)
}

// Process is a started engine.
type Process interface {
	// Wait blocks until the engine has consumed its input (or stopped
	// reading) and terminated. A non-nil error means the harness could
	// not observe the process, not that the engine failed.
	Wait() (ExitStatus, error)
}

// ExecLauncher runs the engine as an OS process with a fixed argv.
type ExecLauncher struct {
	Command []string
	Dir     string
	Env     []string

	// Stdout receives engine output. Nil discards it at the OS level.
	Stdout io.Writer
	// Stderr receives engine diagnostics. Nil discards them.
	Stderr io.Writer
}

// NewExecLauncher creates an ExecLauncher that discards engine output and
// passes engine stderr through to the harness's stderr. Env is appended
// to the inherited environment.
func NewExecLauncher(command []string, dir string, env []string) *ExecLauncher {
	return &ExecLauncher{
		Command: command,
		Dir:     dir,
		Env:     env,
		Stderr:  os.Stderr,
	}
}

// Launch implements Launcher.
func (l *ExecLauncher) Launch(ctx context.Context, stdin io.Reader) (Process, error) {
	if len(l.Command) == 0 {
		return nil, errors.New("empty engine command")
	}

	cmd := exec.CommandContext(ctx, l.Command[0], l.Command[1:]...)
	cmd.Dir = l.Dir

	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	cmd.Stdin = stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", strings.Join(l.Command, " "), err)
	}

	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

// Wait reaps the process. os/exec only returns from Wait after the stdin
// copy goroutine finishes, and it drops EPIPE from an engine that exited
// without reading everything.
func (p *execProcess) Wait() (ExitStatus, error) {
	err := p.cmd.Wait()
	if err == nil {
		return ExitStatus{}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ExitStatus{Code: -1}, fmt.Errorf("wait: %w", err)
	}

	return exitStatus(exitErr.ProcessState), nil
}

func exitStatus(ps *os.ProcessState) ExitStatus {
	code := ps.ExitCode()
	if code != -1 {
		return ExitStatus{Code: code}
	}

	sig := strings.TrimPrefix(ps.String(), "signal: ")

	return ExitStatus{Code: -1, Signal: sig}
}
