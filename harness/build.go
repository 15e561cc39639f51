package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BuildConfig describes how to build the engine before a run.
type BuildConfig struct {
	Command []string
	Dir     string
	Env     []string

	// Output receives build stdout and stderr. Defaults to os.Stderr so
	// the build never mixes with report lines.
	Output io.Writer
}

// Build runs the engine build command once. Its duration is logged but
// never counted against any fixture.
func Build(ctx context.Context, logger *slog.Logger, cfg BuildConfig) error {
	if len(cfg.Command) == 0 {
		return &Error{Kind: ErrBuild, Err: errors.New("empty build command")}
	}

	logger.InfoContext(ctx, "building engine",
		slog.String("command", strings.Join(cfg.Command, " ")),
		slog.String("dir", cfg.Dir),
	)

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir

	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()

	if err := cmd.Run(); err != nil {
		return &Error{Kind: ErrBuild, Err: fmt.Errorf("%s: %w", strings.Join(cfg.Command, " "), err)}
	}

	logger.InfoContext(ctx, "engine built",
		slog.Duration("build_time", time.Since(start)),
	)

	return nil
}
