package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/weiihann/rulebench/config"
	"github.com/weiihann/rulebench/fixture"
	"github.com/weiihann/rulebench/harness"
	"github.com/weiihann/rulebench/report"
)

func newRunCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] [-- engine-command...]",
		Short: "Run every fixture through the engine and report timings",
		Long: `Build the engine once, then for each fixture in lexicographic order
start the engine, write the rule definition followed by the fixture to its
standard input, discard its output and report the elapsed time.

An engine that exits with a failure status is reported and the run goes
on. A missing fixture source, an engine that cannot be started, or a
report line that cannot be written stops the run.

Arguments after "--" replace the configured engine command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			argv, err := engineArgs(cmd, args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, level, argv)
			if err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), logger, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addRunFlags(cmd)

	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("fixtures", config.DefaultFixtureSource,
		"Directory of fixture files")
	flags.String("pattern", config.DefaultFixturePattern,
		"Only run fixtures whose file name matches this glob")
	flags.String("rules", config.DefaultRuleDefinitionPath,
		"Rule definition file prefixed onto every fixture")
	flags.String("engine-dir", config.DefaultEngineDir,
		"Working directory for building and running the engine")
	flags.Bool("skip-build", false,
		"Skip the engine build step")
	flags.Bool("quiet-engine", false,
		"Discard engine stderr")
	flags.String("format", config.DefaultFormat,
		"Report format: text or json")
}

func engineArgs(cmd *cobra.Command, args []string) ([]string, error) {
	dash := cmd.ArgsLenAtDash()
	if dash == -1 {
		if len(args) > 0 {
			return nil, fmt.Errorf("unexpected arguments %q (put the engine command after --)", args)
		}

		return nil, nil
	}

	if dash > 0 {
		return nil, fmt.Errorf("unexpected arguments %q before --", args[:dash])
	}

	return args[dash:], nil
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	stdout, stderr io.Writer,
) error {
	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("fixtures", cfg.FixtureSource),
		slog.String("pattern", cfg.FixturePattern),
		slog.String("rules", cfg.RuleDefinitionPath),
		slog.Any("engine", cfg.Engine.Command),
	)

	fs := afero.NewOsFs()

	launcher := harness.NewExecLauncher(cfg.Engine.Command, cfg.Engine.Dir, cfg.Engine.Env)
	launcher.Stderr = stderr

	if cfg.Engine.DiscardStderr {
		launcher.Stderr = nil
	}

	var reporter harness.Reporter
	switch cfg.Format {
	case config.FormatJSON:
		reporter = report.NewJSON(stdout, runID)
	default:
		reporter = report.NewText(stdout)
	}

	var build *harness.BuildConfig
	if !cfg.Engine.SkipBuild {
		build = &harness.BuildConfig{
			Command: cfg.Engine.Build,
			Dir:     cfg.Engine.Dir,
			Env:     cfg.Engine.Env,
			Output:  stderr,
		}
	}

	driver := harness.NewDriver(harness.DriverConfig{
		FS:        fs,
		RulesPath: cfg.RuleDefinitionPath,
		Fixtures:  fixture.NewEnumerator(fs, cfg.FixtureSource, cfg.FixturePattern),
		Launcher:  launcher,
		Reporter:  reporter,
		Logger:    logger,
		Build:     build,
	})

	summary, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	if summary.ReadFailures > 0 {
		return fmt.Errorf("%d of %d fixtures could not be read",
			summary.ReadFailures, summary.Fixtures)
	}

	return nil
}

func newBuildCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the engine without running any fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, level, nil)
			if err != nil {
				return err
			}

			return harness.Build(cmd.Context(), logger, harness.BuildConfig{
				Command: cfg.Engine.Build,
				Dir:     cfg.Engine.Dir,
				Env:     cfg.Engine.Env,
				Output:  cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().String("engine-dir", config.DefaultEngineDir,
		"Working directory for the build")

	return cmd
}
