// Package main provides the CLI entry point for rulebench, a benchmark
// harness that times a rule-evaluation engine against a directory of
// input fixtures.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/rulebench/config"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	root := newRootCmd(logger, level)
	if err := root.Execute(); err != nil {
		logger.Error("rulebench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	root := &cobra.Command{
		Use:   "rulebench",
		Short: "Benchmark a rule-evaluation engine against input fixtures",
		Long: `Rulebench feeds a rule definition followed by each fixture file to a
rule-evaluation engine on its standard input, one fixture at a time, and
reports how long every engine run took.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "",
		"Path to a YAML config file")
	flags.String("log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(logger, level),
		newBuildCmd(logger, level),
		newGenerateCmd(logger, level),
		newConfigCmd(level),
	)

	return root
}

func newConfigCmd(level *slog.LevelVar) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, level, nil)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)

			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}

			return enc.Close()
		},
	}
}

// loadConfig resolves configuration for cmd, applies an engine argv given
// after "--", validates the result and sets the log level.
func loadConfig(
	cmd *cobra.Command,
	level *slog.LevelVar,
	engineArgs []string,
) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}

	if len(engineArgs) > 0 {
		cfg.Engine.Command = engineArgs
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}

	lvl, err := cfg.Level()
	if err != nil {
		return config.Config{}, err
	}

	level.Set(lvl)

	return cfg, nil
}
