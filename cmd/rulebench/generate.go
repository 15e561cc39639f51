package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/weiihann/rulebench/config"
	"github.com/weiihann/rulebench/workload"
)

func newGenerateCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var (
		count       int
		exprs       int
		depth       int
		vars        []string
		seed        int64
		noConstFold bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a deterministic rule definition and fixture corpus",
		Long: `Write a load-rewrites rule definition and a set of simplify-expressions
fixtures with randomly generated arithmetic expressions. The same seed
always produces the same corpus.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, level, nil)
			if err != nil {
				return err
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			gen := workload.NewGenerator(workload.Config{
				Fixtures:        count,
				ExprsPerFixture: exprs,
				MaxDepth:        depth,
				Vars:            vars,
				Seed:            seed,
				ConstantFold:    !noConstFold,
			})

			summary, err := gen.WriteCorpus(afero.NewOsFs(), cfg.FixtureSource, cfg.RuleDefinitionPath)
			if err != nil {
				return fmt.Errorf("generate corpus: %w", err)
			}

			logger.InfoContext(cmd.Context(), "corpus generated",
				slog.String("fixtures_dir", cfg.FixtureSource),
				slog.String("rules", cfg.RuleDefinitionPath),
				slog.Int64("seed", seed),
				slog.Int("fixtures", summary.Fixtures),
				slog.Int("expressions", summary.Expressions),
				slog.Int("rewrites", summary.Rewrites),
			)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("fixtures", config.DefaultFixtureSource,
		"Directory to write fixture files to")
	flags.String("rules", config.DefaultRuleDefinitionPath,
		"Path to write the rule definition to")
	flags.IntVar(&count, "count", 10,
		"Number of fixtures to generate")
	flags.IntVar(&exprs, "exprs", 8,
		"Expressions per fixture")
	flags.IntVar(&depth, "depth", 5,
		"Maximum expression nesting depth")
	flags.StringSliceVar(&vars, "vars", workload.DefaultVars,
		"Free variables used in expressions")
	flags.Int64Var(&seed, "seed", 0,
		"Random seed (0 = use current time)")
	flags.BoolVar(&noConstFold, "no-constant-fold", false,
		"Ask the engine not to fold constants")

	return cmd
}
