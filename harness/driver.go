package harness

import (
	"context"
	"iter"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/weiihann/rulebench/fixture"
)

// Fixtures is the fixture source a Driver walks.
type Fixtures interface {
	All() (iter.Seq[fixture.Fixture], error)
	Read(f fixture.Fixture) ([]byte, error)
}

// Reporter emits one line per finished fixture, before the next one
// starts.
type Reporter interface {
	Report(rec Record) error
}

// DriverConfig wires a Driver together.
type DriverConfig struct {
	// FS holds the rule definition.
	FS        afero.Fs
	RulesPath string

	Fixtures Fixtures
	Launcher Launcher
	Reporter Reporter
	Logger   *slog.Logger

	// Build, when set, runs once after discovery and before the first
	// timed fixture.
	Build *BuildConfig
}

// Driver runs every fixture through the engine, one at a time.
type Driver struct {
	fs        afero.Fs
	rulesPath string
	fixtures  Fixtures
	invoker   *Invoker
	reporter  Reporter
	logger    *slog.Logger
	build     *BuildConfig
}

// NewDriver creates a Driver from cfg.
func NewDriver(cfg DriverConfig) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Driver{
		fs:        cfg.FS,
		rulesPath: cfg.RulesPath,
		fixtures:  cfg.Fixtures,
		invoker:   NewInvoker(cfg.Launcher, logger),
		reporter:  cfg.Reporter,
		logger:    logger,
		build:     cfg.Build,
	}
}

// Run executes the benchmark. It stops at the first fatal error; fixture
// read failures and engine failures are reported and counted instead.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	fixtures, err := d.fixtures.All()
	if err != nil {
		return summary, &Error{Kind: ErrDiscovery, Err: err}
	}

	rules, err := LoadRules(d.fs, d.rulesPath)
	if err != nil {
		return summary, err
	}

	if d.build != nil {
		if err := Build(ctx, d.logger, *d.build); err != nil {
			return summary, err
		}
	}

	d.logger.InfoContext(ctx, "starting run",
		slog.String("rules", d.rulesPath),
		slog.Int("rules_bytes", len(rules)),
	)

	for f := range fixtures {
		rec, err := d.runFixture(ctx, rules, f)
		if err != nil {
			return summary, err
		}

		if err := d.reporter.Report(rec); err != nil {
			return summary, &Error{Kind: ErrReportEmission, Label: f.Label, Err: err}
		}

		summary.add(rec)
	}

	d.logger.InfoContext(ctx, "run complete",
		slog.Int("fixtures", summary.Fixtures),
		slog.Int("engine_failures", summary.EngineFailures),
		slog.Int("read_failures", summary.ReadFailures),
	)

	return summary, nil
}

func (d *Driver) runFixture(
	ctx context.Context,
	rules []byte,
	f fixture.Fixture,
) (Record, error) {
	data, err := d.fixtures.Read(f)
	if err != nil {
		d.logger.WarnContext(ctx, "skipping unreadable fixture",
			slog.String("fixture", f.Label),
			slog.String("error", err.Error()),
		)

		return Record{
			Label: f.Label,
			Err:   &Error{Kind: ErrFixtureRead, Label: f.Label, Err: err},
		}, nil
	}

	return d.invoker.Invoke(ctx, f.Label, BuildInput(rules, data))
}
