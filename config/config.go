// Package config holds the benchmark configuration and loads it from
// defaults, an optional YAML file, RULEBENCH_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "RULEBENCH"

	DefaultFixtureSource      = "tests"
	DefaultFixturePattern     = "*"
	DefaultRuleDefinitionPath = "rewrites.json"
	DefaultEngineDir          = "."
	DefaultFormat             = FormatText
	DefaultLogLevel           = "info"

	FormatText = "text"
	FormatJSON = "json"
)

// DefaultEngineCommand builds if needed and runs the engine in release
// mode; DefaultBuildCommand does the build alone so it can happen before
// any timing starts.
var (
	DefaultEngineCommand = []string{"cargo", "run", "--release", "--quiet"}
	DefaultBuildCommand  = []string{"cargo", "build", "--release"}
)

// Config is everything a benchmark run needs.
type Config struct {
	// FixtureSource is the directory of fixture files.
	FixtureSource string `mapstructure:"fixture_source" yaml:"fixture_source"`
	// FixturePattern selects fixture files by name (filepath.Match syntax).
	FixturePattern string `mapstructure:"fixture_pattern" yaml:"fixture_pattern"`
	// RuleDefinitionPath is prefixed onto every fixture's input.
	RuleDefinitionPath string `mapstructure:"rule_definition_path" yaml:"rule_definition_path"`

	Engine Engine `mapstructure:"engine" yaml:"engine"`

	// Format is the report format: text or json.
	Format   string `mapstructure:"format" yaml:"format"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Engine describes how to build and launch the engine under benchmark.
type Engine struct {
	Command       []string `mapstructure:"command" yaml:"command"`
	Build         []string `mapstructure:"build" yaml:"build"`
	Dir           string   `mapstructure:"dir" yaml:"dir"`
	Env           []string `mapstructure:"env" yaml:"env,omitempty"`
	SkipBuild     bool     `mapstructure:"skip_build" yaml:"skip_build"`
	DiscardStderr bool     `mapstructure:"discard_stderr" yaml:"discard_stderr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FixtureSource:      DefaultFixtureSource,
		FixturePattern:     DefaultFixturePattern,
		RuleDefinitionPath: DefaultRuleDefinitionPath,
		Engine: Engine{
			Command: append([]string(nil), DefaultEngineCommand...),
			Build:   append([]string(nil), DefaultBuildCommand...),
			Dir:     DefaultEngineDir,
		},
		Format:   DefaultFormat,
		LogLevel: DefaultLogLevel,
	}
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"fixture_source":        "fixtures",
	"fixture_pattern":       "pattern",
	"rule_definition_path":  "rules",
	"engine.dir":            "engine-dir",
	"engine.skip_build":     "skip-build",
	"engine.discard_stderr": "quiet-engine",
	"format":                "format",
	"log_level":             "log-level",
}

// Load resolves the configuration. path may be empty; flags may be nil.
// Only flags that were explicitly set override the other sources.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}

			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(stringToFieldsHook())); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("fixture_source", def.FixtureSource)
	v.SetDefault("fixture_pattern", def.FixturePattern)
	v.SetDefault("rule_definition_path", def.RuleDefinitionPath)
	v.SetDefault("engine.command", def.Engine.Command)
	v.SetDefault("engine.build", def.Engine.Build)
	v.SetDefault("engine.dir", def.Engine.Dir)
	v.SetDefault("engine.env", []string{})
	v.SetDefault("engine.skip_build", def.Engine.SkipBuild)
	v.SetDefault("engine.discard_stderr", def.Engine.DiscardStderr)
	v.SetDefault("format", def.Format)
	v.SetDefault("log_level", def.LogLevel)
}

// stringToFieldsHook lets a command given as one string (typically from
// the environment) decode into an argv slice.
func stringToFieldsHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}

		return strings.Fields(data.(string)), nil
	}
}

// Validate checks that the configuration can drive a run.
func (c Config) Validate() error {
	var errs []error

	if c.FixtureSource == "" {
		errs = append(errs, errors.New("fixture_source is required"))
	}

	if c.RuleDefinitionPath == "" {
		errs = append(errs, errors.New("rule_definition_path is required"))
	}

	if len(c.Engine.Command) == 0 {
		errs = append(errs, errors.New("engine.command is required"))
	}

	if !c.Engine.SkipBuild && len(c.Engine.Build) == 0 {
		errs = append(errs, errors.New("engine.build is required unless engine.skip_build is set"))
	}

	switch c.Format {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown format %q (want %s or %s)", c.Format, FormatText, FormatJSON))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}

	return level, nil
}
