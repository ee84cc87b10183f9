// Package config merges command-line flags, SQLSWEEP_* environment
// variables and an optional YAML file into one validated run configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"sqlsweep/bench"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag names.
const (
	FlagDB           = "db"
	FlagDriver       = "driver"
	FlagThreads      = "threads"
	FlagCount        = "count"
	FlagTest         = "test"
	FlagTestsDir     = "tests-dir"
	FlagLogLevel     = "log-level"
	FlagLevelTimeout = "level-timeout"
	FlagKeep         = "keep"
	FlagJSON         = "json"
	FlagConfig       = "config"
)

const EnvPrefix = "SQLSWEEP"

// Config holds the merged settings for one invocation.
type Config struct {
	DB           string
	Driver       string
	Levels       []int
	Count        int
	Test         string
	TestsDir     string
	LogLevel     string
	LevelTimeout time.Duration
	Keep         bool
	JSON         bool
}

// RegisterFlags declares every flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagDB, "", "Database connection string (required)")
	fs.String(FlagDriver, "", "Database driver: postgres, mysql (default: inferred from --db)")
	fs.String(FlagThreads, "1", "Comma-separated concurrency levels, run in order")
	fs.Int(FlagCount, 100000, "Calls per worker, substituted into the workload template")
	fs.String(FlagTest, "", "Test suite name under --tests-dir (required)")
	fs.String(FlagTestsDir, "./tests", "Directory holding test suites")
	fs.String(FlagLogLevel, "info", "Log level: debug, info, warn, error")
	fs.Duration(FlagLevelTimeout, 0, "Abort a concurrency level after this long (0 = never)")
	fs.Bool(FlagKeep, false, "Skip the cleanup phase")
	fs.Bool(FlagJSON, false, "Print the report as JSON instead of a table")
	fs.String(FlagConfig, "", "Optional YAML config file")
}

// Load merges fs with the environment and the optional config file, then
// validates the result. Flags set on the command line win over the
// environment, which wins over the file.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(FlagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, bench.WrapError(bench.KindConfig, bench.CodeConfigFile, "read config file "+path, err)
		}
	}

	cfg := &Config{
		DB:           v.GetString(FlagDB),
		Driver:       v.GetString(FlagDriver),
		Count:        v.GetInt(FlagCount),
		Test:         v.GetString(FlagTest),
		TestsDir:     v.GetString(FlagTestsDir),
		LogLevel:     v.GetString(FlagLogLevel),
		LevelTimeout: v.GetDuration(FlagLevelTimeout),
		Keep:         v.GetBool(FlagKeep),
		JSON:         v.GetBool(FlagJSON),
	}

	if err := validate(cfg, v.GetString(FlagThreads)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config, threads string) error {
	if cfg.DB == "" {
		return bench.ConfigError(bench.CodeMissingArg, "--%s is required", FlagDB)
	}
	if cfg.Test == "" {
		return bench.ConfigError(bench.CodeMissingArg, "--%s is required", FlagTest)
	}
	if cfg.Count <= 0 {
		return bench.ConfigError(bench.CodeInvalidCount, "--%s must be positive, got %d", FlagCount, cfg.Count)
	}
	if cfg.LevelTimeout < 0 {
		return bench.ConfigError(bench.CodeInvalidTimeout, "--%s must not be negative", FlagLevelTimeout)
	}

	levels, err := bench.ParseLevels(threads)
	if err != nil {
		return err
	}
	cfg.Levels = levels

	driver, err := ResolveDriver(cfg.Driver, cfg.DB)
	if err != nil {
		return err
	}
	cfg.Driver = driver
	return nil
}

// ResolveDriver normalizes an explicit driver name, or infers one from the
// connection string when name is empty.
func ResolveDriver(name, dsn string) (string, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "":
		if strings.HasPrefix(dsn, "mysql://") {
			return "mysql", nil
		}
		return "postgres", nil
	default:
		return "", bench.ConfigError(bench.CodeUnknownDriver, "unknown driver %q", name)
	}
}
