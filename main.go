// Command sqlsweep prepares a database from a test suite, then benchmarks
// the suite's workload at each requested concurrency level.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"sqlsweep/bench"
	"sqlsweep/config"
	"sqlsweep/logger"
	"sqlsweep/my"
	"sqlsweep/pg"
	"sqlsweep/suite"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// closingDriver is a bench.Driver that holds process-wide resources.
type closingDriver interface {
	bench.Driver
	io.Closer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	log := logger.New("info", stdout)

	cmd := &cobra.Command{
		Use:   "sqlsweep --db <conn> --test <suite> [--threads 1,2,4] [--count N]",
		Short: "Concurrent load-testing harness for relational databases",
		Long: `sqlsweep runs a test suite against a database: it executes the suite's
prepare/ scripts, bulk-loads data/ fixtures, runs test.sql on N dedicated
sessions for each concurrency level in --threads, and finally runs cleanup/.
Each level reports the mean per-call latency across its workers.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return configFailure(log, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(cmd.Flags())
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return configFailure(log, err)
	})

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(viper.New(), cmd.Flags())
		if err != nil {
			logFailure(log, "config", err)
			return err
		}
		log.SetLevelName(cfg.LogLevel)
		if cfg.JSON {
			log.SetOutput(stderr)
		}

		if err := run(cmd.Context(), log, cfg, stdout); err != nil {
			phase := "setup"
			var pe *bench.PhaseError
			if errors.As(err, &pe) {
				phase = pe.Phase
			}
			logFailure(log, phase, err)
			return err
		}
		return nil
	}
	return cmd
}

func run(ctx context.Context, log *logger.Logger, cfg *config.Config, stdout io.Writer) error {
	s, err := suite.Open(cfg.TestsDir, cfg.Test)
	if err != nil {
		return err
	}
	tmpl, err := s.Workload()
	if err != nil {
		return bench.WrapError(bench.KindConfig, bench.CodeSuiteNotFound, "read workload template", err)
	}

	spec := bench.WorkloadSpec{Template: tmpl, Count: cfg.Count, Levels: cfg.Levels}
	if err := spec.Validate(); err != nil {
		return err
	}

	drv, err := openDriver(cfg)
	if err != nil {
		return err
	}
	defer drv.Close()

	entry := log.WithDriver(drv.Name())
	entry.WithFields(logrus.Fields{
		"suite":   s.Name,
		"count":   spec.Count,
		"threads": spec.Levels,
	}).Info("Starting benchmark")

	runner := bench.NewRunner(drv, spec, entry)
	runner.Timeout = cfg.LevelTimeout

	seq := &bench.Sequencer{
		Suite:       s.Name,
		Layout:      s,
		Driver:      drv,
		Runner:      runner,
		Levels:      spec.Levels,
		SkipCleanup: cfg.Keep,
		Log:         entry,
	}

	report, runErr := seq.Run(ctx)
	if len(report.Levels) > 0 {
		if cfg.JSON {
			if err := bench.WriteJSON(stdout, report); err != nil && runErr == nil {
				runErr = err
			}
		} else {
			bench.PrintSweep(stdout, report)
		}
	}
	return runErr
}

func openDriver(cfg *config.Config) (closingDriver, error) {
	switch cfg.Driver {
	case "mysql":
		return my.New(cfg.DB)
	default:
		return pg.New(cfg.DB)
	}
}

// configFailure reports a command-line error that cobra raises before RunE.
func configFailure(log *logger.Logger, err error) error {
	cerr := bench.WrapError(bench.KindConfig, bench.CodeInvalidFlag, "invalid command line", err)
	logFailure(log, "config", cerr)
	return cerr
}

func logFailure(log *logger.Logger, phase string, err error) {
	log.WithPhase(phase).
		WithField("kind", string(bench.KindOf(err))).
		WithError(err).
		Error("run failed")
}
