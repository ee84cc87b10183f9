package bench

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Phase names, in execution order.
const (
	PhasePrepare = "prepare"
	PhaseData    = "data"
	PhaseSweep   = "benchmark"
	PhaseCleanup = "cleanup"
)

// Layout lists the ordered artifacts of a test suite. A missing directory
// yields an empty list.
type Layout interface {
	Prepare() ([]string, error)
	Data() ([]string, error)
	Cleanup() ([]string, error)
}

// PhaseError tags an error with the phase that produced it.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string { return e.Phase + ": " + e.Err.Error() }
func (e *PhaseError) Unwrap() error { return e.Err }

// Sequencer runs prepare, data, the benchmark sweep and cleanup in order.
type Sequencer struct {
	Suite       string
	Layout      Layout
	Driver      Driver
	Runner      *Runner
	Levels      []int
	SkipCleanup bool
	Log         logrus.FieldLogger
}

// Run executes every phase. Any error stops the run; the database may be
// left partially prepared.
func (q *Sequencer) Run(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{
		Suite:     q.Suite,
		Driver:    q.Driver.Name(),
		Count:     q.Runner.Count,
		StartedAt: time.Now(),
	}

	version, err := q.prepare(ctx)
	if err != nil {
		return report, &PhaseError{Phase: PhasePrepare, Err: err}
	}
	report.ServerVersion = version

	if err := q.data(ctx); err != nil {
		return report, &PhaseError{Phase: PhaseData, Err: err}
	}

	levels, err := q.Runner.Sweep(ctx, q.Levels)
	report.Levels = levels
	if err != nil {
		return report, &PhaseError{Phase: PhaseSweep, Err: err}
	}

	if q.SkipCleanup {
		q.Log.WithField("phase", PhaseCleanup).Info("Skipping cleanup")
	} else if err := q.cleanup(ctx); err != nil {
		return report, &PhaseError{Phase: PhaseCleanup, Err: err}
	}

	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

func (q *Sequencer) prepare(ctx context.Context) (string, error) {
	log := q.Log.WithField("phase", PhasePrepare)
	log.Info("Preparing database")

	version, err := ServerVersion(ctx, log, q.Driver)
	if err != nil {
		return "", err
	}
	log.Infof("Database version: %s", version)

	scripts, err := q.Layout.Prepare()
	if err != nil {
		return version, err
	}
	return version, ExecScripts(ctx, log, q.Driver, scripts)
}

func (q *Sequencer) data(ctx context.Context) error {
	files, err := q.Layout.Data()
	if err != nil {
		return err
	}
	return LoadFixtures(ctx, q.Log.WithField("phase", PhaseData), q.Driver, files)
}

func (q *Sequencer) cleanup(ctx context.Context) error {
	scripts, err := q.Layout.Cleanup()
	if err != nil {
		return err
	}
	return ExecScripts(ctx, q.Log.WithField("phase", PhaseCleanup), q.Driver, scripts)
}
