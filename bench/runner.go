package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ResultSet collects the samples of one concurrency level. Workers append
// to it concurrently; the coordinator reads it only after every worker has
// returned.
type ResultSet struct {
	mu       sync.Mutex
	samples  []TimingSample
	failures []WorkerFailure
}

// WorkerFailure records why a worker produced no sample.
type WorkerFailure struct {
	Worker int
	Err    error
}

func NewResultSet(level int) *ResultSet {
	return &ResultSet{samples: make([]TimingSample, 0, level)}
}

func (r *ResultSet) Add(s TimingSample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func (r *ResultSet) Fail(worker int, err error) {
	r.mu.Lock()
	r.failures = append(r.failures, WorkerFailure{Worker: worker, Err: err})
	r.mu.Unlock()
}

func (r *ResultSet) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Samples returns a copy of the collected samples.
func (r *ResultSet) Samples() []TimingSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TimingSample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Failures returns the recorded failures ordered by worker index.
func (r *ResultSet) Failures() []WorkerFailure {
	r.mu.Lock()
	out := make([]WorkerFailure, len(r.failures))
	copy(out, r.failures)
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Worker < out[j].Worker })
	return out
}

// Runner drives the workload template at one or more concurrency levels.
type Runner struct {
	Driver   Driver
	Template string
	Count    int
	// Timeout bounds a whole level. Zero means a hung query blocks the
	// level forever.
	Timeout time.Duration
	Log     logrus.FieldLogger

	// afterJoin runs between the barrier and aggregation.
	afterJoin func(rs *ResultSet)
}

func NewRunner(drv Driver, spec WorkloadSpec, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		Driver:   drv,
		Template: spec.Template,
		Count:    spec.Count,
		Log:      log,
	}
}

// Sweep runs each level in the given order, one after another. It stops
// at the first level that fails and returns the levels completed so far.
func (r *Runner) Sweep(ctx context.Context, levels []int) ([]LevelResult, error) {
	results := make([]LevelResult, 0, len(levels))
	for _, level := range levels {
		res, err := r.RunLevel(ctx, level)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// RunLevel starts level workers, each on its own session, waits for all of
// them and aggregates their per-call latencies into one mean. If any worker
// fails the level is aborted and no aggregate is produced.
func (r *Runner) RunLevel(ctx context.Context, level int) (LevelResult, error) {
	if r.Count <= 0 {
		return LevelResult{Level: level}, ErrZeroCount
	}
	if level <= 0 {
		return LevelResult{Level: level}, ErrNoSamples.WithDetails(map[string]any{"level": level})
	}

	query, err := RenderTemplate(r.Template, r.Count)
	if err != nil {
		return LevelResult{Level: level}, err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	log := r.Log.WithField("level", level)
	log.Infof("Running test in %d threads", level)

	rs := NewResultSet(level)
	start := time.Now()

	// Plain Group, not WithContext: a failing worker must not cancel its
	// siblings' measurements.
	var g errgroup.Group
	for i := 0; i < level; i++ {
		g.Go(func() error {
			if err := r.work(ctx, log, i, query, rs); err != nil {
				rs.Fail(i, err)
				return err
			}
			return nil
		})
	}
	_ = g.Wait()
	duration := time.Since(start)

	if r.afterJoin != nil {
		r.afterJoin(rs)
	}

	if failures := rs.Failures(); len(failures) > 0 {
		errs := make([]error, 0, len(failures))
		for _, f := range failures {
			errs = append(errs, fmt.Errorf("worker %d: %w", f.Worker, f.Err))
		}
		return LevelResult{Level: level}, fmt.Errorf("level %d aborted, %d of %d workers failed: %w",
			level, len(failures), level, errors.Join(errs...))
	}

	samples := rs.Samples()
	if len(samples) != level {
		return LevelResult{Level: level}, ErrSampleCount.WithDetails(map[string]any{
			"level":   level,
			"samples": len(samples),
		})
	}

	stats, err := ComputeStats(samples, duration)
	if err != nil {
		return LevelResult{Level: level}, err
	}

	log.WithField("duration", duration.Round(time.Millisecond)).
		Infof("Average result: %.3fms", stats.Mean)

	return LevelResult{Level: level, Samples: samples, Stats: stats}, nil
}

func (r *Runner) work(ctx context.Context, log logrus.FieldLogger, worker int, query string, rs *ResultSet) error {
	log = log.WithField("worker", worker)

	s, err := r.Driver.Open(ctx)
	if err != nil {
		return ConnectionError(r.Driver.Name(), err)
	}
	defer closeSession(context.WithoutCancel(ctx), log, s)

	id, err := s.BackendID(ctx)
	if err != nil {
		return QueryError("read backend id", err)
	}
	log = log.WithField("backend", id)
	log.Infof("Starting worker %d, %d function calls, backend %d", worker, r.Count, id)

	v, err := ExecQuery(ctx, s, query)
	if err != nil {
		return err
	}
	elapsed, err := v.Float()
	if err == nil && (elapsed <= 0 || math.IsNaN(elapsed) || math.IsInf(elapsed, 0)) {
		err = fmt.Errorf("got %q", v.Value)
	}
	if err != nil {
		return WrapError(KindQuery, CodeNoElapsed, "workload returned no elapsed time", err)
	}
	perCall, tps, err := PerCall(elapsed, r.Count)
	if err != nil {
		return err
	}

	log.Infof("RESULT: %.4f ms, %d TPS", perCall, int64(tps))

	rs.Add(TimingSample{
		Worker:    worker,
		SessionID: id,
		Elapsed:   elapsed,
		PerCallMs: perCall,
		TPS:       tps,
	})
	return nil
}
