package bench

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"
)

// Driver opens independent sessions against one database.
type Driver interface {
	Name() string
	Open(ctx context.Context) (Session, error)
}

// Session is a single database connection. A session is owned by one
// goroutine at a time and is never shared between workers.
type Session interface {
	// QueryScalar executes sql as one unit and returns the first column of
	// the first row, if any row was produced.
	QueryScalar(ctx context.Context, sql string) (Scalar, error)
	BackendID(ctx context.Context) (int64, error)
	ServerVersion(ctx context.Context) (string, error)
	// BulkLoad streams tab-separated rows from r into table.
	BulkLoad(ctx context.Context, table string, r io.Reader) (int64, error)
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Close(ctx context.Context) error
}

// Scalar is the text form of a single result value. Valid is false when
// no row was produced or the value was NULL.
type Scalar struct {
	Value string
	Valid bool
}

// Float parses the scalar as a float64.
func (s Scalar) Float() (float64, error) {
	if !s.Valid {
		return 0, NewError(KindQuery, CodeNoElapsed, "no value returned")
	}
	return strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
}

// WorkloadSpec is the immutable description of one sweep.
type WorkloadSpec struct {
	Template string
	Count    int
	Levels   []int
}

// Validate checks the workload before any database contact.
func (w WorkloadSpec) Validate() error {
	if w.Count <= 0 {
		return ConfigError(CodeInvalidCount, "count must be positive, got %d", w.Count)
	}
	if len(w.Levels) == 0 {
		return ConfigError(CodeInvalidLevels, "at least one concurrency level is required")
	}
	for _, l := range w.Levels {
		if l <= 0 {
			return ConfigError(CodeInvalidLevels, "concurrency level must be positive, got %d", l)
		}
	}
	if _, err := RenderTemplate(w.Template, w.Count); err != nil {
		return err
	}
	return nil
}

// TimingSample is the result reported by one worker.
type TimingSample struct {
	Worker    int     `json:"worker"`
	SessionID int64   `json:"session_id"`
	Elapsed   float64 `json:"elapsed"`
	PerCallMs float64 `json:"per_call_ms"`
	TPS       float64 `json:"tps"`
}

type LevelStats struct {
	Workers  int           `json:"workers"`
	Mean     float64       `json:"mean_ms"`
	Min      float64       `json:"min_ms"`
	Max      float64       `json:"max_ms"`
	P50      float64       `json:"p50_ms"`
	P95      float64       `json:"p95_ms"`
	TPS      float64       `json:"tps"`
	Duration time.Duration `json:"duration_ns"`
}

type LevelResult struct {
	Level   int            `json:"level"`
	Samples []TimingSample `json:"samples"`
	Stats   LevelStats     `json:"stats"`
}

// SweepReport is everything one invocation measured.
type SweepReport struct {
	Suite         string        `json:"suite"`
	Driver        string        `json:"driver"`
	ServerVersion string        `json:"server_version"`
	Count         int           `json:"count"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	Levels        []LevelResult `json:"levels"`
}
