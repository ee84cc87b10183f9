//go:build integration

package pg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sqlsweep/bench"
	"sqlsweep/suite"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "bench",
			"POSTGRES_USER":     "bench",
			"POSTGRES_PASSWORD": "bench",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://bench:bench@%s:%s/bench?sslmode=disable", host, port.Port())
}

const createOrders = `
CREATE TABLE orders (id int PRIMARY KEY, total numeric NOT NULL);
CREATE FUNCTION bench_orders(n int) RETURNS float8 LANGUAGE plpgsql AS $$
DECLARE
  t0 timestamptz := clock_timestamp();
  s  numeric;
BEGIN
  FOR i IN 1..n LOOP
    SELECT total INTO s FROM orders WHERE id = 1 + (i % 3);
  END LOOP;
  RETURN extract(epoch FROM clock_timestamp() - t0);
END $$;
`

func writeSuite(t *testing.T) *suite.Suite {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"test.sql":                "SELECT bench_orders(%(count)s);",
		"prepare/001_create.sql":  createOrders,
		"prepare/002_analyze.sql": "ANALYZE orders;",
		"data/orders.sql":         "1\t10.5\n2\t20\n3\t30\n",
		"cleanup/001_drop.sql":    "DROP FUNCTION bench_orders(int); DROP TABLE orders;",
	}
	for name, body := range files {
		path := filepath.Join(root, "orders", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	s, err := suite.Open(root, "orders")
	require.NoError(t, err)
	return s
}

func TestSweepAgainstPostgres(t *testing.T) {
	dsn := startPostgres(t)
	s := writeSuite(t)

	drv, err := New(dsn)
	require.NoError(t, err)
	defer drv.Close()

	tmpl, err := s.Workload()
	require.NoError(t, err)
	spec := bench.WorkloadSpec{Template: tmpl, Count: 200, Levels: []int{1, 3}}
	require.NoError(t, spec.Validate())

	log, hook := test.NewNullLogger()
	seq := &bench.Sequencer{
		Suite:  s.Name,
		Layout: s,
		Driver: drv,
		Runner: bench.NewRunner(drv, spec, log),
		Levels: spec.Levels,
		Log:    log,
	}

	report, err := seq.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, report.ServerVersion, "PostgreSQL")
	require.Len(t, report.Levels, 2)
	for i, want := range spec.Levels {
		lvl := report.Levels[i]
		assert.Equal(t, want, lvl.Level)
		require.Len(t, lvl.Samples, want)
		assert.Positive(t, lvl.Stats.Mean)

		pids := make(map[int64]bool)
		for _, smp := range lvl.Samples {
			pids[smp.SessionID] = true
		}
		assert.Len(t, pids, want, "each worker runs on its own backend")
	}

	var loaded bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Loading data from file "+filepath.Join(s.Dir, "data", "orders.sql") {
			loaded = true
		}
	}
	assert.True(t, loaded)

	// Cleanup dropped the table, so a second prepare succeeds.
	_, err = seq.Run(context.Background())
	require.NoError(t, err)
}

func TestBulkLoadRowCount(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	drv, err := New(dsn)
	require.NoError(t, err)

	sess, err := drv.Open(ctx)
	require.NoError(t, err)
	defer sess.Close(ctx)

	_, err = sess.QueryScalar(ctx, "CREATE TABLE items (id int, name text)")
	require.NoError(t, err)

	require.NoError(t, sess.Begin(ctx))
	n, err := sess.BulkLoad(ctx, "items", strings.NewReader("1\ta\n2\tb\n"))
	require.NoError(t, err)
	require.NoError(t, sess.Commit(ctx))
	assert.Equal(t, int64(2), n)

	v, err := sess.QueryScalar(ctx, "SELECT 1; SELECT count(*) FROM items")
	require.NoError(t, err)
	assert.Equal(t, "2", v.Value)
}
