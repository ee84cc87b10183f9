package pg

import (
	"context"
	"time"

	"sqlsweep/bench"

	"github.com/jackc/pgx/v5"
)

const connectTimeout = 10 * time.Second

// Driver opens dedicated PostgreSQL connections, one per session.
type Driver struct {
	config *pgx.ConnConfig
}

// New parses a PostgreSQL connection string (URL or key=value form).
// Scripts run over the simple query protocol so a file holding several
// statements executes as one unit.
func New(dsn string) (*Driver, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, bench.WrapError(bench.KindConfig, bench.CodeInvalidDSN, "parse postgres connection string", err)
	}
	config.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = connectTimeout
	}
	return &Driver{config: config}, nil
}

func (d *Driver) Name() string { return "postgres" }

// Open dials a new connection and pings it.
func (d *Driver) Open(ctx context.Context) (bench.Session, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := pgx.ConnectConfig(dialCtx, d.config)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(dialCtx); err != nil {
		conn.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return &session{conn: conn}, nil
}

// Close is a no-op; every session owns and closes its own connection.
func (d *Driver) Close() error { return nil }
