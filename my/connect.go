package my

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"sqlsweep/bench"

	"github.com/go-sql-driver/mysql"
)

const connectTimeout = 10 * time.Second

// Driver hands out dedicated MySQL connections. Idle connections are never
// retained, so every session is a fresh server thread.
type Driver struct {
	db *sql.DB
}

// New parses a go-sql-driver DSN, with or without a mysql:// prefix.
func New(dsn string) (*Driver, error) {
	cfg, err := mysql.ParseDSN(strings.TrimPrefix(dsn, "mysql://"))
	if err != nil {
		return nil, bench.WrapError(bench.KindConfig, bench.CodeInvalidDSN, "parse mysql DSN", err)
	}
	cfg.MultiStatements = true
	if cfg.Timeout == 0 {
		cfg.Timeout = connectTimeout
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, bench.WrapError(bench.KindConfig, bench.CodeInvalidDSN, "build mysql connector", err)
	}
	return NewFromDB(sql.OpenDB(connector)), nil
}

// NewFromDB wraps an already opened handle.
func NewFromDB(db *sql.DB) *Driver {
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Driver{db: db}
}

func (d *Driver) Name() string { return "mysql" }

// Open takes a dedicated connection from the handle and pings it.
func (d *Driver) Open(ctx context.Context) (bench.Session, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := d.db.Conn(dialCtx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(dialCtx); err != nil {
		conn.Close()
		return nil, err
	}
	return &session{conn: conn}, nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}
