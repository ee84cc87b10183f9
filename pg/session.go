package pg

import (
	"context"
	"errors"
	"io"
	"strings"

	"sqlsweep/bench"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type session struct {
	conn *pgx.Conn
	tx   pgx.Tx
}

// QueryScalar sends sql as a single simple-protocol message, so it may hold
// several statements. The scalar comes from the last row-returning
// statement.
func (s *session) QueryScalar(ctx context.Context, sql string) (bench.Scalar, error) {
	results, err := s.conn.PgConn().Exec(ctx, sql).ReadAll()
	if err != nil {
		return bench.Scalar{}, err
	}
	return lastScalar(results), nil
}

func lastScalar(results []*pgconn.Result) bench.Scalar {
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		if len(r.FieldDescriptions) == 0 {
			continue
		}
		if len(r.Rows) == 0 || len(r.Rows[0]) == 0 || r.Rows[0][0] == nil {
			return bench.Scalar{}
		}
		return bench.Scalar{Value: string(r.Rows[0][0]), Valid: true}
	}
	return bench.Scalar{}
}

// BackendID is the server process ID reported at connection startup.
func (s *session) BackendID(context.Context) (int64, error) {
	return int64(s.conn.PgConn().PID()), nil
}

func (s *session) ServerVersion(ctx context.Context) (string, error) {
	var v string
	if err := s.conn.QueryRow(ctx, "SELECT version()").Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

// BulkLoad streams r through COPY ... FROM STDIN in the default text format.
func (s *session) BulkLoad(ctx context.Context, table string, r io.Reader) (int64, error) {
	sql := "COPY " + QuoteTable(table) + " FROM STDIN"
	tag, err := s.conn.PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return errors.New("transaction already open")
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Commit commits the open transaction; without one it does nothing.
func (s *session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit(ctx)
}

// Close drops the connection. An uncommitted transaction is rolled back by
// the server.
func (s *session) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// QuoteTable quotes a possibly schema-qualified table name.
func QuoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}
