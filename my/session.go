package my

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"sqlsweep/bench"

	"github.com/go-sql-driver/mysql"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type session struct {
	conn *sql.Conn
	tx   *sql.Tx
}

func (s *session) q() queryer {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// QueryScalar runs sql, which may hold several statements, and returns the
// first value of the last result set that has columns.
func (s *session) QueryScalar(ctx context.Context, query string) (bench.Scalar, error) {
	rows, err := s.q().QueryContext(ctx, query)
	if err != nil {
		return bench.Scalar{}, err
	}
	defer rows.Close()

	var out bench.Scalar
	for {
		cols, err := rows.Columns()
		if err != nil {
			return bench.Scalar{}, err
		}
		if len(cols) > 0 {
			out, err = firstValue(rows, len(cols))
			if err != nil {
				return bench.Scalar{}, err
			}
		}
		if !rows.NextResultSet() {
			break
		}
	}
	return out, rows.Err()
}

func firstValue(rows *sql.Rows, ncols int) (bench.Scalar, error) {
	if !rows.Next() {
		return bench.Scalar{}, rows.Err()
	}

	vals := make([]sql.NullString, ncols)
	dest := make([]any, ncols)
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return bench.Scalar{}, err
	}
	for rows.Next() {
	}
	return bench.Scalar{Value: vals[0].String, Valid: vals[0].Valid}, nil
}

func (s *session) BackendID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.q().QueryRowContext(ctx, "SELECT CONNECTION_ID()").Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *session) ServerVersion(ctx context.Context) (string, error) {
	var v string
	if err := s.q().QueryRowContext(ctx, "SELECT VERSION()").Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

var readerSeq atomic.Uint64

// BulkLoad streams r through LOAD DATA LOCAL INFILE using a registered
// reader handler. The default field and line terminators match the
// tab-separated fixture format.
func (s *session) BulkLoad(ctx context.Context, table string, r io.Reader) (int64, error) {
	name := fmt.Sprintf("sqlsweep-%d", readerSeq.Add(1))
	mysql.RegisterReaderHandler(name, func() io.Reader { return r })
	defer mysql.DeregisterReaderHandler(name)

	res, err := s.q().ExecContext(ctx, LoadDataStatement(name, table))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LoadDataStatement builds the LOAD DATA statement for a reader handler.
func LoadDataStatement(handler, table string) string {
	return "LOAD DATA LOCAL INFILE 'Reader::" + handler + "' INTO TABLE " + QuoteTable(table)
}

func (s *session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return errors.New("transaction already open")
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *session) Commit(context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

// Close returns the connection, which the driver then discards. An open
// transaction is rolled back first.
func (s *session) Close(context.Context) error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.conn.Close()
}

// QuoteTable quotes a possibly database-qualified table name with backticks.
func QuoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}
