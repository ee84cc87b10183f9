package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// fakeDriver is an in-memory Driver that records what each session did.
type fakeDriver struct {
	mu      sync.Mutex
	nextID  int64
	open    int
	maxOpen int
	events  []string
	loaded  map[string]string

	openErr error
	// query answers every QueryScalar call; nil returns "1.0".
	query func(ctx context.Context, id int64, sql string) (Scalar, error)
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{loaded: make(map[string]string)}
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Open(context.Context) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.nextID++
	d.open++
	if d.open > d.maxOpen {
		d.maxOpen = d.open
	}
	return &fakeSession{d: d, id: d.nextID}, nil
}

func (d *fakeDriver) record(format string, args ...any) {
	d.mu.Lock()
	d.events = append(d.events, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

func (d *fakeDriver) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func (d *fakeDriver) openSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

type fakeSession struct {
	d      *fakeDriver
	id     int64
	inTx   bool
	closed bool
}

func (s *fakeSession) QueryScalar(ctx context.Context, sql string) (Scalar, error) {
	s.d.record("query %s", sql)
	if s.d.query != nil {
		return s.d.query(ctx, s.id, sql)
	}
	return Scalar{Value: "1.0", Valid: true}, nil
}

func (s *fakeSession) BackendID(context.Context) (int64, error) { return s.id, nil }

func (s *fakeSession) ServerVersion(context.Context) (string, error) {
	return "FakeSQL 1.0", nil
}

func (s *fakeSession) BulkLoad(_ context.Context, table string, r io.Reader) (int64, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.d.record("load %s", table)
	s.d.mu.Lock()
	s.d.loaded[table] = string(body)
	s.d.mu.Unlock()

	var n int64
	for _, c := range body {
		if c == '\n' {
			n++
		}
	}
	return n, nil
}

func (s *fakeSession) Begin(context.Context) error {
	if s.inTx {
		return errors.New("transaction already open")
	}
	s.inTx = true
	s.d.record("begin")
	return nil
}

func (s *fakeSession) Commit(context.Context) error {
	if s.inTx {
		s.inTx = false
		s.d.record("commit")
	}
	return nil
}

func (s *fakeSession) Close(context.Context) error {
	if s.closed {
		return errors.New("session closed twice")
	}
	s.closed = true
	s.d.mu.Lock()
	s.d.open--
	s.d.mu.Unlock()
	return nil
}
