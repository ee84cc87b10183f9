package bench

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// ExecQuery runs sql on s and returns its first scalar, if any.
func ExecQuery(ctx context.Context, s Session, sql string) (Scalar, error) {
	v, err := s.QueryScalar(ctx, sql)
	if err != nil {
		return Scalar{}, QueryError("execute statement", err)
	}
	return v, nil
}

// ExecScript reads the file at path and executes it as one unit.
func ExecScript(ctx context.Context, log logrus.FieldLogger, s Session, path string) error {
	log.WithField("file", path).Infof("Executing script %s", path)

	body, err := os.ReadFile(path)
	if err != nil {
		return QueryError("read script "+path, err)
	}
	if _, err := ExecQuery(ctx, s, string(body)); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// ExecScripts runs every script in order on a fresh session and commits
// once at the end. The session is closed before returning.
func ExecScripts(ctx context.Context, log logrus.FieldLogger, drv Driver, scripts []string) error {
	if len(scripts) == 0 {
		return nil
	}

	s, err := drv.Open(ctx)
	if err != nil {
		return ConnectionError(drv.Name(), err)
	}
	defer closeSession(ctx, log, s)

	if err := s.Begin(ctx); err != nil {
		return QueryError("begin", err)
	}
	for _, path := range scripts {
		if err := ExecScript(ctx, log, s, path); err != nil {
			return err
		}
	}
	if err := s.Commit(ctx); err != nil {
		return QueryError("commit", err)
	}
	return nil
}

// ServerVersion opens a short-lived session and reads the server version.
func ServerVersion(ctx context.Context, log logrus.FieldLogger, drv Driver) (string, error) {
	s, err := drv.Open(ctx)
	if err != nil {
		return "", ConnectionError(drv.Name(), err)
	}
	defer closeSession(ctx, log, s)

	v, err := s.ServerVersion(ctx)
	if err != nil {
		return "", QueryError("read server version", err)
	}
	return v, nil
}

func closeSession(ctx context.Context, log logrus.FieldLogger, s Session) {
	if err := s.Close(ctx); err != nil {
		log.WithError(err).Warn("close session")
	}
}
