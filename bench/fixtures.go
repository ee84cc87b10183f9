package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// TableName derives the target table from a fixture file name:
// data/orders.sql loads into "orders".
func TableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadFixtures bulk-loads each file into its table on one session,
// committing after every file. A failure stops at that file; files loaded
// before it stay committed.
func LoadFixtures(ctx context.Context, log logrus.FieldLogger, drv Driver, files []string) error {
	if len(files) == 0 {
		return nil
	}

	s, err := drv.Open(ctx)
	if err != nil {
		return ConnectionError(drv.Name(), err)
	}
	defer closeSession(ctx, log, s)

	for _, path := range files {
		if err := loadFile(ctx, log, s, path); err != nil {
			return err
		}
	}
	return nil
}

func loadFile(ctx context.Context, log logrus.FieldLogger, s Session, path string) error {
	table := TableName(path)
	log = log.WithFields(logrus.Fields{"file": path, "table": table})
	log.Infof("Loading data from file %s", path)

	f, err := os.Open(path)
	if err != nil {
		return LoadError(path, table, err)
	}
	defer f.Close()

	if err := s.Begin(ctx); err != nil {
		return LoadError(path, table, err)
	}
	rows, err := s.BulkLoad(ctx, table, f)
	if err != nil {
		return LoadError(path, table, err)
	}
	if err := s.Commit(ctx); err != nil {
		return LoadError(path, table, err)
	}

	log.Debugf("Loaded %s", plural(int(rows), "row"))
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
