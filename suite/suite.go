// Package suite discovers the on-disk assets of a benchmark test suite:
//
//	<root>/<name>/prepare/   ordered DDL setup scripts
//	<root>/<name>/data/      one bulk-load file per table
//	<root>/<name>/cleanup/   ordered teardown scripts
//	<root>/<name>/test.sql   the workload template
package suite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sqlsweep/bench"
)

const (
	PrepareDir   = "prepare"
	DataDir      = "data"
	CleanupDir   = "cleanup"
	WorkloadFile = "test.sql"
)

// Suite is one test-suite directory.
type Suite struct {
	Name string
	Dir  string
}

// Open resolves a suite under root. The suite directory and its workload
// file must exist; the phase directories are optional.
func Open(root, name string) (*Suite, error) {
	if name == "" {
		return nil, bench.ConfigError(bench.CodeMissingArg, "test suite name is required")
	}

	dir := filepath.Join(root, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, bench.ConfigError(bench.CodeSuiteNotFound, "test suite %q not found in %s", name, root)
	}

	if _, err := os.Stat(filepath.Join(dir, WorkloadFile)); err != nil {
		return nil, bench.ConfigError(bench.CodeSuiteNotFound, "test suite %q has no %s", name, WorkloadFile)
	}

	return &Suite{Name: name, Dir: dir}, nil
}

func (s *Suite) Prepare() ([]string, error) { return SortedFiles(filepath.Join(s.Dir, PrepareDir)) }
func (s *Suite) Data() ([]string, error)    { return SortedFiles(filepath.Join(s.Dir, DataDir)) }
func (s *Suite) Cleanup() ([]string, error) { return SortedFiles(filepath.Join(s.Dir, CleanupDir)) }

// Workload reads the workload template.
func (s *Suite) Workload() (string, error) {
	body, err := os.ReadFile(filepath.Join(s.Dir, WorkloadFile))
	if err != nil {
		return "", fmt.Errorf("read workload: %w", err)
	}
	return string(body), nil
}

// SortedFiles lists the regular files in dir in lexicographic order.
// A missing directory is not an error and yields no files.
func SortedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, nil
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) && isNotDir(dir) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isNotDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
