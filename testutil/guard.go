// Package testutil holds test helpers that keep the domain packages free of
// storage and transport dependencies.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// storageModules are the driver and SDK module paths only the infra
// packages may reach.
var storageModules = []string{
	"database/sql",
	"github.com/jmoiron/sqlx",
	"github.com/jackc/pgx",
	"modernc.org/sqlite",
	"github.com/aws/aws-sdk-go-v2",
}

// StorageDriverImport matches database drivers, SQL helpers and cloud SDKs.
func StorageDriverImport(path string) bool {
	for _, m := range storageModules {
		if path == m || strings.HasPrefix(path, m+"/") {
			return true
		}
	}
	return false
}

// InfraImport matches the concrete storage implementations.
func InfraImport(path string) bool {
	return strings.Contains(path, "/internal/infra/") || strings.HasSuffix(path, "/internal/infra")
}

// AssertNoDirectImports parses the non-test Go files in dir and fails for
// every import matching forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(string) bool, reason string) {
	t.Helper()
	imports, err := fileImports(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	var bad []string
	for file, paths := range imports {
		for _, p := range paths {
			if forbidden(p) {
				bad = append(bad, p+" (in "+file+")")
			}
		}
	}
	report(t, "direct import", reason, bad)
}

// AssertNoTransitiveDependency fails when `go list -deps pattern` reports a
// package matching forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(string) bool, reason string) {
	t.Helper()
	out, err := goListDeps(pattern)
	if err != nil {
		t.Fatalf("go list -deps %s: %v\n%s", pattern, err, out)
	}
	var bad []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" && forbidden(line) {
			bad = append(bad, line)
		}
	}
	report(t, "transitive dependency", reason, bad)
}

var goListDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
}

func fileImports(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	out := make(map[string][]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			out[name] = append(out[name], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return out, nil
}

type fataler interface {
	Fatalf(format string, args ...any)
}

func report(t fataler, what, reason string, bad []string) {
	if len(bad) == 0 {
		return
	}
	sort.Strings(bad)
	t.Fatalf("forbidden %s (%s):\n%s", what, reason, strings.Join(bad, "\n"))
}
