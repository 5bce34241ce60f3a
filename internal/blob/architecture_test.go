package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestInfraImportsAreWrapped ensures infra implementations are only reached
// through their facade: evidence stores through internal/blob and snapshot
// backends through internal/core.
func TestInfraImportsAreWrapped(t *testing.T) {
	rules := []struct {
		infra   string
		allowed string
	}{
		{infra: "awardbook/internal/infra/blob", allowed: "awardbook/internal/blob"},
		{infra: "awardbook/internal/infra/persistence", allowed: "awardbook/internal/core"},
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "awardbook/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		path := strings.TrimSuffix(pkg.PkgPath, ".test")
		for _, rule := range rules {
			if hasPrefix(path, rule.allowed) || hasPrefix(path, rule.infra) {
				continue
			}
			for importPath := range pkg.Imports {
				if hasPrefix(importPath, rule.infra) {
					seen[pkg.PkgPath+": "+importPath] = struct{}{}
				}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden infra import: %s", v)
		}
		t.Fatalf("found %d forbidden infra imports", len(violations))
	}
}

func hasPrefix(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
