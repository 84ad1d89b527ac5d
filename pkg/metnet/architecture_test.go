package metnet

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestPublicPackagesDoNotImportInternal enforces the layering rule that the
// exported model, operation and solver contracts stay free of dependencies
// on implementation packages, so external consumers can import them without
// dragging in storage or solver internals.
func TestPublicPackagesDoNotImportInternal(t *testing.T) {
	internalPrefix := "fluxcore/internal/"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "fluxcore/pkg/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if strings.HasPrefix(importPath, internalPrefix) {
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return
	}
	violations := make([]string, 0, len(seen))
	for v := range seen {
		violations = append(violations, v)
	}
	sort.Strings(violations)
	for _, v := range violations {
		t.Errorf("public package imports internal package: %s", v)
	}
}
