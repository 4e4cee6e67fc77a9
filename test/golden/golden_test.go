// Package golden_test runs the definite-initialization checker over the
// hand-built fixtures in internal/samplemodules and compares the resulting
// diagnostic kinds against the expected output recorded in each
// test/golden/testdata/*.txtar archive, one archive per end-to-end scenario.
package golden_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/lumen-lang/lumen/internal/definit"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/pipeline"
	"github.com/lumen-lang/lumen/internal/samplemodules"
	"github.com/lumen-lang/lumen/internal/sir"
)

type builder func() (*sir.Function, definit.MemoryObject)

var scenarios = map[string]builder{
	"simple_var":              samplemodules.SimpleVar,
	"overwrite_initialized":   samplemodules.OverwriteInitialized,
	"if_branch_init":          samplemodules.IfBranchInit,
	"conditional_init_assign": samplemodules.ConditionalInitAssign,
	"missing_super_init":      samplemodules.MissingSuperInit,
	"double_super_init":       samplemodules.DoubleSuperInit,
	"let_overwrite":           samplemodules.LetOverwrite,
	"unreachable_cycle":       samplemodules.UnreachableCycle,
	"trivial_overwrite":       samplemodules.TrivialOverwrite,
}

func TestGoldenScenarios(t *testing.T) {
	archives, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatalf("glob testdata: %v", err)
	}

	if len(archives) == 0 {
		t.Fatal("no golden archives found under testdata")
	}

	for _, path := range archives {
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")

		t.Run(name, func(t *testing.T) {
			build, ok := scenarios[name]
			if !ok {
				t.Fatalf("no sample module registered for archive %q", name)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %q: %v", path, err)
			}

			want := expectedKinds(t, txtar.Parse(data))

			fn, mem := build()
			mod := &sir.Module{Name: name, Functions: []*sir.Function{fn}}

			manager := diagnostics.NewManager()
			objects := []pipeline.Object{{Name: mod.Name, Memory: mem}}

			if _, err := pipeline.Run(context.Background(), objects, manager); err != nil {
				t.Fatalf("pipeline.Run: %v", err)
			}

			got := kindStrings(manager.Diagnostics())

			if !equalSlices(got, want) {
				t.Errorf("%s: diagnostics = %v, want %v", name, got, want)
			}
		})
	}
}

func expectedKinds(t *testing.T, arc *txtar.Archive) []string {
	t.Helper()

	for _, f := range arc.Files {
		if f.Name != "expected" {
			continue
		}

		var out []string
		for _, line := range strings.Split(strings.TrimSpace(string(f.Data)), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || line == "ok" {
				continue
			}

			out = append(out, line)
		}

		return out
	}

	t.Fatalf("archive has no \"expected\" file")

	return nil
}

func kindStrings(ds []diagnostics.Diagnostic) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Kind.String())
	}

	return out
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
