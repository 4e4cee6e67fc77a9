// Package pipeline is the pass-manager harness that runs the
// definite-initialization core (internal/definit) over every memory object
// in a module. It owns the part of spec.md §5's concurrency model the core
// itself stays silent on: which memory objects run on which goroutine, and
// how their diagnostics get merged back into one deterministic report.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lumen-lang/lumen/internal/definit"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/sir"
)

// Object is one memory object to check, bundled with the Checker
// identity the report uses to attribute its diagnostics.
type Object struct {
	Name   string // for reporting and deterministic ordering, e.g. "fn.x"
	Memory definit.MemoryObject
}

// Result is the outcome of checking one Object.
type Result struct {
	Name string
	OK   bool
}

// syncSink adapts a diagnostics.Manager for concurrent use: Checker.Run
// assumes it owns its Sink for the duration of one call (spec.md §5 — "a
// Checker is used from a single goroutine"), but many Checkers share one
// Manager here, so every Report needs to be serialized.
type syncSink struct {
	mu  sync.Mutex
	dst *diagnostics.Manager
}

func (s *syncSink) Report(d diagnostics.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dst.Report(d)
}

// Run checks every object concurrently, bounded by GOMAXPROCS (mirroring
// Orizon's packagemanager resolver, which caps fan-out the same way for
// I/O-bound work — here the bound exists because block-info maps and
// liveness caches are sized per memory object and the only shared state is
// the diagnostics sink and each function's IR). Independent memory objects
// never share a Checker (spec.md §5's Concurrency model), including
// distinct objects within the same function; since a Checker rewrites its
// function's IR in place, Objects from the same Function are run one at a
// time under a per-function lock, while different functions run in
// parallel.
//
// It returns once every object has been checked or ctx is canceled,
// whichever comes first; a single object's internal panic (an invariant
// violation the checker itself raised) is not recovered here and
// propagates as this goroutine's failure via errgroup, matching Go's
// default "a programming error should crash loudly" stance.
func Run(ctx context.Context, objects []Object, manager *diagnostics.Manager) ([]Result, error) {
	sink := &syncSink{dst: manager}

	g, gctx := errgroup.WithContext(ctx)

	limit := runtime.GOMAXPROCS(0)
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	results := make([]Result, len(objects))

	fnLocks := make(map[*sir.Function]*sync.Mutex)
	for _, obj := range objects {
		fn := obj.Memory.FunctionEntry().Func
		if fnLocks[fn] == nil {
			fnLocks[fn] = &sync.Mutex{}
		}
	}

	for i, obj := range objects {
		i, obj := i, obj

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			lock := fnLocks[obj.Memory.FunctionEntry().Func]
			lock.Lock()
			defer lock.Unlock()

			uses, releases := definit.Collect(obj.Memory)
			checker := definit.NewChecker(obj.Memory, uses, releases, sink)
			ok := checker.Run()

			results[i] = Result{Name: obj.Name, OK: ok}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	manager.SortByLocation()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	return results, nil
}
