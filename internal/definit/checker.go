package definit

import (
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/sir"
)

// conditionalDestroy pairs a release (by index into c.Releases, not by
// pointer) with the liveness vector computed for it at 4.4's time, to be
// resolved into per-element destroys once the bitmap exists (spec.md
// §4.5/§4.6). An index survives the later append-heavy rewriting phases;
// a *Release captured here would dangle the moment handleConditionalInitAssign
// grows c.Releases and its backing array gets reallocated.
type conditionalDestroy struct {
	releaseIdx int
	liveness   AvailabilitySet
}

// Checker is the LifetimeChecker driver (spec.md §2 C4): it owns one
// memory object's Uses/Releases for the duration of a single Run call and
// orchestrates classification (C6) and rewriting (C7/C8) over them.
//
// Per spec.md §5, a Checker is used from a single goroutine for one memory
// object; internal/pipeline is responsible for running distinct memory
// objects (even within the same function) on separate Checker instances.
type Checker struct {
	Memory   MemoryObject
	Uses     []Use
	Releases []Release
	Sink     diagnostics.Sink

	blocks      blockInfoMap
	nonLoadUses map[sir.Instr]int

	reachable map[*sir.BasicBlock]bool
	emittedAt map[string]bool

	hasConditionalInitAssignOrDestroys bool
	conditionalDestroys                []conditionalDestroy
	bitmapAddr                         sir.Value

	anyDiagnostic bool
}

// NewChecker builds a Checker for one memory object and its pre-collected
// uses and releases (spec.md §6 Input). The memory-defining block is always
// marked hasNonLoadUse so liveOut1/liveOutN's local scan runs for it even
// when no other non-load use lives there — the scan's own block-identity
// fallback is what actually resolves an untouched element to KindNo (memory
// is uninitialized at allocation).
func NewChecker(mem MemoryObject, uses []Use, releases []Release, sink diagnostics.Sink) *Checker {
	c := &Checker{
		Memory:      mem,
		Uses:        uses,
		Releases:    releases,
		Sink:        sink,
		blocks:      make(blockInfoMap),
		nonLoadUses: make(map[sir.Instr]int),
		emittedAt:   make(map[string]bool),
	}

	defInst := mem.DefiningInstruction()
	defBlock := c.blockOf(defInst)

	for ui, use := range uses {
		if use.Inst == nil {
			continue
		}

		// Loads and escapes are observations, not definitions: they never
		// contribute to liveness the way the rest of the non-load uses do.
		if use.Kind == UseLoad || use.Kind == UseEscape || use.Kind == UseIndirectIn {
			continue
		}

		c.nonLoadUses[use.Inst] = ui

		bi := c.blocks.get(mem.NumElements(), c.blockOf(use.Inst))
		bi.hasNonLoadUse = true
	}

	if defBlock != nil {
		// Force the local scan to run even if the def block turns out to
		// have no other non-load use in it at all (an immediate branch
		// right after the marker) — scanBackwardForDefiner/scanBlockExit's
		// own block-identity fallback resolves that case to No.
		bi := c.blocks.get(mem.NumElements(), defBlock)
		bi.hasNonLoadUse = true
	}

	return c
}

// Run executes the three responsibilities spec.md §1 lists in order:
// classify every use (emitting diagnostics and tagging stores), then — iff
// no diagnostic fired — rewrite releases and ambiguous stores. It reports
// whether the memory object is free of diagnostics (and therefore was
// rewritten).
func (c *Checker) Run() bool {
	c.doIt()

	if c.anyDiagnostic {
		return false
	}

	for i := range c.Releases {
		c.processRelease(i)
	}

	if c.anyDiagnostic {
		return false
	}

	if c.hasConditionalInitAssignOrDestroys {
		c.handleConditionalInitAssign()
	}

	if len(c.conditionalDestroys) > 0 {
		c.handleConditionalDestroys()
	}

	return true
}

// report emits d, attributed to inst, unless inst's block is unreachable
// from the entry or a diagnostic already fired at inst's location
// (spec.md §4.3.b/§7). Any successful report disables the rewriting phases
// for the rest of this memory object's Run.
func (c *Checker) report(inst sir.Instr, d diagnostics.Diagnostic) {
	if !c.shouldEmitError(inst) {
		return
	}

	c.anyDiagnostic = true
	c.Sink.Report(d)
}

// reportNote emits an informational diagnostic that does not gate
// rewriting and is not subject to the reachability filter — used for the
// per-element "not initialized" notes SPEC_FULL.md §4 adds alongside a
// stored_property_not_initialized error.
func (c *Checker) reportNote(d diagnostics.Diagnostic) {
	c.Sink.Report(d)
}
