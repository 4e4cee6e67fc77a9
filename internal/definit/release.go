package definit

import (
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/sir"
)

// processRelease implements spec.md §4.4: a release only needs rewriting if
// the memory object isn't fully live at that point. Explicit deallocations
// of never-initialized storage (DeallocStack/Ref/Box) need no action at
// all — they free memory, not a value held in it.
func (c *Checker) processRelease(releaseIdx int) {
	r := &c.Releases[releaseIdx]

	switch r.Inst.(type) {
	case *sir.DeallocStack, *sir.DeallocBox, *sir.DeallocRef:
		return
	}

	n := c.Memory.NumElements()
	liveness := c.livenessAt(r.Inst, 0, n)

	if liveness.IsAll(KindYes) {
		return
	}

	// A failable initializer's self can't yet be torn down piecemeal: an
	// early return before every stored property is live is only supported
	// when nothing was initialized at all (handled below).
	if c.Memory.IsClassInitSelf() {
		c.report(r.Inst, diagnostics.Diagnostic{
			Kind:    diagnostics.KindObjectNotFullyInitializedBeforeFailure,
			Level:   diagnostics.KindObjectNotFullyInitializedBeforeFailure.Level(),
			Span:    r.Inst.Loc(),
			Message: "self is not fully initialized before this failure exit",
		})
	}

	if liveness.IsAll(KindNo) {
		c.eliminateRelease(r)

		return
	}

	if liveness.HasAny(KindPartial) {
		c.hasConditionalInitAssignOrDestroys = true
	}

	c.conditionalDestroys = append(c.conditionalDestroys, conditionalDestroy{releaseIdx: releaseIdx, liveness: liveness})
}

// eliminateRelease drops a release of memory that turned out to be
// entirely uninitialized at this point. For a class's self, freeing the
// instance's storage still has to happen, so the release is replaced with
// a dealloc_ref rather than just erased; a plain local's destroy_addr is
// simply dead code. Boxed self storage (dealloc_box) isn't representable
// in this IR — there is no AllocBox instruction to mark a memory object as
// boxed in the first place — so that sub-case from the original algorithm
// doesn't apply here.
func (c *Checker) eliminateRelease(r *Release) {
	block := c.blockOf(r.Inst)
	original := r.Inst

	if c.Memory.IsClassInitSelf() {
		b := sir.SetInsertionPointBefore(block, original)
		dealloc := b.CreateDeallocRef(c.releasedPointer(original), original.Loc())

		removeFromBlock(block, original)
		r.Inst = dealloc

		return
	}

	removeFromBlock(block, original)
	r.Inst = nil
}

// releasedPointer returns the value a release instruction decrements the
// refcount of.
func (c *Checker) releasedPointer(inst sir.Instr) sir.Value {
	switch i := inst.(type) {
	case *sir.ReleaseValue:
		return i.Val
	case *sir.DestroyAddr:
		return i.Addr
	default:
		return sir.Undef
	}
}

// removeFromBlock deletes inst from block.
func removeFromBlock(block *sir.BasicBlock, inst sir.Instr) {
	idx := block.IndexOf(inst)
	if idx < 0 {
		return
	}

	block.Instrs = append(block.Instrs[:idx], block.Instrs[idx+1:]...)
}
