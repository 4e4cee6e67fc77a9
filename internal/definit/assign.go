package definit

import "github.com/lumen-lang/lumen/internal/sir"

// lowerStore is the AssignLowering component (spec.md §2 C8, §4.8): given a
// use already promoted to Initialization or Assign by classifyStore, it
// materializes the final instruction sequence. A CopyAddr or StoreWeak only
// ever has its initialization flag flipped in place — the underlying
// operation already knows how to take ownership of an old value, so there
// is nothing to rewrite. A Store lowers to a plain store when the verdict
// is Init or the touched range is trivial; otherwise the ambiguous store
// becomes load-old/store-new/release-old, since storing over a live
// non-trivial value without first releasing it would leak.
func (c *Checker) lowerStore(ui int, verdict sir.StoreQualifier) {
	use := c.Uses[ui]

	switch inst := use.Inst.(type) {
	case *sir.Store:
		c.lowerAmbiguousStore(ui, inst, verdict)
	case *sir.CopyAddr:
		inst.IsInitOfDst = verdict == sir.StoreInit
	case *sir.StoreWeak:
		inst.IsInitialization = verdict == sir.StoreInit
	}
}

func (c *Checker) lowerAmbiguousStore(ui int, inst *sir.Store, verdict sir.StoreQualifier) {
	use := c.Uses[ui]

	if verdict == sir.StoreInit || c.rangeIsTrivial(use.FirstElement, use.NumElements) {
		inst.Qualifier = verdict

		return
	}

	block := c.blockOf(inst)
	loc := inst.Loc()

	before := sir.SetInsertionPointBefore(block, inst)
	oldVal := before.CreateLoad(inst.Addr, "old", loc)

	inst.Qualifier = sir.StoreAssign

	after := sir.SetInsertionPointAfter(block, inst)
	after.EmitReleaseValue(sir.Value{Kind: sir.ValRef, Ref: oldVal.Dst}, loc)

	// The instruction sequence changed shape, so the Use record describing
	// the original ambiguous store no longer applies as-is: tombstone it
	// and register fresh records for the load and the now-final store,
	// per spec.md §4.8, so any later walk over c.Uses sees them.
	c.Uses[ui].Inst = nil
	c.Uses = append(c.Uses,
		Use{Inst: oldVal, Kind: UseLoad, FirstElement: use.FirstElement, NumElements: use.NumElements},
		Use{Inst: inst, Kind: UseAssign, FirstElement: use.FirstElement, NumElements: use.NumElements},
	)

	c.nonLoadUses[inst] = len(c.Uses) - 1
}
