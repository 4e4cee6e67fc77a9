package definit

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/sir"
)

// doIt is the UseClassifier driver (spec.md §2 C6, §4.3): one forward pass
// over Uses, dispatching on kind. The slice can grow while this runs (an
// InitOrAssign use deferred to the conditional rewriter stays in place, but
// AssignLowering appends fresh records for instructions it inserts), so the
// loop re-reads len(c.Uses) on every iteration rather than capturing it
// up front. Every use is visited even after a diagnostic fires elsewhere,
// so a single Run can surface more than one finding; only the rewriting
// phases that follow doIt are gated on anyDiagnostic.
func (c *Checker) doIt() {
	for i := 0; i < len(c.Uses); i++ {
		use := c.Uses[i]
		if use.Inst == nil {
			continue
		}

		switch use.Kind {
		case UseInitialization, UseAssign:
			// Already final: nothing left to classify or rewrite.
		case UseInitOrAssign:
			c.classifyInitOrAssign(i)
		case UsePartialStore:
			c.classifyStore(i)
		case UseLoad, UseIndirectIn:
			c.classifyLoad(i)
		case UseInOut:
			c.classifyInOut(i)
		case UseEscape:
			c.classifyEscape(i)
		case UseSuperInit:
			c.classifySuperInit(i)
		case UseSelfInit:
			c.classifySelfInit(i)
		}
	}
}

// classifyInOut reports whether an inout-taken element is fully live, and
// separately rejects inout on any let element regardless of liveness: a let
// binding cannot be passed by reference even once initialized (spec.md
// §4.3).
func (c *Checker) classifyInOut(ui int) {
	use := c.Uses[ui]

	for i := use.FirstElement; i < use.FirstElement+use.NumElements; i++ {
		if c.Memory.IsElementLet(i) {
			c.report(use.Inst, diagnostics.Diagnostic{
				Kind:       diagnostics.KindImmutablePropertyPassedInout,
				Level:      diagnostics.KindImmutablePropertyPassedInout.Level(),
				Span:       use.Inst.Loc(),
				PathString: c.Memory.PathString(i),
				Message:    fmt.Sprintf("immutable value '%s' may not be passed inout", c.Memory.PathString(i)),
			})

			return
		}
	}

	liveness := c.livenessAt(use.Inst, use.FirstElement, use.NumElements)
	if !liveness.IsAll(KindYes) {
		c.report(use.Inst, diagnostics.Diagnostic{
			Kind:       diagnostics.KindVariableInoutBeforeInitialized,
			Level:      diagnostics.KindVariableInoutBeforeInitialized.Level(),
			Span:       use.Inst.Loc(),
			PathString: c.Memory.PathString(use.FirstElement),
			Message:    fmt.Sprintf("variable '%s' passed by reference before being initialized", c.Memory.PathString(use.FirstElement)),
		})
	}
}

// classifyEscape reports an element escaping (into a closure, a global, or
// by having its address taken) before it is fully initialized.
func (c *Checker) classifyEscape(ui int) {
	use := c.Uses[ui]

	liveness := c.livenessAt(use.Inst, use.FirstElement, use.NumElements)
	if liveness.IsAll(KindYes) {
		return
	}

	kind := diagnostics.KindVariableAddrTakenBeforeInitialized
	switch {
	case c.Memory.IsAnyInitSelf() && c.Memory.IsDelegatingInit():
		kind = diagnostics.KindSelfUseBeforeInitInDelegatingInit
	case c.Memory.IsAnyInitSelf():
		kind = diagnostics.KindUseOfSelfBeforeFullyInit
	case c.Memory.PathString(use.FirstElement) == "":
		kind = diagnostics.KindGlobalVariableFunctionUseUninit
	}

	c.report(use.Inst, diagnostics.Diagnostic{
		Kind:       kind,
		Level:      kind.Level(),
		Span:       use.Inst.Loc(),
		PathString: c.Memory.PathString(use.FirstElement),
		Message:    fmt.Sprintf("'%s' escapes before being initialized", c.Memory.PathString(use.FirstElement)),
	})
}

// classifyLoad reports a load (or indirect-in argument) of an element that
// is not fully live, picking the most specific of the self-initializer
// diagnostics when the memory object is an initializer's self (spec.md
// §4.3's handleLoadUseFailure, SUPPLEMENTED in SPEC_FULL.md).
func (c *Checker) classifyLoad(ui int) {
	use := c.Uses[ui]

	liveness := c.livenessAt(use.Inst, use.FirstElement, use.NumElements)
	if liveness.IsAll(KindYes) {
		return
	}

	d := c.loadFailureDiagnostic(use)
	if !c.shouldEmitError(use.Inst) {
		return
	}

	c.anyDiagnostic = true
	c.Sink.Report(d)

	if d.Kind == diagnostics.KindReturnFromInitWithoutInitingStoredProperties ||
		d.Kind == diagnostics.KindUseOfSelfBeforeFullyInit {
		c.noteUninitializedMembers(use, liveness)
	}
}

// noteUninitializedMembers emits one LevelNote diagnostic per uninitialized
// element in use's range, skipping the super-init marker slot (it is not a
// stored property, so it gets no "stored property" note) — the
// "noteUninitializedMembers" supplement from SPEC_FULL.md §4.
func (c *Checker) noteUninitializedMembers(use Use, liveness AvailabilitySet) {
	n := c.Memory.NumElements()

	for i := use.FirstElement; i < use.FirstElement+use.NumElements; i++ {
		if liveness.Get(i) == KindYes {
			continue
		}

		if i == n-1 && c.Memory.IsDerivedClassSelf() {
			continue
		}

		c.reportNote(diagnostics.Diagnostic{
			Kind:       diagnostics.KindStoredPropertyNotInitialized,
			Level:      diagnostics.LevelNote,
			Span:       use.Inst.Loc(),
			PathString: c.Memory.PathString(i),
			Message:    fmt.Sprintf("stored property '%s' not initialized", c.Memory.PathString(i)),
		})
	}
}

// loadFailureDiagnostic picks among the self-initializer and plain
// used-before-initialized diagnostics. The full self.init/super.init call
// graph isn't visible through the narrow Use record this pass consumes, so
// the self-flavor cases are distinguished by MemoryObject classification
// and by whether the load feeds directly into the block's Return, not by
// inspecting what method is being called on self; see DESIGN.md.
func (c *Checker) loadFailureDiagnostic(use Use) diagnostics.Diagnostic {
	mem := c.Memory
	loc := use.Inst.Loc()
	path := mem.PathString(use.FirstElement)

	isReturn := c.feedsReturn(use.Inst)

	kind := diagnostics.KindVariableUsedBeforeInitialized
	message := fmt.Sprintf("variable '%s' used before being initialized", path)

	switch {
	case mem.IsAnyInitSelf() && isReturn && mem.IsDelegatingInit():
		kind = diagnostics.KindReturnFromInitWithoutSelfInit
		message = "self.init isn't called on all paths in delegating initializer"
	case mem.IsAnyInitSelf() && isReturn && mem.IsDerivedClassSelf():
		kind = diagnostics.KindSuperSelfInitNotCalledBeforeReturn
		message = "super.init isn't called on all paths before returning"
	case mem.IsAnyInitSelf() && isReturn:
		kind = diagnostics.KindReturnFromInitWithoutInitingStoredProperties
		message = "return from initializer without initializing all stored properties"
	case mem.IsAnyInitSelf() && mem.IsDelegatingInit():
		kind = diagnostics.KindSelfUseBeforeInitInDelegatingInit
		message = "'self' used before self.init call"
	case mem.IsAnyInitSelf() && mem.IsDerivedClassSelf():
		kind = diagnostics.KindSelfBeforeSuperSelfInit
		message = "'self' used before super.init call"
	case mem.IsAnyInitSelf():
		kind = diagnostics.KindUseOfSelfBeforeFullyInit
		message = "'self' used before all stored properties are initialized"
	}

	return diagnostics.Diagnostic{
		Kind:       kind,
		Level:      kind.Level(),
		Span:       loc,
		PathString: path,
		Message:    message,
	}
}

// feedsReturn reports whether inst's block terminates in a Return, used as
// a coarse proxy for "this load is (part of) an initializer's early exit".
func (c *Checker) feedsReturn(inst sir.Instr) bool {
	block := c.blockOf(inst)
	if block == nil {
		return false
	}

	_, ok := block.Terminator().(*sir.Return)

	return ok
}

// classifySuperInit validates a super.init (or implicit-super-init) call:
// it must be the first use of the dedicated super-init slot (the memory
// object's last element, spec.md §3's convention for derived-class self),
// and every other element must already be fully live.
func (c *Checker) classifySuperInit(ui int) {
	use := c.Uses[ui]
	n := c.Memory.NumElements()
	superSlot := n - 1

	slotLiveness := c.livenessAt(use.Inst, superSlot, 1)
	if slotLiveness.Get(superSlot) != KindNo {
		c.report(use.Inst, diagnostics.Diagnostic{
			Kind:    diagnostics.KindSelfInitMultipleTimes,
			Level:   diagnostics.KindSelfInitMultipleTimes.Level(),
			Span:    use.Inst.Loc(),
			Message: "super.init called multiple times",
		})

		return
	}

	if n > 1 {
		rest := c.livenessAt(use.Inst, 0, n-1)
		for i := 0; i < n-1; i++ {
			if rest.Get(i) != KindYes {
				c.report(use.Inst, diagnostics.Diagnostic{
					Kind:       diagnostics.KindIvarNotInitializedAtSuperInit,
					Level:      diagnostics.KindIvarNotInitializedAtSuperInit.Level(),
					Span:       use.Inst.Loc(),
					PathString: c.Memory.PathString(i),
					Message:    fmt.Sprintf("property '%s' not initialized at super.init call", c.Memory.PathString(i)),
				})

				return
			}
		}
	}
}

// classifySelfInit validates a delegating self.init call: the memory
// object must be a single element (self as a whole), not already
// initialized, and the call is retagged as the object's Initialization
// once validated.
func (c *Checker) classifySelfInit(ui int) {
	use := c.Uses[ui]

	liveness := c.livenessAt(use.Inst, 0, 1)
	if liveness.Get(0) != KindNo {
		c.report(use.Inst, diagnostics.Diagnostic{
			Kind:    diagnostics.KindSelfInitMultipleTimes,
			Level:   diagnostics.KindSelfInitMultipleTimes.Level(),
			Span:    use.Inst.Loc(),
			Message: "self.init called multiple times",
		})

		return
	}

	c.Uses[ui].Kind = UseInitialization
}

// classifyInitOrAssign implements the InitOrAssign dispatch bullet of
// spec.md §4.3: a store whose destination touches only trivial-type
// elements is unconditionally treated as an Initialization, a front-end
// workaround spec.md §9 says must be preserved rather than "corrected" (a
// trivial overwrite has no old value to release, so treating it as Assign
// would be equivalent work for no benefit). Anything else falls through to
// the same classification PartialStore uses.
func (c *Checker) classifyInitOrAssign(ui int) {
	use := c.Uses[ui]

	if store, ok := use.Inst.(*sir.Store); ok && c.rangeIsTrivial(use.FirstElement, use.NumElements) {
		store.Qualifier = sir.StoreInit
		c.Uses[ui].Kind = UseInitialization

		return
	}

	c.classifyStore(ui)
}

// classifyStore implements spec.md §4.3.a: derive fully_initialized and
// fully_uninitialized from the liveness of the touched range, reject a
// let-element overwrite, then promote InitOrAssign to Initialization or
// Assign (materializing the final instruction form via AssignLowering) or
// leave a genuinely mixed InitOrAssign for the conditional rewriter.
// PartialStore additionally requires fully_initialized: a store touching
// fewer than all elements can never be a from-scratch initialization.
func (c *Checker) classifyStore(ui int) {
	use := c.Uses[ui]
	liveness := c.livenessAt(use.Inst, use.FirstElement, use.NumElements)

	fullyInit, fullyUninit := true, true
	for i := use.FirstElement; i < use.FirstElement+use.NumElements; i++ {
		k := liveness.Get(i)
		if k != KindYes {
			fullyInit = false
		}
		if k != KindNo {
			fullyUninit = false
		}
	}

	if use.Kind == UsePartialStore && !fullyInit {
		c.report(use.Inst, diagnostics.Diagnostic{
			Kind:    diagnostics.KindStructNotFullyInitialized,
			Level:   diagnostics.KindStructNotFullyInitialized.Level(),
			Span:    use.Inst.Loc(),
			Message: "struct not fully initialized before partial store",
		})

		return
	}

	if !fullyUninit {
		for i := use.FirstElement; i < use.FirstElement+use.NumElements; i++ {
			if liveness.Get(i) != KindNo && c.Memory.IsElementLet(i) {
				c.report(use.Inst, diagnostics.Diagnostic{
					Kind:       diagnostics.KindImmutablePropertyAlreadyInitialized,
					Level:      diagnostics.KindImmutablePropertyAlreadyInitialized.Level(),
					Span:       use.Inst.Loc(),
					PathString: c.Memory.PathString(i),
					Message:    fmt.Sprintf("immutable value '%s' may only be initialized once", c.Memory.PathString(i)),
				})

				return
			}
		}
	}

	switch {
	case fullyUninit:
		c.Uses[ui].Kind = UseInitialization
		c.lowerStore(ui, sir.StoreInit)
	case fullyInit:
		c.Uses[ui].Kind = UseAssign
		c.lowerStore(ui, sir.StoreAssign)
	default:
		if !c.rangeIsTrivial(use.FirstElement, use.NumElements) {
			c.hasConditionalInitAssignOrDestroys = true
		}
		// Left as InitOrAssign: handleConditionalInitAssign resolves it
		// once the bitmap exists.
	}
}

// rangeIsTrivial reports whether every element in [first, first+num) has a
// trivial type, i.e. the store touching them needs no release of an old
// value regardless of init-or-assign verdict.
func (c *Checker) rangeIsTrivial(first, num int) bool {
	for i := first; i < first+num; i++ {
		if !c.Memory.ElementType(i).IsTrivial {
			return false
		}
	}

	return true
}
