package definit

import (
	"strconv"

	"github.com/lumen-lang/lumen/internal/position"
	"github.com/lumen-lang/lumen/internal/sir"
)

// handleConditionalInitAssign is the ConditionalRewriter component (spec.md
// §2 C7, §4.5): it materializes a per-object liveness bitmap as a fresh
// AllocStack in the function entry block (deallocated before every return),
// zeroed immediately after the memory-defining instruction. It then walks
// Uses once more: a plain Initialization ORs its element range's bits into
// the mask, and a surviving InitOrAssign gets a CFG diamond per touched
// element that conditionally destroys whatever was already live there,
// after which the store is unconditionally safe to treat as an
// Initialization — so it's retagged and revisited on the next loop
// iteration to pick up the mask update too.
func (c *Checker) handleConditionalInitAssign() {
	n := c.Memory.NumElements()
	loc := c.Memory.DefiningInstruction().Loc()
	entry := c.Memory.FunctionEntry()

	var entryBuilder *sir.Builder
	if len(entry.Instrs) > 0 {
		entryBuilder = sir.SetInsertionPointBefore(entry, entry.Instrs[0])
	} else {
		entryBuilder = sir.NewBuilder(entry)
	}

	bitmapType := &sir.Type{Name: "Int" + strconv.Itoa(n), IsTrivial: true}
	alloc := entryBuilder.CreateAllocStack(bitmapType, "definit.bits", loc)
	c.bitmapAddr = sir.Value{Kind: sir.ValRef, Ref: alloc.Dst}

	for _, retBlock := range c.Memory.FunctionReturns() {
		term := retBlock.Terminator()
		if term == nil {
			continue
		}

		sir.SetInsertionPointBefore(retBlock, term).CreateDeallocStack(c.bitmapAddr, loc)
	}

	defInst := c.Memory.DefiningInstruction()
	zb := sir.SetInsertionPointAfter(c.blockOf(defInst), defInst)
	zero := zb.CreateIntegerLiteral(0, n, loc)
	zb.CreateStore(c.bitmapAddr, sir.Value{Kind: sir.ValRef, Ref: zero.Dst}, sir.StoreInit, loc)

	for i := 0; i < len(c.Uses); i++ {
		use := c.Uses[i]
		if use.Inst == nil {
			continue
		}

		switch use.Kind {
		case UseInitialization:
			c.emitBitmapMarkLive(n, use, loc)
			continue
		case UseInitOrAssign:
			// Handled below.
		default:
			continue
		}

		if c.rangeIsTrivial(use.FirstElement, use.NumElements) {
			continue
		}

		store, ok := use.Inst.(*sir.Store)
		if !ok {
			// CopyAddr/StoreWeak InitOrAssign uses only ever had their flag
			// flipped in classify.go; there's no instruction here to gate
			// behind a diamond, so the bitmap simply never tracks them.
			continue
		}

		before := sir.SetInsertionPointBefore(c.blockOf(store), store)
		bitmapVal := before.CreateLoad(c.bitmapAddr, "definit.bits", loc)

		for elt := use.FirstElement; elt < use.FirstElement+use.NumElements; elt++ {
			block := c.blockOf(store)
			cond := c.extractBit(block, store, bitmapVal, elt, n, loc)
			trueBB, contBB := c.insertCFGDiamond(block, block.IndexOf(store), cond, loc)

			tb := sir.NewBuilder(trueBB)
			addr := c.Memory.EmitElementAddress(elt, loc, tb)
			destroy := tb.EmitDestroyAddr(addr, loc)
			c.Releases = append(c.Releases, Release{Inst: destroy})
			tb.CreateBranch(contBB, loc)
		}

		c.Uses[i].Kind = UseInitialization
		i--
	}
}

// handleConditionalDestroys is the second half of ConditionalRewriter
// (spec.md §4.6): every release recorded as conditionally live gets
// rewritten element by element — No is dropped, Yes becomes an
// unconditional destroy_addr, and Partial becomes a destroy_addr gated by
// the corresponding bitmap bit behind a CFG diamond. The original release
// is then erased; for a class's self it's replaced with a dealloc_ref,
// matching eliminateRelease's treatment of the all-No case.
func (c *Checker) handleConditionalDestroys() {
	n := c.Memory.NumElements()

	for _, cd := range c.conditionalDestroys {
		// c.Releases is captured once per element below via append, which can
		// reallocate its backing array; holding a *Release across those
		// appends would silently write the final tombstone into a detached
		// copy. inst is read-only and stable for the rest of this iteration
		// (nothing here mutates c.Releases[cd.releaseIdx] until the very
		// end), so every intermediate step works off it directly and only
		// the final tombstoning re-fetches the live pointer.
		inst := c.Releases[cd.releaseIdx].Inst
		if inst == nil {
			continue
		}

		loc := inst.Loc()
		var bitmapVal *sir.Load

		for elt := 0; elt < n; elt++ {
			switch cd.liveness.Get(elt) {
			case KindNo:
				continue
			case KindYes:
				block := c.blockOf(inst)
				b := sir.SetInsertionPointBefore(block, inst)
				addr := c.Memory.EmitElementAddress(elt, loc, b)
				destroy := b.EmitDestroyAddr(addr, loc)
				c.Releases = append(c.Releases, Release{Inst: destroy})
				continue
			}

			block := c.blockOf(inst)
			if bitmapVal == nil {
				bitmapVal = sir.SetInsertionPointBefore(block, inst).
					CreateLoad(c.bitmapAddr, "definit.bits", loc)
			}

			block = c.blockOf(inst)
			cond := c.extractBit(block, inst, bitmapVal, elt, n, loc)
			trueBB, contBB := c.insertCFGDiamond(block, block.IndexOf(inst), cond, loc)

			tb := sir.NewBuilder(trueBB)
			addr := c.Memory.EmitElementAddress(elt, loc, tb)
			destroy := tb.EmitDestroyAddr(addr, loc)
			c.Releases = append(c.Releases, Release{Inst: destroy})
			tb.CreateBranch(contBB, loc)
		}

		if c.Memory.IsClassInitSelf() {
			block := c.blockOf(inst)
			sir.SetInsertionPointBefore(block, inst).
				CreateDeallocRef(c.releasedPointer(inst), loc)
		}

		removeFromBlock(c.blockOf(inst), inst)
		c.Releases[cd.releaseIdx].Inst = nil
	}
}

// emitBitmapMarkLive ORs a use's element range into the liveness bitmap
// immediately before the initializing instruction. A range touching only
// trivial elements is skipped: the bitmap exists to gate destroys, and a
// trivial element is never destroyed.
func (c *Checker) emitBitmapMarkLive(n int, use Use, loc position.Span) {
	if c.rangeIsTrivial(use.FirstElement, use.NumElements) {
		return
	}

	b := sir.SetInsertionPointBefore(c.blockOf(use.Inst), use.Inst)

	bits := elementRangeMask(use.FirstElement, use.NumElements)
	maskLit := b.CreateIntegerLiteral(bits, n, loc)
	maskVal := sir.Value{Kind: sir.ValRef, Ref: maskLit.Dst}

	if bits != allOnesMask(n) {
		old := b.CreateLoad(c.bitmapAddr, "definit.bits", loc)
		orInst := b.CreateBuiltin("or_Int"+strconv.Itoa(n),
			[]sir.Value{{Kind: sir.ValRef, Ref: old.Dst}, maskVal}, "definit.mask", loc)
		maskVal = sir.Value{Kind: sir.ValRef, Ref: orInst.Dst}
	}

	b.CreateStore(c.bitmapAddr, maskVal, sir.StoreInit, loc)
}

// extractBit emits the shift/truncate sequence that reads bit elt out of a
// previously loaded bitmap value, inserted immediately before `before`.
// For a single-element memory object the whole bitmap already is the bit,
// so no shift or truncate is needed.
func (c *Checker) extractBit(block *sir.BasicBlock, before sir.Instr, bitmapVal *sir.Load, elt, n int, loc position.Span) sir.Value {
	val := sir.Value{Kind: sir.ValRef, Ref: bitmapVal.Dst}
	if n == 1 {
		return val
	}

	b := sir.SetInsertionPointBefore(block, before)

	if elt != 0 {
		amt := b.CreateIntegerLiteral(uint64(elt), n, loc)
		shifted := b.CreateBuiltin("lshr_Int"+strconv.Itoa(n),
			[]sir.Value{val, {Kind: sir.ValRef, Ref: amt.Dst}}, "definit.shifted", loc)
		val = sir.Value{Kind: sir.ValRef, Ref: shifted.Dst}
	}

	trunc := b.CreateBuiltin("trunc_Int"+strconv.Itoa(n)+"_Int1",
		[]sir.Value{val}, "definit.bit", loc)

	return sir.Value{Kind: sir.ValRef, Ref: trunc.Dst}
}

// insertCFGDiamond splits block at atIndex and wires a conditional branch
// in its place: cond true goes to a fresh, empty trueBB; cond false (and
// trueBB itself, once populated and closed off by the caller) both lead to
// contBB, which holds everything that was at or after atIndex.
func (c *Checker) insertCFGDiamond(block *sir.BasicBlock, atIndex int, cond sir.Value, loc position.Span) (trueBB, contBB *sir.BasicBlock) {
	contBB = sir.SplitBasicBlock(block, atIndex, loc)
	block.Instrs = block.Instrs[:len(block.Instrs)-1] // drop SplitBasicBlock's unconditional Br
	trueBB = block.Func.NewBlock(block.Name + ".definit.destroy")

	sir.NewBuilder(block).CreateCondBranch(cond, trueBB, contBB, loc)

	return trueBB, contBB
}

// elementRangeMask returns the bitmask covering [first, first+num).
func elementRangeMask(first, num int) uint64 {
	return ((uint64(1) << uint(num)) - 1) << uint(first)
}

// allOnesMask returns the bitmask with all n bits set.
func allOnesMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << uint(n)) - 1
}
