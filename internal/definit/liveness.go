package definit

import "github.com/lumen-lang/lumen/internal/sir"

// livenessAt returns the DI-kind of each element in
// [firstElt, firstElt+numElts) immediately before inst executes (spec.md
// §4.2, C5 — the kernel of the whole pass). Slots outside the requested
// range may hold values merged in from predecessors and must not be read
// by callers.
func (c *Checker) livenessAt(inst sir.Instr, firstElt, numElts int) AvailabilitySet {
	if numElts == 0 {
		return NewAvailabilitySet(c.Memory.NumElements())
	}

	if c.Memory.NumElements() == 1 {
		return c.livenessAtSingleElement(inst)
	}

	return c.livenessAtRange(inst, firstElt, numElts)
}

// livenessAtSingleElement is the N=1 fast path spec.md §4.2 calls out
// separately: the overwhelmingly common case (a plain local variable) gets
// a scan that never has to track a bitset of remaining elements.
func (c *Checker) livenessAtSingleElement(inst sir.Instr) AvailabilitySet {
	result := NewAvailabilitySet(1)

	block := c.blockOf(inst)
	if block != nil && c.blocks.get(1, block).hasNonLoadUse {
		if found, isDef := c.scanBackwardForDefiner(block, inst); found {
			if isDef {
				result.Set(0, KindNo)
			} else {
				result.Set(0, KindYes)
			}

			return result
		}
	}

	value := KindUnknown
	for _, p := range predsOf(block) {
		value = Merge(value, c.liveOut1(p))
	}

	if value == KindUnknown {
		// Unreachable cycle not dominated by the memory definition: force
		// Yes so callers never have to special-case it (spec.md §4.2).
		value = KindYes
	}

	result.Set(0, value)

	return result
}

// livenessAtRange is the general N>1 path.
func (c *Checker) livenessAtRange(inst sir.Instr, firstElt, numElts int) AvailabilitySet {
	n := c.Memory.NumElements()
	result := NewAvailabilitySet(n)

	needed := make(map[int]bool, numElts)
	for i := firstElt; i < firstElt+numElts; i++ {
		needed[i] = true
	}

	block := c.blockOf(inst)
	if block != nil && c.blocks.get(n, block).hasNonLoadUse {
		idx := block.IndexOf(inst)
		if idx < 0 {
			idx = len(block.Instrs)
		}

		for i := idx - 1; i >= 0; i-- {
			cand := block.Instrs[i]

			ui, ok := c.nonLoadUses[cand]
			if !ok {
				continue
			}

			if cand == c.Memory.DefiningInstruction() {
				for e := range needed {
					result.Set(e, KindNo)
				}

				return result
			}

			use := c.Uses[ui]
			for e := use.FirstElement; e < use.FirstElement+use.NumElements; e++ {
				if needed[e] {
					result.Set(e, KindYes)
					delete(needed, e)
				}
			}

			if len(needed) == 0 {
				return result
			}
		}

		// Reached the top of the block without resolving every needed
		// element. Collect skips the marker itself so the loop above can
		// never match it directly; if this block is the one the marker
		// lives in, whatever is still unresolved is exactly as the marker
		// left it — uninitialized — rather than something to ask a
		// (nonexistent, for the entry block) predecessor about.
		if block == c.blockOf(c.Memory.DefiningInstruction()) {
			for e := range needed {
				result.Set(e, KindNo)
			}

			return result
		}
	}

	for _, p := range predsOf(block) {
		result.MergeIn(c.liveOutN(p))
	}

	// Any element still Unknown after the merge sits in an unreachable
	// cycle (spec.md §4.2): force it to Yes so callers never special-case
	// it. Elements this block already resolved locally were written into
	// result directly above and are never Unknown here.
	for e := firstElt; e < firstElt+numElts; e++ {
		if result.Get(e) == KindUnknown {
			result.Set(e, KindYes)
		}
	}

	return result
}

// scanBackwardForDefiner scans block backward from inst looking for the
// nearest non-load use of the memory. It returns found=false if the scan
// reaches the top of the block without one; otherwise isDef reports
// whether that use was the memory-defining instruction itself.
//
// The defining instruction (MarkUninitialized) is never itself a key in
// c.nonLoadUses — Collect explicitly skips it, since it marks the memory
// rather than using it — so the loop below can never match it directly.
// Reaching the top of the block empty-handed in the block that contains
// the definer means the element is still exactly as the marker left it
// (uninitialized), which the fallback below reports as isDef=true.
func (c *Checker) scanBackwardForDefiner(block *sir.BasicBlock, inst sir.Instr) (found, isDef bool) {
	idx := block.IndexOf(inst)
	if idx < 0 {
		idx = len(block.Instrs)
	}

	for i := idx - 1; i >= 0; i-- {
		cand := block.Instrs[i]
		if _, ok := c.nonLoadUses[cand]; !ok {
			continue
		}

		return true, cand == c.Memory.DefiningInstruction()
	}

	if block == c.blockOf(c.Memory.DefiningInstruction()) {
		return true, true
	}

	return false, false
}

// liveOut1 returns the cached or freshly computed live-out Kind of block's
// single element, breaking cycles via loComputing (spec.md §4.2). A block
// whose own instructions already decide the element (its last relevant use
// before the terminator) never needs its predecessors at all; scanning
// backward from the end of the block is scanBackwardForDefiner's mid-block
// query with inst=nil, which IndexOf never matches so the scan starts at
// len(block.Instrs).
func (c *Checker) liveOut1(block *sir.BasicBlock) Kind {
	bi := c.blocks.get(1, block)

	switch bi.state {
	case loKnown:
		return bi.availability.Get(0)
	case loComputing:
		return KindUnknown
	}

	if bi.hasNonLoadUse {
		if found, isDef := c.scanBackwardForDefiner(block, nil); found {
			local := KindYes
			if isDef {
				local = KindNo
			}

			bi.availability.Set(0, local)
			bi.state = loKnown

			return local
		}
	}

	bi.state = loComputing

	result := KindUnknown
	for _, p := range predsOf(block) {
		result = Merge(result, c.liveOut1(p))
	}

	if result == KindUnknown {
		bi.state = loUnknown

		return result
	}

	bi.availability.Set(0, result)
	bi.state = loKnown

	return result
}

// liveOutN is the N>1 analogue of liveOut1.
func (c *Checker) liveOutN(block *sir.BasicBlock) AvailabilitySet {
	n := c.Memory.NumElements()
	bi := c.blocks.get(n, block)

	switch bi.state {
	case loKnown:
		return bi.availability
	case loComputing:
		return NewAvailabilitySet(n)
	}

	local, resolved := c.scanBlockExit(block, n)

	fullyResolved := true
	for _, r := range resolved {
		if !r {
			fullyResolved = false

			break
		}
	}

	if fullyResolved {
		bi.availability = local
		bi.state = loKnown

		return local
	}

	bi.state = loComputing

	result := NewAvailabilitySet(n)
	for _, p := range predsOf(block) {
		result.MergeIn(c.liveOutN(p))
	}

	// An element decided by this block's own instructions dominates
	// whatever the predecessor merge produced for it, same reasoning as
	// livenessAtRange's in-block loop.
	for i := 0; i < n; i++ {
		if resolved[i] {
			result.Set(i, local.Get(i))
		}
	}

	if result.ContainsUnknown() {
		bi.state = loUnknown

		return result
	}

	bi.availability = result
	bi.state = loKnown

	return result
}

// scanBlockExit scans block backward from its end for the uses that decide
// each of its n elements by the time control leaves the block — the N>1
// analogue of scanBackwardForDefiner, generalized to resolve every element
// in one pass instead of stopping at the first use found. resolved[i]
// reports whether element i was decided locally; unresolved elements must
// fall back to a predecessor merge.
func (c *Checker) scanBlockExit(block *sir.BasicBlock, n int) (local AvailabilitySet, resolved []bool) {
	local = NewAvailabilitySet(n)
	resolved = make([]bool, n)

	if !c.blocks.get(n, block).hasNonLoadUse {
		return local, resolved
	}

	remaining := n
	for i := len(block.Instrs) - 1; i >= 0 && remaining > 0; i-- {
		cand := block.Instrs[i]

		ui, ok := c.nonLoadUses[cand]
		if !ok {
			continue
		}

		if cand == c.Memory.DefiningInstruction() {
			for e := 0; e < n; e++ {
				if !resolved[e] {
					local.Set(e, KindNo)
					resolved[e] = true
				}
			}

			return local, resolved
		}

		use := c.Uses[ui]
		for e := use.FirstElement; e < use.FirstElement+use.NumElements; e++ {
			if e >= 0 && e < n && !resolved[e] {
				local.Set(e, KindYes)
				resolved[e] = true
				remaining--
			}
		}
	}

	if remaining > 0 && block == c.blockOf(c.Memory.DefiningInstruction()) {
		for e := 0; e < n; e++ {
			if !resolved[e] {
				local.Set(e, KindNo)
				resolved[e] = true
			}
		}
	}

	return local, resolved
}

func predsOf(block *sir.BasicBlock) []*sir.BasicBlock {
	if block == nil {
		return nil
	}

	return block.Preds()
}
