package definit

import "github.com/lumen-lang/lumen/internal/sir"

// shouldEmitError applies the two filters spec.md §4.3.b and §7 require
// before any diagnostic reaches the Sink: the offending instruction's
// block must be reachable from the function entry (synthesized
// unreachable code produces no diagnostics), and no diagnostic may already
// have fired at that instruction's exact source location. Reachability is
// computed lazily, once per Checker, as a per-block set; the location check
// is a set of already-used source locations (the rendered span string).
func (c *Checker) shouldEmitError(inst sir.Instr) bool {
	block := c.blockOf(inst)
	if block == nil {
		return true
	}

	if c.reachable == nil {
		c.reachable = sir.ReachableFromEntry(c.Memory.FunctionEntry().Func)
	}

	if !c.reachable[block] {
		return false
	}

	key := inst.Loc().String()
	if c.emittedAt[key] {
		return false
	}

	c.emittedAt[key] = true

	return true
}

// blockOf finds the block containing inst by scanning the function. It runs
// on every livenessAt call (liveness.go), not just once per diagnostic
// candidate, but a memory object's own function is small enough that a
// linear scan over blocks is still simpler than threading a reverse index
// through sir.Function.
func (c *Checker) blockOf(inst sir.Instr) *sir.BasicBlock {
	for _, b := range c.Memory.FunctionEntry().Func.Blocks {
		for _, in := range b.Instrs {
			if in == inst {
				return b
			}
		}
	}

	return nil
}
