package definit

import "github.com/lumen-lang/lumen/internal/sir"

// Collect walks every instruction in mem's owning function and builds the
// Uses/Releases vectors a Checker needs, by recognizing instructions that
// read or write through mem's address (or one of its ElementAddr
// projections).
//
// A real front end's collector also understands the AST: it knows which
// Apply is a super.init call versus an escaping closure capture versus an
// ordinary method call taking self inout, because it still has the
// call's declaration in hand. This collector only has the lowered SIR, so
// it falls back to a single heuristic — every Apply instruction that
// takes the memory's address as an argument becomes an inout use unless
// the call's Callee name is exactly "self.init" or "super.init" — which
// is precise enough to drive the
// core and its tests but is explicitly a stand-in, not the real
// collector. SPEC_FULL.md documents this as the DOMAIN STACK's
// `internal/definit/collect.go` boundary.
func Collect(mem MemoryObject) ([]Use, []Release) {
	n := mem.NumElements()
	defInst := mem.DefiningInstruction()
	memAddr, elementAddrs := addressesOf(mem, defInst)

	var uses []Use
	var releases []Release

	for _, b := range mem.FunctionEntry().Func.Blocks {
		for _, inst := range b.Instrs {
			if inst == defInst {
				continue
			}

			if u, ok := classifyInstructionUse(inst, memAddr, elementAddrs, n); ok {
				uses = append(uses, u)

				continue
			}

			if isRelease(inst, memAddr) {
				releases = append(releases, Release{Inst: inst})
			}
		}
	}

	return uses, releases
}

// addressesOf returns mem's own address plus a map from each of its
// element addresses (as minted by EmitElementAddress, keyed by the SSA
// name of the resulting ElementAddr) back to the element index it names.
// Since ElementAddr is emitted lazily throughout a function rather than
// once up front, this scans for every ElementAddr instruction whose Base
// matches memAddr.
func addressesOf(mem MemoryObject, defInst sir.Instr) (sir.Value, map[string]int) {
	mark, ok := defInst.(*sir.MarkUninitialized)
	elementAddrs := make(map[string]int)

	if !ok {
		return sir.Undef, elementAddrs
	}

	for _, b := range mem.FunctionEntry().Func.Blocks {
		for _, inst := range b.Instrs {
			ea, ok := inst.(*sir.ElementAddr)
			if !ok || !sameValue(ea.Base, mark.Addr) {
				continue
			}

			elementAddrs[ea.Dst] = ea.Index
		}
	}

	return mark.Addr, elementAddrs
}

func sameValue(a, b sir.Value) bool {
	return a.Kind == b.Kind && a.Ref == b.Ref && a.Const == b.Const
}

// resolveAddr reports which element range of the memory object addr
// refers to: either the whole object (memAddr) or a single projected
// element (one of elementAddrs).
func resolveAddr(addr sir.Value, memAddr sir.Value, elementAddrs map[string]int, n int) (first, num int, ok bool) {
	if addr.Kind == sir.ValRef {
		if idx, isElt := elementAddrs[addr.Ref]; isElt {
			return idx, 1, true
		}
	}

	if sameValue(addr, memAddr) {
		return 0, n, true
	}

	return 0, 0, false
}

func classifyInstructionUse(inst sir.Instr, memAddr sir.Value, elementAddrs map[string]int, n int) (Use, bool) {
	switch in := inst.(type) {
	case *sir.Load:
		if first, num, ok := resolveAddr(in.Addr, memAddr, elementAddrs, n); ok {
			return Use{Inst: in, Kind: UseLoad, FirstElement: first, NumElements: num}, true
		}
	case *sir.Store:
		if first, num, ok := resolveAddr(in.Addr, memAddr, elementAddrs, n); ok {
			kind := UseInitOrAssign
			if num < n {
				kind = UsePartialStore
			}

			return Use{Inst: in, Kind: kind, FirstElement: first, NumElements: num}, true
		}
	case *sir.CopyAddr:
		if first, num, ok := resolveAddr(in.Dst, memAddr, elementAddrs, n); ok {
			return Use{Inst: in, Kind: UseInitOrAssign, FirstElement: first, NumElements: num}, true
		}
	case *sir.StoreWeak:
		if first, num, ok := resolveAddr(in.Addr, memAddr, elementAddrs, n); ok {
			return Use{Inst: in, Kind: UseInitOrAssign, FirstElement: first, NumElements: num}, true
		}
	case *sir.Apply:
		for _, arg := range in.Args {
			first, num, ok := resolveAddr(arg, memAddr, elementAddrs, n)
			if !ok {
				continue
			}

			return Use{Inst: in, Kind: applyUseKind(in), FirstElement: first, NumElements: num}, true
		}
	}

	return Use{}, false
}

// applyUseKind maps an Apply's callee name to the narrow set of call-shape
// uses this pass distinguishes (spec.md §3's "element use" taxonomy).
func applyUseKind(ap *sir.Apply) UseKind {
	switch ap.Callee {
	case "self.init":
		return UseSelfInit
	case "super.init":
		return UseSuperInit
	default:
		return UseInOut
	}
}

func isRelease(inst sir.Instr, memAddr sir.Value) bool {
	switch in := inst.(type) {
	case *sir.DestroyAddr:
		return sameValue(in.Addr, memAddr)
	case *sir.ReleaseValue:
		return sameValue(in.Val, memAddr)
	case *sir.DeallocStack:
		return sameValue(in.Addr, memAddr)
	case *sir.DeallocRef:
		return sameValue(in.Ref, memAddr)
	case *sir.DeallocBox:
		return sameValue(in.Box, memAddr)
	default:
		return false
	}
}
