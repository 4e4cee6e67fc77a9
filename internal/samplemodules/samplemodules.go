// Package samplemodules builds small, hand-constructed SIR functions that
// exercise the end-to-end scenarios definite-initialization checking is
// expected to handle. They back this repository's own tests and the
// test/golden fixtures; nothing here is required by the core itself.
package samplemodules

import (
	"github.com/lumen-lang/lumen/internal/definit"
	"github.com/lumen-lang/lumen/internal/position"
	"github.com/lumen-lang/lumen/internal/sir"
)

func span(line int) position.Span {
	pos := position.Position{Filename: "sample.lumen", Line: line, Column: 1, Offset: 0}

	return position.Span{Start: pos, End: pos}
}

var nonTrivial = &sir.Type{Name: "String", IsTrivial: false}
var trivial = &sir.Type{Name: "Int", IsTrivial: true}

// SimpleVar builds scenario 1: a single InitOrAssign store in the entry
// block with no preceding use, which should classify as a plain
// Initialization with no bitmap and no diamond.
func SimpleVar() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("simpleVar")
	b := sir.NewBuilder(fn.Entry)

	alloc := b.CreateAllocStack(nonTrivial, "x", span(1))
	addr := sir.Value{Kind: sir.ValRef, Ref: alloc.Dst}
	mark := b.CreateMarkUninitialized(addr, sir.MemoryVar, span(1))

	val := sir.Value{Kind: sir.ValConstInt, Const: 1}
	b.CreateStore(addr, val, sir.StoreUnknown, span(2))
	b.CreateReturn(nil, span(3))

	return fn, definit.NewVariableMemory(mark, fn, "x", nonTrivial, false)
}

// OverwriteInitialized builds scenario 2: two sequential InitOrAssign
// stores in one block. The first classifies as Initialization, the second
// as Assign (and is lowered to load/store/release, since x is non-trivial).
func OverwriteInitialized() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("overwriteInitialized")
	b := sir.NewBuilder(fn.Entry)

	alloc := b.CreateAllocStack(nonTrivial, "x", span(1))
	addr := sir.Value{Kind: sir.ValRef, Ref: alloc.Dst}
	mark := b.CreateMarkUninitialized(addr, sir.MemoryVar, span(1))

	first := sir.Value{Kind: sir.ValConstInt, Const: 1}
	b.CreateStore(addr, first, sir.StoreUnknown, span(2))

	second := sir.Value{Kind: sir.ValConstInt, Const: 2}
	b.CreateStore(addr, second, sir.StoreUnknown, span(3))
	b.CreateReturn(nil, span(4))

	return fn, definit.NewVariableMemory(mark, fn, "x", nonTrivial, false)
}

// IfBranchInit builds scenario 3: entry branches to a true block that
// stores, and a false block that doesn't, both joining at a block that
// loads. Liveness at the load is Partial, so the load is diagnosed as
// variable_used_before_initialized.
func IfBranchInit() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("ifBranchInit")

	trueBB := fn.NewBlock("if.true")
	falseBB := fn.NewBlock("if.false")
	joinBB := fn.NewBlock("if.join")

	entry := sir.NewBuilder(fn.Entry)
	alloc := entry.CreateAllocStack(nonTrivial, "x", span(1))
	addr := sir.Value{Kind: sir.ValRef, Ref: alloc.Dst}
	mark := entry.CreateMarkUninitialized(addr, sir.MemoryVar, span(1))
	cond := sir.Value{Kind: sir.ValConstInt, Const: 1}
	entry.CreateCondBranch(cond, trueBB, falseBB, span(2))

	t := sir.NewBuilder(trueBB)
	val := sir.Value{Kind: sir.ValConstInt, Const: 1}
	t.CreateStore(addr, val, sir.StoreUnknown, span(3))
	t.CreateBranch(joinBB, span(3))

	f := sir.NewBuilder(falseBB)
	f.CreateBranch(joinBB, span(4))

	j := sir.NewBuilder(joinBB)
	j.CreateLoad(addr, "x.loaded", span(5))
	j.CreateReturn(nil, span(5))

	return fn, definit.NewVariableMemory(mark, fn, "x", nonTrivial, false)
}

// ConditionalInitAssign builds scenario 4: entry branches to T (which
// stores) and U (empty), both joining at a block that stores again. The
// join store is conditional on whichever path ran, so it needs a
// dynamic-initialization bitmap and a CFG diamond around the destroy of
// whatever the T path may have left live.
func ConditionalInitAssign() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("conditionalInitAssign")

	trueBB := fn.NewBlock("if.true")
	falseBB := fn.NewBlock("if.false")
	joinBB := fn.NewBlock("if.join")

	entry := sir.NewBuilder(fn.Entry)
	alloc := entry.CreateAllocStack(nonTrivial, "x", span(1))
	addr := sir.Value{Kind: sir.ValRef, Ref: alloc.Dst}
	mark := entry.CreateMarkUninitialized(addr, sir.MemoryVar, span(1))
	cond := sir.Value{Kind: sir.ValConstInt, Const: 1}
	entry.CreateCondBranch(cond, trueBB, falseBB, span(2))

	t := sir.NewBuilder(trueBB)
	first := sir.Value{Kind: sir.ValConstInt, Const: 1}
	t.CreateStore(addr, first, sir.StoreUnknown, span(3))
	t.CreateBranch(joinBB, span(3))

	f := sir.NewBuilder(falseBB)
	f.CreateBranch(joinBB, span(4))

	j := sir.NewBuilder(joinBB)
	second := sir.Value{Kind: sir.ValConstInt, Const: 2}
	j.CreateStore(addr, second, sir.StoreUnknown, span(5))
	j.CreateReturn(nil, span(5))

	return fn, definit.NewVariableMemory(mark, fn, "x", nonTrivial, false)
}

// selfMemory is a small MemoryObject for the self-initializer scenarios
// (5, 6), which need a super-init marker slot that NewVariableMemory's
// single-element shortcut can't express.
func selfMemory(mark *sir.MarkUninitialized, fn *sir.Function, n int, letIdx int) *definit.Memory {
	elements := make([]definit.ElementInfo, n)
	for i := range elements {
		elements[i] = definit.ElementInfo{Type: nonTrivial, Suffix: elementSuffix(i, n)}
	}
	if letIdx >= 0 && letIdx < n {
		elements[letIdx].IsLet = true
	}

	return &definit.Memory{
		Mark: mark,
		// Addr must match mark.Addr (the pointer the MarkUninitialized
		// wraps), not mark.Dst: collect.go's addressesOf recognizes an
		// ElementAddr as belonging to this object by comparing its Base
		// against mark.Addr, so EmitElementAddress has to emit against the
		// same value to be picked up when the object is scanned.
		Addr:     mark.Addr,
		Func:     fn,
		Elements: elements,
	}
}

func elementSuffix(i, n int) string {
	if i == n-1 {
		return "$super"
	}

	return "field"
}

// MissingSuperInit builds scenario 5: a derived class's designated
// initializer (N=2: one stored property plus the super-init marker slot)
// that initializes the stored property but returns without ever calling
// super.init. The Load before Return models the implicit "return self"
// epilogue every initializer has, which is what actually triggers the
// at-return liveness check (the checker has no notion of a return's
// implicit self use beyond an ordinary Load feeding it).
func MissingSuperInit() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("missingSuperInit")
	b := sir.NewBuilder(fn.Entry)

	selfParam := sir.Value{Kind: sir.ValRef, Ref: "self.addr"}
	mark := b.CreateMarkUninitialized(selfParam, sir.MemoryDerivedSelf, span(1))
	mem := selfMemory(mark, fn, 2, -1)

	fieldAddr := mem.EmitElementAddress(0, span(2), b)
	val := sir.Value{Kind: sir.ValConstInt, Const: 1}
	b.CreateStore(fieldAddr, val, sir.StoreUnknown, span(2))
	b.CreateLoad(selfParam, "self.returned", span(3))
	b.CreateReturn(nil, span(3))

	return fn, mem
}

// DoubleSuperInit builds scenario 6: a derived class with no stored
// properties of its own (N=1: only the super-init marker slot) making two
// super.init calls on disjoint paths that rejoin before a third,
// unconditional call — liveness at the third call sees the super-init slot
// already Partial-or-Yes, so it is flagged as calling self.init/super.init
// more than once. With no stored property, the first two calls have no
// uninitialized ivar to report.
func DoubleSuperInit() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("doubleSuperInit")

	trueBB := fn.NewBlock("if.true")
	falseBB := fn.NewBlock("if.false")
	joinBB := fn.NewBlock("if.join")

	entry := sir.NewBuilder(fn.Entry)
	selfParam := sir.Value{Kind: sir.ValRef, Ref: "self.addr"}
	mark := entry.CreateMarkUninitialized(selfParam, sir.MemoryDerivedSelf, span(1))
	mem := selfMemory(mark, fn, 1, -1)
	cond := sir.Value{Kind: sir.ValConstInt, Const: 1}
	entry.CreateCondBranch(cond, trueBB, falseBB, span(2))

	t := sir.NewBuilder(trueBB)
	t.CreateApply("super.init", []sir.Value{selfParam}, "super.t", span(3))
	t.CreateBranch(joinBB, span(3))

	f := sir.NewBuilder(falseBB)
	f.CreateApply("super.init", []sir.Value{selfParam}, "super.f", span(4))
	f.CreateBranch(joinBB, span(4))

	j := sir.NewBuilder(joinBB)
	j.CreateApply("super.init", []sir.Value{selfParam}, "super.join", span(5))
	j.CreateReturn(nil, span(5))

	return fn, mem
}

// LetOverwrite builds scenario 7: a `let` element written once, then
// written again unconditionally, which should be flagged as assigning to
// an already-initialized immutable property.
func LetOverwrite() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("letOverwrite")
	b := sir.NewBuilder(fn.Entry)

	alloc := b.CreateAllocStack(nonTrivial, "x", span(1))
	addr := sir.Value{Kind: sir.ValRef, Ref: alloc.Dst}
	mark := b.CreateMarkUninitialized(addr, sir.MemoryVar, span(1))
	mem := selfMemory(mark, fn, 1, 0)

	fieldAddr := mem.EmitElementAddress(0, span(2), b)
	first := sir.Value{Kind: sir.ValConstInt, Const: 1}
	b.CreateStore(fieldAddr, first, sir.StoreUnknown, span(2))

	second := sir.Value{Kind: sir.ValConstInt, Const: 2}
	b.CreateStore(fieldAddr, second, sir.StoreUnknown, span(3))
	b.CreateReturn(nil, span(4))

	return fn, mem
}

// TrivialOverwrite builds a ninth, supplementary scenario: two sequential
// stores to a trivial-typed variable. Both classify as Initialization (the
// InitOrAssign workaround in classifyInitOrAssign), never as Assign, since a
// trivial value has nothing to release on overwrite — unlike
// OverwriteInitialized's non-trivial x, this never gets a load/release pair
// spliced in around the second store.
func TrivialOverwrite() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("trivialOverwrite")
	b := sir.NewBuilder(fn.Entry)

	alloc := b.CreateAllocStack(trivial, "n", span(1))
	addr := sir.Value{Kind: sir.ValRef, Ref: alloc.Dst}
	mark := b.CreateMarkUninitialized(addr, sir.MemoryVar, span(1))

	first := sir.Value{Kind: sir.ValConstInt, Const: 1}
	b.CreateStore(addr, first, sir.StoreUnknown, span(2))

	second := sir.Value{Kind: sir.ValConstInt, Const: 2}
	b.CreateStore(addr, second, sir.StoreUnknown, span(3))
	b.CreateReturn(nil, span(4))

	return fn, definit.NewVariableMemory(mark, fn, "n", trivial, false)
}

// UnreachableCycle builds scenario 8: a two-block cycle with no edge from
// entry, where the looping block loads its own memory object. Because the
// cycle is unreachable, the reachability filter suppresses any diagnostic,
// and liveness at the load is forced to Yes rather than cycling forever.
func UnreachableCycle() (*sir.Function, definit.MemoryObject) {
	fn := sir.NewFunction("unreachableCycle")

	loopBB := fn.NewBlock("loop")
	backBB := fn.NewBlock("loop.back")

	entry := sir.NewBuilder(fn.Entry)
	alloc := entry.CreateAllocStack(nonTrivial, "x", span(1))
	addr := sir.Value{Kind: sir.ValRef, Ref: alloc.Dst}
	mark := entry.CreateMarkUninitialized(addr, sir.MemoryVar, span(1))
	entry.CreateReturn(nil, span(1))

	l := sir.NewBuilder(loopBB)
	l.CreateLoad(addr, "x.loaded", span(2))
	l.CreateBranch(backBB, span(2))

	bk := sir.NewBuilder(backBB)
	bk.CreateBranch(loopBB, span(3))

	return fn, definit.NewVariableMemory(mark, fn, "x", nonTrivial, false)
}
