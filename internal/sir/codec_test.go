package sir

import (
	"testing"

	"github.com/lumen-lang/lumen/internal/position"
)

func span() position.Span {
	pos := position.Position{Filename: "t.lumen", Line: 1, Column: 1, Offset: 0}

	return position.Span{Start: pos, End: pos}
}

// buildDiamond makes a function with a branch, a join, and a handful of
// instruction kinds for the codec to round-trip, including block targets
// that must survive re-encoding as indices rather than pointers.
func buildDiamond() *Function {
	fn := NewFunction("diamond")
	trueBB := fn.NewBlock("if.true")
	joinBB := fn.NewBlock("if.join")

	entry := NewBuilder(fn.Entry)
	alloc := entry.CreateAllocStack(&Type{Name: "Int", IsTrivial: true}, "x", span())
	addr := Value{Kind: ValRef, Ref: alloc.Dst}
	entry.CreateMarkUninitialized(addr, MemoryVar, span())
	cond := Value{Kind: ValConstInt, Const: 1}
	entry.CreateCondBranch(cond, trueBB, joinBB, span())

	t := NewBuilder(trueBB)
	val := Value{Kind: ValConstInt, Const: 1}
	t.CreateStore(addr, val, StoreInit, span())
	t.CreateBranch(joinBB, span())

	j := NewBuilder(joinBB)
	loaded := j.CreateLoad(addr, "x.loaded", span())
	retVal := Value{Kind: ValRef, Ref: loaded.Dst}
	j.CreateReturn(&retVal, span())

	return fn
}

func TestModuleEncodeDecodeRoundTrip(t *testing.T) {
	fn := buildDiamond()
	mod := &Module{Name: "m", Functions: []*Function{fn}}

	data, err := EncodeModule(mod)
	if err != nil {
		t.Fatalf("EncodeModule: %v", err)
	}

	got, err := DecodeModule(data)
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}

	if len(got.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(got.Functions))
	}

	gf := got.Functions[0]
	if gf.Name != "diamond" {
		t.Errorf("function name = %q, want diamond", gf.Name)
	}
	if len(gf.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(gf.Blocks))
	}
	if gf.Entry == nil || gf.Entry.Name != "entry" {
		t.Fatalf("entry block not restored correctly")
	}

	entryTerm, ok := gf.Entry.Terminator().(*CondBr)
	if !ok {
		t.Fatalf("entry terminator = %T, want *CondBr", gf.Entry.Terminator())
	}
	if entryTerm.True == nil || entryTerm.False == nil {
		t.Fatal("CondBr targets were not restored")
	}
	if entryTerm.True.Name != "if.true" {
		t.Errorf("CondBr.True.Name = %q, want if.true", entryTerm.True.Name)
	}
	if entryTerm.False.Name != "if.join" {
		t.Errorf("CondBr.False.Name = %q, want if.join", entryTerm.False.Name)
	}

	trueBB := gf.Blocks[1]
	trueTerm, ok := trueBB.Terminator().(*Br)
	if !ok {
		t.Fatalf("if.true terminator = %T, want *Br", trueBB.Terminator())
	}
	if trueTerm.Target != entryTerm.False {
		t.Error("Br target should be the same *BasicBlock identity as CondBr.False (the shared join block)")
	}

	joinBB := gf.Blocks[2]
	joinTerm, ok := joinBB.Terminator().(*Return)
	if !ok {
		t.Fatalf("if.join terminator = %T, want *Return", joinBB.Terminator())
	}
	if joinTerm.Val == nil || joinTerm.Val.Kind != ValRef {
		t.Error("Return value was not restored")
	}
}
