// Package sir defines the Static-Single-Assignment-style intermediate
// representation the lumen compiler lowers source programs to. It sits
// between lumen's HIR and its eventual machine lowering, carrying explicit
// memory objects, loads, stores and reference-counting operations so that
// internal/definit can run definite-initialization analysis directly on it.
//
// The instruction set and block/function shape are a generalization of
// SeleniaProject-Orizon's internal/mir package: the same
// Module/Function/BasicBlock/Value skeleton, extended with the
// memory-object and ownership instructions a definite-initialization pass
// needs (AllocStack, MarkUninitialized, ElementAddr, DestroyAddr,
// ReleaseValue, DeallocStack/Ref/Box) and explicit predecessor/successor
// edges so the pass's backward-recursive fixpoint has a CFG to walk.
package sir

import (
	"strconv"

	"github.com/lumen-lang/lumen/internal/position"
)

// Type is a minimal static type description. IsTrivial mirrors SIL's
// trivial-type predicate: a trivial value carries no ownership, so stores
// of it never need a paired release and destroys of it are no-ops.
type Type struct {
	Name      string
	IsTrivial bool
}

// ValueKind classifies a Value.
type ValueKind int

const (
	ValInvalid ValueKind = iota
	ValConstInt
	ValRef // reference to an instruction result or block parameter, by name
	ValUndef
)

// Value is an SSA-style operand: either a constant or a named reference to
// a previously defined result.
type Value struct {
	Kind  ValueKind
	Const int64
	Ref   string
}

// Undef is the canonical undefined value, used as a placeholder operand
// when a rewrite has not yet filled one in.
var Undef = Value{Kind: ValUndef}

// Module is a compilation unit: a named collection of functions.
type Module struct {
	Name      string
	Functions []*Function
}

// Function owns a CFG of basic blocks and a monotonic instruction/name
// counter used to mint fresh SSA names during rewriting (AssignLowering and
// ConditionalRewriter both append instructions after the initial build).
type Function struct {
	Name       string
	Parameters []Value
	Blocks     []*BasicBlock
	Entry      *BasicBlock

	nextID   int
	nextName int
}

// NewFunction creates an empty function with a single entry block.
func NewFunction(name string) *Function {
	f := &Function{Name: name}
	f.Entry = f.NewBlock("entry")

	return f
}

// NewBlock appends a new, empty basic block to the function.
func (f *Function) NewBlock(name string) *BasicBlock {
	b := &BasicBlock{Name: f.uniqueBlockName(name), Func: f}
	f.Blocks = append(f.Blocks, b)

	return b
}

func (f *Function) uniqueBlockName(base string) string {
	for _, b := range f.Blocks {
		if b.Name == base {
			f.nextName++

			return base + "." + strconv.Itoa(f.nextName)
		}
	}

	return base
}

// FreshName returns a unique SSA value name scoped to the function, for use
// by rewrites that insert brand-new instructions (bitmap loads, element-bit
// extracts, reloaded old values).
func (f *Function) FreshName(hint string) string {
	f.nextID++

	return hint + "." + strconv.Itoa(f.nextID)
}

// Returns collects every block ending in a Return terminator. DI memory
// objects that model "self" in an initializer need this set to know where
// a missing super.init/self.init call must be diagnosed.
func (f *Function) Returns() []*BasicBlock {
	var out []*BasicBlock

	for _, b := range f.Blocks {
		if _, ok := b.Terminator().(*Return); ok {
			out = append(out, b)
		}
	}

	return out
}

// BasicBlock is a sequence of instructions, normally ending in a
// terminator (Br, CondBr or Return). Predecessor/successor edges are
// derived lazily from terminators via Preds/Succs rather than maintained
// incrementally, since ConditionalRewriter's CFG surgery (splitting a block
// to insert a diamond) changes them frequently.
type BasicBlock struct {
	Name   string
	Func   *Function
	Instrs []Instr
}

// Terminator returns the block's last instruction if it is a control-flow
// terminator, else nil.
func (b *BasicBlock) Terminator() Instr {
	if len(b.Instrs) == 0 {
		return nil
	}

	last := b.Instrs[len(b.Instrs)-1]
	switch last.(type) {
	case *Br, *CondBr, *Return:
		return last
	default:
		return nil
	}
}

// Succs returns the blocks this block branches to, reading the terminator.
func (b *BasicBlock) Succs() []*BasicBlock {
	switch t := b.Terminator().(type) {
	case *Br:
		return []*BasicBlock{t.Target}
	case *CondBr:
		return []*BasicBlock{t.True, t.False}
	default:
		return nil
	}
}

// Preds returns every block in the owning function whose terminator
// targets b. Computed on demand: the CFG mutates too often during
// rewriting for an incrementally maintained predecessor list to be worth
// the bookkeeping.
func (b *BasicBlock) Preds() []*BasicBlock {
	var out []*BasicBlock

	for _, other := range b.Func.Blocks {
		for _, s := range other.Succs() {
			if s == b {
				out = append(out, other)

				break
			}
		}
	}

	return out
}

// Append adds inst to the end of the block.
func (b *BasicBlock) Append(inst Instr) {
	b.Instrs = append(b.Instrs, inst)
}

// InsertBefore inserts inst immediately before the instruction at index i.
func (b *BasicBlock) InsertBefore(i int, inst Instr) {
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[i+1:], b.Instrs[i:])
	b.Instrs[i] = inst
}

// IndexOf returns the position of inst in the block, or -1.
func (b *BasicBlock) IndexOf(inst Instr) int {
	for i, in := range b.Instrs {
		if in == inst {
			return i
		}
	}

	return -1
}

// Instr is implemented by every SIR instruction. Loc anchors diagnostics
// and rewrites to a source span; most instructions the DI pass synthesizes
// (destroys, bitmap updates) reuse the span of the instruction that
// triggered the rewrite.
type Instr interface {
	isInstr()
	Loc() position.Span
}
