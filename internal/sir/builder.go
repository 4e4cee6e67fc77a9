package sir

import "github.com/lumen-lang/lumen/internal/position"

// Builder is a cursor-based instruction inserter, the IR-builder API
// spec.md §6 says the core consumes. A Builder always inserts into one
// block at one position; ConditionalRewriter repositions it constantly as
// it threads bitmap updates and CFG diamonds through existing blocks.
type Builder struct {
	Block *BasicBlock
	Pos   int // insertion index into Block.Instrs; len(Instrs) means append
}

// NewBuilder returns a Builder positioned at the end of b.
func NewBuilder(b *BasicBlock) *Builder {
	return &Builder{Block: b, Pos: len(b.Instrs)}
}

// SetInsertionPointBefore repositions the builder to insert immediately
// before inst, which must belong to b.
func SetInsertionPointBefore(b *BasicBlock, inst Instr) *Builder {
	idx := b.IndexOf(inst)
	if idx < 0 {
		idx = len(b.Instrs)
	}

	return &Builder{Block: b, Pos: idx}
}

// SetInsertionPointAfter repositions the builder to insert immediately
// after inst.
func SetInsertionPointAfter(b *BasicBlock, inst Instr) *Builder {
	idx := b.IndexOf(inst)
	if idx < 0 {
		return &Builder{Block: b, Pos: len(b.Instrs)}
	}

	return &Builder{Block: b, Pos: idx + 1}
}

func (bd *Builder) insert(inst Instr) Instr {
	bd.Block.Instrs = append(bd.Block.Instrs, nil)
	copy(bd.Block.Instrs[bd.Pos+1:], bd.Block.Instrs[bd.Pos:])
	bd.Block.Instrs[bd.Pos] = inst
	bd.Pos++

	return inst
}

// CreateAllocStack allocates a stack slot of the given type.
func (bd *Builder) CreateAllocStack(elem *Type, name string, loc position.Span) *AllocStack {
	dst := bd.Block.Func.FreshName(name + ".addr")
	inst := &AllocStack{base: base{Span: loc}, Dst: dst, Elem: elem, Name: name}
	bd.insert(inst)

	return inst
}

// CreateDeallocStack frees a stack slot.
func (bd *Builder) CreateDeallocStack(addr Value, loc position.Span) *DeallocStack {
	inst := &DeallocStack{base: base{Span: loc}, Addr: addr}
	bd.insert(inst)

	return inst
}

// CreateDeallocRef frees a class instance's storage.
func (bd *Builder) CreateDeallocRef(ref Value, loc position.Span) *DeallocRef {
	inst := &DeallocRef{base: base{Span: loc}, Ref: ref}
	bd.insert(inst)

	return inst
}

// CreateDeallocBox frees a boxed variable's storage.
func (bd *Builder) CreateDeallocBox(box Value, loc position.Span) *DeallocBox {
	inst := &DeallocBox{base: base{Span: loc}, Box: box}
	bd.insert(inst)

	return inst
}

// CreateLoad loads the value at addr.
func (bd *Builder) CreateLoad(addr Value, hint string, loc position.Span) *Load {
	dst := bd.Block.Func.FreshName(hint)
	inst := &Load{base: base{Span: loc}, Dst: dst, Addr: addr}
	bd.insert(inst)

	return inst
}

// CreateStore stores val to addr with the given qualifier.
func (bd *Builder) CreateStore(addr, val Value, q StoreQualifier, loc position.Span) *Store {
	inst := &Store{base: base{Span: loc}, Addr: addr, Val: val, Qualifier: q}
	bd.insert(inst)

	return inst
}

// EmitDestroyAddr runs the destructor for the value at addr in place.
func (bd *Builder) EmitDestroyAddr(addr Value, loc position.Span) *DestroyAddr {
	inst := &DestroyAddr{base: base{Span: loc}, Addr: addr}
	bd.insert(inst)

	return inst
}

// EmitReleaseValue releases a loaded value.
func (bd *Builder) EmitReleaseValue(val Value, loc position.Span) *ReleaseValue {
	inst := &ReleaseValue{base: base{Span: loc}, Val: val}
	bd.insert(inst)

	return inst
}

// CreateIntegerLiteral materializes a width-bit constant.
func (bd *Builder) CreateIntegerLiteral(value uint64, width int, loc position.Span) *IntegerLiteral {
	dst := bd.Block.Func.FreshName("mask")
	inst := &IntegerLiteral{base: base{Span: loc}, Dst: dst, Value: value, Width: width}
	bd.insert(inst)

	return inst
}

// CreateBuiltin invokes a bitmap pseudo-function (or_IntW, lshr_IntW,
// trunc_IntW_Int1).
func (bd *Builder) CreateBuiltin(name string, args []Value, hint string, loc position.Span) *Builtin {
	dst := bd.Block.Func.FreshName(hint)
	inst := &Builtin{base: base{Span: loc}, Dst: dst, Name: name, Args: args}
	bd.insert(inst)

	return inst
}

// CreateElementAddr computes the address of element index within base's
// memory object.
func (bd *Builder) CreateElementAddr(baseAddr Value, index int, hint string, loc position.Span) *ElementAddr {
	dst := bd.Block.Func.FreshName(hint)
	inst := &ElementAddr{base: base{Span: loc}, Dst: dst, Base: baseAddr, Index: index}
	bd.insert(inst)

	return inst
}

// CreateBranch ends the block with an unconditional branch. The builder
// must be positioned at the end of the block.
func (bd *Builder) CreateBranch(target *BasicBlock, loc position.Span) *Br {
	inst := &Br{base: base{Span: loc}, Target: target}
	bd.insert(inst)

	return inst
}

// CreateCondBranch ends the block with a conditional branch.
func (bd *Builder) CreateCondBranch(cond Value, trueBB, falseBB *BasicBlock, loc position.Span) *CondBr {
	inst := &CondBr{base: base{Span: loc}, Cond: cond, True: trueBB, False: falseBB}
	bd.insert(inst)

	return inst
}

// CreateMarkUninitialized flags addr as a memory object the
// definite-initialization pass must track.
func (bd *Builder) CreateMarkUninitialized(addr Value, kind MemoryKind, loc position.Span) *MarkUninitialized {
	dst := bd.Block.Func.FreshName("markuninit")
	inst := &MarkUninitialized{base: base{Span: loc}, Dst: dst, Addr: addr, Kind: kind}
	bd.insert(inst)

	return inst
}

// CreateCopyAddr copies the value at src to dst, optionally taking src
// (destroying its old value) and/or initializing dst's storage.
func (bd *Builder) CreateCopyAddr(src, dst Value, isTake, isInit bool, loc position.Span) *CopyAddr {
	inst := &CopyAddr{base: base{Span: loc}, Src: src, Dst: dst, IsTakeOfSrc: isTake, IsInitOfDst: isInit}
	bd.insert(inst)

	return inst
}

// CreateStoreWeak stores val to a weak or unowned reference slot at addr.
func (bd *Builder) CreateStoreWeak(addr, val Value, isInit bool, loc position.Span) *StoreWeak {
	inst := &StoreWeak{base: base{Span: loc}, Addr: addr, Val: val, IsInitialization: isInit}
	bd.insert(inst)

	return inst
}

// CreateRetainValue increments the refcount of a loaded value.
func (bd *Builder) CreateRetainValue(val Value, loc position.Span) *RetainValue {
	inst := &RetainValue{base: base{Span: loc}, Val: val}
	bd.insert(inst)

	return inst
}

// CreateApply models a call, direct or indirect: a super.init/self.init
// delegation, an escape into a closure or global, or an ordinary method
// call taking one of its arguments by address.
func (bd *Builder) CreateApply(callee string, args []Value, hint string, loc position.Span) *Apply {
	dst := bd.Block.Func.FreshName(hint)
	inst := &Apply{base: base{Span: loc}, Dst: dst, Callee: callee, Args: args}
	bd.insert(inst)

	return inst
}

// CreateReturn ends the block with a return, optionally carrying a value.
// The builder must be positioned at the end of the block.
func (bd *Builder) CreateReturn(val *Value, loc position.Span) *Return {
	inst := &Return{base: base{Span: loc}, Val: val}
	bd.insert(inst)

	return inst
}

// SplitBasicBlock splits b at instruction index i: everything from i
// onward moves into a freshly created successor block, and b falls through
// to it unconditionally. Returns the new successor. This is the CFG
// surgery primitive ConditionalRewriter uses to materialize a diamond: the
// caller splits once, drops the fall-through Br, and ends b with a
// CreateCondBranch to a fresh block and to the returned successor.
func SplitBasicBlock(b *BasicBlock, i int, loc position.Span) *BasicBlock {
	tail := b.Func.NewBlock(b.Name + ".split")
	tail.Instrs = append(tail.Instrs, b.Instrs[i:]...)
	b.Instrs = b.Instrs[:i]
	b.Instrs = append(b.Instrs, &Br{base: base{Span: loc}, Target: tail})

	return tail
}
