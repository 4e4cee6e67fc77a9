package definit

import (
	"strconv"

	"github.com/lumen-lang/lumen/internal/position"
	"github.com/lumen-lang/lumen/internal/sir"
)

// MemoryObject is the narrow interface the core consumes in place of a
// concrete DIMemoryObjectInfo (spec.md §3/§6): a contiguous logical
// allocation of NumElements indexable elements, classified well enough for
// the self-initializer rules of spec.md §4.3 to apply.
type MemoryObject interface {
	NumElements() int
	ElementType(i int) *sir.Type
	IsElementLet(i int) bool

	IsAnyInitSelf() bool
	IsClassInitSelf() bool
	IsDelegatingInit() bool
	IsDerivedClassSelf() bool
	IsEnumInitSelf() bool

	DefiningInstruction() sir.Instr
	FunctionEntry() *sir.BasicBlock
	FunctionReturns() []*sir.BasicBlock

	PathString(i int) string
	EmitElementAddress(i int, loc position.Span, b *sir.Builder) sir.Value
}

// Memory is the straightforward MemoryObject implementation for a
// sir.MarkUninitialized instruction: one element per entry in Elements,
// with self-classification read off Mark.Kind. A real front end's
// DIMemoryObjectInfo additionally knows about nested tuple/struct paths;
// Memory supports that through PathPrefix plus per-element PathSuffix so
// diagnostics can render "a.b.2"-style names without the core needing to
// know the source type system (spec.md §4 SUPPLEMENTED FEATURES).
type Memory struct {
	Mark     *sir.MarkUninitialized
	Addr     sir.Value
	Elements []ElementInfo
	Func     *sir.Function

	PathPrefix string
}

// ElementInfo describes one element of a Memory object.
type ElementInfo struct {
	Type   *sir.Type
	IsLet  bool
	Suffix string // e.g. "name", "1" — appended to PathPrefix for diagnostics
}

// NewVariableMemory builds the common single-element case: a plain local
// variable or parameter with no nested stored properties. Aggregates with
// more than one element need a front end to supply per-field ElementInfo
// (the SIR here carries no type-layout information on its own), so callers
// needing that construct Memory directly.
func NewVariableMemory(mark *sir.MarkUninitialized, fn *sir.Function, name string, elemType *sir.Type, isLet bool) *Memory {
	return &Memory{
		Mark:     mark,
		Addr:     sir.Value{Kind: sir.ValRef, Ref: mark.Dst},
		Func:     fn,
		Elements: []ElementInfo{{Type: elemType, IsLet: isLet, Suffix: name}},
	}
}

// FindMarkUninitialized returns every MarkUninitialized instruction in fn,
// the entry point for discovering memory objects to check (spec.md §6
// Input — "a memory object is any MarkUninitialized instruction's Addr").
func FindMarkUninitialized(fn *sir.Function) []*sir.MarkUninitialized {
	var out []*sir.MarkUninitialized

	for _, b := range fn.Blocks {
		for _, inst := range b.Instrs {
			if m, ok := inst.(*sir.MarkUninitialized); ok {
				out = append(out, m)
			}
		}
	}

	return out
}

func (m *Memory) NumElements() int               { return len(m.Elements) }
func (m *Memory) ElementType(i int) *sir.Type     { return m.Elements[i].Type }
func (m *Memory) IsElementLet(i int) bool         { return m.Elements[i].IsLet }
func (m *Memory) DefiningInstruction() sir.Instr  { return m.Mark }
func (m *Memory) FunctionEntry() *sir.BasicBlock  { return m.Func.Entry }
func (m *Memory) FunctionReturns() []*sir.BasicBlock {
	return m.Func.Returns()
}

func (m *Memory) IsAnyInitSelf() bool {
	switch m.Mark.Kind {
	case sir.MemoryRootSelf, sir.MemoryClassRootSelf, sir.MemoryDerivedSelf, sir.MemoryDelegatingSelf, sir.MemoryEnumSelf:
		return true
	default:
		return false
	}
}

func (m *Memory) IsClassInitSelf() bool {
	return m.Mark.Kind == sir.MemoryClassRootSelf || m.Mark.Kind == sir.MemoryDerivedSelf
}

func (m *Memory) IsDelegatingInit() bool { return m.Mark.Kind == sir.MemoryDelegatingSelf }
func (m *Memory) IsDerivedClassSelf() bool { return m.Mark.Kind == sir.MemoryDerivedSelf }
func (m *Memory) IsEnumInitSelf() bool     { return m.Mark.Kind == sir.MemoryEnumSelf }

func (m *Memory) PathString(i int) string {
	suffix := m.Elements[i].Suffix
	if suffix == "" {
		suffix = strconv.Itoa(i)
	}

	if m.PathPrefix == "" {
		return suffix
	}

	return m.PathPrefix + "." + suffix
}

// EmitElementAddress materializes the address of element i by inserting an
// ElementAddr off the memory object's own address.
func (m *Memory) EmitElementAddress(i int, loc position.Span, b *sir.Builder) sir.Value {
	inst := b.CreateElementAddr(m.Addr, i, m.PathString(i)+".addr", loc)

	return sir.Value{Kind: sir.ValRef, Ref: inst.Dst}
}

// UseKind classifies how an instruction uses a memory object (spec.md §3).
type UseKind int

const (
	UseLoad UseKind = iota
	UseInitOrAssign
	UseInitialization
	UseAssign
	UsePartialStore
	UseIndirectIn
	UseInOut
	UseEscape
	UseSuperInit
	UseSelfInit
)

func (k UseKind) String() string {
	switch k {
	case UseLoad:
		return "load"
	case UseInitOrAssign:
		return "init_or_assign"
	case UseInitialization:
		return "initialization"
	case UseAssign:
		return "assign"
	case UsePartialStore:
		return "partial_store"
	case UseIndirectIn:
		return "indirect_in"
	case UseInOut:
		return "inout_use"
	case UseEscape:
		return "escape"
	case UseSuperInit:
		return "super_init"
	case UseSelfInit:
		return "self_init"
	default:
		return "unknown_use"
	}
}

// Use records one element-range access (spec.md §3). A tombstoned Use has
// Inst == nil and must be skipped by every consumer; AssignLowering
// tombstones rather than removes entries so indices already captured
// elsewhere (e.g. the values of Checker.nonLoadUses) stay valid.
type Use struct {
	Inst         sir.Instr
	Kind         UseKind
	FirstElement int
	NumElements  int
}

// Release is a destroy, strong-release, or class-deallocation instruction
// that may need conditional rewriting (spec.md §3).
type Release struct {
	Inst sir.Instr
}
