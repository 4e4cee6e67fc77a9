package sir

import "github.com/lumen-lang/lumen/internal/position"

// MemoryKind classifies what a MarkUninitialized memory object holds,
// mirroring the self-flavors spec.md §3 lists on DIMemoryObjectInfo.
type MemoryKind int

const (
	MemoryVar             MemoryKind = iota // an ordinary local/stored-property aggregate
	MemoryRootSelf                          // self in a struct/enum's designated initializer
	MemoryClassRootSelf                     // self in a root class initializer
	MemoryDerivedSelf                       // self in a derived class's designated initializer
	MemoryDelegatingSelf                    // self in a convenience/delegating initializer
	MemoryEnumSelf                          // self in an enum initializer
)

// StoreQualifier tags a Store with the init/assign verdict AssignLowering
// (spec.md §4.8) ultimately resolves it to. StoreUnknown is the ambiguous
// "init-or-assign" state a front end emits when it cannot tell locally
// whether a destination has already been initialized.
type StoreQualifier int

const (
	StoreUnknown StoreQualifier = iota
	StoreInit
	StoreAssign
)

func (q StoreQualifier) String() string {
	switch q {
	case StoreInit:
		return "init"
	case StoreAssign:
		return "assign"
	default:
		return "unknown"
	}
}

// base carries the span every instruction needs and implements isInstr.
type base struct{ Span position.Span }

func (base) isInstr()             {}
func (b base) Loc() position.Span { return b.Span }

// AllocStack allocates a stack slot and returns its address.
type AllocStack struct {
	base
	Dst  string
	Elem *Type
	Name string // optional source name, for readability and PathString
}

// MarkUninitialized is the sentinel instruction (spec.md §1) that flags a
// memory object as requiring definite-initialization analysis. Addr is the
// address it wraps (typically the result of an AllocStack or a function
// parameter's address, for self in an initializer).
type MarkUninitialized struct {
	base
	Dst  string
	Addr Value
	Kind MemoryKind
}

// ElementAddr computes the address of element Index within a memory
// object's address, i.e. emit_element_address from spec.md §3.
type ElementAddr struct {
	base
	Dst   string
	Base  Value
	Index int
}

// Load reads the value stored at Addr.
type Load struct {
	base
	Dst  string
	Addr Value
}

// Store writes Val to Addr. Qualifier starts at StoreUnknown for an
// ambiguous init-or-assign store and is rewritten in place by
// AssignLowering once the verdict is known.
type Store struct {
	base
	Addr      Value
	Val       Value
	Qualifier StoreQualifier
}

// CopyAddr copies the value at Src to Dst. IsInitOfDst mirrors SIL's
// copy_addr [initialization] flag; AssignLowering only ever flips this
// flag in place (spec.md §4.8), it never rewrites a CopyAddr into
// load/store/release.
type CopyAddr struct {
	base
	Src, Dst    Value
	IsTakeOfSrc bool
	IsInitOfDst bool
}

// StoreWeak models a store to a weak or unowned reference slot. Like
// CopyAddr, only IsInitialization is ever flipped by AssignLowering.
type StoreWeak struct {
	base
	Addr             Value
	Val              Value
	IsInitialization bool
}

// DestroyAddr runs the destructor for the value at Addr in place, without
// deallocating the storage itself.
type DestroyAddr struct {
	base
	Addr Value
}

// ReleaseValue decrements the refcount of a loaded (non-address) value.
type ReleaseValue struct {
	base
	Val Value
}

// RetainValue increments the refcount of a loaded value.
type RetainValue struct {
	base
	Val Value
}

// DeallocStack frees a stack slot previously created by AllocStack. Must
// appear in strict LIFO nesting with other DeallocStack instructions in
// the same function, matching SIL's stack discipline.
type DeallocStack struct {
	base
	Addr Value
}

// DeallocRef frees a class instance's storage without running its
// deinitializer (the deinitializer is assumed to already have run, or
// never to have been fully initialized).
type DeallocRef struct {
	base
	Ref Value
}

// DeallocBox frees a boxed (heap-allocated, reference-counted) variable's
// storage.
type DeallocBox struct {
	base
	Box Value
}

// Br is an unconditional branch to Target.
type Br struct {
	base
	Target *BasicBlock
}

// CondBr branches to True if Cond is nonzero, else to False.
type CondBr struct {
	base
	Cond        Value
	True, False *BasicBlock
}

// Return terminates the function, optionally with a value.
type Return struct {
	base
	Val *Value
}

// Apply represents a call, direct or indirect. It stands in for every use
// kind spec.md §3 classifies that isn't a plain load/store of the memory
// itself: a super.init call, a delegating self.init call, an escape of a
// value into a closure or global, or a method call taking an argument by
// address. Which of those an Apply instance represents is a property of
// the Use record the collector produces for it, not of the Apply itself.
type Apply struct {
	base
	Dst    string
	Callee string
	Args   []Value
}

// IntegerLiteral materializes a constant of the given bit width.
type IntegerLiteral struct {
	base
	Dst   string
	Value uint64
	Width int
}

// Builtin invokes one of the pseudo-functions spec.md §6 names for
// initialization-bitmap arithmetic: or_IntW, lshr_IntW, trunc_IntW_Int1.
type Builtin struct {
	base
	Dst  string
	Name string
	Args []Value
}
