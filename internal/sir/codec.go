package sir

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lumen-lang/lumen/internal/position"
)

// EncodeModule serializes m to msgpack, the on-disk format lumen-di reads
// as its input: there is no source-level front end in this repository, so
// a module built through sir.Builder is handed to the CLI this way (spec.md
// §6 scopes input to "an IR builder API", and this is that API's
// persistence boundary).
func EncodeModule(m *Module) ([]byte, error) {
	return msgpack.Marshal(m)
}

// DecodeModule is the inverse of EncodeModule.
func DecodeModule(data []byte) (*Module, error) {
	var m Module
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("sir: decode module: %w", err)
	}

	return &m, nil
}

// Module round-trips through msgpack's default struct encoding. Function
// and BasicBlock have custom encoders below because they hold Instr, an
// interface, and msgpack (like every binary codec) needs a type tag to
// decode one back into the right concrete type. wireInstr carries that tag
// plus the instruction's fields.

// MarshalMsgpack implements msgpack.CustomEncoder for BasicBlock, wrapping
// each Instr in a wireInstr envelope before delegating to the default
// struct encoding for everything else.
func (b *BasicBlock) MarshalMsgpack() ([]byte, error) {
	wire := struct {
		Name   string
		Instrs []wireInstr
	}{Name: b.Name}

	for _, inst := range b.Instrs {
		w, err := encodeInstr(inst)
		if err != nil {
			return nil, err
		}

		wire.Instrs = append(wire.Instrs, w)
	}

	return msgpack.Marshal(wire)
}

// UnmarshalMsgpack implements msgpack.CustomDecoder for BasicBlock. Func is
// left nil and nothing sets it afterward: Function's decoder builds its
// blocks from wireBlock directly and does not go through this method.
func (b *BasicBlock) UnmarshalMsgpack(data []byte) error {
	var wire struct {
		Name   string
		Instrs []wireInstr
	}

	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return err
	}

	b.Name = wire.Name
	b.Instrs = make([]Instr, 0, len(wire.Instrs))

	for _, w := range wire.Instrs {
		inst, err := decodeInstr(w)
		if err != nil {
			return err
		}

		b.Instrs = append(b.Instrs, inst)
	}

	return nil
}

// MarshalMsgpack implements msgpack.CustomEncoder for Function, since Br
// and CondBr instructions reachable through Instrs hold *BasicBlock
// pointers by identity, not by name — plain struct encoding would follow
// them and duplicate every block reachable from a branch. Blocks are
// instead encoded once, by index, and branch targets are rewritten to
// block indices on the wire.
func (f *Function) MarshalMsgpack() ([]byte, error) {
	index := make(map[*BasicBlock]int, len(f.Blocks))
	for i, b := range f.Blocks {
		index[b] = i
	}

	wire := wireFunction{
		Name:       f.Name,
		Parameters: f.Parameters,
		EntryIndex: index[f.Entry],
		NextID:     f.nextID,
		NextName:   f.nextName,
	}

	for _, b := range f.Blocks {
		wb := wireBlock{Name: b.Name}

		for _, inst := range b.Instrs {
			w, err := encodeInstrWithBlockIndex(inst, index)
			if err != nil {
				return nil, err
			}

			wb.Instrs = append(wb.Instrs, w)
		}

		wire.Blocks = append(wire.Blocks, wb)
	}

	return msgpack.Marshal(wire)
}

// UnmarshalMsgpack implements msgpack.CustomDecoder for Function, the
// inverse of MarshalMsgpack: blocks are created up front so branch targets
// can be resolved by index, then instructions are decoded into them.
func (f *Function) UnmarshalMsgpack(data []byte) error {
	var wire wireFunction
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return err
	}

	f.Name = wire.Name
	f.Parameters = wire.Parameters
	f.nextID = wire.NextID
	f.nextName = wire.NextName
	f.Blocks = make([]*BasicBlock, len(wire.Blocks))

	for i, wb := range wire.Blocks {
		f.Blocks[i] = &BasicBlock{Name: wb.Name, Func: f}
	}

	for i, wb := range wire.Blocks {
		for _, w := range wb.Instrs {
			inst, err := decodeInstrWithBlocks(w, f.Blocks)
			if err != nil {
				return err
			}

			f.Blocks[i].Instrs = append(f.Blocks[i].Instrs, inst)
		}
	}

	if wire.EntryIndex >= 0 && wire.EntryIndex < len(f.Blocks) {
		f.Entry = f.Blocks[wire.EntryIndex]
	}

	return nil
}

type wireFunction struct {
	Name       string
	Parameters []Value
	Blocks     []wireBlock
	EntryIndex int
	NextID     int
	NextName   int
}

type wireBlock struct {
	Name   string
	Instrs []wireInstr
}

// wireInstr is the tagged-union envelope for one instruction. Branch
// targets are stored as block indices (BlockRef/BlockRef2) rather than
// reconstructed *BasicBlock pointers; Op-specific scalar fields ride along
// in the named fields below rather than a generic map, so a decode error
// on an unknown Op is the only dynamic-typing risk in this file.
type wireInstr struct {
	Op  string
	Loc position.Span

	Dst, Name, Callee string
	Addr, Val, Base   Value
	Src, Cond         Value
	Ref, Box, Elem    Value
	IsTakeOfSrc       bool
	IsInitOfDst       bool
	IsInitialization  bool
	Qualifier         StoreQualifier
	Kind              MemoryKind
	Index             int
	Width             int
	Value             uint64
	Args              []Value
	ElemType          *Type
	HasVal            bool
	RetVal            Value
	BlockRef          int
	BlockRef2         int
	HasBlockRef       bool
	HasBlockRef2      bool
}

func encodeInstr(inst Instr) (wireInstr, error) {
	return encodeInstrWithBlockIndex(inst, nil)
}

func encodeInstrWithBlockIndex(inst Instr, index map[*BasicBlock]int) (wireInstr, error) {
	w := wireInstr{Loc: inst.Loc()}

	switch i := inst.(type) {
	case *AllocStack:
		w.Op, w.Dst, w.ElemType, w.Name = "AllocStack", i.Dst, i.Elem, i.Name
	case *MarkUninitialized:
		w.Op, w.Dst, w.Addr, w.Kind = "MarkUninitialized", i.Dst, i.Addr, i.Kind
	case *ElementAddr:
		w.Op, w.Dst, w.Base, w.Index = "ElementAddr", i.Dst, i.Base, i.Index
	case *Load:
		w.Op, w.Dst, w.Addr = "Load", i.Dst, i.Addr
	case *Store:
		w.Op, w.Addr, w.Val, w.Qualifier = "Store", i.Addr, i.Val, i.Qualifier
	case *CopyAddr:
		w.Op, w.Src, w.Addr, w.IsTakeOfSrc, w.IsInitOfDst = "CopyAddr", i.Src, i.Dst, i.IsTakeOfSrc, i.IsInitOfDst
	case *StoreWeak:
		w.Op, w.Addr, w.Val, w.IsInitialization = "StoreWeak", i.Addr, i.Val, i.IsInitialization
	case *DestroyAddr:
		w.Op, w.Addr = "DestroyAddr", i.Addr
	case *ReleaseValue:
		w.Op, w.Val = "ReleaseValue", i.Val
	case *RetainValue:
		w.Op, w.Val = "RetainValue", i.Val
	case *DeallocStack:
		w.Op, w.Addr = "DeallocStack", i.Addr
	case *DeallocRef:
		w.Op, w.Ref = "DeallocRef", i.Ref
	case *DeallocBox:
		w.Op, w.Box = "DeallocBox", i.Box
	case *Br:
		w.Op = "Br"
		if index != nil {
			w.BlockRef, w.HasBlockRef = index[i.Target], true
		}
	case *CondBr:
		w.Op, w.Cond = "CondBr", i.Cond
		if index != nil {
			w.BlockRef, w.HasBlockRef = index[i.True], true
			w.BlockRef2, w.HasBlockRef2 = index[i.False], true
		}
	case *Return:
		w.Op = "Return"
		if i.Val != nil {
			w.HasVal, w.RetVal = true, *i.Val
		}
	case *Apply:
		w.Op, w.Dst, w.Callee, w.Args = "Apply", i.Dst, i.Callee, i.Args
	case *IntegerLiteral:
		w.Op, w.Dst, w.Value, w.Width = "IntegerLiteral", i.Dst, i.Value, i.Width
	case *Builtin:
		w.Op, w.Dst, w.Name, w.Args = "Builtin", i.Dst, i.Name, i.Args
	default:
		return wireInstr{}, fmt.Errorf("sir: no wire encoding for instruction type %T", inst)
	}

	return w, nil
}

func decodeInstr(w wireInstr) (Instr, error) {
	return decodeInstrWithBlocks(w, nil)
}

func decodeInstrWithBlocks(w wireInstr, blocks []*BasicBlock) (Instr, error) {
	b := base{Span: w.Loc}

	blockAt := func(idx int, ok bool) *BasicBlock {
		if !ok || blocks == nil || idx < 0 || idx >= len(blocks) {
			return nil
		}

		return blocks[idx]
	}

	switch w.Op {
	case "AllocStack":
		return &AllocStack{base: b, Dst: w.Dst, Elem: w.ElemType, Name: w.Name}, nil
	case "MarkUninitialized":
		return &MarkUninitialized{base: b, Dst: w.Dst, Addr: w.Addr, Kind: w.Kind}, nil
	case "ElementAddr":
		return &ElementAddr{base: b, Dst: w.Dst, Base: w.Base, Index: w.Index}, nil
	case "Load":
		return &Load{base: b, Dst: w.Dst, Addr: w.Addr}, nil
	case "Store":
		return &Store{base: b, Addr: w.Addr, Val: w.Val, Qualifier: w.Qualifier}, nil
	case "CopyAddr":
		return &CopyAddr{base: b, Src: w.Src, Dst: w.Addr, IsTakeOfSrc: w.IsTakeOfSrc, IsInitOfDst: w.IsInitOfDst}, nil
	case "StoreWeak":
		return &StoreWeak{base: b, Addr: w.Addr, Val: w.Val, IsInitialization: w.IsInitialization}, nil
	case "DestroyAddr":
		return &DestroyAddr{base: b, Addr: w.Addr}, nil
	case "ReleaseValue":
		return &ReleaseValue{base: b, Val: w.Val}, nil
	case "RetainValue":
		return &RetainValue{base: b, Val: w.Val}, nil
	case "DeallocStack":
		return &DeallocStack{base: b, Addr: w.Addr}, nil
	case "DeallocRef":
		return &DeallocRef{base: b, Ref: w.Ref}, nil
	case "DeallocBox":
		return &DeallocBox{base: b, Box: w.Box}, nil
	case "Br":
		return &Br{base: b, Target: blockAt(w.BlockRef, w.HasBlockRef)}, nil
	case "CondBr":
		return &CondBr{base: b, Cond: w.Cond, True: blockAt(w.BlockRef, w.HasBlockRef), False: blockAt(w.BlockRef2, w.HasBlockRef2)}, nil
	case "Return":
		if w.HasVal {
			v := w.RetVal

			return &Return{base: b, Val: &v}, nil
		}

		return &Return{base: b}, nil
	case "Apply":
		return &Apply{base: b, Dst: w.Dst, Callee: w.Callee, Args: w.Args}, nil
	case "IntegerLiteral":
		return &IntegerLiteral{base: b, Dst: w.Dst, Value: w.Value, Width: w.Width}, nil
	case "Builtin":
		return &Builtin{base: b, Dst: w.Dst, Name: w.Name, Args: w.Args}, nil
	default:
		return nil, fmt.Errorf("sir: unknown instruction op %q", w.Op)
	}
}
