package pipeline

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/definit"
	"github.com/lumen-lang/lumen/internal/sir"
)

// ObjectsFromModule finds every MarkUninitialized instruction in mod and
// wraps it as a single-element Object, the memory-object discovery spec.md
// §6 Input describes ("a memory object is any MarkUninitialized
// instruction's Addr"). A multi-element aggregate needs a front end to
// supply per-field ElementInfo that plain sir has no room to carry (see
// definit.Memory's doc comment), so a module built by hand for that case
// constructs its own []Object rather than going through this helper.
func ObjectsFromModule(mod *sir.Module) []Object {
	var objects []Object

	for _, fn := range mod.Functions {
		for _, mark := range definit.FindMarkUninitialized(fn) {
			elemType := elementTypeOf(fn, mark)
			name := fmt.Sprintf("%s.%s", fn.Name, mark.Dst)

			objects = append(objects, Object{
				Name:   name,
				Memory: definit.NewVariableMemory(mark, fn, mark.Dst, elemType, false),
			})
		}
	}

	return objects
}

// elementTypeOf recovers the type of the memory mark.Addr wraps by looking
// for the AllocStack that produced it; a mark over a function parameter's
// address (no AllocStack in this function) falls back to a generic
// non-trivial type, since in-module type info otherwise only lives on
// AllocStack.
func elementTypeOf(fn *sir.Function, mark *sir.MarkUninitialized) *sir.Type {
	if mark.Addr.Kind == sir.ValRef {
		for _, b := range fn.Blocks {
			for _, inst := range b.Instrs {
				if alloc, ok := inst.(*sir.AllocStack); ok && alloc.Dst == mark.Addr.Ref {
					return alloc.Elem
				}
			}
		}
	}

	return &sir.Type{Name: "Any", IsTrivial: false}
}
