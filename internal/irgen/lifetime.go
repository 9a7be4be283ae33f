package irgen

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// lifetimeBuilder emits the body of one synthesized special-lifetime
// function (new/copy/move/delete) for a struct, grounded on
// original_source/lib/Sema/Analysis/Lifetime.cc's memberwise recursion: each
// field is handled by its own type's lifetime operation, not inlined.
type lifetimeBuilder struct {
	g    *Generator
	st   *types.StructType
	irFn *ir.Function
	cur  *ir.BasicBlock

	blockSeq int
	tmp      int
}

func (b *lifetimeBuilder) newBlock(name string) *ir.BasicBlock {
	b.blockSeq++
	bb := ir.NewBasicBlock(fmt.Sprintf("%s.%d", name, b.blockSeq))
	b.irFn.AddBlock(bb)
	return bb
}

func (b *lifetimeBuilder) tmpName(base string) string {
	b.tmp++
	return fmt.Sprintf("%s%d", base, b.tmp)
}

// self is the `this` parameter: a pointer to the struct being constructed/
// destroyed, always operand 0 of a lifetime function.
func (b *lifetimeBuilder) self() ir.Value { return b.irFn.Params[0] }

// other is the second operand (the copy/move source), valid only for
// copy/move.
func (b *lifetimeBuilder) other() ir.Value { return b.irFn.Params[1] }

func (b *lifetimeBuilder) fieldAddr(base ir.Value, f types.Field, name string) *ir.Instruction {
	gep := ir.NewGEP(b.tmpName(name), base, f.Offset, ir.Ptr)
	b.cur.PushInst(gep)
	return gep
}

// buildDefault zero/default-constructs every field in declaration order.
func (b *lifetimeBuilder) buildDefault() {
	self := b.self()
	for _, f := range b.st.Fields {
		addr := b.fieldAddr(self, f, "field")
		if fst, ok := f.Type.Base.(*types.StructType); ok {
			if !fst.TrivialLifetime() {
				lt := b.g.lifetimeFunctions(fst)
				if ctor := b.g.functions[lt.Default]; ctor != nil {
					b.cur.PushInst(ir.NewCall("", ctor, []ir.Value{addr}, ir.Void))
					continue
				}
			}
			continue
		}
		typ := b.g.loweredType(f.Type)
		b.cur.PushInst(ir.NewStore(addr, zeroValue(typ)))
	}
}

// buildCopy copy-constructs every field from other into self.
func (b *lifetimeBuilder) buildCopy() {
	self, other := b.self(), b.other()
	for _, f := range b.st.Fields {
		dst := b.fieldAddr(self, f, "dst")
		src := b.fieldAddr(other, f, "src")
		if fst, ok := f.Type.Base.(*types.StructType); ok {
			if !fst.TrivialLifetime() {
				lt := b.g.lifetimeFunctions(fst)
				if cpy := b.g.functions[lt.Copy]; cpy != nil {
					b.cur.PushInst(ir.NewCall("", cpy, []ir.Value{dst, src}, ir.Void))
					continue
				}
			}
		}
		typ := b.g.loweredType(f.Type)
		load := ir.NewLoad(b.tmpName("val"), src, typ)
		b.cur.PushInst(load)
		b.cur.PushInst(ir.NewStore(dst, load))
	}
}

// buildMove move-constructs every field out of other into self, leaving
// other's fields in their (irrelevant, about-to-be-destroyed) moved-from
// state — the same contract the teacher's value-stack interpreter gives
// moved-from locals.
func (b *lifetimeBuilder) buildMove() {
	self, other := b.self(), b.other()
	for _, f := range b.st.Fields {
		dst := b.fieldAddr(self, f, "dst")
		src := b.fieldAddr(other, f, "src")
		if fst, ok := f.Type.Base.(*types.StructType); ok {
			if !fst.TrivialLifetime() {
				lt := b.g.lifetimeFunctions(fst)
				if mv := b.g.functions[lt.Move]; mv != nil {
					b.cur.PushInst(ir.NewCall("", mv, []ir.Value{dst, src}, ir.Void))
					continue
				}
			}
		}
		typ := b.g.loweredType(f.Type)
		load := ir.NewLoad(b.tmpName("val"), src, typ)
		b.cur.PushInst(load)
		b.cur.PushInst(ir.NewStore(dst, load))
	}
}

// buildDestructor destroys every non-trivially-lifetimed field, in reverse
// declaration order (spec.md §4.2's general "reverse stack order" rule
// applied to member destruction).
func (b *lifetimeBuilder) buildDestructor() {
	self := b.self()
	for i := len(b.st.Fields) - 1; i >= 0; i-- {
		f := b.st.Fields[i]
		fst, ok := f.Type.Base.(*types.StructType)
		if !ok || fst.TrivialLifetime() {
			continue
		}
		addr := b.fieldAddr(self, f, "field")
		lt := b.g.lifetimeFunctions(fst)
		if dtor := b.g.functions[lt.Destructor]; dtor != nil {
			b.cur.PushInst(ir.NewCall("", dtor, []ir.Value{addr}, ir.Void))
		}
	}
}
