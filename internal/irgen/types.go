package irgen

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// loweredType maps a sema QualType to its IR representation. Mutability and
// reference-ness are erased here: references lower to plain ir.Ptr, with
// the QualType-level distinction retained only in sema (spec.md §4.2).
func (g *Generator) loweredType(qt types.QualType) ir.Type {
	if qt.Base == nil {
		return ir.Void
	}
	return g.loweredObjectType(qt.Base)
}

func (g *Generator) loweredObjectType(o types.ObjectType) ir.Type {
	switch t := o.(type) {
	case *types.BuiltinType:
		return loweredBuiltin(t)
	case *types.PointerType:
		return ir.Ptr
	case *types.StructType:
		return g.loweredStructType(t)
	case *types.ArrayType:
		if t.IsComplete() {
			return ir.ArrayType{Elem: g.loweredType(t.Elem), Count: t.Count}
		}
		return g.dynArrayType(t.Elem)
	default:
		return ir.Void
	}
}

func loweredBuiltin(b *types.BuiltinType) ir.Type {
	switch b.Kind {
	case types.KindVoid:
		return ir.Void
	case types.KindBool:
		return ir.I1
	case types.KindByte:
		return ir.I8
	case types.KindInt:
		switch b.Width {
		case 8:
			return ir.I8
		case 16:
			return ir.I16
		case 32:
			return ir.I32
		default:
			return ir.I64
		}
	case types.KindFloat:
		if b.Width == 32 {
			return ir.F32
		}
		return ir.F64
	case types.KindNullPtr:
		return ir.Ptr
	default:
		return ir.Void
	}
}

// loweredStructType lowers (and caches) a sema StructType to its ir.StructType,
// reusing the field offsets types.StructType.Layout already computed.
func (g *Generator) loweredStructType(st *types.StructType) *ir.StructType {
	if cached, ok := g.structTypes[st]; ok {
		return cached
	}
	out := &ir.StructType{Name: st.Name, StructSize: st.Size(), StructAlign: st.Align()}
	g.structTypes[st] = out // register before recursing, in case of self-reference via pointer fields
	for _, f := range st.Fields {
		out.FieldTypes = append(out.FieldTypes, g.loweredType(f.Type))
		out.Offsets = append(out.Offsets, f.Offset)
	}
	return out
}

// dynArrayType lowers a dynamic (count = Dynamic) array to the fat-pointer
// struct {ptr, len} representation (SPEC_FULL.md's dynamic-array ABI), cached
// per distinct element type.
func (g *Generator) dynArrayType(elem types.QualType) *ir.StructType {
	key := elem.String()
	if cached, ok := g.dynArrays[key]; ok {
		return cached
	}
	out := &ir.StructType{
		Name:        fmt.Sprintf("[%s]", key),
		FieldTypes:  []ir.Type{ir.Ptr, ir.I64},
		Offsets:     []int{0, 8},
		StructSize:  16,
		StructAlign: 8,
	}
	g.dynArrays[key] = out
	return out
}

func isFloatObjType(o types.ObjectType) bool {
	b, ok := o.(*types.BuiltinType)
	return ok && b.Kind == types.KindFloat
}

func isSignedObjType(o types.ObjectType) bool {
	b, ok := o.(*types.BuiltinType)
	return ok && b.Kind == types.KindInt && b.Signed
}
