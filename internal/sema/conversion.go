// Conversion implements spec.md §4.1's conversion model: a pair of
// ⟨refConversion, objectConversion⟩ applied per call argument during
// overload resolution, grounded on
// original_source/lib/Sema/Analysis/OverloadResolution.{h,cc} for the
// Success/NoMatch/Ambiguous result shape.
package sema

import "github.com/cwbudde/go-dws/internal/sema/types"

// RefConversion is applied to the value-category/reference layer of an
// argument before the object conversion.
type RefConversion int

const (
	RefNone RefConversion = iota
	RefDereference
	RefMaterializeTemporary
)

// ObjConversion enumerates every object-level conversion from spec.md §4.1.
type ObjConversion int

const (
	ObjNone ObjConversion = iota
	ObjArrayFixedToDynamic
	ObjReinterpretArrayToByte
	ObjReinterpretArrayFromByte
	ObjReinterpretValue
	ObjSSTrunc
	ObjSSWiden
	ObjSUTrunc
	ObjSUWiden
	ObjUSTrunc
	ObjUSWiden
	ObjUUTrunc
	ObjUUWiden
	ObjFloatTrunc
	ObjFloatWiden
	ObjSignedToFloat
	ObjUnsignedToFloat
	ObjFloatToSigned
	ObjFloatToUnsigned
)

// Conversion is the full conversion applied to one call argument.
type Conversion struct {
	Ref ObjConversionPair
}

// ObjConversionPair keeps the pair explicit (rather than a single struct
// field) so call sites read as `⟨ref, obj⟩` the way spec.md §4.1 writes it.
type ObjConversionPair struct {
	Ref RefConversion
	Obj ObjConversion
}

// IsImplicit implements: "A conversion is implicit iff it never loses
// information and does not weaken mutability." Lossy narrowing conversions
// (*Trunc, FloatToSigned/Unsigned) and reinterpret casts are never implicit;
// everything else is.
func (c ObjConversionPair) IsImplicit() bool {
	switch c.Obj {
	case ObjSSTrunc, ObjSUTrunc, ObjUSTrunc, ObjUUTrunc, ObjFloatTrunc,
		ObjFloatToSigned, ObjFloatToUnsigned,
		ObjReinterpretArrayToByte, ObjReinterpretArrayFromByte, ObjReinterpretValue:
		return false
	default:
		return true
	}
}

// classifyIntConversion picks the {SS,SU,US,UU}_{Trunc,Widen} tag for
// converting between two integer BuiltinTypes.
func classifyIntConversion(from, to *types.BuiltinType) (ObjConversion, bool) {
	if from.Kind != types.KindInt || to.Kind != types.KindInt {
		return ObjNone, false
	}
	widen := to.Width > from.Width
	switch {
	case from.Signed && to.Signed:
		if widen {
			return ObjSSWiden, true
		}
		return ObjSSTrunc, true
	case from.Signed && !to.Signed:
		if widen {
			return ObjSUWiden, true
		}
		return ObjSUTrunc, true
	case !from.Signed && to.Signed:
		if widen {
			return ObjUSWiden, true
		}
		return ObjUSTrunc, true
	default:
		if widen {
			return ObjUUWiden, true
		}
		return ObjUUTrunc, true
	}
}

// ComputeConversion finds a conversion (possibly ObjNone) from `from` to
// `to`, or reports none exists. This is the per-argument step
// performOverloadResolution scores (spec.md §4.1).
func ComputeConversion(from, to types.QualType) (ObjConversionPair, bool) {
	if from.Base.Equals(to.Base) {
		if from.Mutability == to.Mutability || to.Mutability == types.Const {
			return ObjConversionPair{}, true
		}
		return ObjConversionPair{}, false // widening const->mut is never implicit
	}

	fromB, fromOK := from.Base.(*types.BuiltinType)
	toB, toOK := to.Base.(*types.BuiltinType)
	if fromOK && toOK {
		if fromB.Kind == types.KindInt && toB.Kind == types.KindFloat {
			if fromB.Signed {
				return ObjConversionPair{Obj: ObjSignedToFloat}, true
			}
			return ObjConversionPair{Obj: ObjUnsignedToFloat}, true
		}
		if fromB.Kind == types.KindFloat && toB.Kind == types.KindInt {
			if toB.Signed {
				return ObjConversionPair{Obj: ObjFloatToSigned}, true
			}
			return ObjConversionPair{Obj: ObjFloatToUnsigned}, true
		}
		if fromB.Kind == types.KindFloat && toB.Kind == types.KindFloat {
			if toB.Width > fromB.Width {
				return ObjConversionPair{Obj: ObjFloatWiden}, true
			}
			return ObjConversionPair{Obj: ObjFloatTrunc}, true
		}
		if k, ok := classifyIntConversion(fromB, toB); ok {
			return ObjConversionPair{Obj: k}, true
		}
	}

	if fromArr, ok := from.Base.(*types.ArrayType); ok {
		if toArr, ok := to.Base.(*types.ArrayType); ok {
			if fromArr.IsComplete() && !toArr.IsComplete() && fromArr.Elem.Equals(toArr.Elem) {
				return ObjConversionPair{Obj: ObjArrayFixedToDynamic}, true
			}
		}
	}

	return ObjConversionPair{}, false
}
