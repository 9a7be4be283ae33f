// Lifetime synthesis: for every struct type, synthesize the SLF functions
// (Default/Copy/Move/Destructor) that the user didn't define explicitly,
// subject to member triviality (spec.md §4.1). Grounded on
// original_source/lib/Sema/Analysis/Lifetime.{h,cc}.
package sema

import "github.com/cwbudde/go-dws/internal/sema/types"

// SynthesizedLifetime is the set of SLFs a struct ends up with after
// synthesis, whether user-defined or generated.
type SynthesizedLifetime struct {
	Default    *Function
	Copy       *Function
	Move       *Function
	Destructor *Function
}

// defaultConstructible is the predicate StructType.DefaultConstructible
// needs; builtins are always default-constructible, structs recurse, arrays
// defer to their element type, pointers are default-constructible (null).
func defaultConstructible(t types.ObjectType) bool {
	switch v := t.(type) {
	case *types.StructType:
		return v.DefaultConstructible(defaultConstructible)
	case *types.ArrayType:
		if !v.IsComplete() {
			return true // dynamic arrays default to empty
		}
		return defaultConstructible(v.Elem.Base)
	default:
		return true
	}
}

// SynthesizeLifetime fills in whichever of Default/Copy/Move/Destructor the
// user did not already provide in existing, subject to the trivial-lifetime
// invariant (spec.md §3.2). Functions synthesized here are installed with
// Kind=Generated and the corresponding SLF tag; their bodies are emitted by
// irgen on demand (field-wise construct/copy/move/destroy), not here —
// sema only decides *that* they exist and *what* their signature is.
func SynthesizeLifetime(st *types.StructType, existing SynthesizedLifetime) SynthesizedLifetime {
	out := existing
	selfRef := types.Qual(st, types.Mut)

	if out.Default == nil && st.DefaultConstructible(defaultConstructible) {
		fn := NewFunction("new")
		fn.Kind = Generated
		fn.SMF = SMFNew
		fn.SLF = SLFDefault
		fn.Sig = Signature{Params: []types.QualType{selfRef}, Return: types.Qual(types.Void, types.Const)}
		out.Default = fn
	}

	if out.Copy == nil && !st.HasUserCopy {
		fn := NewFunction("new")
		fn.Kind = Generated
		fn.SMF = SMFNew
		fn.SLF = SLFCopy
		fn.Sig = Signature{
			Params: []types.QualType{selfRef, types.Qual(st, types.Const)},
			Return: types.Qual(types.Void, types.Const),
		}
		out.Copy = fn
	}

	if out.Move == nil && !st.HasUserMove {
		fn := NewFunction("move")
		fn.Kind = Generated
		fn.SMF = SMFMove
		fn.SLF = SLFMove
		fn.Sig = Signature{
			Params: []types.QualType{selfRef, selfRef},
			Return: types.Qual(types.Void, types.Const),
		}
		out.Move = fn
	}

	if out.Destructor == nil && !st.HasUserDestructor {
		fn := NewFunction("delete")
		fn.Kind = Generated
		fn.SMF = SMFDelete
		fn.SLF = SLFDestructor
		fn.Sig = Signature{Params: []types.QualType{selfRef}, Return: types.Qual(types.Void, types.Const)}
		out.Destructor = fn
	}

	return out
}
