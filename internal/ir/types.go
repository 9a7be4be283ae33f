package ir

import "fmt"

// IntType/FloatType/PtrType/ArrayType/StructType/VoidType are the IR-level
// type set: strictly simpler than sema's QualType since mutability and
// reference-ness are erased by lowering (spec.md §4.2: "references lower to
// IR pointers... QualType identity retained in sema only").

type VoidType struct{}

func (VoidType) String() string { return "void" }
func (VoidType) Size() int      { return 0 }
func (VoidType) Align() int     { return 1 }

var Void Type = VoidType{}

type IntType struct{ Width int }

func (t IntType) String() string { return fmt.Sprintf("i%d", t.Width) }
func (t IntType) Size() int      { return t.Width / 8 }
func (t IntType) Align() int     { return t.Size() }

var (
	I1  Type = IntType{1}
	I8  Type = IntType{8}
	I16 Type = IntType{16}
	I32 Type = IntType{32}
	I64 Type = IntType{64}
)

type FloatType struct{ Width int }

func (t FloatType) String() string { return fmt.Sprintf("f%d", t.Width) }
func (t FloatType) Size() int      { return t.Width / 8 }
func (t FloatType) Align() int     { return t.Size() }

var (
	F32 Type = FloatType{32}
	F64 Type = FloatType{64}
)

// PtrType is an opaque pointer — the IR doesn't track pointee types past
// lowering, matching the teacher's flat-value-stack model where every
// pointer is just an 8-byte address.
type PtrType struct{}

func (PtrType) String() string { return "ptr" }
func (PtrType) Size() int      { return 8 }
func (PtrType) Align() int     { return 8 }

var Ptr Type = PtrType{}

// ArrayType is a fixed-count aggregate of a homogeneous element type.
type ArrayType struct {
	Elem  Type
	Count int
}

func (t ArrayType) String() string { return fmt.Sprintf("[%s x %d]", t.Elem.String(), t.Count) }
func (t ArrayType) Size() int      { return t.Elem.Size() * t.Count }
func (t ArrayType) Align() int     { return t.Elem.Align() }

// StructType is a laid-out aggregate; field offsets are precomputed by
// irgen from the corresponding sema.types.StructType.Layout().
type StructType struct {
	Name       string
	FieldTypes []Type
	Offsets    []int
	StructSize int
	StructAlign int
}

func (t *StructType) String() string { return t.Name }
func (t *StructType) Size() int      { return t.StructSize }
func (t *StructType) Align() int     { return t.StructAlign }
