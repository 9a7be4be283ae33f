// Package types implements the Scatha type hierarchy: ObjectType (builtin,
// pointer, struct, array) and ReferenceType, plus QualType, the
// mutability-and-indirection-qualified value type every decorated
// expression carries (spec.md §3.1, §3.2).
//
// The teacher's (absent-but-tested) internal/types package models a flat
// Type interface with String()/TypeKind()/Equals(); this package keeps that
// same three-method shape and grows it into the builtin/struct/array/
// pointer/reference hierarchy spec.md §3.2 requires.
package types

import "fmt"

// Type is the common interface of every Scatha type (ObjectType and
// ReferenceType both implement it).
type Type interface {
	String() string
	TypeKind() string
	Equals(other Type) bool
}

// ObjectType is implemented by every non-reference type: builtins,
// pointers, structs, arrays.
type ObjectType interface {
	Type
	// Size in bytes, or -1 if the type is incomplete (e.g. a dynamic array).
	Size() int
	Align() int
	isObjectType()
}

// ---- Builtin types --------------------------------------------------------

// BuiltinKind discriminates the builtin type family.
type BuiltinKind int

const (
	KindVoid BuiltinKind = iota
	KindBool
	KindByte
	KindInt
	KindFloat
	KindNullPtr
)

// BuiltinType covers Void, Bool, Byte, Int(width,signedness), Float(width)
// and NullPtrType from spec.md §3.2.
type BuiltinType struct {
	Kind     BuiltinKind
	Width    int  // bit width, meaningful for KindInt/KindFloat
	Signed   bool // meaningful for KindInt
}

func (b *BuiltinType) isObjectType() {}

func (b *BuiltinType) TypeKind() string {
	switch b.Kind {
	case KindVoid:
		return "Void"
	case KindBool:
		return "Bool"
	case KindByte:
		return "Byte"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindNullPtr:
		return "NullPtr"
	default:
		return "Unknown"
	}
}

func (b *BuiltinType) String() string {
	switch b.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindInt:
		prefix := "u"
		if b.Signed {
			prefix = "s"
		}
		return fmt.Sprintf("%s%d", prefix, b.Width)
	case KindFloat:
		return fmt.Sprintf("f%d", b.Width)
	case KindNullPtr:
		return "nullptr_t"
	default:
		return "<bad-builtin>"
	}
}

func (b *BuiltinType) Equals(other Type) bool {
	o, ok := other.(*BuiltinType)
	if !ok {
		return false
	}
	return b.Kind == o.Kind && b.Width == o.Width && b.Signed == o.Signed
}

func (b *BuiltinType) Size() int {
	switch b.Kind {
	case KindVoid:
		return 0
	case KindBool, KindByte:
		return 1
	case KindInt, KindFloat:
		return b.Width / 8
	case KindNullPtr:
		return 8
	default:
		return -1
	}
}

func (b *BuiltinType) Align() int { return b.Size() }

// Canonical singletons, analogous to the teacher's INTEGER/FLOAT/STRING/
// BOOLEAN/NIL/VOID package vars in internal/types.
var (
	Void    = &BuiltinType{Kind: KindVoid}
	Bool    = &BuiltinType{Kind: KindBool}
	Byte    = &BuiltinType{Kind: KindByte}
	S8      = &BuiltinType{Kind: KindInt, Width: 8, Signed: true}
	S16     = &BuiltinType{Kind: KindInt, Width: 16, Signed: true}
	S32     = &BuiltinType{Kind: KindInt, Width: 32, Signed: true}
	S64     = &BuiltinType{Kind: KindInt, Width: 64, Signed: true}
	U8      = &BuiltinType{Kind: KindInt, Width: 8, Signed: false}
	U16     = &BuiltinType{Kind: KindInt, Width: 16, Signed: false}
	U32     = &BuiltinType{Kind: KindInt, Width: 32, Signed: false}
	U64     = &BuiltinType{Kind: KindInt, Width: 64, Signed: false}
	F32     = &BuiltinType{Kind: KindFloat, Width: 32}
	F64     = &BuiltinType{Kind: KindFloat, Width: 64}
	NullPtr = &BuiltinType{Kind: KindNullPtr}
)

// ---- Pointer types --------------------------------------------------------

// PointerKind distinguishes raw vs. unique (owning) pointers.
type PointerKind int

const (
	RawPtr PointerKind = iota
	UniquePtr
)

type PointerType struct {
	Kind PointerKind
	Base QualType
}

func (p *PointerType) isObjectType() {}
func (p *PointerType) Size() int     { return 8 }
func (p *PointerType) Align() int    { return 8 }

func (p *PointerType) TypeKind() string {
	if p.Kind == UniquePtr {
		return "UniquePtr"
	}
	return "RawPtr"
}

func (p *PointerType) String() string {
	if p.Kind == UniquePtr {
		return "*unique " + p.Base.String()
	}
	return "*" + p.Base.String()
}

func (p *PointerType) Equals(other Type) bool {
	o, ok := other.(*PointerType)
	return ok && p.Kind == o.Kind && p.Base.Equals(o.Base)
}

// ---- Struct types ----------------------------------------------------------

// Field describes one data member of a StructType, in declaration order.
type Field struct {
	Name   string
	Type   QualType
	Offset int
}

// StructType models a user-defined struct/class. Lifetime flags are
// computed by sema once the body is fully analyzed (spec.md §3.2 invariant:
// "a struct type has trivial lifetime iff no user-defined copy/move/
// destructor exists and every member has trivial lifetime").
type StructType struct {
	Name              string
	Fields            []Field
	HasUserCopy       bool
	HasUserMove       bool
	HasUserDestructor bool
	size              int
	align             int
}

func (s *StructType) isObjectType() {}
func (s *StructType) TypeKind() string { return "Struct" }
func (s *StructType) String() string   { return s.Name }
func (s *StructType) Size() int        { return s.size }
func (s *StructType) Align() int       { return s.align }

func (s *StructType) Equals(other Type) bool {
	o, ok := other.(*StructType)
	return ok && s == o // struct types are nominal: identity equality
}

// Layout assigns field offsets using natural alignment and sets the
// struct's own size/align. Called once by sema after all field types are
// resolved (instantiateEntities phase, spec.md §4.1).
func (s *StructType) Layout() {
	offset := 0
	maxAlign := 1
	for i := range s.Fields {
		f := &s.Fields[i]
		align := f.Type.Base.Align()
		if align < 1 {
			align = 1
		}
		if rem := offset % align; rem != 0 {
			offset += align - rem
		}
		f.Offset = offset
		offset += f.Type.Base.Size()
		if align > maxAlign {
			maxAlign = align
		}
	}
	if rem := offset % maxAlign; maxAlign > 0 && rem != 0 {
		offset += maxAlign - rem
	}
	s.size = offset
	s.align = maxAlign
}

// TrivialLifetime implements the spec.md §3.2 invariant.
func (s *StructType) TrivialLifetime() bool {
	if s.HasUserCopy || s.HasUserMove || s.HasUserDestructor {
		return false
	}
	for _, f := range s.Fields {
		if st, ok := f.Type.Base.(*StructType); ok {
			if !st.TrivialLifetime() {
				return false
			}
		}
	}
	return true
}

// DefaultConstructible implements "a struct defaults to default-
// constructible iff all members are default-constructible".
func (s *StructType) DefaultConstructible(defaultConstructible func(ObjectType) bool) bool {
	for _, f := range s.Fields {
		if !defaultConstructible(f.Type.Base) {
			return false
		}
	}
	return true
}

// ---- Array types ------------------------------------------------------------

// DynamicCount marks an ArrayType with a runtime-determined element count
// (spec.md §8: "Array types with count = Dynamic have size = Invalid,
// isComplete() = false").
const DynamicCount = -1

// InvalidSize is returned by Size() for incomplete array types.
const InvalidSize = -1

type ArrayType struct {
	Elem  QualType
	Count int // DynamicCount for a dynamic (fat-pointer) array
}

func (a *ArrayType) isObjectType() {}
func (a *ArrayType) TypeKind() string { return "Array" }

func (a *ArrayType) String() string {
	if a.Count == DynamicCount {
		return "[" + a.Elem.String() + "]"
	}
	return fmt.Sprintf("[%s, %d]", a.Elem.String(), a.Count)
}

func (a *ArrayType) Equals(other Type) bool {
	o, ok := other.(*ArrayType)
	return ok && a.Count == o.Count && a.Elem.Equals(o.Elem)
}

// IsComplete reports whether the array has a statically known size.
func (a *ArrayType) IsComplete() bool { return a.Count != DynamicCount }

func (a *ArrayType) Size() int {
	if !a.IsComplete() {
		return InvalidSize
	}
	return a.Elem.Base.Size() * a.Count
}

func (a *ArrayType) Align() int { return a.Elem.Base.Align() }
