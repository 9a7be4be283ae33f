package types

// Mutability qualifies a QualType the way `const`/`mut` does in Scatha
// source.
type Mutability int

const (
	Const Mutability = iota
	Mut
)

func (m Mutability) String() string {
	if m == Mut {
		return "mut"
	}
	return "const"
}

// QualType is a value type qualified by mutability, per the GLOSSARY entry
// and spec.md §3.2 ("QualType equality is structural over (base type
// identity, mutability, reference/pointer indirections)"). Reference-ness
// is modeled separately via ReferenceType wrapping a QualType, matching
// spec.md §3.2's Entity hierarchy (`ReferenceType` sits beside, not inside,
// `ObjectType`).
type QualType struct {
	Base       ObjectType
	Mutability Mutability
}

// Qual constructs a QualType, mirroring call sites like
// `types.Qual(types.S64, types.Const)`.
func Qual(base ObjectType, mut Mutability) QualType {
	return QualType{Base: base, Mutability: mut}
}

func (q QualType) String() string {
	if q.Base == nil {
		return "<null-type>"
	}
	if q.Mutability == Mut {
		return "mut " + q.Base.String()
	}
	return q.Base.String()
}

// Equals implements the structural equality invariant of spec.md §3.2.
func (q QualType) Equals(other QualType) bool {
	if q.Base == nil || other.Base == nil {
		return q.Base == other.Base
	}
	return q.Mutability == other.Mutability && q.Base.Equals(other.Base)
}

// IsMut reports whether the qualified type is mutable.
func (q QualType) IsMut() bool { return q.Mutability == Mut }

// ReferenceType models `ReferenceType` from spec.md §3.2: a reference to a
// QualType, kept as a distinct sema-level identity from the pointer types
// that IR lowering uses to represent it (spec.md §4.2: "References lower to
// IR pointers with distinct QualType-level identity retained in sema only").
type ReferenceType struct {
	Referent QualType
}

func (r *ReferenceType) TypeKind() string { return "Reference" }
func (r *ReferenceType) String() string   { return "&" + r.Referent.String() }

func (r *ReferenceType) Equals(other Type) bool {
	o, ok := other.(*ReferenceType)
	return ok && r.Referent.Equals(o.Referent)
}
