package sema

import "github.com/cwbudde/go-dws/internal/sema/types"

// FunctionKind distinguishes how a Function's body is provided.
type FunctionKind int

const (
	Native FunctionKind = iota
	Generated
	Foreign
)

// Attribute is a bitset of function attributes (spec.md §3.2: "attributes
// (Pure, Const, …)").
type Attribute int

const (
	AttrNone Attribute = 0
	AttrPure Attribute = 1 << iota
	AttrConst
)

func (a Attribute) Has(f Attribute) bool { return a&f != 0 }

// SMFKind identifies a special member function: constructor family.
type SMFKind int

const (
	NotSMF SMFKind = iota
	SMFNew
	SMFDelete
	SMFMove
)

// SLFKind identifies a special *lifetime* function synthesized or
// user-defined on a struct (spec.md §3.2, §4.1).
type SLFKind int

const (
	NotSLF SLFKind = iota
	SLFDefault
	SLFCopy
	SLFMove
	SLFDestructor
)

// ThisReference resolves the Open Question in spec.md §9 about
// `ThisParameter::reference()`: confirmed (by exercising member-function
// lowering) to be a three-way enum, not a boolean.
type ThisReference int

const (
	ThisByValue ThisReference = iota
	ThisReference_
	ThisMutReference
)

// Signature is the resolved (or partially deduced) type of a function.
type Signature struct {
	Params     []types.QualType
	Return     types.QualType
	ReturnDeduced bool // true until the first `return` fixes Return (spec.md §4.1)
}

// Function is both an Entity and a Scope (spec.md §3.2: "Function (is a
// Scope)"): its parameters and locals live in its own scopeBase.
type Function struct {
	base
	scopeBase

	Sig        Signature
	Kind       FunctionKind
	Attrs      Attribute
	BinaryVis  Access // visibility of the compiled symbol, distinct from AccessSpec
	SMF        SMFKind
	SLF        SLFKind
	ForeignSlot  int // slot/index for FunctionKind==Foreign
	ForeignIndex int
	Address      int64 // binary address once compiled, -1 until then
	ThisRef      ThisReference
	IsMember     bool
}

func NewFunction(name string) *Function {
	f := &Function{
		base:      base{name: name, category: CategoryValue},
		scopeBase: newScopeBase(),
		Address:   -1,
	}
	return f
}

func (f *Function) EntityKind() EntityKind { return EntityFunction }

// IsSMF / IsSLF are convenience predicates used throughout BadSMF
// diagnostics (spec.md §7).
func (f *Function) IsSMF() bool { return f.SMF != NotSMF }
func (f *Function) IsSLF() bool { return f.SLF != NotSLF }

// OverloadSet is an ordered list of Function* sharing a name (spec.md
// §3.2), stored at the Name() the way the teacher stores `Symbol.Overloads
// []*Symbol` on the named Symbol.
type OverloadSet struct {
	base
	Functions []*Function
}

func NewOverloadSet(name string) *OverloadSet {
	return &OverloadSet{base: base{name: name, category: CategoryValue}}
}

func (o *OverloadSet) EntityKind() EntityKind { return EntityOverloadSet }

// Add appends f to the set.
func (o *OverloadSet) Add(f *Function) { o.Functions = append(o.Functions, f) }

// FindByExactParams implements spec.md §3.2: "supports 'find by exact
// parameter-type list'".
func (o *OverloadSet) FindByExactParams(params []types.QualType) (*Function, bool) {
next:
	for _, fn := range o.Functions {
		if len(fn.Sig.Params) != len(params) {
			continue
		}
		for i, p := range fn.Sig.Params {
			if !p.Equals(params[i]) {
				continue next
			}
		}
		return fn, true
	}
	return nil, false
}
