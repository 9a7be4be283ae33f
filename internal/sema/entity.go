// Package sema implements the Scatha symbol table and the three-phase
// semantic analyzer described in spec.md §3.2 and §4.1: gatherNames,
// instantiateEntities, analyzeFunctionBodies.
//
// The Entity/Scope hierarchy is grounded on the teacher's
// internal/semantic.SymbolTable (a scope-chain of `map[string]*Symbol` with
// an `outer *SymbolTable` pointer), generalized into the richer
// Entity/Object/Scope/Type hierarchy spec.md §3.2 requires, and on
// original_source/include/scatha/Sema/Entity.h for the exact member set of
// each entity kind.
package sema

import (
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// Category discriminates what kind of thing an Entity names, mirroring the
// AST's "entity category" decoration (spec.md §3.1: Value/Type/Namespace).
type Category int

const (
	CategoryValue Category = iota
	CategoryType
	CategoryNamespace
)

// Access is the access specifier carried by every Entity (spec.md §3.2).
type Access int

const (
	Public Access = iota
	Private
	Internal
)

// Entity is the base of the single rooted hierarchy from spec.md §3.2.
// Concrete kinds (Object, Scope, Type, OverloadSet, Function, Generic,
// PoisonEntity) embed base, implement Entity and are distinguished by EntityKind(), Go's
// answer to the source's dyncast idiom (see DESIGN NOTES).
type Entity interface {
	Name() string
	MangledName() string
	Parent() Scope
	setParent(Scope)
	Category() Category
	AccessSpec() Access
	EntityKind() EntityKind
}

// EntityKind enumerates every concrete Entity type for type-switch-free
// dispatch where a tag is more convenient than a Go type switch.
type EntityKind int

const (
	EntityVariable EntityKind = iota
	EntityProperty
	EntityTemporary
	EntityGlobalScope
	EntityAnonymousScope
	EntityFunctionScope
	EntityTypeScope
	EntityBuiltinType
	EntityPointerType
	EntityStructType
	EntityArrayType
	EntityReferenceType
	EntityOverloadSet
	EntityFunction
	EntityGeneric
	EntityPoison
)

// base is embedded by every concrete entity to provide the common fields:
// one or more names (most entities have exactly one; overload-set members
// share a name), a mangled name cache, the parent scope, category and
// access specifier, and an optional back-pointer to the defining AST node
// (spec.md §3.2: "optional back-pointer to defining AST node" — stored as
// `any` here since internal/ast is a higher layer that would create an
// import cycle if referenced directly; irgen and sema callers type-assert
// it to *ast.Declaration where needed).
type base struct {
	name       string
	mangled    string
	parent     Scope
	category   Category
	access     Access
	defNode    any
}

func (b *base) Name() string         { return b.name }
func (b *base) MangledName() string  { return b.mangled }
func (b *base) Parent() Scope        { return b.parent }
func (b *base) setParent(s Scope)    { b.parent = s }
func (b *base) Category() Category   { return b.category }
func (b *base) AccessSpec() Access   { return b.access }
func (b *base) DefNode() any         { return b.defNode }
func (b *base) SetDefNode(n any)     { b.defNode = n }

// ---- Object (Variable/Property/Temporary) ---------------------------------

// Object is an Entity that has a Type and mutability: Variable, Property,
// Temporary (spec.md §3.2).
type Object struct {
	base
	kind       EntityKind
	Type       types.QualType
	ConstValue any // compile-time constant, nil if not constant
}

func NewVariable(name string, t types.QualType) *Object {
	return &Object{base: base{name: name, category: CategoryValue}, kind: EntityVariable, Type: t}
}

func NewProperty(name string, t types.QualType) *Object {
	return &Object{base: base{name: name, category: CategoryValue}, kind: EntityProperty, Type: t}
}

func NewTemporary(t types.QualType) *Object {
	return &Object{base: base{name: "<temporary>", category: CategoryValue}, kind: EntityTemporary, Type: t}
}

func (o *Object) EntityKind() EntityKind { return o.kind }

// IsMut reports whether the object may be written through.
func (o *Object) IsMut() bool { return o.Type.IsMut() }

// PoisonEntity is the sentinel installed in place of an entity whose
// declaration failed analysis, so later lookups fail silently instead of
// cascading further diagnostics (spec.md §4.1, §7).
type PoisonEntity struct {
	base
}

var poison = &PoisonEntity{base: base{name: "<poison>"}}

// Poison returns the process-wide poison sentinel.
func Poison() *PoisonEntity { return poison }

func (p *PoisonEntity) EntityKind() EntityKind { return EntityPoison }

// IsPoison reports whether e is the poison sentinel, the Go equivalent of
// the source's "unqualified lookup fails on PoisonEntity silently" check.
func IsPoison(e Entity) bool {
	_, ok := e.(*PoisonEntity)
	return ok
}

// Generic models an uninstantiated generic entity (template), tracked but
// not expanded by this middle end (out of scope per spec.md's AST/Sema
// layer boundary beyond acknowledging the entity kind exists).
type Generic struct {
	base
}

func (g *Generic) EntityKind() EntityKind { return EntityGeneric }
