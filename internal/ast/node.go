// Package ast defines the decorated Scatha syntax tree (spec.md §3.1).
//
// The node-family split (Node/Expression/Statement/Declaration marker
// interfaces, one struct per concrete node, String()/Pos() on every node)
// is grounded on the teacher's internal/ast/ast.go. Unlike the teacher,
// every node also tracks a parent back-link and an extended source range,
// and expression/statement/declaration nodes carry the extra decoration
// spec.md §3.1 requires.
//
// Decoration values (entity, type, constant) are stored behind the small
// local EntityRef/TypeRef interfaces declared below instead of concrete
// *sema.Entity / types.QualType references, so this package has zero
// dependency on internal/sema: any sema.Entity / types.QualType value
// already satisfies these interfaces structurally (same method sets), the
// same way database/sql's Scanner/Valuer decouple the driver from the
// caller. internal/sema and internal/irgen recover the concrete type with a
// type assertion where they need it. This keeps the dependency order of
// spec.md §2 intact (AST is consumed by Sema, not the other way around)
// without needing any AST decoration field to go through an intermediate
// side table.
package ast

// EntityRef is the minimal view of a semantic entity an AST node needs to
// carry: its name. sema.Entity values satisfy this automatically.
type EntityRef interface {
	Name() string
}

// TypeRef is the minimal view of a QualType an AST node needs to carry for
// printing/debugging. types.QualType values satisfy this automatically.
type TypeRef interface {
	String() string
}

// ValueCategory is LValue or RValue (GLOSSARY, spec.md §3.1).
type ValueCategory int

const (
	RValue ValueCategory = iota
	LValue
)

// EntityCategory mirrors sema.Category without importing sema (Value/Type/
// Namespace, spec.md §3.1).
type EntityCategory int

const (
	CatValue EntityCategory = iota
	CatType
	CatNamespace
)

// SourceRange is a half-open span of source positions. Line/Column are
// 1-based.
type SourceRange struct {
	File               string
	StartLine, StartCol int
	EndLine, EndCol     int
}

// NodeKind tags every concrete node type, the Go stand-in for the source's
// dyncast (see SPEC_FULL.md §3.1 / DESIGN NOTES).
type NodeKind int

const (
	KindTranslationUnit NodeKind = iota

	// Expressions
	KindIdentifier
	KindIntLiteral
	KindFloatLiteral
	KindBoolLiteral
	KindStringLiteral
	KindNullLiteral
	KindUnaryExpr
	KindBinaryExpr
	KindConditionalExpr
	KindCallExpr
	KindMemberAccessExpr
	KindSubscriptExpr
	KindListExpr
	KindMoveExpr
	KindConstructExpr

	// Statements
	KindBlockStatement
	KindExpressionStatement
	KindIfStatement
	KindWhileStatement
	KindDoWhileStatement
	KindForStatement
	KindReturnStatement
	KindBreakStatement
	KindContinueStatement

	// Declarations
	KindVariableDeclaration
	KindParamDeclaration
	KindFunctionDefinition
	KindStructDefinition
)

// Node is the base interface every AST node implements.
type Node interface {
	Kind() NodeKind
	Pos() SourceRange
	// ExtPos returns the extended source range: the union of Pos() and
	// every descendant's ExtPos() (spec.md §3.1 invariant, §8 "source-range
	// monotonicity").
	ExtPos() SourceRange
	Parent() Node
	setParent(Node)
	Children() []Node
	String() string
}

// Expression is any node that produces a value (spec.md §3.1).
type Expression interface {
	Node
	expressionNode()

	Entity() EntityRef
	SetEntity(EntityRef)
	Type() TypeRef
	SetType(TypeRef)
	ValueCategory() ValueCategory
	SetValueCategory(ValueCategory)
	EntityCategory() EntityCategory
	SetEntityCategory(EntityCategory)
	// ConstantValue returns the cached constant value, or (nil, false) if
	// the expression isn't constant.
	ConstantValue() (any, bool)
	SetConstantValue(any)
}

// Statement is a node that performs an action (spec.md §3.1).
type Statement interface {
	Node
	statementNode()

	// Destructors is the ordered list of objects whose destructors fire on
	// normal scope exit of this statement (spec.md §3.1, §4.2).
	Destructors() *ObjectStack
}

// Declaration is a Statement that additionally carries a declared entity
// and access specifier (spec.md §3.1).
type Declaration interface {
	Statement
	declarationNode()

	DeclaredEntity() EntityRef
	SetDeclaredEntity(EntityRef)
	Access() Access
	SetAccess(Access)
}

// Access mirrors sema.Access (Public/Private/Internal) without importing
// sema, for the same structural-decoupling reason as EntityRef/TypeRef.
type Access int

const (
	Public Access = iota
	Private
	Internal
)

// merge computes the union of two source ranges (used to build ExtPos).
func merge(a, b SourceRange) SourceRange {
	if a.File == "" {
		return b
	}
	if b.File == "" {
		return a
	}
	out := a
	if less(b.StartLine, b.StartCol, a.StartLine, a.StartCol) {
		out.StartLine, out.StartCol = b.StartLine, b.StartCol
	}
	if less(a.EndLine, a.EndCol, b.EndLine, b.EndCol) {
		out.EndLine, out.EndCol = b.EndLine, b.EndCol
	}
	return out
}

func less(l1, c1, l2, c2 int) bool {
	if l1 != l2 {
		return l1 < l2
	}
	return c1 < c2
}
