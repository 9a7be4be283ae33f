package ast

import "fmt"

// nodeBase implements the Node plumbing (parent link, child list, extended
// range caching) shared by every concrete node. Embedded first in every
// node struct, the same way the teacher embeds a lexer.Token field in every
// node for position tracking.
type nodeBase struct {
	pos      SourceRange
	parent   Node
	children []Node
	extCache *SourceRange
}

func (n *nodeBase) Pos() SourceRange { return n.pos }

func (n *nodeBase) ExtPos() SourceRange {
	if n.extCache != nil {
		return *n.extCache
	}
	ext := n.pos
	for _, c := range n.children {
		ext = merge(ext, c.ExtPos())
	}
	n.extCache = &ext
	return ext
}

func (n *nodeBase) Parent() Node     { return n.parent }
func (n *nodeBase) setParent(p Node) { n.parent = p }
func (n *nodeBase) Children() []Node { return n.children }

// attachChildren wires the parent/child invariant atomically: every
// non-nil child's parent is set to owner, and owner's child list is
// replaced (spec.md §3.1: "replacing/extracting a child updates both sides
// atomically").
func attachChildren(owner Node, children ...Node) {
	base := ownerBase(owner)
	filtered := base.children[:0]
	for _, c := range children {
		if c == nil {
			continue
		}
		c.setParent(owner)
		filtered = append(filtered, c)
	}
	base.children = filtered
	base.extCache = nil
}

// DetachChild nulls the parent of a node being removed from the tree and
// drops it from owner's child list, preserving the invariant on removal.
func DetachChild(owner Node, child Node) {
	base := ownerBase(owner)
	for i, c := range base.children {
		if c == child {
			base.children = append(base.children[:i], base.children[i+1:]...)
			break
		}
	}
	child.setParent(nil)
	base.extCache = nil
}

// ownerBase recovers the *nodeBase embedded in a Node so attachChildren/
// DetachChild can mutate it through the Node interface. Every concrete node
// in this package embeds nodeBase as its first field, so this type switch
// is exhaustive by construction; nodes added later must be added here too.
func ownerBase(n Node) *nodeBase {
	switch v := n.(type) {
	case *TranslationUnit:
		return &v.nodeBase
	case *Identifier:
		return &v.nodeBase
	case *IntLiteral:
		return &v.nodeBase
	case *FloatLiteral:
		return &v.nodeBase
	case *BoolLiteral:
		return &v.nodeBase
	case *StringLiteral:
		return &v.nodeBase
	case *NullLiteral:
		return &v.nodeBase
	case *UnaryExpr:
		return &v.nodeBase
	case *BinaryExpr:
		return &v.nodeBase
	case *ConditionalExpr:
		return &v.nodeBase
	case *CallExpr:
		return &v.nodeBase
	case *MemberAccessExpr:
		return &v.nodeBase
	case *SubscriptExpr:
		return &v.nodeBase
	case *ListExpr:
		return &v.nodeBase
	case *MoveExpr:
		return &v.nodeBase
	case *ConstructExpr:
		return &v.nodeBase
	case *BlockStatement:
		return &v.nodeBase
	case *ExpressionStatement:
		return &v.nodeBase
	case *IfStatement:
		return &v.nodeBase
	case *WhileStatement:
		return &v.nodeBase
	case *DoWhileStatement:
		return &v.nodeBase
	case *ForStatement:
		return &v.nodeBase
	case *ReturnStatement:
		return &v.nodeBase
	case *BreakStatement:
		return &v.nodeBase
	case *ContinueStatement:
		return &v.nodeBase
	case *VariableDeclaration:
		return &v.nodeBase
	case *ParamDeclaration:
		return &v.nodeBase
	case *FunctionDefinition:
		return &v.nodeBase
	case *StructDefinition:
		return &v.nodeBase
	default:
		panic(fmt.Sprintf("ast: unregistered node type %T in ownerBase", n))
	}
}

// exprBase adds the decoration fields of spec.md §3.1 on top of nodeBase,
// with a one-way "decorated" guard per field: SetX may only be called once,
// and GetX before the corresponding SetX is a programmer error, matching
// spec.md §3.1 ("Decoration fields are read-only once set; reading a
// decoration on an undecorated node is a programmer error").
type exprBase struct {
	nodeBase

	entity       EntityRef
	entitySet    bool
	typ          TypeRef
	typeSet      bool
	valueCat     ValueCategory
	valueCatSet  bool
	entityCat    EntityCategory
	entityCatSet bool
	constVal     any
	constValSet  bool
}

func (e *exprBase) expressionNode() {}

func (e *exprBase) Entity() EntityRef {
	if !e.entitySet {
		panic("ast: reading undecorated Entity")
	}
	return e.entity
}

func (e *exprBase) SetEntity(v EntityRef) {
	if e.entitySet {
		panic("ast: Entity already decorated")
	}
	e.entity, e.entitySet = v, true
}

func (e *exprBase) Type() TypeRef {
	if !e.typeSet {
		panic("ast: reading undecorated Type")
	}
	return e.typ
}

func (e *exprBase) SetType(v TypeRef) {
	if e.typeSet {
		panic("ast: Type already decorated")
	}
	e.typ, e.typeSet = v, true
}

func (e *exprBase) ValueCategory() ValueCategory {
	if !e.valueCatSet {
		panic("ast: reading undecorated ValueCategory")
	}
	return e.valueCat
}

func (e *exprBase) SetValueCategory(v ValueCategory) {
	if e.valueCatSet {
		panic("ast: ValueCategory already decorated")
	}
	e.valueCat, e.valueCatSet = v, true
}

func (e *exprBase) EntityCategory() EntityCategory {
	if !e.entityCatSet {
		panic("ast: reading undecorated EntityCategory")
	}
	return e.entityCat
}

func (e *exprBase) SetEntityCategory(v EntityCategory) {
	if e.entityCatSet {
		panic("ast: EntityCategory already decorated")
	}
	e.entityCat, e.entityCatSet = v, true
}

func (e *exprBase) ConstantValue() (any, bool) { return e.constVal, e.constValSet }

func (e *exprBase) SetConstantValue(v any) {
	if e.constValSet {
		panic("ast: ConstantValue already decorated")
	}
	e.constVal, e.constValSet = v, true
}

// stmtBase adds the per-statement destructor stack (spec.md §3.1, §4.2).
type stmtBase struct {
	nodeBase
	dtors ObjectStack
}

func (s *stmtBase) statementNode()             {}
func (s *stmtBase) Destructors() *ObjectStack  { return &s.dtors }

// declBase adds the declared-entity and access-specifier fields on top of
// stmtBase (Declaration is-a Statement per spec.md §3.1).
type declBase struct {
	stmtBase
	entity EntityRef
	access Access
}

func (d *declBase) declarationNode()           {}
func (d *declBase) DeclaredEntity() EntityRef  { return d.entity }
func (d *declBase) SetDeclaredEntity(e EntityRef) { d.entity = e }
func (d *declBase) Access() Access             { return d.access }
func (d *declBase) SetAccess(a Access)         { d.access = a }
