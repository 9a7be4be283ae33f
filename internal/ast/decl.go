package ast

import "strings"

// TranslationUnit is the AST root: an ordered list of top-level
// declarations (spec.md §3.1).
type TranslationUnit struct {
	nodeBase
	Declarations []Declaration
}

func NewTranslationUnit(decls []Declaration) *TranslationUnit {
	n := &TranslationUnit{Declarations: decls}
	children := make([]Node, len(decls))
	for i, d := range decls {
		children[i] = d
	}
	attachChildren(n, children...)
	return n
}

func (t *TranslationUnit) Kind() NodeKind { return KindTranslationUnit }
func (t *TranslationUnit) String() string {
	parts := make([]string, len(t.Declarations))
	for i, d := range t.Declarations {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

// TypeExpr is a minimal, unparsed type-annotation reference: the written
// name plus the reference/pointer/mutability markers a variable or
// parameter declaration carries before sema resolves it to a QualType.
// This stands in for the lexer/parser's type-expression grammar, which is
// out of scope per spec.md §1.
type TypeExpr struct {
	Name      string
	IsRef     bool
	IsMutRef  bool
	IsPointer bool
}

// VariableDeclaration is `var name: Type [= init];` (spec.md §4.2: "without
// initializer emits a default constructor call... with an rvalue
// initializer the rvalue is consumed... with an lvalue initializer a copy
// constructor is invoked").
type VariableDeclaration struct {
	declBase
	DeclName string
	Type     *TypeExpr // nil if the type must be inferred from Init (CantInferType)
	Init     Expression // nil if no initializer
}

func NewVariableDeclaration(pos SourceRange, name string, typ *TypeExpr, init Expression) *VariableDeclaration {
	n := &VariableDeclaration{DeclName: name, Type: typ, Init: init}
	n.pos = pos
	attachChildren(n, init)
	return n
}

func (v *VariableDeclaration) Kind() NodeKind { return KindVariableDeclaration }
func (v *VariableDeclaration) String() string {
	s := "var " + v.DeclName
	if v.Type != nil {
		s += ": " + v.Type.Name
	}
	if v.Init != nil {
		s += " = " + v.Init.String()
	}
	return s + ";"
}

// ParamDeclaration is one function parameter.
type ParamDeclaration struct {
	declBase
	DeclName string
	Type     *TypeExpr
	IsThis   bool // true for the implicit `this` parameter of a member function
}

func NewParamDeclaration(pos SourceRange, name string, typ *TypeExpr, isThis bool) *ParamDeclaration {
	n := &ParamDeclaration{DeclName: name, Type: typ, IsThis: isThis}
	n.pos = pos
	return n
}

func (p *ParamDeclaration) Kind() NodeKind { return KindParamDeclaration }
func (p *ParamDeclaration) String() string {
	if p.Type == nil {
		return p.DeclName
	}
	return p.DeclName + ": " + p.Type.Name
}

// FunctionDefinition is `fn name(params) -> RetType { body }` (spec.md
// §7: FunctionMustHaveBody, MainMustReturnTrivial, MainInvalidArguments,
// BadSMF family when Name is a special member function name).
type FunctionDefinition struct {
	declBase
	DeclName   string
	Params     []*ParamDeclaration
	ReturnType *TypeExpr // nil when the return type is to be deduced (spec.md §4.1)
	Body       *BlockStatement // nil for a declaration-only forward decl
	IsForeign  bool
}

func NewFunctionDefinition(pos SourceRange, name string, params []*ParamDeclaration, ret *TypeExpr, body *BlockStatement) *FunctionDefinition {
	n := &FunctionDefinition{DeclName: name, Params: params, ReturnType: ret, Body: body}
	n.pos = pos
	children := make([]Node, 0, len(params)+1)
	for _, p := range params {
		children = append(children, p)
	}
	if body != nil {
		children = append(children, body)
	}
	attachChildren(n, children...)
	return n
}

func (f *FunctionDefinition) Kind() NodeKind { return KindFunctionDefinition }
func (f *FunctionDefinition) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	ret := ""
	if f.ReturnType != nil {
		ret = " -> " + f.ReturnType.Name
	}
	s := "fn " + f.DeclName + "(" + strings.Join(parts, ", ") + ")" + ret
	if f.Body != nil {
		return s + " " + f.Body.String()
	}
	return s + ";"
}

// StructDefinition is `struct Name { members... }`. Members are typed as
// Declaration to admit both nested VariableDeclaration fields and nested
// FunctionDefinition member functions (spec.md §3.2: Function is a Scope
// nested under the struct's TypeScope).
type StructDefinition struct {
	declBase
	DeclName string
	Members  []Declaration
}

func NewStructDefinition(pos SourceRange, name string, members []Declaration) *StructDefinition {
	n := &StructDefinition{DeclName: name, Members: members}
	n.pos = pos
	children := make([]Node, len(members))
	for i, m := range members {
		children[i] = m
	}
	attachChildren(n, children...)
	return n
}

func (s *StructDefinition) Kind() NodeKind { return KindStructDefinition }
func (s *StructDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("struct " + s.DeclName + " {\n")
	for _, m := range s.Members {
		sb.WriteString("  ")
		sb.WriteString(strings.ReplaceAll(m.String(), "\n", "\n  "))
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}
