package sema

import (
	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/internal/issue"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// analyzeFunctionBodies is spec.md §4.1 phase 3: walk every function body,
// resolving names, deducing expression types and value categories, and
// emitting the BadExpr/BadReturn/ORError diagnostic families. Grounded on
// original_source/lib/Sema/Analysis/ExpressionAnalysis.cc's recursive
// expression-then-statement walk.
func (a *analyzer) analyzeFunctionBodies(root *ast.TranslationUnit) {
	for _, decl := range root.Declarations {
		a.analyzeBodiesIn(decl)
	}
}

func (a *analyzer) analyzeBodiesIn(decl ast.Declaration) {
	switch d := decl.(type) {
	case *ast.FunctionDefinition:
		fn, _ := d.DeclaredEntity().(*Function)
		if fn == nil || d.Body == nil {
			return
		}
		bw := &bodyWalker{a: a, fn: fn, scope: fn}
		bw.stmt(d.Body)
	case *ast.StructDefinition:
		for _, m := range d.Members {
			a.analyzeBodiesIn(m)
		}
	case *ast.VariableDeclaration:
		obj, _ := d.DeclaredEntity().(*Object)
		if obj == nil || obj.Type.Base != nil || d.Init == nil {
			return
		}
		bw := &bodyWalker{a: a, scope: obj.Parent()}
		bw.expr(d.Init)
		obj.Type = exprQualType(d.Init)
	}
}

// bodyWalker carries the per-function state of the statement/expression
// walk: the enclosing function (for return-type checks) and the current
// lexical scope (an AnonymousScope per nested block).
type bodyWalker struct {
	a     *analyzer
	fn    *Function
	scope Scope
}

func (w *bodyWalker) withBlockScope() *bodyWalker {
	return &bodyWalker{a: w.a, fn: w.fn, scope: NewAnonymousScope(w.scope)}
}

func (w *bodyWalker) stmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.BlockStatement:
		inner := w.withBlockScope()
		for _, c := range n.Statements {
			inner.stmt(c)
		}
	case *ast.ExpressionStatement:
		w.expr(n.Expr)
	case *ast.VariableDeclaration:
		w.localVarDecl(n)
	case *ast.IfStatement:
		w.expr(n.Cond)
		w.stmt(n.Then)
		if n.Else != nil {
			w.stmt(n.Else)
		}
	case *ast.WhileStatement:
		w.expr(n.Cond)
		w.stmt(n.Body)
	case *ast.DoWhileStatement:
		w.stmt(n.Body)
		w.expr(n.Cond)
	case *ast.ForStatement:
		inner := w.withBlockScope()
		if n.Init != nil {
			inner.stmt(n.Init)
		}
		if n.Cond != nil {
			inner.expr(n.Cond)
		}
		if n.Inc != nil {
			inner.stmt(n.Inc)
		}
		inner.stmt(n.Body)
	case *ast.ReturnStatement:
		w.returnStmt(n)
	case *ast.BreakStatement, *ast.ContinueStatement:
		// no decoration needed
	}
}

func (w *bodyWalker) localVarDecl(n *ast.VariableDeclaration) {
	obj, _ := n.DeclaredEntity().(*Object)
	if obj == nil {
		obj = NewVariable(n.DeclName, types.QualType{})
		obj.SetDefNode(n)
		n.SetDeclaredEntity(obj)
	}
	obj.setParent(w.scope)

	if n.Init != nil {
		w.expr(n.Init)
	}
	if obj.Type.Base == nil {
		if n.Type != nil {
			obj.Type = w.a.resolveTypeExpr(n.Type)
		} else if n.Init != nil {
			obj.Type = exprQualType(n.Init)
		} else {
			w.a.issues.Push(issue.New(issue.CantInferType, issue.Error, posOf(n.Pos()), "cannot infer type of '"+n.DeclName+"'"))
			obj.Type = types.Qual(types.Void, types.Const)
		}
	}
	w.scope.Declare(obj)
}

func (w *bodyWalker) returnStmt(n *ast.ReturnStatement) {
	if n.Expr == nil {
		if w.fn.Sig.Return.Base != nil && !w.fn.Sig.Return.Base.Equals(types.Void) && !w.fn.Sig.ReturnDeduced {
			w.a.issues.Push(issue.New(issue.NonVoidMustReturnValue, issue.Error, posOf(n.Pos()), "non-void function must return a value"))
		}
		return
	}
	w.expr(n.Expr)
	rt := exprQualType(n.Expr)
	switch {
	case w.fn.Sig.ReturnDeduced:
		w.fn.Sig.Return = rt
		w.fn.Sig.ReturnDeduced = false
	case w.fn.Sig.Return.Base != nil && w.fn.Sig.Return.Base.Equals(types.Void):
		w.a.issues.Push(issue.New(issue.VoidMustNotReturnValue, issue.Error, posOf(n.Pos()), "void function must not return a value"))
	default:
		if _, ok := ComputeConversion(rt, w.fn.Sig.Return); !ok {
			w.a.issues.Push(issue.New(issue.BadReturnTypeDeduction, issue.Error, posOf(n.Pos()), "return type mismatch: got "+rt.String()+", want "+w.fn.Sig.Return.String()))
		}
	}
}

// expr recursively decorates e in place: Entity/Type/ValueCategory/
// EntityCategory, per spec.md §3.1's exprBase decoration contract.
func (w *bodyWalker) expr(e ast.Expression) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.Identifier:
		w.identifier(n)
	case *ast.IntLiteral:
		decorateRValue(n, types.Qual(types.S64, types.Const))
	case *ast.FloatLiteral:
		decorateRValue(n, types.Qual(types.F64, types.Const))
	case *ast.BoolLiteral:
		decorateRValue(n, types.Qual(types.Bool, types.Const))
	case *ast.StringLiteral:
		decorateRValue(n, types.Qual(&types.ArrayType{Elem: types.Qual(types.Byte, types.Const), Count: len(n.Value)}, types.Const))
	case *ast.NullLiteral:
		decorateRValue(n, types.Qual(types.NullPtr, types.Const))
	case *ast.UnaryExpr:
		w.unary(n)
	case *ast.BinaryExpr:
		w.binary(n)
	case *ast.ConditionalExpr:
		w.conditional(n)
	case *ast.CallExpr:
		w.call(n)
	case *ast.MemberAccessExpr:
		w.memberAccess(n)
	case *ast.SubscriptExpr:
		w.subscript(n)
	case *ast.ListExpr:
		w.list(n)
	case *ast.MoveExpr:
		w.move(n)
	case *ast.ConstructExpr:
		w.construct(n)
	}
}

func (w *bodyWalker) identifier(n *ast.Identifier) {
	ent, ok := Resolve(w.scope, n.Value)
	if !ok {
		w.a.issues.Push(issue.New(issue.UndeclaredID, issue.Error, posOf(n.Pos()), "undeclared identifier '"+n.Value+"'"))
		decorateRValue(n, types.Qual(types.Void, types.Const))
		n.SetEntity(Poison())
		return
	}
	n.SetEntity(ent)
	if IsPoison(ent) {
		decorateRValue(n, types.Qual(types.Void, types.Const))
		return
	}
	switch obj := ent.(type) {
	case *Object:
		n.SetType(obj.Type)
		n.SetValueCategory(ast.LValue)
		n.SetEntityCategory(ast.CatValue)
	case *OverloadSet:
		n.SetType(types.Qual(types.Void, types.Const))
		n.SetValueCategory(ast.RValue)
		n.SetEntityCategory(ast.CatValue)
	default:
		n.SetType(types.Qual(types.Void, types.Const))
		n.SetValueCategory(ast.RValue)
		n.SetEntityCategory(ast.CatNamespace)
	}
}

func (w *bodyWalker) unary(n *ast.UnaryExpr) {
	w.expr(n.Operand)
	ot := exprQualType(n.Operand)
	switch n.Op {
	case ast.OpDeref:
		pt, ok := ot.Base.(*types.PointerType)
		if !ok {
			w.a.issues.Push(issue.New(issue.DerefNoPtr, issue.Error, posOf(n.Pos()), "cannot dereference non-pointer type "+ot.String()))
			decorateRValue(n, types.Qual(types.Void, types.Const))
			return
		}
		n.SetType(pt.Base)
		n.SetValueCategory(ast.LValue)
		n.SetEntityCategory(ast.CatValue)
	case ast.OpAddrOf:
		decorateRValue(n, types.Qual(&types.PointerType{Kind: types.RawPtr, Base: ot}, types.Const))
	default:
		if !isArithmeticType(ot.Base) {
			w.a.issues.Push(issue.New(issue.UnaryExprBadType, issue.Error, posOf(n.Pos()), "invalid operand type "+ot.String()+" for unary operator"))
		}
		decorateRValue(n, types.Qual(ot.Base, types.Const))
	}
}

func (w *bodyWalker) binary(n *ast.BinaryExpr) {
	w.expr(n.Left)
	w.expr(n.Right)
	lt, rt := exprQualType(n.Left), exprQualType(n.Right)

	if n.Op == ast.OpAssign {
		if n.Left.ValueCategory() != ast.LValue || !n.Left.Type().(types.QualType).IsMut() {
			w.a.issues.Push(issue.New(issue.BinaryExprNoCommonType, issue.Error, posOf(n.Pos()), "left-hand side of assignment is not a mutable lvalue"))
		}
		if _, ok := ComputeConversion(rt, lt); !ok {
			w.a.issues.Push(issue.New(issue.BinaryExprNoCommonType, issue.Error, posOf(n.Pos()), "cannot assign "+rt.String()+" to "+lt.String()))
		}
		n.SetType(lt)
		n.SetValueCategory(ast.LValue)
		n.SetEntityCategory(ast.CatValue)
		return
	}

	common, ok := commonType(lt, rt)
	if !ok {
		w.a.issues.Push(issue.New(issue.BinaryExprNoCommonType, issue.Error, posOf(n.Pos()), "no common type for "+lt.String()+" and "+rt.String()))
		decorateRValue(n, types.Qual(types.Void, types.Const))
		return
	}
	if isComparisonOp(n.Op) {
		decorateRValue(n, types.Qual(types.Bool, types.Const))
		return
	}
	decorateRValue(n, types.Qual(common, types.Const))
}

func (w *bodyWalker) conditional(n *ast.ConditionalExpr) {
	w.expr(n.Cond)
	w.expr(n.Then)
	w.expr(n.Else)
	tt, et := exprQualType(n.Then), exprQualType(n.Else)
	common, ok := commonType(tt, et)
	if !ok {
		w.a.issues.Push(issue.New(issue.ConditionalNoCommonType, issue.Error, posOf(n.Pos()), "branches have no common type: "+tt.String()+" vs "+et.String()))
		decorateRValue(n, types.Qual(types.Void, types.Const))
		return
	}
	decorateRValue(n, types.Qual(common, types.Const))
}

func (w *bodyWalker) call(n *ast.CallExpr) {
	for _, arg := range n.Args {
		w.expr(arg)
	}
	id, ok := n.Callee.(*ast.Identifier)
	if !ok {
		w.expr(n.Callee)
		w.a.issues.Push(issue.New(issue.ObjectNotCallable, issue.Error, posOf(n.Pos()), "expression is not callable"))
		decorateRValue(n, types.Qual(types.Void, types.Const))
		return
	}
	ent, found := Resolve(w.scope, id.Value)
	os, isOS := ent.(*OverloadSet)
	if !found || !isOS {
		w.a.issues.Push(issue.New(issue.ObjectNotCallable, issue.Error, posOf(n.Pos()), "'"+id.Value+"' is not callable"))
		decorateRValue(n, types.Qual(types.Void, types.Const))
		return
	}
	id.SetEntity(ent)
	id.SetType(types.Qual(types.Void, types.Const))
	id.SetValueCategory(ast.RValue)
	id.SetEntityCategory(ast.CatValue)

	args := make([]Argument, len(n.Args))
	for i, a := range n.Args {
		args[i] = Argument{Type: exprQualType(a), IsLValue: a.ValueCategory() == ast.LValue}
	}
	res := PerformOverloadResolution(os, args)
	switch res.Kind {
	case ORSuccess:
		n.SetEntity(res.Function)
		n.SetType(res.Function.Sig.Return)
		n.SetValueCategory(ast.RValue)
		n.SetEntityCategory(ast.CatValue)
	case ORAmbiguousResult:
		w.a.issues.Push(issue.New(issue.ORAmbiguous, issue.Error, posOf(n.Pos()), "ambiguous call to '"+id.Value+"'"))
		decorateRValue(n, types.Qual(types.Void, types.Const))
	default:
		w.a.issues.Push(issue.New(issue.ORNoMatch, issue.Error, posOf(n.Pos()), "no matching overload for call to '"+id.Value+"'"))
		decorateRValue(n, types.Qual(types.Void, types.Const))
	}
}

func (w *bodyWalker) memberAccess(n *ast.MemberAccessExpr) {
	w.expr(n.Base)
	bt := exprQualType(n.Base)
	st, ok := bt.Base.(*types.StructType)
	if !ok {
		w.a.issues.Push(issue.New(issue.MemAccNonStaticThroughType, issue.Error, posOf(n.Pos()), "member access on non-struct type "+bt.String()))
		decorateRValue(n, types.Qual(types.Void, types.Const))
		return
	}
	for _, f := range st.Fields {
		if f.Name == n.Member {
			n.SetType(f.Type)
			n.SetValueCategory(n.Base.ValueCategory())
			n.SetEntityCategory(ast.CatValue)
			return
		}
	}
	w.a.issues.Push(issue.New(issue.MemAccNonStaticThroughType, issue.Error, posOf(n.Pos()), "no member '"+n.Member+"' on "+bt.String()))
	decorateRValue(n, types.Qual(types.Void, types.Const))
}

func (w *bodyWalker) subscript(n *ast.SubscriptExpr) {
	w.expr(n.Base)
	w.expr(n.Index)
	bt := exprQualType(n.Base)
	at, ok := bt.Base.(*types.ArrayType)
	if !ok {
		w.a.issues.Push(issue.New(issue.SubscriptNoArray, issue.Error, posOf(n.Pos()), "cannot subscript non-array type "+bt.String()))
		decorateRValue(n, types.Qual(types.Void, types.Const))
		return
	}
	n.SetType(at.Elem)
	n.SetValueCategory(n.Base.ValueCategory())
	n.SetEntityCategory(ast.CatValue)
}

func (w *bodyWalker) list(n *ast.ListExpr) {
	if len(n.Elements) == 0 {
		decorateRValue(n, types.Qual(&types.ArrayType{Elem: types.Qual(types.Void, types.Const), Count: 0}, types.Const))
		return
	}
	var common types.ObjectType
	for i, el := range n.Elements {
		w.expr(el)
		t := exprQualType(el).Base
		if i == 0 {
			common = t
			continue
		}
		if !t.Equals(common) {
			w.a.issues.Push(issue.New(issue.ListExprNoCommonType, issue.Error, posOf(n.Pos()), "list elements have inconsistent types"))
			decorateRValue(n, types.Qual(types.Void, types.Const))
			return
		}
	}
	decorateRValue(n, types.Qual(&types.ArrayType{Elem: types.Qual(common, types.Const), Count: len(n.Elements)}, types.Const))
}

func (w *bodyWalker) move(n *ast.MoveExpr) {
	w.expr(n.Operand)
	ot := exprQualType(n.Operand)
	if n.Operand.ValueCategory() == ast.LValue && !ot.IsMut() {
		w.a.issues.Push(issue.New(issue.MoveExprConst, issue.Error, posOf(n.Pos()), "cannot move through a const reference"))
	}
	n.SetType(ot)
	n.SetValueCategory(ast.RValue)
	n.SetEntityCategory(ast.CatValue)
}

func (w *bodyWalker) construct(n *ast.ConstructExpr) {
	for _, a := range n.Args {
		w.expr(a)
	}
	ot := w.a.resolveObjectType(n.TypeName)
	decorateRValue(n, types.Qual(ot, types.Const))
}

// ---- shared helpers --------------------------------------------------------

func decorateRValue(e ast.Expression, t types.QualType) {
	e.SetType(t)
	e.SetValueCategory(ast.RValue)
	e.SetEntityCategory(ast.CatValue)
}

// exprQualType recovers the concrete types.QualType stored behind the
// decoupled ast.TypeRef interface (see internal/ast/node.go's package doc).
func exprQualType(e ast.Expression) types.QualType {
	if qt, ok := e.Type().(types.QualType); ok {
		return qt
	}
	return types.Qual(types.Void, types.Const)
}

func posOf(p ast.SourceRange) issue.SourceRange {
	return issue.SourceRange{File: p.File, Line: p.StartLine, Column: p.StartCol}
}

func isArithmeticType(t types.ObjectType) bool {
	b, ok := t.(*types.BuiltinType)
	return ok && (b.Kind == types.KindInt || b.Kind == types.KindFloat)
}

func isComparisonOp(op ast.BinaryOp) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpLogicalAnd, ast.OpLogicalOr:
		return true
	default:
		return false
	}
}

// commonType implements the arithmetic usual-conversions rule: the wider of
// two builtin numeric types, or identity if the types already match.
func commonType(a, b types.QualType) (types.ObjectType, bool) {
	if a.Base.Equals(b.Base) {
		return a.Base, true
	}
	ab, aok := a.Base.(*types.BuiltinType)
	bb, bok := b.Base.(*types.BuiltinType)
	if !aok || !bok {
		return nil, false
	}
	if ab.Kind == types.KindFloat || bb.Kind == types.KindFloat {
		if ab.Kind == types.KindFloat && bb.Kind == types.KindFloat {
			if ab.Width >= bb.Width {
				return ab, true
			}
			return bb, true
		}
		if ab.Kind == types.KindFloat {
			return ab, true
		}
		return bb, true
	}
	if ab.Kind == types.KindInt && bb.Kind == types.KindInt {
		if ab.Width >= bb.Width {
			return ab, true
		}
		return bb, true
	}
	return nil, false
}
