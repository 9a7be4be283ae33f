package sema

import (
	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/internal/issue"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// AnalysisResult is the return value of Analyze, carrying the data later
// pipeline stages need beyond the decorated AST itself (spec.md §4.1:
// "analyze(root, symtab, issues) -> AnalysisResult{orderedStructs}").
type AnalysisResult struct {
	Global *GlobalScope
	// OrderedStructs lists every struct type in an order where each struct's
	// member types were already laid out before it (dependency order),
	// needed by irgen to size every type exactly once.
	OrderedStructs []*types.StructType
}

// structCtx tracks the declaration-order adjacency used to detect
// StructDefCycle (spec.md §7) during instantiateEntities.
type structCtx struct {
	decl   *ast.StructDefinition
	typ    *types.StructType
	scope  *TypeScope
	state  int // 0 = unvisited, 1 = in-progress, 2 = done, 3 = members resolved
}

// Analyze runs the three-phase semantic analysis pipeline over root,
// decorating every AST node in place and returning the AnalysisResult.
// Grounded on original_source/lib/Sema/Analysis/*.cc's
// gatherNames/instantiateEntities/analyzeFunctionBodies split (spec.md §4.1).
func Analyze(root *ast.TranslationUnit, issues *issue.Handler) *AnalysisResult {
	global := NewGlobalScope()
	a := &analyzer{global: global, issues: issues, structs: map[string]*structCtx{}}

	a.gatherNames(root)
	a.instantiateEntities()
	a.analyzeFunctionBodies(root)

	return &AnalysisResult{Global: global, OrderedStructs: a.orderedStructs}
}

type analyzer struct {
	global         *GlobalScope
	issues         *issue.Handler
	structs        map[string]*structCtx
	structOrder    []string
	orderedStructs []*types.StructType
}

// gatherNames declares every top-level name (spec.md §4.1 phase 1): structs
// get a placeholder StructType + TypeScope so forward references resolve;
// functions get their OverloadSet entry; variables get a poisoned-type
// placeholder Object fixed up in instantiateEntities.
func (a *analyzer) gatherNames(root *ast.TranslationUnit) {
	for _, decl := range root.Declarations {
		a.gatherDecl(decl, a.global)
	}
}

func (a *analyzer) gatherDecl(decl ast.Declaration, scope Scope) {
	switch d := decl.(type) {
	case *ast.StructDefinition:
		st := &types.StructType{Name: d.DeclName}
		tscope := NewTypeScope(scope, d.DeclName)
		scope.Declare(&structEntity{base: base{name: d.DeclName, category: CategoryType}, Type: st, TypeScope: tscope})
		a.structs[d.DeclName] = &structCtx{decl: d, typ: st, scope: tscope}
		a.structOrder = append(a.structOrder, d.DeclName)
		for _, m := range d.Members {
			a.gatherDecl(m, tscope)
		}

	case *ast.FunctionDefinition:
		existing, ok := scope.Lookup(d.DeclName)
		var os *OverloadSet
		if ok {
			os, ok = existing.(*OverloadSet)
		}
		if !ok {
			os = NewOverloadSet(d.DeclName)
			scope.Declare(os)
		}
		fn := NewFunction(d.DeclName)
		fn.SetDefNode(d)
		fn.setParent(scope)
		os.Add(fn)
		d.SetDeclaredEntity(fn)

	case *ast.VariableDeclaration:
		obj := NewVariable(d.DeclName, types.QualType{})
		obj.SetDefNode(d)
		obj.setParent(scope)
		scope.Declare(obj)
		d.SetDeclaredEntity(obj)

	case *ast.ParamDeclaration:
		// Parameters are declared into their owning Function's scope during
		// instantiateEntities, once the function's signature is resolved.
	}
}

// structEntity wraps a StructType in the Entity/Scope hierarchy: Category()
// reports CategoryType, and the struct's TypeScope is reachable for member
// lookup (spec.md §3.2: "Function (is a Scope)" style composition, applied
// here to struct types).
type structEntity struct {
	base
	Type      *types.StructType
	TypeScope *TypeScope
}

func (s *structEntity) EntityKind() EntityKind { return EntityStructType }
func (s *structEntity) Lookup(name string) (Entity, bool) { return s.TypeScope.Lookup(name) }
func (s *structEntity) Declare(e Entity) Entity           { return s.TypeScope.Declare(e) }
func (s *structEntity) All() []Entity                     { return s.TypeScope.All() }
func (s *structEntity) Children() []Scope                 { return s.TypeScope.Children() }

// instantiateEntities resolves every TypeExpr to a concrete types.QualType
// (spec.md §4.1 phase 2), lays out struct fields in dependency order, and
// reports StructDefCycle when a struct's field graph is cyclic.
func (a *analyzer) instantiateEntities() {
	for _, name := range a.structOrder {
		a.layoutStruct(a.structs[name], nil)
	}

	for _, name := range a.structOrder {
		a.resolveMemberVars(a.structs[name])
	}

	for _, e := range a.global.All() {
		if fn, ok := e.(*OverloadSet); ok {
			for _, f := range fn.Functions {
				a.resolveFunctionSignature(f)
			}
		}
		if obj, ok := e.(*Object); ok {
			a.resolveVariableType(obj)
		}
	}
}

func (a *analyzer) layoutStruct(ctx *structCtx, chain []string) {
	if ctx.state == 2 {
		return
	}
	if ctx.state == 1 {
		a.issues.Push(issue.New(issue.StructDefCycle, issue.Error, issue.SourceRange{}, "cyclic struct definition involving "+ctx.decl.DeclName))
		return
	}
	ctx.state = 1
	for _, m := range ctx.decl.Members {
		vd, ok := m.(*ast.VariableDeclaration)
		if !ok || vd.Type == nil {
			continue
		}
		if dep, ok := a.structs[vd.Type.Name]; ok {
			a.layoutStruct(dep, append(chain, ctx.decl.DeclName))
		}
	}
	ctx.state = 2
}

func (a *analyzer) resolveMemberVars(ctx *structCtx) {
	if ctx.state == 3 {
		return
	}
	ctx.state = 3
	for _, m := range ctx.decl.Members {
		vd, ok := m.(*ast.VariableDeclaration)
		if !ok {
			continue
		}
		if vd.Type != nil {
			if dep, ok := a.structs[vd.Type.Name]; ok {
				a.resolveMemberVars(dep)
			}
		}
		qt := a.resolveTypeExpr(vd.Type)
		ctx.typ.Fields = append(ctx.typ.Fields, types.Field{Name: vd.DeclName, Type: qt})
		if obj, ok := vd.DeclaredEntity().(*Object); ok {
			obj.Type = qt
		}
	}
	ctx.typ.Layout()
	a.orderedStructs = append(a.orderedStructs, ctx.typ)
}

func (a *analyzer) resolveFunctionSignature(f *Function) {
	def, ok := f.DefNode().(*ast.FunctionDefinition)
	if !ok {
		return
	}
	f.Sig.Params = make([]types.QualType, len(def.Params))
	for i, p := range def.Params {
		f.Sig.Params[i] = a.resolveTypeExpr(p.Type)
		param := NewVariable(p.DeclName, f.Sig.Params[i])
		param.setParent(f)
		f.Declare(param)
		p.SetDeclaredEntity(param)
	}
	if def.ReturnType != nil {
		f.Sig.Return = a.resolveTypeExpr(def.ReturnType)
	} else {
		f.Sig.ReturnDeduced = true
		f.Sig.Return = types.Qual(types.Void, types.Const)
	}
	if def.Body == nil {
		a.issues.Push(issue.New(issue.FunctionMustHaveBody, issue.Error, issue.SourceRange{}, "function '"+def.DeclName+"' has no body"))
	}
}

func (a *analyzer) resolveVariableType(obj *Object) {
	def, ok := obj.DefNode().(*ast.VariableDeclaration)
	if !ok || obj.Type.Base != nil {
		return
	}
	if def.Type != nil {
		obj.Type = a.resolveTypeExpr(def.Type)
		return
	}
	if def.Init == nil {
		a.issues.Push(issue.New(issue.CantInferType, issue.Error, issue.SourceRange{}, "cannot infer type of '"+def.DeclName+"' without an initializer or annotation"))
		obj.Type = types.Qual(types.Void, types.Const)
	}
	// A nil Type with a non-nil Init is deduced from the initializer's
	// expression type during analyzeFunctionBodies, once Init is decorated.
}

// resolveTypeExpr maps the placeholder ast.TypeExpr grammar stand-in to a
// concrete QualType, resolving builtin names directly and struct names via
// the struct table built in gatherNames.
func (a *analyzer) resolveTypeExpr(t *ast.TypeExpr) types.QualType {
	if t == nil {
		return types.Qual(types.Void, types.Const)
	}
	mut := types.Const
	if t.IsMutRef {
		mut = types.Mut
	}
	base := a.resolveObjectType(t.Name)
	if t.IsPointer {
		return types.Qual(&types.PointerType{Kind: types.RawPtr, Base: types.Qual(base, mut)}, types.Const)
	}
	return types.Qual(base, mut)
}

func (a *analyzer) resolveObjectType(name string) types.ObjectType {
	switch name {
	case "void":
		return types.Void
	case "bool":
		return types.Bool
	case "byte":
		return types.Byte
	case "s8":
		return types.S8
	case "s16":
		return types.S16
	case "s32":
		return types.S32
	case "s64", "int":
		return types.S64
	case "u8":
		return types.U8
	case "u16":
		return types.U16
	case "u32":
		return types.U32
	case "u64":
		return types.U64
	case "f32":
		return types.F32
	case "f64", "float", "double":
		return types.F64
	}
	if ctx, ok := a.structs[name]; ok {
		return ctx.typ
	}
	a.issues.Push(issue.New(issue.IncompleteType, issue.Error, issue.SourceRange{}, "unknown type '"+name+"'"))
	return types.Void
}
