package sema

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/internal/issue"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

func intType(name string) *ast.TypeExpr { return &ast.TypeExpr{Name: name} }

func TestAnalyzeSimpleFunctionDeducesReturnType(t *testing.T) {
	body := ast.NewBlockStatement(ast.SourceRange{}, []ast.Statement{
		ast.NewReturnStatement(ast.SourceRange{}, ast.NewIntLiteral(ast.SourceRange{}, 42)),
	})
	fn := ast.NewFunctionDefinition(ast.SourceRange{}, "answer", nil, nil, body)
	tu := ast.NewTranslationUnit([]ast.Declaration{fn})

	issues := issue.NewHandler()
	res := Analyze(tu, issues)

	if issues.HasErrors() {
		t.Fatalf("unexpected errors: %v", issues.Issues())
	}
	if res.Global == nil {
		t.Fatal("AnalysisResult.Global is nil")
	}
	f, ok := fn.DeclaredEntity().(*Function)
	if !ok {
		t.Fatal("function not decorated with *Function entity")
	}
	if f.Sig.Return.Base.String() != "s64" {
		t.Errorf("deduced return type = %s, want s64", f.Sig.Return.Base.String())
	}
}

func TestAnalyzeUndeclaredIdentifierReportsIssue(t *testing.T) {
	body := ast.NewBlockStatement(ast.SourceRange{}, []ast.Statement{
		ast.NewExpressionStatement(ast.SourceRange{}, ast.NewIdentifier(ast.SourceRange{}, "nope")),
	})
	fn := ast.NewFunctionDefinition(ast.SourceRange{}, "f", nil, intType("void"), body)
	tu := ast.NewTranslationUnit([]ast.Declaration{fn})

	issues := issue.NewHandler()
	Analyze(tu, issues)

	if !issues.HasErrors() {
		t.Fatal("expected an UndeclaredID error")
	}
	found := false
	for _, i := range issues.Issues() {
		if i.Kind == issue.UndeclaredID {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want one of kind UndeclaredID", issues.Issues())
	}
}

func TestAnalyzeStructFieldLayout(t *testing.T) {
	members := []ast.Declaration{
		ast.NewVariableDeclaration(ast.SourceRange{}, "a", intType("s32"), nil),
		ast.NewVariableDeclaration(ast.SourceRange{}, "b", intType("s64"), nil),
	}
	st := ast.NewStructDefinition(ast.SourceRange{}, "Pair", members)
	tu := ast.NewTranslationUnit([]ast.Declaration{st})

	issues := issue.NewHandler()
	res := Analyze(tu, issues)

	if issues.HasErrors() {
		t.Fatalf("unexpected errors: %v", issues.Issues())
	}
	if len(res.OrderedStructs) != 1 {
		t.Fatalf("len(OrderedStructs) = %d, want 1", len(res.OrderedStructs))
	}
	pair := res.OrderedStructs[0]
	if pair.Size() != 16 {
		t.Errorf("Pair.Size() = %d, want 16 (4-byte a padded to 8-byte alignment of b)", pair.Size())
	}
	if pair.Fields[1].Offset != 8 {
		t.Errorf("Pair.Fields[1].Offset = %d, want 8", pair.Fields[1].Offset)
	}
}

func TestAnalyzeStructDefCycleReported(t *testing.T) {
	aMembers := []ast.Declaration{ast.NewVariableDeclaration(ast.SourceRange{}, "b", intType("B"), nil)}
	bMembers := []ast.Declaration{ast.NewVariableDeclaration(ast.SourceRange{}, "a", intType("A"), nil)}
	structA := ast.NewStructDefinition(ast.SourceRange{}, "A", aMembers)
	structB := ast.NewStructDefinition(ast.SourceRange{}, "B", bMembers)
	tu := ast.NewTranslationUnit([]ast.Declaration{structA, structB})

	issues := issue.NewHandler()
	Analyze(tu, issues)

	found := false
	for _, i := range issues.Issues() {
		if i.Kind == issue.StructDefCycle {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want a StructDefCycle error", issues.Issues())
	}
}

func TestPerformOverloadResolutionPicksExactMatch(t *testing.T) {
	set := NewOverloadSet("f")

	byInt := NewFunction("f")
	byInt.Sig.Params = []types.QualType{types.Qual(types.S32, types.Const)}
	byInt.Sig.Return = types.Qual(types.S32, types.Const)
	set.Add(byInt)

	byFloat := NewFunction("f")
	byFloat.Sig.Params = []types.QualType{types.Qual(types.F64, types.Const)}
	byFloat.Sig.Return = types.Qual(types.F64, types.Const)
	set.Add(byFloat)

	res := PerformOverloadResolution(set, []Argument{{Type: types.Qual(types.S32, types.Const)}})
	if res.Kind != ORSuccess {
		t.Fatalf("Kind = %v, want ORSuccess", res.Kind)
	}
	if res.Function != byInt {
		t.Errorf("resolved function = %v, want the exact s32 overload", res.Function.Name())
	}
}
