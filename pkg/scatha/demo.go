package scatha

import "github.com/cwbudde/go-dws/internal/ast"

// DemoProgram names one of the hand-built fixtures BuildDemoProgram
// produces, standing in for the source text spec.md §8's end-to-end
// scenarios are phrased as — Scatha's own lexer/parser are out of scope
// (spec.md §1), so each scenario is built directly with internal/ast's
// constructor API instead of being parsed from source.
type DemoProgram string

const (
	// DemoHelloArithmetic is `fn main() -> s64 { return 2 + 3 * 4; }`,
	// expected to leave 14 in the VM's first return register.
	DemoHelloArithmetic DemoProgram = "hello-arithmetic"

	// DemoShortCircuit is a function whose `&&`/`||` condition must never
	// evaluate its right operand when the left one already decides the
	// result, observable as "no division trap" even though the right
	// operand would divide by zero if evaluated.
	DemoShortCircuit DemoProgram = "short-circuit"

	// DemoLoopSum is `fn main() -> s64 { var s: s64 = 0; for (i = 0; i < 5; i += 1) s += i; return s; }`,
	// expected to return 10.
	DemoLoopSum DemoProgram = "loop-sum"

	// DemoStructLifetime passes a struct value through a function twice by
	// value, expected to return 14. The by-value arguments are passed
	// without calling the struct's copy function.
	DemoStructLifetime DemoProgram = "struct-lifetime"
)

var zero ast.SourceRange

func s64() *ast.TypeExpr { return &ast.TypeExpr{Name: "s64"} }
func boolType() *ast.TypeExpr { return &ast.TypeExpr{Name: "bool"} }

func id(name string) *ast.Identifier { return ast.NewIdentifier(zero, name) }
func lit(v int64) *ast.IntLiteral    { return ast.NewIntLiteral(zero, v) }

func bin(op ast.BinaryOp, l, r ast.Expression) *ast.BinaryExpr {
	return ast.NewBinaryExpr(zero, op, l, r)
}

// BuildDemoProgram constructs the named fixture's *ast.TranslationUnit.
func BuildDemoProgram(which DemoProgram) *ast.TranslationUnit {
	switch which {
	case DemoShortCircuit:
		return buildShortCircuit()
	case DemoLoopSum:
		return buildLoopSum()
	case DemoStructLifetime:
		return buildStructLifetime()
	default:
		return buildHelloArithmetic()
	}
}

// buildHelloArithmetic: fn main() -> s64 { return 2 + 3 * 4; }
func buildHelloArithmetic() *ast.TranslationUnit {
	expr := bin(ast.OpAdd, lit(2), bin(ast.OpMul, lit(3), lit(4)))
	body := ast.NewBlockStatement(zero, []ast.Statement{
		ast.NewReturnStatement(zero, expr),
	})
	main := ast.NewFunctionDefinition(zero, "main", nil, s64(), body)
	return ast.NewTranslationUnit([]ast.Declaration{main})
}

// buildShortCircuit: fn main() -> bool { var x: s64 = 0; return x == 0 || 1 / x > 0; }
// The `||` must short-circuit on the true left operand, never evaluating
// the divide-by-zero on the right.
func buildShortCircuit() *ast.TranslationUnit {
	varX := ast.NewVariableDeclaration(zero, "x", s64(), lit(0))
	left := bin(ast.OpEq, id("x"), lit(0))
	right := bin(ast.OpGt, bin(ast.OpDiv, lit(1), id("x")), lit(0))
	cond := bin(ast.OpLogicalOr, left, right)
	body := ast.NewBlockStatement(zero, []ast.Statement{
		varX,
		ast.NewReturnStatement(zero, cond),
	})
	main := ast.NewFunctionDefinition(zero, "main", nil, boolType(), body)
	return ast.NewTranslationUnit([]ast.Declaration{main})
}

// buildLoopSum: fn main() -> s64 { var s: s64 = 0; for (var i: s64 = 0; i < 5; i += 1) { s += i; } return s; }
func buildLoopSum() *ast.TranslationUnit {
	declS := ast.NewVariableDeclaration(zero, "s", s64(), lit(0))
	declI := ast.NewVariableDeclaration(zero, "i", s64(), lit(0))

	cond := bin(ast.OpLt, id("i"), lit(5))
	inc := ast.NewExpressionStatement(zero, bin(ast.OpAssign, id("i"), bin(ast.OpAdd, id("i"), lit(1))))
	loopBody := ast.NewBlockStatement(zero, []ast.Statement{
		ast.NewExpressionStatement(zero, bin(ast.OpAssign, id("s"), bin(ast.OpAdd, id("s"), id("i")))),
	})
	forStmt := ast.NewForStatement(zero, declI, cond, inc, loopBody)

	body := ast.NewBlockStatement(zero, []ast.Statement{
		declS,
		forStmt,
		ast.NewReturnStatement(zero, id("s")),
	})
	main := ast.NewFunctionDefinition(zero, "main", nil, s64(), body)
	return ast.NewTranslationUnit([]ast.Declaration{main})
}

// buildStructLifetime: struct Pair { a: s64; b: s64; }
// fn sum(p: Pair) -> s64 { return p.a + p.b; }
// fn main() -> s64 { var p: Pair; p.a = 3; p.b = 4; return sum(p) + sum(p); }
// irgen adds Pair's synthesized copy function (spec.md §4.1's SLF
// synthesis) to the module, but passing p by value into sum does not call
// it; no copy constructor runs.
func buildStructLifetime() *ast.TranslationUnit {
	fieldA := ast.NewVariableDeclaration(zero, "a", s64(), nil)
	fieldB := ast.NewVariableDeclaration(zero, "b", s64(), nil)
	pairStruct := ast.NewStructDefinition(zero, "Pair", []ast.Declaration{fieldA, fieldB})

	pairType := &ast.TypeExpr{Name: "Pair"}
	sumParam := ast.NewParamDeclaration(zero, "p", pairType, false)
	sumBody := ast.NewBlockStatement(zero, []ast.Statement{
		ast.NewReturnStatement(zero, bin(ast.OpAdd,
			ast.NewMemberAccessExpr(zero, id("p"), "a"),
			ast.NewMemberAccessExpr(zero, id("p"), "b"),
		)),
	})
	sumFn := ast.NewFunctionDefinition(zero, "sum", []*ast.ParamDeclaration{sumParam}, s64(), sumBody)

	declP := ast.NewVariableDeclaration(zero, "p", pairType, nil)
	assignA := ast.NewExpressionStatement(zero, bin(ast.OpAssign, ast.NewMemberAccessExpr(zero, id("p"), "a"), lit(3)))
	assignB := ast.NewExpressionStatement(zero, bin(ast.OpAssign, ast.NewMemberAccessExpr(zero, id("p"), "b"), lit(4)))
	callSum := func() ast.Expression {
		return ast.NewCallExpr(zero, id("sum"), []ast.Expression{id("p")})
	}
	ret := ast.NewReturnStatement(zero, bin(ast.OpAdd, callSum(), callSum()))

	mainBody := ast.NewBlockStatement(zero, []ast.Statement{declP, assignA, assignB, ret})
	mainFn := ast.NewFunctionDefinition(zero, "main", nil, s64(), mainBody)

	return ast.NewTranslationUnit([]ast.Declaration{pairStruct, sumFn, mainFn})
}
