// Package irgen lowers a decorated AST plus its sema.AnalysisResult into the
// SSA internal/ir representation, the spec.md §4.2 boundary between Sema and
// the optimizer. The file split (core/types/functions/statements/expressions)
// is grounded on internal/bytecode's compiler_core/compiler_functions/
// compiler_statements/compiler_expressions concern separation; the lowering
// rules themselves are grounded on original_source/lib/AST/LowerToIR.cc,
// lib/AST/Lowering/LCStatements.cc and lib/IRGen/LCExpressions.cc.
//
// Every local variable and function parameter is lowered to a stack Alloca
// loaded/stored explicitly rather than kept in SSA registers directly; the
// optimizer's Mem2Reg pass (spec.md §3.5) promotes them afterward,
// matching the original generator's own "alloca, then mem2reg" pipeline
// shape.
package irgen

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/sema"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// Generator holds the cross-function state of a single lowering run: the
// module under construction, the struct/array type cache, and the map from
// sema entities to the ir.Function that implements them.
type Generator struct {
	result *sema.AnalysisResult
	module *ir.Module

	structTypes map[*types.StructType]*ir.StructType
	dynArrays   map[string]*ir.StructType // keyed by element QualType.String()

	functions map[*sema.Function]*ir.Function
	nameSeq   map[string]int // disambiguates overloaded Go function names

	lifetimes map[*types.StructType]*sema.SynthesizedLifetime

	globalStrings int
}

// NewGenerator prepares a Generator over the result of sema.Analyze.
func NewGenerator(result *sema.AnalysisResult) *Generator {
	return &Generator{
		result:      result,
		module:      ir.NewModule(),
		structTypes: map[*types.StructType]*ir.StructType{},
		dynArrays:   map[string]*ir.StructType{},
		functions:   map[*sema.Function]*ir.Function{},
		nameSeq:     map[string]int{},
		lifetimes:   map[*types.StructType]*sema.SynthesizedLifetime{},
	}
}

// Lower runs the full AST -> IR lowering over root and returns the built
// module. root must already be decorated by sema.Analyze using the same
// AnalysisResult the Generator was built from.
func Lower(root *ast.TranslationUnit, result *sema.AnalysisResult) *ir.Module {
	g := NewGenerator(result)
	return g.Lower(root)
}

func (g *Generator) Lower(root *ast.TranslationUnit) *ir.Module {
	for _, st := range g.result.OrderedStructs {
		g.loweredStructType(st)
	}
	for _, st := range g.result.OrderedStructs {
		g.lifetimeFunctions(st)
	}

	var defs []*ast.FunctionDefinition
	collectFunctionDefs(root.Declarations, &defs)

	for _, def := range defs {
		g.declareFunction(def)
	}
	for _, def := range defs {
		g.lowerFunctionBody(def)
	}

	return g.module
}

// collectFunctionDefs walks top-level and struct-member declarations,
// gathering every FunctionDefinition in declaration order.
func collectFunctionDefs(decls []ast.Declaration, out *[]*ast.FunctionDefinition) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.FunctionDefinition:
			*out = append(*out, n)
		case *ast.StructDefinition:
			collectFunctionDefs(n.Members, out)
		}
	}
}

// uniqueName assigns a stable, collision-free IR-level symbol for a
// possibly-overloaded source name: the first function named "f" keeps "f",
// later overloads get "f$1", "f$2", etc.
func (g *Generator) uniqueName(base string) string {
	n := g.nameSeq[base]
	g.nameSeq[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s$%d", base, n)
}
