package isel

import (
	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/mir"
)

const wordSize = 8

func isVoidType(t ir.Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(ir.VoidType)
	return ok
}

// numWords returns how many 8-byte machine words a value of type t occupies,
// grounded on ISelFunction.cc's numWords helper.
func numWords(t ir.Type) int {
	if isVoidType(t) {
		return 0
	}
	n := (t.Size() + wordSize - 1) / wordSize
	if n == 0 {
		n = 1
	}
	return n
}

func widthOf(t ir.Type) int {
	if isVoidType(t) {
		return 0
	}
	return t.Size() * 8
}

func numParamRegisters(fn *ir.Function) int {
	n := 0
	for _, p := range fn.Params {
		n += numWords(p.Type())
	}
	return n
}

func numReturnRegisters(fn *ir.Function) int {
	return numWords(fn.ReturnType)
}

func visibilityOf(fn *ir.Function) mir.Visibility {
	if fn.IsExtern {
		return mir.VisibilityExtern
	}
	return mir.VisibilityExported
}

// Select lowers an entire IR module to MIR, grounded on ISel.cc's cg::isel:
// every function is declared up front (so calls can resolve forward
// references through the shared ValueMap) before any function body is
// selected.
func Select(irMod *ir.Module) *mir.Module {
	global := mir.NewValueMap()
	mirMod := mir.NewModule()

	type pair struct {
		irFn  *ir.Function
		mirFn *mir.Function
	}
	var fns []pair
	for _, irFn := range irMod.Functions {
		mirFn := mir.NewFunction(irFn.Name(), numParamRegisters(irFn), numReturnRegisters(irFn), visibilityOf(irFn))
		mirFn.IsExtern = irFn.IsExtern
		mirMod.AddFunction(mirFn)
		global.Insert(irFn, mirFn)
		fns = append(fns, pair{irFn, mirFn})
	}
	for _, p := range fns {
		if p.irFn.IsExtern {
			continue
		}
		selectFunction(p.irFn, p.mirFn, global)
	}
	return mirMod
}
