package opt

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/ir"
)

// buildAddOneCallee builds a tiny single-block function: return p0+1.
func buildAddOneCallee(name string) *ir.Function {
	callee := ir.NewFunction(name, []*ir.Parameter{ir.NewParameter("p0", ir.I64, 0)}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	callee.AddBlock(entry)
	sum := ir.NewBinary(ir.OpAdd, "sum", callee.Params[0], ir.NewConstantInt(1, ir.I64), ir.I64)
	entry.PushInst(sum)
	entry.PushInst(ir.NewReturn(sum))
	return callee
}

func TestInlineSingleReturnCallSite(t *testing.T) {
	mod := ir.NewModule()
	callee := buildAddOneCallee("addOne")
	mod.AddFunction(callee)

	caller := ir.NewFunction("main", nil, ir.I64)
	entry := ir.NewBasicBlock("entry")
	caller.AddBlock(entry)
	call := ir.NewCall("r", callee, []ir.Value{ir.NewConstantInt(41, ir.I64)}, ir.I64)
	entry.PushInst(call)
	ret := ir.NewReturn(call)
	entry.PushInst(ret)
	mod.AddFunction(caller)

	changed := inline(mod, nil)

	if !changed {
		t.Fatal("inline reported no change on an obviously inlinable call")
	}
	for _, b := range caller.Blocks {
		for _, inst := range b.Instructions {
			if inst.Op == ir.OpCall {
				t.Errorf("call to %s survived inlining", inst.Callee.Name())
			}
		}
	}
	if ret.Operands[0] == ir.Value(call) {
		t.Error("return still references the original call instruction")
	}
}

func TestInlineDeclinesRecursiveCallee(t *testing.T) {
	mod := ir.NewModule()
	rec := ir.NewFunction("rec", []*ir.Parameter{ir.NewParameter("p0", ir.I64, 0)}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	rec.AddBlock(entry)
	self := ir.NewCall("r", rec, []ir.Value{rec.Params[0]}, ir.I64)
	entry.PushInst(self)
	entry.PushInst(ir.NewReturn(self))
	mod.AddFunction(rec)

	changed := inline(mod, nil)

	if changed {
		t.Error("inline should never absorb a self-recursive callee")
	}
	if countOp(rec, ir.OpCall) != 1 {
		t.Errorf("expected the recursive call to survive untouched, got %d calls", countOp(rec, ir.OpCall))
	}
}

func TestInlineDeclinesLargeMultiUseCallee(t *testing.T) {
	mod := ir.NewModule()
	callee := ir.NewFunction("big", []*ir.Parameter{ir.NewParameter("p0", ir.I64, 0)}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	callee.AddBlock(entry)
	v := ir.Value(callee.Params[0])
	for i := 0; i < 45; i++ {
		next := ir.NewBinary(ir.OpAdd, "", v, ir.NewConstantInt(1, ir.I64), ir.I64)
		entry.PushInst(next)
		v = next
	}
	entry.PushInst(ir.NewReturn(v))
	mod.AddFunction(callee)

	caller1 := ir.NewFunction("c1", nil, ir.I64)
	b1 := ir.NewBasicBlock("entry")
	caller1.AddBlock(b1)
	call1 := ir.NewCall("r1", callee, []ir.Value{ir.NewConstantInt(1, ir.I64)}, ir.I64)
	b1.PushInst(call1)
	b1.PushInst(ir.NewReturn(call1))
	mod.AddFunction(caller1)

	caller2 := ir.NewFunction("c2", nil, ir.I64)
	b2 := ir.NewBasicBlock("entry")
	caller2.AddBlock(b2)
	call2 := ir.NewCall("r2", callee, []ir.Value{ir.NewConstantInt(2, ir.I64)}, ir.I64)
	b2.PushInst(call2)
	b2.PushInst(ir.NewReturn(call2))
	mod.AddFunction(caller2)

	inline(mod, nil)

	if countOp(caller1, ir.OpCall) != 1 || countOp(caller2, ir.OpCall) != 1 {
		t.Error("a large callee with two call sites and a constant-free body should not be inlined")
	}
}
