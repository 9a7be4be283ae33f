package opt

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/ir"
)

// TestGVNEliminatesRedundantAddInSameBlock rebuilds %1 = a+b; %2 = a+b into
// a single computation, rewriting every use of %2 to %1.
func TestGVNEliminatesRedundantAddInSameBlock(t *testing.T) {
	fn := ir.NewFunction("f", []*ir.Parameter{
		ir.NewParameter("a", ir.I64, 0),
		ir.NewParameter("b", ir.I64, 1),
	}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	a, b := fn.Params[0], fn.Params[1]
	first := ir.NewBinary(ir.OpAdd, "s1", a, b, ir.I64)
	second := ir.NewBinary(ir.OpAdd, "s2", a, b, ir.I64)
	entry.PushInst(first)
	entry.PushInst(second)
	entry.PushInst(ir.NewReturn(second))

	changed := gvn(fn, nil)

	if !changed {
		t.Fatal("gvn reported no change on an obviously redundant add")
	}
	if countOp(fn, ir.OpAdd) != 1 {
		t.Errorf("expected exactly one surviving add, got %d", countOp(fn, ir.OpAdd))
	}
	ret := entry.Terminator()
	if ret.Operands[0] != ir.Value(first) {
		t.Errorf("return operand = %v, want the first add", ret.Operands[0])
	}
}

// TestGVNReusesDominatingComputationAcrossBlocks checks that a computation
// in the entry block is reused in a dominated successor, without needing
// a Phi (the successor is reached only through the block that computed it).
func TestGVNReusesDominatingComputationAcrossBlocks(t *testing.T) {
	fn := ir.NewFunction("g", []*ir.Parameter{
		ir.NewParameter("a", ir.I64, 0),
		ir.NewParameter("b", ir.I64, 1),
	}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	succ := ir.NewBasicBlock("succ")
	fn.AddBlock(entry)
	fn.AddBlock(succ)

	a, b := fn.Params[0], fn.Params[1]
	first := ir.NewBinary(ir.OpAdd, "s1", a, b, ir.I64)
	entry.PushInst(first)
	entry.PushInst(ir.NewBranch(succ))

	second := ir.NewBinary(ir.OpAdd, "s2", a, b, ir.I64)
	succ.PushInst(second)
	succ.PushInst(ir.NewReturn(second))

	changed := gvn(fn, nil)

	if !changed {
		t.Fatal("gvn reported no change across dominating blocks")
	}
	ret := succ.Terminator()
	if ret.Operands[0] != ir.Value(first) {
		t.Errorf("return operand = %v, want the add computed in entry", ret.Operands[0])
	}
}

// TestGVNFoldsEqualValuedConstantsAcrossSites checks that two independently
// materialized ConstantInt(7) operands still number as the same add.
func TestGVNFoldsEqualValuedConstantsAcrossSites(t *testing.T) {
	fn := ir.NewFunction("h", []*ir.Parameter{ir.NewParameter("a", ir.I64, 0)}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	a := fn.Params[0]
	first := ir.NewBinary(ir.OpAdd, "s1", a, ir.NewConstantInt(7, ir.I64), ir.I64)
	second := ir.NewBinary(ir.OpAdd, "s2", a, ir.NewConstantInt(7, ir.I64), ir.I64)
	entry.PushInst(first)
	entry.PushInst(second)
	entry.PushInst(ir.NewReturn(second))

	gvn(fn, nil)

	if countOp(fn, ir.OpAdd) != 1 {
		t.Errorf("expected the two equal-valued adds to number the same, got %d survivors", countOp(fn, ir.OpAdd))
	}
}

// TestGVNLeavesDistinctOperandsAlone checks that a+b and a+c are never
// merged.
func TestGVNLeavesDistinctOperandsAlone(t *testing.T) {
	fn := ir.NewFunction("k", []*ir.Parameter{
		ir.NewParameter("a", ir.I64, 0),
		ir.NewParameter("b", ir.I64, 1),
		ir.NewParameter("c", ir.I64, 2),
	}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	a, b, c := fn.Params[0], fn.Params[1], fn.Params[2]
	first := ir.NewBinary(ir.OpAdd, "s1", a, b, ir.I64)
	second := ir.NewBinary(ir.OpAdd, "s2", a, c, ir.I64)
	entry.PushInst(first)
	entry.PushInst(second)
	entry.PushInst(ir.NewReturn(second))

	changed := gvn(fn, nil)

	if changed {
		t.Error("gvn reported a change for two structurally distinct adds")
	}
	if countOp(fn, ir.OpAdd) != 2 {
		t.Errorf("expected both adds to survive, got %d", countOp(fn, ir.OpAdd))
	}
}
