package opt

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/ir"
)

func countOp(fn *ir.Function, op ir.Opcode) int {
	n := 0
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if inst.Op == op {
				n++
			}
		}
	}
	return n
}

// buildStraightLineAllocaFn builds: entry: %a = alloca i64; store %a, 7;
// %v = load %a; return %v — a single promotable local with no control flow.
func buildStraightLineAllocaFn() (*ir.Function, *ir.Instruction) {
	fn := ir.NewFunction("f", nil, ir.I64)
	entry := ir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	alloca := ir.NewAlloca("a", ir.I64, ir.Ptr)
	entry.PushInst(alloca)
	entry.PushInst(ir.NewStore(alloca, ir.NewConstantInt(7, ir.I64)))
	load := ir.NewLoad("v", alloca, ir.I64)
	entry.PushInst(load)
	entry.PushInst(ir.NewReturn(load))
	return fn, load
}

func TestMem2RegPromotesStraightLineAlloca(t *testing.T) {
	fn, load := buildStraightLineAllocaFn()

	changed := mem2Reg(fn, nil)

	if !changed {
		t.Fatal("mem2Reg reported no change on a promotable alloca")
	}
	if countOp(fn, ir.OpAlloca) != 0 {
		t.Errorf("alloca survived promotion")
	}
	if countOp(fn, ir.OpLoad) != 0 {
		t.Errorf("load survived promotion")
	}
	ret := fn.Entry().Terminator()
	if ret.Op != ir.OpReturn {
		t.Fatalf("terminator = %s, want return", ret.Op)
	}
	if ci, ok := ret.Operands[0].(*ir.ConstantInt); !ok || ci.Value != 7 {
		t.Errorf("return operand = %#v, want ConstantInt(7)", ret.Operands[0])
	}
	_ = load
}

// buildDiamondAllocaFn builds a diamond where each branch stores a
// different constant, and the join block loads the alloca — requiring a
// Phi to be inserted at the join.
func buildDiamondAllocaFn() (*ir.Function, *ir.BasicBlock) {
	fn := ir.NewFunction("g", nil, ir.I64)
	entry := ir.NewBasicBlock("entry")
	left := ir.NewBasicBlock("left")
	right := ir.NewBasicBlock("right")
	join := ir.NewBasicBlock("join")
	fn.AddBlock(entry)
	fn.AddBlock(left)
	fn.AddBlock(right)
	fn.AddBlock(join)

	alloca := ir.NewAlloca("a", ir.I64, ir.Ptr)
	entry.PushInst(alloca)
	entry.PushInst(ir.NewCondBranch(ir.NewConstantInt(1, ir.I1), left, right))

	left.PushInst(ir.NewStore(alloca, ir.NewConstantInt(1, ir.I64)))
	left.PushInst(ir.NewBranch(join))

	right.PushInst(ir.NewStore(alloca, ir.NewConstantInt(2, ir.I64)))
	right.PushInst(ir.NewBranch(join))

	load := ir.NewLoad("v", alloca, ir.I64)
	join.PushInst(load)
	join.PushInst(ir.NewReturn(load))

	return fn, join
}

func TestMem2RegInsertsPhiAtJoin(t *testing.T) {
	fn, join := buildDiamondAllocaFn()

	changed := mem2Reg(fn, nil)

	if !changed {
		t.Fatal("mem2Reg reported no change on a promotable diamond alloca")
	}
	if countOp(fn, ir.OpAlloca) != 0 {
		t.Errorf("alloca survived promotion")
	}
	if len(join.Instructions) == 0 || join.Instructions[0].Op != ir.OpPhi {
		t.Fatalf("join block's first instruction = %v, want a leading Phi", join.Instructions)
	}
	phi := join.Instructions[0]
	if len(phi.PhiIncoming) != 2 {
		t.Errorf("phi has %d incoming edges, want 2", len(phi.PhiIncoming))
	}
	ret := join.Terminator()
	if ret.Operands[0] != ir.Value(phi) {
		t.Errorf("return operand = %v, want the inserted phi", ret.Operands[0])
	}
}

func TestMem2RegSkipsAllocaWithNonLoadStoreUser(t *testing.T) {
	fn := ir.NewFunction("h", nil, ir.Void)
	entry := ir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	alloca := ir.NewAlloca("a", ir.I64, ir.Ptr)
	entry.PushInst(alloca)
	// Used as a call argument (address escapes) rather than Load/Store.
	callee := ir.NewFunction("sink", []*ir.Parameter{ir.NewParameter("p", ir.Ptr, 0)}, ir.Void)
	entry.PushInst(ir.NewCall("", callee, []ir.Value{alloca}, ir.Void))
	entry.PushInst(ir.NewReturn(nil))

	mem2Reg(fn, nil)

	if countOp(fn, ir.OpAlloca) != 1 {
		t.Error("alloca with an escaping (non load/store) use was incorrectly promoted away")
	}
}
