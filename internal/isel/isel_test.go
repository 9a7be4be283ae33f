package isel

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/mir"
)

func countMirOp(fn *mir.Function, op mir.Opcode) int {
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

func TestSelectLowersArithmeticAndReturn(t *testing.T) {
	fn, _ := buildAddThenReturn()
	mod := ir.NewModule()
	mod.AddFunction(fn)

	mirMod := Select(mod)

	if len(mirMod.Functions) != 1 {
		t.Fatalf("len(Functions) = %d, want 1", len(mirMod.Functions))
	}
	mirFn := mirMod.Functions[0]
	if countMirOp(mirFn, mir.OpArith) != 1 {
		t.Errorf("expected exactly one OpArith")
	}
	entry := mirFn.Entry()
	term := entry.Terminator()
	if term.Op != mir.OpReturn {
		t.Fatalf("terminator = %v, want OpReturn", term.Op)
	}
	if entry.Instructions[len(entry.Instructions)-2].Op != mir.OpCopy {
		t.Errorf("instruction before return = %v, want OpCopy into the return register", entry.Instructions[len(entry.Instructions)-2].Op)
	}
}

// buildCompareBranch builds: entry: %c = icmp slt %p, 10; condbranch %c,
// then, else. then: return 1. else: return 0.
func buildCompareBranch() *ir.Function {
	p := ir.NewParameter("p", ir.I64, 0)
	fn := ir.NewFunction("cmp", []*ir.Parameter{p}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	thenBB := ir.NewBasicBlock("then")
	elseBB := ir.NewBasicBlock("else")
	fn.AddBlock(entry)
	fn.AddBlock(thenBB)
	fn.AddBlock(elseBB)

	cmp := ir.NewBinary(ir.OpICmpSLt, "c", p, ir.NewConstantInt(10, ir.I64), ir.I1)
	entry.PushInst(cmp)
	entry.PushInst(ir.NewCondBranch(cmp, thenBB, elseBB))
	thenBB.PushInst(ir.NewReturn(ir.NewConstantInt(1, ir.I64)))
	elseBB.PushInst(ir.NewReturn(ir.NewConstantInt(0, ir.I64)))
	return fn
}

func TestSelectFoldsSingleUseCompareIntoCondJump(t *testing.T) {
	fn := buildCompareBranch()
	mod := ir.NewModule()
	mod.AddFunction(fn)

	mirMod := Select(mod)
	mirFn := mirMod.Functions[0]

	if countMirOp(mirFn, mir.OpSet) != 0 {
		t.Errorf("compare feeding only a branch should not materialize an OpSet")
	}
	if countMirOp(mirFn, mir.OpCompare) != 1 {
		t.Errorf("expected exactly one OpCompare")
	}
	if countMirOp(mirFn, mir.OpCondJump) != 1 {
		t.Errorf("expected exactly one OpCondJump")
	}
}

// buildDiamondWithPhi builds a diamond merging two constants through a Phi
// without running mem2reg: entry branches to left/right, both jump to join,
// join's Phi selects the incoming constant and returns it.
func buildDiamondWithPhi() (*ir.Function, *ir.Instruction) {
	fn := ir.NewFunction("diamond", nil, ir.I64)
	entry := ir.NewBasicBlock("entry")
	left := ir.NewBasicBlock("left")
	right := ir.NewBasicBlock("right")
	join := ir.NewBasicBlock("join")
	fn.AddBlock(entry)
	fn.AddBlock(left)
	fn.AddBlock(right)
	fn.AddBlock(join)

	entry.PushInst(ir.NewCondBranch(ir.NewConstantInt(1, ir.I1), left, right))
	left.PushInst(ir.NewBranch(join))
	right.PushInst(ir.NewBranch(join))

	phi := ir.NewPhi("v", ir.I64)
	phi.AddIncoming(left, ir.NewConstantInt(1, ir.I64))
	phi.AddIncoming(right, ir.NewConstantInt(2, ir.I64))
	join.PushInst(phi)
	join.PushInst(ir.NewReturn(phi))
	return fn, phi
}

func TestSelectEliminatesPhiIntoPredecessorCopies(t *testing.T) {
	fn, _ := buildDiamondWithPhi()
	mod := ir.NewModule()
	mod.AddFunction(fn)

	mirMod := Select(mod)
	mirFn := mirMod.Functions[0]

	var left, right *mir.BasicBlock
	for _, b := range mirFn.Blocks {
		switch b.Name() {
		case "left":
			left = b
		case "right":
			right = b
		}
	}
	if left == nil || right == nil {
		t.Fatal("expected left and right blocks to survive selection")
	}
	for _, b := range []*mir.BasicBlock{left, right} {
		if len(b.Instructions) < 2 {
			t.Fatalf("block %s has %d instructions, want a copy before its jump", b.Name(), len(b.Instructions))
		}
		copyInst := b.Instructions[len(b.Instructions)-2]
		if copyInst.Op != mir.OpCopy {
			t.Errorf("block %s: instruction before terminator = %v, want OpCopy", b.Name(), copyInst.Op)
		}
		if b.Terminator().Op != mir.OpJump {
			t.Errorf("block %s: terminator = %v, want OpJump", b.Name(), b.Terminator().Op)
		}
	}
}

func TestSelectResolvesForwardCallReference(t *testing.T) {
	calleeFn := ir.NewFunction("callee", nil, ir.I64)
	calleeEntry := ir.NewBasicBlock("entry")
	calleeFn.AddBlock(calleeEntry)
	calleeEntry.PushInst(ir.NewReturn(ir.NewConstantInt(42, ir.I64)))

	callerFn := ir.NewFunction("caller", nil, ir.I64)
	callerEntry := ir.NewBasicBlock("entry")
	callerFn.AddBlock(callerEntry)
	call := ir.NewCall("r", calleeFn, nil, ir.I64)
	callerEntry.PushInst(call)
	callerEntry.PushInst(ir.NewReturn(call))

	// caller declared before callee in the module, exercising the
	// declare-everything-first pre-pass.
	mod := ir.NewModule()
	mod.AddFunction(callerFn)
	mod.AddFunction(calleeFn)

	mirMod := Select(mod)

	var callerMirFn *mir.Function
	for _, f := range mirMod.Functions {
		if f.Name() == "caller" {
			callerMirFn = f
		}
	}
	if callerMirFn == nil {
		t.Fatal("caller function missing from selected module")
	}
	var callInst *mir.Instruction
	for _, inst := range callerMirFn.Entry().Instructions {
		if inst.Op == mir.OpCall {
			callInst = inst
		}
	}
	if callInst == nil {
		t.Fatal("expected an OpCall instruction in caller")
	}
	if callInst.Callee == nil || callInst.Callee.Name() != "callee" {
		t.Errorf("Callee = %v, want the selected callee function", callInst.Callee)
	}
}
