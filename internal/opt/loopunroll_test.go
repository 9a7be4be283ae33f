package opt

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/ir"
)

// buildCountingLoop builds: preheader branches to h; h holds phi i =
// [0 from preheader, i2 from body], tests i<3, branches to body or s;
// body computes i2=i+1 and branches back to h; s holds a phi r=[i from h]
// and returns r — the canonical "for i := 0; i < 3; i++" shape.
func buildCountingLoop(bound int64) (*ir.Function, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock) {
	fn := ir.NewFunction("f", nil, ir.I64)
	preheader := ir.NewBasicBlock("preheader")
	h := ir.NewBasicBlock("h")
	body := ir.NewBasicBlock("body")
	s := ir.NewBasicBlock("s")
	fn.AddBlock(preheader)
	fn.AddBlock(h)
	fn.AddBlock(body)
	fn.AddBlock(s)

	preheader.PushInst(ir.NewBranch(h))

	phi := ir.NewPhi("i", ir.I64)
	h.PushInst(phi)
	cmp := ir.NewBinary(ir.OpICmpSLt, "cmp", phi, ir.NewConstantInt(bound, ir.I64), ir.I1)
	h.PushInst(cmp)
	h.PushInst(ir.NewCondBranch(cmp, body, s))

	i2 := ir.NewBinary(ir.OpAdd, "i2", phi, ir.NewConstantInt(1, ir.I64), ir.I64)
	body.PushInst(i2)
	body.PushInst(ir.NewBranch(h))

	phi.AddIncoming(preheader, ir.NewConstantInt(0, ir.I64))
	phi.AddIncoming(body, i2)

	exitPhi := ir.NewPhi("r", ir.I64)
	s.PushInst(exitPhi)
	exitPhi.AddIncoming(h, phi)
	s.PushInst(ir.NewReturn(exitPhi))

	return fn, preheader, h, body, s
}

func TestLoopUnrollFullyUnrollsSmallBoundedLoop(t *testing.T) {
	fn, preheader, _, body, s := buildCountingLoop(3)

	changed := loopUnroll(fn, nil)

	if !changed {
		t.Fatal("loopUnroll reported no change on a 3-iteration constant-bound loop")
	}

	preTarget := preheader.Terminator().Targets[0]
	if preTarget == body {
		t.Fatal("preheader still branches into the original loop body")
	}

	var exitPhi *ir.Instruction
	for _, inst := range s.Instructions {
		if inst.Op == ir.OpPhi {
			exitPhi = inst
		}
	}
	if exitPhi == nil {
		t.Fatal("exit phi disappeared")
	}
	var sawFinal bool
	for _, v := range exitPhi.Operands {
		if ci, ok := v.(*ir.ConstantInt); ok && ci.Value == 3 {
			sawFinal = true
		}
	}
	if !sawFinal {
		t.Errorf("exit phi operands = %v, want a ConstantInt(3) (the final induction value)", exitPhi.Operands)
	}

	unrolledBlocks := 0
	for _, b := range fn.Blocks {
		if len(b.Name()) > 4 && b.Name()[:4] == "body" && b != body {
			unrolledBlocks++
		}
	}
	if unrolledBlocks != 3 {
		t.Errorf("expected 3 cloned body blocks, got %d", unrolledBlocks)
	}
}

func TestLoopUnrollDeclinesWhenBoundExceedsCap(t *testing.T) {
	fn, _, _, _, _ := buildCountingLoop(1000)

	changed := loopUnroll(fn, nil)

	if changed {
		t.Error("loopUnroll should not unroll a loop whose trip count exceeds the cap")
	}
}
