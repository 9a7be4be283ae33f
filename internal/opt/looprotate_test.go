package opt

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/ir"
)

func TestLoopRotateDuplicatesHeaderAsFooter(t *testing.T) {
	fn, preheader, h, body, s := buildCountingLoop(10)

	changed := loopRotate(fn, nil)

	if !changed {
		t.Fatal("loopRotate reported no change on a rotatable header-tested loop")
	}

	if body.Terminator().Targets[0] == h {
		t.Error("body (the latch) still branches back to the original header instead of the footer")
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
	if len(exitPhi.PhiIncoming) != 2 {
		t.Errorf("exit phi has %d incoming edges after rotation, want 2 (guard and footer)", len(exitPhi.PhiIncoming))
	}

	var foundFooterBlock bool
	for _, b := range fn.Blocks {
		if b == h || b == body || b == s || b == preheader {
			continue
		}
		if b.Terminator() != nil && b.Terminator().Op == ir.OpCondBranch {
			foundFooterBlock = true
		}
	}
	if !foundFooterBlock {
		t.Error("no new footer block with its own exit test was added")
	}
}

// TestLoopRotateDeclinesMultiLatchLoop builds a loop whose body splits
// into two blocks that both branch back to the header, giving the header
// two in-loop predecessors — outside this pass's single-latch scope.
func TestLoopRotateDeclinesMultiLatchLoop(t *testing.T) {
	fn := ir.NewFunction("g", nil, ir.I64)
	preheader := ir.NewBasicBlock("preheader")
	h := ir.NewBasicBlock("h")
	bodyA := ir.NewBasicBlock("bodyA")
	bodyB := ir.NewBasicBlock("bodyB")
	s := ir.NewBasicBlock("s")
	fn.AddBlock(preheader)
	fn.AddBlock(h)
	fn.AddBlock(bodyA)
	fn.AddBlock(bodyB)
	fn.AddBlock(s)

	preheader.PushInst(ir.NewBranch(h))

	phi := ir.NewPhi("i", ir.I64)
	h.PushInst(phi)
	cmp := ir.NewBinary(ir.OpICmpSLt, "cmp", phi, ir.NewConstantInt(10, ir.I64), ir.I1)
	h.PushInst(cmp)
	h.PushInst(ir.NewCondBranch(cmp, bodyA, s))

	split := ir.NewConstantInt(1, ir.I1)
	bodyA.PushInst(ir.NewCondBranch(split, h, bodyB))
	bodyB.PushInst(ir.NewBranch(h))

	phi.AddIncoming(preheader, ir.NewConstantInt(0, ir.I64))
	phi.AddIncoming(bodyA, phi)
	phi.AddIncoming(bodyB, phi)

	s.PushInst(ir.NewReturn(nil))

	changed := loopRotate(fn, nil)

	if changed {
		t.Error("loopRotate should decline a loop whose header has more than one in-loop predecessor")
	}
}
