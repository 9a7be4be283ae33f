package opt

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ir"
)

func init() {
	Register(&Pass{
		Name:     "loopunroll",
		Category: Experimental,
		Function: loopUnroll,
	})
}

// maxUnrollIterations bounds how many times the formal evaluator below will
// step an induction variable before giving up, grounded on
// original_source/lib/Opt/LoopUnroll.cc's trip-count cap (the source picks
// a similarly small constant to keep the pass from silently exploding code
// size on a loop whose bound merely happens to be a compile-time constant
// but is still large).
const maxUnrollIterations = 32

// loopUnroll fully unrolls a loop whose trip count can be evaluated at
// compile time, grounded on original_source/lib/Opt/LoopUnroll.cc. It is
// scoped to the two-block shape this lowering actually produces for a
// simple counting loop (spec.md §3's while/for lowering: a header block
// holding the induction Phi and the exit test, and a single body block
// that is also the loop's only latch) — a loop with internal branches in
// its body, multiple latches, or a header computing anything beyond the
// Phi and its exit test is left alone rather than generalized to arbitrary
// loop shapes.
func loopUnroll(fn *ir.Function, _ Args) bool {
	dom := ir.ComputeDominance(fn)
	lnf := ir.BuildLoopNestingForest(fn, dom)
	changed := false
	var walk func(loops []*ir.Loop)
	walk = func(loops []*ir.Loop) {
		for _, l := range loops {
			// Innermost first: an outer loop around an already-unrolled
			// inner one has a smaller, possibly now-constant body to work
			// with next time this pass runs.
			walk(l.Children)
			if unrollOne(fn, l) {
				changed = true
			}
		}
	}
	walk(lnf.Roots)
	return changed
}

type inductionVar struct {
	phi        *ir.Instruction
	start      int64
	stride     int64
	strideOp   ir.Opcode
	cmpOp      ir.Opcode
	bound      int64
	continueOn bool // the comparison's truth value that keeps looping
}

func unrollOne(fn *ir.Function, loop *ir.Loop) bool {
	if len(loop.Blocks) != 2 {
		return false
	}
	h := loop.Header
	var body *ir.BasicBlock
	for b := range loop.Blocks {
		if b != h {
			body = b
		}
	}
	if body == nil {
		return false
	}

	term := h.Terminator()
	if term == nil || term.Op != ir.OpCondBranch {
		return false
	}
	var s *ir.BasicBlock
	switch {
	case term.Targets[0] == body && term.Targets[1] != body:
		s = term.Targets[1]
	case term.Targets[1] == body && term.Targets[0] != body:
		s = term.Targets[0]
	default:
		return false
	}

	if body.Terminator() == nil || body.Terminator().Op != ir.OpBranch || body.Terminator().Targets[0] != h {
		return false
	}
	if len(h.Preds) != 2 {
		return false
	}
	var preheader *ir.BasicBlock
	for _, p := range h.Preds {
		if p != body {
			preheader = p
		}
	}
	if preheader == nil {
		return false
	}

	iv, ok := findInductionVar(h, term, body)
	if !ok {
		return false
	}
	if headerHasExtraWork(h, term) {
		return false
	}

	values, finalIV, ok := evaluate(iv)
	if !ok {
		return false
	}

	if exitPhiBlocksUnroll(s, h, iv.phi) {
		return false
	}

	suffix := nextInlineID()
	var clones []*ir.BasicBlock
	for k, v := range values {
		instMap := map[*ir.Instruction]*ir.Instruction{}
		constVal := ir.NewConstantInt(v, iv.phi.Type())
		mapValue := func(val ir.Value) ir.Value {
			if val == ir.Value(iv.phi) {
				return constVal
			}
			if inst, ok := val.(*ir.Instruction); ok {
				if cloned, ok := instMap[inst]; ok {
					return cloned
				}
			}
			return val
		}
		clone := ir.NewBasicBlock(fmt.Sprintf("%s.unroll%d.%d", body.Name(), suffix, k))
		for _, inst := range body.Instructions {
			if inst == body.Terminator() {
				continue
			}
			clone.PushInst(cloneInstruction(inst, instMap, mapValue, nil, suffix*1000+k))
		}
		clones = append(clones, clone)
		fn.AddBlock(clone)
	}
	for k, clone := range clones {
		if k+1 < len(clones) {
			clone.PushInst(ir.NewBranch(clones[k+1]))
		} else {
			clone.PushInst(ir.NewBranch(s))
		}
	}

	entry := s
	lastBody := preheader
	if len(clones) > 0 {
		entry = clones[0]
		lastBody = clones[len(clones)-1]
	}
	retarget(preheader, h, entry)

	if len(clones) > 0 {
		// retarget above only rewired preheader->h into preheader->clones[0];
		// s still lists h as a predecessor from the original h->s exit edge,
		// which now actually runs through the last clone instead.
		for i, p := range s.Preds {
			if p == h {
				s.Preds[i] = lastBody
			}
		}
	}
	for _, inst := range s.Instructions {
		if inst.Op != ir.OpPhi {
			continue
		}
		for i, b := range inst.PhiIncoming {
			if b == h {
				inst.PhiIncoming[i] = lastBody
				if inst.Operands[i] == ir.Value(iv.phi) {
					inst.Operands[i] = ir.NewConstantInt(finalIV, iv.phi.Type())
				}
			}
		}
	}
	return true
}

// findInductionVar looks for the canonical shape phi(start, body-computed
// stride-op) feeding term's condition via a direct compare against a
// constant bound.
func findInductionVar(h *ir.BasicBlock, term *ir.Instruction, body *ir.BasicBlock) (inductionVar, bool) {
	cmp, ok := term.Operands[0].(*ir.Instruction)
	if !ok || !isCompare(cmp.Op) {
		return inductionVar{}, false
	}
	phi, boundConst, swapped := asPhiAndConst(cmp.Operands[0], cmp.Operands[1])
	if phi == nil || phi.Op != ir.OpPhi || phi.Parent != h || boundConst == nil {
		return inductionVar{}, false
	}
	var start int64
	var stepInst *ir.Instruction
	for i, b := range phi.PhiIncoming {
		if b == body {
			si, ok := phi.Operands[i].(*ir.Instruction)
			if !ok {
				return inductionVar{}, false
			}
			stepInst = si
		} else {
			c, ok := phi.Operands[i].(*ir.ConstantInt)
			if !ok {
				return inductionVar{}, false
			}
			start = c.Value
		}
	}
	if stepInst == nil || stepInst.Parent != body {
		return inductionVar{}, false
	}
	if stepInst.Op != ir.OpAdd && stepInst.Op != ir.OpSub && stepInst.Op != ir.OpMul {
		return inductionVar{}, false
	}
	selfOp, strideConst, _ := asPhiAndConst(stepInst.Operands[0], stepInst.Operands[1])
	if selfOp != phi || strideConst == nil {
		return inductionVar{}, false
	}

	cmpOp := cmp.Op
	if swapped {
		cmpOp = flipCompare(cmpOp)
	}
	// term.Targets[0] is the continue (body) target exactly when the
	// CondBranch's first target is body; the comparison is "true keeps
	// looping" in that case (see whileStmt's NewCondBranch(cond, body, exit)
	// construction), otherwise inverted.
	continueOn := term.Targets[0] == body

	return inductionVar{
		phi: phi, start: start, stride: strideConst.Value, strideOp: stepInst.Op,
		cmpOp: cmpOp, bound: boundConst.Value, continueOn: continueOn,
	}, true
}

func asPhiAndConst(a, b ir.Value) (*ir.Instruction, *ir.ConstantInt, bool) {
	if phi, ok := a.(*ir.Instruction); ok {
		if c, ok := b.(*ir.ConstantInt); ok {
			return phi, c, false
		}
	}
	if phi, ok := b.(*ir.Instruction); ok {
		if c, ok := a.(*ir.ConstantInt); ok {
			return phi, c, true
		}
	}
	return nil, nil, false
}

func isCompare(op ir.Opcode) bool {
	switch op {
	case ir.OpICmpEq, ir.OpICmpNe, ir.OpICmpSLt, ir.OpICmpSLe, ir.OpICmpSGt, ir.OpICmpSGe:
		return true
	default:
		return false
	}
}

func flipCompare(op ir.Opcode) ir.Opcode {
	switch op {
	case ir.OpICmpSLt:
		return ir.OpICmpSGt
	case ir.OpICmpSLe:
		return ir.OpICmpSGe
	case ir.OpICmpSGt:
		return ir.OpICmpSLt
	case ir.OpICmpSGe:
		return ir.OpICmpSLe
	default:
		return op
	}
}

func evalCompare(op ir.Opcode, lhs, rhs int64) bool {
	switch op {
	case ir.OpICmpEq:
		return lhs == rhs
	case ir.OpICmpNe:
		return lhs != rhs
	case ir.OpICmpSLt:
		return lhs < rhs
	case ir.OpICmpSLe:
		return lhs <= rhs
	case ir.OpICmpSGt:
		return lhs > rhs
	case ir.OpICmpSGe:
		return lhs >= rhs
	default:
		return false
	}
}

// headerHasExtraWork reports whether h computes anything beyond its Phis,
// the ivPhi's own exit-test compare, and its terminator.
func headerHasExtraWork(h *ir.BasicBlock, term *ir.Instruction) bool {
	cmp, _ := term.Operands[0].(*ir.Instruction)
	for _, inst := range h.Instructions {
		if inst.Op == ir.OpPhi || inst == term || inst == cmp {
			continue
		}
		return true
	}
	return false
}

// exitPhiBlocksUnroll reports whether s has a Phi with an incoming edge
// from h that this pass can't resolve (something other than the
// induction variable itself).
func exitPhiBlocksUnroll(s, h *ir.BasicBlock, ivPhi *ir.Instruction) bool {
	for _, inst := range s.Instructions {
		if inst.Op != ir.OpPhi {
			continue
		}
		for i, b := range inst.PhiIncoming {
			if b == h && inst.Operands[i] != ir.Value(ivPhi) {
				return true
			}
		}
	}
	return false
}

// evaluate formally steps iv's sequence up to maxUnrollIterations times,
// returning the IV's value at the start of every executed iteration plus
// the value it held when the test finally failed (what the exit block
// would see afterward), or ok=false if the bound can't be reached within
// the cap.
func evaluate(iv inductionVar) (values []int64, finalValue int64, ok bool) {
	cur := iv.start
	for i := 0; i < maxUnrollIterations; i++ {
		continues := evalCompare(iv.cmpOp, cur, iv.bound) == iv.continueOn
		if !continues {
			return values, cur, true
		}
		values = append(values, cur)
		switch iv.strideOp {
		case ir.OpAdd:
			cur += iv.stride
		case ir.OpSub:
			cur -= iv.stride
		case ir.OpMul:
			cur *= iv.stride
		}
	}
	return nil, 0, false
}
