package opt

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ir"
)

func init() {
	Register(&Pass{
		Name:     "looprotate",
		Category: Simplification,
		Function: loopRotate,
	})
}

// loopRotate turns a header-tested loop into a footer-tested one, grounded
// on original_source/lib/Opt/LoopRotate.cc's guard/footer transform: the
// header's exit test is duplicated as a footer block F placed after the
// loop body, so every later iteration branches straight from the body into
// F instead of back up through the header. This exposes a single
// bottom-of-loop test to LoopUnroll and lets later passes treat the loop
// body as straight-line code guarded by one upfront check (G, the renamed
// original header) and re-tested once per iteration by F.
//
// This implementation handles the common shape this lowering actually
// produces — one preheader, one latch, a header ending in a CondBranch
// whose two targets split into exactly one in-loop and one out-of-loop
// successor — and declines (returns false, changes nothing) for multi-
// latch loops or headers with more than one outside predecessor, rather
// than first normalizing the CFG the way the source's preheader/landing-
// pad insertion does. Phi rewiring at the loop's exit points (E, S) is
// scoped to the header's own Phi instructions, which is what every
// mem2reg-produced loop-carried value actually is; a non-Phi computation
// in the header that escapes directly to E or S (rare — H's non-phi work
// is normally just the exit test feeding its own CondBranch) is left
// unrotated by conservatively refusing to rotate headers with such an
// escaping use.
func loopRotate(fn *ir.Function, _ Args) bool {
	dom := ir.ComputeDominance(fn)
	lnf := ir.BuildLoopNestingForest(fn, dom)
	changed := false
	var rotateForest func(loops []*ir.Loop)
	rotateForest = func(loops []*ir.Loop) {
		for _, l := range loops {
			if rotateOne(fn, l) {
				changed = true
			}
			rotateForest(l.Children)
		}
	}
	rotateForest(lnf.Roots)
	return changed
}

func rotateOne(fn *ir.Function, loop *ir.Loop) bool {
	h := loop.Header
	term := h.Terminator()
	if term == nil || term.Op != ir.OpCondBranch {
		return false
	}
	t0, t1 := term.Targets[0], term.Targets[1]
	var e, s *ir.BasicBlock
	switch {
	case loop.Blocks[t0] && !loop.Blocks[t1]:
		e, s = t0, t1
	case loop.Blocks[t1] && !loop.Blocks[t0]:
		e, s = t1, t0
	default:
		return false
	}
	if e == h {
		// A single-block loop whose entire body is the header itself: the
		// footer would need to loop back to itself rather than to h, which
		// this pass doesn't special-case, so it declines rather than wiring
		// the footer's exit test incorrectly.
		return false
	}

	var preheaders, latches []*ir.BasicBlock
	for _, p := range h.Preds {
		if loop.Blocks[p] {
			latches = append(latches, p)
		} else {
			preheaders = append(preheaders, p)
		}
	}
	if len(preheaders) != 1 || len(latches) != 1 {
		return false
	}
	latch := latches[0]

	if headerEscapesNonPhi(h, loop) {
		return false
	}

	footerSuffix := nextInlineID()
	instMap := map[*ir.Instruction]*ir.Instruction{}
	latchValueOf := func(phi *ir.Instruction) ir.Value {
		for i, b := range phi.PhiIncoming {
			if b == latch {
				return phi.Operands[i]
			}
		}
		return nil
	}
	mapValue := func(v ir.Value) ir.Value {
		if inst, ok := v.(*ir.Instruction); ok {
			if inst.Op == ir.OpPhi && inst.Parent == h {
				if lv := latchValueOf(inst); lv != nil {
					return lv
				}
			}
			if cloned, ok := instMap[inst]; ok {
				return cloned
			}
		}
		return v
	}

	footer := ir.NewBasicBlock(fmt.Sprintf("%s.footer%d", h.Name(), footerSuffix))
	for _, inst := range h.Instructions {
		if inst.Op == ir.OpPhi {
			continue
		}
		if inst == term {
			continue
		}
		clone := cloneInstruction(inst, instMap, mapValue, nil, footerSuffix)
		footer.PushInst(clone)
	}
	footerCond := ir.NewCondBranch(mapValue(term.Operands[0]), e, s)
	footer.PushInst(footerCond)
	fn.AddBlock(footer)

	// Retarget the latch: it used to branch back to h, now it branches into
	// the footer, which performs the same test the header did.
	retarget(latch, h, footer)

	// Any Phi in e or s whose only loop-side incoming edge was h must also
	// accept one from footer now that footer is a second path into them.
	for _, exit := range []*ir.BasicBlock{e, s} {
		for _, inst := range exit.Instructions {
			if inst.Op != ir.OpPhi {
				continue
			}
			for i, b := range inst.PhiIncoming {
				if b == h {
					inst.AddIncoming(footer, mapValue(inst.Operands[i]))
					break
				}
			}
		}
	}

	return true
}

// headerEscapesNonPhi reports whether some non-Phi, non-terminator
// instruction defined in h is used outside the loop (by a block not in
// loop.Blocks), which this pass declines to rotate around.
func headerEscapesNonPhi(h *ir.BasicBlock, loop *ir.Loop) bool {
	for _, inst := range h.Instructions {
		if inst.Op == ir.OpPhi || inst.Op.IsTerminator() {
			continue
		}
		for _, u := range inst.Users() {
			if u.Parent != nil && !loop.Blocks[u.Parent] {
				return true
			}
		}
	}
	return false
}

// retarget rewrites b's terminator so every branch target equal to from
// becomes to, fixing up the Preds/Succs bookkeeping to match.
func retarget(b *ir.BasicBlock, from, to *ir.BasicBlock) {
	term := b.Terminator()
	if term == nil {
		return
	}
	changed := false
	for i, t := range term.Targets {
		if t == from {
			term.Targets[i] = to
			changed = true
		}
	}
	if !changed {
		return
	}
	for i, s := range b.Succs {
		if s == from {
			b.Succs[i] = to
		}
	}
	for i, p := range from.Preds {
		if p == b {
			from.Preds = append(from.Preds[:i], from.Preds[i+1:]...)
			break
		}
	}
	to.Preds = append(to.Preds, b)
}
