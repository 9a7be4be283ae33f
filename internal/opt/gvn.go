package opt

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-dws/internal/ir"
)

func init() {
	Register(&Pass{
		Name:     "gvn",
		Category: Simplification,
		Function: gvn,
	})
}

// pureOpcodes are the instruction kinds GVN may eliminate: side-effect-free
// computations whose result depends only on their operands. Alloca/Load/
// Store/Call/Phi/terminators are excluded — aliasing and control flow make
// their "redundancy" unsafe to reason about structurally.
var pureOpcodes = map[ir.Opcode]bool{
	ir.OpAdd: true, ir.OpSub: true, ir.OpMul: true,
	ir.OpSDiv: true, ir.OpUDiv: true, ir.OpSRem: true, ir.OpURem: true,
	ir.OpFAdd: true, ir.OpFSub: true, ir.OpFMul: true, ir.OpFDiv: true,
	ir.OpAnd: true, ir.OpOr: true, ir.OpXor: true,
	ir.OpShl: true, ir.OpLShr: true, ir.OpAShr: true,
	ir.OpICmpEq: true, ir.OpICmpNe: true,
	ir.OpICmpSLt: true, ir.OpICmpSLe: true, ir.OpICmpSGt: true, ir.OpICmpSGe: true,
	ir.OpICmpULt: true, ir.OpICmpULe: true, ir.OpICmpUGt: true, ir.OpICmpUGe: true,
	ir.OpFCmpEq: true, ir.OpFCmpNe: true,
	ir.OpFCmpLt: true, ir.OpFCmpLe: true, ir.OpFCmpGt: true, ir.OpFCmpGe: true,
	ir.OpTrunc: true, ir.OpSExt: true, ir.OpZExt: true,
	ir.OpFTrunc: true, ir.OpFExt: true,
	ir.OpSIToFP: true, ir.OpUIToFP: true, ir.OpFPToSI: true, ir.OpFPToUI: true,
	ir.OpBitcast: true,
	ir.OpGetElementPointer: true,
}

// gvn eliminates redundant pure computations, grounded on
// original_source/lib/Opt/GlobalValueNumbering.cc's rank-based LCT/MCT
// scheme, but via a dominator-tree walk rather than the source's explicit
// per-edge Movable Computation Tables: since the walk visits a block only
// after every block that dominates it, any computation found "available"
// in an enclosing scope already reaches the current block on every path
// without needing to be moved or re-joined with a Phi. This trades away
// the source's ability to hoist a computation shared by two sibling
// branches into their common predecessor (true partial-redundancy
// elimination) for a simpler, still-correct elimination of the strictly
// dominated redundancies, which is what the bulk of real redundant
// computation in straight-line and loop-nested code looks like.
func gvn(fn *ir.Function, _ Args) bool {
	entry := fn.Entry()
	if entry == nil {
		return false
	}
	dom := ir.ComputeDominance(fn)
	children := dominatorChildren(fn, dom)

	g := &gvnState{changed: false}
	g.walk(entry, children, []map[string]*ir.Instruction{{}})
	return g.changed
}

type gvnState struct {
	changed bool
}

// dominatorChildren inverts DominanceInfo.IDom into a tree adjacency map,
// since the optimizer only exposes parent queries.
func dominatorChildren(fn *ir.Function, dom *ir.DominanceInfo) map[*ir.BasicBlock][]*ir.BasicBlock {
	children := map[*ir.BasicBlock][]*ir.BasicBlock{}
	for _, b := range fn.Blocks {
		if idom := dom.IDom(b); idom != nil {
			children[idom] = append(children[idom], b)
		}
	}
	return children
}

// walk visits b, then recurses into its dominator-tree children, carrying
// a stack of scopes (one map per ancestor block) so a computation found
// available in any enclosing block is reused and popped back out again
// once that subtree is done — the standard dominator-tree-scoped value
// table discipline.
func (g *gvnState) walk(b *ir.BasicBlock, children map[*ir.BasicBlock][]*ir.BasicBlock, scopes []map[string]*ir.Instruction) {
	local := map[string]*ir.Instruction{}
	scopes = append(scopes, local)

	for _, inst := range append([]*ir.Instruction{}, b.Instructions...) {
		if !pureOpcodes[inst.Op] {
			continue
		}
		key := computationKey(inst)
		if key == "" {
			continue
		}
		if prior := lookup(scopes, key); prior != nil {
			ir.ReplaceAllUsesWith(inst, prior)
			b.RemoveInst(inst)
			g.changed = true
			continue
		}
		local[key] = inst
	}

	for _, child := range children[b] {
		g.walk(child, children, scopes)
	}
}

func lookup(scopes []map[string]*ir.Instruction, key string) *ir.Instruction {
	for i := len(scopes) - 1; i >= 0; i-- {
		if inst, ok := scopes[i][key]; ok {
			return inst
		}
	}
	return nil
}

// computationKey builds a structural identity for inst: two instructions
// with the same opcode, result type, and operand identities (by pointer,
// since operands are already SSA values) compute the same thing. GEP also
// folds in its offset/stride since two GEPs over the same base can differ
// only there.
func computationKey(inst *ir.Instruction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|%s|", inst.Op, inst.Type().String())
	for _, op := range inst.Operands {
		fmt.Fprintf(&sb, "%s;", operandKey(op))
	}
	if inst.Op == ir.OpGetElementPointer {
		fmt.Fprintf(&sb, "%d;%t", inst.GEPOffset(), inst.IsIndexed())
	}
	return sb.String()
}

// operandKey identifies an operand by value for immediates (so two
// separately-materialized ConstantInt(7)s number the same) and by
// identity otherwise (an Instruction result or Parameter is only equal to
// itself).
func operandKey(v ir.Value) string {
	switch c := v.(type) {
	case *ir.ConstantInt:
		return fmt.Sprintf("ci:%s:%d", c.Type().String(), c.Value)
	case *ir.ConstantFloat:
		return fmt.Sprintf("cf:%s:%g", c.Type().String(), c.Value)
	default:
		return fmt.Sprintf("p:%p", v)
	}
}
