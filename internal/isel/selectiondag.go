// Package isel lowers SSA IR to Machine IR through a per-block selection
// DAG, grounded on original_source/lib/CodeGen/{ISel.cc,ISelFunction.{h,cc},
// LowerToMIR2.cc,Resolver.h,ValueMap.{h,cc}}.
package isel

import "github.com/cwbudde/go-dws/internal/ir"

// Node is one IR instruction's place in a block's selection DAG: DataPreds
// record operand producers local to the block, and ChainPred threads every
// side-effecting instruction (Alloca/Load/Store/Call/terminators) through
// program order, since memory effects and control transfers must never be
// reordered relative to each other even though pure arithmetic may in
// principle float between its producer and its single consumer.
type Node struct {
	Inst      *ir.Instruction
	DataPreds []*Node
	ChainPred *Node
}

// DAG is one basic block's selection graph.
type DAG struct {
	Block  *ir.BasicBlock
	Nodes  []*Node
	ByInst map[*ir.Instruction]*Node
	Roots  []*Node // terminators and calls: the graph's chain-root instructions
}

func isChainOp(op ir.Opcode) bool {
	switch op {
	case ir.OpLoad, ir.OpStore, ir.OpCall, ir.OpAlloca:
		return true
	default:
		return op.IsTerminator()
	}
}

// Build constructs bb's selection DAG: one node per instruction, data edges
// on operand references, and a chain edge linking every side-effecting
// instruction to the previous one in program order.
func Build(bb *ir.BasicBlock) *DAG {
	dag := &DAG{Block: bb, ByInst: map[*ir.Instruction]*Node{}}
	var lastChain *Node
	for _, inst := range bb.Instructions {
		n := &Node{Inst: inst}
		for _, op := range inst.Operands {
			if prodInst, ok := op.(*ir.Instruction); ok && prodInst.Parent == bb {
				if prod, ok := dag.ByInst[prodInst]; ok {
					n.DataPreds = append(n.DataPreds, prod)
				}
			}
		}
		if isChainOp(inst.Op) {
			n.ChainPred = lastChain
			lastChain = n
		}
		dag.Nodes = append(dag.Nodes, n)
		dag.ByInst[inst] = n
		if inst.Op.IsTerminator() || inst.Op == ir.OpCall {
			dag.Roots = append(dag.Roots, n)
		}
	}
	return dag
}

// Schedule linearizes the DAG into emission order via Kahn's algorithm,
// breaking ties by original program position. This lowering's IR already
// places every instruction in a valid order with no reordering freedom
// actually exploited (spec.md §9: the scheduler here is "simply a
// linearization in topsort order"), so Schedule reproduces the block's
// original order whenever no other order is also valid, and only a
// documented future extension (hoisting pure computations toward their use)
// would ever make it diverge.
func (dag *DAG) Schedule() []*ir.Instruction {
	pos := make(map[*ir.Instruction]int, len(dag.Nodes))
	for i, inst := range dag.Block.Instructions {
		pos[inst] = i
	}
	indeg := make(map[*Node]int, len(dag.Nodes))
	succs := make(map[*Node][]*Node, len(dag.Nodes))
	for _, n := range dag.Nodes {
		preds := n.DataPreds
		if n.ChainPred != nil {
			preds = append(preds, n.ChainPred)
		}
		for _, p := range preds {
			indeg[n]++
			succs[p] = append(succs[p], n)
		}
	}
	var ready []*Node
	for _, n := range dag.Nodes {
		if indeg[n] == 0 {
			ready = append(ready, n)
		}
	}
	var order []*ir.Instruction
	for len(ready) > 0 {
		bestIdx := 0
		for i, n := range ready {
			if pos[n.Inst] < pos[ready[bestIdx].Inst] {
				bestIdx = i
			}
		}
		n := ready[bestIdx]
		ready = append(ready[:bestIdx], ready[bestIdx+1:]...)
		order = append(order, n.Inst)
		for _, s := range succs[n] {
			indeg[s]--
			if indeg[s] == 0 {
				ready = append(ready, s)
			}
		}
	}
	return order
}
