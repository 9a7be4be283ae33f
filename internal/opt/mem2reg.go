package opt

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ir"
)

func init() {
	Register(&Pass{
		Name:     "mem2reg",
		Category: Canonicalization,
		Function: mem2Reg,
	})
}

// mem2Reg lifts single-function Allocas whose only users are Load/Store to
// SSA registers, grounded on original_source/lib/Opt/Mem2Reg2.cc. Per
// spec.md §4.4: for each promotable alloca, collect its stores per basic
// block, then for each load walk predecessors to find the reaching
// definition, inserting a Phi when more than one definition can reach a
// point — the classic incomplete-Phi construction (memoize each block's
// value before recursing into its predecessors so a cyclic CFG terminates).
func mem2Reg(fn *ir.Function, _ Args) bool {
	entry := fn.Entry()
	if entry == nil {
		return false
	}
	changed := false
	// Collect candidates up front: RemoveInst below mutates entry's
	// instruction list, so iterate over a snapshot.
	var candidates []*ir.Instruction
	for _, inst := range entry.Instructions {
		if inst.Op == ir.OpAlloca && isPromotable(inst) {
			candidates = append(candidates, inst)
		}
	}
	for _, alloca := range candidates {
		if promoteAlloca(fn, alloca) {
			changed = true
		}
	}
	return changed
}

// isPromotable reports whether every user of alloca is a Load reading it or
// a Store writing through it (never storing the address itself elsewhere,
// which would let the pointer escape SSA-table tracking).
func isPromotable(alloca *ir.Instruction) bool {
	for _, u := range alloca.Users() {
		switch u.Op {
		case ir.OpLoad:
			if len(u.Operands) != 1 || u.Operands[0] != alloca {
				return false
			}
		case ir.OpStore:
			if len(u.Operands) != 2 || u.Operands[0] != alloca {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type mem2regCtx struct {
	alloca    *ir.Instruction
	elemType  ir.Type
	stores    map[*ir.BasicBlock][]*ir.Instruction // in program order
	endCache  map[*ir.BasicBlock]ir.Value
	entCache  map[*ir.BasicBlock]ir.Value
	tmpSeq    int
}

func promoteAlloca(fn *ir.Function, alloca *ir.Instruction) bool {
	c := &mem2regCtx{
		alloca:   alloca,
		elemType: alloca.AllocatedType(),
		stores:   map[*ir.BasicBlock][]*ir.Instruction{},
		endCache: map[*ir.BasicBlock]ir.Value{},
		entCache: map[*ir.BasicBlock]ir.Value{},
	}
	for _, u := range alloca.Users() {
		if u.Op == ir.OpStore {
			c.stores[u.Parent] = append(c.stores[u.Parent], u)
		}
	}
	for _, b := range c.stores {
		sortByPosition(fn, b)
	}

	var loads []*ir.Instruction
	for _, u := range alloca.Users() {
		if u.Op == ir.OpLoad {
			loads = append(loads, u)
		}
	}
	for _, load := range loads {
		repl := c.valueBeforeLoad(load)
		ir.ReplaceAllUsesWith(load, repl)
		load.Parent.RemoveInst(load)
	}

	// The alloca and its stores are now dead: no load reads through them
	// anymore (every load was just replaced), so any remaining uses are
	// exactly the stores we promoted away.
	for _, u := range append([]*ir.Instruction{}, alloca.Users()...) {
		u.Parent.RemoveInst(u)
	}
	if len(alloca.Users()) == 0 {
		alloca.Parent.RemoveInst(alloca)
	}
	return true
}

// sortByPosition orders a block's stores to one alloca by their position in
// fn's instruction stream, since Users() returns them in use-list
// (insertion) order which already matches program order for PushInst-built
// IR, but sort defensively in case a future pass pushes out of order.
func sortByPosition(fn *ir.Function, stores []*ir.Instruction) {
	if len(stores) < 2 {
		return
	}
	block := stores[0].Parent
	pos := map[*ir.Instruction]int{}
	for i, inst := range block.Instructions {
		pos[inst] = i
	}
	for i := 1; i < len(stores); i++ {
		for j := i; j > 0 && pos[stores[j-1]] > pos[stores[j]]; j-- {
			stores[j-1], stores[j] = stores[j], stores[j-1]
		}
	}
}

func (c *mem2regCtx) tmpName() string {
	c.tmpSeq++
	return fmt.Sprintf("%s.ssa%d", c.alloca.AllocatedType().String(), c.tmpSeq)
}

// valueBeforeLoad finds the value reaching load: the most recent store to
// the alloca earlier in load's own block, else the value reaching that
// block's entry.
func (c *mem2regCtx) valueBeforeLoad(load *ir.Instruction) ir.Value {
	block := load.Parent
	stores := c.stores[block]
	if len(stores) == 0 {
		return c.valueAtEntry(block)
	}
	loadPos := indexOf(block, load)
	var last *ir.Instruction
	for _, s := range stores {
		if indexOf(block, s) < loadPos {
			last = s
		}
	}
	if last == nil {
		return c.valueAtEntry(block)
	}
	return last.Operands[1]
}

func indexOf(block *ir.BasicBlock, inst *ir.Instruction) int {
	for i, c := range block.Instructions {
		if c == inst {
			return i
		}
	}
	return -1
}

func (c *mem2regCtx) valueAtEnd(b *ir.BasicBlock) ir.Value {
	if v, ok := c.endCache[b]; ok {
		return v
	}
	if stores := c.stores[b]; len(stores) > 0 {
		v := stores[len(stores)-1].Operands[1]
		c.endCache[b] = v
		return v
	}
	v := c.valueAtEntry(b)
	c.endCache[b] = v
	return v
}

func (c *mem2regCtx) valueAtEntry(b *ir.BasicBlock) ir.Value {
	if v, ok := c.entCache[b]; ok {
		return v
	}
	if len(b.Preds) == 0 {
		v := zeroValue(c.elemType)
		c.entCache[b] = v
		return v
	}
	if len(b.Preds) == 1 && b.Preds[0] != b {
		v := c.valueAtEnd(b.Preds[0])
		c.entCache[b] = v
		return v
	}
	phi := ir.NewPhi(c.tmpName(), c.elemType)
	b.PushInstFront(phi)
	c.entCache[b] = phi // memoized before recursing: breaks predecessor cycles
	for _, pred := range b.Preds {
		phi.AddIncoming(pred, c.valueAtEnd(pred))
	}
	return phi
}

func zeroValue(t ir.Type) ir.Value {
	switch t.(type) {
	case ir.FloatType:
		return ir.NewConstantFloat(0, t)
	default:
		return ir.NewConstantInt(0, t)
	}
}
