package opt

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ir"
)

func init() {
	Register(&Pass{
		Name:     "inline",
		Category: Simplification,
		Module:   inline,
	})
}

// inlineCounter gives every clone a module-unique name suffix; SSA names
// only need to be unique for readability here (nothing parses them back),
// so a process-wide counter is simplest.
var inlineCounter int

// inline is the module pass walking the call graph bottom-up, grounded on
// original_source/lib/Opt/Inliner.cc: visit SCCs callee-first so a callee
// is already as small as inlining can make it before its callers decide
// whether to absorb it, and only ever inline a call whose callee is not
// part of any recursive SCC (a simplification of the source's explicit
// self-recursion trip counter — this package declines to inline recursive
// functions at all rather than bound the unrolling).
func inline(mod *ir.Module, _ Args) bool {
	cg := ir.BuildSCCCallGraph(mod)
	changed := false

	for _, scc := range cg.SCCs {
		for _, fn := range scc.Functions {
			if fn.IsExtern {
				continue
			}
			for inlineOneCallSite(mod, cg, fn) {
				changed = true
			}
		}
	}
	return changed
}

// inlineOneCallSite finds the first call site in fn that should be
// inlined and inlines it, returning true if it found and inlined one (the
// caller loops until none remain, since inlining can expose new,
// now-small call sites the same way the source's worklist does).
func inlineOneCallSite(mod *ir.Module, cg *ir.SCCCallGraph, fn *ir.Function) bool {
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if inst.Op != ir.OpCall || inst.Callee == nil {
				continue
			}
			callee := inst.Callee
			if callee == fn || callee.IsExtern {
				continue
			}
			if scc := cg.Of[callee]; scc == nil || scc.IsRecursive() {
				continue
			}
			if !shouldInline(mod, inst, callee) {
				continue
			}
			inlineCallSite(fn, b, inst, callee)
			return true
		}
	}
	return false
}

// shouldInline mirrors spec.md §4.4's budget: a callee under 40
// instructions always qualifies, one under 21 qualifies if some argument is
// a constant (a case the first rule already admits), and a single-use callee
// always qualifies since inlining it can't grow code size. Call sites are
// counted by scanning the module rather than callee.Users(): Callee is
// bookkeeping metadata on a Call instruction, not an SSA operand, so it
// never participates in the Value use-list (see calleesOf in callgraph.go,
// which scans instructions the same way for the same reason).
func shouldInline(mod *ir.Module, call *ir.Instruction, callee *ir.Function) bool {
	n := instructionCount(callee)
	if n < 40 {
		return true
	}
	if n < 21 && hasConstantArg(call) {
		return true
	}
	return countCallSites(mod, callee) <= 1
}

func countCallSites(mod *ir.Module, callee *ir.Function) int {
	n := 0
	for _, f := range mod.Functions {
		for _, b := range f.Blocks {
			for _, inst := range b.Instructions {
				if inst.Op == ir.OpCall && inst.Callee == callee {
					n++
				}
			}
		}
	}
	return n
}

func instructionCount(fn *ir.Function) int {
	n := 0
	for _, b := range fn.Blocks {
		n += len(b.Instructions)
	}
	return n
}

func hasConstantArg(call *ir.Instruction) bool {
	for _, op := range call.Operands {
		switch op.(type) {
		case *ir.ConstantInt, *ir.ConstantFloat, *ir.ConstantData:
			return true
		}
	}
	return false
}

// returnSite pairs a cloned predecessor block with the value it returned,
// feeding the Phi (or direct substitution) built at the continuation.
type returnSite struct {
	block *ir.BasicBlock
	value ir.Value
}

// inlineCallSite splices callee's body into fn at call, replacing call
// with a branch into the cloned entry block and rejoining every cloned
// return with a branch into a new continuation block that inherits the
// rest of callerBlock's original instructions.
func inlineCallSite(fn *ir.Function, callerBlock *ir.BasicBlock, call *ir.Instruction, callee *ir.Function) {
	idx := indexOf(callerBlock, call)
	after := append([]*ir.Instruction{}, callerBlock.Instructions[idx+1:]...)
	callerBlock.RemoveInst(call)
	callerBlock.Instructions = callerBlock.Instructions[:idx]

	cont := ir.NewBasicBlock(fmt.Sprintf("%s.cont%d", callee.Name(), nextInlineID()))
	cont.Instructions = after
	for _, inst := range after {
		inst.Parent = cont
	}
	cont.Succs = callerBlock.Succs
	for _, succ := range cont.Succs {
		replacePred(succ, callerBlock, cont)
	}
	callerBlock.Succs = nil
	fn.AddBlock(cont)

	paramMap := map[*ir.Parameter]ir.Value{}
	for i, p := range callee.Params {
		if i < len(call.Operands) {
			paramMap[p] = call.Operands[i]
		}
	}

	blockMap := map[*ir.BasicBlock]*ir.BasicBlock{}
	suffix := nextInlineID()
	for _, b := range callee.Blocks {
		blockMap[b] = ir.NewBasicBlock(fmt.Sprintf("%s.%s.%d", callee.Name(), b.Name(), suffix))
	}

	instMap := map[*ir.Instruction]*ir.Instruction{}
	for _, b := range callee.Blocks {
		for _, inst := range b.Instructions {
			if inst.Op == ir.OpPhi {
				instMap[inst] = ir.NewPhi(cloneName(inst, suffix), inst.Type())
			}
		}
	}

	mapValue := func(v ir.Value) ir.Value {
		if v == nil {
			return nil
		}
		switch t := v.(type) {
		case *ir.Parameter:
			if mapped, ok := paramMap[t]; ok {
				return mapped
			}
			return v
		case *ir.Instruction:
			if cloned, ok := instMap[t]; ok {
				return cloned
			}
			return v
		default:
			return v
		}
	}

	var sites []returnSite
	for _, b := range callee.Blocks {
		nb := blockMap[b]
		for _, inst := range b.Instructions {
			switch inst.Op {
			case ir.OpReturn:
				var val ir.Value
				if len(inst.Operands) > 0 {
					val = mapValue(inst.Operands[0])
				}
				nb.PushInst(ir.NewBranch(cont))
				sites = append(sites, returnSite{block: nb, value: val})
			case ir.OpPhi:
				nb.PushInst(instMap[inst])
			default:
				nb.PushInst(cloneInstruction(inst, instMap, mapValue, blockMap, suffix))
			}
		}
		fn.AddBlock(nb)
	}

	for _, b := range callee.Blocks {
		for _, inst := range b.Instructions {
			if inst.Op != ir.OpPhi {
				continue
			}
			clone := instMap[inst]
			for i, v := range inst.Operands {
				clone.AddIncoming(blockMap[inst.PhiIncoming[i]], mapValue(v))
			}
		}
	}

	callerBlock.PushInst(ir.NewBranch(blockMap[callee.Entry()]))

	if call.Type() != ir.Void && len(call.Users()) > 0 {
		switch {
		case len(sites) == 1 && sites[0].value != nil:
			ir.ReplaceAllUsesWith(call, sites[0].value)
		case len(sites) > 1:
			phi := ir.NewPhi(fmt.Sprintf("%s.ret%d", callee.Name(), suffix), call.Type())
			cont.PushInstFront(phi)
			for _, s := range sites {
				if s.value != nil {
					phi.AddIncoming(s.block, s.value)
				}
			}
			ir.ReplaceAllUsesWith(call, phi)
		}
	}
}

func nextInlineID() int {
	inlineCounter++
	return inlineCounter
}

func cloneName(inst *ir.Instruction, suffix int) string {
	return fmt.Sprintf("%s.%d", inst.Type().String(), suffix)
}

func replacePred(b *ir.BasicBlock, oldPred, newPred *ir.BasicBlock) {
	for i, p := range b.Preds {
		if p == oldPred {
			b.Preds[i] = newPred
		}
	}
}

// cloneInstruction builds the non-Phi, non-Return clone of inst using the
// opcode-specific constructor (unexported fields like an Alloca's
// allocated type or a GEP's offset can only be set that way). Phi/Return
// are handled by the caller since they need access to the surrounding
// control-flow bookkeeping.
func cloneInstruction(inst *ir.Instruction, instMap map[*ir.Instruction]*ir.Instruction, mapValue func(ir.Value) ir.Value, blockMap map[*ir.BasicBlock]*ir.BasicBlock, suffix int) *ir.Instruction {
	var clone *ir.Instruction
	switch inst.Op {
	case ir.OpAlloca:
		clone = ir.NewAlloca(fmt.Sprintf("a.%d", suffix), inst.AllocatedType(), inst.Type())
	case ir.OpLoad:
		clone = ir.NewLoad(fmt.Sprintf("ld.%d", suffix), mapValue(inst.Operands[0]), inst.Type())
	case ir.OpStore:
		clone = ir.NewStore(mapValue(inst.Operands[0]), mapValue(inst.Operands[1]))
	case ir.OpGetElementPointer:
		name := fmt.Sprintf("gep.%d", suffix)
		if inst.IsIndexed() {
			clone = ir.NewIndexedGEP(name, mapValue(inst.Operands[0]), mapValue(inst.Operands[1]), inst.GEPOffset(), inst.Type())
		} else {
			clone = ir.NewGEP(name, mapValue(inst.Operands[0]), inst.GEPOffset(), inst.Type())
		}
	case ir.OpCall:
		args := make([]ir.Value, len(inst.Operands))
		for i, op := range inst.Operands {
			args[i] = mapValue(op)
		}
		clone = ir.NewCall(fmt.Sprintf("call.%d", suffix), inst.Callee, args, inst.Type())
	case ir.OpBranch:
		clone = ir.NewBranch(blockMap[inst.Targets[0]])
	case ir.OpCondBranch:
		clone = ir.NewCondBranch(mapValue(inst.Operands[0]), blockMap[inst.Targets[0]], blockMap[inst.Targets[1]])
	case ir.OpTrunc, ir.OpSExt, ir.OpZExt, ir.OpFTrunc, ir.OpFExt,
		ir.OpSIToFP, ir.OpUIToFP, ir.OpFPToSI, ir.OpFPToUI, ir.OpBitcast:
		clone = ir.NewUnary(inst.Op, fmt.Sprintf("cv.%d", suffix), mapValue(inst.Operands[0]), inst.Type())
	default:
		clone = ir.NewBinary(inst.Op, fmt.Sprintf("v.%d", suffix), mapValue(inst.Operands[0]), mapValue(inst.Operands[1]), inst.Type())
	}
	instMap[inst] = clone
	return clone
}
